package cli

import (
	"flag"
	"fmt"

	"github.com/platinummonkey/quotahub/pkg/api"
	"github.com/platinummonkey/quotahub/pkg/quota"
)

func newSetCommand() *Command {
	cmd := &Command{
		Name:        "set",
		Description: "Update limits, tier, name, or slug for an organization (admin)",
		Flags:       flag.NewFlagSet("set", flag.ExitOnError),
		Run:         runSet,
	}

	cmd.Flags.String("org", "", "Organization ID (required)")
	cmd.Flags.String("name", "", "New display name")
	cmd.Flags.String("slug", "", "New slug")
	cmd.Flags.String("tier", "", "Tier preset (developer, pro, unlimited)")
	cmd.Flags.Int64("plugins", -2, "Plugins limit (-1 for unlimited)")
	cmd.Flags.Int64("pipelines", -2, "Pipelines limit (-1 for unlimited)")
	cmd.Flags.Int64("api-calls", -2, "API calls limit (-1 for unlimited)")
	addCommonFlags(cmd.Flags)

	return cmd
}

func runSet(args []string) error {
	cmd := newSetCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	org := cmd.Flags.Lookup("org").Value.String()
	if org == "" {
		return fmt.Errorf("--org is required")
	}

	client, err := clientFromFlags(cmd.Flags)
	if err != nil {
		return err
	}

	req := api.UpdateOrgRequest{Quotas: make(map[string]int64)}
	if v := cmd.Flags.Lookup("name").Value.String(); v != "" {
		req.Name = &v
	}
	if v := cmd.Flags.Lookup("slug").Value.String(); v != "" {
		req.Slug = &v
	}
	if v := cmd.Flags.Lookup("tier").Value.String(); v != "" {
		req.Tier = &v
	}
	// -2 is the "not set" sentinel: -1 is a legal value (unlimited).
	for name, flagName := range map[string]string{
		"plugins":   "plugins",
		"pipelines": "pipelines",
		"apiCalls":  "api-calls",
	} {
		limit := cmd.Flags.Lookup(flagName).Value.(flag.Getter).Get().(int64)
		if limit >= -1 {
			req.Quotas[name] = limit
		}
	}
	if len(req.Quotas) == 0 {
		req.Quotas = nil
	}
	if req.Name == nil && req.Slug == nil && req.Tier == nil && req.Quotas == nil {
		return fmt.Errorf("nothing to update")
	}

	var resp quota.OrgQuotaResponse
	if err := client.Put(fmt.Sprintf("/api/v1/admin/orgs/%s", org), req, &resp); err != nil {
		return err
	}
	printOrg(&resp)
	return nil
}

package cli

import (
	"flag"
	"fmt"

	"github.com/platinummonkey/quotahub/pkg/api"
	"github.com/platinummonkey/quotahub/pkg/quota"
)

func newResetCommand() *Command {
	cmd := &Command{
		Name:        "reset",
		Description: "Reset usage counters for an organization (admin)",
		Flags:       flag.NewFlagSet("reset", flag.ExitOnError),
		Run:         runReset,
	}

	cmd.Flags.String("org", "", "Organization ID (required)")
	cmd.Flags.String("type", "", "Resource type to reset (empty for all)")
	addCommonFlags(cmd.Flags)

	return cmd
}

func runReset(args []string) error {
	cmd := newResetCommand()
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

	var body interface{}
	if rt := cmd.Flags.Lookup("type").Value.String(); rt != "" {
		body = api.ResetUsageRequest{Type: rt}
	}

	var resp quota.OrgQuotaResponse
	if err := client.Post(fmt.Sprintf("/api/v1/admin/orgs/%s/reset", org), body, &resp); err != nil {
		return err
	}
	printOrg(&resp)
	return nil
}

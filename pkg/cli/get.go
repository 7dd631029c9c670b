package cli

import (
	"flag"
	"fmt"

	"github.com/platinummonkey/quotahub/pkg/api"
	"github.com/platinummonkey/quotahub/pkg/quota"
)

func newGetCommand() *Command {
	cmd := &Command{
		Name:        "get",
		Description: "Show quota state for an organization",
		Flags:       flag.NewFlagSet("get", flag.ExitOnError),
		Run:         runGet,
	}

	cmd.Flags.String("org", "", "Organization ID (empty for the token's own org)")
	cmd.Flags.String("type", "", "Single resource type (plugins, pipelines, apiCalls)")
	addCommonFlags(cmd.Flags)

	return cmd
}

func runGet(args []string) error {
	cmd := newGetCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	client, err := clientFromFlags(cmd.Flags)
	if err != nil {
		return err
	}

	org := cmd.Flags.Lookup("org").Value.String()
	resourceType := cmd.Flags.Lookup("type").Value.String()

	if resourceType != "" {
		if org == "" {
			return fmt.Errorf("--type requires --org")
		}
		var resp api.SingleQuotaResponse
		if err := client.Get(fmt.Sprintf("/api/v1/orgs/%s/quotas/%s", org, resourceType), &resp); err != nil {
			return err
		}
		fmt.Printf("%-10s %s\n", resp.QuotaType, formatStatus(resp.Status))
		return nil
	}

	path := "/api/v1/quotas"
	if org != "" {
		path = fmt.Sprintf("/api/v1/orgs/%s/quotas", org)
	}

	var resp quota.OrgQuotaResponse
	if err := client.Get(path, &resp); err != nil {
		return err
	}
	printOrg(&resp)
	return nil
}

// printOrg renders one organization's quota summary.
func printOrg(resp *quota.OrgQuotaResponse) {
	fmt.Printf("Organization: %s", resp.OrgID)
	if resp.Name != "" {
		fmt.Printf(" (%s)", resp.Name)
	}
	fmt.Println()
	if resp.Tier != "" {
		fmt.Printf("Tier:         %s\n", resp.Tier)
	}
	if resp.IsDefault {
		fmt.Println("              (no quota record, showing system defaults)")
	}
	fmt.Println()
	fmt.Printf("  %-10s %10s %10s %10s  %s\n", "RESOURCE", "USED", "LIMIT", "REMAINING", "RESETS")
	for _, rt := range quota.ResourceTypes() {
		s := resp.Quotas[rt]
		limit := fmt.Sprintf("%d", s.Limit)
		remaining := fmt.Sprintf("%d", s.Remaining)
		if s.Unlimited {
			limit = "unlimited"
			remaining = "-"
		}
		fmt.Printf("  %-10s %10d %10s %10s  %s\n",
			rt, s.Used, limit, remaining, s.ResetAt.Format("2006-01-02 15:04 MST"))
	}
}

// formatStatus renders a single resource type status on one line.
func formatStatus(s quota.Status) string {
	if s.Unlimited {
		return fmt.Sprintf("used=%d limit=unlimited resets=%s", s.Used, s.ResetAt.Format("2006-01-02 15:04 MST"))
	}
	return fmt.Sprintf("used=%d limit=%d remaining=%d resets=%s",
		s.Used, s.Limit, s.Remaining, s.ResetAt.Format("2006-01-02 15:04 MST"))
}

package cli

import (
	"flag"
	"fmt"

	"github.com/platinummonkey/quotahub/pkg/api"
	"github.com/platinummonkey/quotahub/pkg/quota"
)

func newListCommand() *Command {
	cmd := &Command{
		Name:        "list",
		Description: "List quota state for all organizations (admin)",
		Flags:       flag.NewFlagSet("list", flag.ExitOnError),
		Run:         runList,
	}

	addCommonFlags(cmd.Flags)

	return cmd
}

func runList(args []string) error {
	cmd := newListCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	client, err := clientFromFlags(cmd.Flags)
	if err != nil {
		return err
	}

	var resp api.ListQuotasResponse
	if err := client.Get("/api/v1/admin/quotas", &resp); err != nil {
		return err
	}

	fmt.Printf("%-20s %-20s %-10s %16s %16s %16s\n",
		"ORG", "NAME", "TIER", "PLUGINS", "PIPELINES", "API CALLS")
	for _, org := range resp.Organizations {
		fmt.Printf("%-20s %-20s %-10s %16s %16s %16s\n",
			org.OrgID, org.Name, org.Tier,
			formatUsage(org.Quotas[quota.ResourcePlugins]),
			formatUsage(org.Quotas[quota.ResourcePipelines]),
			formatUsage(org.Quotas[quota.ResourceAPICalls]))
	}
	fmt.Printf("\n%d organization(s)\n", resp.Total)
	return nil
}

// formatUsage renders a used/limit pair compactly for the listing.
func formatUsage(s quota.Summary) string {
	if s.Unlimited {
		return fmt.Sprintf("%d/unlimited", s.Used)
	}
	return fmt.Sprintf("%d/%d", s.Used, s.Limit)
}

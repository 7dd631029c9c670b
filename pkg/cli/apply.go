package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/quotahub/pkg/api"
	"github.com/platinummonkey/quotahub/pkg/quota"
)

func newApplyCommand() *Command {
	cmd := &Command{
		Name:        "apply",
		Description: "Apply quota settings for multiple organizations from a YAML file (admin)",
		Flags:       flag.NewFlagSet("apply", flag.ExitOnError),
		Run:         runApply,
	}

	cmd.Flags.String("file", "", "YAML file with organization quota settings (required)")
	cmd.Flags.Bool("dry-run", false, "Print what would be applied without calling the server")
	addCommonFlags(cmd.Flags)

	return cmd
}

// applyFile is the YAML document consumed by the apply command.
//
//	organizations:
//	  - org: org-123
//	    tier: pro
//	    quotas:
//	      plugins: 500
//	  - org: org-456
//	    name: "Acme Corp"
//	    quotas:
//	      apiCalls: -1
type applyFile struct {
	Organizations []applyEntry `yaml:"organizations"`
}

type applyEntry struct {
	Org    string           `yaml:"org"`
	Name   *string          `yaml:"name,omitempty"`
	Slug   *string          `yaml:"slug,omitempty"`
	Tier   *string          `yaml:"tier,omitempty"`
	Quotas map[string]int64 `yaml:"quotas,omitempty"`
}

// parseApplyFile reads and validates the YAML document.
func parseApplyFile(path string) (*applyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc applyFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(doc.Organizations) == 0 {
		return nil, fmt.Errorf("%s contains no organizations", path)
	}
	for i, entry := range doc.Organizations {
		if entry.Org == "" {
			return nil, fmt.Errorf("%s: organization %d has no org id", path, i+1)
		}
	}
	return &doc, nil
}

func runApply(args []string) error {
	cmd := newApplyCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	path := cmd.Flags.Lookup("file").Value.String()
	if path == "" {
		return fmt.Errorf("--file is required")
	}

	doc, err := parseApplyFile(path)
	if err != nil {
		return err
	}

	dryRun := cmd.Flags.Lookup("dry-run").Value.String() == "true"
	if dryRun {
		for _, entry := range doc.Organizations {
			fmt.Printf("would update %s: tier=%v quotas=%v\n", entry.Org, deref(entry.Tier), entry.Quotas)
		}
		return nil
	}

	client, err := clientFromFlags(cmd.Flags)
	if err != nil {
		return err
	}

	var failed int
	for _, entry := range doc.Organizations {
		req := api.UpdateOrgRequest{
			Name:   entry.Name,
			Slug:   entry.Slug,
			Tier:   entry.Tier,
			Quotas: entry.Quotas,
		}

		var resp quota.OrgQuotaResponse
		if err := client.Put(fmt.Sprintf("/api/v1/admin/orgs/%s", entry.Org), req, &resp); err != nil {
			logrus.WithField("org", entry.Org).WithError(err).Error("update failed")
			failed++
			continue
		}
		logrus.WithField("org", entry.Org).Debug("updated")
		fmt.Printf("updated %s\n", entry.Org)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d updates failed", failed, len(doc.Organizations))
	}
	fmt.Printf("applied %d organization(s)\n", len(doc.Organizations))
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package cli

import (
	"flag"
	"fmt"

	"github.com/platinummonkey/quotahub/pkg/auth"
)

func newTokenCommand() *Command {
	cmd := &Command{
		Name:        "token",
		Description: "Generate a new API token and its digest",
		Flags:       flag.NewFlagSet("token", flag.ExitOnError),
		Run:         runToken,
	}

	cmd.Flags.String("org", "", "Organization the token is for (informational)")

	return cmd
}

func runToken(args []string) error {
	cmd := newTokenCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	token, hash, prefix, err := auth.NewTokenGenerator().GenerateToken()
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	fmt.Println("Token generated. The token itself is shown once; only the digest is stored.")
	fmt.Println()
	fmt.Printf("  Token:  %s\n", token)
	fmt.Printf("  Digest: %s\n", hash)
	fmt.Printf("  Prefix: %s\n", prefix)
	fmt.Println()
	if org := cmd.Flags.Lookup("org").Value.String(); org != "" {
		fmt.Printf("Configure the server with:\n\n  QUOTAHUB_ORG_TOKENS=\"%s:%s\"\n", hash, org)
	} else {
		fmt.Printf("For a system admin token, configure the server with:\n\n  QUOTAHUB_ADMIN_TOKEN_HASHES=\"%s\"\n", hash)
	}
	return nil
}

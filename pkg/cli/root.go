package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand creates the root command
func NewRootCommand() *Command {
	root := &Command{
		Name:        "quotactl",
		Description: "QuotaHub - Organization Quota Administration CLI",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("quotactl", flag.ExitOnError),
	}

	// Add subcommands
	root.Subcommands["get"] = newGetCommand()
	root.Subcommands["list"] = newListCommand()
	root.Subcommands["set"] = newSetCommand()
	root.Subcommands["reset"] = newResetCommand()
	root.Subcommands["apply"] = newApplyCommand()
	root.Subcommands["token"] = newTokenCommand()

	return root
}

// Execute runs the command
func (c *Command) Execute() error {
	args := os.Args[1:]
	if len(args) == 0 {
		return c.usage()
	}

	// Check for help flag
	if args[0] == "-h" || args[0] == "--help" {
		return c.usage()
	}

	// Check for subcommand
	if subcmd, ok := c.Subcommands[args[0]]; ok {
		return subcmd.Run(args[1:])
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage() error {
	fmt.Printf("Usage: %s <command> [args]\n\n", c.Name)
	fmt.Printf("Commands:\n")
	for name, cmd := range c.Subcommands {
		fmt.Printf("  %-15s %s\n", name, cmd.Description)
	}
	return nil
}

// addCommonFlags registers the flags every remote command shares.
func addCommonFlags(fs *flag.FlagSet) {
	fs.String("server", "http://localhost:8080", "QuotaHub server URL")
	fs.String("token", "", "API token (defaults to QUOTAHUB_TOKEN)")
	fs.Bool("verbose", false, "Enable verbose logging")
}

// clientFromFlags builds an API client from the parsed common flags.
func clientFromFlags(fs *flag.FlagSet) (*Client, error) {
	if fs.Lookup("verbose").Value.String() == "true" {
		logrus.SetLevel(logrus.DebugLevel)
	}

	token := fs.Lookup("token").Value.String()
	if token == "" {
		token = os.Getenv("QUOTAHUB_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("API token is required (--token or QUOTAHUB_TOKEN)")
	}

	return NewClient(fs.Lookup("server").Value.String(), token), nil
}

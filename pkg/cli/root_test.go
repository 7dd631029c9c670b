package cli

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()

	// Test basic properties
	assert.Equal(t, "quotactl", root.Name)
	assert.NotNil(t, root.Subcommands)
	assert.NotNil(t, root.Flags)

	// Test that all expected subcommands are registered
	expectedCommands := []string{
		"get",
		"list",
		"set",
		"reset",
		"apply",
		"token",
	}

	for _, cmdName := range expectedCommands {
		assert.Contains(t, root.Subcommands, cmdName, "Expected subcommand %s to be registered", cmdName)
		assert.NotNil(t, root.Subcommands[cmdName], "Expected subcommand %s to be non-nil", cmdName)
	}

	// Verify the exact number of subcommands
	assert.Equal(t, len(expectedCommands), len(root.Subcommands))
}

func TestCommandUsage(t *testing.T) {
	root := NewRootCommand()

	// Capture stdout
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := root.usage()

	// Restore stdout
	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)
	output := buf.String()

	require.NoError(t, err)
	assert.Contains(t, output, "Usage: quotactl")
	assert.Contains(t, output, "get")
	assert.Contains(t, output, "apply")
}

func TestClientFromFlags_RequiresToken(t *testing.T) {
	os.Unsetenv("QUOTAHUB_TOKEN")

	cmd := newGetCommand()
	require.NoError(t, cmd.Flags.Parse(nil))

	_, err := clientFromFlags(cmd.Flags)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token is required")
}

func TestClientFromFlags_TokenFromEnv(t *testing.T) {
	os.Setenv("QUOTAHUB_TOKEN", "qh_test")
	defer os.Unsetenv("QUOTAHUB_TOKEN")

	cmd := newGetCommand()
	require.NoError(t, cmd.Flags.Parse(nil))

	client, err := clientFromFlags(cmd.Flags)
	require.NoError(t, err)
	assert.Equal(t, "qh_test", client.token)
}

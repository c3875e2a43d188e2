package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	assert.Contains(t, run(t, "version"), "storefront version dev")
}

func TestSessionCommands(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOREFRONT_APP_STORE", "file")
	t.Setenv("STOREFRONT_APP_STORE_PATH", filepath.Join(t.TempDir(), "sessions"))

	assert.Contains(t, run(t, "session", "ls"), "No active sessions found.")
	assert.Contains(t, run(t, "session", "rm", "ghost"), "Removed session 'ghost'")
}

func TestConsoleCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOREFRONT_APP_STORE", "memory")

	rootCmd.SetIn(bytes.NewBufferString("/quit\n"))
	out := run(t, "console", "--demo", "--plain", "--user", "cli")

	assert.Contains(t, out, "Here is our fish:")
}

func TestGraphCommand(t *testing.T) {
	out := run(t, "graph")
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, `s_waiting_email[/"waiting_email"/]`)
}

func TestValidateCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOREFRONT_APP_STORE", "memory")
	assert.Contains(t, run(t, "validate"), "are valid")
}

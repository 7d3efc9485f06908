package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vatfiler/internal/cli"
)

// useTestConfig points the shared --config flag at a fresh config file
// whose data directory is a temp dir.
func useTestConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))

	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("storage:\n  dataDir: %q\n%s", dataDir, extra)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	original := configFile
	configFile = path
	t.Cleanup(func() { configFile = original })
	return dataDir
}

func newOutputCmd() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&buf)
	c.SetErr(&buf)
	return c, &buf
}

func TestSetVersion(t *testing.T) {
	original := GetVersion()
	defer SetVersion(original)

	SetVersion("1.2.3-test")
	assert.Equal(t, "1.2.3-test", GetVersion())
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "vatfiler", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)

	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "connect", "auth", "receipts", "version", "self-update"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not connected", &cli.NotConnectedError{}, ExitCodeNotConnected},
		{"wrapped not connected", fmt.Errorf("status: %w", &cli.NotConnectedError{Expired: true}), ExitCodeNotConnected},
		{"auth failed", &cli.AuthFailedError{Reason: errors.New("denied")}, ExitCodeAuthFailed},
		{"generic", errors.New("boom"), ExitCodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getExitCode(tt.err))
		})
	}
}

func TestServerURL(t *testing.T) {
	assert.Equal(t, "http://localhost:3000", serverURL("localhost:3000"))
	assert.Equal(t, "http://localhost:8000", serverURL("0.0.0.0:8000"))
	assert.Equal(t, "http://localhost:8000", serverURL(":8000"))
	assert.Equal(t, "http://[::1]:8000", serverURL("[::1]:8000"))
}

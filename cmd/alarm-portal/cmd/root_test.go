package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-portal/internal/config"
)

// TestInitThenValidate writes a configuration with flags and validates it back.
//
//nolint:paralleltest // Cobra commands and flags are package globals.
func TestInitThenValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarm-portal.yaml")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"init", "--config", path,
		"--server-url", "https://portal.example.com/",
		"--api-token", "s3cr3t",
		"--entity-id", "alarm_control_panel.home",
		"--ha-url", "ws://homeassistant.local:8123/api/websocket",
		"--ha-token", "long-lived",
	})
	require.NoError(t, rootCmd.Execute())
	require.Contains(t, out.String(), path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://portal.example.com", cfg.Portal.ServerURL)

	out.Reset()
	rootCmd.SetArgs([]string{"validate", "--config", path})
	require.NoError(t, rootCmd.Execute())
	require.Contains(t, out.String(), "OK, forwarding alarm_control_panel.home to https://portal.example.com via homeassistant")
}

// TestSend_RequiresState rejects a missing argument before loading settings.
//
//nolint:paralleltest // Cobra commands and flags are package globals.
func TestSend_RequiresState(t *testing.T) {
	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"send"})
	require.Error(t, rootCmd.Execute())
}

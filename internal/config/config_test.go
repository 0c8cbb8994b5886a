package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// validConfig returns settings that pass Validate.
func validConfig() *Config {
	return &Config{
		Portal: &Portal{
			ServerURL:     "https://portal.example.com/",
			APIToken:      "s3cr3t",
			AlarmEntityID: "alarm_control_panel.home",
		},
		Source: Source{
			HomeAssistant: HomeAssistant{
				URL:         "ws://homeassistant.local:8123/api/websocket",
				AccessToken: "long-lived",
			},
		},
	}
}

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Validate(nil), errConfigIsNotSet)

	// Missing portal block.
	cfg := validConfig()
	cfg.Portal = nil
	require.ErrorIs(t, Validate(cfg), ErrPortalSectionMissing)

	// Bad scheme.
	cfg = validConfig()
	cfg.Portal.ServerURL = "ftp://portal.example.com"
	require.ErrorIs(t, Validate(cfg), errServerURLScheme)

	// Not a URL at all.
	cfg = validConfig()
	cfg.Portal.ServerURL = "portal"
	require.Error(t, Validate(cfg))

	// Empty token.
	cfg = validConfig()
	cfg.Portal.APIToken = ""
	require.ErrorIs(t, Validate(cfg), errAPITokenRequired)

	// Bad entity.
	cfg = validConfig()
	cfg.Portal.AlarmEntityID = "Alarm.Home"
	require.ErrorIs(t, Validate(cfg), errEntityIDInvalid)

	// Okay, slashes stripped and source defaulted.
	cfg = validConfig()
	cfg.Portal.ServerURL = "https://portal.example.com//"
	require.NoError(t, Validate(cfg))
	require.Equal(t, "https://portal.example.com", cfg.Portal.ServerURL)
	require.Equal(t, SourceHomeAssistant, cfg.Source.Type)
}

// TestValidate_Sources covers source specific checks and defaults.
func TestValidate_Sources(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Source.HomeAssistant.URL = "http://homeassistant.local:8123"
	require.ErrorIs(t, Validate(cfg), errWebsocketURL)

	cfg = validConfig()
	cfg.Source.HomeAssistant.AccessToken = ""
	require.ErrorIs(t, Validate(cfg), errAccessTokenRequired)

	cfg = validConfig()
	cfg.Source.Type = "zigbee"
	require.ErrorIs(t, Validate(cfg), errUnknownSource)

	cfg = validConfig()
	cfg.Source = Source{Type: SourceMQTT}
	require.ErrorIs(t, Validate(cfg), errBrokerRequired)

	cfg.Source.MQTT.Broker = "tcp://mqtt.local:1883"
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultMQTTBaseTopic, cfg.Source.MQTT.BaseTopic)
	require.Equal(t, DefaultMQTTClientID, cfg.Source.MQTT.ClientID)
	require.Equal(t, DefaultMQTTQoS, *cfg.Source.MQTT.QoS)

	// Explicit zero is kept.
	var zero byte
	cfg.Source.MQTT.QoS = &zero
	require.NoError(t, Validate(cfg))
	require.Zero(t, *cfg.Source.MQTT.QoS)

	three := byte(3)
	cfg.Source.MQTT.QoS = &three
	require.ErrorIs(t, Validate(cfg), errQoSRange)
}

// TestValidEntityID mirrors the Home Assistant entity id rules.
func TestValidEntityID(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"alarm_control_panel.home", "alarm_control_panel.home_2", "a.b", "sensor.1st_floor"} {
		require.True(t, ValidEntityID(id), id)
	}

	for _, id := range []string{
		"", "alarm", ".home", "alarm.", "alarm._home", "alarm.home_", "_alarm.home",
		"alarm.ho__me", "alarm.Home", "alarm.home.extra", "alarm.home-1",
	} {
		require.False(t, ValidEntityID(id), id)
	}
}

// TestLoad_MissingPortalBlock reports the setup failure for files without the block.
func TestLoad_MissingPortalBlock(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "alarm-portal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), DefaultFilePermissions))

	_, err := Load(path)
	require.ErrorIs(t, err, ErrPortalSectionMissing)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := validConfig()
	cfg.MetricsAddress = ":9464"

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Portal, loaded.Portal)
	require.Equal(t, cfg.Source.HomeAssistant, loaded.Source.HomeAssistant)
	require.Equal(t, ":9464", loaded.MetricsAddress)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

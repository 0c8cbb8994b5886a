package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-portal/internal/config"
)

var (
	// initSettings collects the values written by `init`.
	initSettings = config.Config{
		Portal: new(config.Portal),
	}

	// validateCmd loads and validates the configuration file.
	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: OK, forwarding %s to %s via %s\n",
				configPath, cfg.Portal.AlarmEntityID, cfg.Portal.ServerURL, cfg.Source.Type)

			return nil
		},
	}

	// initCmd writes a new configuration file.
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file from flags.",
		Long: `Writes a validated configuration file to the --config path with
owner-only permissions. Existing files are overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Save(configPath, &initSettings); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", configPath)

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := initCmd.Flags()

	flags.StringVar(&initSettings.Portal.ServerURL, "server-url", "", "alarm portal base URL")
	flags.StringVar(&initSettings.Portal.APIToken, "api-token", "", "alarm portal API token")
	flags.StringVar(&initSettings.Portal.AlarmEntityID, "entity-id", "", "watched alarm entity, e.g. alarm_control_panel.home")
	flags.StringVar((*string)(&initSettings.Source.Type), "source", string(config.SourceHomeAssistant), "event source: homeassistant or mqtt")
	flags.StringVar(&initSettings.Source.HomeAssistant.URL, "ha-url", "", "Home Assistant websocket URL")
	flags.StringVar(&initSettings.Source.HomeAssistant.AccessToken, "ha-token", "", "Home Assistant long-lived access token")
	flags.StringVar(&initSettings.Source.MQTT.Broker, "mqtt-broker", "", "MQTT broker URL")
	flags.StringVar(&initSettings.Source.MQTT.BaseTopic, "mqtt-base-topic", "", "mqtt_statestream base topic (default "+config.DefaultMQTTBaseTopic+")")
	flags.StringVar(&initSettings.MetricsAddress, "metrics-addr", "", "Prometheus listen address")
	flags.StringVar(&initSettings.HealthAddress, "health-addr", "", "gRPC health listen address")

	for _, name := range []string{"server-url", "api-token", "entity-id"} {
		if err := initCmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
}

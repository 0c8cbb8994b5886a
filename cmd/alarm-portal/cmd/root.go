package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-portal/internal/config"
	"github.com/oshokin/alarm-portal/internal/service/bridge"
	"github.com/oshokin/alarm-portal/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides the configured log level.
	logLevel string

	// rootCmd runs the bridge when called without a subcommand.
	rootCmd = &cobra.Command{
		Use:   "alarm-portal",
		Short: "Forward alarm panel state changes to the alarm portal.",
		Long: `Watches one alarm entity of Home Assistant and posts its triggered,
armed_away and disarmed transitions to the alarm portal.

Events are received from the Home Assistant WebSocket API or from the
mqtt_statestream integration, as selected in the configuration file.
Each transition is delivered once with a 10 second timeout; failures are
logged and not retried.`,
		Args: cobra.NoArgs,
		RunE: runBridge,
	}

	// runCmd is an explicit alias of the root command.
	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the bridge until interrupted.",
		Args:  cobra.NoArgs,
		RunE:  runBridge,
	}
)

// runBridge starts the bridge with graceful shutdown on SIGINT/SIGTERM.
func runBridge(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	return bridge.Run(ctx, &bridge.Options{
		ConfigPath: configPath,
		LogLevel:   logLevel,
	})
}

// Execute runs the alarm-portal CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&logLevel, "log-level", "l", "", "override log level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd, sendCmd, validateCmd, initCmd)
}

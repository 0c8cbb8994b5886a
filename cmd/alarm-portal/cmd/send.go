package cmd

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alarm-portal/internal/domain/alarm"
	"github.com/oshokin/alarm-portal/internal/service/sender"
)

// sendCmd posts one state to the portal.
var sendCmd = &cobra.Command{
	Use:   "send <state>",
	Short: "Send one alarm event to the portal.",
	Long: `Posts a single alarm event to the portal exactly as the bridge would,
and exits non-zero if the portal does not answer with HTTP 200.

State must be one of: ` + strings.Join(alarm.ForwardableStates(), ", ") + `.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: alarm.ForwardableStates(),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		return sender.Run(ctx, &sender.Options{
			ConfigPath: configPath,
			LogLevel:   logLevel,
			State:      args[0],
		})
	},
}

package sender

import (
	"context"
	"fmt"

	"github.com/oshokin/alarm-portal/internal/config"
	"github.com/oshokin/alarm-portal/internal/forwarder"
	"github.com/oshokin/alarm-portal/internal/logger"
	"github.com/oshokin/alarm-portal/internal/service/common"
)

// Options configures a manual delivery.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// LogLevel overrides the configured log level when non-empty.
	LogLevel string
	// State is the label to deliver; it must be forwardable.
	State string
}

// Run delivers opts.State once. Unlike the bridge it reports failures to the caller.
func Run(ctx context.Context, opts *Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	ctx, err = common.ConfigureLogger(ctx, cfg.Log, opts.LogLevel)
	if err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}

	ctx = logger.WithName(ctx, "alarm-portal-send")

	fwd, err := forwarder.New(cfg.Portal)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Sending alarm event", "server_url", cfg.Portal.ServerURL, "state", opts.State)

	if err = fwd.Deliver(ctx, opts.State); err != nil {
		return fmt.Errorf("deliver %s: %w", opts.State, err)
	}

	logger.InfoKV(ctx, "Alarm event accepted", "state", opts.State)

	return nil
}

package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/alarm-portal/internal/api/grpc/health"
	"github.com/oshokin/alarm-portal/internal/config"
	"github.com/oshokin/alarm-portal/internal/forwarder"
	"github.com/oshokin/alarm-portal/internal/logger"
	"github.com/oshokin/alarm-portal/internal/metrics"
	"github.com/oshokin/alarm-portal/internal/service/common"
	"github.com/oshokin/alarm-portal/internal/source"
)

// Options controls the alarm-portal bridge process.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// LogLevel overrides the configured log level when non-empty.
	LogLevel string
	// Subscriber replaces the configured event source. Used by tests.
	Subscriber source.Subscriber
}

// Run loads settings, wires the forwarder to the event source and blocks until
// ctx is cancelled or the source fails for good. In-flight deliveries are
// allowed to finish before it returns.
func Run(ctx context.Context, opts *Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	ctx, err = common.ConfigureLogger(ctx, cfg.Log, opts.LogLevel)
	if err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}

	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alarm-portal")

	healthServer := health.NewServer()

	subscriber := opts.Subscriber
	if subscriber == nil {
		subscriber, err = common.NewSubscriber(cfg.Source, healthServer.SetConnected)
		if err != nil {
			return err
		}
	}

	fwd, err := forwarder.Setup(ctx, cfg.Portal, subscriber)
	if err != nil {
		return fmt.Errorf("setup forwarder: %w", err)
	}

	var healthLis, metricsLis net.Listener

	if cfg.HealthAddress != "" {
		if healthLis, err = listen(ctx, cfg.HealthAddress); err != nil {
			return err
		}
	}

	if cfg.MetricsAddress != "" {
		if metricsLis, err = listen(ctx, cfg.MetricsAddress); err != nil {
			if healthLis != nil {
				_ = healthLis.Close()
			}

			return err
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)

	if healthLis != nil {
		group.Go(func() error {
			return healthServer.Serve(groupCtx, healthLis)
		})
	}

	if metricsLis != nil {
		group.Go(func() error {
			return metrics.Serve(groupCtx, metricsLis)
		})
	}

	group.Go(func() error {
		if runErr := subscriber.Run(groupCtx); runErr != nil {
			return fmt.Errorf("event source: %w", runErr)
		}

		// The source only returns cleanly on cancellation; stop the endpoints too.
		return context.Canceled
	})

	logger.InfoKV(ctx, "Alarm portal bridge started",
		"source", cfg.Source.Type,
		"entity_id", fwd.EntityID(),
	)

	err = group.Wait()

	logger.Info(ctx, "Waiting for in-flight deliveries")
	fwd.Wait()
	logger.Info(ctx, "Alarm portal bridge stopped")

	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// listen opens a TCP listener on address.
func listen(ctx context.Context, address string) (net.Listener, error) {
	lc := net.ListenConfig{}

	lis, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", address, err)
	}

	return lis, nil
}

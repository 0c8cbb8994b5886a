//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/alarm-portal/internal/config"
	"github.com/oshokin/alarm-portal/internal/logger"
)

// errUnknownLevel is returned for unsupported log levels.
var errUnknownLevel = errors.New("unknown log level")

// ConfigureLogger builds the logger described by settings and stores it in the
// returned context. A non-empty levelOverride wins over settings.Level.
func ConfigureLogger(ctx context.Context, settings config.Log, levelOverride string) (context.Context, error) {
	levelName := settings.Level
	if levelOverride != "" {
		levelName = levelOverride
	}

	level, ok := logger.ParseLogLevel(levelName)
	if !ok {
		return ctx, fmt.Errorf("%w: %q", errUnknownLevel, levelName)
	}

	format, err := logger.ParseFormat(settings.Format)
	if err != nil {
		return ctx, err
	}

	logger.SetLevel(level)

	l := logger.New(nil, format)
	logger.SetLogger(l)

	return logger.ToContext(ctx, l), nil
}

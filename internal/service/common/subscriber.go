//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"fmt"

	"github.com/oshokin/alarm-portal/internal/config"
	"github.com/oshokin/alarm-portal/internal/source"
	"github.com/oshokin/alarm-portal/internal/source/homeassistant"
	"github.com/oshokin/alarm-portal/internal/source/mqtt"
)

// errUnsupportedSource is returned for source types without an adapter.
var errUnsupportedSource = errors.New("unsupported source type")

// NewSubscriber builds the event source selected by settings. hook may be nil.
//
//nolint:ireturn // Callers only need the Subscriber behaviour.
func NewSubscriber(settings config.Source, hook source.StatusHook) (source.Subscriber, error) {
	if hook == nil {
		hook = func(bool) {}
	}

	switch settings.Type {
	case config.SourceHomeAssistant, "":
		return homeassistant.New(settings.HomeAssistant, homeassistant.WithStatusHook(hook)), nil
	case config.SourceMQTT:
		return mqtt.New(settings.MQTT, mqtt.WithStatusHook(hook)), nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedSource, settings.Type)
	}
}

package config

import (
	"errors"
	"fmt"
	"net/url"
)

// SourceType names an event source implementation.
type SourceType string

const (
	// SourceHomeAssistant receives events from the Home Assistant WebSocket API.
	SourceHomeAssistant SourceType = "homeassistant"
	// SourceMQTT receives events from the Home Assistant MQTT statestream.
	SourceMQTT SourceType = "mqtt"
)

const (
	// DefaultMQTTBaseTopic matches the mqtt_statestream example configuration.
	DefaultMQTTBaseTopic = "homeassistant/statestream"
	// DefaultMQTTClientID is used when no client id is configured.
	DefaultMQTTClientID = "alarm-portal"
	// DefaultMQTTQoS is the subscription quality of service.
	DefaultMQTTQoS byte = 1
)

// Source selects where state change events come from.
type Source struct {
	// Type is homeassistant (default) or mqtt.
	Type SourceType `yaml:"type"`
	// HomeAssistant configures the WebSocket API source.
	HomeAssistant HomeAssistant `yaml:"homeassistant,omitempty"`
	// MQTT configures the statestream source.
	MQTT MQTT `yaml:"mqtt,omitempty"`
}

// HomeAssistant holds WebSocket API connection parameters.
type HomeAssistant struct {
	// URL is the websocket endpoint, e.g. ws://homeassistant.local:8123/api/websocket.
	URL string `yaml:"url"`
	// AccessToken is a long-lived access token.
	AccessToken string `yaml:"access_token"`
}

// MQTT holds broker connection parameters.
type MQTT struct {
	// Broker is the broker URL, e.g. tcp://mqtt.local:1883.
	Broker string `yaml:"broker"`
	// ClientID identifies this client to the broker.
	ClientID string `yaml:"client_id,omitempty"`
	// Username is optional.
	Username string `yaml:"username,omitempty"`
	// Password is optional.
	Password string `yaml:"password,omitempty"`
	// BaseTopic is the statestream base_topic.
	BaseTopic string `yaml:"base_topic,omitempty"`
	// QoS is the subscription quality of service (0, 1 or 2). Nil selects DefaultMQTTQoS.
	QoS *byte `yaml:"qos,omitempty"`
}

var (
	// errUnknownSource is returned for unsupported source types.
	errUnknownSource = errors.New("unknown source type")
	// errWebsocketURL is returned for a missing or non-websocket URL.
	errWebsocketURL = errors.New("homeassistant.url must be a ws:// or wss:// URL")
	// errAccessTokenRequired is returned when the Home Assistant token is empty.
	errAccessTokenRequired = errors.New("homeassistant.access_token must be provided")
	// errBrokerRequired is returned when the MQTT broker is empty.
	errBrokerRequired = errors.New("mqtt.broker must be provided")
	// errQoSRange is returned for QoS values above 2.
	errQoSRange = errors.New("mqtt.qos must be 0, 1 or 2")
)

// validate checks the selected source and fills its defaults.
func (s *Source) validate() error {
	if s.Type == "" {
		s.Type = SourceHomeAssistant
	}

	switch s.Type {
	case SourceHomeAssistant:
		u, err := url.Parse(s.HomeAssistant.URL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
			return errWebsocketURL
		}

		if s.HomeAssistant.AccessToken == "" {
			return errAccessTokenRequired
		}
	case SourceMQTT:
		if s.MQTT.Broker == "" {
			return errBrokerRequired
		}

		if s.MQTT.ClientID == "" {
			s.MQTT.ClientID = DefaultMQTTClientID
		}

		if s.MQTT.BaseTopic == "" {
			s.MQTT.BaseTopic = DefaultMQTTBaseTopic
		}

		if s.MQTT.QoS == nil {
			qos := DefaultMQTTQoS
			s.MQTT.QoS = &qos
		}

		if *s.MQTT.QoS > 2 {
			return errQoSRange
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownSource, s.Type)
	}

	return nil
}

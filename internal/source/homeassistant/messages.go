package homeassistant

import (
	"time"

	"github.com/oshokin/alarm-portal/internal/domain/alarm"
)

// Message types of the WebSocket API.
const (
	typeAuthRequired    = "auth_required"
	typeAuth            = "auth"
	typeAuthOK          = "auth_ok"
	typeAuthInvalid     = "auth_invalid"
	typeSubscribeEvents = "subscribe_events"
	typeResult          = "result"
	typeEvent           = "event"
	typePing            = "ping"

	eventStateChanged = "state_changed"
)

// authRequest is the first message sent by the client.
type authRequest struct {
	Type        string `json:"type"`
	AccessToken string `json:"access_token"`
}

// command is an identified client request.
type command struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	EventType string `json:"event_type,omitempty"`
}

// incoming is any server message; only the fields of its type are set.
type incoming struct {
	ID        int64        `json:"id"`
	Type      string       `json:"type"`
	HAVersion string       `json:"ha_version"`
	Message   string       `json:"message"`
	Success   bool         `json:"success"`
	Error     *resultError `json:"error"`
	Event     *event       `json:"event"`
}

// resultError describes a failed command.
type resultError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// event is the payload of an "event" message.
type event struct {
	EventType string    `json:"event_type"`
	TimeFired time.Time `json:"time_fired"`
	Data      eventData `json:"data"`
}

// eventData is the data of a state_changed event. Snapshots are null when
// an entity is added or removed.
type eventData struct {
	EntityID string `json:"entity_id"`
	OldState *state `json:"old_state"`
	NewState *state `json:"new_state"`
}

// state is a Home Assistant state object.
type state struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastChanged time.Time      `json:"last_changed"`
}

// toDomain converts the wire snapshot, keeping nil as nil.
func (s *state) toDomain() *alarm.StateSnapshot {
	if s == nil {
		return nil
	}

	return &alarm.StateSnapshot{
		EntityID:    s.EntityID,
		State:       s.State,
		Attributes:  s.Attributes,
		LastChanged: s.LastChanged,
	}
}

// toDomain converts a state_changed payload into a domain event.
func (d *eventData) toDomain() *alarm.StateChangeEvent {
	return &alarm.StateChangeEvent{
		EntityID: d.EntityID,
		OldState: d.OldState.toDomain(),
		NewState: d.NewState.toDomain(),
	}
}

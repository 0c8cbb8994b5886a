package alarm

import "time"

// Alarm panel labels forwarded to the portal.
const (
	// StateTriggered means the alarm is sounding.
	StateTriggered = "triggered"
	// StateArmedAway means the alarm was armed with nobody at home.
	StateArmedAway = "armed_away"
	// StateDisarmed means the alarm was switched off.
	StateDisarmed = "disarmed"
)

// IsForwardable reports whether a state label must be sent to the portal.
func IsForwardable(state string) bool {
	switch state {
	case StateTriggered, StateArmedAway, StateDisarmed:
		return true
	default:
		return false
	}
}

// ForwardableStates returns the labels accepted by IsForwardable.
func ForwardableStates() []string {
	return []string{StateTriggered, StateArmedAway, StateDisarmed}
}

// StateSnapshot is a point-in-time record of an entity as reported by the host.
type StateSnapshot struct {
	// EntityID identifies the entity the snapshot belongs to.
	EntityID string
	// State is the primary label, e.g. "armed_away".
	State string
	// Attributes holds the host-specific extra attributes. Not interpreted.
	Attributes map[string]any
	// LastChanged is when the label last changed, zero when unknown.
	LastChanged time.Time
}

// Clone returns a copy of the snapshot. Attributes are copied shallowly.
func (s *StateSnapshot) Clone() *StateSnapshot {
	if s == nil {
		return nil
	}

	cloned := *s

	if s.Attributes != nil {
		cloned.Attributes = make(map[string]any, len(s.Attributes))
		for k, v := range s.Attributes {
			cloned.Attributes[k] = v
		}
	}

	return &cloned
}

// StateChangeEvent is emitted by the host whenever an entity changes.
type StateChangeEvent struct {
	// EntityID identifies the changed entity.
	EntityID string
	// OldState is the previous snapshot, nil for newly added entities.
	OldState *StateSnapshot
	// NewState is the current snapshot, nil for removed entities.
	NewState *StateSnapshot
}

// NewStateLabel returns the new state label and whether there is one.
func (e *StateChangeEvent) NewStateLabel() (string, bool) {
	if e == nil || e.NewState == nil {
		return "", false
	}

	return e.NewState.State, true
}

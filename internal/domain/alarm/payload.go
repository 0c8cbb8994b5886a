package alarm

import "time"

const (
	// TimestampLayout renders ISO-8601 with microseconds and an explicit offset,
	// e.g. 2025-03-01T10:15:30.123456+00:00.
	TimestampLayout = "2006-01-02T15:04:05.000000-07:00"
	// TimestampLayoutSeconds is used when the microseconds are zero.
	TimestampLayoutSeconds = "2006-01-02T15:04:05-07:00"
)

// Payload is the JSON body posted to the portal for one forwarded event.
type Payload struct {
	// Token authenticates the sender to the portal.
	Token string `json:"token"`
	// EntityID is the watched alarm entity.
	EntityID string `json:"entity_id"`
	// State is the forwarded label.
	State string `json:"state"`
	// Timestamp is when the event was forwarded, in UTC.
	Timestamp string `json:"timestamp"`
}

// NewPayload builds a payload stamped with the given instant converted to UTC.
func NewPayload(token, entityID, state string, at time.Time) *Payload {
	return &Payload{
		Token:     token,
		EntityID:  entityID,
		State:     state,
		Timestamp: FormatTimestamp(at),
	}
}

// FormatTimestamp renders at in UTC, omitting the fraction when it has no microseconds.
func FormatTimestamp(at time.Time) string {
	at = at.UTC()

	if at.Nanosecond()/int(time.Microsecond) == 0 {
		return at.Format(TimestampLayoutSeconds)
	}

	return at.Format(TimestampLayout)
}

package source

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oshokin/alarm-portal/internal/domain/alarm"
)

// Handler receives one state change event. It runs on the source's read
// loop, so it must not block for long.
type Handler func(ctx context.Context, event *alarm.StateChangeEvent)

// Subscriber is the narrow view of the host event bus the forwarder needs.
type Subscriber interface {
	// Subscribe registers handler for events of entityID.
	Subscribe(entityID string, handler Handler) error
	// Run receives events until ctx is cancelled or a terminal error occurs.
	Run(ctx context.Context) error
}

// StatusHook is told whether the source is currently connected.
type StatusHook func(connected bool)

var (
	// errEntityIDRequired is returned for empty subscription keys.
	errEntityIDRequired = errors.New("entity id must be provided")
	// errHandlerRequired is returned for nil handlers.
	errHandlerRequired = errors.New("handler must be provided")
)

// Registry maps entity ids to handlers. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string][]Handler),
	}
}

// Subscribe adds handler for entityID.
func (r *Registry) Subscribe(entityID string, handler Handler) error {
	if entityID == "" {
		return errEntityIDRequired
	}

	if handler == nil {
		return fmt.Errorf("subscribe %s: %w", entityID, errHandlerRequired)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[entityID] = append(r.handlers[entityID], handler)

	return nil
}

// Dispatch calls, in registration order, the handlers registered for the
// event's entity. It reports whether any handler was called.
func (r *Registry) Dispatch(ctx context.Context, event *alarm.StateChangeEvent) bool {
	if event == nil {
		return false
	}

	r.mu.RLock()
	handlers := r.handlers[event.EntityID]
	r.mu.RUnlock()

	for _, h := range handlers {
		h(ctx, event)
	}

	return len(handlers) > 0
}

// EntityIDs returns the ids that have at least one handler.
func (r *Registry) EntityIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}

	return ids
}

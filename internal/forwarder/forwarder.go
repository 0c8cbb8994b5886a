package forwarder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/oshokin/alarm-portal/internal/config"
	"github.com/oshokin/alarm-portal/internal/domain/alarm"
	"github.com/oshokin/alarm-portal/internal/logger"
	"github.com/oshokin/alarm-portal/internal/metrics"
	"github.com/oshokin/alarm-portal/internal/portal"
	"github.com/oshokin/alarm-portal/internal/source"
)

// bodyExcerptLength is how many characters of a rejected response are logged.
const bodyExcerptLength = 200

var (
	// ErrRejected is returned by Deliver when the portal answers with a status other than 200.
	ErrRejected = errors.New("portal rejected the event")
	// errStateNotForwardable is returned by Deliver for labels outside the forwardable set.
	errStateNotForwardable = errors.New("state is not forwardable")
)

// Poster delivers one payload to the portal.
type Poster interface {
	Post(ctx context.Context, payload *alarm.Payload) (*portal.Response, error)
}

// Forwarder filters state changes of one entity and posts them to the portal.
type Forwarder struct {
	// settings is the validated delivery triple, never mutated after Setup.
	settings config.Portal
	// client is shared by all deliveries.
	client Poster
	// now stamps payloads.
	now func() time.Time
	// inflight tracks detached deliveries.
	inflight sync.WaitGroup
}

// Option configures the forwarder.
type Option func(*Forwarder)

// WithClient replaces the portal client.
func WithClient(client Poster) Option {
	return func(f *Forwarder) {
		if client != nil {
			f.client = client
		}
	}
}

// WithClock replaces the payload clock.
func WithClock(now func() time.Time) Option {
	return func(f *Forwarder) {
		if now != nil {
			f.now = now
		}
	}
}

// New validates settings and creates a forwarder that is not attached to any source.
func New(settings *config.Portal, opts ...Option) (*Forwarder, error) {
	if settings == nil {
		return nil, config.ErrPortalSectionMissing
	}

	validated := *settings
	if err := validated.Validate(); err != nil {
		return nil, fmt.Errorf("invalid portal settings: %w", err)
	}

	f := &Forwarder{
		settings: validated,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.client == nil {
		f.client = portal.NewClient(validated.ServerURL)
	}

	return f, nil
}

// Setup creates a forwarder and registers it for the configured entity on subscriber.
// A nil settings block fails with config.ErrPortalSectionMissing.
func Setup(ctx context.Context, settings *config.Portal, subscriber source.Subscriber, opts ...Option) (*Forwarder, error) {
	f, err := New(settings, opts...)
	if err != nil {
		if errors.Is(err, config.ErrPortalSectionMissing) {
			logger.ErrorKV(ctx, "No alarm_portal configuration found")
		}

		return nil, err
	}

	if err = subscriber.Subscribe(f.settings.AlarmEntityID, f.HandleStateChange); err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", f.settings.AlarmEntityID, err)
	}

	logger.InfoKV(ctx, "Alarm portal forwarder initialized",
		"entity_id", f.settings.AlarmEntityID,
		"server_url", f.settings.ServerURL,
	)

	return f, nil
}

// EntityID returns the watched entity.
func (f *Forwarder) EntityID() string {
	return f.settings.AlarmEntityID
}

// HandleStateChange is the source.Handler of the watched entity. Forwardable
// changes are delivered on a detached goroutine; everything else is dropped.
func (f *Forwarder) HandleStateChange(ctx context.Context, event *alarm.StateChangeEvent) {
	metrics.EventsReceived.Inc()

	if event == nil || event.EntityID != f.settings.AlarmEntityID {
		metrics.EventsIgnored.WithLabelValues(metrics.IgnoredEntity).Inc()
		return
	}

	state, ok := event.NewStateLabel()
	if !ok {
		metrics.EventsIgnored.WithLabelValues(metrics.IgnoredNoState).Inc()
		return
	}

	ctx = logger.WithKV(ctx, "entity_id", event.EntityID)
	logger.Debugf(ctx, "Alarm entity changed to %s", state)

	if !alarm.IsForwardable(state) {
		metrics.EventsIgnored.WithLabelValues(metrics.IgnoredState).Inc()
		return
	}

	// The delivery outlives the event loop iteration but keeps its logger.
	sendCtx := context.WithoutCancel(ctx)

	f.inflight.Add(1)

	go func() {
		defer f.inflight.Done()

		f.Send(sendCtx, state)
	}()
}

// Send delivers state once and logs the outcome. Failures are not reported
// to the caller and are not retried.
func (f *Forwarder) Send(ctx context.Context, state string) {
	resp, err := f.post(ctx, state)

	var excerpt string
	if resp != nil {
		excerpt = truncate(string(resp.Body), bodyExcerptLength)
	}

	switch {
	case err != nil:
		metrics.Deliveries.WithLabelValues(metrics.OutcomeTransportError).Inc()
		logger.ErrorKV(ctx, "Alarm portal: error sending event", "state", state, "error", err)
	case resp.StatusCode != http.StatusOK:
		metrics.Deliveries.WithLabelValues(metrics.OutcomeHTTPError).Inc()
		logger.ErrorKV(ctx, fmt.Sprintf("Alarm portal: HTTP %d: %s", resp.StatusCode, excerpt),
			"state", state,
			"status", resp.StatusCode,
			"request_id", resp.RequestID,
		)
	default:
		metrics.Deliveries.WithLabelValues(metrics.OutcomeSuccess).Inc()
		logger.DebugKV(ctx, "Alarm portal: event sent successfully", "state", state, "request_id", resp.RequestID)
	}
}

// Deliver posts a forwardable state once and reports the outcome instead of
// logging it. Non-200 answers wrap ErrRejected.
func (f *Forwarder) Deliver(ctx context.Context, state string) error {
	if !alarm.IsForwardable(state) {
		return fmt.Errorf("%w: %q", errStateNotForwardable, state)
	}

	resp, err := f.post(ctx, state)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d: %s", ErrRejected, resp.StatusCode, truncate(string(resp.Body), bodyExcerptLength))
	}

	return nil
}

// Wait blocks until all detached deliveries have finished.
func (f *Forwarder) Wait() {
	f.inflight.Wait()
}

// post builds the payload for state and performs the request.
func (f *Forwarder) post(ctx context.Context, state string) (*portal.Response, error) {
	payload := alarm.NewPayload(f.settings.APIToken, f.settings.AlarmEntityID, state, f.now())

	start := time.Now()
	resp, err := f.client.Post(ctx, payload)
	metrics.DeliveryDuration.Observe(time.Since(start).Seconds())

	return resp, err
}

// truncate returns at most n characters of s.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}

package homeassistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oshokin/alarm-portal/internal/config"
	"github.com/oshokin/alarm-portal/internal/logger"
	"github.com/oshokin/alarm-portal/internal/source"
)

const (
	// DefaultBackoffStart is the first reconnect delay.
	DefaultBackoffStart = 2 * time.Second
	// DefaultBackoffMax caps the reconnect delay.
	DefaultBackoffMax = 30 * time.Second
	// DefaultHeartbeat is the ping interval; silence for two intervals drops the connection.
	DefaultHeartbeat = 30 * time.Second
	// DefaultHandshakeTimeout bounds the wait for each auth and subscribe reply.
	DefaultHandshakeTimeout = 10 * time.Second

	// writeTimeout bounds a single websocket write.
	writeTimeout = 10 * time.Second
)

var (
	// ErrAuthInvalid is returned when Home Assistant rejects the access token.
	ErrAuthInvalid = errors.New("home assistant rejected the access token")
	// errUnexpectedMessage is returned when the handshake is out of order.
	errUnexpectedMessage = errors.New("unexpected message")
	// errSubscribeFailed is returned when subscribe_events is refused.
	errSubscribeFailed = errors.New("subscribe_events failed")
)

// Client is a source.Subscriber backed by the Home Assistant WebSocket API.
type Client struct {
	*source.Registry

	// url is the websocket endpoint.
	url string
	// accessToken authenticates the connection.
	accessToken string
	// dialer opens websocket connections.
	dialer *websocket.Dialer
	// status is told about connectivity changes.
	status source.StatusHook

	// backoffStart is the first reconnect delay.
	backoffStart time.Duration
	// backoffMax caps the reconnect delay.
	backoffMax time.Duration
	// heartbeat is the ping interval.
	heartbeat time.Duration
	// handshakeTimeout bounds each handshake read.
	handshakeTimeout time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithStatusHook reports connectivity changes to hook.
func WithStatusHook(hook source.StatusHook) Option {
	return func(c *Client) {
		c.status = hook
	}
}

// WithBackoff overrides the reconnect delays.
func WithBackoff(start, maxDelay time.Duration) Option {
	return func(c *Client) {
		if start > 0 {
			c.backoffStart = start
		}

		if maxDelay >= c.backoffStart {
			c.backoffMax = maxDelay
		}
	}
}

// WithHeartbeat overrides the ping interval.
func WithHeartbeat(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.heartbeat = interval
		}
	}
}

// WithHandshakeTimeout overrides how long each handshake reply may take.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.handshakeTimeout = timeout
		}
	}
}

// New creates a client for the configured Home Assistant instance.
func New(cfg config.HomeAssistant, opts ...Option) *Client {
	client := &Client{
		Registry:         source.NewRegistry(),
		url:              cfg.URL,
		accessToken:      cfg.AccessToken,
		dialer:           websocket.DefaultDialer,
		status:           func(bool) {},
		backoffStart:     DefaultBackoffStart,
		backoffMax:       DefaultBackoffMax,
		heartbeat:        DefaultHeartbeat,
		handshakeTimeout: DefaultHandshakeTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Run keeps a subscription open until ctx is cancelled. It returns nil on
// cancellation and ErrAuthInvalid when the token is rejected.
func (c *Client) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "homeassistant")
	backoff := c.backoffStart

	for {
		subscribed, err := c.session(ctx)
		if ctx.Err() != nil {
			return nil
		}

		if errors.Is(err, ErrAuthInvalid) {
			return err
		}

		// A session that got as far as subscribing starts the backoff over.
		if subscribed {
			backoff = c.backoffStart
		}

		logger.WarnKV(ctx, "Home Assistant connection lost", "error", err, "retry_in", backoff.String())

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, c.backoffMax)
		case <-ctx.Done():
			return nil
		}
	}
}

// session runs one connection: handshake, subscription and read loop.
// It reports whether the subscription was established.
func (c *Client) session(ctx context.Context) (bool, error) {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	if err != nil {
		return false, fmt.Errorf("dial %s: %w", c.url, err)
	}

	s := &session{conn: conn, handshakeTimeout: c.handshakeTimeout}

	defer func() {
		_ = conn.Close()
	}()

	// Unblock the pending read on cancellation.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	haVersion, err := s.authenticate(c.accessToken)
	if err != nil {
		return false, err
	}

	if err = s.subscribe(); err != nil {
		return false, err
	}

	logger.InfoKV(ctx, "Subscribed to Home Assistant state changes", "ha_version", haVersion, "entities", c.EntityIDs())

	c.status(true)
	defer c.status(false)

	heartbeatCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.keepAlive(heartbeatCtx, c.heartbeat)

	return true, s.readEvents(ctx, c.Registry, 2*c.heartbeat)
}

// session serializes writes on one connection.
type session struct {
	conn *websocket.Conn
	// handshakeTimeout bounds each read before the event loop starts.
	handshakeTimeout time.Duration
	// writeMu guards conn writes, gorilla allows one concurrent writer.
	writeMu sync.Mutex
	// nextID numbers commands.
	nextID atomic.Int64
}

// write sends one JSON message.
func (s *session) write(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	return s.conn.WriteJSON(v)
}

// readReply reads one handshake message under the handshake deadline.
func (s *session) readReply(msg *incoming) error {
	_ = s.conn.SetReadDeadline(time.Now().Add(s.handshakeTimeout))

	return s.conn.ReadJSON(msg)
}

// authenticate performs the auth handshake and returns the Home Assistant version.
func (s *session) authenticate(accessToken string) (string, error) {
	var msg incoming
	if err := s.readReply(&msg); err != nil {
		return "", fmt.Errorf("read auth_required: %w", err)
	}

	if msg.Type != typeAuthRequired {
		return "", fmt.Errorf("%w: %q instead of %s", errUnexpectedMessage, msg.Type, typeAuthRequired)
	}

	if err := s.write(&authRequest{Type: typeAuth, AccessToken: accessToken}); err != nil {
		return "", fmt.Errorf("send auth: %w", err)
	}

	msg = incoming{}
	if err := s.readReply(&msg); err != nil {
		return "", fmt.Errorf("read auth result: %w", err)
	}

	switch msg.Type {
	case typeAuthOK:
		return msg.HAVersion, nil
	case typeAuthInvalid:
		return "", fmt.Errorf("%w: %s", ErrAuthInvalid, msg.Message)
	default:
		return "", fmt.Errorf("%w: %q after auth", errUnexpectedMessage, msg.Type)
	}
}

// subscribe asks for state_changed events and waits for the result.
// The subscription covers every entity of the instance; Registry.Dispatch drops
// the ones nobody subscribed to. subscribe_trigger would narrow it per entity
// but reports trigger variables instead of state_changed events.
func (s *session) subscribe() error {
	id := s.nextID.Add(1)

	if err := s.write(&command{ID: id, Type: typeSubscribeEvents, EventType: eventStateChanged}); err != nil {
		return fmt.Errorf("send subscribe_events: %w", err)
	}

	for {
		var msg incoming
		if err := s.readReply(&msg); err != nil {
			return fmt.Errorf("read subscribe result: %w", err)
		}

		if msg.Type != typeResult || msg.ID != id {
			continue
		}

		if !msg.Success {
			if msg.Error != nil {
				return fmt.Errorf("%w: %s: %s", errSubscribeFailed, msg.Error.Code, msg.Error.Message)
			}

			return errSubscribeFailed
		}

		return nil
	}
}

// keepAlive pings until ctx is done. Write failures surface in the read loop.
func (s *session) keepAlive(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.write(&command{ID: s.nextID.Add(1), Type: typePing}); err != nil {
				return
			}
		}
	}
}

// readEvents dispatches state_changed events until the connection fails.
func (s *session) readEvents(ctx context.Context, registry *source.Registry, idle time.Duration) error {
	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(idle))

		var msg incoming
		if err := s.conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("read event: %w", err)
		}

		if msg.Type != typeEvent || msg.Event == nil || msg.Event.EventType != eventStateChanged {
			continue
		}

		registry.Dispatch(ctx, msg.Event.Data.toDomain())
	}
}

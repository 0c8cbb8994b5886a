package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/oshokin/alarm-portal/internal/config"
	"github.com/oshokin/alarm-portal/internal/domain/alarm"
	"github.com/oshokin/alarm-portal/internal/logger"
	"github.com/oshokin/alarm-portal/internal/source"
)

const (
	// stateSuffix ends every statestream state topic.
	stateSuffix = "state"

	keepAlive     = 30 * time.Second
	pingTimeout   = 10 * time.Second
	retryInterval = 5 * time.Second
	// disconnectQuiesce is how long, in milliseconds, Disconnect waits for in-flight work.
	disconnectQuiesce = 250
)

// Client is a source.Subscriber backed by an MQTT broker.
type Client struct {
	*source.Registry

	// cfg holds broker settings.
	cfg config.MQTT
	// status is told about connectivity changes.
	status source.StatusHook
	// newClient builds the paho client, paho.NewClient outside tests.
	newClient func(o *paho.ClientOptions) paho.Client

	// mu guards last.
	mu sync.Mutex
	// last remembers the previous label per entity.
	last map[string]string
}

// Option configures the client.
type Option func(*Client)

// WithStatusHook reports connectivity changes to hook.
func WithStatusHook(hook source.StatusHook) Option {
	return func(c *Client) {
		c.status = hook
	}
}

// New creates a statestream client. cfg must have been validated.
func New(cfg config.MQTT, opts ...Option) *Client {
	client := &Client{
		Registry:  source.NewRegistry(),
		cfg:       cfg,
		status:    func(bool) {},
		newClient: paho.NewClient,
		last:      make(map[string]string),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// StateTopic returns the statestream topic of entityID.
func StateTopic(baseTopic, entityID string) string {
	domain, object, _ := strings.Cut(entityID, ".")

	return strings.TrimRight(baseTopic, "/") + "/" + domain + "/" + object + "/" + stateSuffix
}

// EntityFromTopic is the inverse of StateTopic.
func EntityFromTopic(baseTopic, topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, strings.TrimRight(baseTopic, "/")+"/")
	if !ok {
		return "", false
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[2] != stateSuffix || parts[0] == "" || parts[1] == "" {
		return "", false
	}

	return parts[0] + "." + parts[1], true
}

// Run connects to the broker and dispatches state messages until ctx is cancelled.
// paho reconnects on its own; subscriptions are renewed on every connect.
func (c *Client) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "mqtt")

	client := c.newClient(c.options(ctx))

	// ConnectRetry keeps trying in the background; wait only for the first outcome.
	token := client.Connect()

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("connect %s: %w", c.cfg.Broker, err)
		}
	case <-ctx.Done():
	}

	<-ctx.Done()

	client.Disconnect(disconnectQuiesce)
	c.status(false)

	return nil
}

// options builds the paho client options.
func (c *Client) options(ctx context.Context) *paho.ClientOptions {
	opts := paho.NewClientOptions().
		AddBroker(c.cfg.Broker).
		SetClientID(c.cfg.ClientID).
		SetOrderMatters(true).
		SetCleanSession(true).
		SetKeepAlive(keepAlive).
		SetPingTimeout(pingTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(retryInterval)

	if c.cfg.Username != "" {
		opts.SetUsername(c.cfg.Username)
	}

	if c.cfg.Password != "" {
		opts.SetPassword(c.cfg.Password)
	}

	opts.OnConnect = func(client paho.Client) {
		c.onConnect(ctx, client)
	}

	opts.OnConnectionLost = func(_ paho.Client, err error) {
		c.onConnectionLost(ctx, err)
	}

	return opts
}

// onConnect renews the subscriptions; the session is clean on every connect.
func (c *Client) onConnect(ctx context.Context, client paho.Client) {
	logger.InfoKV(ctx, "Connected to MQTT broker", "broker", c.cfg.Broker)

	token := client.SubscribeMultiple(c.topicFilters(), func(_ paho.Client, msg paho.Message) {
		c.handleMessage(ctx, msg)
	})
	if token.Wait() && token.Error() != nil {
		logger.ErrorKV(ctx, "MQTT subscribe failed", "error", token.Error())
		return
	}

	c.status(true)
}

// onConnectionLost reports the outage; paho reconnects by itself.
func (c *Client) onConnectionLost(ctx context.Context, err error) {
	c.status(false)
	logger.WarnKV(ctx, "MQTT connection lost", "error", err)
}

// topicFilters maps every subscribed entity to its state topic.
func (c *Client) topicFilters() map[string]byte {
	var qos byte
	if c.cfg.QoS != nil {
		qos = *c.cfg.QoS
	}

	filters := make(map[string]byte)
	for _, id := range c.EntityIDs() {
		filters[StateTopic(c.cfg.BaseTopic, id)] = qos
	}

	return filters
}

// handleMessage turns one statestream message into a state change event.
// Retained messages replay the current state rather than a transition; they
// only seed the previous label.
func (c *Client) handleMessage(ctx context.Context, msg paho.Message) {
	entityID, ok := EntityFromTopic(c.cfg.BaseTopic, msg.Topic())
	if !ok {
		return
	}

	label := strings.Trim(strings.TrimSpace(string(msg.Payload())), `"`)

	c.mu.Lock()
	previous, known := c.last[entityID]
	c.last[entityID] = label
	c.mu.Unlock()

	if msg.Retained() {
		return
	}

	event := &alarm.StateChangeEvent{
		EntityID: entityID,
		NewState: &alarm.StateSnapshot{
			EntityID:    entityID,
			State:       label,
			LastChanged: time.Now().UTC(),
		},
	}

	if known {
		event.OldState = &alarm.StateSnapshot{
			EntityID: entityID,
			State:    previous,
		}
	}

	c.Dispatch(ctx, event)
}

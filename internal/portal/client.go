package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/alarm-portal/internal/domain/alarm"
	"github.com/oshokin/alarm-portal/internal/version"
)

const (
	// EndpointPath is the portal route receiving alarm events.
	EndpointPath = "/api/alarm_event.php"
	// DefaultTimeout bounds one delivery, connect to last body byte.
	DefaultTimeout = 10 * time.Second
	// RequestIDHeader carries a per-request identifier for portal-side tracing.
	RequestIDHeader = "X-Request-ID"

	// maxBodySize caps how much of the response is read.
	maxBodySize = 64 << 10
)

var (
	// errPayloadRequired is returned when Post is called without a payload.
	errPayloadRequired = errors.New("payload must be provided")
	// errBaseURLRequired is returned when the client has no base URL.
	errBaseURLRequired = errors.New("portal base URL must be provided")
)

// Response is what the portal answered to one delivery.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Body holds at most the first 64 KiB of the response body.
	Body []byte
	// RequestID is the X-Request-ID sent with the request.
	RequestID string
}

// Client posts alarm payloads to the portal.
type Client struct {
	// httpClient is shared by every request.
	httpClient *http.Client
	// endpoint is the absolute event URL.
	endpoint string
	// userAgent is sent with every request.
	userAgent string

	// timeout bounds each Post.
	timeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// NewClient creates a client for the portal at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{},
		endpoint:   EndpointURL(baseURL),
		userAgent:  version.UserAgent(),
		timeout:    DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// EndpointURL joins baseURL and EndpointPath with exactly one slash between them.
func EndpointURL(baseURL string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return ""
	}

	return baseURL + EndpointPath
}

// Endpoint returns the absolute URL the client posts to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Post sends one payload as JSON. A non-nil error means no HTTP response was
// obtained; any status code is returned as a Response.
func (c *Client) Post(ctx context.Context, payload *alarm.Payload) (*Response, error) {
	if payload == nil {
		return nil, errPayloadRequired
	}

	if c.endpoint == "" {
		return nil, errBaseURLRequired
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestID := uuid.NewString()

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post alarm event: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	// Reading the body is still bounded by callCtx.
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		RequestID:  requestID,
	}, nil
}

// callContext returns a context with the client's timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.timeout)
}

package portal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-portal/internal/domain/alarm"
)

// TestEndpointURL ensures exactly one slash separates the host and the route.
func TestEndpointURL(t *testing.T) {
	t.Parallel()

	require.Equal(t, "https://example.com/api/alarm_event.php", EndpointURL("https://example.com/"))
	require.Equal(t, "https://example.com/api/alarm_event.php", EndpointURL("https://example.com"))
	require.Equal(t, "https://example.com/portal/api/alarm_event.php", EndpointURL("https://example.com/portal//"))
	require.Empty(t, EndpointURL(""))
}

// TestPost_SendsJSON verifies method, headers and body of a delivery.
func TestPost_SendsJSON(t *testing.T) {
	t.Parallel()

	var (
		gotPath    string
		gotMethod  string
		gotHeaders http.Header
		gotPayload alarm.Payload
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotHeaders = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)

		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", WithUserAgent("test-agent"))
	payload := alarm.NewPayload("s3cr3t", "alarm_control_panel.home", alarm.StateArmedAway, time.Now())

	resp, err := client.Post(context.Background(), payload)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", string(resp.Body))
	require.Equal(t, EndpointPath, gotPath)
	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	require.Equal(t, "test-agent", gotHeaders.Get("User-Agent"))
	require.Equal(t, resp.RequestID, gotHeaders.Get(RequestIDHeader))
	require.NoError(t, uuid.Validate(resp.RequestID))
	require.Equal(t, *payload, gotPayload)
}

// TestPost_ReturnsErrorStatus passes non-200 responses back without error.
func TestPost_ReturnsErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(strings.Repeat("x", maxBodySize+100)))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).Post(context.Background(), &alarm.Payload{State: alarm.StateTriggered})
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Len(t, resp.Body, maxBodySize)
}

// TestPost_Timeout fails once the per-request timeout elapses and does not retry.
func TestPost_Timeout(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(srv.URL, WithTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := client.Post(context.Background(), &alarm.Payload{State: alarm.StateTriggered})

	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 5*time.Second)
	require.EqualValues(t, 1, calls.Load())
}

// TestPost_Validation rejects missing inputs before any I/O.
func TestPost_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewClient("https://example.com").Post(context.Background(), nil)
	require.ErrorIs(t, err, errPayloadRequired)

	_, err = NewClient("").Post(context.Background(), &alarm.Payload{})
	require.ErrorIs(t, err, errBaseURLRequired)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := &Client{timeout: 0}

	ctx, cancel := c.callContext(context.Background())
	cancel()

	_, ok := ctx.Deadline()
	require.False(t, ok)

	c.timeout = DefaultTimeout

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(DefaultTimeout), deadline, time.Second)
}

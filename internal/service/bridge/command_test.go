package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-portal/internal/config"
	"github.com/oshokin/alarm-portal/internal/domain/alarm"
	"github.com/oshokin/alarm-portal/internal/source"
)

// scriptedSource dispatches a fixed list of events once running, then waits for cancellation.
type scriptedSource struct {
	*source.Registry

	events []*alarm.StateChangeEvent
}

func (s *scriptedSource) Run(ctx context.Context) error {
	for _, e := range s.events {
		s.Dispatch(ctx, e)
	}

	<-ctx.Done()

	return nil
}

// writeConfig stores a configuration pointing at portalURL.
func writeConfig(t *testing.T, portalURL string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), config.DefaultConfigFilename)

	require.NoError(t, config.Save(path, &config.Config{
		Portal: &config.Portal{
			ServerURL:     portalURL + "/",
			APIToken:      "s3cr3t",
			AlarmEntityID: "alarm_control_panel.home",
		},
		Source: config.Source{
			HomeAssistant: config.HomeAssistant{
				URL:         "ws://127.0.0.1:1/api/websocket",
				AccessToken: "unused",
			},
		},
		Log: config.Log{Level: "debug"},
	}))

	return path
}

// TestRun_ForwardsAndStops delivers matching events and drains on cancellation.
//
//nolint:paralleltest // Run reconfigures the global logger.
func TestRun_ForwardsAndStops(t *testing.T) {
	var (
		mu     sync.Mutex
		states []string
	)

	received := make(chan struct{}, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p alarm.Payload
		_ = json.NewDecoder(r.Body).Decode(&p)

		mu.Lock()
		states = append(states, p.State)
		mu.Unlock()

		w.WriteHeader(http.StatusOK)
		received <- struct{}{}
	}))
	defer srv.Close()

	entity := "alarm_control_panel.home"
	src := &scriptedSource{
		Registry: source.NewRegistry(),
		events: []*alarm.StateChangeEvent{
			{EntityID: entity, NewState: &alarm.StateSnapshot{State: "arming"}},
			{EntityID: entity, NewState: &alarm.StateSnapshot{State: alarm.StateArmedAway}},
			{EntityID: "light.kitchen", NewState: &alarm.StateSnapshot{State: alarm.StateTriggered}},
			{EntityID: entity},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- Run(ctx, &Options{ConfigPath: writeConfig(t, srv.URL), Subscriber: src})
	}()

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("portal was not called")
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop")
	}

	mu.Lock()
	defer mu.Unlock()

	require.Equal(t, []string{alarm.StateArmedAway}, states)
}

// TestRun_MissingPortalBlock aborts before connecting anything.
func TestRun_MissingPortalBlock(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), config.DefaultConfigFilename)
	require.NoError(t, os.WriteFile(path, []byte("source:\n  type: mqtt\n"), config.DefaultFilePermissions))

	err := Run(context.Background(), &Options{ConfigPath: path})
	require.ErrorIs(t, err, config.ErrPortalSectionMissing)
}

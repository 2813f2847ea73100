package aisfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngmaloney/portpal/internal/models"
)

const (
	symphony = "319326000"
	oasis    = "311000274"
)

var miami = models.Coordinate{Latitude: 25.7617, Longitude: -80.1918}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func positionFrame(mmsi string, lat, lon, sog float64) []byte {
	return []byte(fmt.Sprintf(`{
		"MessageType": "PositionReport",
		"MetaData": {"MMSI": %s, "time_utc": "2025-03-10 06:00:00.000000 +0000 UTC"},
		"Message": {"PositionReport": {
			"UserID": %s, "Latitude": %f, "Longitude": %f,
			"Sog": %f, "Cog": 120, "TrueHeading": 511, "NavigationalStatus": 0
		}}
	}`, mmsi, mmsi, lat, lon, sog))
}

// feedServer runs handler for every websocket connection after reading the
// subscription frame, which is forwarded on the returned channel.
func feedServer(t *testing.T, handler func(conn *websocket.Conn)) (string, <-chan subscription) {
	t.Helper()
	subs := make(chan subscription, 8)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub subscription
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		subs <- sub
		if handler != nil {
			handler(conn)
		}
		// keep reading so pings are answered and the handler exits on close
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http"), subs
}

func newTestClient(t *testing.T, url string, tweak func(*Config)) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.APIKey = "test-key"
	cfg.MaxReconnects = 0
	if tweak != nil {
		tweak(&cfg)
	}
	c := NewClient(cfg, WithRegisterer(prometheus.NewRegistry()))
	t.Cleanup(c.Stop)
	return c
}

func waitFor(t *testing.T, c *Client, kind EventKind, timeout time.Duration) Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-c.Events():
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %s event within %s", kind, timeout)
			return Event{}
		}
	}
}

// ---------------------------------------------------------------------------
// Client Tests
// ---------------------------------------------------------------------------

func TestStartSendsSubscription(t *testing.T) {
	url, subs := feedServer(t, nil)
	c := newTestClient(t, url, nil)

	require.NoError(t, c.Start(context.Background(), symphony, time.Now().Add(time.Hour), miami))

	select {
	case sub := <-subs:
		assert.Equal(t, "test-key", sub.APIKey)
		assert.Equal(t, []string{symphony}, sub.FiltersShipMMSI)
		assert.Equal(t, []string{"PositionReport"}, sub.FilterMessageTypes)
		require.Len(t, sub.BoundingBoxes, 1)
		assert.Equal(t, [][2]float64{{0, -130}, {50, -50}}, sub.BoundingBoxes[0])
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not received")
	}
}

func TestSubscriptionWireFormat(t *testing.T) {
	data, err := json.Marshal(newSubscription("k", CaribbeanBounds, oasis))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"APIKey": "k",
		"BoundingBoxes": [[[0, -130], [50, -50]]],
		"FiltersShipMMSI": ["311000274"],
		"FilterMessageTypes": ["PositionReport"]
	}`, string(data))
}

func TestOtherVesselsAreIgnored(t *testing.T) {
	url, _ := feedServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, positionFrame("366999999", 10, -70, 3))
		conn.WriteMessage(websocket.TextMessage, []byte(`{not json`))
		conn.WriteMessage(websocket.TextMessage, positionFrame(symphony, 25.5, -80.0, 18.5))
	})
	c := newTestClient(t, url, nil)
	require.NoError(t, c.Start(context.Background(), symphony, time.Now().Add(2*time.Hour), miami))

	ev := waitFor(t, c, PositionUpdated, 2*time.Second)
	assert.Equal(t, symphony, ev.VesselID)
	assert.Equal(t, symphony, ev.Position.VesselID)
	assert.InDelta(t, 25.5, ev.Position.Latitude, 0.0001)
	assert.InDelta(t, 120, ev.Position.Heading, 0.0001, "heading 511 falls back to course")
	assert.False(t, ev.Position.Simulated)

	etaEv := waitFor(t, c, ETAUpdated, time.Second)
	require.NotNil(t, etaEv.ETA)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.filtered))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.malformed))

	snap := c.Snapshot()
	require.NotNil(t, snap.Position)
	assert.Equal(t, symphony, snap.Position.VesselID)
	assert.NotNil(t, snap.ETA)
	assert.False(t, snap.Simulated)
}

func TestStalenessFallback(t *testing.T) {
	url, _ := feedServer(t, nil)
	c := newTestClient(t, url, func(cfg *Config) { cfg.StalenessTimeout = 50 * time.Millisecond })
	require.NoError(t, c.Start(context.Background(), symphony, time.Now().Add(time.Hour), miami))

	ev := waitFor(t, c, SimulatedFallback, 2*time.Second)
	assert.Equal(t, symphony, ev.VesselID)
	assert.True(t, ev.Position.Simulated)

	want := Synthetic(symphony, ev.At)
	assert.Equal(t, want, ev.Position)

	snap := c.Snapshot()
	assert.True(t, snap.Simulated)
	assert.True(t, snap.Tracking)
	pos, err := c.Position()
	require.NoError(t, err)
	assert.True(t, pos.Simulated)
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.fallbacks))
}

func TestLiveFixCancelsFallback(t *testing.T) {
	url, _ := feedServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, positionFrame(oasis, 27.5, -79.9, 20))
	})
	c := newTestClient(t, url, func(cfg *Config) { cfg.StalenessTimeout = 150 * time.Millisecond })
	require.NoError(t, c.Start(context.Background(), oasis, time.Now().Add(3*time.Hour), miami))

	waitFor(t, c, PositionUpdated, 2*time.Second)

	timeout := time.After(400 * time.Millisecond)
	for {
		select {
		case ev := <-c.Events():
			assert.NotEqual(t, SimulatedFallback, ev.Kind, "fallback fired after a live fix")
		case <-timeout:
			assert.False(t, c.Snapshot().Simulated)
			return
		}
	}
}

func TestStartSupersedesPreviousSession(t *testing.T) {
	url, subs := feedServer(t, nil)
	c := newTestClient(t, url, func(cfg *Config) { cfg.StalenessTimeout = 100 * time.Millisecond })

	require.NoError(t, c.Start(context.Background(), symphony, time.Now().Add(time.Hour), miami))
	require.NoError(t, c.Start(context.Background(), oasis, time.Now().Add(time.Hour), miami))

	fallbacks := 0
	timeout := time.After(600 * time.Millisecond)
collect:
	for {
		select {
		case ev := <-c.Events():
			if ev.Kind == SimulatedFallback {
				fallbacks++
				assert.Equal(t, oasis, ev.VesselID, "superseded session fired its fallback")
			}
		case <-timeout:
			break collect
		}
	}
	assert.Equal(t, 1, fallbacks)
	assert.Equal(t, oasis, c.Snapshot().VesselID)

	// the most recent subscription is for the new vessel
	var last subscription
	for {
		select {
		case sub := <-subs:
			last = sub
			continue
		default:
		}
		break
	}
	assert.Equal(t, []string{oasis}, last.FiltersShipMMSI)
}

func TestRestartDropsBufferedEvents(t *testing.T) {
	conns := make(chan struct{}, 8)
	url, _ := feedServer(t, func(conn *websocket.Conn) {
		conns <- struct{}{}
		if len(conns) == 1 {
			conn.WriteMessage(websocket.TextMessage, positionFrame(symphony, 25.7, -80.1, 18))
		}
	})
	c := newTestClient(t, url, nil)

	// first session gets a fix and nobody reads its events
	require.NoError(t, c.Start(context.Background(), symphony, time.Now().Add(2*time.Hour), miami))
	require.Eventually(t, func() bool { return c.Snapshot().Position != nil }, 2*time.Second, 10*time.Millisecond)
	first := c.Snapshot().Session
	c.Stop()

	require.NoError(t, c.Start(context.Background(), symphony, time.Now().Add(30*24*time.Hour), miami))
	snap := c.Snapshot()
	assert.Nil(t, snap.Position)
	assert.Nil(t, snap.ETA)
	assert.Greater(t, snap.Session, first)

	select {
	case ev := <-c.Events():
		t.Fatalf("restarted session delivered %s from session %d", ev.Kind, ev.Session)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestStopIsIdempotent(t *testing.T) {
	url, _ := feedServer(t, nil)
	c := newTestClient(t, url, nil)

	c.Stop()
	require.NoError(t, c.Start(context.Background(), symphony, time.Now(), miami))
	c.Stop()
	c.Stop()

	assert.False(t, c.Snapshot().Tracking)
	_, err := c.Position()
	assert.ErrorIs(t, err, ErrNotTracking)
}

func TestStopPreventsFallback(t *testing.T) {
	url, _ := feedServer(t, nil)
	c := newTestClient(t, url, func(cfg *Config) { cfg.StalenessTimeout = 50 * time.Millisecond })

	require.NoError(t, c.Start(context.Background(), symphony, time.Now(), miami))
	c.Stop()

	select {
	case ev := <-c.Events():
		assert.NotEqual(t, SimulatedFallback, ev.Kind)
	case <-time.After(200 * time.Millisecond):
	}
	assert.Equal(t, float64(0), testutil.ToFloat64(c.metrics.fallbacks))
}

func TestReceiveFailureDegradesWithoutStopping(t *testing.T) {
	url, _ := feedServer(t, func(conn *websocket.Conn) {
		conn.Close()
	})
	c := newTestClient(t, url, nil)
	require.NoError(t, c.Start(context.Background(), symphony, time.Now(), miami))

	ev := waitFor(t, c, ConnectionDegraded, 2*time.Second)
	assert.Error(t, ev.Err)

	snap := c.Snapshot()
	assert.True(t, snap.Tracking)
	assert.Error(t, snap.ConnErr)
}

func TestReconnectAfterFailure(t *testing.T) {
	attempts := make(chan struct{}, 8)
	url, _ := feedServer(t, func(conn *websocket.Conn) {
		attempts <- struct{}{}
		if len(attempts) == 1 {
			conn.Close()
			return
		}
		conn.WriteMessage(websocket.TextMessage, positionFrame(symphony, 25.7, -80.1, 0))
	})
	c := newTestClient(t, url, func(cfg *Config) {
		cfg.MaxReconnects = 2
		cfg.BaseBackoff = 10 * time.Millisecond
	})
	require.NoError(t, c.Start(context.Background(), symphony, time.Now(), miami))

	waitFor(t, c, ConnectionDegraded, 2*time.Second)
	ev := waitFor(t, c, PositionUpdated, 2*time.Second)
	assert.Equal(t, symphony, ev.VesselID)
	assert.Nil(t, c.Snapshot().ConnErr)
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.reconnects))
}

func TestStartRequiresVessel(t *testing.T) {
	c := NewClient(DefaultConfig())
	assert.ErrorIs(t, c.Start(context.Background(), "", time.Now(), miami), ErrNoVessel)
	assert.False(t, c.Snapshot().Tracking)
}

func TestBackoff(t *testing.T) {
	c := NewClient(Config{BaseBackoff: time.Second})
	assert.Equal(t, time.Second, c.backoff(1))
	assert.Equal(t, 2*time.Second, c.backoff(2))
	assert.Equal(t, 8*time.Second, c.backoff(4))
	assert.Equal(t, maxBackoff, c.backoff(20))
}

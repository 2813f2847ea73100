// Package aisfeed streams live AIS position reports for a single vessel and
// keeps the latest fix and arrival estimate.
package aisfeed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/ngmaloney/portpal/internal/eta"
	"github.com/ngmaloney/portpal/internal/geo"
	"github.com/ngmaloney/portpal/internal/models"
)

const (
	DefaultURL               = "wss://stream.aisstream.io/v0/stream"
	DefaultStalenessTimeout  = 30 * time.Second
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultMaxReconnects     = 5

	baseBackoff   = 1 * time.Second
	maxBackoff    = 60 * time.Second
	writeWait     = 10 * time.Second
	defaultBuffer = 64
)

var (
	ErrNotTracking = errors.New("not tracking a vessel")
	ErrNoFix       = errors.New("no position received yet")
	ErrNoVessel    = errors.New("vessel id is required")
)

// Config configures the feed connection
type Config struct {
	URL               string
	APIKey            string
	Bounds            geo.BoundingBox
	StalenessTimeout  time.Duration
	HeartbeatInterval time.Duration
	// MaxReconnects bounds consecutive reconnect attempts; zero disables reconnecting
	MaxReconnects int
	BaseBackoff   time.Duration
}

// DefaultConfig returns the aisstream.io defaults
func DefaultConfig() Config {
	return Config{
		URL:               DefaultURL,
		Bounds:            CaribbeanBounds,
		StalenessTimeout:  DefaultStalenessTimeout,
		HeartbeatInterval: DefaultHeartbeatInterval,
		MaxReconnects:     DefaultMaxReconnects,
		BaseBackoff:       baseBackoff,
	}
}

// Dialer opens the streaming connection. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// EventKind identifies what changed
type EventKind int

const (
	PositionUpdated EventKind = iota
	ETAUpdated
	ConnectionDegraded
	SimulatedFallback
)

func (k EventKind) String() string {
	switch k {
	case PositionUpdated:
		return "PositionUpdated"
	case ETAUpdated:
		return "ETAUpdated"
	case ConnectionDegraded:
		return "ConnectionDegraded"
	case SimulatedFallback:
		return "SimulatedFallback"
	default:
		return "Unknown"
	}
}

// Event is published on the client's event channel. Values are copies.
type Event struct {
	Kind     EventKind
	VesselID string
	// Session is the Start call that produced the event
	Session  uint64
	Position models.LivePosition
	ETA      *models.ETAEstimate
	Err      error
	At       time.Time
}

// Snapshot is a point-in-time copy of the tracking state
type Snapshot struct {
	VesselID string
	// Session numbers the current Start call; events from other sessions are stale
	Session  uint64
	Tracking bool
	Position *models.LivePosition
	ETA      *models.ETAEstimate
	// Simulated is set once the session fell back to synthetic positions
	Simulated bool
	// ConnErr is the last connection failure, cleared on a successful subscribe
	ConnErr error
}

// Option customises a Client
type Option func(*Client)

// WithDialer replaces the websocket dialer
func WithDialer(d Dialer) Option {
	return func(c *Client) { c.dialer = d }
}

// WithRegisterer registers the feed counters with reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Client) { c.registerer = reg }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithEventBuffer sets the event channel capacity
func WithEventBuffer(n int) Option {
	return func(c *Client) { c.buffer = n }
}

type session struct {
	id        uint64
	vesselID  string
	scheduled time.Time
	dest      models.Coordinate
	cancel    context.CancelFunc
	done      chan struct{}
	stale     *time.Timer
	gotFix    bool
}

// Client tracks one vessel at a time
type Client struct {
	cfg        Config
	dialer     Dialer
	registerer prometheus.Registerer
	now        func() time.Time
	buffer     int
	metrics    *metrics
	events     chan Event

	// lifecycle serialises Start and Stop
	lifecycle sync.Mutex

	mu        sync.Mutex
	session   *session
	sessions  uint64
	lastID    string
	position  *models.LivePosition
	estimate  *models.ETAEstimate
	simulated bool
	connErr   error
}

// NewClient builds an idle client. Zero config fields take their defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.Bounds == (geo.BoundingBox{}) {
		cfg.Bounds = def.Bounds
	}
	if cfg.StalenessTimeout <= 0 {
		cfg.StalenessTimeout = def.StalenessTimeout
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = def.HeartbeatInterval
	}
	if cfg.MaxReconnects < 0 {
		cfg.MaxReconnects = 0
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = def.BaseBackoff
	}

	c := &Client{
		cfg:    cfg,
		dialer: websocket.DefaultDialer,
		now:    time.Now,
		buffer: defaultBuffer,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.metrics = newMetrics(c.registerer)
	c.events = make(chan Event, c.buffer)
	return c
}

// Events delivers updates in the order they were applied
func (c *Client) Events() <-chan Event {
	return c.events
}

// Start begins tracking vesselID, superseding any previous session. It
// returns immediately; connection problems are reported as events.
func (c *Client) Start(ctx context.Context, vesselID string, scheduled time.Time, dest models.Coordinate) error {
	if vesselID == "" {
		return ErrNoVessel
	}

	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	c.stop()
	c.drain()

	sctx, cancel := context.WithCancel(ctx)
	s := &session{
		vesselID:  vesselID,
		scheduled: scheduled,
		dest:      dest,
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	c.mu.Lock()
	c.sessions++
	s.id = c.sessions
	c.session = s
	c.lastID = vesselID
	c.position = nil
	c.estimate = nil
	c.simulated = false
	c.connErr = nil
	s.stale = time.AfterFunc(c.cfg.StalenessTimeout, func() { c.fallback(s) })
	c.mu.Unlock()

	log.WithFields(log.Fields{"mmsi": vesselID, "arrival": scheduled.Format(time.RFC3339)}).Info("Started vessel tracking")
	go c.run(sctx, s)
	return nil
}

// Stop ends the current session. Safe to call when idle.
func (c *Client) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	c.stop()
}

func (c *Client) stop() {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.mu.Unlock()
	if s == nil {
		return
	}

	s.stale.Stop()
	s.cancel()
	<-s.done
	log.Infof("Stopped tracking %s", s.vesselID)
}

// drain discards events the previous session left buffered
func (c *Client) drain() {
	for {
		select {
		case <-c.events:
		default:
			return
		}
	}
}

// Snapshot copies the current state
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		VesselID:  c.lastID,
		Session:   c.sessions,
		Tracking:  c.session != nil,
		Simulated: c.simulated,
		ConnErr:   c.connErr,
	}
	if c.position != nil {
		p := *c.position
		snap.Position = &p
	}
	if c.estimate != nil {
		e := *c.estimate
		snap.ETA = &e
	}
	return snap
}

// Position returns the latest fix for the tracked vessel
func (c *Client) Position() (models.LivePosition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return models.LivePosition{}, ErrNotTracking
	}
	if c.position == nil {
		return models.LivePosition{}, ErrNoFix
	}
	return *c.position, nil
}

func (c *Client) run(ctx context.Context, s *session) {
	defer close(s.done)

	attempt := 0
	for {
		connected, err := c.connect(ctx, s)
		if ctx.Err() != nil {
			return
		}
		if connected {
			attempt = 0
		}
		c.degrade(s, err)

		attempt++
		if attempt > c.cfg.MaxReconnects {
			log.Warnf("Feed for %s unavailable after %d attempts, staying on last known data", s.vesselID, attempt)
			return
		}
		c.metrics.reconnects.Inc()

		select {
		case <-time.After(c.backoff(attempt)):
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.cfg.BaseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

// connect runs one connection until it fails. connected reports whether the
// subscription was accepted before the failure.
func (c *Client) connect(ctx context.Context, s *session) (connected bool, err error) {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return false, fmt.Errorf("dialing feed: %w", err)
	}
	defer conn.Close()
	// unblocks ReadMessage on cancellation
	release := context.AfterFunc(ctx, func() { conn.Close() })
	defer release()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(newSubscription(c.cfg.APIKey, c.cfg.Bounds, s.vesselID)); err != nil {
		return false, fmt.Errorf("sending subscription: %w", err)
	}
	conn.SetWriteDeadline(time.Time{})

	c.mu.Lock()
	if c.session == s {
		c.connErr = nil
	}
	c.mu.Unlock()

	hbCtx, hbCancel := context.WithCancel(ctx)
	defer hbCancel()
	go c.heartbeat(hbCtx, conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("receiving: %w", err)
		}
		c.handle(s, data)
	}
}

func (c *Client) heartbeat(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.metrics.heartbeatFailures.Inc()
				log.Warnf("Feed heartbeat failed: %v", err)
			}
		}
	}
}

// handle applies one inbound frame. Frames for other vessels never touch state.
func (c *Client) handle(s *session, data []byte) {
	c.metrics.messages.Inc()

	now := c.now()
	pos, err := decodePosition(data, now)
	if err != nil {
		c.metrics.malformed.Inc()
		return
	}
	if pos.VesselID != s.vesselID {
		c.metrics.filtered.Inc()
		return
	}

	c.mu.Lock()
	if c.session != s {
		c.mu.Unlock()
		return
	}
	s.gotFix = true
	s.stale.Stop()
	c.position = &pos
	c.simulated = false
	estimate, ok := eta.Estimate(pos, s.scheduled, s.dest, now, eta.FeedMinSpeedKnots)
	if ok {
		c.estimate = &estimate
	}
	c.emit(s, Event{Kind: PositionUpdated, Position: pos, At: now})
	if ok {
		c.emit(s, Event{Kind: ETAUpdated, Position: pos, ETA: &estimate, At: now})
	}
	c.mu.Unlock()
}

func (c *Client) fallback(s *session) {
	now := c.now()

	c.mu.Lock()
	if c.session != s || s.gotFix {
		c.mu.Unlock()
		return
	}
	pos := Synthetic(s.vesselID, now)
	c.position = &pos
	c.simulated = true
	estimate, ok := eta.Estimate(pos, s.scheduled, s.dest, now, eta.FeedMinSpeedKnots)
	ev := Event{Kind: SimulatedFallback, Position: pos, At: now}
	if ok {
		c.estimate = &estimate
		ev.ETA = &estimate
	}
	c.emit(s, ev)
	c.mu.Unlock()

	c.metrics.fallbacks.Inc()
	log.Infof("No live position for %s within %s, using simulated data", s.vesselID, c.cfg.StalenessTimeout)
}

func (c *Client) degrade(s *session, err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	if c.session != s {
		c.mu.Unlock()
		return
	}
	c.connErr = err
	c.emit(s, Event{Kind: ConnectionDegraded, Err: err, At: c.now()})
	c.mu.Unlock()

	log.Warnf("Feed connection for %s degraded: %v", s.vesselID, err)
}

// emit must be called with mu held while s is the current session
func (c *Client) emit(s *session, ev Event) {
	ev.VesselID = s.vesselID
	ev.Session = s.id
	select {
	case c.events <- ev:
	default:
		c.metrics.droppedEvents.Inc()
	}
}

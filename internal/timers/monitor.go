package timers

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ngmaloney/portpal/internal/aisfeed"
	"github.com/ngmaloney/portpal/internal/models"
	"github.com/ngmaloney/portpal/internal/travelstate"
)

// DefaultTickInterval is how often a monitored timer is re-evaluated
const DefaultTickInterval = 10 * time.Second

// Feed is the part of the live feed client the monitor reads
type Feed interface {
	Events() <-chan aisfeed.Event
	Snapshot() aisfeed.Snapshot
}

// Status is one evaluation of a monitored timer
type Status struct {
	TimerID string
	At      time.Time
	Result  travelstate.Result
	// Err is set when the itinerary could not be evaluated
	Err       error
	Position  *models.LivePosition
	ETA       *models.ETAEstimate
	Simulated bool
	// Degraded is set while the feed connection is failing
	Degraded bool
}

// Monitor evaluates one timer on a fixed tick. Feed events replace its
// copy of the vessel state between ticks; each tick reads that copy, so
// evaluation never waits on the network.
type Monitor struct {
	timer    models.Timer
	feed     Feed
	interval time.Duration
	now      func() time.Time
	results  chan Status

	// session is the feed session the snapshot came from
	session   uint64
	position  *models.LivePosition
	eta       *models.ETAEstimate
	simulated bool
	degraded  bool
}

// MonitorOption configures a Monitor
type MonitorOption func(*Monitor)

// WithTickInterval overrides DefaultTickInterval
func WithTickInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithMonitorClock overrides time.Now
func WithMonitorClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) { m.now = now }
}

// NewMonitor watches t. feed may be nil, in which case only the schedule drives the state.
func NewMonitor(t models.Timer, feed Feed, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		timer:    t,
		feed:     feed,
		interval: DefaultTickInterval,
		now:      time.Now,
		results:  make(chan Status, 1),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Results delivers one Status per tick. It is closed when Run returns.
// A slow reader sees the latest status; older ones are dropped.
func (m *Monitor) Results() <-chan Status {
	return m.results
}

// Run evaluates immediately and then on every tick until ctx is done.
// Evaluation stops once the cruise is complete.
func (m *Monitor) Run(ctx context.Context) error {
	defer close(m.results)

	var events <-chan aisfeed.Event
	if m.feed != nil {
		m.apply(m.feed.Snapshot())
		events = m.feed.Events()
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	if m.tick() {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			m.observe(ev)
		case <-ticker.C:
			if m.tick() {
				return nil
			}
		}
	}
}

// tick evaluates and publishes, reporting whether the state is terminal
func (m *Monitor) tick() bool {
	st := m.Evaluate()
	m.publish(st)
	if st.Err != nil {
		return false
	}
	return st.Result.State.Terminal()
}

// Evaluate runs the state machine against the monitor's current view
func (m *Monitor) Evaluate() Status {
	now := m.now()
	in := travelstate.Input{
		Stops:       m.timer.Itinerary,
		Embarkation: m.timer.EmbarkationInstant,
		Now:         now,
	}
	if m.position != nil {
		in.Motion = travelstate.MotionFromPosition(*m.position)
	}

	res, err := travelstate.Evaluate(in)
	if err != nil {
		log.Warnf("Cannot evaluate timer %s: %v", m.timer.ID, err)
	} else if res.Fallback {
		log.Warnf("No rule matched for timer %s at %s", m.timer.ID, now.Format(time.RFC3339))
	}

	return Status{
		TimerID:   m.timer.ID,
		At:        now,
		Result:    res,
		Err:       err,
		Position:  m.position,
		ETA:       m.eta,
		Simulated: m.simulated,
		Degraded:  m.degraded,
	}
}

func (m *Monitor) publish(st Status) {
	select {
	case m.results <- st:
		return
	default:
	}
	// drop the stale status so the newest one is what gets read
	select {
	case <-m.results:
	default:
	}
	select {
	case m.results <- st:
	default:
	}
}

func (m *Monitor) apply(snap aisfeed.Snapshot) {
	if snap.VesselID != "" && snap.VesselID != m.timer.VesselID {
		return
	}
	m.session = snap.Session
	m.position = snap.Position
	m.eta = snap.ETA
	m.simulated = snap.Simulated
	m.degraded = snap.ConnErr != nil
}

func (m *Monitor) observe(ev aisfeed.Event) {
	// every fan-out timer shares the vessel, so the id alone cannot tell sessions apart
	if ev.VesselID != m.timer.VesselID || ev.Session != m.session {
		return
	}
	switch ev.Kind {
	case aisfeed.PositionUpdated:
		pos := ev.Position
		m.position = &pos
		m.simulated = pos.Simulated
		m.degraded = false
	case aisfeed.SimulatedFallback:
		pos := ev.Position
		m.position = &pos
		m.simulated = true
	case aisfeed.ETAUpdated:
		m.eta = ev.ETA
	case aisfeed.ConnectionDegraded:
		m.degraded = true
	}
}

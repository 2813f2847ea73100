package notify

import (
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Notification is an alert that has come due
type Notification struct {
	ID       string
	Title    string
	Body     string
	Priority Priority
	FiredAt  time.Time
}

// LocalScheduler fires alerts in-process with time.AfterFunc and publishes
// them on a channel. Pending alerts do not survive a restart; the timer
// manager reschedules them on load.
type LocalScheduler struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
	out     chan Notification
	now     func() time.Time
}

// LocalOption configures a LocalScheduler
type LocalOption func(*LocalScheduler)

// WithClock overrides the clock used to compute delays
func WithClock(now func() time.Time) LocalOption {
	return func(s *LocalScheduler) { s.now = now }
}

// WithBuffer sets the capacity of the delivery channel
func WithBuffer(n int) LocalOption {
	return func(s *LocalScheduler) { s.out = make(chan Notification, n) }
}

// NewLocalScheduler returns an empty scheduler
func NewLocalScheduler(opts ...LocalOption) *LocalScheduler {
	s := &LocalScheduler{
		pending: make(map[string]*time.Timer),
		out:     make(chan Notification, 16),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deliveries is where due alerts are published. A full channel drops the alert.
func (s *LocalScheduler) Deliveries() <-chan Notification {
	return s.out
}

func (s *LocalScheduler) Schedule(id string, fireAt time.Time, title, body string, priority Priority) error {
	delay := fireAt.Sub(s.now())
	if delay <= 0 {
		log.Debugf("Skipping past alert %s", id)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.pending[id]; ok {
		prev.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(delay, func() {
		s.mu.Lock()
		// a replacement may have been scheduled under the same id
		if s.pending[id] != t {
			s.mu.Unlock()
			return
		}
		delete(s.pending, id)
		s.mu.Unlock()

		n := Notification{ID: id, Title: title, Body: body, Priority: priority, FiredAt: s.now()}
		select {
		case s.out <- n:
		default:
			log.Warnf("Dropping alert %s, nobody is listening", id)
		}
	})
	s.pending[id] = t
	return nil
}

func (s *LocalScheduler) Cancel(timerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, minutes := range LeadTimes {
		id := AlertID(timerID, minutes)
		if t, ok := s.pending[id]; ok {
			t.Stop()
			delete(s.pending, id)
		}
	}
	return nil
}

func (s *LocalScheduler) CancelAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, t := range s.pending {
		t.Stop()
		delete(s.pending, id)
	}
	return nil
}

// Pending lists the ids of alerts that have not fired yet, sorted
func (s *LocalScheduler) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

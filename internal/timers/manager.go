// Package timers owns the in-memory timer list, keeps it in step with the
// store and the alert scheduler, and runs the per-timer evaluation loop.
package timers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ngmaloney/portpal/internal/models"
	"github.com/ngmaloney/portpal/internal/notify"
	"github.com/ngmaloney/portpal/internal/timerstore"
)

// ErrUnknownTimer is returned for ids the manager does not hold
var ErrUnknownTimer = errors.New("unknown timer")

// WeatherSource fetches conditions at a point
type WeatherSource interface {
	Snapshot(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error)
}

// Locator resolves a port name to coordinates
type Locator func(port string) models.Coordinate

// Manager is the single owner of the timer list. Every mutation is written
// through to the store and re-plans that timer's alerts.
type Manager struct {
	mu       sync.Mutex
	timers   []models.Timer
	store    timerstore.Store
	sched    notify.Scheduler
	settings notify.Settings
	now      func() time.Time

	weather WeatherSource
	locate  Locator
}

// Option configures a Manager
type Option func(*Manager)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithSettings sets the initial alert lead times
func WithSettings(s notify.Settings) Option {
	return func(m *Manager) { m.settings = s }
}

// WithWeather fetches a weather snapshot for each added timer's port
func WithWeather(src WeatherSource, locate Locator) Option {
	return func(m *Manager) {
		m.weather = src
		m.locate = locate
	}
}

// NewManager returns an empty manager; call Load to read stored timers
func NewManager(store timerstore.Store, sched notify.Scheduler, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		sched:    sched,
		settings: notify.DefaultSettings(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load replaces the in-memory list with the stored timers and plans their alerts
func (m *Manager) Load(ctx context.Context) error {
	stored, err := m.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("loading timers: %w", err)
	}

	m.mu.Lock()
	m.timers = stored
	m.mu.Unlock()

	log.Infof("Loaded %d timers", len(stored))
	return m.RescheduleAll(m.Settings())
}

// Add stores a new timer and schedules its alerts
func (m *Manager) Add(ctx context.Context, t models.Timer) error {
	if err := Validate(t); err != nil {
		return err
	}
	t.Weather = m.fetchWeather(ctx, t)

	if err := m.store.Save(ctx, t); err != nil {
		return err
	}

	m.mu.Lock()
	m.timers = append(m.timers, t)
	settings := m.settings
	m.mu.Unlock()

	return notify.ScheduleTimer(m.sched, t, settings, m.now())
}

// AddAll adds every timer, stopping at the first failure
func (m *Manager) AddAll(ctx context.Context, ts []models.Timer) error {
	for _, t := range ts {
		if err := m.Add(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes a timer and cancels its alerts. The timer stays listed
// if the store refuses the delete.
func (m *Manager) Remove(ctx context.Context, id string) error {
	if _, err := m.Get(id); err != nil {
		return err
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return err
	}

	m.mu.Lock()
	if idx := m.index(id); idx >= 0 {
		m.timers = append(m.timers[:idx:idx], m.timers[idx+1:]...)
	}
	m.mu.Unlock()

	return m.sched.Cancel(id)
}

// Update applies a user edit. The itinerary is never touched.
func (m *Manager) Update(ctx context.Context, id string, edit models.TimerEdit) (models.Timer, error) {
	m.mu.Lock()
	idx := m.index(id)
	if idx < 0 {
		m.mu.Unlock()
		return models.Timer{}, fmt.Errorf("%w: %s", ErrUnknownTimer, id)
	}
	updated := edit.Apply(m.timers[idx])
	m.mu.Unlock()

	updated.LastUpdated = m.now()
	if err := Validate(updated); err != nil {
		return models.Timer{}, err
	}
	if err := m.store.Update(ctx, updated); err != nil {
		return models.Timer{}, err
	}

	m.mu.Lock()
	// the list may have shifted while the store was written
	if idx = m.index(id); idx >= 0 {
		m.timers[idx] = updated
	}
	settings := m.settings
	m.mu.Unlock()

	if idx < 0 {
		return models.Timer{}, fmt.Errorf("%w: %s", ErrUnknownTimer, id)
	}
	return updated, notify.ScheduleTimer(m.sched, updated, settings, m.now())
}

// DeleteAll clears the list, the store and every pending alert
func (m *Manager) DeleteAll(ctx context.Context) error {
	m.mu.Lock()
	m.timers = nil
	m.mu.Unlock()

	if err := m.store.DeleteAll(ctx); err != nil {
		return err
	}
	return m.sched.CancelAll()
}

// RescheduleAll adopts new alert settings and re-plans every timer
func (m *Manager) RescheduleAll(s notify.Settings) error {
	m.mu.Lock()
	m.settings = s
	timers := append([]models.Timer(nil), m.timers...)
	m.mu.Unlock()

	now := m.now()
	var errs []error
	for _, t := range timers {
		if err := notify.ScheduleTimer(m.sched, t, s, now); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Timers returns a copy of the list in insertion order
func (m *Manager) Timers() []models.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Timer(nil), m.timers...)
}

// Get returns one timer by id
func (m *Manager) Get(id string) (models.Timer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx := m.index(id); idx >= 0 {
		return m.timers[idx], nil
	}
	return models.Timer{}, fmt.Errorf("%w: %s", ErrUnknownTimer, id)
}

// Settings returns the alert lead times in effect
func (m *Manager) Settings() notify.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// index must be called with mu held
func (m *Manager) index(id string) int {
	for i, t := range m.timers {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) fetchWeather(ctx context.Context, t models.Timer) models.WeatherSnapshot {
	if m.weather == nil || m.locate == nil {
		return t.Weather
	}
	at := m.locate(t.TargetPort)
	snap, err := m.weather.Snapshot(ctx, at.Latitude, at.Longitude)
	if err != nil {
		log.Warnf("Weather unavailable for %s: %v", t.TargetPort, err)
		return t.Weather
	}
	return snap
}

// Package notify plans departure alerts and hands them to a Scheduler
package notify

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ngmaloney/portpal/internal/models"
)

// Priority is how insistently an alert should interrupt
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityTimeSensitive
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityTimeSensitive:
		return "time-sensitive"
	case PriorityCritical:
		return "critical"
	}
	return "normal"
}

// Scheduler delivers alerts at a future instant. Implementations are
// free to drop alerts whose instant has already passed.
type Scheduler interface {
	// Schedule registers one alert; scheduling an existing id replaces it
	Schedule(id string, fireAt time.Time, title, body string, priority Priority) error
	// Cancel removes every pending alert belonging to the timer
	Cancel(timerID string) error
	CancelAll() error
}

// Settings toggles each of the four lead times
type Settings struct {
	Alert60 bool `yaml:"alert60"`
	Alert30 bool `yaml:"alert30"`
	Alert15 bool `yaml:"alert15"`
	Alert5  bool `yaml:"alert5"`
}

// DefaultSettings enables every lead time
func DefaultSettings() Settings {
	return Settings{Alert60: true, Alert30: true, Alert15: true, Alert5: true}
}

// LeadTimes lists the supported minutes-before-departure, longest first
var LeadTimes = []int{60, 30, 15, 5}

func (s Settings) enabled(minutes int) bool {
	switch minutes {
	case 60:
		return s.Alert60
	case 30:
		return s.Alert30
	case 15:
		return s.Alert15
	case 5:
		return s.Alert5
	}
	return false
}

// Alert is one planned notification
type Alert struct {
	ID            string
	TimerID       string
	MinutesBefore int
	FireAt        time.Time
	Title         string
	Body          string
	Priority      Priority
}

// AlertID names the alert for a timer and lead time, e.g. "<id>-15min"
func AlertID(timerID string, minutesBefore int) string {
	return fmt.Sprintf("%s-%dmin", timerID, minutesBefore)
}

func message(minutes int, port string) (title, body string, priority Priority) {
	switch minutes {
	case 60:
		return "Departure in 1 Hour",
			fmt.Sprintf("Your ship departs from %s in 1 hour. Start heading back soon!", port),
			PriorityTimeSensitive
	case 30:
		return "Departure in 30 Minutes",
			fmt.Sprintf("Your ship departs from %s in 30 minutes. Time to head back!", port),
			PriorityTimeSensitive
	case 15:
		return "⚠️ Departure in 15 Minutes!",
			fmt.Sprintf("Your ship departs from %s in 15 minutes. Return to the ship NOW!", port),
			PriorityCritical
	default:
		return "🚨 URGENT: Departing in 5 Minutes!",
			fmt.Sprintf("Your ship is departing from %s in 5 minutes! GET BACK NOW!", port),
			PriorityCritical
	}
}

// Plan returns the enabled alerts for the timer's departure, longest lead
// time first. Alerts whose fire instant is not after now are left out.
func Plan(t models.Timer, s Settings, now time.Time) []Alert {
	var alerts []Alert
	for _, minutes := range LeadTimes {
		if !s.enabled(minutes) {
			continue
		}
		fireAt := t.DepartureInstant.Add(-time.Duration(minutes) * time.Minute)
		if !fireAt.After(now) {
			continue
		}
		title, body, priority := message(minutes, t.TargetPort)
		alerts = append(alerts, Alert{
			ID:            AlertID(t.ID, minutes),
			TimerID:       t.ID,
			MinutesBefore: minutes,
			FireAt:        fireAt,
			Title:         title,
			Body:          body,
			Priority:      priority,
		})
	}
	return alerts
}

// ScheduleTimer replaces the timer's pending alerts with a fresh plan
func ScheduleTimer(sched Scheduler, t models.Timer, s Settings, now time.Time) error {
	if err := sched.Cancel(t.ID); err != nil {
		return fmt.Errorf("cancelling alerts for %s: %w", t.ID, err)
	}
	for _, a := range Plan(t, s, now) {
		if err := sched.Schedule(a.ID, a.FireAt, a.Title, a.Body, a.Priority); err != nil {
			return fmt.Errorf("scheduling %s: %w", a.ID, err)
		}
		log.WithFields(log.Fields{
			"alert":  a.ID,
			"fireAt": a.FireAt.Format(time.RFC3339),
		}).Debug("Scheduled departure alert")
	}
	return nil
}

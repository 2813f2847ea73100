package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/ngmaloney/portpal/internal/catalog"
	"github.com/ngmaloney/portpal/internal/models"
	"github.com/ngmaloney/portpal/internal/notify"
	"github.com/ngmaloney/portpal/internal/timers"
)

// Message types for async operations

// errMsg is a message type for errors
type errMsg struct {
	err error
}

// timersChangedMsg is sent after timers were created or deleted
type timersChangedMsg struct {
	created int
	err     error
}

// monitorStartedMsg carries the running session for the selected timer
type monitorStartedMsg struct {
	session *session
}

// statusMsg is one evaluation from the running monitor
type statusMsg timers.Status

// monitorDoneMsg is sent when the monitor's results channel closes
type monitorDoneMsg struct{}

// advisoriesMsg carries the weather warnings at the selected timer's port
type advisoriesMsg struct {
	timerID    string
	advisories []models.Advisory
	err        error
}

// alertSettingsMsg reports the outcome of saving alert lead times
type alertSettingsMsg struct {
	settings notify.Settings
	err      error
}

// clockMsg redraws the countdown
type clockMsg time.Time

// alertMsg is a departure alert that came due
type alertMsg notify.Notification

// session is the monitor and feed subscription behind the countdown view
type session struct {
	timerID string
	cancel  context.CancelFunc
	results <-chan timers.Status
	tracker Tracker
}

// stop cancels the monitor and releases the feed subscription
func (s *session) stop() {
	if s == nil {
		return
	}
	s.cancel()
	if s.tracker != nil {
		s.tracker.Stop()
	}
}

// startMonitor subscribes to the vessel (when live data is on) and runs a monitor for t
func startMonitor(deps Deps, t models.Timer) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())
		now := deps.Now()

		var feed timers.Feed
		if deps.Tracker != nil {
			stop, at, ok := timers.UpcomingArrival(t, now)
			if !ok {
				stop.Port, at = t.TargetPort, t.DepartureInstant
			}
			dest := deps.Locate(stop.Port)
			if err := deps.Tracker.Start(ctx, t.VesselID, at, dest); err != nil {
				log.Warnf("Live tracking unavailable for %s: %v", t.ShipName, err)
			} else {
				feed = deps.Tracker
			}
		}

		mon := timers.NewMonitor(t, feed,
			timers.WithTickInterval(deps.TickInterval),
			timers.WithMonitorClock(deps.Now),
		)
		go func() {
			if err := mon.Run(ctx); err != nil && err != context.Canceled {
				log.Warnf("Monitor for %s stopped: %v", t.ID, err)
			}
		}()

		s := &session{timerID: t.ID, cancel: cancel, results: mon.Results()}
		if feed != nil {
			s.tracker = deps.Tracker
		}
		return monitorStartedMsg{session: s}
	}
}

// fetchAdvisories looks up warnings at the timer's port
func fetchAdvisories(deps Deps, t models.Timer) tea.Cmd {
	if deps.Advisories == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		at := deps.Locate(t.TargetPort)
		advisories, err := deps.Advisories.Advisories(ctx, at.Latitude, at.Longitude)
		return advisoriesMsg{timerID: t.ID, advisories: advisories, err: err}
	}
}

// waitForStatus waits for the next evaluation
func waitForStatus(s *session) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-s.results
		if !ok {
			return monitorDoneMsg{}
		}
		return statusMsg(st)
	}
}

// waitForAlert waits for the next delivered departure alert
func waitForAlert(alerts <-chan notify.Notification) tea.Cmd {
	if alerts == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-alerts
		if !ok {
			return nil
		}
		return alertMsg(n)
	}
}

func tickClock() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockMsg(t)
	})
}

// createTimers fans the chosen itinerary out and adds the timers
func createTimers(deps Deps, ship catalog.Ship, itin models.Itinerary, embark time.Time, currentIndex int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var created []models.Timer
		var err error
		if currentIndex >= 0 {
			created, err = timers.CreateInProgress(ship, itin, currentIndex, deps.Now())
		} else {
			created, err = timers.CreateForItinerary(ship, itin, embark, deps.Now())
		}
		if err != nil {
			return timersChangedMsg{err: err}
		}
		if err := deps.Manager.AddAll(ctx, created); err != nil {
			return timersChangedMsg{err: err}
		}
		return timersChangedMsg{created: len(created)}
	}
}

// deleteTimer removes one timer
func deleteTimer(deps Deps, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return timersChangedMsg{err: deps.Manager.Remove(ctx, id)}
	}
}

// clearTimers removes every timer
func clearTimers(deps Deps) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return timersChangedMsg{err: deps.Manager.DeleteAll(ctx)}
	}
}

// updateTimer applies a user edit
func updateTimer(deps Deps, id string, edit models.TimerEdit) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, err := deps.Manager.Update(ctx, id, edit)
		return timersChangedMsg{err: err}
	}
}

// saveAlertSettings re-plans every timer's alerts and persists the choice
func saveAlertSettings(deps Deps, settings notify.Settings) tea.Cmd {
	return func() tea.Msg {
		if err := deps.Manager.RescheduleAll(settings); err != nil {
			return alertSettingsMsg{err: err}
		}
		if deps.SaveAlerts != nil {
			if err := deps.SaveAlerts(settings); err != nil {
				log.Warnf("Alert settings not saved: %v", err)
			}
		}
		return alertSettingsMsg{settings: settings}
	}
}

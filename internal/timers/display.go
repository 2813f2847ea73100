package timers

import (
	"fmt"
	"time"

	"github.com/ngmaloney/portpal/internal/models"
	"github.com/ngmaloney/portpal/internal/schedule"
)

// CurrentPort is the port whose arrival has passed and whose paired
// departure has not, i.e. where the passenger is ashore right now
func CurrentPort(t models.Timer, now time.Time) (string, bool) {
	stops := t.Itinerary
	for idx := 0; idx+1 < len(stops); idx++ {
		stop, next := stops[idx], stops[idx+1]
		if !stop.Status.IsArrivalLike() || next.Status != models.StopDeparture {
			continue
		}
		arrival, err := schedule.ResolveStop(stop, t.EmbarkationInstant)
		if err != nil {
			continue
		}
		departure, err := schedule.ResolveStop(next, t.EmbarkationInstant)
		if err != nil {
			continue
		}
		if !now.Before(arrival) && now.Before(departure) {
			return stop.Port, true
		}
	}
	return "", false
}

// NextPort is the first arrival still ahead of now
func NextPort(t models.Timer, now time.Time) (string, bool) {
	for _, stop := range t.Itinerary {
		if stop.Status != models.StopArrival {
			continue
		}
		at, err := schedule.ResolveStop(stop, t.EmbarkationInstant)
		if err == nil && at.After(now) {
			return stop.Port, true
		}
	}
	return "", false
}

// Headline is the destination line shown above the countdown
func Headline(t models.Timer, state models.TravelState, now time.Time) string {
	current := func() string {
		if port, ok := CurrentPort(t, now); ok {
			return port
		}
		return t.TargetPort
	}

	switch state {
	case models.StateSettingSailSoon, models.StateUntilNextTime:
		return t.TargetPort
	case models.StateAllAboard:
		return "Departing " + t.TargetPort
	case models.StateSeasTheDay, models.StateLandHo:
		if port, ok := NextPort(t, now); ok {
			return port
		}
		return "Next Port"
	case models.StateExplorationTime:
		return current()
	case models.StateBonVoyage:
		return "Leaving " + current()
	case models.StateCruiseComplete:
		return "Journey Complete"
	}
	return t.TargetPort
}

// BerthLine is the secondary line under the headline
func BerthLine(t models.Timer, state models.TravelState, target time.Time) string {
	switch state {
	case models.StateSettingSailSoon:
		return "Departing from " + t.TargetPort
	case models.StateAllAboard:
		return t.Berth
	case models.StateExplorationTime:
		return fmt.Sprintf("All Aboard: %s", target.Format("3:04 PM"))
	}
	return "At Sea"
}

// UpcomingArrival is the next Arrival, Current or Return stop after now,
// the leg a live ETA is estimated against
func UpcomingArrival(t models.Timer, now time.Time) (models.PortStop, time.Time, bool) {
	for _, stop := range t.Itinerary {
		if !stop.Status.IsArrivalLike() && stop.Status != models.StopReturn {
			continue
		}
		at, err := schedule.ResolveStop(stop, t.EmbarkationInstant)
		if err == nil && at.After(now) {
			return stop, at, true
		}
	}
	return models.PortStop{}, time.Time{}, false
}

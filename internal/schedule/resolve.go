// Package schedule maps itinerary day offsets and local times onto absolute instants
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/ngmaloney/portpal/internal/models"
)

// ErrInvalidTimeOfDay is returned when an hour or minute lies outside 00:00-23:59
var ErrInvalidTimeOfDay = errors.New("time of day out of range")

// Resolve adds dayOffset calendar days to base's date and sets the wall-clock
// time, keeping base's location. Seconds are zeroed.
func Resolve(dayOffset int, tod models.TimeOfDay, base time.Time) (time.Time, error) {
	if !tod.Valid() {
		return time.Time{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeOfDay, tod.Hour, tod.Minute)
	}
	y, m, d := base.Date()
	return time.Date(y, m, d+dayOffset, tod.Hour, tod.Minute, 0, 0, base.Location()), nil
}

// ResolveStop resolves a stop against the embarkation date
func ResolveStop(stop models.PortStop, base time.Time) (time.Time, error) {
	t, err := Resolve(stop.DayOffset, stop.Time, base)
	if err != nil {
		return time.Time{}, fmt.Errorf("resolving %s %s at %s: %w", stop.Port, stop.DayLabel(), stop.Time, err)
	}
	return t, nil
}

// ResolveLabel resolves catalog strings ("Day 2", "08:00"). Malformed input
// degrades instead of failing: a bad day label yields base, a bad time
// yields base shifted by the day count.
func ResolveLabel(day, tod string, base time.Time) time.Time {
	offset, err := models.ParseDayLabel(day)
	if err != nil {
		return base
	}
	t, err := models.ParseTimeOfDay(tod)
	if err != nil {
		return base.AddDate(0, 0, offset)
	}
	resolved, _ := Resolve(offset, t, base)
	return resolved
}

// DayOffset returns the number of calendar days from base's date to
// instant's date, both read in base's location.
func DayOffset(instant, base time.Time) int {
	y1, m1, d1 := base.Date()
	y2, m2, d2 := instant.In(base.Location()).Date()
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from) / (24 * time.Hour))
}

// StartOfDay truncates t to local midnight in its own location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Resolved pairs a stop with its absolute instant
type Resolved struct {
	Index   int
	Stop    models.PortStop
	Instant time.Time
}

// ResolveAll resolves every stop in order
func ResolveAll(stops []models.PortStop, base time.Time) ([]Resolved, error) {
	out := make([]Resolved, 0, len(stops))
	for idx, stop := range stops {
		t, err := ResolveStop(stop, base)
		if err != nil {
			return nil, err
		}
		out = append(out, Resolved{Index: idx, Stop: stop, Instant: t})
	}
	return out, nil
}

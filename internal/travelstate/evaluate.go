// Package travelstate derives the voyage phase, countdown target and shore
// urgency from an itinerary, the current time and optional vessel motion.
package travelstate

import (
	"errors"
	"fmt"
	"time"

	"github.com/ngmaloney/portpal/internal/models"
	"github.com/ngmaloney/portpal/internal/schedule"
)

var (
	ErrEmptyItinerary     = errors.New("itinerary has no stops")
	ErrMissingEmbarkation = errors.New("itinerary does not start with an embarkation")
	ErrMissingReturn      = errors.New("itinerary does not end with a return")
	ErrUnorderedStops     = errors.New("itinerary stops are not in day order")
	ErrMultipleCurrent    = errors.New("itinerary marks more than one stop as current")
)

const (
	bonVoyageWindow = time.Hour
	landHoWindow    = 2 * time.Hour
	fallbackTarget  = time.Hour
)

// MotionSource says where a motion signal came from
type MotionSource int

const (
	MotionLive MotionSource = iota
	MotionSimulated
)

// Motion is the "is the vessel underway" signal
type Motion struct {
	AtSea  bool
	Speed  float64
	Source MotionSource
}

// MotionFromPosition derives the signal from a live fix
func MotionFromPosition(p models.LivePosition) *Motion {
	src := MotionLive
	if p.Simulated {
		src = MotionSimulated
	}
	return &Motion{AtSea: p.AtSea(), Speed: p.Speed, Source: src}
}

// MotionFromSpeed builds a synthetic signal for test mode
func MotionFromSpeed(knots float64) *Motion {
	return &Motion{AtSea: knots > models.AtSeaThresholdKnots, Speed: knots, Source: MotionSimulated}
}

// Input is everything a single evaluation reads
type Input struct {
	Stops       []models.PortStop
	Embarkation time.Time
	Now         time.Time
	Motion      *Motion
}

// Result is the outcome of one evaluation
type Result struct {
	State   models.TravelState
	Target  time.Time
	Urgency *models.ExplorationUrgency
	// Port is the port the target refers to, empty when the fallback fired
	Port string
	// Rule names the rule that matched
	Rule string
	// Fallback is set when no rule matched; reaching it means the itinerary is malformed
	Fallback bool
}

// Validate checks the itinerary invariants the evaluator relies on
func Validate(stops []models.PortStop) error {
	if len(stops) == 0 {
		return ErrEmptyItinerary
	}
	if stops[0].Status != models.StopEmbarkation {
		return fmt.Errorf("%w: first stop %s is %s", ErrMissingEmbarkation, stops[0].Port, stops[0].Status)
	}
	last := stops[len(stops)-1]
	if last.Status != models.StopReturn {
		return fmt.Errorf("%w: last stop %s is %s", ErrMissingReturn, last.Port, last.Status)
	}
	current := 0
	for idx, s := range stops {
		if idx > 0 && s.DayOffset < stops[idx-1].DayOffset {
			return fmt.Errorf("%w: %s %s follows %s", ErrUnorderedStops, s.Port, s.DayLabel(), stops[idx-1].DayLabel())
		}
		if s.Status == models.StopCurrent {
			current++
		}
	}
	if current > 1 {
		return ErrMultipleCurrent
	}
	return nil
}

// Evaluate runs the rule table for in. Repeated calls with the same input
// return the same result.
func Evaluate(in Input) (Result, error) {
	if err := Validate(in.Stops); err != nil {
		return Result{}, err
	}
	resolved, err := schedule.ResolveAll(in.Stops, in.Embarkation)
	if err != nil {
		return Result{}, err
	}

	e := &evaluation{
		stops:   resolved,
		now:     in.Now,
		motion:  in.Motion,
		current: models.CurrentIndex(in.Stops),
	}

	for _, rule := range e.rules() {
		if res, ok := rule.Match(e); ok {
			if res.Rule == "" {
				res.Rule = rule.Name
			}
			return res, nil
		}
	}
	return Result{
		State:    models.StateSeasTheDay,
		Target:   in.Now.Add(fallbackTarget),
		Rule:     "fallback",
		Fallback: true,
	}, nil
}

// LivePath reports whether the motion signal drives the evaluation
func (in Input) LivePath() bool {
	return in.Motion != nil && models.CurrentIndex(in.Stops) < 0
}

type evaluation struct {
	stops   []schedule.Resolved
	now     time.Time
	motion  *Motion
	current int
}

func (e *evaluation) rules() []Rule {
	if e.motion != nil && e.current < 0 {
		return LiveRules
	}
	return ScheduleRules
}

func (e *evaluation) last() schedule.Resolved {
	return e.stops[len(e.stops)-1]
}

// nextArrival finds the first Arrival or Return strictly after now
func (e *evaluation) nextArrival() (schedule.Resolved, bool) {
	for _, r := range e.stops {
		if r.Stop.Status != models.StopArrival && r.Stop.Status != models.StopReturn {
			continue
		}
		if r.Instant.After(e.now) {
			return r, true
		}
	}
	return schedule.Resolved{}, false
}

// nextPortCallAfterIndex finds the first Arrival listed after idx. The
// Return is left to the homecoming rule.
func (e *evaluation) nextPortCallAfterIndex(idx int) (schedule.Resolved, bool) {
	for _, r := range e.stops[idx+1:] {
		if r.Stop.Status == models.StopArrival {
			return r, true
		}
	}
	return schedule.Resolved{}, false
}

// pairedDeparture returns the departure immediately following idx from the same port
func (e *evaluation) pairedDeparture(idx int) (schedule.Resolved, bool) {
	if idx+1 >= len(e.stops) {
		return schedule.Resolved{}, false
	}
	next := e.stops[idx+1]
	if next.Stop.Status != models.StopDeparture || next.Stop.Port != e.stops[idx].Stop.Port {
		return schedule.Resolved{}, false
	}
	return next, true
}

// departureFrom scans forward from idx for the departure matching that stop's port
func (e *evaluation) departureFrom(idx int) (schedule.Resolved, bool) {
	port := e.stops[idx].Stop.Port
	for _, r := range e.stops[idx:] {
		if r.Stop.Status == models.StopDeparture && r.Stop.Port == port {
			return r, true
		}
	}
	return schedule.Resolved{}, false
}

func (e *evaluation) exploring(port string, departure time.Time) Result {
	u := Urgency(departure.Sub(e.now))
	return Result{State: models.StateExplorationTime, Target: departure, Urgency: &u, Port: port}
}

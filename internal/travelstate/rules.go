package travelstate

import (
	"github.com/ngmaloney/portpal/internal/models"
	"github.com/ngmaloney/portpal/internal/schedule"
)

// Rule is one guarded step of the evaluation. Rules run in table order and
// the first match wins.
type Rule struct {
	Name  string
	Match func(e *evaluation) (Result, bool)
}

// StopRule is checked against a single stop while walking the itinerary
type StopRule struct {
	Name  string
	Match func(e *evaluation, r schedule.Resolved) (Result, bool)
}

// ScheduleRules drive evaluation from the clock alone, or when a stop is
// explicitly marked Current.
var ScheduleRules = []Rule{
	{Name: "before-first-stop", Match: beforeFirstStop},
	{Name: "current-marker", Match: currentMarker},
	{Name: "schedule-walk", Match: walk(map[models.StopStatus]StopRule{
		models.StopEmbarkation: {Name: "embarkation-pending", Match: embarkationPending},
		models.StopArrival:     {Name: "ashore", Match: ashoreBySchedule},
		models.StopDeparture:   {Name: "departing-soon", Match: departingSoon},
		models.StopReturn:      {Name: "return", Match: homecoming},
	})},
}

// LiveRules use the vessel motion signal to tell docked from underway
var LiveRules = []Rule{
	{Name: "before-first-stop", Match: beforeFirstStop},
	{Name: "live-walk", Match: walk(map[models.StopStatus]StopRule{
		models.StopEmbarkation: {Name: "embarkation-pending", Match: embarkationPending},
		models.StopArrival:     {Name: "approach", Match: approachOrAshore},
		models.StopDeparture:   {Name: "just-departed", Match: justDeparted},
		models.StopReturn:      {Name: "return", Match: homecoming},
	})},
}

func walk(byStatus map[models.StopStatus]StopRule) func(*evaluation) (Result, bool) {
	return func(e *evaluation) (Result, bool) {
		for _, r := range e.stops {
			rule, ok := byStatus[r.Stop.Status]
			if !ok {
				continue
			}
			if res, ok := rule.Match(e, r); ok {
				res.Rule = rule.Name
				return res, true
			}
		}
		return Result{}, false
	}
}

func beforeFirstStop(e *evaluation) (Result, bool) {
	first := e.stops[0]
	if !e.now.Before(first.Instant) {
		return Result{}, false
	}
	return Result{State: models.StateSettingSailSoon, Target: first.Instant, Port: first.Stop.Port}, true
}

func currentMarker(e *evaluation) (Result, bool) {
	if e.current < 0 {
		return Result{}, false
	}
	dep, ok := e.departureFrom(e.current)
	if !ok {
		return Result{}, false
	}

	if e.now.Before(dep.Instant) {
		return e.exploring(dep.Stop.Port, dep.Instant), true
	}

	next, ok := e.nextArrival()
	if !ok {
		return Result{}, false
	}
	if e.now.Before(dep.Instant.Add(bonVoyageWindow)) {
		return Result{State: models.StateBonVoyage, Target: next.Instant, Port: next.Stop.Port}, true
	}
	if next.Index == len(e.stops)-1 {
		return Result{State: models.StateUntilNextTime, Target: next.Instant, Port: next.Stop.Port}, true
	}
	if next.Instant.Sub(e.now) < landHoWindow {
		return Result{State: models.StateLandHo, Target: next.Instant, Port: next.Stop.Port}, true
	}
	return Result{State: models.StateSeasTheDay, Target: next.Instant, Port: next.Stop.Port}, true
}

func embarkationPending(e *evaluation, r schedule.Resolved) (Result, bool) {
	if !e.now.Before(r.Instant) {
		return Result{}, false
	}
	return Result{State: models.StateAllAboard, Target: r.Instant, Port: r.Stop.Port}, true
}

func ashoreBySchedule(e *evaluation, r schedule.Resolved) (Result, bool) {
	dep, ok := e.pairedDeparture(r.Index)
	if !ok || e.now.Before(r.Instant) || !e.now.Before(dep.Instant) {
		return Result{}, false
	}
	return e.exploring(r.Stop.Port, dep.Instant), true
}

func departingSoon(e *evaluation, r schedule.Resolved) (Result, bool) {
	left := r.Instant.Sub(e.now)
	if left <= 0 || left >= bonVoyageWindow {
		return Result{}, false
	}
	return Result{State: models.StateBonVoyage, Target: r.Instant, Port: r.Stop.Port}, true
}

func homecoming(e *evaluation, r schedule.Resolved) (Result, bool) {
	if e.now.Before(r.Instant) {
		return Result{State: models.StateUntilNextTime, Target: r.Instant, Port: r.Stop.Port}, true
	}
	return Result{State: models.StateCruiseComplete, Target: r.Instant, Port: r.Stop.Port}, true
}

func approachOrAshore(e *evaluation, r schedule.Resolved) (Result, bool) {
	if e.now.Before(r.Instant) {
		if !e.motion.AtSea {
			return Result{}, false
		}
		state := models.StateSeasTheDay
		if r.Instant.Sub(e.now) < landHoWindow {
			state = models.StateLandHo
		}
		return Result{State: state, Target: r.Instant, Port: r.Stop.Port}, true
	}

	if e.motion.AtSea {
		return Result{}, false
	}
	dep, ok := e.pairedDeparture(r.Index)
	if !ok || !e.now.Before(dep.Instant) {
		return Result{}, false
	}
	return e.exploring(r.Stop.Port, dep.Instant), true
}

func justDeparted(e *evaluation, r schedule.Resolved) (Result, bool) {
	if !e.motion.AtSea || e.now.Before(r.Instant) || !e.now.Before(r.Instant.Add(bonVoyageWindow)) {
		return Result{}, false
	}
	next, ok := e.nextPortCallAfterIndex(r.Index)
	if !ok {
		return Result{}, false
	}
	return Result{State: models.StateBonVoyage, Target: next.Instant, Port: next.Stop.Port}, true
}

package models

import "time"

// TravelState is the discrete phase of a voyage that drives the countdown
type TravelState int

const (
	StateSettingSailSoon TravelState = iota
	StateAllAboard
	StateSeasTheDay
	StateLandHo
	StateExplorationTime
	StateBonVoyage
	StateUntilNextTime
	StateCruiseComplete
)

var travelStateNames = map[TravelState]string{
	StateSettingSailSoon: "Setting Sail Soon",
	StateAllAboard:       "All Aboard!",
	StateSeasTheDay:      "Seas the Day",
	StateLandHo:          "Land Ho!",
	StateExplorationTime: "Exploration Time",
	StateBonVoyage:       "Bon Voyage",
	StateUntilNextTime:   "Until Next Time",
	StateCruiseComplete:  "Cruise Complete",
}

var travelStateStatus = map[TravelState]string{
	StateSettingSailSoon: "Countdown Active",
	StateAllAboard:       "Boarding Now",
	StateSeasTheDay:      "Sailing",
	StateLandHo:          "Approaching Port",
	StateExplorationTime: "Exploring",
	StateBonVoyage:       "Departing",
	StateUntilNextTime:   "Final Leg",
	StateCruiseComplete:  "Completed",
}

// String returns the display name of the state
func (s TravelState) String() string {
	if name, ok := travelStateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// StatusText is the short status line shown under the countdown
func (s TravelState) StatusText() string {
	return travelStateStatus[s]
}

// Terminal reports whether no further transitions leave this state
func (s TravelState) Terminal() bool {
	return s == StateCruiseComplete
}

// AllTravelStates lists every state in declaration order
func AllTravelStates() []TravelState {
	return []TravelState{
		StateSettingSailSoon, StateAllAboard, StateSeasTheDay, StateLandHo,
		StateExplorationTime, StateBonVoyage, StateUntilNextTime, StateCruiseComplete,
	}
}

// ExplorationUrgency grades the time left ashore before departure
type ExplorationUrgency int

const (
	UrgencyRelaxed ExplorationUrgency = iota
	UrgencyModerate
	UrgencyUrgent
	UrgencyCritical
)

func (u ExplorationUrgency) String() string {
	switch u {
	case UrgencyRelaxed:
		return "Relaxed"
	case UrgencyModerate:
		return "Moderate"
	case UrgencyUrgent:
		return "Urgent"
	case UrgencyCritical:
		return "Critical"
	}
	return "Unknown"
}

// Message is the call to action shown for the urgency level
func (u ExplorationUrgency) Message() string {
	switch u {
	case UrgencyRelaxed:
		return "Enjoy your time!"
	case UrgencyModerate:
		return "Start heading back soon"
	case UrgencyUrgent:
		return "Time to head back!"
	case UrgencyCritical:
		return "GET BACK NOW!"
	}
	return ""
}

// TimeLeft splits the time until target into whole hours, minutes and seconds.
// A target in the past yields all zeros.
func TimeLeft(target, now time.Time) (hours, minutes, seconds int) {
	diff := target.Sub(now)
	if diff <= 0 {
		return 0, 0, 0
	}
	total := int(diff / time.Second)
	return total / 3600, (total % 3600) / 60, total % 60
}

// Progress is the share of a 24h window still remaining before target, clamped to [0,1]
func Progress(target, now time.Time) float64 {
	ratio := target.Sub(now).Seconds() / (24 * time.Hour).Seconds()
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

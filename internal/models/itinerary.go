package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StopStatus is the structural role of a stop within an itinerary
type StopStatus string

const (
	StopEmbarkation StopStatus = "Embarkation"
	StopArrival     StopStatus = "Arrival"
	StopDeparture   StopStatus = "Departure"
	StopReturn      StopStatus = "Return"
	// StopCurrent replaces Arrival on at most one stop for a cruise joined mid-voyage
	StopCurrent StopStatus = "Current"
)

// ErrUnknownStopStatus is returned when a status string is not one of the stop statuses
var ErrUnknownStopStatus = errors.New("unknown stop status")

// ParseStopStatus converts a raw status string into a StopStatus
func ParseStopStatus(s string) (StopStatus, error) {
	switch st := StopStatus(strings.TrimSpace(s)); st {
	case StopEmbarkation, StopArrival, StopDeparture, StopReturn, StopCurrent:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStopStatus, s)
}

// IsArrivalLike reports whether the stop marks the vessel reaching a port
func (s StopStatus) IsArrivalLike() bool {
	return s == StopArrival || s == StopCurrent
}

// TimeOfDay is a 24h wall-clock time without a date
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ErrMalformedTimeOfDay is returned for strings that are not "HH:MM"
var ErrMalformedTimeOfDay = errors.New("malformed time of day")

// ErrMalformedDayLabel is returned for labels that are not "Day N"
var ErrMalformedDayLabel = errors.New("malformed day label")

// ParseTimeOfDay parses a "HH:MM" string
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrMalformedTimeOfDay, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrMalformedTimeOfDay, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrMalformedTimeOfDay, s)
	}
	t := TimeOfDay{Hour: hour, Minute: minute}
	if !t.Valid() {
		return TimeOfDay{}, fmt.Errorf("%w: %q out of range", ErrMalformedTimeOfDay, s)
	}
	return t, nil
}

// MustTimeOfDay is ParseTimeOfDay for static data; it panics on bad input
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Valid reports whether the hour and minute are inside 00:00-23:59
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// MarshalText stores the time as "HH:MM"
func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText reads a "HH:MM" value
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseDayLabel extracts N from a "Day N" label
func ParseDayLabel(label string) (int, error) {
	fields := strings.Fields(label)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "day") {
		return 0, fmt.Errorf("%w: %q", ErrMalformedDayLabel, label)
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedDayLabel, label)
	}
	return n, nil
}

// PortStop is one scheduled event at a named port
type PortStop struct {
	Port      string     `json:"port" validate:"required"`
	DayOffset int        `json:"day_offset" validate:"gte=0"`
	Time      TimeOfDay  `json:"time"`
	Status    StopStatus `json:"status" validate:"required,oneof=Embarkation Arrival Departure Return Current"`
}

// DayLabel renders the stop's offset in the catalog's "Day N" form
func (s PortStop) DayLabel() string {
	return fmt.Sprintf("Day %d", s.DayOffset)
}

// NewPortStop builds a stop from the catalog's string form ("Day 2", "08:00", "Arrival")
func NewPortStop(port, day, tod, status string) (PortStop, error) {
	offset, err := ParseDayLabel(day)
	if err != nil {
		return PortStop{}, err
	}
	t, err := ParseTimeOfDay(tod)
	if err != nil {
		return PortStop{}, err
	}
	st, err := ParseStopStatus(status)
	if err != nil {
		return PortStop{}, err
	}
	return PortStop{Port: port, DayOffset: offset, Time: t, Status: st}, nil
}

// Itinerary is the immutable description of one voyage
type Itinerary struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	DurationDays    int        `json:"duration_days"`
	EmbarkationPort string     `json:"embarkation_port"`
	ReturnPort      string     `json:"return_port"`
	Stops           []PortStop `json:"stops"`
}

// CopyStops returns a defensive copy of the stop list
func (i Itinerary) CopyStops() []PortStop {
	out := make([]PortStop, len(i.Stops))
	copy(out, i.Stops)
	return out
}

// CurrentIndex returns the index of the stop marked Current, or -1
func CurrentIndex(stops []PortStop) int {
	for idx, s := range stops {
		if s.Status == StopCurrent {
			return idx
		}
	}
	return -1
}

// MarkCurrent returns a copy of stops with the arrival at index rewritten to Current.
// Any existing Current marker is restored to Arrival first.
func MarkCurrent(stops []PortStop, index int) ([]PortStop, error) {
	if index < 0 || index >= len(stops) {
		return nil, fmt.Errorf("stop index %d out of range", index)
	}
	if !stops[index].Status.IsArrivalLike() {
		return nil, fmt.Errorf("stop %d (%s) is a %s, not an arrival", index, stops[index].Port, stops[index].Status)
	}
	out := make([]PortStop, len(stops))
	copy(out, stops)
	for idx := range out {
		if out[idx].Status == StopCurrent {
			out[idx].Status = StopArrival
		}
	}
	out[index].Status = StopCurrent
	return out, nil
}

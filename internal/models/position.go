package models

import "time"

// LivePosition is one vessel telemetry fix. It is replaced wholesale on every update.
type LivePosition struct {
	VesselID  string    `json:"mmsi"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Speed     float64   `json:"speed"`   // knots over ground
	Course    float64   `json:"course"`  // degrees
	Heading   float64   `json:"heading"` // degrees, course when the transponder has none
	Timestamp time.Time `json:"timestamp"`
	NavStatus int       `json:"nav_status"`
	Simulated bool      `json:"simulated"`
}

// AtSeaThresholdKnots separates underway from docked
const AtSeaThresholdKnots = 2.0

// AtSea reports whether the fix shows the vessel underway
func (p LivePosition) AtSea() bool {
	return p.Speed > AtSeaThresholdKnots
}

// Coordinate is a latitude/longitude pair in degrees
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Coordinate returns the position of the fix
func (p LivePosition) Coordinate() Coordinate {
	return Coordinate{Latitude: p.Latitude, Longitude: p.Longitude}
}

// ArrivalStatus classifies an estimated arrival against the schedule
type ArrivalStatus string

const (
	ArrivalOnSchedule ArrivalStatus = "On Schedule"
	ArrivalEarly      ArrivalStatus = "Early"
	ArrivalDelayed    ArrivalStatus = "Delayed"
)

// ETAEstimate is a dead-reckoning arrival estimate. At most one of
// MinutesEarly and MinutesLate is set, and neither is set when on schedule.
type ETAEstimate struct {
	EstimatedArrival time.Time
	Status           ArrivalStatus
	MinutesEarly     *int
	MinutesLate      *int
}

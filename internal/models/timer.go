package models

import "time"

// DefaultBerth is used until the cruise line publishes a berth assignment
const DefaultBerth = "TBD"

// DefaultStatus is the display status of a freshly created timer
const DefaultStatus = "On Schedule"

// ForecastHour is one entry of a short-range forecast
type ForecastHour struct {
	Time      string `json:"time"` // e.g. "+1h"
	Temp      int    `json:"temp"`
	Condition string `json:"condition"`
}

// WeatherSnapshot is the weather shown alongside a timer. The core never inspects it.
type WeatherSnapshot struct {
	Temp      int            `json:"temp"`
	Condition string         `json:"condition"`
	Icon      string         `json:"icon"`
	Forecast  []ForecastHour `json:"forecast,omitempty"`
}

// DefaultWeather is substituted when a stored snapshot cannot be decoded
func DefaultWeather() WeatherSnapshot {
	return WeatherSnapshot{Temp: 82, Condition: "Sunny", Icon: "sun.max.fill"}
}

// Timer is a user-facing countdown tied to one upcoming departure
type Timer struct {
	ID                 string          `json:"id" validate:"required,uuid"`
	ShipName           string          `json:"ship" validate:"required"`
	VesselID           string          `json:"mmsi" validate:"required,numeric,len=9"`
	TargetPort         string          `json:"port" validate:"required"`
	Berth              string          `json:"berth"`
	DepartureInstant   time.Time       `json:"departure" validate:"required"`
	EmbarkationInstant time.Time       `json:"embarkation_date" validate:"required"`
	Status             string          `json:"status"`
	Weather            WeatherSnapshot `json:"weather"`
	Itinerary          []PortStop      `json:"itinerary" validate:"dive"`
	CreatedAt          time.Time       `json:"created_at"`
	LastUpdated        time.Time       `json:"last_updated"`
}

// TimerEdit carries the user-editable fields of a timer. Nil fields are left alone.
type TimerEdit struct {
	ShipName  *string
	Port      *string
	Berth     *string
	Departure *time.Time
}

// Apply returns a copy of t with the edit applied. The itinerary is preserved.
func (e TimerEdit) Apply(t Timer) Timer {
	out := t
	if e.ShipName != nil {
		out.ShipName = *e.ShipName
	}
	if e.Port != nil {
		out.TargetPort = *e.Port
	}
	if e.Berth != nil {
		out.Berth = *e.Berth
	}
	if e.Departure != nil {
		out.DepartureInstant = *e.Departure
	}
	out.Itinerary = append([]PortStop(nil), t.Itinerary...)
	return out
}

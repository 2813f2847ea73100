package timers

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ngmaloney/portpal/internal/catalog"
	"github.com/ngmaloney/portpal/internal/models"
	"github.com/ngmaloney/portpal/internal/schedule"
	"github.com/ngmaloney/portpal/internal/travelstate"
)

// ErrNoRemainingDepartures is returned when every departure of the
// itinerary is already in the past
var ErrNoRemainingDepartures = errors.New("itinerary has no departures left")

var validate = validator.New()

// Validate checks a timer's struct tags
func Validate(t models.Timer) error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("invalid timer for %s: %w", t.TargetPort, err)
	}
	return nil
}

// CreateForItinerary fans an itinerary out into one timer per port
// departure still after now. The embarkation and return bookends never get
// a timer of their own.
func CreateForItinerary(ship catalog.Ship, itin models.Itinerary, embark, now time.Time) ([]models.Timer, error) {
	return fanOut(ship, itin.CopyStops(), embark, now)
}

// CreateInProgress is CreateForItinerary for a cruise already under way.
// The stop at currentIndex is marked Current and the embarkation date is
// worked back from it, so that stop falls on today.
func CreateInProgress(ship catalog.Ship, itin models.Itinerary, currentIndex int, now time.Time) ([]models.Timer, error) {
	stops, err := models.MarkCurrent(itin.Stops, currentIndex)
	if err != nil {
		return nil, err
	}
	embark := schedule.StartOfDay(now).AddDate(0, 0, -stops[currentIndex].DayOffset)
	return fanOut(ship, stops, embark, now)
}

func fanOut(ship catalog.Ship, stops []models.PortStop, embark, now time.Time) ([]models.Timer, error) {
	if err := travelstate.Validate(stops); err != nil {
		return nil, err
	}

	var out []models.Timer
	for _, stop := range stops[1 : len(stops)-1] {
		if stop.Status != models.StopDeparture {
			continue
		}
		departure, err := schedule.ResolveStop(stop, embark)
		if err != nil {
			return nil, err
		}
		if !departure.After(now) {
			continue
		}

		t := models.Timer{
			ID:                 uuid.NewString(),
			ShipName:           ship.Name,
			VesselID:           ship.MMSI,
			TargetPort:         stop.Port,
			Berth:              models.DefaultBerth,
			DepartureInstant:   departure,
			EmbarkationInstant: embark,
			Status:             models.DefaultStatus,
			Weather:            models.DefaultWeather(),
			Itinerary:          append([]models.PortStop(nil), stops...),
			CreatedAt:          now,
			LastUpdated:        now,
		}
		if err := Validate(t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}

	if len(out) == 0 {
		return nil, ErrNoRemainingDepartures
	}
	return out, nil
}

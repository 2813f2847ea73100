// Package timerstore persists timers keyed by their identity
package timerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ngmaloney/portpal/internal/models"
)

// ErrNotFound is returned when updating a timer that was never saved
var ErrNotFound = errors.New("timer not found")

// Store is a durable key-value store of timers. No multi-record
// transactional guarantees are made.
type Store interface {
	Save(ctx context.Context, t models.Timer) error
	LoadAll(ctx context.Context) ([]models.Timer, error)
	Update(ctx context.Context, t models.Timer) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

// record is the stored shape of a timer. Itinerary and weather are kept as
// opaque JSON so a bad blob only costs that field, not the whole timer.
type record struct {
	ID          string          `json:"id"`
	ShipName    string          `json:"ship_name"`
	VesselID    string          `json:"mmsi"`
	Port        string          `json:"port"`
	Berth       string          `json:"berth"`
	Departure   string          `json:"departure"`
	Embarkation string          `json:"embarkation"`
	Status      string          `json:"status"`
	Weather     json.RawMessage `json:"weather"`
	Itinerary   json.RawMessage `json:"itinerary"`
	CreatedAt   string          `json:"created_at"`
	LastUpdated string          `json:"last_updated"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string, loc *time.Location) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.In(loc)
}

func toRecord(t models.Timer) (record, error) {
	weather, err := json.Marshal(t.Weather)
	if err != nil {
		return record{}, fmt.Errorf("encoding weather: %w", err)
	}
	stops := t.Itinerary
	if stops == nil {
		stops = []models.PortStop{}
	}
	itinerary, err := json.Marshal(stops)
	if err != nil {
		return record{}, fmt.Errorf("encoding itinerary: %w", err)
	}
	return record{
		ID:          t.ID,
		ShipName:    t.ShipName,
		VesselID:    t.VesselID,
		Port:        t.TargetPort,
		Berth:       t.Berth,
		Departure:   formatTime(t.DepartureInstant),
		Embarkation: formatTime(t.EmbarkationInstant),
		Status:      t.Status,
		Weather:     weather,
		Itinerary:   itinerary,
		CreatedAt:   formatTime(t.CreatedAt),
		LastUpdated: formatTime(t.LastUpdated),
	}, nil
}

// timer decodes a record, substituting defaults for undecodable blobs
func (r record) timer(loc *time.Location) models.Timer {
	t := models.Timer{
		ID:                 r.ID,
		ShipName:           r.ShipName,
		VesselID:           r.VesselID,
		TargetPort:         r.Port,
		Berth:              r.Berth,
		DepartureInstant:   parseTime(r.Departure, loc),
		EmbarkationInstant: parseTime(r.Embarkation, loc),
		Status:             r.Status,
		CreatedAt:          parseTime(r.CreatedAt, loc),
		LastUpdated:        parseTime(r.LastUpdated, loc),
	}

	if err := json.Unmarshal(r.Weather, &t.Weather); err != nil || len(r.Weather) == 0 {
		t.Weather = models.DefaultWeather()
	}
	if err := json.Unmarshal(r.Itinerary, &t.Itinerary); err != nil {
		log.Warnf("Discarding unreadable itinerary for timer %s: %v", r.ID, err)
		t.Itinerary = []models.PortStop{}
	}
	if t.Berth == "" {
		t.Berth = models.DefaultBerth
	}
	return t
}

func sortByDeparture(timers []models.Timer) {
	sort.SliceStable(timers, func(i, j int) bool {
		if timers[i].DepartureInstant.Equal(timers[j].DepartureInstant) {
			return timers[i].ID < timers[j].ID
		}
		return timers[i].DepartureInstant.Before(timers[j].DepartureInstant)
	})
}

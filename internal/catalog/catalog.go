// Package catalog holds the built-in cruise lines, ships and itineraries
package catalog

import (
	"fmt"
	"strings"

	"github.com/ngmaloney/portpal/internal/models"
)

// CruiseLine groups ships sold under one brand
type CruiseLine struct {
	ID    string
	Name  string
	Ships []Ship
}

// Ship is a vessel with the itineraries it sails
type Ship struct {
	ID          string
	Name        string
	MMSI        string
	HomePort    string
	Itineraries []models.Itinerary
}

// stopRow is a stop as written in the brochure
type stopRow struct {
	port, day, time, status string
}

func itinerary(id, name string, days int, embark, ret string, rows ...stopRow) models.Itinerary {
	stops := make([]models.PortStop, 0, len(rows))
	for _, r := range rows {
		stop, err := models.NewPortStop(r.port, r.day, r.time, r.status)
		if err != nil {
			panic(fmt.Sprintf("catalog itinerary %s: %v", id, err))
		}
		stops = append(stops, stop)
	}
	return models.Itinerary{
		ID:              id,
		Name:            name,
		DurationDays:    days,
		EmbarkationPort: embark,
		ReturnPort:      ret,
		Stops:           stops,
	}
}

var lines = []CruiseLine{
	{
		ID:   "rcl-live",
		Name: "Royal Caribbean (LIVE DATA)",
		Ships: []Ship{
			{
				ID:       "symphony-live",
				Name:     "Symphony of the Seas",
				MMSI:     "319326000",
				HomePort: "Miami",
				Itineraries: []models.Itinerary{
					itinerary("symphony-current", "7-Day Eastern Caribbean (LIVE)", 7, "Miami", "Miami",
						stopRow{"Miami", "Day 0", "16:00", "Embarkation"},
						stopRow{"Cozumel", "Day 2", "08:00", "Arrival"},
						stopRow{"Cozumel", "Day 2", "18:00", "Departure"},
						stopRow{"San Juan", "Day 4", "13:00", "Arrival"},
						stopRow{"San Juan", "Day 4", "21:00", "Departure"},
						stopRow{"St. Maarten", "Day 5", "08:00", "Arrival"},
						stopRow{"St. Maarten", "Day 5", "17:00", "Departure"},
						stopRow{"Miami", "Day 7", "06:00", "Return"},
					),
				},
			},
			{
				ID:       "oasis-live",
				Name:     "Oasis of the Seas",
				MMSI:     "311000274",
				HomePort: "Port Canaveral",
				Itineraries: []models.Itinerary{
					itinerary("oasis-current", "7-Day Western Caribbean (LIVE)", 7, "Port Canaveral", "Port Canaveral",
						stopRow{"Port Canaveral", "Day 0", "16:30", "Embarkation"},
						stopRow{"Cozumel", "Day 2", "09:00", "Arrival"},
						stopRow{"Cozumel", "Day 2", "19:00", "Departure"},
						stopRow{"Roatan", "Day 3", "07:00", "Arrival"},
						stopRow{"Roatan", "Day 3", "16:00", "Departure"},
						stopRow{"Costa Maya", "Day 4", "10:00", "Arrival"},
						stopRow{"Costa Maya", "Day 4", "18:00", "Departure"},
						stopRow{"Port Canaveral", "Day 7", "07:00", "Return"},
					),
				},
			},
		},
	},
}

// CruiseLines returns every cruise line in the catalog
func CruiseLines() []CruiseLine {
	return lines
}

// Ships lists every ship across all lines
func Ships() []Ship {
	var out []Ship
	for _, l := range lines {
		out = append(out, l.Ships...)
	}
	return out
}

// FindShip looks a ship up by catalog id, MMSI or case-insensitive name
func FindShip(key string) (Ship, bool) {
	for _, s := range Ships() {
		if s.ID == key || s.MMSI == key || strings.EqualFold(s.Name, key) {
			return s, true
		}
	}
	return Ship{}, false
}

// FindItinerary looks up an itinerary by id on a ship; an empty id picks the first one
func (s Ship) FindItinerary(id string) (models.Itinerary, bool) {
	for _, it := range s.Itineraries {
		if id == "" || it.ID == id {
			return it, true
		}
	}
	return models.Itinerary{}, false
}

// Ports lists the distinct port names used by any itinerary
func Ports() []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range Ships() {
		for _, it := range s.Itineraries {
			for _, stop := range it.Stops {
				if !seen[stop.Port] {
					seen[stop.Port] = true
					out = append(out, stop.Port)
				}
			}
		}
	}
	return out
}

package catalog

import (
	"testing"
	"time"

	"github.com/ngmaloney/portpal/internal/models"
	"github.com/ngmaloney/portpal/internal/travelstate"
)

func TestCatalogItinerariesAreWellFormed(t *testing.T) {
	embark := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)

	for _, ship := range Ships() {
		for _, it := range ship.Itineraries {
			t.Run(it.ID, func(t *testing.T) {
				if err := travelstate.Validate(it.Stops); err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				if it.Stops[0].Port != it.EmbarkationPort {
					t.Errorf("first stop %s, embarkation port %s", it.Stops[0].Port, it.EmbarkationPort)
				}
				if last := it.Stops[len(it.Stops)-1]; last.Port != it.ReturnPort || last.DayOffset != it.DurationDays {
					t.Errorf("last stop %+v does not match return %s on day %d", last, it.ReturnPort, it.DurationDays)
				}
				// every hour of the voyage evaluates without hitting the fallback
				for now := embark.Add(-24 * time.Hour); now.Before(embark.AddDate(0, 0, it.DurationDays+1)); now = now.Add(time.Hour) {
					res, err := travelstate.Evaluate(travelstate.Input{Stops: it.Stops, Embarkation: embark, Now: now})
					if err != nil {
						t.Fatalf("Evaluate() error = %v", err)
					}
					if res.Fallback {
						t.Fatalf("Evaluate() at %v fell through every rule", now)
					}
				}
			})
		}
	}
}

func TestFindShip(t *testing.T) {
	tests := []struct {
		key      string
		wantName string
		wantOK   bool
	}{
		{"symphony-live", "Symphony of the Seas", true},
		{"311000274", "Oasis of the Seas", true},
		{"oasis of the seas", "Oasis of the Seas", true},
		{"Wonder of the Seas", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			ship, ok := FindShip(tt.key)
			if ok != tt.wantOK {
				t.Fatalf("FindShip(%q) ok = %v, want %v", tt.key, ok, tt.wantOK)
			}
			if ship.Name != tt.wantName {
				t.Errorf("FindShip(%q) = %q, want %q", tt.key, ship.Name, tt.wantName)
			}
		})
	}
}

func TestFindItinerary(t *testing.T) {
	ship, _ := FindShip("symphony-live")

	it, ok := ship.FindItinerary("")
	if !ok || it.ID != "symphony-current" {
		t.Errorf("FindItinerary(\"\") = %q, %v", it.ID, ok)
	}
	if it.Stops[1].Status != models.StopArrival || it.Stops[1].Time != (models.TimeOfDay{Hour: 8}) {
		t.Errorf("Cozumel arrival parsed as %+v", it.Stops[1])
	}
	if _, ok := ship.FindItinerary("nope"); ok {
		t.Error("FindItinerary() found an unknown id")
	}
}

func TestPorts(t *testing.T) {
	ports := Ports()
	want := map[string]bool{"Miami": true, "Cozumel": true, "Roatan": true, "Port Canaveral": true}
	found := 0
	for _, p := range ports {
		if want[p] {
			found++
		}
	}
	if found != len(want) {
		t.Errorf("Ports() = %v, missing some of %v", ports, want)
	}
}

package timers

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ngmaloney/portpal/internal/catalog"
	"github.com/ngmaloney/portpal/internal/models"
	"github.com/ngmaloney/portpal/internal/travelstate"
)

var embark = time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)

func at(day, hour, minute int) time.Time {
	return time.Date(2025, 3, 8+day, hour, minute, 0, 0, time.UTC)
}

func symphony(t *testing.T) (catalog.Ship, models.Itinerary) {
	t.Helper()
	ship, ok := catalog.FindShip("symphony-live")
	if !ok {
		t.Fatal("symphony-live missing from catalog")
	}
	itin, ok := ship.FindItinerary("symphony-current")
	if !ok {
		t.Fatal("symphony-current missing from catalog")
	}
	return ship, itin
}

func TestCreateForItinerary(t *testing.T) {
	ship, itin := symphony(t)

	tests := []struct {
		name      string
		now       time.Time
		wantPorts []string
		wantTimes []time.Time
		wantErr   error
	}{
		{
			name:      "before sailing",
			now:       at(-7, 12, 0),
			wantPorts: []string{"Cozumel", "San Juan", "St. Maarten"},
			wantTimes: []time.Time{at(2, 18, 0), at(4, 21, 0), at(5, 17, 0)},
		},
		{
			name:      "past departures dropped",
			now:       at(4, 12, 0),
			wantPorts: []string{"San Juan", "St. Maarten"},
			wantTimes: []time.Time{at(4, 21, 0), at(5, 17, 0)},
		},
		{
			name:      "departure instant itself is past",
			now:       at(2, 18, 0),
			wantPorts: []string{"San Juan", "St. Maarten"},
			wantTimes: []time.Time{at(4, 21, 0), at(5, 17, 0)},
		},
		{
			name:    "voyage over",
			now:     at(6, 0, 0),
			wantErr: ErrNoRemainingDepartures,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CreateForItinerary(ship, itin, embark, tt.now)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("CreateForItinerary() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateForItinerary() error = %v", err)
			}
			if len(got) != len(tt.wantPorts) {
				t.Fatalf("CreateForItinerary() created %d timers, want %d", len(got), len(tt.wantPorts))
			}

			seen := map[string]bool{}
			for i, timer := range got {
				if timer.TargetPort != tt.wantPorts[i] {
					t.Errorf("timer[%d].TargetPort = %s, want %s", i, timer.TargetPort, tt.wantPorts[i])
				}
				if !timer.DepartureInstant.Equal(tt.wantTimes[i]) {
					t.Errorf("timer[%d].DepartureInstant = %v, want %v", i, timer.DepartureInstant, tt.wantTimes[i])
				}
				if _, err := uuid.Parse(timer.ID); err != nil || seen[timer.ID] {
					t.Errorf("timer[%d].ID = %q is not a fresh uuid", i, timer.ID)
				}
				seen[timer.ID] = true
				if timer.Berth != models.DefaultBerth || timer.VesselID != "319326000" {
					t.Errorf("timer[%d] = berth %q vessel %q", i, timer.Berth, timer.VesselID)
				}
				if len(timer.Itinerary) != len(itin.Stops) {
					t.Errorf("timer[%d] carries %d stops, want the full itinerary", i, len(timer.Itinerary))
				}
			}
		})
	}
}

func TestCreateForItinerary_TimersShareNoStops(t *testing.T) {
	ship, itin := symphony(t)
	got, err := CreateForItinerary(ship, itin, embark, at(-1, 0, 0))
	if err != nil {
		t.Fatalf("CreateForItinerary() error = %v", err)
	}

	got[0].Itinerary[1].Port = "Atlantis"
	if got[1].Itinerary[1].Port == "Atlantis" || itin.Stops[1].Port == "Atlantis" {
		t.Error("timers share a backing itinerary")
	}
}

func TestCreateForItinerary_RejectsBrokenItinerary(t *testing.T) {
	ship, itin := symphony(t)
	itin.Stops = itin.Stops[:len(itin.Stops)-1]

	_, err := CreateForItinerary(ship, itin, embark, at(-1, 0, 0))
	if !errors.Is(err, travelstate.ErrMissingReturn) {
		t.Errorf("CreateForItinerary() error = %v, want ErrMissingReturn", err)
	}
}

func TestCreateInProgress(t *testing.T) {
	ship, itin := symphony(t)

	// ashore in San Juan (Day 4) on the morning of 12 March
	now := time.Date(2025, 3, 12, 14, 30, 0, 0, time.UTC)
	got, err := CreateInProgress(ship, itin, 3, now)
	if err != nil {
		t.Fatalf("CreateInProgress() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("CreateInProgress() created %d timers, want 2", len(got))
	}
	for _, timer := range got {
		if !timer.EmbarkationInstant.Equal(embark) {
			t.Errorf("EmbarkationInstant = %v, want %v", timer.EmbarkationInstant, embark)
		}
		if timer.Itinerary[3].Status != models.StopCurrent {
			t.Errorf("stop 3 status = %s, want Current", timer.Itinerary[3].Status)
		}
	}
	if itin.Stops[3].Status != models.StopArrival {
		t.Error("catalog itinerary was modified")
	}
	if got[0].TargetPort != "San Juan" || !got[0].DepartureInstant.Equal(at(4, 21, 0)) {
		t.Errorf("first timer = %s at %v", got[0].TargetPort, got[0].DepartureInstant)
	}
}

func TestCreateInProgress_NotAnArrival(t *testing.T) {
	ship, itin := symphony(t)
	if _, err := CreateInProgress(ship, itin, 2, at(2, 12, 0)); err == nil {
		t.Error("CreateInProgress() on a departure stop should fail")
	}
	if _, err := CreateInProgress(ship, itin, 42, at(2, 12, 0)); err == nil {
		t.Error("CreateInProgress() out of range should fail")
	}
}

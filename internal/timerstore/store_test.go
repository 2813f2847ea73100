package timerstore

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/ngmaloney/portpal/internal/database"
	"github.com/ngmaloney/portpal/internal/models"
)

func sampleTimer(id, port string, departure time.Time) models.Timer {
	embark := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)
	return models.Timer{
		ID:                 id,
		ShipName:           "Symphony of the Seas",
		VesselID:           "319326000",
		TargetPort:         port,
		Berth:              models.DefaultBerth,
		DepartureInstant:   departure,
		EmbarkationInstant: embark,
		Status:             models.DefaultStatus,
		Weather:            models.WeatherSnapshot{Temp: 84, Condition: "Partly Cloudy", Icon: "cloud.sun.fill"},
		Itinerary: []models.PortStop{
			{Port: "Miami", DayOffset: 0, Time: models.TimeOfDay{Hour: 16}, Status: models.StopEmbarkation},
			{Port: port, DayOffset: 2, Time: models.TimeOfDay{Hour: 8}, Status: models.StopArrival},
			{Port: port, DayOffset: 2, Time: models.TimeOfDay{Hour: 18}, Status: models.StopDeparture},
			{Port: "Miami", DayOffset: 7, Time: models.TimeOfDay{Hour: 6}, Status: models.StopReturn},
		},
		CreatedAt:   embark,
		LastUpdated: embark,
	}
}

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLiteStore(db, time.UTC)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	return store
}

// exerciseStore runs the persistence contract against any implementation
func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()
	cozumel := sampleTimer("7f1c2f8e-5a0e-4a55-9a57-0f3b8e0c1a01", "Cozumel", time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC))
	sanJuan := sampleTimer("7f1c2f8e-5a0e-4a55-9a57-0f3b8e0c1a02", "San Juan", time.Date(2025, 3, 12, 21, 0, 0, 0, time.UTC))

	t.Run("save and load", func(t *testing.T) {
		if err := store.Save(ctx, sanJuan); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if err := store.Save(ctx, cozumel); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := store.LoadAll(ctx)
		if err != nil {
			t.Fatalf("LoadAll() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("LoadAll() returned %d timers, want 2", len(got))
		}
		if got[0].ID != cozumel.ID {
			t.Errorf("LoadAll() not ordered by departure: first is %s", got[0].TargetPort)
		}
		first := got[0]
		if !first.DepartureInstant.Equal(cozumel.DepartureInstant) || !first.EmbarkationInstant.Equal(cozumel.EmbarkationInstant) {
			t.Errorf("instants = %v / %v", first.DepartureInstant, first.EmbarkationInstant)
		}
		if first.Weather.Temp != cozumel.Weather.Temp || first.Weather.Condition != cozumel.Weather.Condition {
			t.Errorf("Weather = %+v, want %+v", first.Weather, cozumel.Weather)
		}
		if len(first.Itinerary) != 4 || first.Itinerary[2] != cozumel.Itinerary[2] {
			t.Errorf("Itinerary = %+v", first.Itinerary)
		}
	})

	t.Run("save twice keeps one record", func(t *testing.T) {
		if err := store.Save(ctx, cozumel); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		got, _ := store.LoadAll(ctx)
		if len(got) != 2 {
			t.Errorf("LoadAll() returned %d timers after re-save, want 2", len(got))
		}
	})

	t.Run("update", func(t *testing.T) {
		berth := "Pier 3"
		edited := models.TimerEdit{Berth: &berth}.Apply(cozumel)
		if err := store.Update(ctx, edited); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		got, _ := store.LoadAll(ctx)
		if got[0].Berth != "Pier 3" {
			t.Errorf("Berth = %q after update", got[0].Berth)
		}

		missing := sampleTimer("00000000-0000-4000-8000-000000000000", "Nassau", time.Now())
		if err := store.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
			t.Errorf("Update() of unknown timer error = %v, want ErrNotFound", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := store.Delete(ctx, cozumel.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if err := store.Delete(ctx, cozumel.ID); err != nil {
			t.Errorf("Delete() of already deleted timer error = %v", err)
		}
		got, _ := store.LoadAll(ctx)
		if len(got) != 1 || got[0].ID != sanJuan.ID {
			t.Errorf("LoadAll() after delete = %+v", got)
		}
	})

	t.Run("delete all", func(t *testing.T) {
		if err := store.DeleteAll(ctx); err != nil {
			t.Fatalf("DeleteAll() error = %v", err)
		}
		got, err := store.LoadAll(ctx)
		if err != nil {
			t.Fatalf("LoadAll() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("LoadAll() after DeleteAll returned %d timers", len(got))
		}
	})
}

func TestSQLiteStore(t *testing.T) {
	exerciseStore(t, newSQLiteStore(t))
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("PORTPAL_REDIS_ADDR")
	if addr == "" {
		t.Skip("PORTPAL_REDIS_ADDR not set")
	}
	ctx := context.Background()
	store, err := NewRedisStore(ctx, RedisSettings{Addr: addr, Prefix: "portpal-test"}, time.UTC)
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	defer store.Close()
	if err := store.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}

	exerciseStore(t, store)
}

func TestRedisStore_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := NewRedisStore(ctx, RedisSettings{Addr: addr}, time.UTC); err == nil {
		t.Error("NewRedisStore() connected to a closed port")
	}
}

func TestRedisStore_KeysAndEncoding(t *testing.T) {
	store := &RedisStore{prefix: "portpal-test", loc: time.UTC}
	timer := sampleTimer("7f1c2f8e-5a0e-4a55-9a57-0f3b8e0c1a03", "Roatan", time.Date(2025, 3, 11, 16, 0, 0, 0, time.UTC))

	if got := store.timerKey(timer.ID); got != "portpal-test:timer:"+timer.ID {
		t.Errorf("timerKey() = %q", got)
	}
	if got := store.indexKey(); got != "portpal-test:timers" {
		t.Errorf("indexKey() = %q", got)
	}

	value, err := store.encode(timer)
	if err != nil {
		t.Fatalf("encode() error = %v", err)
	}
	var r record
	if err := json.Unmarshal(value, &r); err != nil {
		t.Fatalf("stored value is not JSON: %v", err)
	}
	got := r.timer(time.UTC)
	if got.TargetPort != "Roatan" || len(got.Itinerary) != 4 || !got.DepartureInstant.Equal(timer.DepartureInstant) {
		t.Errorf("decoded timer = %+v", got)
	}
}

func TestSQLiteStore_UnreadableBlobsFallBackToDefaults(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	_, err := store.db.Exec(`INSERT INTO timers (id, ship_name, mmsi, port, berth, departure, embarkation, status, weather, itinerary)
		VALUES ('broken', 'Oasis of the Seas', '311000274', 'Roatan', NULL, '2025-03-11T16:00:00Z', '2025-03-08T00:00:00Z', 'On Schedule', '{oops', 'not json')`)
	if err != nil {
		t.Fatalf("insert error = %v", err)
	}

	got, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("LoadAll() returned %d timers, want 1", len(got))
	}
	timer := got[0]
	if timer.Weather.Condition != models.DefaultWeather().Condition || timer.Weather.Temp != 82 {
		t.Errorf("Weather = %+v, want default", timer.Weather)
	}
	if timer.Itinerary == nil || len(timer.Itinerary) != 0 {
		t.Errorf("Itinerary = %#v, want empty", timer.Itinerary)
	}
	if timer.Berth != models.DefaultBerth {
		t.Errorf("Berth = %q, want %q", timer.Berth, models.DefaultBerth)
	}
	want := time.Date(2025, 3, 11, 16, 0, 0, 0, time.UTC)
	if !timer.DepartureInstant.Equal(want) {
		t.Errorf("DepartureInstant = %v, want %v", timer.DepartureInstant, want)
	}
}

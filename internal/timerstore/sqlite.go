package timerstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ngmaloney/portpal/internal/database"
	"github.com/ngmaloney/portpal/internal/models"
)

// SQLiteStore keeps timers in the timers table of the shared database
type SQLiteStore struct {
	db  *sql.DB
	loc *time.Location
}

// NewSQLiteStore wraps an open database, creating the schema if needed.
// Instants are returned in loc (time.Local when nil).
func NewSQLiteStore(db *sql.DB, loc *time.Location) (*SQLiteStore, error) {
	if err := database.EnsureSchema(db); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.Local
	}
	return &SQLiteStore{db: db, loc: loc}, nil
}

// Save inserts the timer, replacing any row with the same id
func (s *SQLiteStore) Save(ctx context.Context, t models.Timer) error {
	r, err := toRecord(t)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO timers (id, ship_name, mmsi, port, berth, departure, embarkation, status, weather, itinerary, created_at, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ship_name = excluded.ship_name,
			mmsi = excluded.mmsi,
			port = excluded.port,
			berth = excluded.berth,
			departure = excluded.departure,
			embarkation = excluded.embarkation,
			status = excluded.status,
			weather = excluded.weather,
			itinerary = excluded.itinerary,
			last_updated = excluded.last_updated
	`
	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.ShipName, r.VesselID, r.Port, r.Berth,
		r.Departure, r.Embarkation, r.Status,
		string(r.Weather), string(r.Itinerary),
		r.CreatedAt, r.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("saving timer: %w", err)
	}
	return nil
}

// LoadAll returns every stored timer ordered by departure
func (s *SQLiteStore) LoadAll(ctx context.Context) ([]models.Timer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ship_name, mmsi, port, berth, departure, embarkation, status, weather, itinerary, created_at, last_updated
		FROM timers`)
	if err != nil {
		return nil, fmt.Errorf("querying timers: %w", err)
	}
	defer rows.Close()

	var timers []models.Timer
	for rows.Next() {
		var r record
		var berth, status, weather, itinerary, created, updated sql.NullString
		if err := rows.Scan(&r.ID, &r.ShipName, &r.VesselID, &r.Port, &berth,
			&r.Departure, &r.Embarkation, &status, &weather, &itinerary, &created, &updated); err != nil {
			return nil, fmt.Errorf("scanning timer: %w", err)
		}
		r.Berth = berth.String
		r.Status = status.String
		r.Weather = []byte(weather.String)
		r.Itinerary = []byte(itinerary.String)
		r.CreatedAt = created.String
		r.LastUpdated = updated.String
		timers = append(timers, r.timer(s.loc))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading timers: %w", err)
	}
	sortByDeparture(timers)
	return timers, nil
}

// Update overwrites an existing timer
func (s *SQLiteStore) Update(ctx context.Context, t models.Timer) error {
	r, err := toRecord(t)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE timers SET ship_name = ?, mmsi = ?, port = ?, berth = ?, departure = ?, embarkation = ?,
			status = ?, weather = ?, itinerary = ?, last_updated = ?
		WHERE id = ?`,
		r.ShipName, r.VesselID, r.Port, r.Berth, r.Departure, r.Embarkation,
		r.Status, string(r.Weather), string(r.Itinerary), r.LastUpdated, r.ID,
	)
	if err != nil {
		return fmt.Errorf("updating timer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating timer: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, t.ID)
	}
	return nil
}

// Delete removes a timer by id. Deleting an unknown id is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM timers WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting timer: %w", err)
	}
	return nil
}

// DeleteAll removes every timer
func (s *SQLiteStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM timers"); err != nil {
		return fmt.Errorf("deleting timers: %w", err)
	}
	return nil
}

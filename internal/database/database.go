package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DBPath returns the path to the single shared database
func DBPath() string {
	return filepath.Join("data", "portpal.db")
}

// Open opens (creating if needed) the database at dbPath and ensures the schema exists
func Open(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Set pragmas for performance
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA synchronous=NORMAL")

	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenMemory opens a private in-memory database with the schema applied
func OpenMemory() (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the timers and port_index tables if they are missing.
// Safe to call repeatedly; existing rows are kept. Timer instants are stored
// as RFC 3339 text in UTC.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS timers (
			id TEXT PRIMARY KEY,
			ship_name TEXT NOT NULL,
			mmsi TEXT NOT NULL,
			port TEXT NOT NULL,
			berth TEXT,
			departure TEXT NOT NULL,
			embarkation TEXT NOT NULL,
			status TEXT,
			weather TEXT,
			itinerary TEXT,
			created_at TEXT,
			last_updated TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_timers_departure ON timers(departure);
	`)
	if err != nil {
		return fmt.Errorf("creating timers table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS port_index (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			country TEXT,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_port_index_name ON port_index(name COLLATE NOCASE);
		CREATE INDEX IF NOT EXISTS idx_port_index_coords ON port_index(latitude, longitude);
	`)
	if err != nil {
		return fmt.Errorf("creating port_index table: %w", err)
	}

	return nil
}

// TableExists reports whether the named table has been created
func TableExists(db *sql.DB, name string) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking for %s table: %w", name, err)
	}
	return count > 0, nil
}

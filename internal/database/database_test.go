package database

import (
	"path/filepath"
	"testing"
)

func TestDBPath(t *testing.T) {
	expected := filepath.Join("data", "portpal.db")
	if got := DBPath(); got != expected {
		t.Errorf("DBPath() = %v, want %v", got, expected)
	}
}

func TestOpenCreatesDirectoryAndTables(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "portpal.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	for _, table := range []string{"timers", "port_index"} {
		ok, err := TableExists(db, table)
		if err != nil {
			t.Fatalf("TableExists(%s) error = %v", table, err)
		}
		if !ok {
			t.Errorf("table %s was not created", table)
		}
	}
}

func TestOpenMemory(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	defer db.Close()

	ok, err := TableExists(db, "timers")
	if err != nil || !ok {
		t.Errorf("TableExists(timers) = %v, %v", ok, err)
	}
	ok, _ = TableExists(db, "voyages")
	if ok {
		t.Error("TableExists() reported a table that was never created")
	}
}

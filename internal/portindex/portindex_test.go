package portindex

import (
	"archive/zip"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"

	"github.com/ngmaloney/portpal/internal/database"
	"github.com/ngmaloney/portpal/internal/geo"
)

func openSeeded(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := ProvisionDB(db, ""); err != nil {
		t.Fatalf("ProvisionDB() error = %v", err)
	}
	return db
}

// writePoints creates a World Port Index style point shapefile and returns its .shp path
func writePoints(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "wpi.shp")
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		t.Fatalf("shp.Create() error = %v", err)
	}
	if err := w.SetFields([]shp.Field{
		shp.StringField("PORT_NAME", 40),
		shp.StringField("COUNTRY", 4),
	}); err != nil {
		t.Fatalf("SetFields() error = %v", err)
	}

	ports := []struct {
		name, country string
		lat, lon      float64
	}{
		{"Bridgetown", "BB", 13.1027, -59.6321},
		{"Castries", "LC", 14.0131, -60.9926},
		{"Falmouth", "JM", 18.4934, -77.6548},
	}
	for _, p := range ports {
		row := w.Write(&shp.Point{X: p.lon, Y: p.lat})
		w.WriteAttribute(int(row), 0, p.name)
		w.WriteAttribute(int(row), 1, p.country)
	}
	w.Close()

	// go-shp drops the dot when naming the attribute table
	base := filepath.Join(dir, "wpi")
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		t.Fatalf("renaming dbf: %v", err)
	}
	return path
}

func zipShapefile(t *testing.T, shpPath string) string {
	t.Helper()
	dir := filepath.Dir(shpPath)
	zipPath := filepath.Join(dir, "wpi.zip")
	out, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("creating zip: %v", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		src, err := os.Open(filepath.Join(dir, "wpi"+ext))
		if err != nil {
			t.Fatalf("opening %s: %v", ext, err)
		}
		dst, err := zw.Create("wpi/wpi" + ext)
		if err != nil {
			t.Fatalf("adding %s: %v", ext, err)
		}
		if _, err := io.Copy(dst, src); err != nil {
			t.Fatalf("copying %s: %v", ext, err)
		}
		src.Close()
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return zipPath
}

func TestLookup(t *testing.T) {
	db := openSeeded(t)

	tests := []struct {
		name    string
		query   string
		want    string
		wantErr bool
	}{
		{"exact", "Cozumel", "Cozumel", false},
		{"case insensitive", "port canaveral", "Port Canaveral", false},
		{"with region suffix", "San Juan, Puerto Rico", "San Juan", false},
		{"unknown", "Atlantis", "", true},
		{"empty", "  ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lookup(db, tt.query)
			if tt.wantErr {
				if !errors.Is(err, ErrPortNotFound) {
					t.Errorf("Lookup(%q) error = %v, want ErrPortNotFound", tt.query, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup(%q) error = %v", tt.query, err)
			}
			if got.Name != tt.want {
				t.Errorf("Lookup(%q) = %s, want %s", tt.query, got.Name, tt.want)
			}
		})
	}
}

func TestDestination_FallsBackToMiami(t *testing.T) {
	db := openSeeded(t)

	if got := Destination(db, "Atlantis"); got != Miami {
		t.Errorf("Destination(unknown) = %+v, want Miami", got)
	}
	if got := Destination(nil, "Cozumel"); got != Miami {
		t.Errorf("Destination(nil db) = %+v, want Miami", got)
	}
	got := Destination(db, "Roatan")
	if got.Latitude < 16 || got.Latitude > 17 {
		t.Errorf("Destination(Roatan) = %+v", got)
	}
}

func TestNearest(t *testing.T) {
	db := openSeeded(t)

	tests := []struct {
		name      string
		lat, lon  float64
		maxDist   float64
		wantFirst string
		wantNone  bool
	}{
		{"off Miami", 25.70, -80.05, 50, "Miami", false},
		{"off Cozumel picks closest", 20.40, -87.00, 200, "Cozumel", false},
		{"mid Atlantic", 30.0, -40.0, 100, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ports, err := Nearest(db, tt.lat, tt.lon, tt.maxDist)
			if err != nil {
				t.Fatalf("Nearest() error = %v", err)
			}
			if tt.wantNone {
				if len(ports) != 0 {
					t.Errorf("Nearest() = %d ports, want none", len(ports))
				}
				return
			}
			if len(ports) == 0 {
				t.Fatalf("Nearest() returned no ports")
			}
			if ports[0].Name != tt.wantFirst {
				t.Errorf("Nearest()[0] = %s, want %s", ports[0].Name, tt.wantFirst)
			}
			for i := 1; i < len(ports); i++ {
				if ports[i].Distance < ports[i-1].Distance {
					t.Errorf("Nearest() not sorted by distance")
				}
			}
		})
	}
}

func TestProvision_IsIdempotent(t *testing.T) {
	db := openSeeded(t)
	if err := ProvisionDB(db, ""); err != nil {
		t.Fatalf("second ProvisionDB() error = %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM port_index").Scan(&count)
	if count != len(seedPorts) {
		t.Errorf("port_index has %d rows, want %d", count, len(seedPorts))
	}
}

func TestProvision_FromShapefile(t *testing.T) {
	dir := t.TempDir()
	shpPath := writePoints(t, dir)

	tests := []struct {
		name string
		path string
	}{
		{"shapefile", shpPath},
		{"zip archive", zipShapefile(t, shpPath)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := filepath.Join(t.TempDir(), "ports.db")
			if err := Provision(dbPath, tt.path); err != nil {
				t.Fatalf("Provision() error = %v", err)
			}

			db, err := database.Open(dbPath)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer db.Close()

			var count int
			if err := db.QueryRow("SELECT COUNT(*) FROM port_index").Scan(&count); err != nil {
				t.Fatalf("counting ports: %v", err)
			}
			if count != 3 {
				t.Errorf("port_index has %d rows, want 3", count)
			}
			for _, name := range []string{"Bridgetown", "Falmouth"} {
				if _, err := Lookup(db, name); err != nil {
					t.Errorf("Lookup(%s) error = %v", name, err)
				}
			}

			port, err := Lookup(db, "Castries")
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if port.Country != "LC" {
				t.Errorf("Country = %q, want LC", port.Country)
			}
			// points are X=lon, Y=lat; a swap would land this in Antarctica
			if d := geo.HaversineMiles(port.Location.Latitude, port.Location.Longitude, 14.0131, -60.9926); d > 1 {
				t.Errorf("Castries indexed %.1f miles off: %+v", d, port.Location)
			}
			if _, err := Lookup(db, "Miami"); !errors.Is(err, ErrPortNotFound) {
				t.Errorf("seed ports should not be added when a shapefile is given, got %v", err)
			}
		})
	}
}

func TestProvision_MissingShapefile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ports.db")
	if err := Provision(dbPath, filepath.Join(t.TempDir(), "nope.shp")); err == nil {
		t.Error("Provision() with a missing shapefile should fail")
	}
}

package portindex

import (
	"archive/zip"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	log "github.com/sirupsen/logrus"

	"github.com/ngmaloney/portpal/internal/database"
)

// seedPorts covers every port the built-in catalog sails to, so ETA
// destinations resolve without a World Port Index download
var seedPorts = []struct {
	name, country string
	lat, lon      float64
}{
	{"Miami", "US", 25.7617, -80.1918},
	{"Port Canaveral", "US", 28.4101, -80.6188},
	{"Cozumel", "MX", 20.5083, -86.9458},
	{"Costa Maya", "MX", 18.7144, -87.7092},
	{"Roatan", "HN", 16.3298, -86.5300},
	{"San Juan", "PR", 18.4655, -66.1057},
	{"St. Maarten", "SX", 18.0237, -63.0458},
	{"Nassau", "BS", 25.0780, -77.3431},
	{"Perfect Day at CocoCay", "BS", 25.8170, -77.9400},
}

// attribute names tried, in order, when reading a port shapefile
var (
	nameFields    = []string{"PORT_NAME", "MAIN_PORT_", "NAME"}
	countryFields = []string{"COUNTRY", "COUNTRY_CO", "CTRY"}
	latFields     = []string{"LATITUDE", "LAT"}
	lonFields     = []string{"LONGITUDE", "LON"}
)

// Provision fills the port_index table if it is empty. Ports are read from
// a point shapefile (or a .zip holding one) when shapefilePath is set,
// otherwise the built-in seed list is used.
func Provision(dbPath, shapefilePath string) error {
	db, err := database.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	return ProvisionDB(db, shapefilePath)
}

// ProvisionDB is Provision against an already open database
func ProvisionDB(db *sql.DB, shapefilePath string) error {
	if err := database.EnsureSchema(db); err != nil {
		return err
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM port_index").Scan(&count); err != nil {
		return fmt.Errorf("counting ports: %w", err)
	}
	if count > 0 {
		return nil
	}

	if shapefilePath == "" {
		log.Info("Port index empty, seeding built-in ports")
		return seed(db)
	}

	log.Infof("Port index empty, building from %s", shapefilePath)
	if strings.EqualFold(filepath.Ext(shapefilePath), ".zip") {
		dir, err := os.MkdirTemp("", "portpal-wpi-")
		if err != nil {
			return fmt.Errorf("creating extraction directory: %w", err)
		}
		defer os.RemoveAll(dir)

		shapefilePath, err = unzipShapefile(shapefilePath, dir)
		if err != nil {
			return fmt.Errorf("extracting shapefile: %w", err)
		}
	}

	n, err := loadShapefile(db, shapefilePath)
	if err != nil {
		return fmt.Errorf("building port index: %w", err)
	}
	log.Infof("Indexed %d ports", n)
	return nil
}

func seed(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	for _, p := range seedPorts {
		if _, err := tx.Exec("INSERT INTO port_index (name, country, latitude, longitude) VALUES (?, ?, ?, ?)",
			p.name, p.country, p.lat, p.lon); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting port %s: %w", p.name, err)
		}
	}
	return tx.Commit()
}

func fieldIndex(fields []shp.Field, names []string) int {
	for _, want := range names {
		for i, f := range fields {
			if strings.EqualFold(strings.TrimRight(string(f.Name[:]), "\x00"), want) {
				return i
			}
		}
	}
	return -1
}

// loadShapefile inserts every point record, returning how many were indexed
func loadShapefile(db *sql.DB, path string) (int, error) {
	shape, err := shp.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening shapefile: %w", err)
	}
	defer shape.Close()

	fields := shape.Fields()
	nameIdx := fieldIndex(fields, nameFields)
	if nameIdx < 0 {
		return 0, fmt.Errorf("shapefile %s has no port name attribute", path)
	}
	countryIdx := fieldIndex(fields, countryFields)
	latIdx, lonIdx := fieldIndex(fields, latFields), fieldIndex(fields, lonFields)

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}

	count := 0
	for shape.Next() {
		n, p := shape.Shape()

		point, ok := p.(*shp.Point)
		if !ok {
			continue
		}
		name := strings.TrimSpace(shape.ReadAttribute(n, nameIdx))
		if name == "" {
			continue
		}
		var country string
		if countryIdx >= 0 {
			country = strings.TrimSpace(shape.ReadAttribute(n, countryIdx))
		}

		// points are stored X=longitude, Y=latitude
		lat, lon := point.Y, point.X
		if lat == 0 && lon == 0 && latIdx >= 0 && lonIdx >= 0 {
			if v, ok := parseCoordinate(shape.ReadAttribute(n, latIdx)); ok {
				lat = v
			}
			if v, ok := parseCoordinate(shape.ReadAttribute(n, lonIdx)); ok {
				lon = v
			}
		}

		if _, err := tx.Exec("INSERT INTO port_index (name, country, latitude, longitude) VALUES (?, ?, ?, ?)",
			name, country, lat, lon); err != nil {
			log.Warnf("Skipping port %s: %v", name, err)
			continue
		}

		count++
		if count%500 == 0 {
			log.Debugf("Processed %d ports...", count)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing ports: %w", err)
	}
	return count, nil
}

// unzipShapefile extracts the archive into dest and returns the path of the .shp inside
func unzipShapefile(src, dest string) (string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return "", err
	}
	defer r.Close()

	var shpPath string
	for _, f := range r.File {
		fpath := filepath.Join(dest, f.Name)

		// zip slip
		if !strings.HasPrefix(fpath, filepath.Clean(dest)+string(os.PathSeparator)) {
			return "", fmt.Errorf("illegal file path: %s", fpath)
		}

		if f.FileInfo().IsDir() {
			os.MkdirAll(fpath, os.ModePerm)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(fpath), os.ModePerm); err != nil {
			return "", err
		}
		if err := extract(f, fpath); err != nil {
			return "", err
		}
		if strings.EqualFold(filepath.Ext(fpath), ".shp") {
			shpPath = fpath
		}
	}

	if shpPath == "" {
		return "", fmt.Errorf("no .shp file in %s", src)
	}
	return shpPath, nil
}

func extract(f *zip.File, path string) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	_, err = io.Copy(out, rc)
	return err
}

// parseCoordinate reads a decimal degree attribute
func parseCoordinate(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

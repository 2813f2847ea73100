package portindex

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ngmaloney/portpal/internal/geocoding"
	"github.com/ngmaloney/portpal/internal/models"
)

const (
	geocodeTimeout = 15 * time.Second
	// NearbyMiles is how close a fix must be to name the port it is at
	NearbyMiles = 5.0
)

// Geocoder finds places the index has never seen
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*geocoding.Location, error)
}

// Resolver answers port coordinates from the index, asking the geocoder
// for unknown names and remembering what it finds
type Resolver struct {
	db       *sql.DB
	geocoder Geocoder
}

// NewResolver wraps the index. geocoder may be nil to stay offline.
func NewResolver(db *sql.DB, geocoder Geocoder) *Resolver {
	return &Resolver{db: db, geocoder: geocoder}
}

// Locate returns the coordinates of a port, or Miami when nothing knows it
func (r *Resolver) Locate(name string) models.Coordinate {
	if r.geocoder == nil {
		return Destination(r.db, name)
	}
	p, err := Lookup(r.db, name)
	if err == nil {
		return p.Location
	}

	ctx, cancel := context.WithTimeout(context.Background(), geocodeTimeout)
	defer cancel()
	loc, err := r.geocoder.Geocode(ctx, name)
	if err != nil {
		log.WithFields(log.Fields{"port": name}).Warnf("Port not found, using Miami: %v", err)
		return Miami
	}
	if err := r.remember(name, loc); err != nil {
		log.Warnf("Caching geocoded port %s: %v", name, err)
	}
	return loc.Coordinate
}

// NearbyPort names the indexed port within NearbyMiles of the point, if any
func (r *Resolver) NearbyPort(lat, lon float64) (string, bool) {
	ports, err := Nearest(r.db, lat, lon, NearbyMiles)
	if err != nil || len(ports) == 0 {
		return "", false
	}
	return ports[0].Name, true
}

func (r *Resolver) remember(name string, loc *geocoding.Location) error {
	_, err := r.db.Exec(`INSERT INTO port_index (name, country, latitude, longitude) VALUES (?, ?, ?, ?)`,
		name, loc.Country, loc.Latitude, loc.Longitude)
	if err != nil {
		return fmt.Errorf("inserting port: %w", err)
	}
	return nil
}

// Package portindex resolves port names to coordinates from the port_index table
package portindex

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ngmaloney/portpal/internal/geo"
	"github.com/ngmaloney/portpal/internal/models"
)

// ErrPortNotFound is returned when no indexed port matches a name
var ErrPortNotFound = errors.New("port not found")

// Miami is where the ETA destination falls back to when a port is unknown
var Miami = models.Coordinate{Latitude: 25.7617, Longitude: -80.1918}

// Port is one indexed port, with its distance from a query point when
// returned by Nearest
type Port struct {
	Name     string
	Country  string
	Location models.Coordinate
	Distance float64 // miles
}

// Lookup finds a port by name, ignoring case. A name like "San Juan, PR"
// also matches on the part before the comma.
func Lookup(db *sql.DB, name string) (Port, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Port{}, fmt.Errorf("%w: empty name", ErrPortNotFound)
	}

	candidates := []string{name}
	if head, _, ok := strings.Cut(name, ","); ok {
		candidates = append(candidates, strings.TrimSpace(head))
	}

	for _, candidate := range candidates {
		var p Port
		var country sql.NullString
		err := db.QueryRow(`
			SELECT name, country, latitude, longitude
			FROM port_index
			WHERE name = ? COLLATE NOCASE
			ORDER BY id
			LIMIT 1`, candidate,
		).Scan(&p.Name, &country, &p.Location.Latitude, &p.Location.Longitude)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return Port{}, fmt.Errorf("querying port %q: %w", candidate, err)
		}
		p.Country = country.String
		return p, nil
	}
	return Port{}, fmt.Errorf("%w: %s", ErrPortNotFound, name)
}

// Destination returns the coordinates of a port, or Miami when it cannot be found
func Destination(db *sql.DB, name string) models.Coordinate {
	if db == nil {
		return Miami
	}
	p, err := Lookup(db, name)
	if err != nil {
		return Miami
	}
	return p.Location
}

// Nearest lists indexed ports within maxDistanceMiles of the point, closest first
func Nearest(db *sql.DB, lat, lon, maxDistanceMiles float64) ([]Port, error) {
	// rough box first so only a handful of rows need the great-circle distance
	box := geo.Around(lat, lon, maxDistanceMiles)

	rows, err := db.Query(`
		SELECT name, country, latitude, longitude
		FROM port_index
		WHERE latitude BETWEEN ? AND ?
		  AND longitude BETWEEN ? AND ?`,
		box.MinLat, box.MaxLat, box.MinLon, box.MaxLon)
	if err != nil {
		return nil, fmt.Errorf("querying ports: %w", err)
	}
	defer rows.Close()

	var ports []Port
	for rows.Next() {
		var p Port
		var country sql.NullString
		if err := rows.Scan(&p.Name, &country, &p.Location.Latitude, &p.Location.Longitude); err != nil {
			continue
		}
		p.Country = country.String
		p.Distance = geo.HaversineMiles(lat, lon, p.Location.Latitude, p.Location.Longitude)
		if p.Distance <= maxDistanceMiles {
			ports = append(ports, p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading ports: %w", err)
	}

	sort.Slice(ports, func(i, j int) bool {
		return ports[i].Distance < ports[j].Distance
	})
	return ports, nil
}

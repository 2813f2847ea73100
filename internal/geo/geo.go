// Package geo provides great-circle distance and bounding box helpers
package geo

import "math"

const (
	earthRadiusMiles    = 3959.0
	earthRadiusMeters   = 6371000.0
	metersPerNauticalMi = 1852.0
)

// centralAngle returns the haversine central angle in radians between two lat/lon points
func centralAngle(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// HaversineMiles calculates distance in statute miles between two lat/lon points
func HaversineMiles(lat1, lon1, lat2, lon2 float64) float64 {
	return earthRadiusMiles * centralAngle(lat1, lon1, lat2, lon2)
}

// HaversineMeters calculates distance in meters between two lat/lon points
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	return earthRadiusMeters * centralAngle(lat1, lon1, lat2, lon2)
}

// NauticalMiles is the great-circle distance in nautical miles, the unit vessel speed is reported in
func NauticalMiles(lat1, lon1, lat2, lon2 float64) float64 {
	return HaversineMeters(lat1, lon1, lat2, lon2) / metersPerNauticalMi
}

// BoundingBox is a lat/lon rectangle given by two opposite corners
type BoundingBox struct {
	MinLat, MinLon float64
	MaxLat, MaxLon float64
}

// Contains reports whether the point lies inside the box, edges included
func (b BoundingBox) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// Corners returns the box as [[lat, lon], [lat, lon]], the form streaming AIS subscriptions use
func (b BoundingBox) Corners() [][2]float64 {
	return [][2]float64{{b.MinLat, b.MinLon}, {b.MaxLat, b.MaxLon}}
}

// Around expands a point into a search box covering roughly radiusMiles.
// Used as a cheap prefilter before computing real distances.
func Around(lat, lon, radiusMiles float64) BoundingBox {
	// ~69 miles per degree of latitude, longitude degrees shrink toward the poles
	latDelta := radiusMiles / 69.0 * 1.5
	lonDelta := radiusMiles / 55.0 * 1.5
	return BoundingBox{
		MinLat: lat - latDelta, MaxLat: lat + latDelta,
		MinLon: lon - lonDelta, MaxLon: lon + lonDelta,
	}
}

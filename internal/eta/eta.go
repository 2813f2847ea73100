// Package eta estimates vessel arrival by dead reckoning from a single fix
package eta

import (
	"math"
	"time"

	"github.com/ngmaloney/portpal/internal/geo"
	"github.com/ngmaloney/portpal/internal/models"
)

const (
	// FeedMinSpeedKnots is the floor applied to live feed fixes; slower vessels are treated as stationary
	FeedMinSpeedKnots = 0.1

	onScheduleBand = 30 * time.Minute
)

// Estimate projects the arrival at dest assuming the vessel holds its
// current speed along the great circle. It returns false when speed is at
// or below minSpeed.
func Estimate(pos models.LivePosition, scheduled time.Time, dest models.Coordinate, now time.Time, minSpeed float64) (models.ETAEstimate, bool) {
	if pos.Speed <= minSpeed || pos.Speed <= 0 {
		return models.ETAEstimate{}, false
	}

	nm := geo.NauticalMiles(pos.Latitude, pos.Longitude, dest.Latitude, dest.Longitude)
	hours := nm / pos.Speed
	estimated := now.Add(time.Duration(hours * float64(time.Hour)))

	return Classify(estimated, scheduled), true
}

// Classify compares an estimated arrival with the scheduled one
func Classify(estimated, scheduled time.Time) models.ETAEstimate {
	diff := estimated.Sub(scheduled)
	out := models.ETAEstimate{EstimatedArrival: estimated, Status: models.ArrivalOnSchedule}
	if diff.Abs() < onScheduleBand {
		return out
	}

	minutes := int(math.Abs(diff.Minutes()))
	if diff < 0 {
		out.Status = models.ArrivalEarly
		out.MinutesEarly = &minutes
	} else {
		out.Status = models.ArrivalDelayed
		out.MinutesLate = &minutes
	}
	return out
}

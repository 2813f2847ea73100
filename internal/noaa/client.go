// Package noaa fetches port weather from the National Weather Service API
package noaa

import (
	"context"

	"github.com/ngmaloney/portpal/internal/models"
)

// SnapshotSource is anything that can describe the weather at a point
type SnapshotSource interface {
	Snapshot(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error)
}

// AdvisorySource lists weather warnings in force at a point
type AdvisorySource interface {
	Advisories(ctx context.Context, lat, lon float64) ([]models.Advisory, error)
}

var (
	_ SnapshotSource = (*WeatherClient)(nil)
	_ AdvisorySource = (*WeatherClient)(nil)
)

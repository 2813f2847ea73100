package travelstate

import (
	"time"

	"github.com/ngmaloney/portpal/internal/models"
)

const (
	relaxedThreshold  = 2 * time.Hour
	moderateThreshold = 30 * time.Minute
	urgentThreshold   = 15 * time.Minute
)

// Urgency grades the time left ashore before departure
func Urgency(remaining time.Duration) models.ExplorationUrgency {
	switch {
	case remaining >= relaxedThreshold:
		return models.UrgencyRelaxed
	case remaining >= moderateThreshold:
		return models.UrgencyModerate
	case remaining >= urgentThreshold:
		return models.UrgencyUrgent
	default:
		return models.UrgencyCritical
	}
}

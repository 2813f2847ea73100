package aisfeed

import (
	"time"

	"github.com/ngmaloney/portpal/internal/models"
)

// AIS navigational status codes used by the stand-in table
const (
	navUnderwayEngine = 0
	navMoored         = 5
)

// syntheticPositions are deterministic stand-ins used when the feed goes quiet
var syntheticPositions = map[string]models.LivePosition{
	// Symphony of the Seas alongside at PortMiami
	"319326000": {Latitude: 25.7781, Longitude: -80.1794, Speed: 0, Course: 0, Heading: 92, NavStatus: navMoored},
	// Oasis of the Seas underway off Port Canaveral
	"311000274": {Latitude: 27.9512, Longitude: -79.6230, Speed: 19.5, Course: 128, Heading: 129, NavStatus: navUnderwayEngine},
}

var defaultSynthetic = models.LivePosition{
	Latitude: 25.0, Longitude: -78.0, Speed: 12, Course: 90, Heading: 90, NavStatus: navUnderwayEngine,
}

// Synthetic returns the stand-in fix for a vessel, stamped at the given time
func Synthetic(vesselID string, at time.Time) models.LivePosition {
	pos, ok := syntheticPositions[vesselID]
	if !ok {
		pos = defaultSynthetic
	}
	pos.VesselID = vesselID
	pos.Timestamp = at
	pos.Simulated = true
	return pos
}

package aisfeed

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/ngmaloney/portpal/internal/geo"
	"github.com/ngmaloney/portpal/internal/models"
)

const (
	messageTypePositionReport = "PositionReport"

	// AIS reports 511 when the transponder has no heading
	headingNotAvailable = 511

	timeUTCLayout = "2006-01-02 15:04:05.999999999 -0700 MST"
)

var errNotPositionReport = errors.New("not a position report")

// CaribbeanBounds covers North and Central America plus the Caribbean
var CaribbeanBounds = geo.BoundingBox{MinLat: 0, MinLon: -130, MaxLat: 50, MaxLon: -50}

// subscription is the first frame sent after connecting
type subscription struct {
	APIKey             string         `json:"APIKey"`
	BoundingBoxes      [][][2]float64 `json:"BoundingBoxes"`
	FiltersShipMMSI    []string       `json:"FiltersShipMMSI"`
	FilterMessageTypes []string       `json:"FilterMessageTypes"`
}

func newSubscription(apiKey string, box geo.BoundingBox, vesselID string) subscription {
	return subscription{
		APIKey:             apiKey,
		BoundingBoxes:      [][][2]float64{box.Corners()},
		FiltersShipMMSI:    []string{vesselID},
		FilterMessageTypes: []string{messageTypePositionReport},
	}
}

type inboundMessage struct {
	MessageType string `json:"MessageType"`
	MetaData    struct {
		MMSI    int64  `json:"MMSI"`
		TimeUTC string `json:"time_utc"`
	} `json:"MetaData"`
	Message struct {
		PositionReport *positionReport `json:"PositionReport"`
	} `json:"Message"`
}

type positionReport struct {
	UserID             int64    `json:"UserID"`
	Latitude           float64  `json:"Latitude"`
	Longitude          float64  `json:"Longitude"`
	Sog                float64  `json:"Sog"`
	Cog                float64  `json:"Cog"`
	TrueHeading        *float64 `json:"TrueHeading"`
	NavigationalStatus int      `json:"NavigationalStatus"`
}

// decodePosition turns one feed frame into a fix. received stamps the fix
// when the frame carries no usable timestamp.
func decodePosition(data []byte, received time.Time) (models.LivePosition, error) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return models.LivePosition{}, err
	}
	report := msg.Message.PositionReport
	if msg.MessageType != messageTypePositionReport || report == nil {
		return models.LivePosition{}, errNotPositionReport
	}

	mmsi := msg.MetaData.MMSI
	if mmsi == 0 {
		mmsi = report.UserID
	}

	heading := report.Cog
	if report.TrueHeading != nil && *report.TrueHeading != headingNotAvailable {
		heading = *report.TrueHeading
	}

	ts := received
	if msg.MetaData.TimeUTC != "" {
		if parsed, err := time.Parse(timeUTCLayout, msg.MetaData.TimeUTC); err == nil {
			ts = parsed
		}
	}

	return models.LivePosition{
		VesselID:  strconv.FormatInt(mmsi, 10),
		Latitude:  report.Latitude,
		Longitude: report.Longitude,
		Speed:     report.Sog,
		Course:    report.Cog,
		Heading:   heading,
		Timestamp: ts,
		NavStatus: report.NavigationalStatus,
	}, nil
}

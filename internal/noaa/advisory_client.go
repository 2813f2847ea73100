package noaa

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ngmaloney/portpal/internal/models"
)

const advisoryCacheDuration = 15 * time.Minute

type advisoryEntry struct {
	advisories []models.Advisory
	fetchedAt  time.Time
}

// advisoryCache keeps recent lookups per point
type advisoryCache struct {
	mu      sync.RWMutex
	entries map[string]advisoryEntry
}

func (c *advisoryCache) get(key string, now time.Time) ([]models.Advisory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || now.Sub(e.fetchedAt) >= advisoryCacheDuration {
		return nil, false
	}
	return e.advisories, true
}

func (c *advisoryCache) put(key string, advisories []models.Advisory, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]advisoryEntry)
	}
	c.entries[key] = advisoryEntry{advisories: advisories, fetchedAt: now}
}

// Advisories returns the weather warnings in force at lat/lon
func (c *WeatherClient) Advisories(ctx context.Context, lat, lon float64) ([]models.Advisory, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	now := c.now()
	if cached, ok := c.advisories.get(key, now); ok {
		return cached, nil
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		var resp advisoryResponse
		url := fmt.Sprintf("%s/alerts/active?point=%s", c.baseURL, key)
		if err := c.getJSON(ctx, url, &resp); err != nil {
			return nil, fmt.Errorf("fetching advisories: %w", err)
		}
		return resp.advisories(now), nil
	})
	if err != nil {
		return nil, err
	}

	advisories := out.([]models.Advisory)
	c.advisories.put(key, advisories, now)
	return advisories, nil
}

func mapSeverity(s string) models.AdvisorySeverity {
	switch s {
	case "Extreme":
		return models.SeverityExtreme
	case "Severe":
		return models.SeveritySevere
	case "Moderate":
		return models.SeverityModerate
	case "Minor":
		return models.SeverityMinor
	default:
		return models.SeverityUnknown
	}
}

// Internal types for NWS alert responses

type advisoryResponse struct {
	Features []struct {
		Properties struct {
			ID          string `json:"id"`
			Event       string `json:"event"`
			Headline    string `json:"headline"`
			Severity    string `json:"severity"`
			Onset       string `json:"onset"`
			Expires     string `json:"expires"`
			Instruction string `json:"instruction"`
		} `json:"properties"`
	} `json:"features"`
}

// advisories converts the features in force at now
func (r advisoryResponse) advisories(now time.Time) []models.Advisory {
	out := make([]models.Advisory, 0, len(r.Features))
	for _, f := range r.Features {
		p := f.Properties
		// unparseable times stay zero and count as open
		onset, _ := time.Parse(time.RFC3339, p.Onset)
		expires, _ := time.Parse(time.RFC3339, p.Expires)

		a := models.Advisory{
			ID:          p.ID,
			Event:       p.Event,
			Headline:    p.Headline,
			Severity:    mapSeverity(p.Severity),
			Onset:       onset,
			Expires:     expires,
			Instruction: p.Instruction,
		}
		if a.Active(now) {
			out = append(out, a)
		}
	}
	return out
}

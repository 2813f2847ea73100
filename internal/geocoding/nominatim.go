// Package geocoding resolves port names the port index does not know
package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ngmaloney/portpal/internal/models"
)

const (
	nominatimURL = "https://nominatim.openstreetmap.org"
	userAgent    = "PortPal/1.0" // Required by Nominatim ToS
)

// ErrNoResults is returned when Nominatim has nothing for the query
var ErrNoResults = errors.New("no geocoding results")

// Geocoder converts place names to coordinates with OpenStreetMap Nominatim
type Geocoder struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Location represents a geocoded place
type Location struct {
	models.Coordinate
	Name    string
	Country string
}

// NewGeocoder creates a geocoder against the public Nominatim instance
func NewGeocoder() *Geocoder {
	return newGeocoder(nominatimURL, time.Second)
}

func newGeocoder(baseURL string, every time.Duration) *Geocoder {
	return &Geocoder{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		// Nominatim allows one request per second
		limiter: rate.NewLimiter(rate.Every(every), 1),
	}
}

// nominatimResponse represents the Nominatim API response
type nominatimResponse struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Address     struct {
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// Geocode looks up the best match for a port or town name
func (g *Geocoder) Geocode(ctx context.Context, query string) (*Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Add("format", "json")
	params.Add("limit", "1")
	params.Add("addressdetails", "1")
	params.Add("q", query)
	reqURL := fmt.Sprintf("%s/search?%s", g.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim API returned status %d", resp.StatusCode)
	}

	var results []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w for %q", ErrNoResults, query)
	}

	result := results[0]
	lat, err := strconv.ParseFloat(result.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(result.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude: %w", err)
	}

	log.WithFields(log.Fields{"query": query, "lat": lat, "lon": lon}).Debug("Geocoded place")
	return &Location{
		Coordinate: models.Coordinate{Latitude: lat, Longitude: lon},
		Name:       result.DisplayName,
		Country:    strings.ToUpper(result.Address.CountryCode),
	}, nil
}

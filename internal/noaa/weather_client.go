package noaa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	log "github.com/sirupsen/logrus"

	"github.com/ngmaloney/portpal/internal/models"
)

const (
	defaultBaseURL   = "https://api.weather.gov"
	defaultUserAgent = "PortPal/1.0 (github.com/ngmaloney/portpal)"

	// consecutive failures before the breaker opens
	tripAfter = 3
)

// WeatherClient builds weather snapshots from the NWS hourly forecast and
// reports active advisories.
// Calls go through a circuit breaker so an unreachable API is not hit on
// every new timer.
type WeatherClient struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	breaker    *gobreaker.CircuitBreaker
	now        func() time.Time
	advisories advisoryCache
}

// NewWeatherClient creates a client against api.weather.gov
func NewWeatherClient() *WeatherClient {
	return newWeatherClient(defaultBaseURL, 30*time.Second)
}

func newWeatherClient(baseURL string, openFor time.Duration) *WeatherClient {
	return &WeatherClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: defaultUserAgent,
		now:       time.Now,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "noaa-weather",
			Timeout: openFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= tripAfter
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Infof("Circuit %s: %s -> %s", name, from, to)
			},
		}),
	}
}

// Snapshot returns the current conditions and a short forecast at lat/lon
func (c *WeatherClient) Snapshot(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, lat, lon)
	})
	if err != nil {
		return models.WeatherSnapshot{}, err
	}
	return out.(models.WeatherSnapshot), nil
}

func (c *WeatherClient) fetch(ctx context.Context, lat, lon float64) (models.WeatherSnapshot, error) {
	gridPoint, err := c.getGridPoint(ctx, lat, lon)
	if err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("failed to get grid point: %w", err)
	}

	forecastURL := fmt.Sprintf("%s/gridpoints/%s/%d,%d/forecast/hourly",
		c.baseURL, gridPoint.GridID, gridPoint.GridX, gridPoint.GridY)

	var forecastResp forecastResponse
	if err := c.getJSON(ctx, forecastURL, &forecastResp); err != nil {
		return models.WeatherSnapshot{}, fmt.Errorf("failed to fetch forecast: %w", err)
	}

	periods := forecastResp.Properties.Periods
	if len(periods) == 0 {
		return models.WeatherSnapshot{}, fmt.Errorf("forecast for %.4f,%.4f has no periods", lat, lon)
	}

	now := periods[0]
	snap := models.WeatherSnapshot{
		Temp:      fahrenheit(now.Temperature, now.TemperatureUnit),
		Condition: now.ShortForecast,
		Icon:      iconFor(now.ShortForecast),
	}
	// hourly periods, so index n is n hours out
	for _, h := range []int{1, 3} {
		if h >= len(periods) {
			break
		}
		p := periods[h]
		snap.Forecast = append(snap.Forecast, models.ForecastHour{
			Time:      fmt.Sprintf("+%dh", h),
			Temp:      fahrenheit(p.Temperature, p.TemperatureUnit),
			Condition: p.ShortForecast,
		})
	}
	return snap, nil
}

// getGridPoint gets the NWS grid point for a lat/lon
func (c *WeatherClient) getGridPoint(ctx context.Context, lat, lon float64) (*gridPoint, error) {
	url := fmt.Sprintf("%s/points/%.4f,%.4f", c.baseURL, lat, lon)

	var pointResp pointResponse
	if err := c.getJSON(ctx, url, &pointResp); err != nil {
		return nil, err
	}
	return &gridPoint{
		GridID: pointResp.Properties.GridID,
		GridX:  pointResp.Properties.GridX,
		GridY:  pointResp.Properties.GridY,
	}, nil
}

func (c *WeatherClient) getJSON(ctx context.Context, url string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func fahrenheit(temp int, unit string) int {
	if strings.EqualFold(unit, "C") {
		return temp*9/5 + 32
	}
	return temp
}

// iconFor maps a short forecast to a symbol name
func iconFor(forecast string) string {
	f := strings.ToLower(forecast)
	switch {
	case strings.Contains(f, "thunder"):
		return "cloud.bolt.rain.fill"
	case strings.Contains(f, "rain"), strings.Contains(f, "shower"):
		return "cloud.rain.fill"
	case strings.Contains(f, "partly"):
		return "cloud.sun.fill"
	case strings.Contains(f, "cloud"), strings.Contains(f, "overcast"):
		return "cloud.fill"
	case strings.Contains(f, "fog"), strings.Contains(f, "haze"):
		return "cloud.fog.fill"
	case strings.Contains(f, "wind"), strings.Contains(f, "breezy"):
		return "wind"
	}
	return "sun.max.fill"
}

// Internal types for NWS API responses

type gridPoint struct {
	GridID string
	GridX  int
	GridY  int
}

type pointResponse struct {
	Properties struct {
		GridID string `json:"gridId"`
		GridX  int    `json:"gridX"`
		GridY  int    `json:"gridY"`
	} `json:"properties"`
}

type forecastResponse struct {
	Properties struct {
		Periods []struct {
			StartTime       string `json:"startTime"`
			Temperature     int    `json:"temperature"`
			TemperatureUnit string `json:"temperatureUnit"`
			WindSpeed       string `json:"windSpeed"`
			ShortForecast   string `json:"shortForecast"`
		} `json:"periods"`
	} `json:"properties"`
}

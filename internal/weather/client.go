// Package weather looks up current conditions through the OpenWeatherMap
// API: a geocoding step resolves the place name to coordinates, then a
// second call fetches conditions for those coordinates.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tomvane/innocents/domain"
)

const (
	defaultGeoURL  = "https://api.openweathermap.org/geo/1.0/direct"
	defaultDataURL = "https://api.openweathermap.org/data/2.5/weather"
)

// Measurement systems accepted by the conditions endpoint.
const (
	UnitsMetric   = "metric"
	UnitsImperial = "imperial"
	UnitsStandard = "standard"
)

// normalizeUnits maps anything unrecognized (including empty) to metric.
func normalizeUnits(units string) string {
	switch strings.ToLower(strings.TrimSpace(units)) {
	case UnitsImperial:
		return UnitsImperial
	case UnitsStandard:
		return UnitsStandard
	default:
		return UnitsMetric
	}
}

// Client is the OpenWeatherMap client.
type Client struct {
	apiKey     string
	geoURL     string
	dataURL    string
	httpClient *http.Client
}

// NewClient creates a new weather client.
func NewClient(apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		geoURL:  defaultGeoURL,
		dataURL: defaultDataURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewClientWithURLs creates a client against custom endpoints, used in tests.
func NewClientWithURLs(apiKey, geoURL, dataURL string, timeout time.Duration) *Client {
	c := NewClient(apiKey, timeout)
	c.geoURL = strings.TrimSuffix(geoURL, "/")
	c.dataURL = strings.TrimSuffix(dataURL, "/")
	return c
}

type geoResult struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
}

type conditionsResult struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// Current resolves a place name and returns its current conditions in the
// requested measurement system (metric when units is empty or unknown).
// An unresolvable name yields *domain.LocationNotFoundError; transient or
// upstream failures yield errors wrapping domain.ErrWeatherUnavailable.
func (c *Client) Current(ctx context.Context, place, units string) (*domain.WeatherReport, error) {
	loc, err := c.geocode(ctx, place)
	if err != nil {
		return nil, err
	}

	report, err := c.conditions(ctx, loc, normalizeUnits(units))
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (c *Client) geocode(ctx context.Context, place string) (*geoResult, error) {
	q := url.Values{}
	q.Set("q", place)
	q.Set("limit", "1")
	q.Set("appid", c.apiKey)

	var results []geoResult
	if err := c.getJSON(ctx, c.geoURL+"?"+q.Encode(), &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, &domain.LocationNotFoundError{Location: place}
	}
	return &results[0], nil
}

func (c *Client) conditions(ctx context.Context, loc *geoResult, units string) (*domain.WeatherReport, error) {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", loc.Lat))
	q.Set("lon", fmt.Sprintf("%f", loc.Lon))
	q.Set("units", units)
	q.Set("appid", c.apiKey)

	var data conditionsResult
	if err := c.getJSON(ctx, c.dataURL+"?"+q.Encode(), &data); err != nil {
		return nil, err
	}

	conditions := ""
	if len(data.Weather) > 0 {
		conditions = data.Weather[0].Description
	}
	return &domain.WeatherReport{
		Location:   loc.Name,
		Country:    loc.Country,
		Units:      units,
		Temp:       data.Main.Temp,
		FeelsLike:  data.Main.FeelsLike,
		Conditions: conditions,
		Humidity:   data.Main.Humidity,
		WindSpeed:  data.Wind.Speed,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", domain.ErrWeatherUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Keep the transport error in the chain so callers can tell a
		// deadline expiry apart from other failures.
		return fmt.Errorf("%w: %w", domain.ErrWeatherUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: upstream returned %d", domain.ErrWeatherUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", domain.ErrWeatherUnavailable, err)
	}
	return nil
}

// Package openmeteo implements the weather and air-quality providers on top
// of the Open-Meteo forecast APIs.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/stellaview/internal/adapter/upstream"
	"github.com/couchcryptid/stellaview/internal/domain"
)

const (
	DefaultForecastURL = "https://api.open-meteo.com"
	DefaultAirURL      = "https://air-quality-api.open-meteo.com"

	// maxAirDays is the air-quality API's forecast horizon.
	maxAirDays = 7

	timeLayout = "2006-01-02T15:04"
)

// WeatherClient implements domain.WeatherProvider.
type WeatherClient struct {
	baseURL string
	client  *upstream.Client
}

// NewWeatherClient creates a forecast client rooted at baseURL.
func NewWeatherClient(baseURL string, client *upstream.Client) *WeatherClient {
	return &WeatherClient{baseURL: baseURL, client: client}
}

// HourlyForecast fetches hourly temperature and cloud cover in GMT.
func (c *WeatherClient) HourlyForecast(ctx context.Context, lat, lon float64, days int, unit domain.TempUnit) (domain.HourlyForecast, error) {
	params := url.Values{
		"latitude":      {formatCoord(lat)},
		"longitude":     {formatCoord(lon)},
		"hourly":        {"temperature_2m,cloud_cover"},
		"forecast_days": {strconv.Itoa(max(days, 1))},
		"timezone":      {"GMT"},
	}
	if unit == domain.Fahrenheit {
		params.Set("temperature_unit", "fahrenheit")
	}

	body, err := c.client.Get(ctx, c.baseURL+"/v1/forecast?"+params.Encode())
	if err != nil {
		return domain.HourlyForecast{}, err
	}

	var resp forecastResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.HourlyForecast{}, fmt.Errorf("decode forecast: %w", err)
	}
	times, err := parseTimes(resp.Hourly.Time)
	if err != nil {
		return domain.HourlyForecast{}, err
	}
	return domain.HourlyForecast{
		Times:       times,
		CloudCover:  values(resp.Hourly.CloudCover, len(times)),
		Temperature: values(resp.Hourly.Temperature, len(times)),
		Unit:        unit,
	}, nil
}

// AirClient implements domain.AirQualityProvider.
type AirClient struct {
	baseURL string
	client  *upstream.Client
}

// NewAirClient creates an air-quality client rooted at baseURL.
func NewAirClient(baseURL string, client *upstream.Client) *AirClient {
	return &AirClient{baseURL: baseURL, client: client}
}

// HourlyPM25 fetches hourly PM2.5 for at most seven days.
func (c *AirClient) HourlyPM25(ctx context.Context, lat, lon float64, days int) (domain.AirSeries, error) {
	params := url.Values{
		"latitude":      {formatCoord(lat)},
		"longitude":     {formatCoord(lon)},
		"hourly":        {"pm2_5"},
		"forecast_days": {strconv.Itoa(min(max(days, 1), maxAirDays))},
		"timezone":      {"GMT"},
	}

	body, err := c.client.Get(ctx, c.baseURL+"/v1/air-quality?"+params.Encode())
	if err != nil {
		return domain.AirSeries{}, err
	}

	var resp airResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.AirSeries{}, fmt.Errorf("decode air quality: %w", err)
	}
	times, err := parseTimes(resp.Hourly.Time)
	if err != nil {
		return domain.AirSeries{}, err
	}
	return domain.AirSeries{Times: times, PM25: values(resp.Hourly.PM25, len(times))}, nil
}

// Open-Meteo response types. Missing hours are null.

type forecastResponse struct {
	Hourly struct {
		Time        []string   `json:"time"`
		Temperature []*float64 `json:"temperature_2m"`
		CloudCover  []*float64 `json:"cloud_cover"`
	} `json:"hourly"`
}

type airResponse struct {
	Hourly struct {
		Time []string   `json:"time"`
		PM25 []*float64 `json:"pm2_5"`
	} `json:"hourly"`
}

func parseTimes(raw []string) ([]time.Time, error) {
	times := make([]time.Time, len(raw))
	for i, s := range raw {
		t, err := time.ParseInLocation(timeLayout, s, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse hourly time %q: %w", s, err)
		}
		times[i] = t
	}
	return times, nil
}

// values aligns a nullable series to n samples, padding with NaN.
func values(raw []*float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
		if i < len(raw) && raw[i] != nil {
			out[i] = *raw[i]
		}
	}
	return out
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

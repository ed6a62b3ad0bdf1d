package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/stellaview/internal/adapter/upstream"
	"github.com/couchcryptid/stellaview/internal/domain"
)

const DefaultURL = "https://nominatim.openstreetmap.org"

// ErrNotFound is returned when a query matches no place.
var ErrNotFound = errors.New("nominatim: place not found")

// Client implements domain.Geocoder using the Nominatim search API.
type Client struct {
	baseURL string
	client  *upstream.Client
	logger  *slog.Logger
}

// NewClient creates a Nominatim geocoding client. Nominatim rejects requests
// without a User-Agent, which the upstream client always sets.
func NewClient(baseURL string, client *upstream.Client, logger *slog.Logger) *Client {
	return &Client{baseURL: baseURL, client: client, logger: logger}
}

// Geocode converts a free-form place name to coordinates.
func (c *Client) Geocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.GeocodingResult{}, ErrNotFound
	}

	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}
	body, err := c.client.Get(ctx, c.baseURL+"/search?"+params.Encode())
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("geocode request: %w", err)
	}

	var places []place
	if err := json.Unmarshal(body, &places); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("decode response: %w", err)
	}
	if len(places) == 0 {
		return domain.GeocodingResult{}, ErrNotFound
	}

	p := places[0]
	lat, errLat := strconv.ParseFloat(p.Lat, 64)
	lon, errLon := strconv.ParseFloat(p.Lon, 64)
	if err := errors.Join(errLat, errLon); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("parse coordinates: %w", err)
	}
	c.logger.Debug("geocoded", "query", query, "display_name", p.DisplayName)
	return domain.GeocodingResult{Lat: lat, Lon: lon, DisplayName: p.DisplayName}, nil
}

// Nominatim encodes coordinates as strings.
type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Package osrm implements domain.Router with the OSRM table service.
package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/couchcryptid/stellaview/internal/adapter/upstream"
	"github.com/couchcryptid/stellaview/internal/domain"
)

const DefaultURL = "https://router.project-osrm.org"

// ErrNoRoute is returned when OSRM answers with a non-Ok code.
var ErrNoRoute = errors.New("osrm: no route")

// Client implements domain.Router.
type Client struct {
	baseURL string
	client  *upstream.Client
}

// NewClient creates a routing client rooted at baseURL.
func NewClient(baseURL string, client *upstream.Client) *Client {
	return &Client{baseURL: baseURL, client: client}
}

// DriveMinutes returns driving minutes from origin to each destination in
// one table request. Unreachable destinations are NaN.
func (c *Client) DriveMinutes(ctx context.Context, origin domain.LatLon, destinations []domain.LatLon) ([]float64, error) {
	if len(destinations) == 0 {
		return nil, nil
	}

	// OSRM takes lon,lat pairs; the origin is source 0.
	coords := make([]string, 0, len(destinations)+1)
	coords = append(coords, coord(origin))
	for _, d := range destinations {
		coords = append(coords, coord(d))
	}

	u := fmt.Sprintf("%s/table/v1/driving/%s?sources=0", c.baseURL, strings.Join(coords, ";"))
	body, err := c.client.Get(ctx, u)
	if err != nil {
		return nil, err
	}

	var resp tableResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode osrm table: %w", err)
	}
	if resp.Code != "Ok" {
		return nil, fmt.Errorf("%w: %s", ErrNoRoute, resp.Code)
	}
	if len(resp.Durations) == 0 || len(resp.Durations[0]) != len(destinations)+1 {
		return nil, fmt.Errorf("osrm table: expected %d durations", len(destinations)+1)
	}

	minutes := make([]float64, len(destinations))
	for i, secs := range resp.Durations[0][1:] {
		if secs == nil {
			minutes[i] = math.NaN()
			continue
		}
		minutes[i] = *secs / 60
	}
	return minutes, nil
}

type tableResponse struct {
	Code      string       `json:"code"`
	Durations [][]*float64 `json:"durations"`
}

func coord(p domain.LatLon) string {
	return fmt.Sprintf("%.6f,%.6f", p.Lon, p.Lat)
}

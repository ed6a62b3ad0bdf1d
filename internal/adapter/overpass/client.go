// Package overpass discovers candidate observing sites from OpenStreetMap
// through the Overpass API.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/couchcryptid/stellaview/internal/adapter/upstream"
	"github.com/couchcryptid/stellaview/internal/domain"
)

const (
	DefaultURL = "https://overpass-api.de/api/interpreter"

	// DefaultAttempts and DefaultRetryStep give waits of 2s then 4s.
	DefaultAttempts  = 3
	DefaultRetryStep = 2 * time.Second

	// resultLimit bounds the number of elements returned.
	resultLimit = 40
)

// Client implements domain.SiteDiscoverer.
type Client struct {
	baseURL  string
	client   *upstream.Client
	logger   *slog.Logger
	attempts int
	step     time.Duration
}

// NewClient creates an Overpass client. Busy responses (429, 504) are
// retried up to attempts times with a linearly growing wait.
func NewClient(baseURL string, client *upstream.Client, logger *slog.Logger, attempts int, step time.Duration) *Client {
	if attempts < 1 {
		attempts = 1
	}
	return &Client{baseURL: baseURL, client: client, logger: logger, attempts: attempts, step: step}
}

// DiscoverSites returns classified sites within radiusKm of lat/lon.
// Provider failures are logged and yield no sites; only context errors are
// returned.
func (c *Client) DiscoverSites(ctx context.Context, lat, lon, radiusKm float64) ([]domain.Site, error) {
	u := c.baseURL + "?data=" + url.QueryEscape(Query(lat, lon, radiusKm))

	var body []byte
	attempt := 0
	op := func() error {
		attempt++
		b, err := c.client.Get(ctx, u)
		if err != nil {
			if busy(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		body = b
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("overpass busy, retrying", "attempt", attempt, "max_attempts", c.attempts, "wait", wait, "error", err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&linearBackOff{step: c.step}, uint64(c.attempts-1)), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("site discovery failed", "attempts", attempt, "error", err)
		return nil, nil
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("decode overpass response", "error", err)
		return nil, nil
	}

	sites := make([]domain.Site, 0, len(resp.Elements))
	seen := make(map[string]bool, len(resp.Elements))
	for _, el := range resp.Elements {
		raw := el.rawPlace()
		if seen[raw.ID] {
			continue
		}
		seen[raw.ID] = true
		if s, ok := domain.ClassifyPlace(raw); ok {
			sites = append(sites, s)
		}
	}
	c.logger.Debug("sites discovered", "elements", len(resp.Elements), "sites", len(sites))
	return sites, nil
}

// Query builds the Overpass QL query for sites around a point.
func Query(lat, lon, radiusKm float64) string {
	around := fmt.Sprintf("(around:%.0f,%.6f,%.6f)", radiusKm*1000, lat, lon)
	return fmt.Sprintf(`[out:json][timeout:30];
(
  nwr["leisure"~"nature_reserve|park"]%[1]s;
  nwr["boundary"~"national_park|protected_area"]%[1]s;
  nwr["tourism"="viewpoint"]["access"!~"private|no"]%[1]s;
  nwr["natural"="peak"]["access"!~"private|no"]%[1]s;
);
nwr._["landuse"!~"residential|farmyard|construction"];
out center %[2]d;`, around, resultLimit)
}

func busy(err error) bool {
	code := upstream.StatusCode(err)
	return code == http.StatusTooManyRequests || code == http.StatusGatewayTimeout
}

// linearBackOff waits step, 2*step, 3*step, ...
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return time.Duration(b.n) * b.step
}

func (b *linearBackOff) Reset() { b.n = 0 }

// Overpass response types.

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *center           `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// rawPlace uses the node position, or the center for ways and relations.
func (e element) rawPlace() domain.RawPlace {
	lat, lon := e.Lat, e.Lon
	if lat == 0 && lon == 0 && e.Center != nil {
		lat, lon = e.Center.Lat, e.Center.Lon
	}
	return domain.RawPlace{
		ID:   fmt.Sprintf("%s/%d", e.Type, e.ID),
		Lat:  lat,
		Lon:  lon,
		Tags: e.Tags,
	}
}

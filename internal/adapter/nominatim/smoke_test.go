//go:build smoke

package nominatim

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/stellaview/internal/adapter/upstream"
	"github.com/couchcryptid/stellaview/internal/observability"
)

// These tests hit the public Nominatim API.
// Run with: go test -tags=smoke ./internal/adapter/nominatim/ -v -count=1

func smokeClient() *Client {
	up := upstream.New("nominatim", 10*time.Second, observability.NewMetricsForTesting())
	return NewClient(DefaultURL, up, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_Geocode(t *testing.T) {
	result, err := smokeClient().Geocode(context.Background(), "Boise, Idaho")
	require.NoError(t, err)

	assert.InDelta(t, 43.61, result.Lat, 0.1, "lat should be near Boise")
	assert.InDelta(t, -116.2, result.Lon, 0.1, "lon should be near Boise")
	assert.Contains(t, result.DisplayName, "Boise")
}

func TestSmoke_CachedGeocoder(t *testing.T) {
	cached := NewCachedGeocoder(smokeClient(), 10, observability.NewMetricsForTesting())

	r1, err := cached.Geocode(context.Background(), "Twin Falls, Idaho")
	require.NoError(t, err)

	r2, err := cached.Geocode(context.Background(), "Twin Falls, Idaho")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

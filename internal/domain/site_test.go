package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyPlace(t *testing.T) {
	t.Run("official reserve", func(t *testing.T) {
		site, ok := ClassifyPlace(RawPlace{
			ID:   "way/123",
			Lat:  43.51,
			Lon:  -114.3,
			Tags: map[string]string{"name": "Craters Wilderness", "leisure": "nature_reserve", "ele": "1820 m"},
		})

		require.True(t, ok)
		assert.Equal(t, "way/123", site.ID)
		assert.Equal(t, "Craters Wilderness", site.Name)
		assert.Equal(t, KindReserve, site.Kind)
		assert.Equal(t, TrustOfficial, site.Trust)
		require.NotNil(t, site.Elevation)
		assert.Equal(t, 1820.0, *site.Elevation)
	})

	t.Run("unnamed viewpoint", func(t *testing.T) {
		site, ok := ClassifyPlace(RawPlace{
			ID:   "node/9",
			Lat:  42.1,
			Lon:  -113.9,
			Tags: map[string]string{"tourism": "viewpoint"},
		})

		require.True(t, ok)
		assert.Equal(t, defaultSiteName, site.Name)
		assert.Equal(t, KindViewpoint, site.Kind)
		assert.Equal(t, TrustUnverified, site.Trust)
		assert.Nil(t, site.Elevation)
	})

	t.Run("peak", func(t *testing.T) {
		site, ok := ClassifyPlace(RawPlace{Lat: 44, Lon: -115, Tags: map[string]string{"natural": "peak", "name": "Bald Mountain"}})
		require.True(t, ok)
		assert.Equal(t, KindPeak, site.Kind)
	})

	t.Run("nil tags", func(t *testing.T) {
		site, ok := ClassifyPlace(RawPlace{Lat: 44, Lon: -115})
		require.True(t, ok)
		assert.Equal(t, KindPark, site.Kind)
	})

	rejected := []struct {
		name  string
		place RawPlace
	}{
		{"blacklisted name", RawPlace{Lat: 42, Lon: -114, Tags: map[string]string{"name": "County Landfill Overlook"}}},
		{"blacklisted landuse", RawPlace{Lat: 42, Lon: -114, Tags: map[string]string{"name": "Hilltop", "landuse": "quarry"}}},
		{"prison", RawPlace{Lat: 42, Lon: -114, Tags: map[string]string{"name": "State Prison Park"}}},
		{"private ranch", RawPlace{Lat: 42, Lon: -114, Tags: map[string]string{"name": "Smith Ranch Viewpoint"}}},
		{"no coordinates", RawPlace{Tags: map[string]string{"name": "Somewhere Park"}}},
		{"invalid latitude", RawPlace{Lat: 95, Lon: 10, Tags: map[string]string{"name": "Nowhere Park"}}},
	}
	for _, tc := range rejected {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := ClassifyPlace(tc.place)
			assert.False(t, ok)
		})
	}
}

func TestRadianceBortleRoundTrip(t *testing.T) {
	for b := 1.0; b <= 9.0; b += 0.5 {
		got := RadianceToBortle(BortleToRadiance(b))
		assert.InDelta(t, b, got, 1e-9, "bortle %v", b)
	}
}

func TestRadianceToBortle_Edges(t *testing.T) {
	assert.Equal(t, 1.0, RadianceToBortle(0))
	assert.Equal(t, 1.0, RadianceToBortle(-5))
	assert.Equal(t, 1.0, RadianceToBortle(0.01))
	assert.Equal(t, 9.0, RadianceToBortle(1e6))
	assert.InDelta(t, 5.0, RadianceToBortle(1.0), 1e-9)
}

func TestBortleToRadiance_Clamps(t *testing.T) {
	assert.InDelta(t, 0.01, BortleToRadiance(0), 1e-12)
	assert.InDelta(t, 100.0, BortleToRadiance(12), 1e-9)
}

func TestFailureReasonMessages(t *testing.T) {
	for _, r := range TrackedReasons {
		assert.NotEmpty(t, r.Message(), string(r))
		assert.True(t, r.Tracked())
	}
	assert.False(t, ReasonDistance.Tracked())
	assert.Contains(t, ReasonDistance.Message(), "too far")
	assert.Equal(t, ReasonNoData.Message(), FailureReason("bogus").Message())
}

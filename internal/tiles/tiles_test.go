package tiles

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/stellaview/internal/domain"
	"github.com/couchcryptid/stellaview/internal/observability"
)

// --- fake tile source ---

type fakeSource struct {
	mu            sync.Mutex
	manifests     map[domain.Layer][]string
	tiles         map[string]domain.Tile
	manifestErr   error
	tileErr       error
	manifestCalls int
	tileCalls     int
}

func (f *fakeSource) Manifest(_ context.Context, layer domain.Layer) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.manifestCalls++
	if f.manifestErr != nil {
		return nil, f.manifestErr
	}
	return f.manifests[layer], nil
}

func (f *fakeSource) Tile(_ context.Context, layer domain.Layer, id string) (domain.Tile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tileCalls++
	if f.tileErr != nil {
		return domain.Tile{}, f.tileErr
	}
	t, ok := f.tiles[string(layer)+"/"+id]
	if !ok {
		return domain.Tile{}, errors.New("not found")
	}
	return t, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func uniformGrid(rows, cols int, v float64) [][]float64 {
	data := make([][]float64, rows)
	for r := range data {
		data[r] = make([]float64, cols)
		for c := range data[r] {
			data[r][c] = v
		}
	}
	return data
}

// --- tile ids ---

func TestRadianceTileID(t *testing.T) {
	assert.Equal(t, "40_-120", RadianceTileID(43.615, -116.2))
	assert.Equal(t, "40_-115", RadianceTileID(42.56, -114.46))
	assert.Equal(t, "-35_145", RadianceTileID(-33.9, 149.1))
	assert.Equal(t, "0_0", RadianceTileID(0, 0))
}

func TestVegetationTileID(t *testing.T) {
	assert.Equal(t, "h06v04", VegetationTileID(43.615, -116.2))
	assert.Equal(t, "h18v09", VegetationTileID(0, 0))
	assert.Equal(t, "h35v17", VegetationTileID(-90, 180))
}

func TestBucketBounds(t *testing.T) {
	assert.Equal(t, domain.Bounds{North: 45, South: 40, West: -120, East: -115}, bucketBounds(domain.LayerRadiance, 43.6, -116.2))
	assert.Equal(t, domain.Bounds{North: 50, South: 40, West: -120, East: -110}, bucketBounds(domain.LayerVegetation, 43.6, -116.2))
}

// --- grid helpers ---

func TestValidateTile(t *testing.T) {
	assert.NoError(t, validateTile(domain.Tile{ID: "ok", Data: uniformGrid(2, 3, 1)}))
	assert.ErrorIs(t, validateTile(domain.Tile{ID: "empty"}), ErrMalformedTile)
	assert.ErrorIs(t, validateTile(domain.Tile{ID: "ragged", Data: [][]float64{{1, 2}, {1}}}), ErrMalformedTile)
	assert.ErrorIs(t, validateTile(domain.Tile{ID: "rows", Rows: 3, Data: uniformGrid(2, 2, 1)}), ErrMalformedTile)
}

func TestCellIndex_Clamps(t *testing.T) {
	b := domain.Bounds{North: 45, South: 40, West: -120, East: -115}

	row, col := cellIndex(10, 10, b, 45, -120)
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, col)

	row, col = cellIndex(10, 10, b, 40, -115)
	assert.Equal(t, 9, row)
	assert.Equal(t, 9, col)

	row, col = cellIndex(10, 10, b, 47, -125)
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, col)
}

func TestIDW(t *testing.T) {
	data := uniformGrid(9, 9, 2)
	data[4][4] = 20
	data[0][0] = math.NaN()

	v, ok := idw(data, 4, 4, 4)
	require.True(t, ok)
	assert.Greater(t, v, 2.0)
	assert.Less(t, v, 20.0)

	uniform, ok := idw(uniformGrid(3, 3, 5), 1, 1, 4)
	require.True(t, ok)
	assert.InDelta(t, 5, uniform, 1e-9)

	_, ok = idw([][]float64{{math.NaN()}}, 0, 0, 4)
	assert.False(t, ok)
}

// --- sampler ---

func newTestSamplers(src *fakeSource) (*Sampler, *Sampler) {
	metrics := observability.NewMetricsForTesting()
	cache := NewCache(src, metrics)
	return NewRadianceSampler(cache, discardLogger(), metrics), NewVegetationSampler(cache, discardLogger(), metrics)
}

func TestSampler_MissingFromManifestSkipsFetch(t *testing.T) {
	src := &fakeSource{manifests: map[domain.Layer][]string{domain.LayerRadiance: {"0_0"}}}
	radiance, _ := newTestSamplers(src)

	assert.Equal(t, Fallback, radiance.Sample(context.Background(), 43.6, -116.2))
	assert.Equal(t, Fallback, radiance.Sample(context.Background(), 43.6, -116.2))
	assert.Equal(t, 0, src.tileCalls)
	assert.Equal(t, 1, src.manifestCalls, "manifest should load once")
}

func TestSampler_RadianceUniformTile(t *testing.T) {
	src := &fakeSource{
		manifests: map[domain.Layer][]string{domain.LayerRadiance: {"40_-120"}},
		tiles:     map[string]domain.Tile{"radiance/40_-120": {ID: "40_-120", Data: uniformGrid(20, 20, 0.35)}},
	}
	radiance, _ := newTestSamplers(src)

	got := radiance.Sample(context.Background(), 43.6, -116.2)
	assert.InDelta(t, 0.35, got, 1e-9)

	radiance.Sample(context.Background(), 43.1, -117.9)
	assert.Equal(t, 1, src.tileCalls, "second sample should hit the cache")
}

func TestSampler_RadianceClampedToRange(t *testing.T) {
	src := &fakeSource{
		manifests: map[domain.Layer][]string{domain.LayerRadiance: {"40_-120"}},
		tiles:     map[string]domain.Tile{"radiance/40_-120": {ID: "40_-120", Data: uniformGrid(4, 4, 5e5)}},
	}
	radiance, _ := newTestSamplers(src)

	assert.Equal(t, 1e4, radiance.Sample(context.Background(), 43.6, -116.2))
}

func TestSampler_VegetationScaledAndBounded(t *testing.T) {
	data := uniformGrid(10, 10, 6500)
	src := &fakeSource{
		manifests: map[domain.Layer][]string{domain.LayerVegetation: {"h06v04"}},
		tiles:     map[string]domain.Tile{"vegetation/h06v04": {ID: "h06v04", Data: data}},
	}
	_, veg := newTestSamplers(src)

	assert.InDelta(t, 0.65, veg.Sample(context.Background(), 43.6, -116.2), 1e-9)
}

func TestSampler_UsesTileBoundsAndScale(t *testing.T) {
	data := [][]float64{
		{10, 20},
		{30, 40},
	}
	src := &fakeSource{
		manifests: map[domain.Layer][]string{domain.LayerVegetation: {"h06v04"}},
		tiles: map[string]domain.Tile{"vegetation/h06v04": {
			ID:     "h06v04",
			Bounds: &domain.Bounds{North: 44, South: 43, West: -117, East: -116},
			Scale:  100,
			Data:   data,
		}},
	}
	_, veg := newTestSamplers(src)

	// South-east quadrant of the declared bounds.
	assert.InDelta(t, 0.4, veg.Sample(context.Background(), 43.2, -116.2), 1e-9)
	// North-west quadrant.
	assert.InDelta(t, 0.1, veg.Sample(context.Background(), 43.8, -116.9), 1e-9)
}

func TestSampler_MalformedTileFallsBack(t *testing.T) {
	src := &fakeSource{
		manifests: map[domain.Layer][]string{domain.LayerRadiance: {"40_-120"}},
		tiles:     map[string]domain.Tile{"radiance/40_-120": {ID: "40_-120", Data: [][]float64{{1, 2}, {3}}}},
	}
	radiance, _ := newTestSamplers(src)

	assert.Equal(t, Fallback, radiance.Sample(context.Background(), 43.6, -116.2))
}

func TestSampler_FetchFailureNotCached(t *testing.T) {
	src := &fakeSource{
		manifests: map[domain.Layer][]string{domain.LayerRadiance: {"40_-120"}},
		tiles:     map[string]domain.Tile{"radiance/40_-120": {ID: "40_-120", Data: uniformGrid(4, 4, 3)}},
		tileErr:   errors.New("connection reset"),
	}
	radiance, _ := newTestSamplers(src)

	assert.Equal(t, Fallback, radiance.Sample(context.Background(), 43.6, -116.2))

	src.mu.Lock()
	src.tileErr = nil
	src.mu.Unlock()

	assert.InDelta(t, 3, radiance.Sample(context.Background(), 43.6, -116.2), 1e-9)
	assert.Equal(t, 2, src.tileCalls)
}

func TestSampler_ManifestFailureRetried(t *testing.T) {
	src := &fakeSource{
		manifests:   map[domain.Layer][]string{domain.LayerRadiance: {"40_-120"}},
		tiles:       map[string]domain.Tile{"radiance/40_-120": {ID: "40_-120", Data: uniformGrid(4, 4, 3)}},
		manifestErr: errors.New("timeout"),
	}
	radiance, _ := newTestSamplers(src)

	assert.Equal(t, Fallback, radiance.Sample(context.Background(), 43.6, -116.2))

	src.mu.Lock()
	src.manifestErr = nil
	src.mu.Unlock()

	assert.InDelta(t, 3, radiance.Sample(context.Background(), 43.6, -116.2), 1e-9)
	assert.Equal(t, 2, src.manifestCalls)
}

func TestSampler_InvalidCoordinates(t *testing.T) {
	src := &fakeSource{}
	radiance, _ := newTestSamplers(src)

	assert.Equal(t, Fallback, radiance.Sample(context.Background(), math.NaN(), 0))
	assert.Equal(t, 0, src.manifestCalls)
}

func TestSampler_NonFiniteCenterFallsBack(t *testing.T) {
	src := &fakeSource{
		manifests: map[domain.Layer][]string{domain.LayerVegetation: {"h06v04"}},
		tiles:     map[string]domain.Tile{"vegetation/h06v04": {ID: "h06v04", Data: [][]float64{{math.NaN()}}}},
	}
	_, veg := newTestSamplers(src)

	assert.Equal(t, Fallback, veg.Sample(context.Background(), 43.6, -116.2))
}

package tiles

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"github.com/couchcryptid/stellaview/internal/domain"
	"github.com/couchcryptid/stellaview/internal/observability"
)

// Fallback is returned for any point whose tile is unavailable or unusable.
const Fallback = 0.01

const (
	radianceIDWRadius = 4
	vegetationScale   = 10000
	maxRadiance       = 1e4
)

// Sampler reads one layer. It is safe for concurrent use.
type Sampler struct {
	layer        domain.Layer
	cache        *Cache
	logger       *slog.Logger
	metrics      *observability.Metrics
	radius       int
	defaultScale float64
	min, max     float64

	mu       sync.Mutex
	manifest map[string]struct{}
}

// NewRadianceSampler returns a sampler for artificial-light radiance in
// nW/cm²/sr, smoothed by inverse-distance weighting.
func NewRadianceSampler(cache *Cache, logger *slog.Logger, metrics *observability.Metrics) *Sampler {
	return &Sampler{
		layer:        domain.LayerRadiance,
		cache:        cache,
		logger:       logger,
		metrics:      metrics,
		radius:       radianceIDWRadius,
		defaultScale: 1,
		min:          0,
		max:          maxRadiance,
	}
}

// NewVegetationSampler returns a sampler for NDVI. Raw cells are scaled
// integers (÷10000).
func NewVegetationSampler(cache *Cache, logger *slog.Logger, metrics *observability.Metrics) *Sampler {
	return &Sampler{
		layer:        domain.LayerVegetation,
		cache:        cache,
		logger:       logger,
		metrics:      metrics,
		defaultScale: vegetationScale,
		min:          -1,
		max:          1,
	}
}

// Layer returns the sampled layer.
func (s *Sampler) Layer() domain.Layer { return s.layer }

// Sample returns the layer value at the point, or Fallback.
func (s *Sampler) Sample(ctx context.Context, lat, lon float64) float64 {
	v, ok := s.sample(ctx, lat, lon)
	if !ok {
		s.metrics.TileFallbacks.WithLabelValues(string(s.layer)).Inc()
		return Fallback
	}
	return v
}

func (s *Sampler) sample(ctx context.Context, lat, lon float64) (float64, bool) {
	if !(domain.LatLon{Lat: lat, Lon: lon}).Valid() {
		return 0, false
	}

	id := TileID(s.layer, lat, lon)
	if !s.available(ctx, id) {
		return 0, false
	}

	t, err := s.cache.Tile(ctx, s.layer, id)
	if err != nil {
		s.logger.Warn("tile unavailable, using fallback", "layer", s.layer, "tile", id, "error", err)
		return 0, false
	}

	bounds := bucketBounds(s.layer, lat, lon)
	if t.Bounds != nil && t.Bounds.North > t.Bounds.South && t.Bounds.East > t.Bounds.West {
		bounds = *t.Bounds
	}
	row, col := cellIndex(len(t.Data), len(t.Data[0]), bounds, lat, lon)

	var raw float64
	if s.radius > 0 {
		var ok bool
		if raw, ok = idw(t.Data, row, col, s.radius); !ok {
			return 0, false
		}
	} else {
		raw = t.Data[row][col]
	}

	scale := s.defaultScale
	if t.Scale > 0 {
		scale = t.Scale
	}
	v := raw / scale
	if !finite(v) {
		return 0, false
	}
	return math.Max(s.min, math.Min(s.max, v)), true
}

// available reports whether the manifest lists id. The manifest is loaded
// on first use; a failed load is retried on the next call.
func (s *Sampler) available(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.manifest == nil {
		ids, err := s.cache.Manifest(ctx, s.layer)
		if err != nil {
			s.logger.Warn("tile manifest unavailable", "layer", s.layer, "error", err)
			return false
		}
		s.manifest = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			s.manifest[id] = struct{}{}
		}
	}
	_, ok := s.manifest[id]
	return ok
}

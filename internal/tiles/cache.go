package tiles

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/stellaview/internal/domain"
	"github.com/couchcryptid/stellaview/internal/observability"
)

// Cache keeps fetched tiles for the life of the process. Concurrent requests
// for the same tile share one fetch. Failed fetches are not cached.
type Cache struct {
	source  domain.TileSource
	metrics *observability.Metrics

	group singleflight.Group
	mu    sync.RWMutex
	tiles map[string]domain.Tile
}

// NewCache creates a tile cache in front of source.
func NewCache(source domain.TileSource, metrics *observability.Metrics) *Cache {
	return &Cache{
		source:  source,
		metrics: metrics,
		tiles:   make(map[string]domain.Tile),
	}
}

// Manifest returns the tile ids the source serves for layer. Manifests are
// small and fetched once per sampler, so they bypass the tile map.
func (c *Cache) Manifest(ctx context.Context, layer domain.Layer) ([]string, error) {
	v, err, _ := c.group.Do("manifest:"+string(layer), func() (any, error) {
		return c.source.Manifest(ctx, layer)
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// Tile returns the validated tile, fetching it on first use.
func (c *Cache) Tile(ctx context.Context, layer domain.Layer, id string) (domain.Tile, error) {
	key := string(layer) + "/" + id

	c.mu.RLock()
	t, ok := c.tiles[key]
	c.mu.RUnlock()
	if ok {
		c.metrics.TileCache.WithLabelValues(string(layer), "hit").Inc()
		return t, nil
	}
	c.metrics.TileCache.WithLabelValues(string(layer), "miss").Inc()

	v, err, _ := c.group.Do(key, func() (any, error) {
		t, err := c.source.Tile(ctx, layer, id)
		if err != nil {
			return domain.Tile{}, fmt.Errorf("fetch tile %s: %w", key, err)
		}
		if err := validateTile(t); err != nil {
			return domain.Tile{}, err
		}
		c.mu.Lock()
		c.tiles[key] = t
		c.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return domain.Tile{}, err
	}
	return v.(domain.Tile), nil
}

// Package tiles samples artificial-light radiance and vegetation index
// values from gridded raster tiles.
//
// Tiles are bucketed by coordinate (5° cells for radiance, 10° sinusoidal
// style cells for vegetation). A manifest lists the ids the tile host
// actually serves; coordinates whose tile is absent resolve to the layer's
// fallback value without a fetch. Samplers never return errors: every
// failure degrades to the fallback so that a missing tile cannot abort an
// evaluation.
package tiles

package domain

import (
	"context"
	"time"
)

// WeatherProvider returns hourly cloud cover and temperature forecasts.
type WeatherProvider interface {
	HourlyForecast(ctx context.Context, lat, lon float64, days int, unit TempUnit) (HourlyForecast, error)
}

// AirQualityProvider returns hourly PM2.5 forecasts.
type AirQualityProvider interface {
	HourlyPM25(ctx context.Context, lat, lon float64, days int) (AirSeries, error)
}

// SiteDiscoverer finds candidate sites around a point.
type SiteDiscoverer interface {
	DiscoverSites(ctx context.Context, lat, lon, radiusKm float64) ([]Site, error)
}

// Router returns driving times in minutes from origin to each destination.
// Unroutable destinations are NaN.
type Router interface {
	DriveMinutes(ctx context.Context, origin LatLon, destinations []LatLon) ([]float64, error)
}

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat         float64
	Lon         float64
	DisplayName string
}

// Geocoder converts a free-form place name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (GeocodingResult, error)
}

// Layer names a raster tile layer.
type Layer string

const (
	LayerRadiance   Layer = "radiance"
	LayerVegetation Layer = "vegetation"
)

// Bounds is the geographic extent of a tile.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Tile is a 2-D numeric grid. Row 0 is the northern edge, column 0 the
// western edge.
type Tile struct {
	ID     string      `json:"id"`
	Rows   int         `json:"rows"`
	Cols   int         `json:"cols"`
	Bounds *Bounds     `json:"bounds,omitempty"`
	Scale  float64     `json:"scale,omitempty"`
	Data   [][]float64 `json:"data"`
}

// TileSource serves tile manifests and tiles.
type TileSource interface {
	Manifest(ctx context.Context, layer Layer) ([]string, error)
	Tile(ctx context.Context, layer Layer, id string) (Tile, error)
}

// Sky computes night windows and moon state.
type Sky interface {
	NightWindow(date time.Time, lat, lon float64, opts WindowOptions) (ObservationWindow, error)
	Moon(at time.Time, lat, lon float64) MoonState
}

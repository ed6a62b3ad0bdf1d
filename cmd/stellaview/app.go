package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/stellaview/internal/adapter/nominatim"
	"github.com/couchcryptid/stellaview/internal/adapter/openmeteo"
	"github.com/couchcryptid/stellaview/internal/adapter/osrm"
	"github.com/couchcryptid/stellaview/internal/adapter/overpass"
	"github.com/couchcryptid/stellaview/internal/adapter/tilehost"
	"github.com/couchcryptid/stellaview/internal/adapter/upstream"
	"github.com/couchcryptid/stellaview/internal/astro"
	"github.com/couchcryptid/stellaview/internal/checks"
	"github.com/couchcryptid/stellaview/internal/config"
	"github.com/couchcryptid/stellaview/internal/domain"
	"github.com/couchcryptid/stellaview/internal/observability"
	"github.com/couchcryptid/stellaview/internal/pipeline"
	"github.com/couchcryptid/stellaview/internal/scoring"
	"github.com/couchcryptid/stellaview/internal/tiles"
)

// app holds the wired engine shared by every command.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	recommender *pipeline.Recommender
	geocoder    domain.Geocoder
	tiles       *tilehost.Client
}

func newApp(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*app, error) {
	clock := clockwork.NewRealClock()
	domain.SetClock(clock)

	up := func(provider string) *upstream.Client {
		return upstream.New(provider, cfg.UpstreamTimeout, metrics)
	}

	tileSource, err := tilehost.NewClient(cfg.TileURL, up("tiles"))
	if err != nil {
		return nil, err
	}
	cache := tiles.NewCache(tileSource, metrics)

	scorer, err := loadScorer(cfg.ModelPath, logger)
	if err != nil {
		tileSource.Close()
		return nil, err
	}

	engine := pipeline.NewEngine(pipeline.Deps{
		Sky:        astro.NewSky(),
		Weather:    checks.NewWeatherChecker(openmeteo.NewWeatherClient(cfg.WeatherURL, up("open-meteo")), logger),
		Air:        checks.NewAirChecker(openmeteo.NewAirClient(cfg.AirQualityURL, up("open-meteo-air")), logger),
		Radiance:   tiles.NewRadianceSampler(cache, logger, metrics),
		Vegetation: tiles.NewVegetationSampler(cache, logger, metrics),
		Scorer:     scorer,
		Clock:      clock,
		Logger:     logger,
		Metrics:    metrics,
	}, pipeline.OutlookConfig{
		Days:       cfg.OutlookDays,
		BatchSize:  cfg.OutlookBatchSize,
		BatchPause: cfg.OutlookBatchPause,
	})

	discoverer := overpass.NewClient(cfg.OverpassURL, up("overpass"), logger, overpass.DefaultAttempts, overpass.DefaultRetryStep)
	var router domain.Router
	if cfg.RoutingEnabled {
		router = osrm.NewClient(cfg.OSRMURL, up("osrm"))
	} else {
		logger.Info("routing disabled, drive times are estimated")
	}

	geocoder := nominatim.NewCachedGeocoder(
		nominatim.NewClient(cfg.NominatimURL, up("nominatim"), logger),
		cfg.GeocodeCacheSize,
		metrics,
	)

	return &app{
		cfg:         cfg,
		logger:      logger,
		metrics:     metrics,
		clock:       clock,
		recommender: pipeline.NewRecommender(discoverer, router, engine, logger),
		geocoder:    geocoder,
		tiles:       tileSource,
	}, nil
}

func (a *app) Close() {
	a.tiles.Close()
}

func loadScorer(path string, logger *slog.Logger) (scoring.Scorer, error) {
	if path == "" {
		return scoring.NewHeuristic(), nil
	}
	m, err := scoring.LoadModel(path)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	learned, err := scoring.NewLearned(m)
	if err != nil {
		return nil, err
	}
	logger.Info("learned scorer loaded", "path", path, "trained_at", m.TrainedAt, "final_loss", m.FinalLoss)
	return learned, nil
}

// origin resolves a search origin from explicit coordinates, a place name, or
// the configured default, in that order.
func (a *app) origin(ctx context.Context, place string, lat, lon *float64) (domain.LatLon, string, error) {
	if lat != nil || lon != nil {
		if lat == nil || lon == nil {
			return domain.LatLon{}, "", errors.New("both --lat and --lon are required")
		}
		p := domain.LatLon{Lat: *lat, Lon: *lon}
		return p, p.String(), nil
	}
	if place == "" {
		place = a.cfg.OriginQuery
	}
	if place == "" && a.cfg.HasOrigin {
		p := domain.LatLon{Lat: a.cfg.OriginLat, Lon: a.cfg.OriginLon}
		return p, p.String(), nil
	}
	if place == "" {
		return domain.LatLon{}, "", errors.New("no origin: pass a place, --lat/--lon, or set ORIGIN_LAT/ORIGIN_LON")
	}

	res, err := a.geocoder.Geocode(ctx, place)
	if err != nil {
		return domain.LatLon{}, "", fmt.Errorf("geocode %q: %w", place, err)
	}
	return domain.LatLon{Lat: res.Lat, Lon: res.Lon}, res.DisplayName, nil
}

// date parses YYYY-MM-DD in the configured timezone, defaulting to today.
func (a *app) date(s string) (time.Time, error) {
	loc := a.cfg.Timezone
	if s == "" {
		y, m, d := a.clock.Now().In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// PrefsFlags are the per-search preference overrides shared by commands.
type PrefsFlags struct {
	MaxDrive  float64 `help:"Maximum one-way drive in minutes." default:"60"`
	MaxBortle float64 `help:"Darkest acceptable sky is 1, inner city is 9." default:"4"`
	MinTemp   float64 `help:"Minimum comfortable temperature." default:"40"`
	MaxTemp   float64 `help:"Maximum comfortable temperature." default:"95"`
	Curfew    string  `help:"Latest return time (HH:MM), empty for none." default:"02:00"`
	Celsius   bool    `help:"Temperatures are in Celsius."`
	Lead      int     `help:"Minutes of slack before the best start time." default:"30"`
	Radius    float64 `help:"Site search radius in km, default from SEARCH_RADIUS_KM."`
}

func (f PrefsFlags) preferences() domain.Preferences {
	p := domain.Preferences{
		MaxDriveMinutes:      f.MaxDrive,
		MinTemp:              f.MinTemp,
		MaxTemp:              f.MaxTemp,
		MaxBortle:            f.MaxBortle,
		Curfew:               f.Curfew,
		TempUnit:             domain.Fahrenheit,
		DepartureLeadMinutes: f.Lead,
	}
	if f.Celsius {
		p.TempUnit = domain.Celsius
	}
	return p
}

func (f PrefsFlags) radius(cfg *config.Config) float64 {
	if f.Radius > 0 {
		return f.Radius
	}
	return cfg.RadiusKm
}

// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers    []string
	KafkaTopic      string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Publisher schedule and the fixed search it runs. Dates and curfews are
	// interpreted in Timezone.
	PublishInterval time.Duration
	OriginQuery     string
	OriginLat       float64
	OriginLon       float64
	HasOrigin       bool
	RadiusKm        float64
	Timezone        *time.Location

	// Upstream providers.
	UpstreamTimeout  time.Duration
	WeatherURL       string
	AirQualityURL    string
	OverpassURL      string
	OSRMURL          string
	NominatimURL     string
	TileURL          string
	RoutingEnabled   bool
	GeocodeCacheSize int

	// Engine tuning.
	ModelPath         string
	OutlookDays       int
	OutlookBatchSize  int
	OutlookBatchPause time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	var errs []error
	cfg := &Config{
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "stellaview-recommendations"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		PublishInterval: parseDuration("PUBLISH_INTERVAL", time.Hour, &errs),
		OriginQuery:     os.Getenv("ORIGIN_QUERY"),
		RadiusKm:        parsePositiveFloat("SEARCH_RADIUS_KM", 100, &errs),
		Timezone:        parseLocation("TIMEZONE", &errs),

		UpstreamTimeout:  parseDuration("UPSTREAM_TIMEOUT", 10*time.Second, &errs),
		WeatherURL:       sharedcfg.EnvOrDefault("WEATHER_URL", "https://api.open-meteo.com"),
		AirQualityURL:    sharedcfg.EnvOrDefault("AIR_QUALITY_URL", "https://air-quality-api.open-meteo.com"),
		OverpassURL:      sharedcfg.EnvOrDefault("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		OSRMURL:          sharedcfg.EnvOrDefault("OSRM_URL", "https://router.project-osrm.org"),
		NominatimURL:     sharedcfg.EnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		TileURL:          sharedcfg.EnvOrDefault("TILE_URL", "http://localhost:8081/tiles"),
		RoutingEnabled:   os.Getenv("ROUTING_ENABLED") != "false",
		GeocodeCacheSize: parsePositiveInt("GEOCODE_CACHE_SIZE", 1000, &errs),

		ModelPath:         os.Getenv("MODEL_PATH"),
		OutlookDays:       parsePositiveInt("OUTLOOK_DAYS", 7, &errs),
		OutlookBatchSize:  parsePositiveInt("OUTLOOK_BATCH_SIZE", 5, &errs),
		OutlookBatchPause: parseDuration("OUTLOOK_BATCH_PAUSE", 0, &errs),
	}

	lat, hasLat := os.LookupEnv("ORIGIN_LAT")
	lon, hasLon := os.LookupEnv("ORIGIN_LON")
	if hasLat || hasLon {
		cfg.OriginLat, cfg.OriginLon, err = parseOrigin(lat, lon)
		if err != nil {
			errs = append(errs, err)
		}
		cfg.HasOrigin = err == nil
	}

	if len(cfg.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required"))
	}
	if cfg.KafkaTopic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required"))
	}
	if cfg.OutlookDays > 16 {
		errs = append(errs, errors.New("OUTLOOK_DAYS must be at most 16"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseOrigin(latStr, lonStr string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("invalid ORIGIN_LAT %q", latStr)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, fmt.Errorf("invalid ORIGIN_LON %q", lonStr)
	}
	return lat, lon, nil
}

func parseLocation(key string, errs *[]error) *time.Location {
	name := os.Getenv(key)
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s %q: %w", key, name, err))
		return time.Local
	}
	return loc
}

func parseDuration(key string, def time.Duration, errs *[]error) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		*errs = append(*errs, fmt.Errorf("invalid %s %q", key, s))
		return def
	}
	return d
}

func parsePositiveInt(key string, def int, errs *[]error) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		*errs = append(*errs, fmt.Errorf("invalid %s %q", key, s))
		return def
	}
	return n
}

func parsePositiveFloat(key string, def float64, errs *[]error) float64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		*errs = append(*errs, fmt.Errorf("invalid %s %q", key, s))
		return def
	}
	return f
}

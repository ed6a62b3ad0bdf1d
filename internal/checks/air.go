package checks

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/stellaview/internal/domain"
)

const (
	// MaxPM25 is the highest acceptable PM2.5 concentration in µg/m³.
	MaxPM25 = 35.0
	// FallbackPM25 is assumed when no air-quality data is available.
	FallbackPM25 = 10.0

	maxAirDays = 7
)

// AirQuality judges the first available PM2.5 sample at or after from (the
// first sample when from is zero). Missing data passes with FallbackPM25.
func AirQuality(s domain.AirSeries, from time.Time) domain.Verdict {
	n := min(len(s.Times), len(s.PM25))
	for i := 0; i < n; i++ {
		if !from.IsZero() && s.Times[i].Before(from) {
			continue
		}
		pm := s.PM25[i]
		if math.IsNaN(pm) || math.IsInf(pm, 0) {
			continue
		}
		if pm > MaxPM25 {
			return domain.Verdict{Reason: domain.ReasonAQI, PM25: pm}
		}
		return domain.Verdict{OK: true, PM25: pm}
	}
	return fallbackAir()
}

func fallbackAir() domain.Verdict {
	return domain.Verdict{OK: true, PM25: FallbackPM25, Fallback: true}
}

// AirChecker fetches PM2.5 series and applies AirQuality.
type AirChecker struct {
	provider domain.AirQualityProvider
	logger   *slog.Logger
}

// NewAirChecker creates an AirChecker.
func NewAirChecker(provider domain.AirQualityProvider, logger *slog.Logger) *AirChecker {
	return &AirChecker{provider: provider, logger: logger}
}

// Check judges air quality at the site from the given instant. Upstream
// failures degrade to the fallback verdict.
func (c *AirChecker) Check(ctx context.Context, site domain.Site, from time.Time) domain.Verdict {
	s, err := c.Series(ctx, site, AirDays(domain.Clock().Now(), from))
	if err != nil {
		c.logger.Warn("air quality unavailable, assuming clean air", "site", site.Name, "error", err)
		return fallbackAir()
	}
	return AirQuality(s, from)
}

// Series fetches the PM2.5 series for the site.
func (c *AirChecker) Series(ctx context.Context, site domain.Site, days int) (domain.AirSeries, error) {
	return c.provider.HourlyPM25(ctx, site.Lat, site.Lon, days)
}

// AirDays returns the forecast days needed to reach from, capped at the
// provider's seven-day horizon.
func AirDays(now, from time.Time) int {
	days := int(math.Ceil(from.Sub(now).Hours()/24)) + 1
	return max(1, min(days, maxAirDays))
}

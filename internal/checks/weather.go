// Package checks holds the signal checkers that pass or fail a site on
// weather and air quality for one observation window.
package checks

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/stellaview/internal/domain"
)

const (
	// MaxCloudCover is the highest acceptable cloud cover (%) at the best hour.
	MaxCloudCover = 20.0
	// ClearSkyCloudCover is the cloud cover (%) below which an hour counts
	// toward the clear-sky run.
	ClearSkyCloudCover = 25.0

	minForecastDays = 2
	maxForecastDays = 16
)

// WeatherWindow judges an hourly forecast against a window and the caller's
// temperature bounds. The best hour is the in-window hour with the least
// cloud cover, the earliest one on ties.
func WeatherWindow(f domain.HourlyForecast, w domain.ObservationWindow, prefs domain.Preferences) domain.Verdict {
	var idx []int
	for i := 0; i < f.Len(); i++ {
		if !w.Contains(f.Times[i]) || math.IsNaN(f.CloudCover[i]) || math.IsNaN(f.Temperature[i]) {
			continue
		}
		idx = append(idx, i)
	}
	if len(idx) == 0 {
		return domain.Fail(domain.ReasonOutOfRange)
	}

	best := 0
	var cloudSum, tempSum float64
	for k, i := range idx {
		if f.CloudCover[i] < f.CloudCover[idx[best]] {
			best = k
		}
		cloudSum += f.CloudCover[i]
		tempSum += temperatureIn(f.Temperature[i], f.Unit, prefs.TempUnit)
	}

	bi := idx[best]
	v := domain.Verdict{
		BestTime:      f.Times[bi],
		CloudCover:    f.CloudCover[bi],
		Temperature:   temperatureIn(f.Temperature[bi], f.Unit, prefs.TempUnit),
		AvgCloudCover: cloudSum / float64(len(idx)),
		AvgTemp:       tempSum / float64(len(idx)),
	}

	switch {
	case v.CloudCover > MaxCloudCover:
		v.Reason = domain.ReasonClouds
	case v.Temperature < prefs.MinTemp:
		v.Reason = domain.ReasonCold
	case v.Temperature > prefs.MaxTemp:
		v.Reason = domain.ReasonHot
	default:
		v.OK = true
		v.ClearSkyHours = clearRun(f, idx[best:])
	}
	return v
}

// clearRun counts consecutive hours, starting at idx[0], below the clear-sky
// cloud threshold.
func clearRun(f domain.HourlyForecast, idx []int) float64 {
	var hours float64
	for k, i := range idx {
		if f.CloudCover[i] >= ClearSkyCloudCover {
			break
		}
		if k > 0 && f.Times[i].Sub(f.Times[idx[k-1]]) > time.Hour {
			break
		}
		hours++
	}
	return hours
}

func temperatureIn(t float64, from, to domain.TempUnit) float64 {
	if from == "" || from == to {
		return t
	}
	if to == domain.Celsius {
		return domain.ToCelsius(t, from)
	}
	return domain.ToFahrenheit(t, from)
}

// WeatherChecker fetches forecasts and applies WeatherWindow.
type WeatherChecker struct {
	provider domain.WeatherProvider
	logger   *slog.Logger
}

// NewWeatherChecker creates a WeatherChecker.
func NewWeatherChecker(provider domain.WeatherProvider, logger *slog.Logger) *WeatherChecker {
	return &WeatherChecker{provider: provider, logger: logger}
}

// Check judges the site's weather over the window. When cached is non-nil it
// is used instead of fetching. A failed fetch yields a no_data verdict.
func (c *WeatherChecker) Check(ctx context.Context, site domain.Site, w domain.ObservationWindow, prefs domain.Preferences, cached *domain.HourlyForecast) domain.Verdict {
	if cached != nil {
		return WeatherWindow(*cached, w, prefs)
	}
	f, err := c.Forecast(ctx, site, ForecastDays(domain.Clock().Now(), w.End), prefs.TempUnit)
	if err != nil {
		c.logger.Warn("weather forecast unavailable", "site", site.Name, "error", err)
		return domain.Fail(domain.ReasonNoData)
	}
	return WeatherWindow(f, w, prefs)
}

// Forecast fetches the hourly forecast for the site.
func (c *WeatherChecker) Forecast(ctx context.Context, site domain.Site, days int, unit domain.TempUnit) (domain.HourlyForecast, error) {
	return c.provider.HourlyForecast(ctx, site.Lat, site.Lon, days, unit)
}

// ForecastDays returns how many forecast days are needed to cover until.
func ForecastDays(now, until time.Time) int {
	days := int(math.Ceil(until.Sub(now).Hours()/24)) + 1
	if days < minForecastDays {
		return minForecastDays
	}
	if days > maxForecastDays {
		return maxForecastDays
	}
	return days
}

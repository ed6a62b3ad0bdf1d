package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/stellaview/internal/astro"
	"github.com/couchcryptid/stellaview/internal/checks"
	"github.com/couchcryptid/stellaview/internal/domain"
)

// OutlookConfig paces the weekly outlook.
type OutlookConfig struct {
	Days       int
	BatchSize  int
	BatchPause time.Duration
	TopN       int
}

func (c OutlookConfig) withDefaults() OutlookConfig {
	if c.Days <= 0 {
		c.Days = 7
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 5
	}
	if c.BatchPause < 0 {
		c.BatchPause = 0
	}
	if c.TopN <= 0 {
		c.TopN = 5
	}
	return c
}

// OutlookQuery asks for the best upcoming night.
type OutlookQuery struct {
	Origin     domain.LatLon
	From       time.Time
	Prefs      domain.Preferences
	Candidates []Candidate
}

// Outlook is the nearest night with qualifying sites.
type Outlook struct {
	Date       time.Time                    `json:"date,omitempty"`
	Sites      []domain.EvaluationResult    `json:"sites"`
	TopFailure domain.FailureReason         `json:"top_failure"`
	Failures   map[domain.FailureReason]int `json:"failures,omitempty"`
}

type dayResult struct {
	day    int
	result domain.EvaluationResult
}

// WeeklyOutlook evaluates candidates over the coming days using nautical
// twilight and returns the top sites of the nearest night with any result.
// Sites are processed in batches with a pause between batches.
func (e *Engine) WeeklyOutlook(ctx context.Context, gen Generation, q OutlookQuery) (Outlook, error) {
	e.Metrics.Searches.WithLabelValues("week").Inc()
	cfg := e.outlook

	var eligible []Candidate
	travel := make(map[string]float64)
	sources := make(map[string]domain.TravelSource)
	for _, c := range q.Candidates {
		minutes, source := e.travel(c, q.Origin)
		if minutes > q.Prefs.MaxDriveMinutes {
			continue
		}
		travel[c.Site.ID] = minutes
		sources[c.Site.ID] = source
		eligible = append(eligible, c)
	}

	tally := NewTally()
	var days []dayResult
	for start := 0; start < len(eligible); start += cfg.BatchSize {
		if start > 0 && cfg.BatchPause > 0 {
			select {
			case <-ctx.Done():
				return Outlook{}, ctx.Err()
			case <-e.Clock.After(cfg.BatchPause):
			}
		}

		batch := eligible[start:min(start+cfg.BatchSize, len(eligible))]
		perSite := make([][]dayResult, len(batch))

		g, gctx := errgroup.WithContext(ctx)
		for i, c := range batch {
			g.Go(func() error {
				defer e.recoverSite(c.Site)
				m := siteMeasure{travel: travel[c.Site.ID], source: sources[c.Site.ID]}
				perSite[i] = e.outlookSite(gctx, c.Site, m, q, tally)
				return nil
			})
		}
		_ = g.Wait()
		e.Metrics.OutlookBatches.Inc()

		for _, rs := range perSite {
			days = append(days, rs...)
		}
		if err := ctx.Err(); err != nil {
			return Outlook{}, err
		}
	}

	if err := e.checkCurrent(gen); err != nil {
		return Outlook{}, err
	}

	out := Outlook{Sites: []domain.EvaluationResult{}, Failures: tally.Counts(), TopFailure: tally.Top()}
	best := -1
	for _, d := range days {
		if best == -1 || d.day < best {
			best = d.day
		}
	}
	if best == -1 {
		return out, nil
	}

	out.Date = dayStart(q.From).AddDate(0, 0, best)
	for _, d := range days {
		if d.day == best {
			out.Sites = append(out.Sites, d.result)
		}
	}
	sortResults(out.Sites)
	if len(out.Sites) > cfg.TopN {
		out.Sites = out.Sites[:cfg.TopN]
	}

	e.Logger.Info("weekly outlook complete",
		"candidates", len(q.Candidates),
		"date", out.Date.Format(time.DateOnly),
		"qualified", len(out.Sites),
	)
	return out, nil
}

type siteMeasure struct {
	travel float64
	source domain.TravelSource
}

// outlookSite fetches one multi-day forecast and air series for the site and
// evaluates each day against them.
func (e *Engine) outlookSite(ctx context.Context, site domain.Site, sm siteMeasure, q OutlookQuery, tally *Tally) []dayResult {
	cfg := e.outlook
	prefs := q.Prefs

	radiance := e.Radiance.Sample(ctx, site.Lat, site.Lon)
	if domain.RadianceToBortle(radiance) > prefs.MaxBortle {
		return nil
	}
	ndvi := e.Vegetation.Sample(ctx, site.Lat, site.Lon)

	forecast, err := e.Weather.Forecast(ctx, site, cfg.Days+1, prefs.TempUnit)
	if err != nil {
		e.Logger.Warn("outlook forecast unavailable", "site", site.Name, "error", err)
		e.fail(site, domain.ReasonNoData, tally)
		return nil
	}
	air, airErr := e.Air.Series(ctx, site, cfg.Days)
	if airErr != nil {
		e.Logger.Warn("outlook air quality unavailable, assuming clean air", "site", site.Name, "error", airErr)
	}

	now := e.Clock.Now()
	var out []dayResult
	for day := 0; day < cfg.Days; day++ {
		date := dayStart(q.From).AddDate(0, 0, day)
		window, err := e.Sky.NightWindow(date, site.Lat, site.Lon, domain.WindowOptions{
			Twilight: domain.Nautical,
			Curfew:   prefs.Curfew,
			Now:      now,
		})
		if err != nil {
			continue
		}

		moon := e.Sky.Moon(window.Start, site.Lat, site.Lon)
		if moon.Illumination > globalMoonIllumination && astro.MoonUpDuring(e.Sky, window, site.Lat, site.Lon) {
			e.fail(site, domain.ReasonMoon, tally)
			continue
		}

		weather := checks.WeatherWindow(forecast, window, prefs)
		if !weather.OK {
			e.fail(site, weather.Reason, tally)
			continue
		}
		airVerdict := checks.AirQuality(air, window.Start)
		if !airVerdict.OK {
			e.fail(site, domain.ReasonAQI, tally)
			continue
		}

		res, err := e.score(measurement{
			site:          site,
			window:        window,
			weather:       weather,
			air:           airVerdict,
			moon:          e.Sky.Moon(weather.BestTime, site.Lat, site.Lon),
			radiance:      radiance,
			ndvi:          ndvi,
			travelMinutes: sm.travel,
			travelSource:  sm.source,
		}, q.Origin, prefs)
		if err != nil {
			e.Logger.Warn("outlook day skipped", "site", site.Name, "day", day, "error", err)
			continue
		}
		out = append(out, dayResult{day: day, result: res})
	}
	return out
}

// dayStart truncates t to midnight in its own location.
func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// String summarizes the outlook for logs and CLI output.
func (o Outlook) String() string {
	if len(o.Sites) == 0 {
		return fmt.Sprintf("no qualifying nights (top failure: %s)", o.TopFailure)
	}
	return fmt.Sprintf("%d sites on %s", len(o.Sites), o.Date.Format(time.DateOnly))
}

// Package pipeline evaluates candidate sites for a night, aggregates a weekly
// outlook when tonight fails, and publishes recommendations.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/stellaview/internal/astro"
	"github.com/couchcryptid/stellaview/internal/checks"
	"github.com/couchcryptid/stellaview/internal/domain"
	"github.com/couchcryptid/stellaview/internal/observability"
	"github.com/couchcryptid/stellaview/internal/scoring"
)

const (
	// globalMoonIllumination and siteMoonIllumination are the moon
	// brightness thresholds for the search-wide and per-site moon checks.
	globalMoonIllumination = 0.8
	siteMoonIllumination   = 0.2

	defaultConcurrency = 16
)

// Sampler returns a raster value at a point. It never fails; unavailable
// data yields a fallback.
type Sampler interface {
	Sample(ctx context.Context, lat, lon float64) float64
}

// Candidate is a site with its travel time when a router supplied one.
type Candidate struct {
	Site domain.Site
	// TravelMinutes is the routed drive time. NaN or a false Routed means
	// the engine estimates it.
	TravelMinutes float64
	Routed        bool
}

// NightQuery asks for the best sites on one night.
type NightQuery struct {
	Origin     domain.LatLon
	Date       time.Time
	Prefs      domain.Preferences
	Candidates []Candidate
}

// Outcome is the result of FindBestSites. TopFailure is meaningful when
// Sites is empty.
type Outcome struct {
	Sites      []domain.EvaluationResult    `json:"sites"`
	TopFailure domain.FailureReason         `json:"top_failure"`
	Failures   map[domain.FailureReason]int `json:"failures,omitempty"`
	Window     domain.ObservationWindow     `json:"window"`
	Moon       domain.MoonState             `json:"moon"`
	Skipped    int                          `json:"skipped,omitempty"`
}

// Deps are the collaborators of an Engine.
type Deps struct {
	Sky        domain.Sky
	Weather    *checks.WeatherChecker
	Air        *checks.AirChecker
	Radiance   Sampler
	Vegetation Sampler
	Scorer     scoring.Scorer
	Sessions   *Sessions
	Clock      clockwork.Clock
	Logger     *slog.Logger
	Metrics    *observability.Metrics
}

// Engine runs site evaluations. It is safe for concurrent use.
type Engine struct {
	Deps
	concurrency int
	outlook     OutlookConfig
}

// NewEngine creates an Engine. A nil Sessions or Clock gets a default.
func NewEngine(d Deps, outlook OutlookConfig) *Engine {
	if d.Sessions == nil {
		d.Sessions = &Sessions{}
	}
	if d.Clock == nil {
		d.Clock = domain.Clock()
	}
	return &Engine{Deps: d, concurrency: defaultConcurrency, outlook: outlook.withDefaults()}
}

// Begin starts a new search generation, superseding any running search.
func (e *Engine) Begin() Generation {
	return e.Sessions.Begin()
}

// FindBestSites evaluates every candidate for the night of q.Date and returns
// the qualifying sites ranked by score.
func (e *Engine) FindBestSites(ctx context.Context, gen Generation, q NightQuery) (Outcome, error) {
	start := e.Clock.Now()
	e.Metrics.Searches.WithLabelValues("tonight").Inc()

	window, err := e.Sky.NightWindow(q.Date, q.Origin.Lat, q.Origin.Lon, domain.WindowOptions{
		Twilight: domain.Astronomical,
		Curfew:   q.Prefs.Curfew,
		Now:      start,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("night window: %w", err)
	}

	moon := e.Sky.Moon(window.Start, q.Origin.Lat, q.Origin.Lon)
	out := Outcome{Window: window, Moon: moon}

	if moon.Illumination > globalMoonIllumination && astro.MoonUpThroughout(e.Sky, window, q.Origin.Lat, q.Origin.Lon) {
		e.Logger.Info("moon up all night, skipping evaluation",
			"illumination", moon.Illumination, "window_start", window.Start, "window_end", window.End)
		if err := e.checkCurrent(gen); err != nil {
			return Outcome{}, err
		}
		out.TopFailure = domain.ReasonMoon
		out.Sites = []domain.EvaluationResult{}
		return out, nil
	}
	if err := e.checkCurrent(gen); err != nil {
		return Outcome{}, err
	}

	tally := NewTally()
	results := make([]*domain.EvaluationResult, len(q.Candidates))
	skipped := make([]bool, len(q.Candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, c := range q.Candidates {
		g.Go(func() error {
			defer e.recoverSite(c.Site)
			results[i], skipped[i] = e.evaluate(gctx, c, window, q, tally)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	if err := e.checkCurrent(gen); err != nil {
		return Outcome{}, err
	}

	out.Sites = collect(results)
	for _, s := range skipped {
		if s {
			out.Skipped++
		}
	}
	out.Failures = tally.Counts()
	out.TopFailure = tally.Top()

	e.Metrics.EvaluationDuration.Observe(e.Clock.Since(start).Seconds())
	e.Logger.Info("evaluation complete",
		"candidates", len(q.Candidates),
		"qualified", len(out.Sites),
		"top_failure", out.TopFailure,
	)
	return out, nil
}

// evaluate runs one candidate through the filters and checks. It returns
// the result on success, and whether the site was skipped for bad data.
func (e *Engine) evaluate(ctx context.Context, c Candidate, window domain.ObservationWindow, q NightQuery, tally *Tally) (*domain.EvaluationResult, bool) {
	site := c.Site
	prefs := q.Prefs

	travel, source := e.travel(c, q.Origin)
	if travel > prefs.MaxDriveMinutes {
		e.Metrics.SiteOutcomes.WithLabelValues("filtered").Inc()
		e.Logger.Debug("site filtered", "site", site.Name, "reason", "drive", "minutes", travel)
		return nil, false
	}

	radiance := e.Radiance.Sample(ctx, site.Lat, site.Lon)
	bortle := domain.RadianceToBortle(radiance)
	if bortle > prefs.MaxBortle {
		e.Metrics.SiteOutcomes.WithLabelValues("filtered").Inc()
		e.Logger.Debug("site filtered", "site", site.Name, "reason", "bortle", "bortle", bortle)
		return nil, false
	}

	var (
		weather domain.Verdict
		air     domain.Verdict
		ndvi    float64
	)
	var g errgroup.Group
	g.Go(func() error {
		weather = e.Weather.Check(ctx, site, window, prefs, nil)
		return nil
	})
	g.Go(func() error {
		air = e.Air.Check(ctx, site, window.Start)
		return nil
	})
	g.Go(func() error {
		ndvi = e.Vegetation.Sample(ctx, site.Lat, site.Lon)
		return nil
	})
	_ = g.Wait()

	if !weather.OK || !air.OK {
		reason := domain.ReasonAQI
		if !weather.OK {
			reason = weather.Reason
		}
		e.fail(site, reason, tally)
		return nil, false
	}

	moon := e.Sky.Moon(weather.BestTime, site.Lat, site.Lon)
	if moon.Illumination > siteMoonIllumination && moon.Up() {
		e.fail(site, domain.ReasonMoon, tally)
		return nil, false
	}

	m := measurement{
		site:          site,
		window:        window,
		weather:       weather,
		air:           air,
		moon:          moon,
		radiance:      radiance,
		ndvi:          ndvi,
		travelMinutes: travel,
		travelSource:  source,
	}
	res, err := e.score(m, q.Origin, prefs)
	if err != nil {
		e.Metrics.SiteOutcomes.WithLabelValues("skipped").Inc()
		e.Logger.Warn("site skipped", "site", site.Name, "error", err)
		return nil, true
	}
	e.Metrics.SiteOutcomes.WithLabelValues("success").Inc()
	return &res, false
}

func (e *Engine) travel(c Candidate, origin domain.LatLon) (float64, domain.TravelSource) {
	if c.Routed && !math.IsNaN(c.TravelMinutes) && !math.IsInf(c.TravelMinutes, 0) {
		return c.TravelMinutes, domain.TravelRouted
	}
	return astro.DriveTimeEstimate(origin, c.Site.Position()), domain.TravelEstimated
}

func (e *Engine) fail(site domain.Site, reason domain.FailureReason, tally *Tally) {
	tally.Add(reason)
	e.Metrics.SiteOutcomes.WithLabelValues("failure").Inc()
	e.Metrics.FailureReasons.WithLabelValues(string(reason)).Inc()
	e.Logger.Debug("site failed", "site", site.Name, "reason", reason)
}

func (e *Engine) checkCurrent(gen Generation) error {
	if gen != 0 && !e.Sessions.IsCurrent(gen) {
		e.Metrics.SearchesDiscarded.Inc()
		return ErrStaleSearch
	}
	return nil
}

// recoverSite isolates a panicking site evaluation from the rest.
func (e *Engine) recoverSite(site domain.Site) {
	if r := recover(); r != nil {
		e.Metrics.SiteOutcomes.WithLabelValues("skipped").Inc()
		e.Logger.Error("site evaluation panicked", "site", site.Name, "panic", r, "stack", string(debug.Stack()))
	}
}

// collect drops nil results and orders by score, then name.
func collect(results []*domain.EvaluationResult) []domain.EvaluationResult {
	out := make([]domain.EvaluationResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	sortResults(out)
	return out
}

func sortResults(rs []domain.EvaluationResult) {
	slices.SortStableFunc(rs, func(a, b domain.EvaluationResult) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Site.Name, b.Site.Name)
	})
}

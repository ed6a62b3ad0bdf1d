package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/stellaview/internal/domain"
)

// DefaultRadiusKm bounds site discovery when a request does not.
const DefaultRadiusKm = 100.0

// RecommendRequest asks where to go stargazing from Origin on Date.
type RecommendRequest struct {
	Origin   domain.LatLon      `json:"origin"`
	Date     time.Time          `json:"date"`
	Prefs    domain.Preferences `json:"prefs"`
	RadiusKm float64            `json:"radius_km,omitempty"`
	// SkipOutlook disables the weekly fallback.
	SkipOutlook bool `json:"skip_outlook,omitempty"`
}

// Recommendation is the answer to a RecommendRequest. Outlook is set only
// when no site qualified tonight.
type Recommendation struct {
	SearchID   string        `json:"search_id"`
	Generation Generation    `json:"generation"`
	Origin     domain.LatLon `json:"origin"`
	Date       time.Time     `json:"date"`
	Tonight    *Outcome      `json:"tonight,omitempty"`
	Outlook    *Outlook      `json:"outlook,omitempty"`
	Message    string        `json:"message"`
	CreatedAt  time.Time     `json:"created_at"`
	Candidates int           `json:"candidates"`
}

// Recommender discovers candidate sites, routes to them, and runs the
// engine, falling back to the weekly outlook when tonight has no answer.
type Recommender struct {
	discoverer domain.SiteDiscoverer
	router     domain.Router
	engine     *Engine
	logger     *slog.Logger
}

// NewRecommender creates a Recommender. A nil router means every travel time
// is estimated.
func NewRecommender(discoverer domain.SiteDiscoverer, router domain.Router, engine *Engine, logger *slog.Logger) *Recommender {
	return &Recommender{discoverer: discoverer, router: router, engine: engine, logger: logger}
}

// Recommend runs a full search. A newer call supersedes this one, in which
// case ErrStaleSearch is returned.
func (r *Recommender) Recommend(ctx context.Context, req RecommendRequest) (Recommendation, error) {
	if err := validate(req); err != nil {
		return Recommendation{}, err
	}

	gen := r.engine.Begin()
	rec := Recommendation{
		SearchID:   uuid.NewString(),
		Generation: gen,
		Origin:     req.Origin,
		Date:       req.Date,
		CreatedAt:  r.engine.Clock.Now(),
	}
	logger := r.logger.With("search_id", rec.SearchID)

	candidates, err := r.discover(ctx, logger, req)
	if err != nil {
		return Recommendation{}, err
	}
	rec.Candidates = len(candidates)

	tonight, err := r.engine.FindBestSites(ctx, gen, NightQuery{
		Origin:     req.Origin,
		Date:       req.Date,
		Prefs:      req.Prefs,
		Candidates: candidates,
	})
	switch {
	case err == nil:
		rec.Tonight = &tonight
		if len(tonight.Sites) > 0 {
			rec.Message = fmt.Sprintf("%d sites look good tonight. Best: %s.", len(tonight.Sites), tonight.Sites[0].Site.Name)
			return rec, nil
		}
	case errors.Is(err, ErrStaleSearch), ctx.Err() != nil:
		return Recommendation{}, err
	default:
		// No usable window tonight (midnight sun, curfew already passed);
		// the outlook may still find a night.
		logger.Warn("tonight unavailable", "error", err)
	}

	reason := domain.ReasonNoData
	if rec.Tonight != nil {
		reason = rec.Tonight.TopFailure
	}
	if req.SkipOutlook {
		rec.Message = reason.Message()
		return rec, nil
	}

	outlook, err := r.engine.WeeklyOutlook(ctx, gen, OutlookQuery{
		Origin:     req.Origin,
		From:       req.Date,
		Prefs:      req.Prefs,
		Candidates: candidates,
	})
	if err != nil {
		return Recommendation{}, err
	}
	rec.Outlook = &outlook
	rec.Message = reason.Message()
	if len(outlook.Sites) > 0 {
		rec.Message += fmt.Sprintf(" The next good night is %s.", outlook.Date.Format("Monday, Jan 2"))
	}
	return rec, nil
}

// Week runs only the weekly outlook for a request, without trying tonight
// first.
func (r *Recommender) Week(ctx context.Context, req RecommendRequest) (Outlook, error) {
	if err := validate(req); err != nil {
		return Outlook{}, err
	}

	gen := r.engine.Begin()
	candidates, err := r.discover(ctx, r.logger, req)
	if err != nil {
		return Outlook{}, err
	}
	return r.engine.WeeklyOutlook(ctx, gen, OutlookQuery{
		Origin:     req.Origin,
		From:       req.Date,
		Prefs:      req.Prefs,
		Candidates: candidates,
	})
}

func validate(req RecommendRequest) error {
	if err := req.Prefs.Validate(); err != nil {
		return err
	}
	if !req.Origin.Valid() {
		return fmt.Errorf("invalid origin %v", req.Origin)
	}
	return nil
}

// discover finds sites around the origin and routes to them.
func (r *Recommender) discover(ctx context.Context, logger *slog.Logger, req RecommendRequest) ([]Candidate, error) {
	radius := req.RadiusKm
	if radius <= 0 {
		radius = DefaultRadiusKm
	}
	sites, err := r.discoverer.DiscoverSites(ctx, req.Origin.Lat, req.Origin.Lon, radius)
	if err != nil {
		return nil, fmt.Errorf("discover sites: %w", err)
	}
	candidates := r.route(ctx, logger, req.Origin, sites)
	logger.Info("candidates discovered", "count", len(candidates), "radius_km", radius)
	return candidates, nil
}

// route attaches routed drive times. Routing failures leave candidates to
// the engine's estimate.
func (r *Recommender) route(ctx context.Context, logger *slog.Logger, origin domain.LatLon, sites []domain.Site) []Candidate {
	candidates := make([]Candidate, len(sites))
	for i, s := range sites {
		candidates[i] = Candidate{Site: s, TravelMinutes: math.NaN()}
	}
	if r.router == nil || len(sites) == 0 {
		return candidates
	}

	dests := make([]domain.LatLon, len(sites))
	for i, s := range sites {
		dests[i] = s.Position()
	}
	minutes, err := r.router.DriveMinutes(ctx, origin, dests)
	if err != nil {
		logger.Warn("routing unavailable, estimating drive times", "error", err)
		return candidates
	}
	for i := range candidates {
		if i < len(minutes) && !math.IsNaN(minutes[i]) {
			candidates[i].TravelMinutes = minutes[i]
			candidates[i].Routed = true
		}
	}
	return candidates
}

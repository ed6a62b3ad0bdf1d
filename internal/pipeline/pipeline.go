package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/stellaview/internal/observability"
)

// Loader writes a recommendation to its destination.
type Loader interface {
	Load(ctx context.Context, rec Recommendation) error
}

// RequestFunc builds the request for one publishing cycle.
type RequestFunc func(now time.Time) RecommendRequest

// Publisher periodically runs a recommendation for a fixed origin and loads
// it to a sink.
type Publisher struct {
	recommender *Recommender
	loader      Loader
	request     RequestFunc
	interval    time.Duration
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	latest      atomic.Pointer[Recommendation]
}

// NewPublisher creates a Publisher that runs every interval.
func NewPublisher(r *Recommender, l Loader, request RequestFunc, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	return &Publisher{
		recommender: r,
		loader:      l,
		request:     request,
		interval:    interval,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once a recommendation has been published.
func (p *Publisher) CheckReadiness(_ context.Context) error {
	if p.latest.Load() == nil {
		return errors.New("no recommendation published yet")
	}
	return nil
}

// Latest returns the most recently published recommendation.
func (p *Publisher) Latest() (Recommendation, bool) {
	rec := p.latest.Load()
	if rec == nil {
		return Recommendation{}, false
	}
	return *rec, true
}

// Run publishes until the context is cancelled. Failed cycles are retried
// with exponential backoff before waiting for the next interval.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("publisher started", "interval", p.interval)
	p.metrics.ServiceRunning.Set(1)
	defer p.metrics.ServiceRunning.Set(0)

	// Start at 1s, double each retry, cap at 1m.
	backoff := time.Second
	maxBackoff := time.Minute

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("publisher stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if err := p.PublishOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("publish failed", "error", err, "retry_in", backoff)
			if !p.sleep(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}

		backoff = time.Second
		if !p.sleep(ctx, p.interval) {
			return nil
		}
	}
}

// PublishOnce runs one recommendation and loads it.
func (p *Publisher) PublishOnce(ctx context.Context) error {
	req := p.request(p.clock.Now())
	rec, err := p.recommender.Recommend(ctx, req)
	if err != nil {
		return err
	}
	if err := p.loader.Load(ctx, rec); err != nil {
		return err
	}
	p.metrics.RecommendationsPublished.Inc()
	p.latest.Store(&rec)
	p.logger.Info("recommendation published", "search_id", rec.SearchID, "message", rec.Message)
	return nil
}

func (p *Publisher) sleep(ctx context.Context, d time.Duration) bool {
	return sleepWithContext(ctx, p.clock, d)
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

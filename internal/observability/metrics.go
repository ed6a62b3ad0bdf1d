package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stellaview"

// Metrics holds the Prometheus counters, histograms, and gauges for the engine.
type Metrics struct {
	Searches          *prometheus.CounterVec // labels: kind={tonight,week}
	SearchesDiscarded prometheus.Counter
	ServiceRunning    prometheus.Gauge

	// Site evaluation metrics.
	SiteOutcomes       *prometheus.CounterVec // labels: outcome={success,failure,filtered,skipped}
	FailureReasons     *prometheus.CounterVec // labels: reason
	EvaluationDuration prometheus.Histogram
	OutlookBatches     prometheus.Counter

	// Upstream provider metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: provider, outcome={success,error}
	UpstreamDuration *prometheus.HistogramVec // labels: provider

	// Cache metrics.
	TileCache     *prometheus.CounterVec // labels: layer, result={hit,miss}
	TileFallbacks *prometheus.CounterVec // labels: layer
	GeocodeCache  *prometheus.CounterVec // labels: result={hit,miss}

	RecommendationsPublished prometheus.Counter
}

// NewMetrics creates and registers all engine metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Searches started, by kind.",
		}, []string{"kind"}),
		SearchesDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_discarded_total",
			Help:      "Searches whose results were dropped because a newer search began.",
		}),
		ServiceRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "service_running",
			Help:      "1 when the outlook publisher is active, 0 when shut down.",
		}),
		SiteOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "site_outcomes_total",
			Help:      "Site evaluations by terminal state.",
		}, []string{"outcome"}),
		FailureReasons: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "site_failures_total",
			Help:      "Evaluated sites that failed a check, by reason.",
		}, []string{"reason"}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of a complete candidate evaluation.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		OutlookBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outlook_batches_total",
			Help:      "Weekly outlook site batches processed.",
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream provider requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Upstream provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		TileCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tile_cache_total",
			Help:      "Tile cache lookups by layer and result.",
		}, []string{"layer", "result"}),
		TileFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tile_fallbacks_total",
			Help:      "Tile samples that returned the fallback value, by layer.",
		}, []string{"layer"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		RecommendationsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_published_total",
			Help:      "Recommendations written to the sink topic.",
		}),
	}

	prometheus.MustRegister(
		m.Searches,
		m.SearchesDiscarded,
		m.ServiceRunning,
		m.SiteOutcomes,
		m.FailureReasons,
		m.EvaluationDuration,
		m.OutlookBatches,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.TileCache,
		m.TileFallbacks,
		m.GeocodeCache,
		m.RecommendationsPublished,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Searches:                 prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "searches_total"}, []string{"kind"}),
		SearchesDiscarded:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "searches_discarded_total"}),
		ServiceRunning:           prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "service_running"}),
		SiteOutcomes:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "site_outcomes_total"}, []string{"outcome"}),
		FailureReasons:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "site_failures_total"}, []string{"reason"}),
		EvaluationDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "evaluation_duration_seconds"}),
		OutlookBatches:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "outlook_batches_total"}),
		UpstreamRequests:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "upstream_requests_total"}, []string{"provider", "outcome"}),
		UpstreamDuration:         prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "upstream_duration_seconds"}, []string{"provider"}),
		TileCache:                prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "tile_cache_total"}, []string{"layer", "result"}),
		TileFallbacks:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "tile_fallbacks_total"}, []string{"layer"}),
		GeocodeCache:             prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "geocode_cache_total"}, []string{"result"}),
		RecommendationsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "recommendations_published_total"}),
	}
}

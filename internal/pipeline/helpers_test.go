package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/stellaview/internal/checks"
	"github.com/couchcryptid/stellaview/internal/domain"
	"github.com/couchcryptid/stellaview/internal/observability"
	"github.com/couchcryptid/stellaview/internal/pipeline"
	"github.com/couchcryptid/stellaview/internal/scoring"
)

var (
	base   = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	origin = domain.LatLon{Lat: 43, Lon: -116}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- fakes ---

// fakeSky returns a 22:00-04:00 UTC window on every date and a dark, set
// moon unless overridden.
type fakeSky struct {
	moon      func(at time.Time) domain.MoonState
	windowErr error
}

func (s *fakeSky) NightWindow(date time.Time, _, _ float64, opts domain.WindowOptions) (domain.ObservationWindow, error) {
	if s.windowErr != nil {
		return domain.ObservationWindow{}, s.windowErr
	}
	y, m, d := date.Date()
	start := time.Date(y, m, d, 22, 0, 0, 0, time.UTC)
	return domain.ObservationWindow{Start: start, End: start.Add(6 * time.Hour), Twilight: opts.Twilight}, nil
}

func (s *fakeSky) Moon(at time.Time, _, _ float64) domain.MoonState {
	if s.moon != nil {
		return s.moon(at)
	}
	return domain.MoonState{Illumination: 0, Altitude: -1}
}

// fakeWeather serves hourly series starting at base. clouds maps an hour
// offset to cloud cover; temps are constant.
type fakeWeather struct {
	clouds func(lat float64, hour int) float64
	temp   float64
	err    error
	calls  atomic.Int32
}

func (f *fakeWeather) HourlyForecast(_ context.Context, lat, _ float64, _ int, unit domain.TempUnit) (domain.HourlyForecast, error) {
	f.calls.Add(1)
	if f.err != nil {
		return domain.HourlyForecast{}, f.err
	}
	fc := domain.HourlyForecast{Unit: unit}
	temp := f.temp
	if temp == 0 {
		temp = 60
	}
	for h := 0; h < 10*24; h++ {
		fc.Times = append(fc.Times, base.Add(time.Duration(h)*time.Hour))
		cloud := 0.0
		if f.clouds != nil {
			cloud = f.clouds(lat, h)
		}
		fc.CloudCover = append(fc.CloudCover, cloud)
		fc.Temperature = append(fc.Temperature, temp)
	}
	return fc, nil
}

type fakeAir struct {
	pm  map[float64]float64
	err error
}

func (f *fakeAir) HourlyPM25(_ context.Context, lat, _ float64, _ int) (domain.AirSeries, error) {
	if f.err != nil {
		return domain.AirSeries{}, f.err
	}
	pm, ok := f.pm[lat]
	if !ok {
		pm = 5
	}
	var s domain.AirSeries
	for h := 0; h < 10*24; h++ {
		s.Times = append(s.Times, base.Add(time.Duration(h)*time.Hour))
		s.PM25 = append(s.PM25, pm)
	}
	return s, nil
}

type fakeSampler struct {
	values   map[float64]float64
	fallback float64
}

func (f *fakeSampler) Sample(_ context.Context, lat, _ float64) float64 {
	if v, ok := f.values[lat]; ok {
		return v
	}
	return f.fallback
}

type fakeDiscoverer struct {
	sites []domain.Site
	err   error
}

func (f *fakeDiscoverer) DiscoverSites(context.Context, float64, float64, float64) ([]domain.Site, error) {
	return f.sites, f.err
}

type fakeRouter struct {
	minutes []float64
	err     error
}

func (f *fakeRouter) DriveMinutes(context.Context, domain.LatLon, []domain.LatLon) ([]float64, error) {
	return f.minutes, f.err
}

type recordingLoader struct {
	mu   sync.Mutex
	recs []pipeline.Recommendation
	err  error
}

func (l *recordingLoader) Load(_ context.Context, rec pipeline.Recommendation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.recs = append(l.recs, rec)
	return nil
}

func (l *recordingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.recs)
}

// --- fixture ---

type fixture struct {
	sky        *fakeSky
	weather    *fakeWeather
	air        *fakeAir
	radiance   *fakeSampler
	vegetation *fakeSampler
	clock      *clockwork.FakeClock
	metrics    *observability.Metrics
	outlook    pipeline.OutlookConfig
}

func newFixture() *fixture {
	return &fixture{
		sky:        &fakeSky{},
		weather:    &fakeWeather{},
		air:        &fakeAir{},
		radiance:   &fakeSampler{values: map[float64]float64{}, fallback: 0.1},
		vegetation: &fakeSampler{values: map[float64]float64{}, fallback: 0.5},
		clock:      clockwork.NewFakeClockAt(base.Add(12 * time.Hour)),
		metrics:    observability.NewMetricsForTesting(),
	}
}

func (f *fixture) engine() *pipeline.Engine {
	logger := discardLogger()
	return pipeline.NewEngine(pipeline.Deps{
		Sky:        f.sky,
		Weather:    checks.NewWeatherChecker(f.weather, logger),
		Air:        checks.NewAirChecker(f.air, logger),
		Radiance:   f.radiance,
		Vegetation: f.vegetation,
		Scorer:     scoring.NewHeuristic(),
		Clock:      f.clock,
		Logger:     logger,
		Metrics:    f.metrics,
	}, f.outlook)
}

func site(name string, lat float64) domain.Site {
	return domain.Site{ID: name, Name: name, Lat: lat, Lon: -116, Kind: domain.KindPark, Trust: domain.TrustOfficial}
}

func candidates(sites ...domain.Site) []pipeline.Candidate {
	out := make([]pipeline.Candidate, len(sites))
	for i, s := range sites {
		out[i] = pipeline.Candidate{Site: s}
	}
	return out
}

func permissivePrefs() domain.Preferences {
	p := domain.DefaultPreferences()
	p.MaxBortle = 9
	return p
}

var errUpstream = errors.New("upstream unavailable")

package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/stellaview/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/stellaview/internal/adapter/kafka"
	"github.com/couchcryptid/stellaview/internal/domain"
	"github.com/couchcryptid/stellaview/internal/pipeline"
)

type SearchFlags struct {
	Place string   `arg:"" optional:"" help:"Place name to search from (geocoded)."`
	Lat   *float64 `help:"Origin latitude."`
	Lon   *float64 `help:"Origin longitude."`
	Date  string   `help:"Night to plan for (YYYY-MM-DD), default today."`
	JSON  bool     `help:"Print JSON instead of a table."`

	PrefsFlags `embed:""`
}

func (f SearchFlags) request(ctx context.Context, a *app) (pipeline.RecommendRequest, string, error) {
	origin, label, err := a.origin(ctx, f.Place, f.Lat, f.Lon)
	if err != nil {
		return pipeline.RecommendRequest{}, "", err
	}
	date, err := a.date(f.Date)
	if err != nil {
		return pipeline.RecommendRequest{}, "", err
	}
	return pipeline.RecommendRequest{
		Origin:   origin,
		Date:     date,
		Prefs:    f.preferences(),
		RadiusKm: f.radius(a.cfg),
	}, label, nil
}

type tonightCmd struct {
	SearchFlags `embed:""`

	NoFallback bool `help:"Do not fall back to the weekly outlook."`
}

func (c *tonightCmd) Run(a *app) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	req, label, err := c.request(ctx, a)
	if err != nil {
		return err
	}
	req.SkipOutlook = c.NoFallback

	rec, err := a.recommender.Recommend(ctx, req)
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(rec)
	}
	printRecommendation(os.Stdout, label, rec, a.cfg.Timezone)
	return nil
}

type weekCmd struct {
	SearchFlags `embed:""`
}

func (c *weekCmd) Run(a *app) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	req, label, err := c.request(ctx, a)
	if err != nil {
		return err
	}
	out, err := a.recommender.Week(ctx, req)
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(out)
	}
	printOutlook(os.Stdout, label, out, a.cfg.Timezone)
	return nil
}

type serveCmd struct{}

func (c *serveCmd) Run(a *app) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	origin, label, err := a.origin(ctx, "", nil, nil)
	if err != nil {
		return err
	}
	a.logger.Info("publishing recommendations", "origin", label, "interval", a.cfg.PublishInterval)

	prefs := domain.DefaultPreferences()
	request := func(now time.Time) pipeline.RecommendRequest {
		y, m, d := now.In(a.cfg.Timezone).Date()
		return pipeline.RecommendRequest{
			Origin:   origin,
			Date:     time.Date(y, m, d, 0, 0, 0, 0, a.cfg.Timezone),
			Prefs:    prefs,
			RadiusKm: a.cfg.RadiusKm,
		}
	}

	writer := kafkaadapter.NewWriter(a.cfg, a.logger)
	publisher := pipeline.NewPublisher(a.recommender, writer, request, a.cfg.PublishInterval, a.clock, a.logger, a.metrics)
	srv := httpadapter.NewServer(a.cfg.HTTPAddr, publisher, publisher, a.logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", "error", err)
		}
	}()

	// Start publisher.
	go func() {
		if err := publisher.Run(ctx); err != nil {
			a.logger.Error("publisher error", "error", err)
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", "error", err)
	}
	if err := writer.Close(); err != nil {
		a.logger.Error("kafka writer close error", "error", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

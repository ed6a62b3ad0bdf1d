// Command stellaview finds the best nearby stargazing sites for tonight or
// the coming week, and can run as a service that periodically publishes a
// recommendation for a fixed origin to Kafka.
//
// Usage:
//
//	stellaview tonight "Boise, Idaho"
//	stellaview week --lat 43.6 --lon -116.2 --max-drive 90
//	stellaview serve
package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/stellaview/internal/config"
	"github.com/couchcryptid/stellaview/internal/observability"
)

type cli struct {
	Serve   serveCmd   `cmd:"" help:"Publish recommendations on a schedule and serve health endpoints."`
	Tonight tonightCmd `cmd:"" help:"Rank sites for one night."`
	Week    weekCmd    `cmd:"" help:"Find the nearest good night in the coming week."`
}

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	var c cli
	kctx := kong.Parse(&c,
		kong.Name("stellaview"),
		kong.Description("Stargazing site suitability engine."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	a, err := newApp(cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	kctx.FatalIfErrorf(kctx.Run(a))
}

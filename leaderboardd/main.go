package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/energy-blueprint/leaderboard/internal/config"
	"github.com/energy-blueprint/leaderboard/internal/index"
	"github.com/energy-blueprint/leaderboard/internal/platform/httpserver"
	"github.com/energy-blueprint/leaderboard/internal/source"
)

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "path to YAML config")
	pflag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}

	src, err := source.New(ctx, cfg)
	if err != nil {
		logger.Error("source unavailable", "error", err)
		os.Exit(1)
	}

	builder := index.NewBuilder(src, logger, index.Config{
		Root:         cfg.Source.Root,
		SnapshotPath: cfg.Source.Snapshot,
		Parallelism:  cfg.Crawl.Parallelism,
	})

	api := newLeaderboardAPI(logger, builder, prometheus.DefaultRegisterer)
	ref := api.startRefresh(ctx)
	logger.Info("initial refresh started", "refresh_id", ref.ID)

	mux := http.NewServeMux()
	api.register(mux)

	handler := httpserver.Wrap(logger, "leaderboardd", mux)
	handler = handlers.CompressHandler(handler)
	handler = handlers.CORS(
		handlers.AllowedOrigins(cfg.HTTP.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost}),
	)(handler)

	err = httpserver.Run(ctx, logger, httpserver.Config{
		Service:         "leaderboardd",
		Addr:            cfg.HTTP.Addr,
		ShutdownTimeout: cfg.HTTP.Shutdown(),
	}, handler)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

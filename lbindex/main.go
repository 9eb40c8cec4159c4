// Command lbindex crawls the submission tree and writes the aggregated
// leaderboard document. Per-run failures shrink the output; only a total
// source failure is fatal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/energy-blueprint/leaderboard/internal/config"
	"github.com/energy-blueprint/leaderboard/internal/index"
	"github.com/energy-blueprint/leaderboard/internal/source"
)

func main() {
	var (
		configPath string
		kind       string
		root       string
		out        string
		parallel   int
	)
	pflag.StringVarP(&configPath, "config", "c", "", "path to YAML config")
	pflag.StringVar(&kind, "source", "", "source kind: github, bucket or dir")
	pflag.StringVar(&root, "root", "", "submission tree root")
	pflag.StringVarP(&out, "out", "o", "docs/leaderboard.json", "output path, - for stdout")
	pflag.IntVar(&parallel, "parallel", 0, "crawl parallelism")
	pflag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if kind != "" {
		os.Setenv("LEADERBOARD_SOURCE_KIND", kind)
	}
	if root != "" {
		os.Setenv("LEADERBOARD_SOURCE_ROOT", root)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(2)
	}
	if parallel > 0 {
		cfg.Crawl.Parallelism = parallel
	}

	src, err := source.New(ctx, cfg)
	if err != nil {
		logger.Error("source unavailable", "error", err)
		os.Exit(1)
	}

	builder := index.NewBuilder(src, logger, index.Config{
		Root:        cfg.Source.Root,
		Parallelism: cfg.Crawl.Parallelism,
	})
	runs, err := builder.Crawl(ctx)
	if err != nil {
		logger.Error("crawl failed", "error", err)
		os.Exit(1)
	}

	data, err := index.EncodeSnapshot(runs)
	if err != nil {
		logger.Error("encode failed", "error", err)
		os.Exit(1)
	}

	if out == "-" {
		fmt.Println(string(data))
		return
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		logger.Error("create output dir", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
		logger.Error("write output", "error", err)
		os.Exit(1)
	}
	logger.Info("wrote leaderboard index", "path", out, "runs", len(runs))
}

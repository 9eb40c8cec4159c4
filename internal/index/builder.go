// Package index populates the in-memory Run collection: either from a
// pre-aggregated snapshot document (fast path) or by crawling the
// submission tree run by run (live path). Each refresh re-derives truth
// from source; nothing is cached in between.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/energy-blueprint/leaderboard/internal/domain"
	"github.com/energy-blueprint/leaderboard/internal/normalize"
	"github.com/energy-blueprint/leaderboard/internal/source"
)

// Submission folder names follow the pack validator's patterns; entries
// that do not are skipped rather than failed.
var (
	userPattern = regexp.MustCompile(`^[a-z0-9._-]{1,40}$`)
	runPattern  = regexp.MustCompile(`^[a-zA-Z0-9._:-]{1,80}$`)
)

const (
	manifestFile = "manifest.json"
	metricsFile  = "metrics.json"
	hardwareFile = "hardware.json"
	energyDir    = "energy"
	configDir    = "config"
)

// Config tunes a Builder.
type Config struct {
	// Root is the submission tree root, "submission" by default.
	Root string

	// SnapshotPath, when set, short-circuits Build to read a
	// pre-aggregated leaderboard document instead of crawling.
	SnapshotPath string

	// Parallelism bounds the per-run fan-out of the live crawl.
	Parallelism int
}

// Builder drives the reader and normalizer across the submission tree.
type Builder struct {
	src    source.Source
	logger *slog.Logger
	cfg    Config
}

func NewBuilder(src source.Source, logger *slog.Logger, cfg Config) *Builder {
	if cfg.Root == "" {
		cfg.Root = "submission"
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 8
	}
	return &Builder{src: src, logger: logger, cfg: cfg}
}

// Build produces the Run collection for one refresh. A total source
// failure is returned as an error; per-run failures only shrink the
// result.
func (b *Builder) Build(ctx context.Context) ([]domain.Run, error) {
	if b.cfg.SnapshotPath != "" {
		return b.FromSnapshot(ctx)
	}
	return b.Crawl(ctx)
}

// FromSnapshot reads the pre-aggregated collection.
func (b *Builder) FromSnapshot(ctx context.Context) ([]domain.Run, error) {
	data, err := b.src.Read(ctx, b.cfg.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", b.cfg.SnapshotPath, err)
	}
	runs, err := DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", b.cfg.SnapshotPath, err)
	}
	return runs, nil
}

type runRef struct {
	user string
	run  string
}

// Crawl walks users then runs, processing each run independently with
// bounded parallelism. One run's failure never aborts the build; the run
// is logged and omitted. The returned order is crawl insertion order;
// all user-visible ordering belongs to the query engine.
func (b *Builder) Crawl(ctx context.Context) ([]domain.Run, error) {
	users, err := b.src.List(ctx, b.cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", b.cfg.Root, err)
	}

	var refs []runRef
	perUser := make([][]runRef, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Parallelism)
	for i, u := range users {
		if u.Type != source.TypeDir || !userPattern.MatchString(u.Name) {
			continue
		}
		g.Go(func() error {
			entries, err := b.src.List(gctx, path.Join(b.cfg.Root, u.Name))
			if err != nil {
				b.logger.Warn("skipping user: listing failed", "user", u.Name, "error", err)
				return nil
			}
			var rr []runRef
			for _, e := range entries {
				if e.Type != source.TypeDir || !runPattern.MatchString(e.Name) {
					continue
				}
				rr = append(rr, runRef{user: u.Name, run: e.Name})
			}
			perUser[i] = rr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, rr := range perUser {
		refs = append(refs, rr...)
	}

	results := make([]*domain.Run, len(refs))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Parallelism)
	for i, ref := range refs {
		g.Go(func() error {
			run, err := b.readRun(gctx, ref)
			if err != nil {
				b.logger.Warn("skipping run", "user", ref.user, "run", ref.run, "error", err)
				return nil
			}
			results[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Per-run skips swallow errors, including a cancellation landing
	// mid-crawl. A cancelled build must surface as a failure, not as an
	// empty collection.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("crawl %s: %w", b.cfg.Root, err)
	}

	runs := make([]domain.Run, 0, len(results))
	for _, r := range results {
		if r != nil {
			runs = append(runs, *r)
		}
	}
	b.logger.Info("crawl complete", "runs", len(runs), "skipped", len(refs)-len(runs))
	return runs, nil
}

// readRun fetches and normalizes a single run. Only an unreadable or
// unparseable manifest errors; every supplementary read fails soft.
func (b *Builder) readRun(ctx context.Context, ref runRef) (*domain.Run, error) {
	base := path.Join(b.cfg.Root, ref.user, ref.run)

	data, err := b.src.Read(ctx, path.Join(base, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	raw, err := domain.DecodeManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}

	if sockets := b.hardwareSockets(ctx, base); len(sockets) > 0 {
		raw.Processor = sockets
	}

	opts := normalize.Options{
		FallbackUser:  ref.user,
		FallbackRunID: ref.run,
		Override:      b.metricsOverride(ctx, base),
		Images:        b.imageLocations(ctx, base),
	}
	run := normalize.Manifest(raw, opts)
	return &run, nil
}

// metricsOverride reads the optional supplementary metrics document. It
// replaces the manifest's metrics wholesale when present and parseable.
func (b *Builder) metricsOverride(ctx context.Context, base string) *domain.Metrics {
	data, err := b.src.Read(ctx, path.Join(base, energyDir, metricsFile))
	if err != nil {
		if !errors.Is(err, source.ErrNotFound) {
			b.logger.Debug("supplementary metrics unavailable", "run", base, "error", err)
		}
		return nil
	}
	m, err := domain.DecodeMetrics(data)
	if err != nil {
		b.logger.Debug("supplementary metrics unreadable", "run", base, "error", err)
		return nil
	}
	if m.Empty() {
		return nil
	}
	return &m
}

// hardwareSockets reads the optional config/<node>/hardware.json probe
// and returns its processor list, nil when absent or invalid.
func (b *Builder) hardwareSockets(ctx context.Context, base string) domain.RawSocketList {
	nodes, err := b.src.List(ctx, path.Join(base, configDir))
	if err != nil || len(nodes) == 0 {
		return nil
	}
	for _, n := range nodes {
		if n.Type != source.TypeDir {
			continue
		}
		data, err := b.src.Read(ctx, path.Join(base, configDir, n.Name, hardwareFile))
		if err != nil {
			return nil
		}
		sockets, err := domain.DecodeHardware(data)
		if err != nil {
			b.logger.Debug("hardware.json unreadable", "run", base, "error", err)
			return nil
		}
		return sockets
	}
	return nil
}

// imageLocations lists the run's plot directory and keeps only PNG
// files, keyed by lowercased name. Slot assignment happens in the
// normalizer.
func (b *Builder) imageLocations(ctx context.Context, base string) map[string]string {
	entries, err := b.src.List(ctx, path.Join(base, energyDir))
	if err != nil {
		return nil
	}
	locs := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Type != source.TypeFile || !strings.HasSuffix(strings.ToLower(e.Name), ".png") {
			continue
		}
		loc := e.DownloadURL
		if loc == "" {
			loc = path.Join(base, energyDir, e.Name)
		}
		locs[strings.ToLower(e.Name)] = loc
	}
	return locs
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/energy-blueprint/leaderboard/internal/autocomplete"
	"github.com/energy-blueprint/leaderboard/internal/domain"
	"github.com/energy-blueprint/leaderboard/internal/index"
	"github.com/energy-blueprint/leaderboard/internal/platform/httpserver"
	"github.com/energy-blueprint/leaderboard/internal/query"
)

var errNotRefreshed = errors.New("no snapshot committed yet")

type leaderboardAPI struct {
	logger  *slog.Logger
	engine  *query.Engine
	tracker *index.Tracker
	builder *index.Builder
	metrics *apiMetrics
}

func newLeaderboardAPI(logger *slog.Logger, builder *index.Builder, reg prometheus.Registerer) *leaderboardAPI {
	return &leaderboardAPI{
		logger:  logger,
		engine:  query.NewEngine(),
		tracker: index.NewTracker(),
		builder: builder,
		metrics: newAPIMetrics(reg),
	}
}

func (api *leaderboardAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/leaderboard", api.handleLeaderboard)
	mux.HandleFunc("GET /api/autocomplete", api.handleAutocomplete)
	mux.HandleFunc("POST /api/refresh", api.handleRefresh)
	mux.HandleFunc("GET /api/snapshot", api.handleSnapshot)

	mux.HandleFunc("GET /healthz", httpserver.Healthz("leaderboardd"))
	mux.HandleFunc("GET /readyz", httpserver.ReadyzWithChecks("leaderboardd",
		httpserver.ReadinessCheck{Name: "snapshot", Check: api.readyCheck}))
	mux.Handle("GET /metrics", promhttp.Handler())

	registerPage(mux)
}

func (api *leaderboardAPI) readyCheck(context.Context) error {
	if !api.tracker.Ready() {
		return errNotRefreshed
	}
	return nil
}

// startRefresh launches one build in the background. A build superseded
// by a newer request is cancelled and its late result discarded.
func (api *leaderboardAPI) startRefresh(parent context.Context) index.Refresh {
	ctx, ref := api.tracker.Begin(parent)
	go func() {
		start := time.Now()
		runs, err := api.builder.Build(ctx)
		elapsed := time.Since(start)

		if !api.tracker.Commit(ref, runs, err) {
			api.metrics.refreshes.WithLabelValues("superseded").Inc()
			api.logger.Info("refresh superseded, result discarded", "refresh_id", ref.ID)
			return
		}
		api.metrics.refreshDuration.Observe(elapsed.Seconds())
		if err != nil {
			api.metrics.refreshes.WithLabelValues("failed").Inc()
			api.logger.Error("refresh failed", "refresh_id", ref.ID, "error", err)
			return
		}
		api.metrics.refreshes.WithLabelValues("committed").Inc()
		api.metrics.runsIndexed.Set(float64(len(runs)))
		api.logger.Info("refresh committed",
			"refresh_id", ref.ID, "runs", len(runs), "duration_ms", elapsed.Milliseconds())
	}()
	return ref
}

type leaderboardResponse struct {
	Rows      []domain.Run   `json:"rows"`
	Groups    []domain.Group `json:"groups,omitempty"`
	Stats     domain.Stats   `json:"stats"`
	Total     int            `json:"total"`
	RefreshID string         `json:"refresh_id,omitempty"`
	BuiltAt   *time.Time     `json:"built_at,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func (api *leaderboardAPI) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := domain.QueryParams{
		CPUFilter:  q.Get("cpu"),
		UserFilter: q.Get("user"),
		SortKey:    domain.ParseSortKey(q.Get("sort")),
		SortDir:    domain.ParseSortDir(q.Get("dir")),
	}

	snap := api.tracker.Current()
	start := time.Now()
	res := api.engine.Query(snap.Runs, params)
	api.metrics.queryDuration.Observe(time.Since(start).Seconds())

	resp := leaderboardResponse{
		Rows:      res.Rows,
		Groups:    res.Groups,
		Stats:     res.Stats,
		Total:     len(snap.Runs),
		RefreshID: snap.RefreshID,
		Error:     snap.Err,
	}
	if !snap.BuiltAt.IsZero() {
		t := snap.BuiltAt
		resp.BuiltAt = &t
	}
	httpserver.WriteJSON(w, http.StatusOK, resp)
}

type autocompleteResponse struct {
	Candidates []string `json:"candidates"`
	Highlight  int      `json:"highlight"`
}

func (api *leaderboardAPI) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var comp *autocomplete.Completer
	switch q.Get("field") {
	case "cpu":
		comp = autocomplete.NewCPU()
	case "user":
		comp = autocomplete.NewUser()
	default:
		httpserver.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error": "field must be cpu or user",
		})
		return
	}

	snap := api.tracker.Current()
	comp.Input(snap.Runs, q.Get("q"))
	httpserver.WriteJSON(w, http.StatusOK, autocompleteResponse{
		Candidates: comp.Candidates(),
		Highlight:  comp.Highlight(),
	})
}

func (api *leaderboardAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ref := api.startRefresh(context.Background())
	httpserver.WriteJSON(w, http.StatusAccepted, map[string]any{
		"refresh_id": ref.ID,
	})
}

func (api *leaderboardAPI) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := api.tracker.Current()
	data, err := index.EncodeSnapshot(snap.Runs)
	if err != nil {
		httpserver.WriteJSON(w, http.StatusInternalServerError, map[string]any{
			"error": "encode snapshot failed",
		})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

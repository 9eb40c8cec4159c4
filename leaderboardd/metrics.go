package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type apiMetrics struct {
	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	runsIndexed     prometheus.Gauge
	queryDuration   prometheus.Histogram
}

func newAPIMetrics(reg prometheus.Registerer) *apiMetrics {
	factory := promauto.With(reg)
	return &apiMetrics{
		refreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leaderboard",
			Name:      "refreshes_total",
			Help:      "Refresh attempts by outcome.",
		}, []string{"outcome"}),
		refreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leaderboard",
			Name:      "refresh_duration_seconds",
			Help:      "Wall time of committed snapshot builds.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		runsIndexed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "leaderboard",
			Name:      "runs_indexed",
			Help:      "Rows in the current snapshot.",
		}),
		queryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leaderboard",
			Name:      "query_duration_seconds",
			Help:      "Latency of interactive leaderboard queries.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
}

package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridpath_steps_total",
		Help: "Search steps executed, by resulting status",
	}, []string{"status"})

	searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridpath_searches_total",
		Help: "Finished searches, by outcome",
	}, []string{"outcome"})

	pathLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gridpath_path_length",
		Help:    "Length in edges of paths found",
		Buckets: prometheus.ExponentialBuckets(4, 2, 8),
	})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gridpath_sessions_active",
		Help: "Sessions currently held in memory",
	})
)

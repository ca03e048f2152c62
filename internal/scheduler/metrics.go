package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ticksTotal counts fired callbacks per schedule
	ticksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "breathwork_scheduler_ticks_total",
		Help: "Total scheduler callbacks fired, by schedule",
	}, []string{"schedule"})

	// driftSeconds tracks how late each tick fired relative to its nominal time
	driftSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "breathwork_scheduler_drift_seconds",
		Help:    "Difference between actual and expected fire time",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
	}, []string{"schedule"})

	// panicsTotal counts recovered callback panics
	panicsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "breathwork_scheduler_panics_total",
		Help: "Total recovered panics in scheduler callbacks",
	}, []string{"schedule"})
)

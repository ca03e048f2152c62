package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "breathwork_sessions_started_total",
		Help: "Total breathing sessions started",
	})

	// sessionsEnded counts ended sessions by how they ended
	sessionsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "breathwork_sessions_ended_total",
		Help: "Total breathing sessions ended, by reason",
	}, []string{"reason"})

	// summariesTotal counts summary outcomes at stop time
	summariesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "breathwork_summaries_total",
		Help: "Session summaries by result (published, failed, skipped)",
	}, []string{"result"})
)

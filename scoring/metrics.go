package scoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var perspectiveAPIDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "warden_perspective_api_duration_sec",
	Help: "Duration of Perspective comment analysis API calls",
})

var perspectiveAPICount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_perspective_api_count",
	Help: "Number of Perspective comment analysis API calls, by HTTP status code",
}, []string{"status"})

var scoreCacheCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_score_cache_count",
	Help: "Score cache lookups, by result (hit, miss, error)",
}, []string{"result"})

var gateEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_gate_evaluations",
	Help: "Auto-flag gate evaluations, by outcome (flagged, clear, failed)",
}, []string{"outcome"})

package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var messagesRouted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_messages_routed",
	Help: "Inbound messages handled by the dispatcher, by route",
}, []string{"route"})

var dispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "warden_dispatch_duration_sec",
	Help: "Duration of inbound message dispatch, by route",
}, []string{"route"})

var dispatchPanics = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_dispatch_panics",
	Help: "Number of recovered panics during message dispatch",
})

var sendFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_send_failures",
	Help: "Number of outbound messages that could not be delivered",
})

var reportsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_reports_submitted",
	Help: "Reports handed to moderator review, by source (user, auto)",
}, []string{"source"})

var reportsCancelled = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_reports_cancelled",
	Help: "Intake sessions that ended without submission",
})

var reviewsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "warden_reviews_closed",
	Help: "Moderator reviews closed, by outcome",
}, []string{"outcome"})

var archiveFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_archive_failures",
	Help: "Closed reviews that could not be written to the report archive",
})

var autoFlagsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_autoflags_suppressed",
	Help: "Gate triggers ignored because the channel or author already has an auto-flag review",
})

var sessionsReaped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "warden_sessions_reaped",
	Help: "Idle intake sessions removed by the reaper",
})

var reviewQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "warden_review_queue_depth",
	Help: "Reports waiting behind the current review subject",
})

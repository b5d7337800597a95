package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var buildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "warden_build_info",
	Help: "Build version of the running daemon, always 1",
}, []string{"version"})

var activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "warden_active_sessions",
	Help: "Report sessions currently registered, in intake or review",
})

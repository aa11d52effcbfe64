package autobet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRunsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casino_autobet_runs_started_total",
		Help: "Autobet sessions that passed validation.",
	}, []string{"game"})
	metricRunsStopped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casino_autobet_runs_stopped_total",
		Help: "Autobet sessions by stop reason.",
	}, []string{"reason"})
)

package httptransport

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "casino_http_errors_total",
		Help: "API responses with an error code.",
	}, []string{"code"})

	metricStreamConnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "casino_stream_connections_total",
		Help: "Websocket event stream connections opened.",
	})
	metricStreamConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "casino_stream_connections_active",
		Help: "Websocket event stream connections currently open.",
	})
)

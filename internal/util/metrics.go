package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StockStateRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_stock_state_requests_total",
		Help: "Total number of stock state queries",
	}, []string{"status"})

	ReservationSyncsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulse_reservation_syncs_total",
		Help: "Total number of cart reservation syncs",
	})

	ReservationSyncFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_reservation_sync_failures_total",
		Help: "Total number of failed cart reservation syncs",
	}, []string{"reason"})

	ViewerHeartbeatsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulse_viewer_heartbeats_total",
		Help: "Total number of viewer presence heartbeats",
	})

	CartHeartbeatsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulse_cart_heartbeats_total",
		Help: "Total number of cart presence heartbeats",
	})

	BackendFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulse_backend_fallback_total",
		Help: "Total number of volatile backend resolutions that fell back to SQL",
	})

	SweepRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_sweep_runs_total",
		Help: "Total number of expiry sweep runs",
	}, []string{"result"})

	StockStateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pulse_stock_state_latency_seconds",
		Help:    "Latency of stock state resolution",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)

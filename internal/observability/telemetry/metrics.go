package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Business metrics
	PurchasesSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sokowatt_purchases_submitted_total",
		Help: "Purchase submissions by outcome",
	}, []string{"outcome"})

	PurchasedEnergyTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sokowatt_purchased_energy_kwh_total",
		Help: "Total energy purchased through this frontend in kWh",
	})

	ToastsShown = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sokowatt_toasts_shown_total",
		Help: "Toast notifications shown by kind",
	}, []string{"kind"})

	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sokowatt_sessions_active",
		Help: "Browser sessions currently logged in",
	})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sokowatt_websocket_clients",
		Help: "Connected websocket update clients",
	})

	// Infrastructure metrics
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sokowatt_upstream_requests_total",
		Help: "Requests to the marketplace API by operation and outcome",
	}, []string{"op", "outcome"})

	UpstreamLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sokowatt_upstream_latency_seconds",
		Help:    "Latency of marketplace API requests",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sokowatt_http_requests_total",
		Help: "Handled HTTP requests by route and status",
	}, []string{"route", "status"})
)

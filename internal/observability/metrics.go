package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TripsCreatedTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "marketplace", Name: "trips_created_total", Help: "Total number of trips posted"})
	BidsPlacedTotal     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "marketplace", Name: "bids_placed_total", Help: "Total number of bids placed"})
	BidsAcceptedTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "marketplace", Name: "bids_accepted_total", Help: "Total number of bids accepted"})
	TripsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "marketplace", Name: "trips_completed_total", Help: "Total number of trips completed"})
	TripsCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "marketplace", Name: "trips_cancelled_total", Help: "Total number of trips cancelled"})

	LockConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "marketplace", Name: "lock_conflicts_total", Help: "Writes rejected because another transaction held the row lock"})
	RateLimitedTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "marketplace", Name: "rate_limited_total", Help: "Requests rejected by the rate limiter"})

	WSConnectedUsers = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "marketplace", Name: "ws_connected_users", Help: "Users with at least one open WebSocket connection"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "marketplace", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "marketplace",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

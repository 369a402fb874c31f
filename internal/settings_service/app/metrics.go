package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	settingsUpdatesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "settings_service",
			Name:      "updates_total",
			Help:      "Total number of settings mutations.",
		},
		[]string{"kind", "status"}, // status: "success", "error_validation", "error_storage"
	)

	broadcastsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "settings_service",
			Name:      "broadcasts_total",
			Help:      "Total number of change-event publishes, one per scope key.",
		},
		[]string{"kind", "status"}, // status: "success", "error"
	)

	updateDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "settings_service",
			Name:      "update_duration_seconds",
			Help:      "Duration of a settings mutation including broadcast.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

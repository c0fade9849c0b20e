package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "account_service",
			Name:      "events_published_total",
			Help:      "Lifecycle events handed to the Kafka producer",
		},
		[]string{"type"},
	)

	EventsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "account_service",
			Name:      "events_failed_total",
			Help:      "Lifecycle events that could not be enqueued or delivered",
		},
		[]string{"topic", "reason"},
	)
)

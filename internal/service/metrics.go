package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_mutations_total",
			Help: "Review and review media mutations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	mediaCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_media_created_total",
			Help: "Review media created, by source (upload, remote_image, oembed).",
		},
		[]string{"source"},
	)

	notifyErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "review_notify_errors_total",
			Help: "Lifecycle notifications that could not be delivered.",
		},
	)
)

// observe records the outcome of one mutation. Field validation failures are
// counted apart from other errors.
func observe(operation string, err error) {
	outcome := "success"
	switch {
	case err == nil:
	case isValidation(err):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	mutationsTotal.WithLabelValues(operation, outcome).Inc()
}

// Package metrics exposes the process-wide Prometheus instruments.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tubebrief_messages_total",
		Help: "Messages handled, by outcome.",
	}, []string{"outcome"})

	ProviderErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tubebrief_provider_errors_total",
		Help: "Completion-service failures, by kind.",
	}, []string{"kind"})

	RefusalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tubebrief_refusals_total",
		Help: "Answers replaced by the no-coverage refusal.",
	})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tubebrief_request_duration_seconds",
		Help:    "End-to-end message handling latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

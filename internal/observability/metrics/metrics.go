// Copyright The Meeting Lifecycle Service contributors
// SPDX-License-Identifier: MIT

// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "meeting_lifecycle"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Webhook metrics
	WebhookEventsTotal *prometheus.CounterVec

	// Lifecycle metrics
	TransitionsTotal *prometheus.CounterVec

	// Connect metrics
	ConnectAttemptsTotal *prometheus.CounterVec

	// Pipeline metrics
	PipelineRunsTotal    *prometheus.CounterVec
	PipelineStepDuration *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		WebhookEventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Webhook events received by kind and outcome",
		}, []string{"kind", "outcome"}),
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Meeting status transitions by target status",
		}, []string{"to"}),
		ConnectAttemptsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "On-demand agent connect attempts by outcome",
		}, []string{"outcome"}),
		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Transcript pipeline runs by outcome",
		}, []string{"outcome"}),
		PipelineStepDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_step_duration_seconds",
			Help:      "Duration of transcript pipeline runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"step"}),
	}
}

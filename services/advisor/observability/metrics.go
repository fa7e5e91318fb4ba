// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides metrics and instrumentation for the advisor.
//
// # Description
//
// This package implements Prometheus metrics for monitoring query and
// calculation operations. Metrics include:
//   - Request counters (by endpoint, status, error type)
//   - Calculation latency histograms
//   - Agent tool-call counters
//   - Active session gauge
//   - Publish warning counters
//
// # Integration
//
// Metrics are exposed via /metrics endpoint. Use with Prometheus + Grafana
// for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "aleutian"

// Subsystem for advisor metrics
const advisorSubsystem = "advisor"

// AdvisorMetrics holds all Prometheus metrics for advisor operations.
//
// # Description
//
// Provides counters, histograms, and gauges for monitoring query handling
// and calculation throughput. Initialize once at startup via InitMetrics().
//
// # Thread Safety
//
// All operations are thread-safe.
type AdvisorMetrics struct {
	// RequestsTotal counts requests by endpoint and status.
	// Labels: endpoint (query, calculations), status (success, error)
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures end-to-end request latency.
	// Labels: endpoint (query, calculations)
	RequestDurationSeconds *prometheus.HistogramVec

	// ToolCallsTotal counts agent tool invocations by tool name.
	// Labels: tool
	ToolCallsTotal *prometheus.CounterVec

	// ActiveSessions tracks live conversational sessions.
	ActiveSessions prometheus.Gauge

	// PublishWarningsTotal counts non-fatal artifact publish failures.
	// Labels: artifact (raw, features)
	PublishWarningsTotal *prometheus.CounterVec

	// ErrorsTotal counts errors by type and endpoint.
	// Labels: endpoint, error_code (validation, no_data, source_unavailable, internal)
	ErrorsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of AdvisorMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *AdvisorMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Should be called once
// at application startup, after Prometheus registry is available.
//
// # Limitations
//
//   - Panics if called twice (duplicate registration).
func InitMetrics() *AdvisorMetrics {
	DefaultMetrics = &AdvisorMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: advisorSubsystem,
				Name:      "requests_total",
				Help:      "Total number of requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		RequestDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: advisorSubsystem,
				Name:      "request_duration_seconds",
				Help:      "End-to-end request latency in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"endpoint"},
		),

		ToolCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: advisorSubsystem,
				Name:      "tool_calls_total",
				Help:      "Total agent tool invocations by tool name",
			},
			[]string{"tool"},
		),

		ActiveSessions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: advisorSubsystem,
				Name:      "active_sessions",
				Help:      "Number of live conversational sessions",
			},
		),

		PublishWarningsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: advisorSubsystem,
				Name:      "publish_warnings_total",
				Help:      "Total non-fatal artifact publish failures by artifact kind",
			},
			[]string{"artifact"},
		),

		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: advisorSubsystem,
				Name:      "errors_total",
				Help:      "Total errors by type and endpoint",
			},
			[]string{"endpoint", "error_code"},
		),
	}

	return DefaultMetrics
}

// =============================================================================
// Error Codes
// =============================================================================

// ErrorCode represents a categorized error type for metrics.
type ErrorCode string

const (
	// ErrorCodeValidation indicates request validation failure.
	ErrorCodeValidation ErrorCode = "validation"

	// ErrorCodeNoData indicates no candle data for the requested window.
	ErrorCodeNoData ErrorCode = "no_data"

	// ErrorCodeSourceUnavailable indicates market data source failure.
	ErrorCodeSourceUnavailable ErrorCode = "source_unavailable"

	// ErrorCodeInternal indicates internal server error.
	ErrorCodeInternal ErrorCode = "internal"
)

// =============================================================================
// Endpoint Names
// =============================================================================

// Endpoint represents a request endpoint for metrics labeling.
type Endpoint string

const (
	// EndpointQuery is the conversational query endpoint.
	EndpointQuery Endpoint = "query"

	// EndpointCalculations is the direct calculation endpoint.
	EndpointCalculations Endpoint = "calculations"
)

// =============================================================================
// Helper Methods
// =============================================================================

// RecordRequest records a completed request.
func (m *AdvisorMetrics) RecordRequest(endpoint Endpoint, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.RequestsTotal.WithLabelValues(string(endpoint), status).Inc()
}

// RecordError records a categorized request error.
func (m *AdvisorMetrics) RecordError(endpoint Endpoint, code ErrorCode) {
	m.ErrorsTotal.WithLabelValues(string(endpoint), string(code)).Inc()
}

// RecordDuration records end-to-end request latency.
func (m *AdvisorMetrics) RecordDuration(endpoint Endpoint, seconds float64) {
	m.RequestDurationSeconds.WithLabelValues(string(endpoint)).Observe(seconds)
}

// RecordToolCall increments the tool-call counter.
func (m *AdvisorMetrics) RecordToolCall(tool string) {
	m.ToolCallsTotal.WithLabelValues(tool).Inc()
}

// RecordPublishWarnings adds non-fatal publish failures for an artifact kind.
func (m *AdvisorMetrics) RecordPublishWarnings(artifact string, count int) {
	if count > 0 {
		m.PublishWarningsTotal.WithLabelValues(artifact).Add(float64(count))
	}
}

// SessionOpened increments the active session gauge.
func (m *AdvisorMetrics) SessionOpened() {
	m.ActiveSessions.Inc()
}

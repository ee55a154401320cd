// Copyright 2025 The NerMap Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels of the geocode request counter.
const (
	OutcomeResolved = "resolved"
	OutcomeCached   = "cached"
)

// Metrics counts geocoding outcomes.
type Metrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nermap",
				Name:      "geocode_requests_total",
				Help:      "Geocoding lookups by provider and outcome.",
			},
			[]string{"provider", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "nermap",
				Name:      "geocode_duration_seconds",
				Help:      "Latency of geocoding lookups.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
	}

	reg.MustRegister(m.Requests, m.Duration)

	return m
}

func (m *Metrics) observe(provider, outcome string, seconds float64) {
	if m == nil {
		return
	}

	m.Requests.WithLabelValues(provider, outcome).Inc()
	m.Duration.WithLabelValues(provider).Observe(seconds)
}

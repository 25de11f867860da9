// Package metrics exposes Prometheus collectors for the data layer. A nil
// *Metrics is valid and records nothing, so tests and library callers can
// skip metrics entirely.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors used by the store, repositories, cache and
// mutation layers.
type Metrics struct {
	StoreOps        *prometheus.CounterVec
	StoreErrors     *prometheus.CounterVec
	RepoDuration    *prometheus.HistogramVec
	CacheLookups    *prometheus.CounterVec
	CacheFetches    *prometheus.CounterVec
	Mutations       *prometheus.CounterVec
	OptimisticPhase *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg creates
// unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StoreOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ogsm_store_operations_total",
				Help: "Durable store operations by driver and operation",
			},
			[]string{"driver", "op"},
		),
		StoreErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ogsm_store_errors_total",
				Help: "Durable store failures by driver and operation",
			},
			[]string{"driver", "op"},
		),
		RepoDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ogsm_repository_duration_seconds",
				Help:    "Repository call duration including simulated latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "op"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ogsm_cache_lookups_total",
				Help: "Cache lookups by result (hit, miss, shared)",
			},
			[]string{"result"},
		),
		CacheFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ogsm_cache_fetches_total",
				Help: "Cache fetches by outcome",
			},
			[]string{"outcome"},
		),
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ogsm_mutations_total",
				Help: "Mutations by outcome",
			},
			[]string{"outcome"},
		),
		OptimisticPhase: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ogsm_optimistic_transitions_total",
				Help: "Optimistic update phase transitions by target phase",
			},
			[]string{"phase"},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.StoreOps,
			m.StoreErrors,
			m.RepoDuration,
			m.CacheLookups,
			m.CacheFetches,
			m.Mutations,
			m.OptimisticPhase,
		)
	}
	return m
}

// StoreOp counts a store operation and, when err is non-nil, a failure.
func (m *Metrics) StoreOp(driver, op string, err error) {
	if m == nil {
		return
	}
	m.StoreOps.WithLabelValues(driver, op).Inc()
	if err != nil {
		m.StoreErrors.WithLabelValues(driver, op).Inc()
	}
}

// ObserveRepo records the duration of a repository call started at start.
func (m *Metrics) ObserveRepo(kind, op string, start time.Time) {
	if m == nil {
		return
	}
	m.RepoDuration.WithLabelValues(kind, op).Observe(time.Since(start).Seconds())
}

// CacheLookup counts a cache lookup result.
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// CacheFetch counts a completed fetch.
func (m *Metrics) CacheFetch(outcome string) {
	if m == nil {
		return
	}
	m.CacheFetches.WithLabelValues(outcome).Inc()
}

// Mutation counts a settled mutation.
func (m *Metrics) Mutation(outcome string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(outcome).Inc()
}

// Phase counts an optimistic phase transition.
func (m *Metrics) Phase(phase string) {
	if m == nil {
		return
	}
	m.OptimisticPhase.WithLabelValues(phase).Inc()
}

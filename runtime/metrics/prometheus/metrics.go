// Package prometheus provides Prometheus metrics for prompt store operations.
package prometheus

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dotprompt"

// Status label values.
const (
	StatusOK = "ok"
)

// StoreMetrics holds the collectors recorded by instrumented stores.
type StoreMetrics struct {
	// operationsTotal counts store calls by outcome.
	operationsTotal *prometheus.CounterVec

	// operationDuration is a histogram of store call duration in seconds.
	operationDuration *prometheus.HistogramVec

	// inFlight is a gauge of store calls currently running.
	inFlight *prometheus.GaugeVec
}

// NewStoreMetrics creates the store collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer. Registering twice on the same
// registerer reuses the collectors registered first, so several stores can
// share one registry.
func NewStoreMetrics(reg prometheus.Registerer) (*StoreMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &StoreMetrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "operations_total",
				Help:      "Total number of prompt store operations",
			},
			[]string{"operation", "resource", "status"}, // status: ok or an error kind
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "operation_duration_seconds",
				Help:      "Duration of prompt store operations in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation", "resource"},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "operations_in_flight",
				Help:      "Number of prompt store operations currently running",
			},
			[]string{"operation"},
		),
	}

	var err error
	if m.operationsTotal, err = register(reg, m.operationsTotal); err != nil {
		return nil, err
	}
	if m.operationDuration, err = register(reg, m.operationDuration); err != nil {
		return nil, err
	}
	if m.inFlight, err = register(reg, m.inFlight); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Start marks an operation as running and returns a func that records its
// outcome. status is StatusOK or an error kind.
func (m *StoreMetrics) Start(operation string) func(resource, status string, durationSeconds float64) {
	g := m.inFlight.WithLabelValues(operation)
	g.Inc()
	return func(resource, status string, durationSeconds float64) {
		g.Dec()
		m.RecordOperation(operation, resource, status, durationSeconds)
	}
}

// RecordOperation records a completed store operation.
func (m *StoreMetrics) RecordOperation(operation, resource, status string, durationSeconds float64) {
	m.operationDuration.WithLabelValues(operation, resource).Observe(durationSeconds)
	m.operationsTotal.WithLabelValues(operation, resource, status).Inc()
}

// Collectors returns the underlying collectors, for tests and custom registries.
func (m *StoreMetrics) Collectors() (total *prometheus.CounterVec, duration *prometheus.HistogramVec, inFlight *prometheus.GaugeVec) {
	return m.operationsTotal, m.operationDuration, m.inFlight
}

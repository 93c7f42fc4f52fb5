// Package metrics exposes prometheus instrumentation for the data core.
// The registerer is injected so embedders (and tests) can isolate
// registries.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Mutation outcomes.
const (
	OutcomeConfirmed = "confirmed"
	OutcomeLocalOnly = "local-only"
)

// Bootstrap sources.
const (
	SourceRemote = "remote"
	SourceCache  = "cache"
)

// Metrics holds the instrument set for one store instance.
type Metrics struct {
	mutations *prometheus.CounterVec
	bootstrap *prometheus.CounterVec
}

// New registers the instrument set on the given registerer. A nil registerer
// yields instruments that count but are not exported anywhere.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osboard_mutations_total",
			Help: "Store mutations by entity and reconciliation outcome.",
		}, []string{"entity", "outcome"}),
		bootstrap: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osboard_bootstrap_total",
			Help: "Bootstrap collection loads by authoritative source.",
		}, []string{"collection", "source"}),
	}
	if reg != nil {
		reg.MustRegister(m.mutations, m.bootstrap)
	}
	return m
}

// ObserveMutation records one mutation outcome.
func (m *Metrics) ObserveMutation(entity, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(entity, outcome).Inc()
}

// ObserveBootstrap records the source that won for one collection during
// bootstrap.
func (m *Metrics) ObserveBootstrap(collection, source string) {
	if m == nil {
		return
	}
	m.bootstrap.WithLabelValues(collection, source).Inc()
}

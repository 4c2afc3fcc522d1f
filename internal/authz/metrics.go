package authz

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
)

// Metrics exposes Prometheus collectors for gate decisions and cache traffic.
type Metrics struct {
	decisions     *prometheus.CounterVec
	cacheRequests *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

// NewMetrics registers the authorization metrics against registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_authz_decisions_total",
		Help: "Permission gate decisions partitioned by verb and outcome.",
	}, []string{"verb", "outcome"})
	cacheRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_authz_cache_requests_total",
		Help: "Authorization cache lookups partitioned by slice and result.",
	}, []string{"slice", "result"})
	invalidations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lms_authz_cache_invalidations_total",
		Help: "Cache invalidations partitioned by scope and origin.",
	}, []string{"scope", "origin"})
	registerer.MustRegister(decisions, cacheRequests, invalidations)
	return &Metrics{decisions: decisions, cacheRequests: cacheRequests, invalidations: invalidations}
}

func (m *Metrics) decision(verb shared.Verb, outcome string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(string(verb), outcome).Inc()
}

func (m *Metrics) lookup(slice string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheRequests.WithLabelValues(slice, result).Inc()
}

func (m *Metrics) invalidated(scope Scope, remote bool) {
	if m == nil {
		return
	}
	origin := "local"
	if remote {
		origin = "remote"
	}
	m.invalidations.WithLabelValues(string(scope), origin).Inc()
}

// Package metrics holds the Prometheus collectors of the ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Mutation outcome labels.
const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	Mutations      *prometheus.CounterVec
	MutationTime   prometheus.Histogram
	AuditFailures  *prometheus.CounterVec
	AccountsOpened prometheus.Counter
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Mutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_mutations_total",
			Help: "Total number of balance mutations by kind and outcome.",
		}, []string{"kind", "status"}),
		MutationTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledger_mutation_duration_seconds",
			Help:    "Latency of balance mutations including the store round trip.",
			Buckets: prometheus.DefBuckets,
		}),
		AuditFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_audit_failures_total",
			Help: "Total number of audit entries a sink failed to record.",
		}, []string{"sink"}),
		AccountsOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "ledger_accounts_opened_total",
			Help: "Total number of accounts created.",
		}),
	}
}

// NewNop returns metrics registered nowhere.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// RecordMutation counts a mutation attempt of the given kind.
func (m *Metrics) RecordMutation(kind string, err error) {
	status := StatusAccepted
	if err != nil {
		status = StatusRejected
	}

	m.Mutations.WithLabelValues(kind, status).Inc()
}

// StartTimer starts timing a mutation.
func (m *Metrics) StartTimer() *prometheus.Timer {
	return prometheus.NewTimer(m.MutationTime)
}

// RecordAuditFailure counts an entry the named sink failed to record.
func (m *Metrics) RecordAuditFailure(sink string) {
	m.AuditFailures.WithLabelValues(sink).Inc()
}

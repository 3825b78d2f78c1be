// Package httpapi exposes batch progress over a small local HTTP surface:
// a health probe, a JSON progress summary, and Prometheus counters. It is
// observability only; nothing in the batch depends on it.
package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics implements batch.Metrics with Prometheus counters.
type Metrics struct {
	registry  *prometheus.Registry
	skipped   prometheus.Counter
	submitted prometheus.Counter
	completed prometheus.Counter
	failed    prometheus.Counter
}

// NewMetrics creates the counters on a private registry, so a host program
// embedding the driver never collides with its own collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stencil", Name: "jobs_skipped_total",
			Help: "Combinations skipped because their artifact already existed.",
		}),
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stencil", Name: "jobs_submitted_total",
			Help: "Job graphs accepted by the backend.",
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stencil", Name: "jobs_completed_total",
			Help: "Combinations whose artifact was downloaded and persisted.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stencil", Name: "jobs_failed_total",
			Help: "Combinations that ended in a submit, poll or download failure.",
		}),
	}
	m.registry.MustRegister(m.skipped, m.submitted, m.completed, m.failed)
	return m
}

// Registry returns the private registry for the /metrics endpoint.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) JobSkipped()   { m.skipped.Inc() }
func (m *Metrics) JobSubmitted() { m.submitted.Inc() }
func (m *Metrics) JobCompleted() { m.completed.Inc() }
func (m *Metrics) JobFailed()    { m.failed.Inc() }

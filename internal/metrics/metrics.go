// Package metrics exposes Prometheus collectors for the form pipeline and the form
// backend.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"merchanthaus.com/web/internal/forms"
)

const namespace = "merchanthaus"

// Metrics implements forms.Observer and leads.Observer.
type Metrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	submissions *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	leads       *prometheus.CounterVec
}

// New registers the collectors, plus Go and process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_transitions_total",
			Help:      "Form lifecycle transitions by form and target state.",
		}, []string{"form", "to"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_submissions_total",
			Help:      "Form deliveries by form and outcome.",
		}, []string{"form", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "form_delivery_seconds",
			Help:      "Form transport latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"form"}),
		leads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leads_received_total",
			Help:      "Submissions received by the form backend.",
		}, []string{"form", "spam"}),
	}
	reg.MustRegister(
		m.transitions, m.submissions, m.latency, m.leads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Transition implements forms.Observer.
func (m *Metrics) Transition(form string, _, to forms.State) {
	m.transitions.WithLabelValues(form, to.String()).Inc()
}

// Delivered implements forms.Observer.
func (m *Metrics) Delivered(form string, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.submissions.WithLabelValues(form, outcome).Inc()
	m.latency.WithLabelValues(form).Observe(elapsed.Seconds())
}

// LeadReceived implements leads.Observer.
func (m *Metrics) LeadReceived(form string, spam bool) {
	label := "false"
	if spam {
		label = "true"
	}
	m.leads.WithLabelValues(form, label).Inc()
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

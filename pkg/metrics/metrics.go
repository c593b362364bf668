// Package metrics exposes Prometheus collectors for agents and renderers.
//
// Every recording method is safe to call on a nil receiver, so components
// take a *Metrics and leave it nil when metrics are disabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reactive"

// Metrics holds the collectors shared by every agent and renderer in a
// process.
type Metrics struct {
	// Agent lifecycle
	generations     *prometheus.CounterVec   // By component
	refreshes       *prometheus.CounterVec   // By component and outcome (scheduled/fired)
	resolutionError *prometheus.CounterVec   // By component
	firstEmission   *prometheus.HistogramVec // By component
	mounted         prometheus.Gauge
	ledgerEntries   prometheus.Gauge

	// Rendering
	paints      *prometheus.CounterVec // By target
	paintErrors *prometheus.CounterVec // By target
	clients     prometheus.Gauge
}

// New creates the collectors and registers them with reg.
// A nil reg returns nil metrics, which disables recording.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}

	m := &Metrics{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "generations_total",
			Help:      "Resolution generations started, one per rendered shape",
		}, []string{"component"}),

		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "refreshes_total",
			Help:      "Host refresh requests by outcome (scheduled, fired)",
		}, []string{"component", "outcome"}),

		resolutionError: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "resolution_errors_total",
			Help:      "Generations that terminated with an error",
		}, []string{"component"}),

		firstEmission: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "first_emission_seconds",
			Help:      "Time from rendering a shape to its first materialized view",
			Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"component"}),

		mounted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "mounted",
			Help:      "Agents currently mounted",
		}),

		ledgerEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "agent",
			Name:      "ledger_entries",
			Help:      "Keep-alive subscriptions held across all agents",
		}),

		paints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "paints_total",
			Help:      "Views painted to a render target",
		}, []string{"target"}),

		paintErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "paint_errors_total",
			Help:      "Paint attempts that failed",
		}, []string{"target"}),

		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "clients",
			Help:      "Connected websocket render clients",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.generations, m.refreshes, m.resolutionError, m.firstEmission,
		m.mounted, m.ledgerEntries, m.paints, m.paintErrors, m.clients,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Generation records a new resolution generation.
func (m *Metrics) Generation(component string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(component).Inc()
}

// RefreshScheduled records a refresh request that armed the debounce timer.
func (m *Metrics) RefreshScheduled(component string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(component, "scheduled").Inc()
}

// RefreshFired records a debounced refresh reaching the host.
func (m *Metrics) RefreshFired(component string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(component, "fired").Inc()
}

// ResolutionError records a generation that terminated with an error.
func (m *Metrics) ResolutionError(component string) {
	if m == nil {
		return
	}
	m.resolutionError.WithLabelValues(component).Inc()
}

// FirstEmission records how long a generation took to settle.
func (m *Metrics) FirstEmission(component string, d time.Duration) {
	if m == nil {
		return
	}
	m.firstEmission.WithLabelValues(component).Observe(d.Seconds())
}

// Mounted adjusts the mounted agent gauge by delta.
func (m *Metrics) Mounted(delta int) {
	if m == nil {
		return
	}
	m.mounted.Add(float64(delta))
}

// LedgerEntries adjusts the keep-alive gauge by delta.
func (m *Metrics) LedgerEntries(delta int) {
	if m == nil {
		return
	}
	m.ledgerEntries.Add(float64(delta))
}

// Paint records a paint to target and whether it failed.
func (m *Metrics) Paint(target string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.paintErrors.WithLabelValues(target).Inc()
		return
	}
	m.paints.WithLabelValues(target).Inc()
}

// Clients adjusts the connected client gauge by delta.
func (m *Metrics) Clients(delta int) {
	if m == nil {
		return
	}
	m.clients.Add(float64(delta))
}

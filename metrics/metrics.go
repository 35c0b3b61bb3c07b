// Package metrics provides the shared Prometheus registry used by every
// Hootenanny process, plus the counters/gauges/histograms each component
// registers on it.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics wraps a Prometheus registerer shared by a process's components.
type Metrics struct {
	Registry prometheus.Registerer
}

// New creates a Metrics instance bound to reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{Registry: reg}
}

// Register registers a collector, returning an error on duplicate
// registration.
func (m *Metrics) Register(collector prometheus.Collector) error {
	return m.Registry.Register(collector)
}

// WireMetrics tracks Lazy Pirate client request outcomes.
type WireMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	PeerHealth      *prometheus.GaugeVec
}

// NewWireMetrics builds and registers the wire-layer collectors.
func (m *Metrics) NewWireMetrics() (*WireMetrics, error) {
	wm := &WireMetrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hootenanny",
			Subsystem: "wire",
			Name:      "requests_total",
			Help:      "Total HOOT01 requests by service and outcome.",
		}, []string{"service", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hootenanny",
			Subsystem: "wire",
			Name:      "request_duration_seconds",
			Help:      "HOOT01 request round-trip latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service"}),
		PeerHealth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hootenanny",
			Subsystem: "wire",
			Name:      "peer_health",
			Help:      "Peer health state: 0=connected, 1=unknown, 2=dead.",
		}, []string{"service"}),
	}
	for _, c := range []prometheus.Collector{wm.RequestsTotal, wm.RequestDuration, wm.PeerHealth} {
		if err := m.Register(c); err != nil {
			return nil, err
		}
	}
	return wm, nil
}

// JobStoreMetrics tracks job lifecycle counts.
type JobStoreMetrics struct {
	JobsTotal   *prometheus.CounterVec
	JobsByState *prometheus.GaugeVec
}

// NewJobStoreMetrics builds and registers the job store collectors.
func (m *Metrics) NewJobStoreMetrics() (*JobStoreMetrics, error) {
	jm := &JobStoreMetrics{
		JobsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hootenanny",
			Subsystem: "jobstore",
			Name:      "jobs_total",
			Help:      "Jobs created, by source tool.",
		}, []string{"source"}),
		JobsByState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hootenanny",
			Subsystem: "jobstore",
			Name:      "jobs_by_state",
			Help:      "Current job count by status.",
		}, []string{"status"}),
	}
	for _, c := range []prometheus.Collector{jm.JobsTotal, jm.JobsByState} {
		if err := m.Register(c); err != nil {
			return nil, err
		}
	}
	return jm, nil
}

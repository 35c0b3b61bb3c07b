package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNewWireMetricsRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	wm, err := m.NewWireMetrics()
	require.NoError(t, err)
	require.NotNil(t, wm.RequestsTotal)

	wm.RequestsTotal.WithLabelValues("hootenanny", "ok").Inc()
}

func TestNewJobStoreMetricsRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	jm, err := m.NewJobStoreMetrics()
	require.NoError(t, err)
	jm.JobsTotal.WithLabelValues("render_stem").Inc()
	jm.JobsByState.WithLabelValues("pending").Set(1)
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "dup_total"})
	require.NoError(t, m.Register(counter))
	require.Error(t, m.Register(counter))
}

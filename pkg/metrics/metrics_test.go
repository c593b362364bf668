package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRegistryDisablesMetrics(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	// Recording on nil metrics is a no-op.
	m.Generation("Counter")
	m.RefreshScheduled("Counter")
	m.Paint("main", nil)
	m.Mounted(1)
}

func TestAgentCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.Generation("Counter")
	m.Generation("Counter")
	m.RefreshScheduled("Counter")
	m.RefreshFired("Counter")
	m.ResolutionError("Counter")
	m.FirstEmission("Counter", 2*time.Millisecond)
	m.Mounted(1)
	m.LedgerEntries(2)
	m.LedgerEntries(-1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.generations.WithLabelValues("Counter")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues("Counter", "scheduled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues("Counter", "fired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolutionError.WithLabelValues("Counter")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mounted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ledgerEntries))
	assert.Equal(t, 1, testutil.CollectAndCount(m.firstEmission))
}

func TestPaintOutcomes(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.Paint("main", nil)
	m.Paint("main", errors.New("closed"))
	m.Clients(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.paints.WithLabelValues("main")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paintErrors.WithLabelValues("main")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.clients))
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("authz_reseed").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("authz_reseed").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("authz_reseed", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("authz_reseed", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("authz_reseed")))
}

func TestAddDriftIgnoresEmptyFindings(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddDrift(DriftMissingMenus, 0)
	m.AddDrift(DriftMissingMenus, 3)
	m.AddDrift(DriftHash, 1)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.drift.WithLabelValues(DriftMissingMenus)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.drift.WithLabelValues(DriftHash)))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.AddDrift(DriftHash, 1)
	err := errors.New("x")
	assert.Equal(t, err, m.Track("job").End(err))
}

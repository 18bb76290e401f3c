package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NoError(t, m.Track("reminder").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("reminder").End(boom), boom)
	m.AddItems("quote_offer", "sent", 3)
	m.AddItems("quote_offer", "sent", 0)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("reminder", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("reminder", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("reminder")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.items.WithLabelValues("quote_offer", "sent")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	require.NoError(t, m.Track("x").End(nil))
	m.AddItems("x", "sent", 1)
}

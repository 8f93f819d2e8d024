package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// findMetricValue searches the default registry (where promauto registers
// PrometheusMetricsClient's collectors) for a counter or gauge sample
// matching name and labels.
func findMetricValue(t *testing.T, name string, labels map[string]string) (float64, bool) {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			match := len(m.GetLabel()) == len(labels)
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					match = false
				}
			}
			if !match {
				continue
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue(), true
			}
			if m.GetGauge() != nil {
				return m.GetGauge().GetValue(), true
			}
			if m.GetHistogram() != nil {
				return float64(m.GetHistogram().GetSampleCount()), true
			}
		}
	}
	return 0, false
}

func TestPrometheusMetricsClientRecordCounter(t *testing.T) {
	c := NewPrometheusMetricsClient("wdcore_test_counter", "opstore", nil)

	c.RecordCounter("appends_total", 1, map[string]string{"document": "doc-1"})
	c.RecordCounter("appends_total", 2, map[string]string{"document": "doc-1"})

	value, found := findMetricValue(t, "wdcore_test_counter_opstore_appends_total", map[string]string{"document": "doc-1"})
	require.True(t, found)
	assert.Equal(t, 3.0, value)
}

func TestPrometheusMetricsClientRecordGauge(t *testing.T) {
	c := NewPrometheusMetricsClient("wdcore_test_gauge", "transport", nil)

	c.RecordGauge("subscribers", 4, map[string]string{"document": "doc-2"})

	value, found := findMetricValue(t, "wdcore_test_gauge_transport_subscribers", map[string]string{"document": "doc-2"})
	require.True(t, found)
	assert.Equal(t, 4.0, value)
}

func TestPrometheusMetricsClientRecordCacheOperation(t *testing.T) {
	c := NewPrometheusMetricsClient("wdcore_test_cache", "opstore", nil)

	c.RecordCacheOperation("snapshot_get", true, 0.01)

	value, found := findMetricValue(t, "wdcore_test_cache_opstore_cache_operations_total", map[string]string{
		"operation": "snapshot_get",
		"success":   "true",
	})
	require.True(t, found)
	assert.Equal(t, 1.0, value)
}

func TestPrometheusMetricsClientStartTimerRecordsHistogram(t *testing.T) {
	c := NewPrometheusMetricsClient("wdcore_test_timer", "", nil)

	stop := c.StartTimer("op_duration", map[string]string{"op": "range"})
	time.Sleep(time.Millisecond)
	stop()

	value, found := findMetricValue(t, "wdcore_test_timer_op_duration_seconds", map[string]string{"op": "range"})
	require.True(t, found)
	assert.Equal(t, 1.0, value)
}

func TestPrometheusMetricsClientClose(t *testing.T) {
	c := NewPrometheusMetricsClient("wdcore_test_close", "", nil)
	assert.NoError(t, c.Close())
}

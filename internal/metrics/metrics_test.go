package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCounters(t *testing.T) {
	r := NewRegistry()

	r.AddToCounter("events_total", 1, map[string]string{"type": "Message"}, "events processed")
	r.AddToCounter("events_total", 1, map[string]string{"type": "Message"}, "events processed")
	r.AddToCounter("events_total", 3, map[string]string{"type": "ReadReceipt"}, "events processed")

	snapshot := r.GetAllMetrics()
	counters, ok := snapshot["counters"].(map[string]*Metric)
	require.True(t, ok)
	require.Len(t, counters, 2)

	msg := counters["events_total,type=Message"]
	require.NotNil(t, msg)
	assert.Equal(t, float64(2), msg.Value)
	assert.Equal(t, "Message", msg.Labels["type"])

	receipt := counters["events_total,type=ReadReceipt"]
	require.NotNil(t, receipt)
	assert.Equal(t, float64(3), receipt.Value)
}

func TestRegistryTimers(t *testing.T) {
	r := NewRegistry()

	r.RecordTimer("webhook_duration", 10*time.Millisecond, nil, "webhook handling")
	r.RecordTimer("webhook_duration", 30*time.Millisecond, nil, "webhook handling")

	snapshot := r.GetAllMetrics()
	timers, ok := snapshot["timers"].(map[string]*TimerMetric)
	require.True(t, ok)

	timer := timers["webhook_duration"]
	require.NotNil(t, timer)
	assert.Equal(t, int64(2), timer.Count)
	assert.Equal(t, float64(10), timer.Min)
	assert.Equal(t, float64(30), timer.Max)
	assert.Equal(t, float64(20), timer.Average)
}

func TestMetricKeyLabelOrder(t *testing.T) {
	a := metricKey("m", map[string]string{"b": "2", "a": "1"})
	b := metricKey("m", map[string]string{"a": "1", "b": "2"})
	assert.Equal(t, a, b)
	assert.Equal(t, "m,a=1,b=2", a)
}

func TestSnapshotIsolation(t *testing.T) {
	r := NewRegistry()
	r.AddToCounter("c", 1, nil, "")

	snapshot := r.GetAllMetrics()
	counters := snapshot["counters"].(map[string]*Metric)
	counters["c"].Value = 99

	again := r.GetAllMetrics()
	assert.Equal(t, float64(1), again["counters"].(map[string]*Metric)["c"].Value)
}

func TestGlobalRegistryHelpers(t *testing.T) {
	IncrementCounter("global_test_counter", nil, "test only")
	snapshot := GetAllMetrics()
	counters := snapshot["counters"].(map[string]*Metric)
	require.NotNil(t, counters["global_test_counter"])
	assert.GreaterOrEqual(t, counters["global_test_counter"].Value, float64(1))
}

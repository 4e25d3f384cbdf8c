package metric

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/target-singer-jsonl/errors"
)

func TestNewMetricsRegistry(t *testing.T) {
	reg := NewMetricsRegistry()
	require.NotNil(t, reg.Metrics)

	families, err := reg.PrometheusRegistry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestRegister_Duplicate(t *testing.T) {
	reg := NewMetricsRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})

	require.NoError(t, reg.Register("comp", "test", counter))

	err := reg.Register("comp", "test", counter)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	other := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_total", Help: "test"})
	err = reg.Register("other", "test", other)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	assert.True(t, reg.Unregister("comp", "test"))
	assert.False(t, reg.Unregister("comp", "test"))
	assert.NoError(t, reg.Register("other", "test", other))
}

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics()

	m.RecordMessage("RECORD")
	m.RecordMessage("RECORD")
	m.RecordMessage("STATE")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesReceived.WithLabelValues("RECORD")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MessagesReceived.WithLabelValues("STATE")))

	m.RecordFlush("local", "users", 3, 120, 10*time.Millisecond, nil)
	m.RecordFlush("local", "orders", 2, 50, time.Millisecond, assert.AnError)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StreamsFlushed.WithLabelValues("local", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StreamsFlushed.WithLabelValues("local", "error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LinesWritten.WithLabelValues("users")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.BytesWritten.WithLabelValues("users")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.LinesWritten.WithLabelValues("orders")))

	start := time.Unix(1000, 0)
	m.RecordRunComplete(start, start.Add(2*time.Second))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RunDuration))
	assert.Equal(t, 1002.0, testutil.ToFloat64(m.RunTimestamp))
}

func TestWriteTextfile(t *testing.T) {
	reg := NewMetricsRegistry()
	reg.Metrics.RecordsAccepted.WithLabelValues("users").Add(5)

	path := filepath.Join(t.TempDir(), "target.prom")
	require.NoError(t, reg.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `singer_target_records_accepted_total{stream="users"} 5`))
}

func TestWriteTextfile_BadPath(t *testing.T) {
	reg := NewMetricsRegistry()
	err := reg.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
}

package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "singer_target"

// Metrics contains the counters and histograms recorded during a run.
type Metrics struct {
	MessagesReceived  *prometheus.CounterVec
	RecordsAccepted   *prometheus.CounterVec
	RecordsRejected   *prometheus.CounterVec
	SchemasRegistered *prometheus.CounterVec
	StateMessages     prometheus.Counter

	StreamsFlushed *prometheus.CounterVec
	LinesWritten   *prometheus.CounterVec
	BytesWritten   *prometheus.CounterVec
	FlushDuration  *prometheus.HistogramVec

	RunDuration  prometheus.Gauge
	RunTimestamp prometheus.Gauge
}

// NewMetrics creates the run metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		MessagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "messages",
				Name:      "received_total",
				Help:      "Messages decoded from input by type",
			},
			[]string{"type"},
		),

		RecordsAccepted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "records",
				Name:      "accepted_total",
				Help:      "Records that passed schema validation",
			},
			[]string{"stream"},
		),

		RecordsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "records",
				Name:      "rejected_total",
				Help:      "Records rejected by reason",
			},
			[]string{"stream", "reason"},
		),

		SchemasRegistered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "schemas",
				Name:      "registered_total",
				Help:      "SCHEMA messages registered per stream",
			},
			[]string{"stream"},
		),

		StateMessages: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "state",
				Name:      "messages_total",
				Help:      "STATE messages seen",
			},
		),

		StreamsFlushed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "flush",
				Name:      "streams_total",
				Help:      "Stream artifacts committed by destination and status",
			},
			[]string{"destination", "status"},
		),

		LinesWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "flush",
				Name:      "lines_total",
				Help:      "Lines written per stream",
			},
			[]string{"stream"},
		),

		BytesWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "flush",
				Name:      "bytes_total",
				Help:      "Uncompressed bytes written per stream",
			},
			[]string{"stream"},
		),

		FlushDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "flush",
				Name:      "duration_seconds",
				Help:      "Time to write and commit one stream artifact",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"destination"},
		),

		RunDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "run",
				Name:      "duration_seconds",
				Help:      "Wall time of the last run",
			},
		),

		RunTimestamp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "run",
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time at which the last run completed successfully",
			},
		),
	}
}

// RecordMessage counts one decoded message.
func (m *Metrics) RecordMessage(msgType string) {
	m.MessagesReceived.WithLabelValues(msgType).Inc()
}

// RecordFlush records one committed or failed artifact.
func (m *Metrics) RecordFlush(destination, stream string, lines int, bytes int64, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.StreamsFlushed.WithLabelValues(destination, status).Inc()
	m.FlushDuration.WithLabelValues(destination).Observe(d.Seconds())
	if err == nil {
		m.LinesWritten.WithLabelValues(stream).Add(float64(lines))
		m.BytesWritten.WithLabelValues(stream).Add(float64(bytes))
	}
}

// RecordRunComplete marks the end of a successful run.
func (m *Metrics) RecordRunComplete(started, finished time.Time) {
	m.RunDuration.Set(finished.Sub(started).Seconds())
	m.RunTimestamp.Set(float64(finished.Unix()))
}

// Package metrics holds the Prometheus instruments of one server instance.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "simplechat"

// Metrics implements mailbox.Observer and pebblestore.MetricsHook. Each
// instance owns its registry so tests and multiple runtimes do not collide.
type Metrics struct {
	registry *prometheus.Registry

	MessagesEnqueued  prometheus.Counter
	MessagesDelivered prometheus.Counter
	CorruptEntries    prometheus.Counter
	ScanFailures      prometheus.Counter
	DeleteFailures    prometheus.Counter
	RateLimited       prometheus.Counter
	ActiveSubscribers prometheus.Gauge

	StoreReadSeconds   prometheus.Histogram
	StoreWriteSeconds  prometheus.Histogram
	StoreCommitSeconds prometheus.Histogram
	StoreBytesWritten  prometheus.Counter
}

// New registers every instrument plus the Go and process collectors on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	storeBuckets := prometheus.ExponentialBuckets(0.00005, 4, 10)
	return &Metrics{
		registry: reg,
		MessagesEnqueued: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_enqueued_total",
			Help: "Messages written to a mailbox.",
		}),
		MessagesDelivered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "messages_delivered_total",
			Help: "Messages accepted by a subscriber.",
		}),
		CorruptEntries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "corrupt_entries_total",
			Help: "Distinct stored entries skipped because they failed to decode or validate.",
		}),
		ScanFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "mailbox_scan_failures_total",
			Help: "Delivery cycles that failed to scan the mailbox.",
		}),
		DeleteFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "mailbox_delete_failures_total",
			Help: "Deletes after emit that failed; those messages will be redelivered.",
		}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "send_rate_limited_total",
			Help: "Sends rejected by the per-sender rate limiter.",
		}),
		ActiveSubscribers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "active_subscribers",
			Help: "Open receive streams.",
		}),
		StoreReadSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "store", Name: "read_seconds",
			Help: "Latency of store reads.", Buckets: storeBuckets,
		}),
		StoreWriteSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "store", Name: "write_seconds",
			Help: "Latency of store writes.", Buckets: storeBuckets,
		}),
		StoreCommitSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "store", Name: "commit_seconds",
			Help: "Latency of store batch commits.", Buckets: storeBuckets,
		}),
		StoreBytesWritten: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "store", Name: "written_bytes_total",
			Help: "Bytes written to the store.",
		}),
	}
}

// Registry returns the instance registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) MessageEnqueued()  { m.MessagesEnqueued.Inc() }
func (m *Metrics) MessageDelivered() { m.MessagesDelivered.Inc() }
func (m *Metrics) CorruptEntry()     { m.CorruptEntries.Inc() }
func (m *Metrics) ScanFailed()       { m.ScanFailures.Inc() }
func (m *Metrics) DeleteFailed()     { m.DeleteFailures.Inc() }

func (m *Metrics) ObserveRead(elapsed time.Duration, _ int) {
	m.StoreReadSeconds.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveWrite(elapsed time.Duration, bytes int) {
	m.StoreWriteSeconds.Observe(elapsed.Seconds())
	m.StoreBytesWritten.Add(float64(bytes))
}

func (m *Metrics) ObserveBatchCommit(elapsed time.Duration, _ int, _ int) {
	m.StoreCommitSeconds.Observe(elapsed.Seconds())
}

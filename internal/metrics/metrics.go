package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests and multiple instances never
// collide on the global one.
type Collector struct {
	reg *prometheus.Registry

	LiveSubscribers prometheus.Gauge

	SnapshotBuilds   *prometheus.CounterVec // result: ok|not_found|error
	SnapshotDuration prometheus.Histogram

	Pushes *prometheus.CounterVec // result: ok|dropped

	PositionsRecorded *prometheus.CounterVec // source: http|nats

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		LiveSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bus_tracker_live_subscribers",
			Help: "Number of live channels currently subscribed.",
		}),
		SnapshotBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bus_tracker_snapshot_builds_total",
			Help: "Snapshot builds by result.",
		}, []string{"result"}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bus_tracker_snapshot_build_duration_seconds",
			Help:    "Duration of snapshot builds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		Pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bus_tracker_live_pushes_total",
			Help: "Documents pushed to live channels by result.",
		}, []string{"result"}),
		PositionsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bus_tracker_positions_recorded_total",
			Help: "Position samples stored by ingestion source.",
		}, []string{"source"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bus_tracker_nats_published_total",
			Help: "Update notifications published to NATS.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bus_tracker_nats_publish_errors_total",
			Help: "Failed NATS publishes.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bus_tracker_nats_connected",
			Help: "1 if the NATS connection is established, 0 otherwise.",
		}),
	}

	reg.MustRegister(
		c.LiveSubscribers,
		c.SnapshotBuilds, c.SnapshotDuration,
		c.Pushes, c.PositionsRecorded,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) SnapshotBuilt(result string, d time.Duration) {
	c.SnapshotBuilds.WithLabelValues(result).Inc()
	c.SnapshotDuration.Observe(d.Seconds())
}

func (c *Collector) Pushed(result string) {
	c.Pushes.WithLabelValues(result).Inc()
}

func (c *Collector) Subscribers(n int) {
	c.LiveSubscribers.Set(float64(n))
}

func (c *Collector) PositionRecorded(source string) {
	c.PositionsRecorded.WithLabelValues(source).Inc()
}

func (c *Collector) Published(err error) {
	if err != nil {
		c.NATSPublishErrs.Inc()
		return
	}
	c.NATSPublished.Inc()
}

func (c *Collector) Connected(up bool) {
	if up {
		c.NATSConnected.Set(1)
		return
	}
	c.NATSConnected.Set(0)
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

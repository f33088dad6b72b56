// Package metrics wires a Prometheus-backed implementation of the
// MetricsSink interfaces that axis, schedule, and eventbridge each
// declare locally, so none of those packages import prometheus
// directly. Only cmd/timingcore-demo constructs a Sink.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sink implements axis.MetricsSink, schedule.MetricsSink, and the
// publish-observer eventbridge consumes, backed by a single
// prometheus.Registerer so every metric shares one registry.
type Sink struct {
	axisUpdateTotal   *prometheus.CounterVec
	axisCueCount      prometheus.Gauge
	axisBucketSize    *prometheus.GaugeVec
	scheduleCycle     *prometheus.CounterVec
	scheduleFired     prometheus.Counter
	scheduleQueue     prometheus.Gauge
	bridgePublish     *prometheus.CounterVec
	bridgeDuration    prometheus.Histogram
}

// New registers every metric against reg and returns a Sink. Passing
// prometheus.DefaultRegisterer is the common case.
func New(reg prometheus.Registerer) *Sink {
	factory := promauto.With(reg)
	return &Sink{
		axisUpdateTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "axis_update_total",
			Help: "Total number of per-cue delta outcomes applied by Axis.Update, by field and delta kind.",
		}, []string{"field", "delta"}),
		axisCueCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "axis_cue_count",
			Help: "Current number of cues held by the axis.",
		}),
		axisBucketSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "axis_bucket_size",
			Help: "Current number of distinct points held per length bucket.",
		}, []string{"cap"}),
		scheduleCycle: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "schedule_cycle_total",
			Help: "Total number of schedule run cycles, by trigger (advance or reload).",
		}, []string{"trigger"}),
		scheduleFired: factory.NewCounter(prometheus.CounterOpts{
			Name: "schedule_events_fired_total",
			Help: "Total number of due events fired by the schedule.",
		}),
		scheduleQueue: factory.NewGauge(prometheus.GaugeOpts{
			Name: "schedule_queue_depth",
			Help: "Current number of pending (not yet due) events in the schedule's look-ahead queue.",
		}),
		bridgePublish: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bridge_publish_total",
			Help: "Total number of event-bridge publish attempts, by outcome.",
		}, []string{"outcome"}),
		bridgeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bridge_publish_duration_seconds",
			Help:    "Duration of event-bridge publish calls, including breaker overhead.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveUpdate implements axis.MetricsSink.
func (s *Sink) ObserveUpdate(intervalDelta, dataDelta string) {
	s.axisUpdateTotal.WithLabelValues("interval", intervalDelta).Inc()
	s.axisUpdateTotal.WithLabelValues("data", dataDelta).Inc()
}

// SetCueCount implements axis.MetricsSink.
func (s *Sink) SetCueCount(n int) { s.axisCueCount.Set(float64(n)) }

// SetBucketSize implements axis.MetricsSink.
func (s *Sink) SetBucketSize(capLabel string, n int) {
	s.axisBucketSize.WithLabelValues(capLabel).Set(float64(n))
}

// ObserveCycle implements schedule.MetricsSink.
func (s *Sink) ObserveCycle(trigger string) { s.scheduleCycle.WithLabelValues(trigger).Inc() }

// ObserveEventsFired implements schedule.MetricsSink.
func (s *Sink) ObserveEventsFired(n int) { s.scheduleFired.Add(float64(n)) }

// SetQueueDepth implements schedule.MetricsSink.
func (s *Sink) SetQueueDepth(n int) { s.scheduleQueue.Set(float64(n)) }

// ObservePublish records one event-bridge publish attempt. outcome is
// one of "success", "breaker_open", or "error".
func (s *Sink) ObservePublish(outcome string, duration time.Duration) {
	s.bridgePublish.WithLabelValues(outcome).Inc()
	s.bridgeDuration.Observe(duration.Seconds())
}

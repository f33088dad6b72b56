package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSinkAxisMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(reg)

	s.ObserveUpdate("noop", "replace")
	s.SetCueCount(3)
	s.SetBucketSize("100", 2)

	if got := testutil.ToFloat64(s.axisUpdateTotal.WithLabelValues("interval", "noop")); got != 1 {
		t.Errorf("axis_update_total{field=interval,delta=noop} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.axisUpdateTotal.WithLabelValues("data", "replace")); got != 1 {
		t.Errorf("axis_update_total{field=data,delta=replace} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.axisCueCount); got != 3 {
		t.Errorf("axis_cue_count = %v, want 3", got)
	}
	if got := testutil.ToFloat64(s.axisBucketSize.WithLabelValues("100")); got != 2 {
		t.Errorf("axis_bucket_size{cap=100} = %v, want 2", got)
	}
}

func TestSinkScheduleMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(reg)

	s.ObserveCycle("advance")
	s.ObserveCycle("advance")
	s.ObserveEventsFired(4)
	s.SetQueueDepth(7)

	if got := testutil.ToFloat64(s.scheduleCycle.WithLabelValues("advance")); got != 2 {
		t.Errorf("schedule_cycle_total{trigger=advance} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(s.scheduleFired); got != 4 {
		t.Errorf("schedule_events_fired_total = %v, want 4", got)
	}
	if got := testutil.ToFloat64(s.scheduleQueue); got != 7 {
		t.Errorf("schedule_queue_depth = %v, want 7", got)
	}
}

func TestSinkObservePublish(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(reg)

	s.ObservePublish("success", 5*time.Millisecond)
	s.ObservePublish("breaker_open", time.Millisecond)

	if got := testutil.ToFloat64(s.bridgePublish.WithLabelValues("success")); got != 1 {
		t.Errorf("bridge_publish_total{outcome=success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.bridgePublish.WithLabelValues("breaker_open")); got != 1 {
		t.Errorf("bridge_publish_total{outcome=breaker_open} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(s.bridgeDuration); got != 2 {
		t.Errorf("bridge_publish_duration_seconds sample count = %v, want 2", got)
	}
}

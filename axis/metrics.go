package axis

// MetricsSink receives observability events from an Axis. Implementing
// this locally (rather than importing prometheus here) keeps the core
// free of the metrics dependency; cmd/timingcore-demo wires a
// Prometheus-backed sink. See internal/metrics for that implementation.
type MetricsSink interface {
	ObserveUpdate(intervalDelta, dataDelta string)
	SetCueCount(n int)
	SetBucketSize(capLabel string, n int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveUpdate(string, string)    {}
func (noopMetrics) SetCueCount(int)                 {}
func (noopMetrics) SetBucketSize(string, int)       {}

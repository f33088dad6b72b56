package schedule

// MetricsSink receives observability events from a Schedule. Defined
// locally (not importing prometheus) so the core stays free of the
// metrics dependency; cmd/timingcore-demo wires the Prometheus-backed
// sink from internal/metrics.
type MetricsSink interface {
	ObserveCycle(trigger string)
	ObserveEventsFired(n int)
	SetQueueDepth(n int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveCycle(string)  {}
func (noopMetrics) ObserveEventsFired(int) {}
func (noopMetrics) SetQueueDepth(int)      {}

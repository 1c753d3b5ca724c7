package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricFramesProcessed = "ingest_frames_processed_total"
	MetricFramesError     = "ingest_frames_error_total"
	MetricFramesDuplicate = "ingest_frames_duplicate_total"
	MetricAggregations    = "ingest_aggregations_total"
	MetricInsightRuns     = "ingest_insight_runs_total"
	MetricFrameLatency    = "ingest_frame_latency_seconds"
)

// Metrics contains Prometheus metrics for the change feed consumer.
// All operations are thread-safe.
type Metrics struct {
	framesProcessed prometheus.Counter
	framesError     prometheus.Counter
	framesDuplicate prometheus.Counter
	aggregations    prometheus.Counter
	insightRuns     prometheus.Counter
	frameLatency    prometheus.Histogram
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		framesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricFramesProcessed,
			Help: "Total number of change frames processed",
		}),
		framesError: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricFramesError,
			Help: "Total number of change frames that resulted in processing errors",
		}),
		framesDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricFramesDuplicate,
			Help: "Total number of change frames skipped as duplicate deliveries",
		}),
		aggregations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricAggregations,
			Help: "Total number of analytics aggregation operations",
		}),
		insightRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricInsightRuns,
			Help: "Total number of insight generation runs triggered from the feed",
		}),
		frameLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricFrameLatency,
			Help:    "Histogram of change frame processing latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncFramesProcessed increments the frames processed counter.
func (m *Metrics) IncFramesProcessed() {
	m.framesProcessed.Inc()
}

// IncFramesError increments the frames error counter.
func (m *Metrics) IncFramesError() {
	m.framesError.Inc()
}

// IncFramesDuplicate increments the duplicate delivery counter.
func (m *Metrics) IncFramesDuplicate() {
	m.framesDuplicate.Inc()
}

// IncAggregations increments the aggregation counter.
func (m *Metrics) IncAggregations() {
	m.aggregations.Inc()
}

// IncInsightRuns increments the insight run counter.
func (m *Metrics) IncInsightRuns() {
	m.insightRuns.Inc()
}

// ObserveFrameLatency records a frame processing latency sample.
func (m *Metrics) ObserveFrameLatency(seconds float64) {
	m.frameLatency.Observe(seconds)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.framesProcessed,
		m.framesError,
		m.framesDuplicate,
		m.aggregations,
		m.insightRuns,
		m.frameLatency,
	}
}

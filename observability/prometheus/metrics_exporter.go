package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Swind/go-dispatch-queue/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
	BatchBuckets    []float64
}

// DefaultBatchBuckets covers drains from a single task up to a few thousand.
var DefaultBatchBuckets = prom.ExponentialBuckets(1, 4, 7)

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	taskDurationSeconds *prom.HistogramVec
	taskPanicTotal      *prom.CounterVec
	taskRejectedTotal   *prom.CounterVec
	drainBatchSize      *prom.HistogramVec
	wakeRequestTotal    *prom.CounterVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "dispatchqueue"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}
	batchBuckets := opts.BatchBuckets
	if len(batchBuckets) == 0 {
		batchBuckets = DefaultBatchBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Task execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"queue"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of task panics.",
	}, []string{"queue"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_rejected_total",
		Help:      "Total number of rejected tasks.",
	}, []string{"queue", "reason"})
	batchVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "drain_batch_size",
		Help:      "Number of tasks run by one drain.",
		Buckets:   batchBuckets,
	}, []string{"queue"})
	wakeVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "wake_request_total",
		Help:      "Total number of drains requested from the dispatcher.",
	}, []string{"queue"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if batchVec, err = registerCollector(reg, batchVec); err != nil {
		return nil, err
	}
	if wakeVec, err = registerCollector(reg, wakeVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		taskDurationSeconds: durationVec,
		taskPanicTotal:      panicVec,
		taskRejectedTotal:   rejectedVec,
		drainBatchSize:      batchVec,
		wakeRequestTotal:    wakeVec,
	}, nil
}

// RecordTaskDuration records task execution duration.
func (m *MetricsExporter) RecordTaskDuration(queueName string, duration time.Duration) {
	if m == nil {
		return
	}
	m.taskDurationSeconds.WithLabelValues(normalizeLabel(queueName, "unknown")).Observe(duration.Seconds())
}

// RecordTaskPanic records task panic events.
func (m *MetricsExporter) RecordTaskPanic(queueName string, panicInfo any) {
	if m == nil {
		return
	}
	m.taskPanicTotal.WithLabelValues(normalizeLabel(queueName, "unknown")).Inc()
}

// RecordDrainBatch records how many tasks one drain ran.
func (m *MetricsExporter) RecordDrainBatch(queueName string, size int) {
	if m == nil {
		return
	}
	m.drainBatchSize.WithLabelValues(normalizeLabel(queueName, "unknown")).Observe(float64(size))
}

// RecordWakeRequest records an idle to pending transition.
func (m *MetricsExporter) RecordWakeRequest(queueName string) {
	if m == nil {
		return
	}
	m.wakeRequestTotal.WithLabelValues(normalizeLabel(queueName, "unknown")).Inc()
}

// RecordTaskRejected records task rejection events.
func (m *MetricsExporter) RecordTaskRejected(queueName string, reason string) {
	if m == nil {
		return
	}
	m.taskRejectedTotal.WithLabelValues(normalizeLabel(queueName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}

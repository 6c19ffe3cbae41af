package core

import (
	"context"
	"time"
)

// =============================================================================
// PanicHandler: Interface for handling task panics
// =============================================================================

// PanicHandler is called when a task panics during execution.
// The drain recovers the panic, reports it here and moves on to the next task.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called when a task panics.
	//
	// Parameters:
	// - ctx: The context from the panicked task (carries the current queue)
	// - queueName: The name of the queue or pool where the panic occurred
	// - workerID: The ID of the pool worker, -1 for queue drains
	// - panicInfo: The panic value recovered from the task
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, queueName string, workerID int, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler logs panics at error level.
type DefaultPanicHandler struct {
	Logger Logger
}

// HandlePanic logs the panic and its stack trace.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, queueName string, workerID int, panicInfo any, stackTrace []byte) {
	logger := h.Logger
	if logger == nil {
		logger = defaultLogger()
	}
	logger.Error("task panicked",
		F("queue", queueName),
		F("worker", workerID),
		F("panic", panicInfo),
		F("stack", string(stackTrace)),
	)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting queue execution metrics.
// Implementations can send metrics to monitoring systems (Prometheus, StatsD, etc.).
//
// Methods are called from drain loops and producers, so they should be
// non-blocking and fast.
type Metrics interface {
	// RecordTaskDuration records how long a task took to execute.
	RecordTaskDuration(queueName string, duration time.Duration)

	// RecordTaskPanic records that a task panicked during execution.
	RecordTaskPanic(queueName string, panicInfo any)

	// RecordDrainBatch records how many tasks one drain flushed.
	RecordDrainBatch(queueName string, size int)

	// RecordWakeRequest records an idle to pending transition, that is one
	// call into the Dispatcher. Pushes coalesced into a running drain are
	// not recorded.
	RecordWakeRequest(queueName string)

	// RecordTaskRejected records that a task was rejected (e.g., after Close).
	RecordTaskRejected(queueName string, reason string)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

func (m *NilMetrics) RecordTaskDuration(queueName string, duration time.Duration) {}
func (m *NilMetrics) RecordTaskPanic(queueName string, panicInfo any)            {}
func (m *NilMetrics) RecordDrainBatch(queueName string, size int)                {}
func (m *NilMetrics) RecordWakeRequest(queueName string)                         {}
func (m *NilMetrics) RecordTaskRejected(queueName string, reason string)         {}

// =============================================================================
// RejectedTaskHandler: Interface for handling rejected tasks
// =============================================================================

// RejectedTaskHandler is called when a task is not accepted. This happens when:
// - The queue has been closed
// - The pool scheduler is shutting down
//
// Implementations should be thread-safe as they may be called concurrently.
type RejectedTaskHandler interface {
	HandleRejectedTask(queueName string, reason string)
}

// DefaultRejectedTaskHandler logs rejected tasks at warn level.
type DefaultRejectedTaskHandler struct {
	Logger Logger
}

// HandleRejectedTask logs the rejected task.
func (h *DefaultRejectedTaskHandler) HandleRejectedTask(queueName string, reason string) {
	logger := h.Logger
	if logger == nil {
		logger = defaultLogger()
	}
	logger.Warn("task rejected", F("queue", queueName), F("reason", reason))
}

// =============================================================================
// Configuration
// =============================================================================

// QueueConfig holds configuration options for a Queue.
// All fields are optional; zero values fall back to defaults.
type QueueConfig struct {
	// Name identifies the queue in logs, metrics and stats.
	Name string

	// Logger receives lifecycle events. Defaults to the package logger.
	Logger Logger

	// PanicHandler is called when a task panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// Metrics records execution metrics. Defaults to NilMetrics.
	Metrics Metrics

	// RejectedTaskHandler is called when a task is rejected. Defaults to DefaultRejectedTaskHandler.
	RejectedTaskHandler RejectedTaskHandler
}

// DefaultQueueConfig returns a config with default handlers.
func DefaultQueueConfig() *QueueConfig {
	return &QueueConfig{
		Name:                "queue",
		Logger:              defaultLogger(),
		PanicHandler:        &DefaultPanicHandler{},
		Metrics:             &NilMetrics{},
		RejectedTaskHandler: &DefaultRejectedTaskHandler{},
	}
}

// TaskSchedulerConfig holds configuration options for TaskScheduler.
// All handlers are optional; if not provided, default implementations will be used.
type TaskSchedulerConfig struct {
	Logger              Logger
	PanicHandler        PanicHandler
	Metrics             Metrics
	RejectedTaskHandler RejectedTaskHandler
}

// DefaultTaskSchedulerConfig returns a config with default handlers.
func DefaultTaskSchedulerConfig() *TaskSchedulerConfig {
	return &TaskSchedulerConfig{
		Logger:              defaultLogger(),
		PanicHandler:        &DefaultPanicHandler{},
		Metrics:             &NilMetrics{},
		RejectedTaskHandler: &DefaultRejectedTaskHandler{},
	}
}

type resolvedHandlers struct {
	logger       Logger
	panicHandler PanicHandler
	metrics      Metrics
	rejected     RejectedTaskHandler
}

func resolveHandlers(logger Logger, ph PanicHandler, m Metrics, rh RejectedTaskHandler) resolvedHandlers {
	if logger == nil {
		logger = defaultLogger()
	}
	if ph == nil {
		ph = &DefaultPanicHandler{Logger: logger}
	}
	if m == nil {
		m = &NilMetrics{}
	}
	if rh == nil {
		rh = &DefaultRejectedTaskHandler{Logger: logger}
	}
	return resolvedHandlers{logger: logger, panicHandler: ph, metrics: m, rejected: rh}
}

package core

import (
	"fmt"
	"time"

	"go.uber.org/atomic"
)

// TaskScheduler is the work source behind GoroutineThreadPool: producers
// Schedule callbacks, workers pull them with GetWork.
type TaskScheduler struct {
	queue       *callbackQueue
	signal      chan struct{}
	workerCount int

	metricQueued atomic.Int32 // Waiting in queue
	metricActive atomic.Int32 // Executing in Worker

	// Handlers and Metrics
	logger              Logger
	panicHandler        PanicHandler
	metrics             Metrics
	rejectedTaskHandler RejectedTaskHandler

	// Lifecycle
	shuttingDown atomic.Bool
}

var _ Dispatcher = (*TaskScheduler)(nil)

func NewTaskScheduler(workerCount int) *TaskScheduler {
	return NewTaskSchedulerWithConfig(workerCount, DefaultTaskSchedulerConfig())
}

func NewTaskSchedulerWithConfig(workerCount int, config *TaskSchedulerConfig) *TaskScheduler {
	if workerCount < 1 {
		workerCount = 1
	}
	if config == nil {
		config = DefaultTaskSchedulerConfig()
	}
	h := resolveHandlers(config.Logger, config.PanicHandler, config.Metrics, config.RejectedTaskHandler)

	return &TaskScheduler{
		queue:               newCallbackQueue(),
		signal:              make(chan struct{}, workerCount*2),
		workerCount:         workerCount,
		logger:              h.logger,
		panicHandler:        h.panicHandler,
		metrics:             h.metrics,
		rejectedTaskHandler: h.rejected,
	}
}

// Schedule queues callback for the next free worker. It never blocks.
func (s *TaskScheduler) Schedule(callback func()) {
	// If shutting down, reject new tasks
	if s.shuttingDown.Load() {
		s.logger.Warn("drain callback rejected after scheduler shutdown; the queue that scheduled it can no longer run tasks and its Close will block",
			F("scheduler", "TaskScheduler"))
		s.rejectedTaskHandler.HandleRejectedTask("TaskScheduler", "shutting down")
		s.metrics.RecordTaskRejected("TaskScheduler", "shutting down")
		return
	}

	s.queue.Push(callback)
	s.metricQueued.Inc()

	select {
	case s.signal <- struct{}{}:
	default:
		// Signal channel full, but the callback is already queued.
		// Workers re-check the queue before sleeping, so nothing is lost.
	}
}

// GetWork (Called by Worker)
func (s *TaskScheduler) GetWork(stopCh <-chan struct{}) (func(), bool) {
	for {
		if fn, ok := s.queue.Pop(); ok {
			s.metricQueued.Dec()
			return fn, true
		}

		select {
		case <-s.signal:
			continue
		case <-stopCh:
			return nil, false
		}
	}
}

// Shutdown stops accepting callbacks and drops the queued ones.
func (s *TaskScheduler) Shutdown() {
	s.shuttingDown.Store(true)
	dropped := s.queue.Len()
	s.queue.Clear()
	s.metricQueued.Store(0)
	if dropped > 0 {
		s.logger.Warn("scheduler shut down with queued callbacks", F("dropped", dropped))
	}
}

// ShutdownGraceful waits for all queued and active callbacks to complete
// Returns error if timeout is exceeded before they complete
func (s *TaskScheduler) ShutdownGraceful(timeout time.Duration) error {
	s.shuttingDown.Store(true)

	deadline := time.After(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if s.QueuedTaskCount() == 0 && s.ActiveTaskCount() == 0 {
			return nil
		}
		select {
		case <-deadline:
			// Timeout exceeded, force clear remaining queue
			s.queue.Clear()
			s.metricQueued.Store(0)
			return fmt.Errorf("shutdown graceful timeout after %v, forced clearing", timeout)
		case <-ticker.C:
		}
	}
}

// IsShuttingDown reports whether Shutdown or ShutdownGraceful was called.
func (s *TaskScheduler) IsShuttingDown() bool { return s.shuttingDown.Load() }

// Metrics
func (s *TaskScheduler) WorkerCount() int     { return s.workerCount }
func (s *TaskScheduler) QueuedTaskCount() int { return int(s.metricQueued.Load()) }
func (s *TaskScheduler) ActiveTaskCount() int { return int(s.metricActive.Load()) }

func (s *TaskScheduler) OnTaskStart() {
	s.metricActive.Inc()
}

func (s *TaskScheduler) OnTaskEnd() {
	s.metricActive.Dec()
}

// GetPanicHandler returns the panic handler for this scheduler
func (s *TaskScheduler) GetPanicHandler() PanicHandler {
	return s.panicHandler
}

// GetMetrics returns the metrics collector for this scheduler
func (s *TaskScheduler) GetMetrics() Metrics {
	return s.metrics
}

// GetLogger returns the logger for this scheduler
func (s *TaskScheduler) GetLogger() Logger {
	return s.logger
}

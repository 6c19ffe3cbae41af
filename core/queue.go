package core

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Queue is a serial dispatch queue: any number of goroutines post tasks, and
// the tasks run one at a time, in push order per producer, on whatever
// goroutine the Dispatcher picks for the drain.
//
// Pushes are lock-free. Many pushes between two drains are coalesced into a
// single Dispatcher.Schedule call: pending flips false to true with a CAS on
// the push that finds the stack empty, and only the drain flips it back.
//
// Close pushes a sentinel task and blocks until the drain reaches it, so every
// task accepted before Close has run by the time Close returns.
type Queue struct {
	name       string
	dispatcher Dispatcher
	stack      taskStack
	pending    atomic.Bool
	drainFunc  func()

	// producers counts Async calls between their closed check and their push.
	// Close waits for it to reach zero before pushing the sentinel so that
	// nothing is ever linked behind the sentinel.
	producers atomic.Int32
	closed    atomic.Bool
	closeOnce sync.Once
	shutdown  *Semaphore

	activeDrains atomic.Int32 // guard for the single-drain assertion

	logger       Logger
	panicHandler PanicHandler
	metrics      Metrics
	rejected     RejectedTaskHandler
	timed        bool

	executed     atomic.Int64
	rejectedN    atomic.Int64
	panicked     atomic.Int64
	drains       atomic.Int64
	wakeRequests atomic.Int64
}

// NewQueue creates a Queue that drains on d, using default handlers.
func NewQueue(d Dispatcher) *Queue {
	return NewQueueWithConfig(d, DefaultQueueConfig())
}

// NewQueueWithConfig creates a Queue that drains on d.
func NewQueueWithConfig(d Dispatcher, config *QueueConfig) *Queue {
	if d == nil {
		panic("core.NewQueue: nil Dispatcher")
	}
	if config == nil {
		config = DefaultQueueConfig()
	}
	h := resolveHandlers(config.Logger, config.PanicHandler, config.Metrics, config.RejectedTaskHandler)

	q := &Queue{
		name:         config.Name,
		dispatcher:   d,
		shutdown:     NewSemaphore(),
		logger:       h.logger,
		panicHandler: h.panicHandler,
		metrics:      h.metrics,
		rejected:     h.rejected,
	}
	if q.name == "" {
		q.name = "queue"
	}
	_, nilMetrics := h.metrics.(*NilMetrics)
	q.timed = !nilMetrics
	q.drainFunc = q.process

	q.logger.Debug("queue created", F("queue", q.name))
	return q
}

// Name returns the queue name used in logs and metrics.
func (q *Queue) Name() string {
	return q.name
}

// IsClosed returns true once Close has been called.
func (q *Queue) IsClosed() bool {
	return q.closed.Load()
}

// Async posts task to the queue and returns immediately.
// Tasks posted after Close are rejected and never run.
func (q *Queue) Async(task Task) {
	q.post(task)
}

// post returns false when the task was rejected.
func (q *Queue) post(task Task) bool {
	if task == nil {
		q.reject("nil task")
		return false
	}

	q.producers.Inc()
	if q.closed.Load() {
		q.producers.Dec()
		q.reject("queue closed")
		return false
	}
	wasEmpty := q.stack.push(newTaskNode(task))
	q.producers.Dec()

	if wasEmpty {
		q.wake()
	}
	return true
}

// Sync posts task and blocks until it has finished running on the queue.
// It returns ErrQueueClosed if the queue no longer accepts work.
//
// Sync must not be called from a task running on q; use SyncContext there to
// get ErrSyncOnOwnQueue instead of a deadlock.
func (q *Queue) Sync(task Task) error {
	return q.SyncContext(context.Background(), task)
}

// SyncContext is Sync with cancellation. When ctx is done before the task has
// run, SyncContext returns ctx.Err() and the task still runs later.
func (q *Queue) SyncContext(ctx context.Context, task Task) error {
	if task == nil {
		return fmt.Errorf("sync on %s: nil task", q.name)
	}
	if GetCurrentQueue(ctx) == q {
		return fmt.Errorf("sync on %s: %w", q.name, ErrSyncOnOwnQueue)
	}

	waiter := NewSemaphore()
	accepted := q.post(func(taskCtx context.Context) {
		defer waiter.Release()
		task(taskCtx)
	})
	if !accepted {
		return fmt.Errorf("sync on %s: %w", q.name, ErrQueueClosed)
	}
	return waiter.AcquireContext(ctx)
}

// WaitIdle blocks until all tasks posted before the call have completed.
//
// Note: Tasks posted after WaitIdle is called are not waited for.
func (q *Queue) WaitIdle(ctx context.Context) error {
	return q.SyncContext(ctx, func(context.Context) {})
}

// Close stops the queue. It rejects further posts, waits for every task that
// was accepted before it to run, and then returns. Calling Close more than
// once is safe; later calls block until the first one has finished.
//
// Close must not be called from a task running on q.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.closed.Store(true)
		for q.producers.Load() != 0 {
			runtime.Gosched()
		}

		if q.stack.push(newSentinelNode()) {
			q.wake()
		}
		q.shutdown.Acquire()

		q.logger.Debug("queue closed",
			F("queue", q.name),
			F("executed", q.executed.Load()),
			F("rejected", q.rejectedN.Load()),
		)
	})
}

// Stats returns a snapshot of the queue counters.
func (q *Queue) Stats() QueueStats {
	return QueueStats{
		Name:         q.name,
		Pending:      q.pending.Load(),
		Closed:       q.closed.Load(),
		Executed:     q.executed.Load(),
		Rejected:     q.rejectedN.Load(),
		Panicked:     q.panicked.Load(),
		Drains:       q.drains.Load(),
		WakeRequests: q.wakeRequests.Load(),
	}
}

// wake performs the idle to pending transition. Only the caller that wins
// the CAS asks the Dispatcher for a drain.
func (q *Queue) wake() {
	if !q.pending.CompareAndSwap(false, true) {
		return
	}
	q.wakeRequests.Inc()
	q.metrics.RecordWakeRequest(q.name)
	q.dispatcher.Schedule(q.drainFunc)
}

// process is the drain callback handed to the Dispatcher.
func (q *Queue) process() {
	// Assertion: Ensure strictly one drain at a time
	if n := q.activeDrains.Inc(); n > 1 {
		panic(fmt.Sprintf("Queue %s: concurrent drain detected (count=%d)", q.name, n))
	}
	q.drains.Inc()

	more := q.drain()
	q.activeDrains.Dec()
	if !more {
		// Sentinel reached. pending stays true so nothing reschedules us.
		return
	}

	// The store must follow the batch and the recheck must follow the store;
	// Go atomics are sequentially consistent, which covers both orderings.
	q.pending.Store(false)
	if !q.stack.isEmpty() {
		q.wake()
	}
}

// drain runs one flushed batch oldest first. It returns false after the
// sentinel has been processed.
func (q *Queue) drain() bool {
	head := q.stack.flush()
	if head == nil {
		return true
	}
	head = reverseTasks(head)

	ctx := context.WithValue(context.Background(), currentQueueKey, q)
	batch := 0
	for node := head; node != nil; {
		next := node.next
		if node.isSentinel() {
			node.release()
			q.metrics.RecordDrainBatch(q.name, batch)
			q.shutdown.Release()
			return false
		}

		task := node.task
		node.release()
		q.runTask(ctx, task)
		batch++
		node = next
	}
	q.metrics.RecordDrainBatch(q.name, batch)
	return true
}

func (q *Queue) runTask(ctx context.Context, task Task) {
	var start time.Time
	if q.timed {
		start = time.Now()
	}
	defer func() {
		if r := recover(); r != nil {
			q.panicked.Inc()
			q.panicHandler.HandlePanic(ctx, q.name, -1, r, debug.Stack())
			q.metrics.RecordTaskPanic(q.name, r)
		}
		if q.timed {
			q.metrics.RecordTaskDuration(q.name, time.Since(start))
		}
		q.executed.Inc()
	}()
	task(ctx)
}

func (q *Queue) reject(reason string) {
	q.rejectedN.Inc()
	q.rejected.HandleRejectedTask(q.name, reason)
	q.metrics.RecordTaskRejected(q.name, reason)
}

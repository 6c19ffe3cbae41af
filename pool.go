package dispatchqueue

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Swind/go-dispatch-queue/core"
)

// GoroutineThreadPool manages a set of worker goroutines
// Responsible for pulling drain callbacks from the scheduler and executing them
type GoroutineThreadPool struct {
	id        string
	workers   int
	scheduler *core.TaskScheduler
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	runningMu sync.RWMutex
}

var _ core.Dispatcher = (*GoroutineThreadPool)(nil)

// NewGoroutineThreadPool creates a new GoroutineThreadPool
func NewGoroutineThreadPool(id string, workers int) *GoroutineThreadPool {
	return NewGoroutineThreadPoolWithConfig(id, workers, core.DefaultTaskSchedulerConfig())
}

// NewGoroutineThreadPoolWithConfig creates a pool whose scheduler uses the
// given handlers. Worker panics go to config.PanicHandler.
func NewGoroutineThreadPoolWithConfig(id string, workers int, config *core.TaskSchedulerConfig) *GoroutineThreadPool {
	return &GoroutineThreadPool{
		id:        id,
		workers:   workers,
		scheduler: core.NewTaskSchedulerWithConfig(workers, config),
	}
}

// Start starts all worker goroutines
func (tg *GoroutineThreadPool) Start(ctx context.Context) {
	tg.runningMu.Lock()
	defer tg.runningMu.Unlock()

	if tg.running {
		return // Already running
	}

	tg.ctx, tg.cancel = context.WithCancel(ctx)
	tg.running = true

	for i := 0; i < tg.workers; i++ {
		tg.wg.Add(1)
		go tg.workerLoop(i, tg.ctx)
	}
	tg.scheduler.GetLogger().Debug("thread pool started", core.F("pool", tg.id), core.F("workers", tg.workers))
}

// Stop stops the thread pool. Queued callbacks are dropped, so every Queue
// draining on this pool should be closed first.
func (tg *GoroutineThreadPool) Stop() {
	// Always shutdown scheduler to clean up the queue even if pool was never started
	tg.scheduler.Shutdown()

	tg.runningMu.Lock()
	if !tg.running {
		tg.runningMu.Unlock()
		return
	}
	tg.runningMu.Unlock()

	if tg.cancel != nil {
		tg.cancel()
	}
	tg.Join()

	tg.runningMu.Lock()
	tg.running = false
	tg.runningMu.Unlock()
	tg.scheduler.GetLogger().Debug("thread pool stopped", core.F("pool", tg.id))
}

// StopGraceful stops the thread pool gracefully, waiting for queued callbacks to complete
// Returns error if timeout is exceeded before they complete
func (tg *GoroutineThreadPool) StopGraceful(timeout time.Duration) error {
	tg.runningMu.Lock()
	if !tg.running {
		tg.runningMu.Unlock()
		tg.scheduler.Shutdown()
		return nil
	}
	tg.runningMu.Unlock()

	// First, gracefully shutdown the scheduler (waits for the queue to drain)
	err := tg.scheduler.ShutdownGraceful(timeout)

	// Cancel workers whether or not the timeout fired
	if tg.cancel != nil {
		tg.cancel()
	}
	tg.Join()

	tg.runningMu.Lock()
	tg.running = false
	tg.runningMu.Unlock()

	if err != nil {
		tg.scheduler.GetLogger().Warn("thread pool stopped before draining", core.F("pool", tg.id), core.F("error", err))
		return err
	}
	tg.scheduler.GetLogger().Debug("thread pool stopped", core.F("pool", tg.id))
	return nil
}

// ID returns the ID of the thread pool
func (tg *GoroutineThreadPool) ID() string {
	return tg.id
}

// IsRunning returns whether the thread pool is running
func (tg *GoroutineThreadPool) IsRunning() bool {
	tg.runningMu.RLock()
	defer tg.runningMu.RUnlock()
	return tg.running
}

// Schedule hands callback to the next free worker.
func (tg *GoroutineThreadPool) Schedule(callback func()) {
	tg.scheduler.Schedule(callback)
}

// workerLoop is the main loop for each worker
func (tg *GoroutineThreadPool) workerLoop(id int, ctx context.Context) {
	defer tg.wg.Done()
	stopCh := ctx.Done()

	for {
		callback, ok := tg.scheduler.GetWork(stopCh)
		if !ok {
			// Scheduler closed or context canceled
			return
		}

		tg.scheduler.OnTaskStart()

		// Execute callback and capture panic
		func() {
			defer func() {
				tg.scheduler.OnTaskEnd()
				if r := recover(); r != nil {
					tg.scheduler.GetPanicHandler().HandlePanic(ctx, tg.id, id, r, debug.Stack())
					tg.scheduler.GetMetrics().RecordTaskPanic(tg.id, r)
				}
			}()
			callback()
		}()
	}
}

// Join waits for all worker goroutines to finish
func (tg *GoroutineThreadPool) Join() {
	tg.wg.Wait()
}

// WorkerCount returns the number of workers
func (tg *GoroutineThreadPool) WorkerCount() int {
	return tg.workers
}

func (tg *GoroutineThreadPool) QueuedTaskCount() int {
	return tg.scheduler.QueuedTaskCount()
}

func (tg *GoroutineThreadPool) ActiveTaskCount() int {
	return tg.scheduler.ActiveTaskCount()
}

// GetScheduler exposes the scheduler for tests and diagnostics.
func (tg *GoroutineThreadPool) GetScheduler() *core.TaskScheduler {
	return tg.scheduler
}

// Stats returns a snapshot of the pool state.
func (tg *GoroutineThreadPool) Stats() core.PoolStats {
	return core.PoolStats{
		ID:      tg.id,
		Workers: tg.workers,
		Queued:  tg.scheduler.QueuedTaskCount(),
		Active:  tg.scheduler.ActiveTaskCount(),
		Running: tg.IsRunning(),
	}
}

// =============================================================================
// Global Thread Pool Helper (Singleton)
// =============================================================================

var (
	globalThreadPool *GoroutineThreadPool
	globalMu         sync.Mutex
)

// InitGlobalThreadPool initializes the global thread pool with specified number of workers.
// It starts the pool immediately.
func InitGlobalThreadPool(workers int) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalThreadPool != nil {
		return // Already initialized
	}

	globalThreadPool = NewGoroutineThreadPool("global-pool", workers)
	globalThreadPool.Start(context.Background())
}

// GetGlobalThreadPool returns the global thread pool instance.
// It panics if InitGlobalThreadPool has not been called.
func GetGlobalThreadPool() *GoroutineThreadPool {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalThreadPool == nil {
		panic("GlobalThreadPool not initialized. Call InitGlobalThreadPool() first.")
	}
	return globalThreadPool
}

// ShutdownGlobalThreadPool stops the global thread pool.
func ShutdownGlobalThreadPool() {
	if pool := takeGlobalThreadPool(); pool != nil {
		pool.Stop()
	}
}

func takeGlobalThreadPool() *GoroutineThreadPool {
	globalMu.Lock()
	defer globalMu.Unlock()
	pool := globalThreadPool
	globalThreadPool = nil
	return pool
}

// NewQueue creates a Queue that drains on the global thread pool.
// This is the recommended way to get a new Queue.
func NewQueue(name string) *Queue {
	config := core.DefaultQueueConfig()
	config.Name = name
	return core.NewQueueWithConfig(GetGlobalThreadPool(), config)
}

// Async runs task on the global thread pool with no ordering guarantee
// relative to other tasks.
func Async(task Task) {
	if task == nil {
		return
	}
	GetGlobalThreadPool().Schedule(func() {
		task(context.Background())
	})
}

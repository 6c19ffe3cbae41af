package core

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"

	"go.uber.org/atomic"
)

// MainThread is a Dispatcher that runs every scheduled callback on one
// dedicated goroutine locked to its OS thread (Thread Affinity).
//
// Use cases:
// 1. Simulating Main Thread / UI Thread behavior: call Run from main()
// 2. CGO calls that require Thread Local Storage
// 3. Backing the process-wide main queue (see CreateMainQueue)
//
// Unlike the pool, MainThread never runs two callbacks at once and always runs
// them on the same thread, in the order they were scheduled.
type MainThread struct {
	name   string
	queue  *callbackQueue
	wakeup chan struct{}

	// Lifecycle control
	stateMu  sync.RWMutex
	quitting bool
	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
	running  atomic.Bool
	started  atomic.Bool

	logger       Logger
	panicHandler PanicHandler
	rejected     RejectedTaskHandler
	executed     atomic.Int64
}

var _ Dispatcher = (*MainThread)(nil)

// NewMainThread creates a MainThread with default handlers. Nothing runs
// until Run or Start is called, but callbacks may be scheduled right away.
func NewMainThread(name string) *MainThread {
	config := DefaultQueueConfig()
	config.Name = name
	return NewMainThreadWithConfig(config)
}

// NewMainThreadWithConfig creates a MainThread. Metrics in config are ignored.
func NewMainThreadWithConfig(config *QueueConfig) *MainThread {
	if config == nil {
		config = DefaultQueueConfig()
	}
	h := resolveHandlers(config.Logger, config.PanicHandler, nil, config.RejectedTaskHandler)
	name := config.Name
	if name == "" {
		name = "main-thread"
	}
	return &MainThread{
		name:         name,
		queue:        newCallbackQueue(),
		wakeup:       make(chan struct{}, 1),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		logger:       h.logger,
		panicHandler: h.panicHandler,
		rejected:     h.rejected,
	}
}

// Name returns the name of the thread
func (t *MainThread) Name() string {
	return t.name
}

// Schedule queues callback for the loop. It never blocks. Callbacks
// scheduled after Quit are rejected.
func (t *MainThread) Schedule(callback func()) {
	t.stateMu.RLock()
	if t.quitting {
		t.stateMu.RUnlock()
		t.rejected.HandleRejectedTask(t.name, "main thread quit")
		return
	}
	t.queue.Push(callback)
	t.stateMu.RUnlock()

	select {
	case t.wakeup <- struct{}{}:
	default:
	}
}

// Run executes scheduled callbacks on the calling goroutine, locked to the
// current OS thread, until Quit is called or ctx is done. Either way the loop
// stops accepting callbacks, runs every callback accepted so far, and
// returns: nil after Quit, ctx.Err() after cancellation.
//
// Run can only be called once per MainThread.
func (t *MainThread) Run(ctx context.Context) error {
	if !t.running.CompareAndSwap(false, true) {
		return ErrMainThreadRunning
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(t.done)

	t.logger.Debug("main thread loop started", F("thread", t.name))
	defer func() {
		t.logger.Debug("main thread loop stopped", F("thread", t.name), F("executed", t.executed.Load()))
	}()

	for {
		t.runPending()

		select {
		case <-t.wakeup:
		case <-t.quit:
			t.runPending()
			return nil
		case <-ctx.Done():
			// Nothing will read the queue after this, so stop accepting and
			// run what was already accepted.
			t.markQuitting()
			t.runPending()
			return ctx.Err()
		}
	}
}

// Start runs the loop on a new dedicated goroutine.
func (t *MainThread) Start() {
	if !t.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		if err := t.Run(context.Background()); err != nil {
			t.logger.Error("main thread loop failed", F("thread", t.name), F("error", err))
		}
	}()
}

// Quit asks the loop to return once the callbacks already accepted have run.
// It does not wait; see Stop.
func (t *MainThread) Quit() {
	t.quitOnce.Do(func() {
		t.markQuitting()
		close(t.quit)
	})
}

func (t *MainThread) markQuitting() {
	t.stateMu.Lock()
	t.quitting = true
	t.stateMu.Unlock()
}

// Stop quits the loop and waits for Run to return. It returns immediately if
// the loop was never started.
func (t *MainThread) Stop() {
	t.Quit()
	if t.started.Load() || t.running.Load() {
		<-t.done
	}
}

// Done is closed when Run returns.
func (t *MainThread) Done() <-chan struct{} {
	return t.done
}

// IsRunning returns whether Run has been entered.
func (t *MainThread) IsRunning() bool {
	return t.running.Load()
}

// PendingCount returns the number of callbacks waiting for the loop.
func (t *MainThread) PendingCount() int {
	return t.queue.Len()
}

// ExecutedCount returns the number of callbacks run so far.
func (t *MainThread) ExecutedCount() int64 {
	return t.executed.Load()
}

func (t *MainThread) runPending() {
	for _, fn := range t.queue.PopAll() {
		t.runCallback(fn)
	}
}

func (t *MainThread) runCallback(fn func()) {
	defer func() {
		t.executed.Inc()
		if r := recover(); r != nil {
			t.panicHandler.HandlePanic(context.Background(), t.name, -1, r, debug.Stack())
		}
	}()
	fn()
}

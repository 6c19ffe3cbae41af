package dispatchqueue

import "github.com/Swind/go-dispatch-queue/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the dispatchqueue package for most use cases.

// Task is the unit of work (Closure)
type Task = core.Task

// Queue runs tasks serially on a Dispatcher
type Queue = core.Queue

// QueueConfig configures a Queue
type QueueConfig = core.QueueConfig

// Dispatcher runs drain callbacks soon
type Dispatcher = core.Dispatcher

// MainThread runs callbacks on one OS thread
type MainThread = core.MainThread

// MainQueueHandle is a counted reference to the main queue
type MainQueueHandle = core.MainQueueHandle

// Guard decides whether a guarded task still runs
type Guard = core.Guard

// NewQueueOn creates a Queue that drains on the given Dispatcher.
// This is re-exported for advanced users who want queues on custom backends.
func NewQueueOn(d Dispatcher, config *QueueConfig) *Queue {
	return core.NewQueueWithConfig(d, config)
}

// NewMainThread creates a MainThread. Call Run on the main goroutine or Start.
func NewMainThread(name string) *MainThread {
	return core.NewMainThread(name)
}

// WeakGuard is alive while the object behind ptr has not been collected.
func WeakGuard[T any](ptr *T) Guard {
	return core.WeakGuard(ptr)
}

var (
	// GetCurrentQueue retrieves the running Queue from a task's context
	GetCurrentQueue = core.GetCurrentQueue

	ContextGuard = core.ContextGuard
	Guarded      = core.Guarded

	OnMain            = core.OnMain
	OnMainSync        = core.OnMainSync
	OnMainGuarded     = core.OnMainGuarded
	OnMainSyncGuarded = core.OnMainSyncGuarded
	GrabMainQueue     = core.GrabMainQueue
)

// Sentinel errors
var (
	ErrQueueClosed          = core.ErrQueueClosed
	ErrSyncOnOwnQueue       = core.ErrSyncOnOwnQueue
	ErrMainQueueExists      = core.ErrMainQueueExists
	ErrMainQueueUnavailable = core.ErrMainQueueUnavailable
)

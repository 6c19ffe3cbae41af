package core

import (
	"fmt"

	"go.uber.org/atomic"
)

// The main queue is one process-wide Queue shared by unrelated call sites
// without a mutex. mainQueueRefs is the number of live handles; the creator's
// handle counts as one. The queue pointer is only dereferenced by a caller that
// raised the count from a nonzero value, and the queue is closed exactly once,
// by whoever takes the count to zero.
var (
	mainQueue     atomic.Pointer[Queue]
	mainQueueRefs atomic.Int32
)

// mainQueueCreating parks the count while CreateMainQueue installs the queue,
// so a concurrent create fails and a concurrent grab sees "unavailable".
const mainQueueCreating = -1

// MainQueueHandle is one counted reference to the main queue. The queue stays
// usable until Release is called on the handle.
type MainQueueHandle struct {
	queue atomic.Pointer[Queue]
}

// CreateMainQueue installs the main queue draining on d and returns the
// creator's handle. Keep that handle for the lifetime of the process and
// Release it on shutdown.
//
// It fails with ErrMainQueueExists while a previous main queue is still alive.
func CreateMainQueue(d Dispatcher, config *QueueConfig) (*MainQueueHandle, error) {
	if d == nil {
		return nil, fmt.Errorf("create main queue: nil Dispatcher")
	}
	if !mainQueueRefs.CompareAndSwap(0, mainQueueCreating) {
		return nil, fmt.Errorf("create main queue: %w", ErrMainQueueExists)
	}

	if config == nil {
		config = DefaultQueueConfig()
	}
	if config.Name == "" {
		named := *config
		named.Name = "main"
		config = &named
	}
	q := NewQueueWithConfig(d, config)
	mainQueue.Store(q)
	mainQueueRefs.Store(1)

	h := &MainQueueHandle{}
	h.queue.Store(q)
	return h, nil
}

// GrabMainQueue takes a reference to the main queue. ok is false when the main
// queue was never created or has been fully released; that is an expected
// outcome, not an error.
func GrabMainQueue() (h *MainQueueHandle, ok bool) {
	for {
		refs := mainQueueRefs.Load()
		if refs <= 0 {
			return nil, false
		}
		if mainQueueRefs.CompareAndSwap(refs, refs+1) {
			h = &MainQueueHandle{}
			h.queue.Store(mainQueue.Load())
			return h, true
		}
	}
}

// Queue returns the referenced queue, or nil after Release.
func (h *MainQueueHandle) Queue() *Queue {
	if h == nil {
		return nil
	}
	return h.queue.Load()
}

// Release drops the reference. The last release closes the main queue, which
// blocks until its pending tasks have run, so it must not happen on a task
// running on the main queue. Releasing twice, or releasing a nil handle, is a
// no-op.
func (h *MainQueueHandle) Release() {
	if h == nil {
		return
	}
	q := h.queue.Swap(nil)
	if q == nil {
		return
	}
	if mainQueueRefs.Dec() == 0 {
		mainQueue.CompareAndSwap(q, nil)
		q.Close()
	}
}

// MainQueueRefs returns the current reference count, for diagnostics.
func MainQueueRefs() int {
	return int(mainQueueRefs.Load())
}

// OnMain posts task to the main queue. It returns false when the main queue
// is unavailable.
func OnMain(task Task) bool {
	h, ok := GrabMainQueue()
	if !ok {
		return false
	}
	defer h.Release()
	return h.Queue().post(task)
}

// OnMainSync runs task on the main queue and waits for it.
func OnMainSync(task Task) error {
	h, ok := GrabMainQueue()
	if !ok {
		return ErrMainQueueUnavailable
	}
	defer h.Release()
	return h.Queue().Sync(task)
}

// OnMainGuarded posts task to the main queue; the task is skipped if guard is
// no longer alive when it is about to run.
func OnMainGuarded(guard Guard, task Task) bool {
	return OnMain(Guarded(guard, task))
}

// OnMainSyncGuarded is the blocking form of OnMainGuarded.
func OnMainSyncGuarded(guard Guard, task Task) error {
	return OnMainSync(Guarded(guard, task))
}

package dispatchqueue

import (
	"fmt"
	"time"

	"github.com/Swind/go-dispatch-queue/core"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
)

// creatorHandle is the standing reference taken by InitMainQueue.
var creatorHandle atomic.Pointer[core.MainQueueHandle]

// InitMainQueue creates the process-wide main queue draining on d and keeps
// the creator's reference until ShutdownMainQueue.
func InitMainQueue(d Dispatcher) error {
	h, err := core.CreateMainQueue(d, nil)
	if err != nil {
		return err
	}
	creatorHandle.Store(h)
	return nil
}

// MustInitMainQueue is InitMainQueue that panics on error.
func MustInitMainQueue(d Dispatcher) {
	if err := InitMainQueue(d); err != nil {
		panic(fmt.Sprintf("MustInitMainQueue: %v", err))
	}
}

// ShutdownMainQueue drops the reference taken by InitMainQueue. Once every
// grabbed handle has been released too, the main queue runs its pending tasks
// and closes. ShutdownMainQueue blocks when it drops the last reference, so it
// must not be called from a task running on the main queue.
func ShutdownMainQueue() {
	if h := creatorHandle.Swap(nil); h != nil {
		h.Release()
	}
}

// Shutdown tears down the global state in dependency order: the main queue
// first, then the global thread pool its drains may run on. Errors from each
// step are combined.
//
// Queues created with NewQueue are owned by the caller and must be closed
// before Shutdown.
func Shutdown(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var err error

	err = multierr.Append(err, shutdownMainQueueWithin(timeout))

	if pool := takeGlobalThreadPool(); pool != nil {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		err = multierr.Append(err, pool.StopGraceful(remaining))
	}
	return err
}

func shutdownMainQueueWithin(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		ShutdownMainQueue()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return nil
	case <-timer.C:
		return fmt.Errorf("main queue did not drain within %v", timeout)
	}
}

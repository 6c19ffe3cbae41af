package core

import "sync"

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// callbackQueue is an unbounded, mutex-protected FIFO of dispatcher callbacks.
// It backs the dispatch backends (TaskScheduler, MainThread); Queue itself
// never uses it.
type callbackQueue struct {
	mu    sync.Mutex
	items []func()
}

func newCallbackQueue() *callbackQueue {
	return &callbackQueue{
		items: make([]func(), 0, defaultQueueCap),
	}
}

func (q *callbackQueue) Push(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, fn)
}

func (q *callbackQueue) Pop() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}

	fn := q.items[0]
	// Zero out the element in the underlying array to prevent memory leak
	q.items[0] = nil
	q.items = q.items[1:]
	q.maybeCompactLocked()

	return fn, true
}

// PopAll removes and returns every queued callback in FIFO order.
func (q *callbackQueue) PopAll() []func() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	batch := q.items
	q.items = make([]func(), 0, defaultQueueCap)
	return batch
}

func (q *callbackQueue) maybeCompactLocked() {
	n := len(q.items)
	c := cap(q.items)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.items = make([]func(), 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newCap := max(max(c/2, defaultQueueCap), n)

	newSlice := make([]func(), n, newCap)
	copy(newSlice, q.items)
	q.items = newSlice
}

func (q *callbackQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *callbackQueue) IsEmpty() bool {
	return q.Len() == 0
}

// Clear removes all callbacks from the queue and releases references
func (q *callbackQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = make([]func(), 0, defaultQueueCap)
}

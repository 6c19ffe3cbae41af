package core

import (
	"context"
	"math"

	"golang.org/x/sync/semaphore"
)

const semaphoreCapacity = math.MaxInt64

// Semaphore is a counting semaphore that starts at zero. It is used for
// one-shot handshakes between a waiter and a signaller: Sync round-trips and
// the queue shutdown protocol.
//
// Release never blocks and banks a permit when nobody is waiting. Acquire
// blocks until a matching Release has happened.
type Semaphore struct {
	w *semaphore.Weighted
}

// NewSemaphore creates a Semaphore with a count of zero.
func NewSemaphore() *Semaphore {
	w := semaphore.NewWeighted(semaphoreCapacity)
	// Hold the whole weight so every Release(1) frees exactly one permit.
	w.TryAcquire(semaphoreCapacity)
	return &Semaphore{w: w}
}

// Acquire blocks until a permit is available and takes it.
func (s *Semaphore) Acquire() {
	_ = s.w.Acquire(context.Background(), 1)
}

// AcquireContext is Acquire with cancellation. On error no permit is taken.
func (s *Semaphore) AcquireContext(ctx context.Context) error {
	return s.w.Acquire(ctx, 1)
}

// TryAcquire takes a permit if one is banked, without blocking.
func (s *Semaphore) TryAcquire() bool {
	return s.w.TryAcquire(1)
}

// Release adds one permit and wakes one waiter if there is one.
func (s *Semaphore) Release() {
	s.w.Release(1)
}

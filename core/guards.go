package core

import (
	"context"
	"weak"
)

// Guard decides, at execution time, whether a guarded task should still run.
// It lets a task posted on behalf of some owner become a no-op once the owner
// is gone.
type Guard interface {
	Alive() bool
}

// GuardFunc adapts a function to a Guard.
type GuardFunc func() bool

func (f GuardFunc) Alive() bool { return f() }

type weakGuard[T any] struct {
	ptr weak.Pointer[T]
}

func (g weakGuard[T]) Alive() bool {
	return g.ptr.Value() != nil
}

// WeakGuard holds a weak reference to ptr and is alive while the object has
// not been garbage collected. The guard does not keep ptr reachable.
func WeakGuard[T any](ptr *T) Guard {
	return weakGuard[T]{ptr: weak.Make(ptr)}
}

type contextGuard struct {
	ctx context.Context
}

func (g contextGuard) Alive() bool {
	return g.ctx.Err() == nil
}

// ContextGuard is alive until ctx is done.
func ContextGuard(ctx context.Context) Guard {
	return contextGuard{ctx: ctx}
}

// Guarded wraps task so it only runs if guard is alive when the queue gets to
// it. A nil guard never skips.
func Guarded(guard Guard, task Task) Task {
	if guard == nil || task == nil {
		return task
	}
	return func(ctx context.Context) {
		if guard.Alive() {
			task(ctx)
		}
	}
}

package core

import (
	"context"
	"sync"
)

// Task is the unit of work (Closure)
type Task func(ctx context.Context)

// =============================================================================
// Task node: intrusive link + type-erased callable
// =============================================================================

// taskNode is owned by exactly one holder at a time: its creator, the
// taskStack it was pushed onto, or the drain loop that flushed it.
// A nil task marks the shutdown sentinel.
type taskNode struct {
	next *taskNode
	task Task
}

var taskNodePool = sync.Pool{
	New: func() any { return new(taskNode) },
}

func newTaskNode(task Task) *taskNode {
	n := taskNodePool.Get().(*taskNode)
	n.task = task
	return n
}

func newSentinelNode() *taskNode {
	return taskNodePool.Get().(*taskNode)
}

func (n *taskNode) isSentinel() bool {
	return n.task == nil
}

// release clears the node and hands it back to the pool. The caller must
// not touch n afterwards.
func (n *taskNode) release() {
	n.next = nil
	n.task = nil
	taskNodePool.Put(n)
}

// =============================================================================
// Context Helper
// =============================================================================
type currentQueueKeyType struct{}

var currentQueueKey currentQueueKeyType

// GetCurrentQueue returns the Queue whose drain is executing the task that
// received ctx, or nil when ctx did not come from a Queue.
func GetCurrentQueue(ctx context.Context) *Queue {
	if ctx == nil {
		return nil
	}
	if v := ctx.Value(currentQueueKey); v != nil {
		return v.(*Queue)
	}
	return nil
}

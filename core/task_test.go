package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTaskNode_Sentinel verifies that only a node without a task is the sentinel
func TestTaskNode_Sentinel(t *testing.T) {
	node := newTaskNode(func(context.Context) {})
	assert.False(t, node.isSentinel())
	node.release()

	sentinel := newSentinelNode()
	assert.True(t, sentinel.isSentinel())
	assert.Nil(t, sentinel.next)
	sentinel.release()
}

// TestTaskNode_ReleaseClearsFields verifies that a released node holds no references
func TestTaskNode_ReleaseClearsFields(t *testing.T) {
	// Given: A node linked to another
	other := newTaskNode(func(context.Context) {})
	node := newTaskNode(func(context.Context) {})
	node.next = other

	// When: The node is released
	node.release()

	// Then: Both fields are cleared
	assert.Nil(t, node.next)
	assert.Nil(t, node.task)
	other.release()
}

// TestGetCurrentQueue verifies extracting the running queue from context
// Given: A plain context and a context passed to a task by a queue
// When: GetCurrentQueue is called
// Then: It returns nil for the plain context and the queue for the task context
func TestGetCurrentQueue(t *testing.T) {
	assert.Nil(t, GetCurrentQueue(context.Background()))
	//nolint:staticcheck // nil context is handled
	assert.Nil(t, GetCurrentQueue(nil))

	q := NewQueue(GoroutineDispatcher{})
	defer q.Close()

	var got *Queue
	require.NoError(t, q.Sync(func(ctx context.Context) {
		got = GetCurrentQueue(ctx)
	}))
	assert.Same(t, q, got)
}

// =============================================================================
// taskStack
// =============================================================================

func drainStack(s *taskStack) []*taskNode {
	var out []*taskNode
	for n := reverseTasks(s.flush()); n != nil; n = n.next {
		out = append(out, n)
	}
	return out
}

// TestTaskStack_PushReportsWasEmpty verifies the empty transition is reported once
func TestTaskStack_PushReportsWasEmpty(t *testing.T) {
	var s taskStack
	assert.True(t, s.isEmpty())

	assert.True(t, s.push(newTaskNode(func(context.Context) {})), "first push sees an empty stack")
	assert.False(t, s.push(newTaskNode(func(context.Context) {})))
	assert.False(t, s.push(newTaskNode(func(context.Context) {})))
	assert.False(t, s.isEmpty())

	assert.Len(t, drainStack(&s), 3)
	assert.True(t, s.isEmpty())
	assert.True(t, s.push(newTaskNode(func(context.Context) {})), "push after flush sees an empty stack again")
}

// TestTaskStack_FlushEmpty verifies flushing an empty stack returns nil
func TestTaskStack_FlushEmpty(t *testing.T) {
	var s taskStack
	assert.Nil(t, s.flush())
	assert.Nil(t, reverseTasks(nil))
}

// TestTaskStack_ReverseRestoresPushOrder verifies flush+reverse yields oldest first
func TestTaskStack_ReverseRestoresPushOrder(t *testing.T) {
	// Given: Five nodes pushed in order
	var s taskStack
	nodes := make([]*taskNode, 5)
	for i := range nodes {
		nodes[i] = newTaskNode(func(context.Context) {})
		s.push(nodes[i])
	}

	// When: The stack is flushed and reversed
	got := drainStack(&s)

	// Then: The chain visits the nodes in push order and is nil-terminated
	require.Len(t, got, len(nodes))
	for i := range nodes {
		assert.Same(t, nodes[i], got[i], "position %d", i)
	}
	assert.Nil(t, got[len(got)-1].next)
}

// TestTaskStack_ConcurrentPush verifies no node is lost and exactly one push
// observes the empty stack when many goroutines push at once
func TestTaskStack_ConcurrentPush(t *testing.T) {
	const producers = 8
	const perProducer = 1000

	var s taskStack
	var wasEmptyCount sync.Map
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if s.push(newTaskNode(func(context.Context) {})) {
					wasEmptyCount.Store(p*perProducer+i, true)
				}
			}
		}(p)
	}
	wg.Wait()

	empties := 0
	wasEmptyCount.Range(func(any, any) bool { empties++; return true })
	assert.Equal(t, 1, empties)
	assert.Len(t, drainStack(&s), producers*perProducer)
}

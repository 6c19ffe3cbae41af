package core

import "go.uber.org/atomic"

// taskStack is an unbounded intrusive LIFO reachable from one atomic head.
//
// push is safe from any number of goroutines. flush is the only removal and
// is expected to be called by one drain at a time. The head is either nil or
// the first node of a nil-terminated chain that only the stack references.
type taskStack struct {
	head atomic.Pointer[taskNode]
}

// push links node in front of the current head and reports whether the
// stack was empty immediately before the push took effect.
func (s *taskStack) push(node *taskNode) (wasEmpty bool) {
	for {
		head := s.head.Load()
		node.next = head
		if s.head.CompareAndSwap(head, node) {
			return head == nil
		}
	}
}

// flush detaches the whole chain, newest first. Returns nil when empty.
func (s *taskStack) flush() *taskNode {
	return s.head.Swap(nil)
}

// isEmpty peeks at the head. It may race with concurrent pushes and is only a
// hint for re-requesting a drain.
func (s *taskStack) isEmpty() bool {
	return s.head.Load() == nil
}

// reverseTasks relinks a flushed chain in place so the oldest push comes first.
func reverseTasks(head *taskNode) *taskNode {
	var prev *taskNode
	for head != nil {
		next := head.next
		head.next = prev
		prev = head
		head = next
	}
	return prev
}

package core

// =============================================================================
// Dispatcher: the "run this callback soon" capability
// =============================================================================

// Dispatcher arranges for callback to run on some goroutine soon. It must run
// every scheduled callback at least once and must not run it inline on the
// caller's stack, since Queue.Async is allowed to be called from a drain.
//
// A Queue calls Schedule once per idle to pending transition.
type Dispatcher interface {
	Schedule(callback func())
}

// DispatcherFunc adapts a plain function to a Dispatcher.
type DispatcherFunc func(callback func())

// Schedule calls f(callback).
func (f DispatcherFunc) Schedule(callback func()) {
	f(callback)
}

// GoroutineDispatcher starts one goroutine per scheduled callback and leaves
// multiplexing to the Go runtime.
type GoroutineDispatcher struct{}

// Schedule runs callback on a new goroutine.
func (GoroutineDispatcher) Schedule(callback func()) {
	go callback()
}

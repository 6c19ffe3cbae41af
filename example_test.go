package dispatchqueue_test

import (
	"context"
	"fmt"
	"time"

	dispatchqueue "github.com/Swind/go-dispatch-queue"
	"github.com/Swind/go-dispatch-queue/core"
)

// ExampleNewQueue demonstrates the basic usage with only one import.
func ExampleNewQueue() {
	// Initialize global thread pool
	dispatchqueue.InitGlobalThreadPool(2)
	defer dispatchqueue.Shutdown(time.Second)

	// Create a serial queue
	q := dispatchqueue.NewQueue("example")
	defer q.Close()

	// Post sequential tasks
	q.Async(func(ctx context.Context) {
		fmt.Println("Task 1")
	})

	q.Async(func(ctx context.Context) {
		fmt.Println("Task 2")
	})

	// Sync waits for everything posted before it
	_ = q.Sync(func(ctx context.Context) {
		fmt.Println("Task 3")
	})

	// Output:
	// Task 1
	// Task 2
	// Task 3
}

// ExampleOnMain demonstrates a main queue backed by a MainThread loop.
func ExampleOnMain() {
	mainThread := dispatchqueue.NewMainThread("ui")
	dispatchqueue.MustInitMainQueue(mainThread)

	go func() {
		dispatchqueue.OnMain(func(ctx context.Context) {
			fmt.Println("hello from the main thread")
		})
		// The main queue drains on the loop, so close it before quitting the loop.
		dispatchqueue.ShutdownMainQueue()
		mainThread.Quit()
	}()

	_ = mainThread.Run(context.Background())

	// Output:
	// hello from the main thread
}

// ExampleGuarded demonstrates skipping a task whose owner went away.
func ExampleGuarded() {
	q := dispatchqueue.NewQueueOn(core.GoroutineDispatcher{}, nil)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	guard := dispatchqueue.ContextGuard(ctx)

	_ = q.Sync(dispatchqueue.Guarded(guard, func(context.Context) { fmt.Println("owner alive") }))
	cancel()
	_ = q.Sync(dispatchqueue.Guarded(guard, func(context.Context) { fmt.Println("never printed") }))

	// Output:
	// owner alive
}

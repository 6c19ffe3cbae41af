// Package dispatchqueue provides serial dispatch queues for Go.
//
// A Queue accepts tasks from any number of goroutines without locks and runs
// them one at a time, in the order each producer posted them. The queue does
// not own a goroutine: when it goes from idle to having work it asks a
// Dispatcher to run one drain, and every task pushed before that drain starts
// shares it.
//
// # Quick Start
//
// Initialize the global thread pool at application startup:
//
//	dispatchqueue.InitGlobalThreadPool(4) // 4 workers
//	defer dispatchqueue.Shutdown(5 * time.Second)
//
// Create a Queue for sequential task execution:
//
//	q := dispatchqueue.NewQueue("io")
//	defer q.Close()
//	q.Async(func(ctx context.Context) {
//		// Your code here - guaranteed sequential execution
//	})
//
// # Key Concepts
//
// Queue: posts are lock-free and tasks on one queue never overlap, so state
// owned by a queue needs no mutex. Sync waits for a task, Close waits for
// every accepted task and then rejects further posts.
//
// Dispatcher: anything that can run a callback soon. GoroutineThreadPool,
// core.GoroutineDispatcher and core.MainThread are provided.
//
// Main queue: one process-wide Queue with reference-counted handles, usually
// backed by a core.MainThread running on the main goroutine. OnMain and
// OnMainSync post to it from anywhere.
//
// # Example
//
//	func main() {
//		mainThread := core.NewMainThread("ui")
//		dispatchqueue.MustInitMainQueue(mainThread)
//
//		go func() {
//			dispatchqueue.OnMain(func(ctx context.Context) {
//				println("on the main thread")
//			})
//			// Close the main queue while the loop still runs, then quit it.
//			dispatchqueue.ShutdownMainQueue()
//			mainThread.Quit()
//		}()
//
//		_ = mainThread.Run(context.Background())
//	}
package dispatchqueue

package core

// QueueStats represents runtime observability state for a Queue.
type QueueStats struct {
	Name         string
	Pending      bool // a drain has been requested and has not finished
	Closed       bool
	Executed     int64
	Rejected     int64
	Panicked     int64
	Drains       int64
	WakeRequests int64
}

// PoolStats represents runtime observability state for a thread pool.
type PoolStats struct {
	ID      string
	Workers int
	Queued  int
	Active  int
	Running bool
}

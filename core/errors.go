package core

import "errors"

var (
	// ErrQueueClosed is returned when work is posted to a queue after Close.
	ErrQueueClosed = errors.New("dispatch queue is closed")

	// ErrSyncOnOwnQueue is returned by SyncContext when the caller is itself a
	// task running on the target queue. Waiting there can never complete.
	ErrSyncOnOwnQueue = errors.New("sync called from a task running on the same queue")

	// ErrMainQueueExists is returned when CreateMainQueue is called while a
	// main queue is still alive.
	ErrMainQueueExists = errors.New("main queue already exists")

	// ErrMainQueueUnavailable is returned when the main queue was never
	// created or has already been torn down.
	ErrMainQueueUnavailable = errors.New("main queue is unavailable")

	// ErrMainThreadRunning is returned when a MainThread loop is started twice.
	ErrMainThreadRunning = errors.New("main thread loop is already running")
)

package core

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestTaskScheduler_ScheduleAndGetWork tests the basic producer/worker handoff
// Main test items:
// 1. Scheduled callbacks come back from GetWork in FIFO order
// 2. QueuedTaskCount tracks pushes and pops
func TestTaskScheduler_ScheduleAndGetWork(t *testing.T) {
	s := NewTaskScheduler(1)
	var order []int

	for i := 0; i < 3; i++ {
		i := i
		s.Schedule(func() { order = append(order, i) })
	}
	if s.QueuedTaskCount() != 3 {
		t.Fatalf("Expected QueuedTaskCount 3, got %d", s.QueuedTaskCount())
	}

	stopCh := make(chan struct{})
	for i := 0; i < 3; i++ {
		fn, ok := s.GetWork(stopCh)
		if !ok {
			t.Fatal("Failed to get work")
		}
		fn()
	}

	if s.QueuedTaskCount() != 0 {
		t.Errorf("Expected QueuedTaskCount 0, got %d", s.QueuedTaskCount())
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("Expected FIFO order, got %v", order)
		}
	}
}

// TestTaskScheduler_GetWorkStops tests that an idle worker is released by stopCh
func TestTaskScheduler_GetWorkStops(t *testing.T) {
	s := NewTaskScheduler(1)
	stopCh := make(chan struct{})

	done := make(chan bool, 1)
	go func() {
		_, ok := s.GetWork(stopCh)
		done <- ok
	}()

	close(stopCh)
	select {
	case ok := <-done:
		if ok {
			t.Error("GetWork should report no work after stop")
		}
	case <-time.After(time.Second):
		t.Fatal("GetWork did not return after stop")
	}
}

// TestTaskScheduler_GetWorkWakesOnSchedule tests that a blocked worker is woken
func TestTaskScheduler_GetWorkWakesOnSchedule(t *testing.T) {
	s := NewTaskScheduler(1)
	stopCh := make(chan struct{})
	defer close(stopCh)

	got := make(chan func(), 1)
	go func() {
		fn, _ := s.GetWork(stopCh)
		got <- fn
	}()

	ran := false
	s.Schedule(func() { ran = true })

	select {
	case fn := <-got:
		fn()
		if !ran {
			t.Error("Expected the scheduled callback")
		}
	case <-time.After(time.Second):
		t.Fatal("Worker was not woken by Schedule")
	}
}

// TestTaskScheduler_Metrics tests active and queued counters
func TestTaskScheduler_Metrics(t *testing.T) {
	s := NewTaskScheduler(2)
	s.Schedule(func() {})
	s.Schedule(func() {})

	stopCh := make(chan struct{})
	if _, ok := s.GetWork(stopCh); !ok {
		t.Fatal("Failed to get work")
	}

	if s.QueuedTaskCount() != 1 {
		t.Errorf("Expected QueuedTaskCount 1 (after pop), got %d", s.QueuedTaskCount())
	}

	s.OnTaskStart()
	if s.ActiveTaskCount() != 1 {
		t.Errorf("Expected ActiveTaskCount 1, got %d", s.ActiveTaskCount())
	}

	s.OnTaskEnd()
	if s.ActiveTaskCount() != 0 {
		t.Errorf("Expected ActiveTaskCount 0, got %d", s.ActiveTaskCount())
	}
	if s.WorkerCount() != 2 {
		t.Errorf("Expected WorkerCount 2, got %d", s.WorkerCount())
	}
}

// TestTaskScheduler_Shutdown tests immediate shutdown behavior
// Main test items:
// 1. Shutdown() clears the queue
// 2. New callbacks are rejected after shutdown and reported
func TestTaskScheduler_Shutdown(t *testing.T) {
	rejected := NewTestRejectedTaskHandler()
	metrics := NewTestMetrics()
	s := NewTaskSchedulerWithConfig(1, &TaskSchedulerConfig{
		Logger:              NewNoOpLogger(),
		Metrics:             metrics,
		RejectedTaskHandler: rejected,
	})

	s.Schedule(func() {})
	if s.QueuedTaskCount() != 1 {
		t.Fatal("Setup failed: should have 1 callback")
	}

	s.Shutdown()
	if s.QueuedTaskCount() != 0 {
		t.Errorf("Shutdown should clear the queue, got %d", s.QueuedTaskCount())
	}
	if !s.IsShuttingDown() {
		t.Error("IsShuttingDown should be true")
	}

	s.Schedule(func() {})
	if s.QueuedTaskCount() != 0 {
		t.Errorf("Shutdown failed: accepted new callback (count: %d)", s.QueuedTaskCount())
	}
	if rejected.Count() != 1 {
		t.Errorf("Expected 1 rejection, got %d", rejected.Count())
	}
	if got := metrics.GetTaskRejections(); len(got) != 1 || got[0].Reason != "shutting down" {
		t.Errorf("Expected a 'shutting down' rejection metric, got %v", got)
	}
}

// TestTaskScheduler_ShutdownWarnsAboutStrandedQueue tests the rejection log
// names the consequence for the queue whose drain was refused
func TestTaskScheduler_ShutdownWarnsAboutStrandedQueue(t *testing.T) {
	obs, logs := observer.New(zapcore.WarnLevel)
	s := NewTaskSchedulerWithConfig(1, &TaskSchedulerConfig{
		Logger:              NewZapLogger(zap.New(obs)),
		RejectedTaskHandler: NewTestRejectedTaskHandler(),
	})
	s.Shutdown()

	s.Schedule(func() {})

	entries := logs.FilterMessageSnippet("rejected after scheduler shutdown").All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 rejection warning, got %d", len(entries))
	}
	if !strings.Contains(entries[0].Message, "Close will block") {
		t.Errorf("Warning should name the blocked Close, got %q", entries[0].Message)
	}
}

// TestTaskScheduler_ShutdownGraceful_EmptyQueue tests graceful shutdown with no pending callbacks
func TestTaskScheduler_ShutdownGraceful_EmptyQueue(t *testing.T) {
	s := NewTaskScheduler(2)

	if err := s.ShutdownGraceful(1 * time.Second); err != nil {
		t.Fatalf("ShutdownGraceful failed: %v", err)
	}

	s.Schedule(func() {})
	if s.QueuedTaskCount() != 0 {
		t.Error("ShutdownGraceful should reject new callbacks")
	}
}

// TestTaskScheduler_ShutdownGraceful_WithActiveTasks tests graceful shutdown with active callbacks
// Main test items:
// 1. ShutdownGraceful waits for active callbacks to complete
// 2. ActiveTaskCount is 0 after shutdown
func TestTaskScheduler_ShutdownGraceful_WithActiveTasks(t *testing.T) {
	s := NewTaskScheduler(2)

	for i := 0; i < 3; i++ {
		s.OnTaskStart()
	}

	go func() {
		for i := 0; i < 3; i++ {
			time.Sleep(20 * time.Millisecond)
			s.OnTaskEnd()
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.ShutdownGraceful(1 * time.Second)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("ShutdownGraceful failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("ShutdownGraceful timed out")
	}

	if s.ActiveTaskCount() != 0 {
		t.Errorf("Expected 0 active callbacks after shutdown, got %d", s.ActiveTaskCount())
	}
}

// TestTaskScheduler_ShutdownGraceful_Timeout tests graceful shutdown timeout behavior
// Main test items:
// 1. ShutdownGraceful returns error when timeout occurs
// 2. Queue is cleared even when timeout happens
func TestTaskScheduler_ShutdownGraceful_Timeout(t *testing.T) {
	s := NewTaskScheduler(1)
	s.Schedule(func() {})
	s.OnTaskStart()

	err := s.ShutdownGraceful(50 * time.Millisecond)
	if err == nil {
		t.Error("Expected timeout error, got nil")
	}

	if s.QueuedTaskCount() != 0 {
		t.Errorf("Expected queue to be cleared after timeout, got %d", s.QueuedTaskCount())
	}
}

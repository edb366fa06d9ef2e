package orchestrator

import (
	"errors"
	"testing"
	"time"

	"github.com/kestrelworks/swarm/pkg/models"
)

func queuedTask(id, capability string, priority int, createdAt time.Time) *models.Task {
	return &models.Task{
		ID:                 id,
		RequiredCapability: capability,
		Priority:           priority,
		CreatedAt:          createdAt,
	}
}

func TestEnqueueRejectsEmptyCapability(t *testing.T) {
	q := NewTaskQueue()
	err := q.Enqueue(queuedTask("t-1", "", 0, time.Now()))
	if !errors.Is(err, ErrInvalidTask) {
		t.Fatalf("expected ErrInvalidTask, got %v", err)
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
}

func TestDequeueOrderPriorityThenFIFO(t *testing.T) {
	q := NewTaskQueue()
	now := time.Now()

	// Two at priority 1 (FIFO between them), one at priority 5.
	q.Enqueue(queuedTask("low-a", "code_generation", 1, now))
	q.Enqueue(queuedTask("low-b", "code_generation", 1, now.Add(time.Millisecond)))
	q.Enqueue(queuedTask("high", "code_generation", 5, now.Add(2*time.Millisecond)))

	want := []string{"high", "low-a", "low-b"}
	for _, id := range want {
		got := q.DequeueFor("code_generation")
		if got == nil {
			t.Fatalf("expected task %s, got nil", id)
		}
		if got.ID != id {
			t.Errorf("expected %s next, got %s", id, got.ID)
		}
	}
	if q.Len() != 0 {
		t.Errorf("expected drained queue, got %d", q.Len())
	}
}

func TestDequeueFIFOWithinEqualTimestamps(t *testing.T) {
	q := NewTaskQueue()
	now := time.Now()

	// Identical priority and creation time; submission order decides.
	for _, id := range []string{"first", "second", "third"} {
		q.Enqueue(queuedTask(id, "debugging", 2, now))
	}

	for _, id := range []string{"first", "second", "third"} {
		got := q.DequeueFor("debugging")
		if got == nil || got.ID != id {
			t.Fatalf("expected %s next, got %v", id, got)
		}
	}
}

func TestDequeueForSkipsOtherCapabilities(t *testing.T) {
	q := NewTaskQueue()
	now := time.Now()

	q.Enqueue(queuedTask("gen", "code_generation", 9, now))
	q.Enqueue(queuedTask("dbg", "debugging", 1, now))

	got := q.DequeueFor("debugging")
	if got == nil || got.ID != "dbg" {
		t.Fatalf("expected dbg, got %v", got)
	}
	// The higher-priority mismatched task stays queued.
	if q.Len() != 1 {
		t.Errorf("expected 1 remaining task, got %d", q.Len())
	}
	if q.DequeueFor("debugging") != nil {
		t.Error("expected no more debugging tasks")
	}
}

func TestTakeMatchingRemovesFirstInDequeueOrder(t *testing.T) {
	q := NewTaskQueue()
	now := time.Now()

	q.Enqueue(queuedTask("a", "x", 1, now))
	q.Enqueue(queuedTask("b", "y", 3, now))
	q.Enqueue(queuedTask("c", "x", 2, now))

	got := q.TakeMatching(func(t *models.Task) bool { return t.RequiredCapability == "x" })
	if got == nil || got.ID != "c" {
		t.Fatalf("expected c (higher priority x), got %v", got)
	}
}

func TestPendingCounts(t *testing.T) {
	q := NewTaskQueue()
	now := time.Now()

	q.Enqueue(queuedTask("a", "x", 0, now))
	q.Enqueue(queuedTask("b", "x", 0, now))
	q.Enqueue(queuedTask("c", "y", 0, now))

	if q.PendingFor("x") != 2 {
		t.Errorf("expected 2 pending for x, got %d", q.PendingFor("x"))
	}
	if q.PendingFor("z") != 0 {
		t.Errorf("expected 0 pending for z, got %d", q.PendingFor("z"))
	}

	pending := q.Pending()
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending, got %d", len(pending))
	}
	// Mutating the returned slice must not affect the queue.
	pending[0] = nil
	if q.Len() != 3 {
		t.Errorf("queue mutated through Pending copy")
	}
}

func TestEnqueueMarksPending(t *testing.T) {
	q := NewTaskQueue()
	task := queuedTask("t", "x", 0, time.Now())
	task.Status = models.TaskStatusFailed
	q.Enqueue(task)
	if task.Status != models.TaskStatusPending {
		t.Errorf("expected pending status after enqueue, got %s", task.Status)
	}
}

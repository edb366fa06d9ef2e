package orchestrator

import (
	"sort"

	"github.com/kestrelworks/swarm/pkg/models"
)

// TaskQueue holds pending tasks ordered by (priority desc, created_at
// asc, submission order). It is not safe for uncoordinated concurrent
// callers; all access goes through the Orchestrator, which serializes
// its own bookkeeping.
type TaskQueue struct {
	// tasks is kept sorted in dequeue order.
	tasks []*models.Task
	// seq is the monotonic submission counter used for FIFO tie-breaks.
	seq uint64
}

// NewTaskQueue creates an empty TaskQueue.
func NewTaskQueue() *TaskQueue {
	return &TaskQueue{}
}

// before reports whether a should be dequeued ahead of b.
func before(a, b *models.Task) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Seq < b.Seq
}

// Enqueue inserts a task in dequeue order. The only validation is the
// one the contract requires: the required capability must be non-empty.
func (q *TaskQueue) Enqueue(t *models.Task) error {
	if t.RequiredCapability == "" {
		return ErrInvalidTask
	}

	q.seq++
	t.Seq = q.seq
	t.Status = models.TaskStatusPending

	i := sort.Search(len(q.tasks), func(i int) bool {
		return before(t, q.tasks[i])
	})
	q.tasks = append(q.tasks, nil)
	copy(q.tasks[i+1:], q.tasks[i:])
	q.tasks[i] = t

	return nil
}

// DequeueFor removes and returns the highest-priority pending task whose
// required capability matches. Returns nil if none is pending.
func (q *TaskQueue) DequeueFor(capability string) *models.Task {
	return q.TakeMatching(func(t *models.Task) bool {
		return t.RequiredCapability == capability
	})
}

// TakeMatching removes and returns the first task in dequeue order for
// which match returns true. Returns nil if no task matches.
func (q *TaskQueue) TakeMatching(match func(*models.Task) bool) *models.Task {
	for i, t := range q.tasks {
		if match(t) {
			q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
			return t
		}
	}
	return nil
}

// Len returns the number of pending tasks.
func (q *TaskQueue) Len() int {
	return len(q.tasks)
}

// PendingFor returns the number of pending tasks requiring capability.
func (q *TaskQueue) PendingFor(capability string) int {
	n := 0
	for _, t := range q.tasks {
		if t.RequiredCapability == capability {
			n++
		}
	}
	return n
}

// Pending returns the pending tasks in dequeue order. The returned
// slice is a copy; the tasks are not.
func (q *TaskQueue) Pending() []*models.Task {
	out := make([]*models.Task, len(q.tasks))
	copy(out, q.tasks)
	return out
}

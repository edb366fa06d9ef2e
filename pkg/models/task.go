package models

import "time"

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task is queued and unassigned.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusAssigned indicates the task has been handed to a worker.
	TaskStatusAssigned TaskStatus = "assigned"
	// TaskStatusCompleted indicates the task finished successfully.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task finished with an error.
	TaskStatusFailed TaskStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusAssigned, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true if the status is a final state.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Task represents a unit of work submitted to the orchestrator.
type Task struct {
	// ID is the unique identifier for this task, generated at submission.
	ID string `json:"id"`
	// Payload describes the work to perform.
	Payload Payload `json:"payload"`
	// RequiredCapability identifies which agent type must serve the task.
	RequiredCapability string `json:"required_capability"`
	// Priority orders dequeuing; higher values are dequeued first.
	Priority int `json:"priority"`
	// Status is the current state of the task.
	Status TaskStatus `json:"status"`
	// AssignedTo is the ID of the worker currently holding the task.
	AssignedTo string `json:"assigned_to,omitempty"`
	// CreatedAt is when the task was submitted. Set once, never mutated.
	CreatedAt time.Time `json:"created_at"`
	// Seq breaks created_at ties in submission order.
	Seq uint64 `json:"-"`
}

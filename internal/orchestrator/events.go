package orchestrator

import "time"

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventTaskSubmitted indicates a task entered the queue.
	EventTaskSubmitted EventType = "task_submitted"
	// EventTaskAssigned indicates a task was handed to a worker.
	EventTaskAssigned EventType = "task_assigned"
	// EventTaskCompleted indicates a task result was collected successfully.
	EventTaskCompleted EventType = "task_completed"
	// EventTaskFailed indicates a failed task result was collected.
	EventTaskFailed EventType = "task_failed"
	// EventWorkerRegistered indicates a worker joined the pool.
	EventWorkerRegistered EventType = "worker_registered"
	// EventWorkerStopped indicates a worker left the pool.
	EventWorkerStopped EventType = "worker_stopped"
	// EventShutdown indicates the orchestrator has shut down.
	EventShutdown EventType = "shutdown"
)

// Event is emitted by the orchestrator for observability consumers
// (TUI, logs). Events are advisory; dropping one never affects task
// bookkeeping.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// WorkerID is the ID of the related worker, if applicable.
	WorkerID string
	// Capability is the task's required capability, if applicable.
	Capability string
	// Message provides additional context about the event.
	Message string
	// Timestamp is when the event occurred.
	Timestamp time.Time
}

package models

import "time"

// WorkerStatus represents the current state of a worker.
type WorkerStatus string

const (
	// WorkerStatusStarting indicates the worker is launching.
	WorkerStatusStarting WorkerStatus = "starting"
	// WorkerStatusIdle indicates the worker is waiting for a task.
	WorkerStatusIdle WorkerStatus = "idle"
	// WorkerStatusBusy indicates the worker is executing a task.
	WorkerStatusBusy WorkerStatus = "busy"
	// WorkerStatusError indicates the worker hit a process-level fault.
	WorkerStatusError WorkerStatus = "error"
	// WorkerStatusStopped indicates the worker has exited.
	WorkerStatusStopped WorkerStatus = "stopped"
)

// Valid returns true if the status is a known value.
func (s WorkerStatus) Valid() bool {
	switch s {
	case WorkerStatusStarting, WorkerStatusIdle, WorkerStatusBusy,
		WorkerStatusError, WorkerStatusStopped:
		return true
	default:
		return false
	}
}

// WorkerMetrics holds per-worker execution counters.
type WorkerMetrics struct {
	// TasksCompleted is the number of tasks that finished successfully.
	TasksCompleted int `json:"tasks_completed"`
	// TasksFailed is the number of tasks that finished with an error.
	TasksFailed int `json:"tasks_failed"`
	// StartedAt is when the worker was registered.
	StartedAt time.Time `json:"started_at"`
	// LastActivity is the last time the worker was assigned work or
	// produced a result.
	LastActivity time.Time `json:"last_activity"`
}

// Worker is the orchestrator's record of one worker. The orchestrator
// owns this struct exclusively; the worker goroutine communicates only
// through its input and output channels.
type Worker struct {
	// ID is the unique identifier assigned at registration.
	ID string `json:"id"`
	// Name is the human-readable worker name.
	Name string `json:"name"`
	// AgentType is the registered agent type serving this worker.
	AgentType string `json:"agent_type"`
	// Capabilities is the set of task kinds this worker can serve.
	Capabilities []string `json:"capabilities"`
	// Status is the current lifecycle state.
	Status WorkerStatus `json:"status"`
	// CurrentTaskID is set while the worker is busy, empty otherwise.
	CurrentTaskID string `json:"current_task_id,omitempty"`
	// Metrics holds execution counters.
	Metrics WorkerMetrics `json:"metrics"`
}

// CanServe returns true if capability is in the worker's capability set.
func (w *Worker) CanServe(capability string) bool {
	for _, c := range w.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// SetBusy marks the worker busy on the given task. It maintains the
// invariant that status == busy exactly when CurrentTaskID is set.
func (w *Worker) SetBusy(taskID string, now time.Time) {
	w.Status = WorkerStatusBusy
	w.CurrentTaskID = taskID
	w.Metrics.LastActivity = now
}

// SetIdle clears the current task and returns the worker to idle.
func (w *Worker) SetIdle(now time.Time) {
	w.Status = WorkerStatusIdle
	w.CurrentTaskID = ""
	w.Metrics.LastActivity = now
}

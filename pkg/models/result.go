package models

import "time"

// ResultStatus indicates how a task attempt ended.
type ResultStatus string

const (
	// ResultCompleted indicates the task produced output successfully.
	ResultCompleted ResultStatus = "completed"
	// ResultFailed indicates the task ended with an error.
	ResultFailed ResultStatus = "failed"
)

// Result is the single record a worker produces for each task it runs.
// Failures are carried here as data, never thrown across the channel
// boundary.
type Result struct {
	// TaskID is the task this result belongs to.
	TaskID string `json:"task_id"`
	// WorkerID is the worker that executed the task.
	WorkerID string `json:"worker_id"`
	// Status is completed or failed.
	Status ResultStatus `json:"status"`
	// Content is the task output, or a human-readable error description
	// for failed results.
	Content string `json:"content"`
	// Timestamp is when the worker produced the result.
	Timestamp time.Time `json:"timestamp"`
}

// Failure builds a failed Result for the given task and reason.
func Failure(taskID, workerID, reason string) Result {
	return Result{
		TaskID:    taskID,
		WorkerID:  workerID,
		Status:    ResultFailed,
		Content:   reason,
		Timestamp: time.Now(),
	}
}

// Success builds a completed Result carrying the task output.
func Success(taskID, workerID, content string) Result {
	return Result{
		TaskID:    taskID,
		WorkerID:  workerID,
		Status:    ResultCompleted,
		Content:   content,
		Timestamp: time.Now(),
	}
}

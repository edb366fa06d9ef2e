package orchestrator

import "errors"

var (
	// ErrInvalidTask rejects submissions with no required capability.
	ErrInvalidTask = errors.New("invalid task: required capability is empty")
	// ErrRegistrationLimit rejects registrations when the pool is at capacity.
	ErrRegistrationLimit = errors.New("registration limit exceeded: worker pool at capacity")
	// ErrOrchestratorStopped rejects operations after Shutdown has completed.
	ErrOrchestratorStopped = errors.New("orchestrator is stopped")
	// ErrWorkerNotFound is returned when a worker ID is not registered.
	ErrWorkerNotFound = errors.New("worker not found")
)

// HealthState is the per-worker verdict reported by HealthCheck.
type HealthState string

const (
	// HealthHealthy means the worker is alive with recent activity.
	HealthHealthy HealthState = "healthy"
	// HealthUnresponsive means the worker is alive but inactive beyond
	// the activity window.
	HealthUnresponsive HealthState = "unresponsive"
	// HealthDead means the worker goroutine has exited.
	HealthDead HealthState = "dead"
)

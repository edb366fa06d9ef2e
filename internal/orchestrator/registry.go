package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kestrelworks/swarm/pkg/models"
)

// workerHandle pairs the orchestrator-owned worker record with its
// running goroutine half.
type workerHandle struct {
	model *models.Worker
	proc  *workerProc
}

// RegistryConfig holds limits and timings for the worker registry.
type RegistryConfig struct {
	// MaxWorkers caps the number of registered workers. Zero means the
	// default of 8.
	MaxWorkers int
	// WarmupTimeout bounds the starting -> idle handshake.
	WarmupTimeout time.Duration
	// GracePeriod bounds the stop-sentinel wait before escalation.
	GracePeriod time.Duration
	// TaskTimeout bounds each task execution, including the LLM wait.
	TaskTimeout time.Duration
	// OutputDepth is the per-worker output channel capacity.
	OutputDepth int
}

// withDefaults fills zero fields with working values.
func (c RegistryConfig) withDefaults() RegistryConfig {
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = 8
	}
	if c.WarmupTimeout <= 0 {
		c.WarmupTimeout = 5 * time.Second
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = 5 * time.Second
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = 30 * time.Second
	}
	if c.OutputDepth <= 0 {
		c.OutputDepth = 16
	}
	return c
}

// Registry maps agent types to running workers. It spawns one worker
// per registration and owns the stop/terminate escalation on the way
// out. Registration order is preserved for result collection.
type Registry struct {
	cfg RegistryConfig

	// workers maps worker IDs to handles.
	workers map[string]*workerHandle
	// order holds worker IDs in registration order.
	order []string
	// mu protects workers and order.
	mu sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	return &Registry{
		cfg:     cfg.withDefaults(),
		workers: make(map[string]*workerHandle),
	}
}

// Register spawns one worker bound to the handler, records it as
// starting, and transitions it to idle once the loop confirms liveness
// (or the warm-up timeout elapses). Returns the new worker's ID, or
// ErrRegistrationLimit when the pool is at capacity.
func (r *Registry) Register(name, agentType string, handler TaskHandler, capabilities []string) (string, error) {
	if handler == nil {
		return "", fmt.Errorf("register %s: nil handler", name)
	}

	r.mu.Lock()
	if r.liveCountLocked() >= r.cfg.MaxWorkers {
		r.mu.Unlock()
		return "", ErrRegistrationLimit
	}

	id := uuid.New().String()[:8]
	now := time.Now()
	caps := make([]string, len(capabilities))
	copy(caps, capabilities)

	h := &workerHandle{
		model: &models.Worker{
			ID:           id,
			Name:         fmt.Sprintf("%s-%s", name, id),
			AgentType:    agentType,
			Capabilities: caps,
			Status:       models.WorkerStatusStarting,
			Metrics: models.WorkerMetrics{
				StartedAt:    now,
				LastActivity: now,
			},
		},
		proc: newWorkerProc(id, handler, r.cfg.TaskTimeout, r.cfg.OutputDepth),
	}
	r.workers[id] = h
	r.order = append(r.order, id)
	r.mu.Unlock()

	// Warm-up handshake outside the lock.
	select {
	case <-h.proc.ready:
	case <-time.After(r.cfg.WarmupTimeout):
	}

	r.mu.Lock()
	h.model.Status = models.WorkerStatusIdle
	r.mu.Unlock()

	debugLog("[registry] worker %s registered (%s, capabilities=%v)", id, agentType, caps)
	return id, nil
}

// Unregister stops one worker: stop sentinel first, then a bounded
// grace wait, then forced termination. The worker record stays in the
// map with status stopped so health checks can report it dead.
func (r *Registry) Unregister(id string) error {
	r.mu.RLock()
	h, ok := r.workers[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unregister %s: %w", id, ErrWorkerNotFound)
	}

	r.stop(h)
	return nil
}

// stop runs the shutdown escalation for one worker.
func (r *Registry) stop(h *workerHandle) {
	if !h.proc.requestStop() {
		// Input channel occupied by an un-started task; the worker will
		// pick it up first, so go straight to the grace wait.
		debugLog("[registry] worker %s: stop sentinel not accepted, task still queued", h.model.ID)
	}

	if !h.proc.join(r.cfg.GracePeriod) {
		debugLog("[registry] worker %s did not stop within %s, terminating", h.model.ID, r.cfg.GracePeriod)
		h.proc.terminate()
		if !h.proc.join(r.cfg.GracePeriod) {
			debugLog("[registry] worker %s ignored termination, abandoning", h.model.ID)
		}
	}

	r.mu.Lock()
	h.model.Status = models.WorkerStatusStopped
	h.model.CurrentTaskID = ""
	r.mu.Unlock()
}

// StopAll runs the shutdown escalation for every worker, in
// registration order.
func (r *Registry) StopAll() {
	for _, h := range r.handles() {
		r.stop(h)
	}
}

// get returns the handle for a worker ID.
func (r *Registry) get(id string) (*workerHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.workers[id]
	return h, ok
}

// handles returns all worker handles in registration order.
func (r *Registry) handles() []*workerHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*workerHandle, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.workers[id])
	}
	return out
}

// Count returns the number of registered workers, stopped ones included.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}

// liveCountLocked counts workers that are not stopped. Stopped records
// stay in the map for health reporting but no longer hold a pool slot,
// so a replacement can be registered after Unregister. Caller must hold
// r.mu.
func (r *Registry) liveCountLocked() int {
	n := 0
	for _, h := range r.workers {
		if h.model.Status != models.WorkerStatusStopped {
			n++
		}
	}
	return n
}

// Workers returns copies of all worker records in registration order.
func (r *Registry) Workers() []models.Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Worker, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.workers[id].model)
	}
	return out
}

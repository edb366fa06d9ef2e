package orchestrator

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kestrelworks/swarm/pkg/models"
)

// ResultLog is the append-only history sink for collected results.
// It is write-only from the orchestrator's perspective; nothing read
// from it feeds back into scheduling.
type ResultLog interface {
	Append(res models.Result, taskKind string) error
}

// Config contains configuration options for the Orchestrator.
type Config struct {
	// Registry holds worker pool limits and timings.
	Registry RegistryConfig
	// ActivityTimeout is the inactivity window after which an alive
	// worker is reported unresponsive. Zero means 2 minutes.
	ActivityTimeout time.Duration
	// Routing decides queue vs direct dispatch per capability.
	// Nil means DefaultRoutingPolicy.
	Routing RoutingPolicy
	// History receives every collected result. Optional.
	History ResultLog
	// Logger is the debug logger. Optional.
	Logger *DebugLogger
	// EventBuffer is the event channel capacity. Zero means 100.
	EventBuffer int
}

// Stats holds aggregate task counters.
type Stats struct {
	TasksSubmitted int
	TasksCompleted int
	TasksFailed    int
}

// Snapshot is a point-in-time view of the orchestrator for status
// displays.
type Snapshot struct {
	Workers        []models.Worker
	PendingTasks   int
	AssignedTasks  int
	TasksSubmitted int
	TasksCompleted int
	TasksFailed    int
	StartedAt      time.Time
}

// Orchestrator owns the task queue and the worker registry. Its
// bookkeeping methods (SubmitTask, ProcessPending, CollectResults,
// HealthCheck, Shutdown) are serialized behind one mutex; workers only
// ever touch their private channels.
type Orchestrator struct {
	cfg      Config
	queue    *TaskQueue
	registry *Registry

	// tasks holds every submitted task until its result is collected.
	tasks map[string]*models.Task
	stats Stats

	events        chan Event
	eventsClosed  bool
	droppedEvents uint64

	stopped   bool
	startedAt time.Time
	mu        sync.Mutex
}

// New creates an Orchestrator with the given configuration.
func New(cfg Config) *Orchestrator {
	if cfg.Routing == nil {
		cfg.Routing = DefaultRoutingPolicy
	}
	if cfg.ActivityTimeout <= 0 {
		cfg.ActivityTimeout = 2 * time.Minute
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 100
	}
	if cfg.Logger != nil {
		SetPackageLogger(cfg.Logger)
	}

	return &Orchestrator{
		cfg:       cfg,
		queue:     NewTaskQueue(),
		registry:  NewRegistry(cfg.Registry),
		tasks:     make(map[string]*models.Task),
		events:    make(chan Event, cfg.EventBuffer),
		startedAt: time.Now(),
	}
}

// RegisterWorker spawns one worker for the agent type and returns its
// ID. Fails with ErrRegistrationLimit when the pool is at capacity and
// ErrOrchestratorStopped after shutdown.
func (o *Orchestrator) RegisterWorker(name, agentType string, handler TaskHandler, capabilities []string) (string, error) {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return "", ErrOrchestratorStopped
	}
	o.mu.Unlock()

	// Register outside the lock: the warm-up handshake may wait.
	id, err := o.registry.Register(name, agentType, handler, capabilities)
	if err != nil {
		return "", err
	}

	o.mu.Lock()
	o.emitLocked(Event{
		Type:      EventWorkerRegistered,
		WorkerID:  id,
		Message:   "worker registered: " + name,
		Timestamp: time.Now(),
	})
	o.mu.Unlock()

	return id, nil
}

// UnregisterWorker stops one worker via the stop/terminate escalation.
func (o *Orchestrator) UnregisterWorker(workerID string) error {
	if err := o.registry.Unregister(workerID); err != nil {
		return err
	}

	o.mu.Lock()
	o.emitLocked(Event{
		Type:      EventWorkerStopped,
		WorkerID:  workerID,
		Message:   "worker unregistered",
		Timestamp: time.Now(),
	})
	o.mu.Unlock()
	return nil
}

// SubmitTask validates and enqueues a new task, returning its ID
// immediately. It never blocks on workers.
func (o *Orchestrator) SubmitTask(payload models.Payload, capability string, priority int) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.submitLocked(payload, capability, priority)
}

// submitLocked enqueues a task. Caller must hold o.mu.
func (o *Orchestrator) submitLocked(payload models.Payload, capability string, priority int) (string, error) {
	if o.stopped {
		return "", ErrOrchestratorStopped
	}
	if capability == "" {
		return "", ErrInvalidTask
	}

	task := &models.Task{
		ID:                 uuid.New().String(),
		Payload:            payload,
		RequiredCapability: capability,
		Priority:           priority,
		Status:             models.TaskStatusPending,
		CreatedAt:          time.Now(),
	}

	if err := o.queue.Enqueue(task); err != nil {
		return "", err
	}
	o.tasks[task.ID] = task
	o.stats.TasksSubmitted++

	o.emitLocked(Event{
		Type:       EventTaskSubmitted,
		TaskID:     task.ID,
		Capability: capability,
		Message:    "task submitted",
		Timestamp:  task.CreatedAt,
	})
	debugLog("[orchestrator] task %s submitted (capability=%s priority=%d)", task.ID, capability, priority)

	return task.ID, nil
}

// RouteTask dispatches per the routing policy: direct capabilities are
// assigned to an idle matching worker immediately when one exists;
// everything else falls back to the queue. Returns whether immediate
// assignment succeeded.
func (o *Orchestrator) RouteTask(capability string, payload models.Payload) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stopped {
		return false, ErrOrchestratorStopped
	}
	if capability == "" {
		return false, ErrInvalidTask
	}

	if o.cfg.Routing(capability) == BackendDirect {
		if h := o.findIdleWorker(capability); h != nil {
			task := &models.Task{
				ID:                 uuid.New().String(),
				Payload:            payload,
				RequiredCapability: capability,
				Priority:           0,
				CreatedAt:          time.Now(),
			}
			o.tasks[task.ID] = task
			o.stats.TasksSubmitted++
			o.assignLocked(task, h)
			return true, nil
		}
	}

	if _, err := o.submitLocked(payload, capability, 0); err != nil {
		return false, err
	}
	return false, nil
}

// ProcessPending is the assignment loop: it pairs pending tasks in
// (priority desc, created_at asc) order with idle capability-matching
// workers. Idempotent; returns the number of assignments made.
func (o *Orchestrator) ProcessPending() int {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stopped {
		return 0
	}

	assigned := 0
	for {
		var target *workerHandle
		task := o.queue.TakeMatching(func(t *models.Task) bool {
			target = o.findIdleWorker(t.RequiredCapability)
			return target != nil
		})
		if task == nil {
			break
		}
		o.assignLocked(task, target)
		assigned++
	}

	if assigned > 0 {
		debugLog("[orchestrator] assigned %d pending tasks", assigned)
	}
	return assigned
}

// findIdleWorker returns the first idle worker (registration order)
// whose capability set contains capability, or nil.
func (o *Orchestrator) findIdleWorker(capability string) *workerHandle {
	for _, h := range o.registry.handles() {
		if h.model.Status == models.WorkerStatusIdle && h.model.CanServe(capability) {
			return h
		}
	}
	return nil
}

// assignLocked hands a task to a worker. Caller must hold o.mu and
// must have verified the worker is idle.
func (o *Orchestrator) assignLocked(task *models.Task, h *workerHandle) {
	now := time.Now()
	task.Status = models.TaskStatusAssigned
	task.AssignedTo = h.model.ID
	h.model.SetBusy(task.ID, now)
	h.proc.assign(task)

	o.emitLocked(Event{
		Type:       EventTaskAssigned,
		TaskID:     task.ID,
		WorkerID:   h.model.ID,
		Capability: task.RequiredCapability,
		Message:    "task assigned to " + h.model.Name,
		Timestamp:  now,
	})
	debugLog("[orchestrator] task %s assigned to worker %s", task.ID, h.model.ID)
}

// CollectResults drains every worker's output channel without blocking
// and returns the batch collected in this call. Workers are visited in
// registration order; within one worker, results keep arrival order.
// Each collected result finalizes its task, returns the worker to idle,
// and updates metrics.
func (o *Orchestrator) CollectResults() []models.Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	var results []models.Result
	for _, h := range o.registry.handles() {
	drain:
		for {
			select {
			case res := <-h.proc.output:
				o.finalizeLocked(h, res)
				results = append(results, res)
			default:
				break drain
			}
		}
	}
	return results
}

// finalizeLocked applies one collected result to the task and worker
// records. Caller must hold o.mu.
func (o *Orchestrator) finalizeLocked(h *workerHandle, res models.Result) {
	now := time.Now()

	taskKind := ""
	if task, ok := o.tasks[res.TaskID]; ok {
		if res.Status == models.ResultCompleted {
			task.Status = models.TaskStatusCompleted
		} else {
			task.Status = models.TaskStatusFailed
		}
		if task.Payload != nil {
			taskKind = task.Payload.Kind()
		}
		// The task object is discarded once its result is collected; a
		// retry is a new task with a fresh ID.
		delete(o.tasks, res.TaskID)
	}

	if h.model.CurrentTaskID == res.TaskID {
		h.model.SetIdle(now)
	}
	if res.Status == models.ResultCompleted {
		h.model.Metrics.TasksCompleted++
		o.stats.TasksCompleted++
	} else {
		h.model.Metrics.TasksFailed++
		o.stats.TasksFailed++
	}

	if o.cfg.History != nil {
		if err := o.cfg.History.Append(res, taskKind); err != nil {
			log.Printf("[orchestrator] warning: failed to append result %s to history: %v", res.TaskID, err)
		}
	}

	eventType := EventTaskCompleted
	if res.Status == models.ResultFailed {
		eventType = EventTaskFailed
	}
	o.emitLocked(Event{
		Type:      eventType,
		TaskID:    res.TaskID,
		WorkerID:  res.WorkerID,
		Message:   res.Content,
		Timestamp: now,
	})
	debugLog("[orchestrator] collected result for task %s (%s)", res.TaskID, res.Status)
}

// HealthCheck reports a verdict per worker: dead if the worker loop has
// exited, unresponsive if alive without activity inside the window,
// healthy otherwise. No remediation is taken.
func (o *Orchestrator) HealthCheck() map[string]HealthState {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := time.Now()
	out := make(map[string]HealthState)
	for _, h := range o.registry.handles() {
		switch {
		case h.model.Status == models.WorkerStatusStopped:
			out[h.model.ID] = HealthDead
		case !h.proc.alive():
			// The loop exited without going through Unregister. Mark the
			// record so the pool view shows the fault; the slot stays
			// held until the worker is unregistered.
			if h.model.Status != models.WorkerStatusError {
				h.model.Status = models.WorkerStatusError
				h.model.CurrentTaskID = ""
				debugLog("[orchestrator] worker %s loop exited unexpectedly", h.model.ID)
			}
			out[h.model.ID] = HealthDead
		case now.Sub(h.model.Metrics.LastActivity) > o.cfg.ActivityTimeout:
			out[h.model.ID] = HealthUnresponsive
		default:
			out[h.model.ID] = HealthHealthy
		}
	}
	return out
}

// Shutdown stops every worker (stop sentinel, bounded join, forced
// termination) and rejects all further submissions. Tasks still
// pending or assigned when shutdown completes never produce a result;
// that loss is the documented cost of stopping mid-flight. Idempotent.
func (o *Orchestrator) Shutdown() error {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return nil
	}
	o.stopped = true
	o.mu.Unlock()

	// Stop workers outside the lock; joins can take the full grace period.
	o.registry.StopAll()

	o.mu.Lock()
	defer o.mu.Unlock()

	if n := o.queue.Len(); n > 0 {
		log.Printf("[orchestrator] shutdown with %d pending tasks; they will not produce results", n)
	}
	for _, t := range o.tasks {
		if t.Status == models.TaskStatusAssigned {
			log.Printf("[orchestrator] shutdown while task %s was assigned to %s; its result is lost", t.ID, t.AssignedTo)
		}
	}

	o.emitLocked(Event{
		Type:      EventShutdown,
		Message:   "orchestrator stopped",
		Timestamp: time.Now(),
	})
	close(o.events)
	o.eventsClosed = true

	debugLog("[orchestrator] shutdown complete")
	return nil
}

// Stopped reports whether Shutdown has completed.
func (o *Orchestrator) Stopped() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stopped
}

// Status returns a point-in-time snapshot for status displays.
func (o *Orchestrator) Status() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	assigned := 0
	for _, t := range o.tasks {
		if t.Status == models.TaskStatusAssigned {
			assigned++
		}
	}

	return Snapshot{
		Workers:        o.registry.Workers(),
		PendingTasks:   o.queue.Len(),
		AssignedTasks:  assigned,
		TasksSubmitted: o.stats.TasksSubmitted,
		TasksCompleted: o.stats.TasksCompleted,
		TasksFailed:    o.stats.TasksFailed,
		StartedAt:      o.startedAt,
	}
}

// Events returns a read-only channel of orchestrator events. The
// channel is closed by Shutdown.
func (o *Orchestrator) Events() <-chan Event {
	return o.events
}

// DroppedEventCount returns how many events were dropped because the
// event channel was full.
func (o *Orchestrator) DroppedEventCount() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.droppedEvents
}

// emitLocked sends an event without blocking, dropping it if the
// channel is full. Caller must hold o.mu.
func (o *Orchestrator) emitLocked(event Event) {
	if o.eventsClosed {
		return
	}
	select {
	case o.events <- event:
	default:
		o.droppedEvents++
	}
}

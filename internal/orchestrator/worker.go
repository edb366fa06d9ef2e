package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/kestrelworks/swarm/pkg/models"
)

// TaskHandler executes one task and returns its output. Errors are
// converted into failed results by the worker loop; handlers never see
// the output channel.
type TaskHandler func(ctx context.Context, task *models.Task) (string, error)

// workerMsg is the envelope carried on a worker's input channel. A
// message with stop set is the stop sentinel: the worker finishes any
// in-flight task and exits its loop.
type workerMsg struct {
	task *models.Task
	stop bool
}

// workerProc is the running half of a worker: a goroutine owning the
// private input/output channel pair. The orchestrator never shares
// state with it beyond these channels.
type workerProc struct {
	id      string
	handler TaskHandler
	// taskTimeout bounds each handler call, including the LLM wait.
	taskTimeout time.Duration

	input  chan workerMsg
	output chan models.Result
	// ready is closed once the loop is live (the liveness handshake).
	ready chan struct{}
	// done is closed when the loop exits; it is the process handle the
	// health check inspects.
	done   chan struct{}
	cancel context.CancelFunc
}

// newWorkerProc allocates a worker's channels and spawns its loop.
func newWorkerProc(id string, handler TaskHandler, taskTimeout time.Duration, queueDepth int) *workerProc {
	ctx, cancel := context.WithCancel(context.Background())
	w := &workerProc{
		id:          id,
		handler:     handler,
		taskTimeout: taskTimeout,
		input:       make(chan workerMsg, 1),
		output:      make(chan models.Result, queueDepth),
		ready:       make(chan struct{}),
		done:        make(chan struct{}),
		cancel:      cancel,
	}
	go w.run(ctx)
	return w
}

// run is the worker loop: block for the next message, execute, push
// exactly one result, repeat until stopped or force-terminated.
func (w *workerProc) run(ctx context.Context) {
	defer close(w.done)
	close(w.ready)

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-w.input:
			if msg.stop {
				return
			}
			res := w.execute(ctx, msg.task)
			select {
			case w.output <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}

// execute runs the handler under the task timeout and converts every
// outcome, including panics, into a single Result.
func (w *workerProc) execute(ctx context.Context, task *models.Task) (res models.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = models.Failure(task.ID, w.id, fmt.Sprintf("task execution panic: %v", r))
		}
	}()

	tctx := ctx
	if w.taskTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, w.taskTimeout)
		defer cancel()
	}

	out, err := w.handler(tctx, task)
	if err != nil {
		if tctx.Err() == context.DeadlineExceeded {
			return models.Failure(task.ID, w.id, fmt.Sprintf("task timed out after %s: %v", w.taskTimeout, err))
		}
		return models.Failure(task.ID, w.id, err.Error())
	}
	return models.Success(task.ID, w.id, out)
}

// assign pushes a task onto the worker's input channel. The input
// channel has capacity one, so assigning to an idle worker never blocks.
func (w *workerProc) assign(task *models.Task) {
	w.input <- workerMsg{task: task}
}

// requestStop pushes the stop sentinel without blocking. Returns false
// if the input channel is full (a task is still queued); callers fall
// back to terminate after the grace period.
func (w *workerProc) requestStop() bool {
	select {
	case w.input <- workerMsg{stop: true}:
		return true
	default:
		return false
	}
}

// terminate force-cancels the worker's context.
func (w *workerProc) terminate() {
	w.cancel()
}

// alive reports whether the worker loop is still running.
func (w *workerProc) alive() bool {
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// join waits for the loop to exit, up to the given timeout. Returns
// true if the worker exited in time.
func (w *workerProc) join(timeout time.Duration) bool {
	select {
	case <-w.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

package runtime

import (
	"context"
	"runtime/debug"
	"sync/atomic"

	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/ports"
)

// taskEntry is a deferred unit of work and its completion signal.
type taskEntry struct {
	task      ports.Task
	done      chan struct{}
	err       error
	abandoned atomic.Bool // the foreign caller stopped waiting
}

func newTaskEntry(task ports.Task) *taskEntry {
	return &taskEntry{task: task, done: make(chan struct{})}
}

func (e *taskEntry) complete(err error) {
	e.err = err
	close(e.done)
}

// runSafe executes task, converting a panic into a PanicError.
func runSafe(ctx context.Context, task ports.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return task(ctx)
}

// ExecuteTask runs task on the host goroutine.
//
//   - From the host goroutine it runs inline, without queueing.
//   - From a script's worker it is handed to the host through the yield
//     channel; the worker blocks until the host resumes it.
//   - From any other goroutine it is posted to the inbox, drained at the start
//     of the next Tick, and the caller waits for completion or ctx.
//
// A worker context used while that worker does not hold the baton belongs to
// a goroutine the script started on its own; such calls are posted as well.
func (d *Domain) ExecuteTask(ctx context.Context, task ports.Task) error {
	if d.unloaded.Load() {
		return domain.ErrDomainUnloaded
	}

	r := roleFrom(ctx)
	switch {
	case r.domain == d && r.inst == nil:
		return runSafe(ctx, task)
	case r.domain == d && r.inst != nil:
		inst := r.inst
		// The host is running one of this instance's tasks and that task
		// called back through the worker's context.
		if inst.hostRunningTask.Load() {
			return runSafe(d.HostContext(ctx), task)
		}
		if !inst.inSlice.Load() {
			return d.post(foreign(ctx), task)
		}
		return inst.handOff(ctx, task)
	default:
		return d.post(ctx, task)
	}
}

// handOff is the worker side of the task handshake.
func (inst *Instance) handOff(ctx context.Context, task ports.Task) error {
	if !inst.running.Load() {
		return domain.ErrAborted
	}
	e := newTaskEntry(task)
	inst.inSlice.Store(false)
	select {
	case inst.yieldCh <- e:
	case <-ctx.Done():
		return domain.ErrAborted
	}
	select {
	case <-inst.continueCh:
		inst.inSlice.Store(true)
		return e.err
	case <-ctx.Done():
		return domain.ErrAborted
	}
}

// post queues task from a foreign goroutine.
func (d *Domain) post(ctx context.Context, task ports.Task) error {
	e := newTaskEntry(task)

	d.inboxMu.Lock()
	if d.unloaded.Load() {
		d.inboxMu.Unlock()
		return domain.ErrDomainUnloaded
	}
	d.inbox = append(d.inbox, e)
	d.inboxMu.Unlock()

	select {
	case <-e.done:
		return e.err
	case <-ctx.Done():
		e.abandoned.Store(true)
		return ctx.Err()
	}
}

// drainInbox runs the tasks posted by foreign goroutines. Host only.
func (d *Domain) drainInbox(ctx context.Context) int {
	d.inboxMu.Lock()
	pending := d.inbox
	d.inbox = nil
	d.inboxMu.Unlock()

	ran := 0
	for _, e := range pending {
		if e.abandoned.Load() {
			e.complete(context.Canceled)
			continue
		}
		e.complete(runSafe(ctx, e.task))
		ran++
	}
	return ran
}

// runTasks drains the task queue on behalf of inst. Host only.
func (d *Domain) runTasks(ctx context.Context, inst *Instance) int {
	ran := 0
	for len(d.tasks) > 0 {
		e := d.tasks[0]
		d.tasks = d.tasks[1:]
		inst.hostRunningTask.Store(true)
		err := runSafe(ctx, e.task)
		inst.hostRunningTask.Store(false)
		e.complete(err)
		ran++
	}
	d.tasks = nil
	return ran
}

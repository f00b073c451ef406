package runtime

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/scripthost/internal/input"
	"github.com/aretw0/scripthost/internal/loader"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/ports"
	"github.com/aretw0/scripthost/pkg/settings"
)

// Instance is one running script: the script object, its worker goroutine and
// the two channels passing the baton between the host and that worker.
//
// Fields without synchronization are owned by whoever holds the baton; the
// channel operations order every access.
type Instance struct {
	d        *Domain
	name     string
	entry    loader.Entry
	logger   *slog.Logger
	settings *settings.Settings

	script ports.Script

	state   atomic.Int32 // domain.ScriptState
	running atomic.Bool
	cancel  context.CancelFunc // host only; nil once aborted
	done    chan struct{}      // closed when the worker goroutine returns
	exitErr error              // read after done

	continueCh chan struct{}   // host -> script
	yieldCh    chan *taskEntry // script -> host; nil entry is a plain yield

	events []domain.KeyEvent // appended by the host, drained by the worker
	keys   input.State       // key snapshot copied in before each resume

	hostRunningTask atomic.Bool
	inSlice         atomic.Bool // set by the worker while it holds the baton
	abortRequested  atomic.Bool
	paused          atomic.Bool
	interval        atomic.Int64 // time.Duration
	nextRun         time.Time    // worker only
}

func newInstance(d *Domain, entry loader.Entry, s *settings.Settings) *Instance {
	name := entry.Type.Descriptor.ID()
	inst := &Instance{
		d:          d,
		name:       name,
		entry:      entry,
		logger:     d.logger.With("script", name),
		settings:   s,
		done:       make(chan struct{}),
		continueCh: make(chan struct{}, 1),
		yieldCh:    make(chan *taskEntry, 1),
	}
	inst.state.Store(int32(domain.StateNotStarted))
	return inst
}

// State returns the lifecycle state.
func (inst *Instance) State() domain.ScriptState {
	return domain.ScriptState(inst.state.Load())
}

// Script returns the script object, or nil if it was never instantiated.
func (inst *Instance) Script() ports.Script { return inst.script }

// Done is closed once the worker goroutine has returned.
func (inst *Instance) Done() <-chan struct{} { return inst.done }

func (inst *Instance) status() domain.ScriptStatus {
	return domain.ScriptStatus{
		Name:     inst.name,
		Module:   inst.entry.Type.Descriptor.Module(),
		State:    inst.State().String(),
		Paused:   inst.paused.Load(),
		Interval: inst.Interval(),
	}
}

// ports.Runtime

func (inst *Instance) Name() string                 { return inst.name }
func (inst *Instance) Filename() string             { return inst.entry.Type.Descriptor.Module() }
func (inst *Instance) Logger() *slog.Logger         { return inst.logger }
func (inst *Instance) Settings() *settings.Settings { return inst.settings }

// Yield hands the baton back to the host until the next frame.
func (inst *Instance) Yield(ctx context.Context) error {
	if roleFrom(ctx).inst != inst || inst.hostRunningTask.Load() || !inst.inSlice.Load() {
		return domain.ErrNotWorker
	}
	if !inst.running.Load() {
		return domain.ErrAborted
	}
	inst.inSlice.Store(false)
	select {
	case inst.yieldCh <- nil:
	case <-ctx.Done():
		return domain.ErrAborted
	}
	select {
	case <-inst.continueCh:
		inst.inSlice.Store(true)
		return nil
	case <-ctx.Done():
		return domain.ErrAborted
	}
}

// Wait yields until d has elapsed. Key events keep queuing meanwhile.
func (inst *Instance) Wait(ctx context.Context, d time.Duration) error {
	deadline := time.Now().Add(d)
	for {
		if err := inst.Yield(ctx); err != nil {
			return err
		}
		if !time.Now().Before(deadline) {
			return nil
		}
	}
}

func (inst *Instance) ExecuteTask(ctx context.Context, task ports.Task) error {
	return inst.d.ExecuteTask(ctx, task)
}

func (inst *Instance) Call(ctx context.Context, name string, args ...any) (any, error) {
	var out any
	err := inst.d.ExecuteTask(ctx, func(hctx context.Context) error {
		var err error
		out, err = inst.d.natives.Execute(hctx, name, args)
		return err
	})
	return out, err
}

func (inst *Instance) Go(ctx context.Context, fn func(ctx context.Context)) {
	fctx := foreign(ctx)
	go fn(fctx)
}

// IsKeyPressed reads the snapshot taken when the script was last resumed.
func (inst *Instance) IsKeyPressed(k domain.Key) bool {
	return inst.keys.Pressed(k)
}

func (inst *Instance) Interval() time.Duration {
	return time.Duration(inst.interval.Load())
}

func (inst *Instance) SetInterval(d time.Duration) {
	if d < 0 {
		d = 0
	}
	inst.interval.Store(int64(d))
}

func (inst *Instance) Pause()         { inst.paused.Store(true) }
func (inst *Instance) Resume()        { inst.paused.Store(false) }
func (inst *Instance) IsPaused() bool { return inst.paused.Load() }

// Abort asks the scheduler to stop the script once the current slice ends.
func (inst *Instance) Abort() { inst.abortRequested.Store(true) }

var _ ports.Runtime = (*Instance)(nil)

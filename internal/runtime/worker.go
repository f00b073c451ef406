package runtime

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/aretw0/scripthost/pkg/ports"
)

// run is the worker main loop. Each iteration waits for the baton, delivers
// queued key events, ticks the script and yields back.
//
// The loop returns when the context is cancelled (abort), when Tick fails or
// panics, or when the script asked to be aborted. The host notices through done.
func (inst *Instance) run(ctx context.Context) {
	defer close(inst.done)
	defer inst.inSlice.Store(false)
	defer func() {
		if r := recover(); r != nil {
			inst.exitErr = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	for {
		select {
		case <-inst.continueCh:
			inst.inSlice.Store(true)
		case <-ctx.Done():
			return
		}

		if !inst.due() {
			if !inst.yieldOrStop(ctx) {
				return
			}
			continue
		}

		inst.drainEvents(ctx)
		if err := inst.script.Tick(ctx, inst); err != nil {
			inst.exitErr = err
			return
		}
		if inst.abortRequested.Load() || ctx.Err() != nil {
			return
		}
		if interval := inst.Interval(); interval > 0 {
			inst.nextRun = time.Now().Add(interval)
		}
		if !inst.yieldOrStop(ctx) {
			return
		}
	}
}

// due reports whether the script should tick this frame.
func (inst *Instance) due() bool {
	if inst.paused.Load() {
		return false
	}
	return inst.Interval() <= 0 || !time.Now().Before(inst.nextRun)
}

func (inst *Instance) yieldOrStop(ctx context.Context) bool {
	inst.inSlice.Store(false)
	select {
	case inst.yieldCh <- nil:
		return true
	case <-ctx.Done():
		return false
	}
}

// drainEvents delivers queued key events in order. A handler error consumes
// the failing event, is logged and leaves the rest queued for the next frame.
func (inst *Instance) drainEvents(ctx context.Context) {
	kh, ok := inst.script.(ports.KeyHandler)
	if !ok {
		inst.events = nil
		return
	}
	for len(inst.events) > 0 {
		ev := inst.events[0]
		inst.events = inst.events[1:]

		var err error
		if ev.Down {
			err = kh.KeyDown(ctx, inst, ev)
		} else {
			err = kh.KeyUp(ctx, inst, ev)
		}
		if err != nil {
			inst.logger.Error("Key handler failed", "event", ev.String(), "error", err)
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

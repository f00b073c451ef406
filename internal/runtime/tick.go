package runtime

import (
	"context"
	"slices"
	"time"

	"github.com/aretw0/scripthost/pkg/domain"
)

// Tick drives one frame: it runs tasks posted by foreign goroutines, relays
// keyboard transitions, then resumes every running script in start order.
// Failures are logged; Tick never returns an error.
func (d *Domain) Tick(ctx context.Context) {
	if d.unloaded.Load() {
		return
	}
	start := time.Now()
	ctx = d.HostContext(ctx)

	tasks := d.drainInbox(ctx)

	events := d.relayInput(ctx)
	keys := d.relay.Snapshot()

	for _, inst := range slices.Clone(d.running) {
		if !inst.running.Load() {
			continue
		}
		inst.events = append(inst.events, events...)
		inst.keys = keys
		tasks += d.resume(ctx, inst)
	}

	d.scratch.release()
	d.publishStatus()

	if d.hooks.OnTick != nil {
		d.hooks.OnTick(ctx, &domain.TickEvent{
			Timestamp: start,
			Domain:    d.name,
			Duration:  time.Since(start),
			Running:   len(d.running),
			Tasks:     tasks,
		})
	}
}

// relayInput polls the relay and filters out the reload key, which triggers
// onReload on press and is never delivered to scripts.
func (d *Domain) relayInput(ctx context.Context) []domain.KeyEvent {
	polled := d.relay.Poll()
	events := polled[:0]
	for _, ev := range polled {
		if d.reloadKey != 0 && ev.Key == d.reloadKey {
			if ev.Down && d.onReload != nil {
				d.logger.Info("Reload key pressed")
				d.onReload()
			}
			continue
		}
		if d.hooks.OnKeyEvent != nil {
			d.hooks.OnKeyEvent(ctx, ev)
		}
		events = append(events, ev)
	}
	return events
}

// resume passes the baton to inst and waits, bounded by the watchdog, until it
// yields back. Tasks handed over meanwhile run here before the script goes on.
// It returns the number of tasks executed.
func (d *Domain) resume(ctx context.Context, inst *Instance) int {
	d.executing = inst
	defer func() { d.executing = nil }()

	ran := 0
	timer := time.NewTimer(d.watchdog)
	defer timer.Stop()

	inst.continueCh <- struct{}{}
	for {
		select {
		case e := <-inst.yieldCh:
			if e == nil {
				return ran
			}
			d.tasks = append(d.tasks, e)
			ran += d.runTasks(ctx, inst)
			if !inst.running.Load() {
				// A task aborted the script; its worker sees the cancelled context.
				return ran
			}
			timer.Reset(d.watchdog)
			inst.continueCh <- struct{}{}
		case <-inst.done:
			if inst.exitErr != nil {
				d.abort(ctx, inst, domain.AbortError, inst.exitErr)
			} else {
				d.abort(ctx, inst, domain.AbortRequested, nil)
			}
			return ran
		case <-timer.C:
			d.abort(ctx, inst, domain.AbortHang, nil)
			return ran
		}
	}
}

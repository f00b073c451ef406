// Package runtime implements the script scheduler.
//
// A Domain owns every running script of one session. Each script runs on its
// own goroutine, but only one party (the host goroutine calling Tick, or
// exactly one script) runs at any instant: the host passes the baton to a
// script through its continue channel and gets it back through its yield
// channel. Work that must happen on the host goroutine is handed over through
// the same channel and executed before the script is resumed.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/scripthost/internal/graph"
	"github.com/aretw0/scripthost/internal/input"
	"github.com/aretw0/scripthost/internal/loader"
	"github.com/aretw0/scripthost/internal/logging"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/ports"
	"github.com/aretw0/scripthost/pkg/registry"
	"github.com/aretw0/scripthost/pkg/settings"
	"github.com/google/uuid"
)

// WatchdogTimeout bounds every wait for a script to yield back.
const WatchdogTimeout = 5 * time.Second

// Domain is the scheduler.
type Domain struct {
	name      string
	logger    *slog.Logger
	natives   *registry.Registry
	hooks     domain.LifecycleHooks
	reloadKey domain.Key
	onReload  func()
	watchdog  time.Duration

	relay *input.Relay

	// Host only.
	catalog   *loader.Catalog
	instances []*Instance // every instance of the session, start order
	running   []*Instance
	tasks     []*taskEntry
	executing *Instance
	scratch   scratch

	inboxMu sync.Mutex
	inbox   []*taskEntry

	unloaded atomic.Bool
	status   atomic.Pointer[[]domain.ScriptStatus]
	releases sync.WaitGroup
}

// NewDomain creates a scheduler over catalog.
func NewDomain(catalog *loader.Catalog, opts ...Option) *Domain {
	d := &Domain{
		name:     "domain-" + uuid.NewString()[:8],
		logger:   logging.NewNop(),
		natives:  registry.NewRegistry(),
		watchdog: WatchdogTimeout,
		relay:    input.NewRelay(),
		catalog:  catalog,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("domain", d.name)
	empty := []domain.ScriptStatus{}
	d.status.Store(&empty)
	return d
}

// Name returns the domain name.
func (d *Domain) Name() string { return d.name }

// Relay returns the keyboard relay fed by the embedding input loop.
func (d *Domain) Relay() *input.Relay { return d.relay }

// Executing returns the name of the script holding the baton, or "". Host only.
func (d *Domain) Executing() string {
	if d.executing == nil {
		return ""
	}
	return d.executing.name
}

// Running returns the running instances in tick order. Host only.
func (d *Domain) Running() []*Instance { return slices.Clone(d.running) }

// Instances returns every instance created this session. Host only.
func (d *Domain) Instances() []*Instance { return slices.Clone(d.instances) }

// Status returns the snapshot published after the last tick. Safe from any goroutine.
func (d *Domain) Status() []domain.ScriptStatus {
	return slices.Clone(*d.status.Load())
}

// Unloaded reports whether Unload has completed.
func (d *Domain) Unloaded() bool { return d.unloaded.Load() }

// Start instantiates every catalogued script in dependency order and launches
// its worker. It is a no-op while scripts are running or when nothing was loaded.
func (d *Domain) Start(ctx context.Context) error {
	if d.unloaded.Load() {
		return domain.ErrDomainUnloaded
	}
	if len(d.running) > 0 || d.catalog.Len() == 0 {
		return nil
	}
	ctx = d.HostContext(ctx)

	plan := graph.Resolve(d.catalog.Descriptors())
	for _, ex := range plan.Excluded {
		d.logger.Error("Script excluded from start", "script", ex.Descriptor.ID(), "module", ex.Descriptor.Module(), "error", ex.Err)
	}

	for _, desc := range plan.Order {
		d.startOne(ctx, desc)
	}
	d.publishStatus()
	d.logger.Info("Domain started", "running", len(d.running), "excluded", len(plan.Excluded))
	return nil
}

func (d *Domain) startOne(ctx context.Context, desc domain.Descriptor) {
	entry, ok := d.catalog.Lookup(desc)
	if !ok {
		return
	}
	logger := d.logger.With("script", desc.ID(), "module", desc.Module())

	s, err := settings.Load(entry.SettingsPath)
	if err != nil {
		logger.Warn("Failed to load script settings", "error", err)
	}

	inst := newInstance(d, entry, s)
	d.instances = append(d.instances, inst)

	if entry.Type.New == nil {
		logger.Error("Failed to instantiate script", "error", domain.ErrNoConstructor)
		return
	}
	script, err := construct(ctx, entry.Type.New, inst)
	if err != nil {
		logger.Error("Failed to instantiate script", "error", err)
		return
	}
	inst.script = script

	wctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	wctx = withRole(wctx, role{domain: d, inst: inst})
	inst.cancel = cancel
	inst.running.Store(true)
	inst.state.Store(int32(domain.StateRunning))
	d.running = append(d.running, inst)
	go inst.run(wctx)

	logger.Info("Started script")
	if d.hooks.OnScriptStart != nil {
		d.hooks.OnScriptStart(ctx, d.event(inst, "", nil))
	}
}

func construct(ctx context.Context, f ports.Factory, rt ports.Runtime) (s ports.Script, err error) {
	err = runSafe(ctx, func(ctx context.Context) error {
		var ferr error
		s, ferr = f(ctx, rt)
		return ferr
	})
	if err == nil && s == nil {
		err = fmt.Errorf("factory returned no script")
	}
	return s, err
}

// Abort stops every running instance named name. Called from a script it runs
// as a host task; from any other goroutine it is queued for the next Tick.
func (d *Domain) Abort(ctx context.Context, name string) error {
	if !d.isHost(ctx) {
		return d.ExecuteTask(ctx, func(hctx context.Context) error {
			return d.Abort(hctx, name)
		})
	}
	found := false
	for _, inst := range slices.Clone(d.running) {
		if inst.name == name {
			found = true
			d.abort(ctx, inst, domain.AbortRequested, nil)
		}
	}
	if !found {
		return fmt.Errorf("%s: %w", name, domain.ErrNotRunning)
	}
	return nil
}

// abort is fire-and-forget: it never waits for the worker to stop. Host only.
func (d *Domain) abort(ctx context.Context, inst *Instance, reason domain.AbortReason, cause error) {
	if inst.cancel == nil {
		return
	}
	inst.running.Store(false)
	inst.cancel()
	inst.cancel = nil
	inst.state.Store(int32(domain.StateAborted))
	d.running = slices.DeleteFunc(d.running, func(i *Instance) bool { return i == inst })

	switch reason {
	case domain.AbortHang:
		inst.logger.Warn("Script not responding, aborted", "timeout", d.watchdog)
	case domain.AbortError:
		if pe, ok := cause.(*PanicError); ok {
			inst.logger.Error("Script panicked, aborted", "error", pe, "stack", string(pe.Stack))
		} else {
			inst.logger.Error("Script failed, aborted", "error", cause)
		}
	default:
		inst.logger.Info("Script aborted", "reason", reason)
	}

	if reason != domain.AbortHang {
		if h, ok := inst.script.(ports.AbortHandler); ok {
			if err := runSafe(ctx, func(ctx context.Context) error {
				h.Aborted(ctx, inst)
				return nil
			}); err != nil {
				inst.logger.Error("Abort handler failed", "error", err)
			}
		}
	}
	if d.hooks.OnScriptAbort != nil {
		d.hooks.OnScriptAbort(ctx, d.event(inst, reason, cause))
	}

	d.release(inst)
}

// release closes the script in the background once its worker has returned.
// A worker that never returns keeps its goroutine until the process exits.
func (d *Domain) release(inst *Instance) {
	closer, ok := inst.script.(interface{ Close() error })
	if !ok {
		return
	}
	d.releases.Add(1)
	go func() {
		defer d.releases.Done()
		<-inst.done
		if err := closer.Close(); err != nil {
			inst.logger.Warn("Failed to release script", "error", err)
		}
	}()
}

// Wait blocks until every aborted script has been released, or ctx is done.
func (d *Domain) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.releases.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unload aborts every running script, marks never-started ones unloaded,
// drops the catalog and every queue, and invalidates the domain. Failures are
// logged, never returned.
func (d *Domain) Unload(ctx context.Context) {
	if d.unloaded.Load() {
		return
	}
	ctx = d.HostContext(ctx)

	for _, inst := range slices.Clone(d.running) {
		d.abort(ctx, inst, domain.AbortUnload, nil)
	}
	for _, inst := range d.instances {
		if inst.State() == domain.StateNotStarted {
			inst.state.Store(int32(domain.StateUnloaded))
		}
	}

	if err := d.catalog.Close(); err != nil {
		d.logger.Warn("Failed to release modules", "error", err)
	}
	d.catalog = nil
	d.tasks = nil
	d.executing = nil

	d.inboxMu.Lock()
	d.unloaded.Store(true)
	pending := d.inbox
	d.inbox = nil
	d.inboxMu.Unlock()
	for _, e := range pending {
		e.complete(domain.ErrDomainUnloaded)
	}

	d.scratch.release()
	d.relay.Reset()
	d.publishStatus()
	d.logger.Info("Domain unloaded")
}

func (d *Domain) event(inst *Instance, reason domain.AbortReason, err error) *domain.ScriptEvent {
	return &domain.ScriptEvent{
		Timestamp: time.Now(),
		Domain:    d.name,
		Script:    inst.name,
		Module:    inst.Filename(),
		Reason:    reason,
		Err:       err,
	}
}

func (d *Domain) publishStatus() {
	out := make([]domain.ScriptStatus, 0, len(d.instances))
	for _, inst := range d.instances {
		out = append(out, inst.status())
	}
	d.status.Store(&out)
}

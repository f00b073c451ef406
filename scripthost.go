package scripthost

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/aretw0/scripthost/internal/loader"
	"github.com/aretw0/scripthost/internal/logging"
	"github.com/aretw0/scripthost/internal/providers/lua"
	"github.com/aretw0/scripthost/internal/providers/native"
	"github.com/aretw0/scripthost/internal/providers/process"
	"github.com/aretw0/scripthost/internal/runtime"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/observability"
	"github.com/aretw0/scripthost/pkg/ports"
	"github.com/aretw0/scripthost/pkg/registry"
)

// Host is the callback surface of the embedding application. Init and Tick
// must be called from the same goroutine, the host goroutine. KeyboardMessage
// may be called from any goroutine.
type Host struct {
	root      string
	logger    *slog.Logger
	providers []ports.Provider
	builtins  []ports.BuiltinSource
	natives   *registry.Registry
	hooks     domain.LifecycleHooks
	reloadKey domain.Key
	onReload  func()
	events    *observability.Broadcaster

	current atomic.Pointer[runtime.Domain]
	reload  atomic.Bool
}

// Option defines a functional option for configuring the Host.
type Option func(*Host)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

// WithProvider adds a file based script provider. When none is given the Lua
// and process providers are used.
func WithProvider(p ports.Provider) Option {
	return func(h *Host) {
		h.providers = append(h.providers, p)
	}
}

// WithBuiltins replaces the compiled-in module source (native.Default).
func WithBuiltins(src ports.BuiltinSource) Option {
	return func(h *Host) {
		h.builtins = []ports.BuiltinSource{src}
	}
}

// WithNatives sets the native function table scripts reach through Call.
func WithNatives(r *registry.Registry) Option {
	return func(h *Host) {
		h.natives = r
	}
}

// WithLifecycleHooks registers observability hooks, kept across reloads.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(h *Host) {
		h.hooks = hooks
	}
}

// WithReloadKey sets the key that reloads every script (default Insert).
// Zero disables it.
func WithReloadKey(k domain.Key) Option {
	return func(h *Host) {
		h.reloadKey = k
	}
}

// WithReloadCallback is called on the host goroutine after every reload.
func WithReloadCallback(fn func()) Option {
	return func(h *Host) {
		h.onReload = fn
	}
}

// New creates a host loading scripts from root. No script runs before Init.
func New(root string, opts ...Option) *Host {
	h := &Host{
		root:      root,
		logger:    logging.NewNop(),
		natives:   registry.NewRegistry(),
		builtins:  []ports.BuiltinSource{native.Default},
		reloadKey: domain.KeyInsert,
		events:    observability.NewBroadcaster(16),
	}
	for _, opt := range opts {
		opt(h)
	}
	if len(h.providers) == 0 {
		h.providers = []ports.Provider{
			lua.New(lua.WithLogger(h.logger)),
			process.New(process.WithLogger(h.logger)),
		}
	}
	return h
}

// Init unloads the current domain, if any, and starts a fresh one from the
// scripts found under root. It is also what the reload key triggers.
func (h *Host) Init(ctx context.Context) error {
	if old := h.current.Swap(nil); old != nil {
		old.Unload(ctx)
		h.events.Publish("reload")
	}

	opts := []loader.Option{loader.WithLogger(h.logger)}
	for _, p := range h.providers {
		opts = append(opts, loader.WithProvider(p))
	}
	for _, b := range h.builtins {
		opts = append(opts, loader.WithBuiltins(b))
	}
	catalog, err := loader.New(opts...).Load(ctx, h.root)
	if err != nil {
		return err
	}

	d := runtime.NewDomain(catalog,
		runtime.WithLogger(h.logger),
		runtime.WithNatives(h.natives),
		runtime.WithHooks(observability.Combine(h.hooks, h.events.Hooks())),
		runtime.WithReloadKey(h.reloadKey, h.RequestReload),
	)
	if err := d.Start(ctx); err != nil {
		d.Unload(ctx)
		return err
	}
	h.current.Store(d)
	return nil
}

// Tick advances every script by one frame, then carries out a pending reload.
func (h *Host) Tick(ctx context.Context) {
	if d := h.current.Load(); d != nil {
		d.Tick(ctx)
	}
	if h.reload.CompareAndSwap(true, false) {
		h.logger.Info("Reloading scripts")
		if err := h.Init(ctx); err != nil {
			h.logger.Error("Reload failed", "error", err)
		}
		if h.onReload != nil {
			h.onReload()
		}
	}
}

// KeyboardMessage records a raw key transition. Without a running domain the
// reload key still requests a reload.
func (h *Host) KeyboardMessage(key domain.Key, pressed, ctrl, shift, alt bool) {
	if d := h.current.Load(); d != nil {
		d.Relay().Set(key, pressed, ctrl, shift, alt)
		return
	}
	if pressed && h.reloadKey != 0 && key == h.reloadKey {
		h.RequestReload()
	}
}

// RequestReload schedules a reload at the end of the next Tick.
func (h *Host) RequestReload() {
	h.reload.Store(true)
}

// Domain returns the current scheduler, or nil before Init.
func (h *Host) Domain() *runtime.Domain {
	return h.current.Load()
}

// Status returns the script snapshot of the current domain.
func (h *Host) Status() []domain.ScriptStatus {
	if d := h.current.Load(); d != nil {
		return d.Status()
	}
	return nil
}

// Abort stops the named script. From outside the host goroutine it waits for
// the next Tick.
func (h *Host) Abort(ctx context.Context, name string) error {
	d := h.current.Load()
	if d == nil {
		return domain.ErrDomainUnloaded
	}
	return d.Abort(ctx, name)
}

// Watch streams lifecycle events ("start x", "abort x reason", "reload").
func (h *Host) Watch(ctx context.Context) <-chan string {
	return h.events.Watch(ctx)
}

// Shutdown unloads the current domain and waits for its scripts to be
// released, or for ctx.
func (h *Host) Shutdown(ctx context.Context) error {
	d := h.current.Swap(nil)
	if d == nil {
		return nil
	}
	d.Unload(ctx)
	return d.Wait(ctx)
}

package lua

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Shopify/go-lua"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/ports"
)

// hookInstructions is how often the VM checks whether the script was aborted.
const hookInstructions = 1000

const selfGlobal = "__self"

// script is one instance, with its own VM. The VM is only ever used by the
// party holding the baton, tracked through ctx.
type script struct {
	l    *lua.State
	rt   ports.Runtime
	name string
	ctx  context.Context // context of the call in progress
	busy atomic.Bool     // a worker-side call is on the VM stack
}

func newScript(ctx context.Context, rt ports.Runtime, path, src, name string, timeout time.Duration) (*script, error) {
	// The chunk and init run under the load deadline, later callbacks under
	// the context of their call.
	loadCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s := &script{l: lua.NewState(), rt: rt, name: name, ctx: loadCtx}
	l := s.l
	lua.OpenLibraries(l)

	var self bool
	l.Register("script", func(l *lua.State) int {
		lua.CheckType(l, 1, lua.TypeTable)
		if fieldString(l, 1, "name") == name {
			l.PushValue(1)
			l.SetGlobal(selfGlobal)
			self = true
		}
		return 0
	})
	openHost(l, s)

	// Abort cannot kill a goroutine, so the VM polls the context instead.
	interrupt(l, func() context.Context { return s.ctx })

	if err := lua.LoadBuffer(l, src, path, "t"); err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	if err := l.ProtectedCall(0, 0, 0); err != nil {
		return nil, fmt.Errorf("run %s: %w", path, loadError(loadCtx, err))
	}
	if !self {
		return nil, fmt.Errorf("script %s no longer declared by %s", name, path)
	}

	if ms, ok := s.number("interval"); ok && ms > 0 {
		rt.SetInterval(time.Duration(ms * float64(time.Millisecond)))
	}
	if _, err := s.invoke(loadCtx, "init", nil); err != nil {
		if errors.Is(loadCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s.init: %w", name, ErrLoadTimeout)
		}
		return nil, err
	}
	s.ctx = ctx
	return s, nil
}

func (s *script) number(field string) (float64, bool) {
	s.l.Global(selfGlobal)
	defer s.l.Pop(1)
	s.l.Field(-1, field)
	defer s.l.Pop(1)
	return s.l.ToNumber(-1)
}

// invoke calls self[fn](arg) if defined. It reports whether fn existed.
func (s *script) invoke(ctx context.Context, fn string, push func(l *lua.State)) (bool, error) {
	l := s.l
	if l == nil {
		return false, domain.ErrAborted
	}
	prev := s.ctx
	s.ctx = ctx
	defer func() { s.ctx = prev }()

	top := l.Top()
	defer l.SetTop(top)

	l.Global(selfGlobal)
	l.Field(-1, fn)
	if !l.IsFunction(-1) {
		return false, nil
	}
	args := 0
	if push != nil {
		push(l)
		args = 1
	}
	if err := l.ProtectedCall(args, 0, 0); err != nil {
		if ctx.Err() != nil {
			return true, fmt.Errorf("%s: %w", fn, domain.ErrAborted)
		}
		return true, fmt.Errorf("%s.%s: %w", s.name, fn, err)
	}
	return true, nil
}

func (s *script) Tick(ctx context.Context, _ ports.Runtime) error {
	s.busy.Store(true)
	defer s.busy.Store(false)
	_, err := s.invoke(ctx, "tick", nil)
	return err
}

func (s *script) KeyDown(ctx context.Context, _ ports.Runtime, ev domain.KeyEvent) error {
	return s.key(ctx, "keydown", ev)
}

func (s *script) KeyUp(ctx context.Context, _ ports.Runtime, ev domain.KeyEvent) error {
	return s.key(ctx, "keyup", ev)
}

func (s *script) key(ctx context.Context, fn string, ev domain.KeyEvent) error {
	s.busy.Store(true)
	defer s.busy.Store(false)
	_, err := s.invoke(ctx, fn, func(l *lua.State) { pushKeyEvent(l, ev) })
	return err
}

// Aborted runs on the host. When the worker is still parked inside a VM call
// (e.g. host.wait) the VM is not ours to use, so the callback is skipped.
func (s *script) Aborted(ctx context.Context, rt ports.Runtime) {
	if s.busy.Load() {
		rt.Logger().Debug("Skipping aborted callback, script is mid-call")
		return
	}
	if _, err := s.invoke(ctx, "aborted", nil); err != nil && !errors.Is(err, domain.ErrAborted) {
		rt.Logger().Error("Aborted callback failed", "error", err)
	}
}

// Close drops the VM. It runs once the worker has returned.
func (s *script) Close() error {
	s.l = nil
	return nil
}

func pushKeyEvent(l *lua.State, ev domain.KeyEvent) {
	l.NewTable()
	l.PushString(ev.Key.String())
	l.SetField(-2, "key")
	l.PushInteger(int(ev.Key))
	l.SetField(-2, "code")
	l.PushBoolean(ev.Down)
	l.SetField(-2, "down")
	l.PushBoolean(ev.Ctrl)
	l.SetField(-2, "ctrl")
	l.PushBoolean(ev.Shift)
	l.SetField(-2, "shift")
	l.PushBoolean(ev.Alt)
	l.SetField(-2, "alt")
}

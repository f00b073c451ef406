package scripthost_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/scripthost"
	"github.com/aretw0/scripthost/internal/providers/native"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/ports"
	"github.com/aretw0/scripthost/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu  sync.Mutex
	got []string
}

func (r *recorder) natives() *registry.Registry {
	reg := registry.NewRegistry()
	reg.Register("record", func(_ context.Context, args []any) (any, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.got = append(r.got, args[0].(string))
		return nil, nil
	})
	return reg
}

func (r *recorder) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.got
	r.got = nil
	return out
}

type callScript struct{ name string }

func (s callScript) Tick(ctx context.Context, rt ports.Runtime) error {
	_, err := rt.Call(ctx, "record", s.name)
	return err
}

func builtins(t *testing.T, names ...string) *native.Registry {
	t.Helper()
	reg := native.NewRegistry()
	for _, n := range names {
		require.NoError(t, reg.Register("test", native.Type{
			ID: n,
			New: func(context.Context, ports.Runtime) (ports.Script, error) {
				return callScript{name: n}, nil
			},
		}))
	}
	return reg
}

func TestHost_TicksLuaAndBuiltinScripts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "after.lua"), []byte(`
script {
  name = "after",
  requires = { "first" },
  tick = function() host.call("record", "after") end,
}
`), 0o644))

	rec := &recorder{}
	h := scripthost.New(dir,
		scripthost.WithNatives(rec.natives()),
		scripthost.WithBuiltins(builtins(t, "first")))
	ctx := context.Background()
	require.NoError(t, h.Init(ctx))
	defer h.Shutdown(ctx)

	h.Tick(ctx)
	h.Tick(ctx)
	assert.Equal(t, []string{"first", "after", "first", "after"}, rec.take())

	var names []string
	for _, st := range h.Status() {
		names = append(names, st.Name)
		assert.Equal(t, "running", st.State)
	}
	assert.Equal(t, []string{"first", "after"}, names)
}

func TestHost_ReloadKey(t *testing.T) {
	rec := &recorder{}
	reloads := 0
	h := scripthost.New(t.TempDir(),
		scripthost.WithNatives(rec.natives()),
		scripthost.WithBuiltins(builtins(t, "only")),
		scripthost.WithReloadCallback(func() { reloads++ }))
	ctx := context.Background()
	require.NoError(t, h.Init(ctx))
	defer h.Shutdown(ctx)

	events, cancel := watch(h)
	defer cancel()

	first := h.Domain()
	h.KeyboardMessage(domain.KeyInsert, true, false, false, false)
	h.Tick(ctx)

	assert.Equal(t, 1, reloads)
	require.NotNil(t, h.Domain())
	assert.NotSame(t, first, h.Domain())
	assert.True(t, first.Unloaded())
	assert.Equal(t, []string{"only"}, rec.take())

	assert.Equal(t, "abort only unload", next(t, events))
	assert.Equal(t, "reload", next(t, events))
	assert.Equal(t, "start only", next(t, events))

	// The new domain starts with a clean relay: releasing the key is harmless.
	h.KeyboardMessage(domain.KeyInsert, false, false, false, false)
	h.Tick(ctx)
	assert.Equal(t, 1, reloads)
	assert.Equal(t, []string{"only"}, rec.take())
}

func TestHost_ReloadKeyBeforeInit(t *testing.T) {
	h := scripthost.New(t.TempDir(), scripthost.WithBuiltins(builtins(t, "x")))
	ctx := context.Background()
	defer h.Shutdown(ctx)

	h.KeyboardMessage(domain.KeyA, true, false, false, false)
	h.Tick(ctx)
	assert.Nil(t, h.Domain())

	h.KeyboardMessage(domain.KeyInsert, true, false, false, false)
	h.Tick(ctx)
	require.NotNil(t, h.Domain())
	assert.Len(t, h.Status(), 1)
}

func TestHost_AbortFromAnotherGoroutine(t *testing.T) {
	rec := &recorder{}
	h := scripthost.New(t.TempDir(),
		scripthost.WithNatives(rec.natives()),
		scripthost.WithBuiltins(builtins(t, "a", "b")))
	ctx := context.Background()
	require.NoError(t, h.Init(ctx))
	defer h.Shutdown(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- h.Abort(ctx, "a") }()

	// The request is queued until the host ticks.
	require.Eventually(t, func() bool {
		h.Tick(ctx)
		select {
		case err := <-errCh:
			assert.NoError(t, err)
			return true
		default:
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)

	rec.take()
	h.Tick(ctx)
	assert.Equal(t, []string{"b"}, rec.take())
	assert.ErrorIs(t, h.Abort(h.Domain().HostContext(ctx), "a"), domain.ErrNotRunning)
}

func TestHost_Shutdown(t *testing.T) {
	h := scripthost.New(filepath.Join(t.TempDir(), "missing"), scripthost.WithBuiltins(builtins(t, "x")))
	ctx := context.Background()
	require.NoError(t, h.Init(ctx), "a missing scripts directory still loads builtins")
	d := h.Domain()

	require.NoError(t, h.Shutdown(ctx))
	assert.Nil(t, h.Domain())
	assert.True(t, d.Unloaded())
	assert.Equal(t, "aborted", d.Status()[0].State)
	assert.ErrorIs(t, h.Abort(ctx, "x"), domain.ErrDomainUnloaded)
	assert.NoError(t, h.Shutdown(ctx))
}

func watch(h *scripthost.Host) (<-chan string, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	return h.Watch(ctx), cancel
}

func next(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return ""
	}
}

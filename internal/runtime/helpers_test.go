package runtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/scripthost/internal/loader"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/ports"
	"github.com/stretchr/testify/require"
)

// fnScript adapts closures to the script interfaces.
type fnScript struct {
	tick    func(ctx context.Context, rt ports.Runtime) error
	keyDown func(ctx context.Context, rt ports.Runtime, ev domain.KeyEvent) error
	keyUp   func(ctx context.Context, rt ports.Runtime, ev domain.KeyEvent) error
	aborted func(ctx context.Context, rt ports.Runtime)
	closed  chan struct{}
}

func (s *fnScript) Tick(ctx context.Context, rt ports.Runtime) error {
	if s.tick == nil {
		return nil
	}
	return s.tick(ctx, rt)
}

func (s *fnScript) KeyDown(ctx context.Context, rt ports.Runtime, ev domain.KeyEvent) error {
	if s.keyDown == nil {
		return nil
	}
	return s.keyDown(ctx, rt, ev)
}

func (s *fnScript) KeyUp(ctx context.Context, rt ports.Runtime, ev domain.KeyEvent) error {
	if s.keyUp == nil {
		return nil
	}
	return s.keyUp(ctx, rt, ev)
}

func (s *fnScript) Aborted(ctx context.Context, rt ports.Runtime) {
	if s.aborted != nil {
		s.aborted(ctx, rt)
	}
}

func (s *fnScript) Close() error {
	if s.closed != nil {
		close(s.closed)
	}
	return nil
}

func scriptType(id string, s *fnScript, requires ...string) ports.ScriptType {
	return ports.ScriptType{
		Descriptor: domain.NewDescriptor(id, "test", requires...),
		New: func(context.Context, ports.Runtime) (ports.Script, error) {
			return s, nil
		},
	}
}

func catalogOf(t *testing.T, types ...ports.ScriptType) *loader.Catalog {
	t.Helper()
	c := loader.NewCatalog()
	require.NoError(t, c.Add(&ports.Module{Path: "test", Kind: domain.ModuleBuiltin, Types: types}, ""))
	return c
}

func newTestDomain(t *testing.T, types []ports.ScriptType, opts ...Option) *Domain {
	t.Helper()
	d := NewDomain(catalogOf(t, types...), opts...)
	d.watchdog = 2 * time.Second
	t.Cleanup(func() { d.Unload(context.Background()) })
	return d
}

func runningNames(d *Domain) []string {
	var out []string
	for _, inst := range d.Running() {
		out = append(out, inst.Name())
	}
	return out
}

func instanceNamed(t *testing.T, d *Domain, name string) *Instance {
	t.Helper()
	for _, inst := range d.Instances() {
		if inst.Name() == name {
			return inst
		}
	}
	t.Fatalf("no instance %s", name)
	return nil
}

// recorder collects strings appended from whichever party holds the baton.
type recorder struct {
	mu  sync.Mutex
	log []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, s)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}

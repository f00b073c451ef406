// Package lua is the source-script provider: .lua files compiled on load and
// run on an embedded Lua VM, one VM per script instance.
//
// A file declares scripts by calling the global script function:
//
//	script {
//	  name = "greeter",
//	  requires = { "heartbeat" },
//	  interval = 500, -- milliseconds between ticks
//	  init = function() host.log("hello") end,
//	  tick = function() end,
//	  keydown = function(ev) if ev.key == "F5" then host.pause() end end,
//	  keyup = function(ev) end,
//	  aborted = function() end,
//	}
//
// Scripts reach the scheduler through the global host table (see bindings.go).
package lua

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Shopify/go-lua"
	"github.com/aretw0/scripthost/internal/logging"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/ports"
)

// Extension is the file extension handled by the provider.
const Extension = ".lua"

// DefaultLoadTimeout bounds the top-level chunk of a module and the init
// callback of each instance.
const DefaultLoadTimeout = 5 * time.Second

// ErrLoadTimeout is returned when module code runs past the load timeout.
var ErrLoadTimeout = errors.New("lua module load timed out")

// Provider loads Lua script modules.
type Provider struct {
	logger      *slog.Logger
	loadTimeout time.Duration
}

// Option defines a functional option for configuring the Provider.
type Option func(*Provider)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithLoadTimeout overrides DefaultLoadTimeout.
func WithLoadTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.loadTimeout = d
	}
}

// New creates a Lua provider.
func New(opts ...Option) *Provider {
	p := &Provider{logger: logging.NewNop(), loadTimeout: DefaultLoadTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string            { return "lua" }
func (p *Provider) Kind() domain.ModuleKind { return domain.ModuleSource }

func (p *Provider) Match(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Extension)
}

// Load compiles the file and runs it once to collect its declarations.
func (p *Provider) Load(ctx context.Context, path string) (*ports.Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	defs, err := discover(ctx, path, string(src), p.loadTimeout)
	if err != nil {
		return nil, err
	}

	mod := &ports.Module{Path: path, Kind: domain.ModuleSource}
	for _, def := range defs {
		name := def.name
		mod.Types = append(mod.Types, ports.ScriptType{
			Descriptor: domain.NewDescriptor(name, path, def.requires...),
			New: func(ctx context.Context, rt ports.Runtime) (ports.Script, error) {
				return newScript(ctx, rt, path, string(src), name, p.loadTimeout)
			},
		})
	}
	return mod, nil
}

type definition struct {
	name     string
	requires []string
}

// discover executes the chunk in a throwaway VM. The host table is present
// but every call fails: scripts may only use it from their callbacks.
func discover(ctx context.Context, path, src string, timeout time.Duration) ([]definition, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	l := lua.NewState()
	lua.OpenLibraries(l)
	interrupt(l, func() context.Context { return ctx })

	var defs []definition
	seen := map[string]bool{}
	l.Register("script", func(l *lua.State) int {
		lua.CheckType(l, 1, lua.TypeTable)
		name := fieldString(l, 1, "name")
		if name == "" {
			lua.Errorf(l, "script declaration without a name")
		}
		if seen[name] {
			lua.Errorf(l, "script %s declared twice", name)
		}
		seen[name] = true
		defs = append(defs, definition{name: name, requires: fieldStrings(l, 1, "requires")})
		return 0
	})
	openHost(l, nil)

	if err := lua.LoadBuffer(l, src, path, "t"); err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	if err := l.ProtectedCall(0, 0, 0); err != nil {
		return nil, fmt.Errorf("run %s: %w", path, loadError(ctx, err))
	}
	return defs, nil
}

// interrupt raises a Lua error every hookInstructions instructions once the
// context returned by current is done.
func interrupt(l *lua.State, current func() context.Context) {
	lua.SetDebugHook(l, func(l *lua.State, _ lua.Debug) {
		if ctx := current(); ctx != nil && ctx.Err() != nil {
			lua.Errorf(l, "%s", ctx.Err().Error())
		}
	}, lua.MaskCount, hookInstructions)
}

// loadError reports err as ErrLoadTimeout when ctx ran out.
func loadError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrLoadTimeout
	}
	return err
}

func fieldString(l *lua.State, index int, name string) string {
	l.Field(index, name)
	defer l.Pop(1)
	s, _ := l.ToString(-1)
	return s
}

func fieldStrings(l *lua.State, index int, name string) []string {
	l.Field(index, name)
	defer l.Pop(1)
	if !l.IsTable(-1) {
		return nil
	}
	var out []string
	for i := 1; ; i++ {
		l.RawGetInt(-1, i)
		s, ok := l.ToString(-1)
		l.Pop(1)
		if !ok {
			return out
		}
		out = append(out, s)
	}
}

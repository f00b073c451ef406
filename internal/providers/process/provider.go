// Package process is the prebuilt-script provider. An .hcl manifest declares
// scripts backed by external executables that talk to the host over JSON
// lines on stdin and stdout:
//
//	script "ticker" {
//	  command  = "python3"
//	  args     = ["${script_dir}/ticker.py"]
//	  requires = ["heartbeat"]
//	  env      = { MODE = "fast" }
//	  interval = 100
//	}
//
// One child process is started per script instance and killed when the
// instance is aborted or unloaded.
package process

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/scripthost/internal/logging"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/ports"
)

// Extension is the manifest file extension.
const Extension = ".hcl"

// DefaultGracePeriod is how long a child may take to exit after its stdin is
// closed before it is killed.
const DefaultGracePeriod = time.Second

// Provider loads process manifests.
type Provider struct {
	logger *slog.Logger
	grace  time.Duration
}

// Option configures the Provider.
type Option func(*Provider)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithGracePeriod overrides DefaultGracePeriod.
func WithGracePeriod(d time.Duration) Option {
	return func(p *Provider) {
		p.grace = d
	}
}

// New creates a process provider.
func New(opts ...Option) *Provider {
	p := &Provider{logger: logging.NewNop(), grace: DefaultGracePeriod}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string            { return "process" }
func (p *Provider) Kind() domain.ModuleKind { return domain.ModulePrebuilt }

func (p *Provider) Match(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Extension)
}

// Load parses the manifest. Executables are not looked up until a script is
// instantiated.
func (p *Provider) Load(_ context.Context, path string) (*ports.Module, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	manifests, err := ParseManifest(path)
	if err != nil {
		return nil, err
	}

	mod := &ports.Module{Path: path, Kind: domain.ModulePrebuilt}
	for _, m := range manifests {
		mod.Types = append(mod.Types, ports.ScriptType{
			Descriptor: domain.NewDescriptor(m.Name, path, m.Requires...),
			New: func(ctx context.Context, rt ports.Runtime) (ports.Script, error) {
				return start(ctx, rt, m, p.grace)
			},
		})
	}
	p.logger.Debug("Manifest loaded", "path", path, "scripts", len(mod.Types))
	return mod, nil
}

// Package loader discovers script modules under a root directory.
//
// Files are matched against the registered providers. Modules that need a
// build step (sources) are loaded before ready-to-run (prebuilt) modules, and
// builtin modules compiled into the binary come last. A module that fails to
// load is logged and skipped; it never prevents the others from loading.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/scripthost/internal/logging"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/ports"
	"github.com/aretw0/scripthost/pkg/settings"
)

// LoadError reports a module that could not be loaded.
type LoadError struct {
	Module   string
	Provider string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load module %s (%s): %v", e.Module, e.Provider, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader builds a Catalog from the filesystem and builtin sources.
type Loader struct {
	providers []ports.Provider
	builtins  []ports.BuiltinSource
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Loader.
type Option func(*Loader)

// WithProvider registers a file provider. Providers are consulted in
// registration order; the first match wins.
func WithProvider(p ports.Provider) Option {
	return func(l *Loader) {
		l.providers = append(l.providers, p)
	}
}

// WithBuiltins registers a source of compiled-in modules.
func WithBuiltins(src ports.BuiltinSource) Option {
	return func(l *Loader) {
		l.builtins = append(l.builtins, src)
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a loader.
func New(opts ...Option) *Loader {
	l := &Loader{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type candidate struct {
	path     string
	provider ports.Provider
}

// Load walks root and returns the catalog of every script type found.
// Only a walk failure other than a missing root is returned as an error.
func (l *Loader) Load(ctx context.Context, root string) (*Catalog, error) {
	logger := l.logger.With("root", root)
	logger.Debug("Loading script modules...")

	files, err := l.discover(root)
	if err != nil {
		return nil, err
	}

	catalog := NewCatalog()
	for _, pass := range []domain.ModuleKind{domain.ModuleSource, domain.ModulePrebuilt} {
		for _, c := range files {
			if c.provider.Kind() != pass {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			mod, err := c.provider.Load(ctx, c.path)
			if err != nil {
				logger.Error("Failed to load module", "error", &LoadError{Module: c.path, Provider: c.provider.Name(), Err: err})
				continue
			}
			l.add(catalog, mod, settings.CompanionPath(c.path))
		}
	}

	for _, src := range l.builtins {
		mods, err := src.Modules(ctx)
		if err != nil {
			logger.Error("Failed to load builtin modules", "error", err)
			continue
		}
		for _, mod := range mods {
			l.add(catalog, mod, filepath.Join(root, mod.Path+".yaml"))
		}
	}

	logger.Info("Script modules loaded", "modules", len(catalog.Modules()), "scripts", catalog.Len())
	return catalog, nil
}

func (l *Loader) add(catalog *Catalog, mod *ports.Module, settingsPath string) {
	if len(mod.Types) == 0 {
		l.logger.Debug("Module declares no scripts", "module", mod.Path)
		if mod.Closer != nil {
			_ = mod.Closer.Close()
		}
		return
	}
	if err := catalog.Add(mod, settingsPath); err != nil {
		l.logger.Error("Failed to register module", "module", mod.Path, "error", err)
		if mod.Closer != nil {
			_ = mod.Closer.Close()
		}
		return
	}
	for _, st := range mod.Types {
		l.logger.Debug("Discovered script", "script", st.Descriptor.ID(), "module", mod.Path, "kind", mod.Kind)
	}
}

// discover walks root in lexical order and pairs each file with its provider.
func (l *Loader) discover(root string) ([]candidate, error) {
	var files []candidate
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return l.walkError(root, path, err)
		}
		if d.IsDir() {
			return nil
		}
		for _, p := range l.providers {
			if p.Match(path) {
				files = append(files, candidate{path: path, provider: p})
				break
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Scripts directory not found", "root", root)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return files, nil
}

// walkError decides whether a failure while scanning aborts the load. Only
// the root may be missing as a whole; entries removed while the walk runs,
// as editors do when swapping temp files, are skipped.
func (l *Loader) walkError(root, path string, err error) error {
	if path != root && errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn("Path disappeared during scan", "path", path)
		return nil
	}
	return err
}

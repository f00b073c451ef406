package ports

import (
	"context"
	"io"

	"github.com/aretw0/scripthost/pkg/domain"
)

// Module is the unit a Provider loads: one file (or builtin package) declaring
// zero or more script types.
type Module struct {
	Path  string
	Kind  domain.ModuleKind
	Types []ScriptType
	// Closer releases resources shared by every type of the module. Optional.
	Closer io.Closer
}

// Provider discovers modules under the scripts root.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string
	// Kind tells the loader in which pass matching files are processed.
	Kind() domain.ModuleKind
	// Match reports whether the provider handles the file at path.
	Match(path string) bool
	// Load parses (and builds, when needed) the module at path.
	Load(ctx context.Context, path string) (*Module, error)
}

// BuiltinSource supplies modules compiled into the host binary.
type BuiltinSource interface {
	Modules(ctx context.Context) ([]*Module, error)
}

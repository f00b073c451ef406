package domain

import "slices"

// ModuleKind tells the loader in which discovery pass a module is processed.
type ModuleKind int

const (
	// ModuleSource is a module that needs a build/compile step before its
	// scripts can be instantiated (e.g. Lua source).
	ModuleSource ModuleKind = iota
	// ModulePrebuilt is a module whose scripts are ready to run (e.g. external
	// executables described by a manifest).
	ModulePrebuilt
	// ModuleBuiltin is a module compiled into the host binary.
	ModuleBuiltin
)

func (k ModuleKind) String() string {
	switch k {
	case ModuleSource:
		return "source"
	case ModulePrebuilt:
		return "prebuilt"
	case ModuleBuiltin:
		return "builtin"
	default:
		return "unknown"
	}
}

// Descriptor identifies a script type discovered by the loader.
// It is immutable after load: Requires returns a copy.
type Descriptor struct {
	id       string
	module   string
	requires []string
}

// NewDescriptor creates a descriptor for the fully qualified script id declared in module.
func NewDescriptor(id, module string, requires ...string) Descriptor {
	return Descriptor{
		id:       id,
		module:   module,
		requires: slices.Clone(requires),
	}
}

// ID returns the fully qualified script name.
func (d Descriptor) ID() string { return d.id }

// Module returns the path (or builtin name) of the module declaring the script.
func (d Descriptor) Module() string { return d.module }

// Requires returns the declared dependency identities in declaration order.
func (d Descriptor) Requires() []string { return slices.Clone(d.requires) }

func (d Descriptor) String() string { return d.id }

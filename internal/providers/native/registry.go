// Package native holds scripts compiled into the host binary. Modules
// register themselves from an init function, the way database/sql drivers
// do, and the loader picks them up after the file based providers.
package native

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/ports"
)

// Type is a compiled-in script type.
type Type struct {
	ID       string
	Requires []string
	New      ports.Factory
}

// Registry groups compiled-in script types by module name.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	modules map[string][]Type
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string][]Type)}
}

// Default is the registry filled by Register.
var Default = NewRegistry()

// Register adds types to the Default registry. It panics on a duplicate, like
// sql.Register, since it runs from init.
func Register(module string, types ...Type) {
	if err := Default.Register(module, types...); err != nil {
		panic(err)
	}
}

// Register adds types to module. A type ID may appear only once per module.
func (r *Registry) Register(module string, types ...Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, known := r.modules[module]
	for _, t := range types {
		if t.ID == "" {
			return fmt.Errorf("native module %s: type without id", module)
		}
		for _, e := range existing {
			if e.ID == t.ID {
				return fmt.Errorf("native module %s: script %s registered twice", module, t.ID)
			}
		}
		existing = append(existing, t)
	}
	if !known {
		r.order = append(r.order, module)
	}
	r.modules[module] = existing
	return nil
}

// Modules implements ports.BuiltinSource, in registration order.
func (r *Registry) Modules(_ context.Context) ([]*ports.Module, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mods := make([]*ports.Module, 0, len(r.order))
	for _, name := range r.order {
		mod := &ports.Module{Path: name, Kind: domain.ModuleBuiltin}
		for _, t := range r.modules[name] {
			mod.Types = append(mod.Types, ports.ScriptType{
				Descriptor: domain.NewDescriptor(t.ID, name, t.Requires...),
				New:        t.New,
			})
		}
		mods = append(mods, mod)
	}
	return mods, nil
}

var _ ports.BuiltinSource = (*Registry)(nil)

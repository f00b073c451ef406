// Package registry holds the native function table: the narrow surface through
// which scripts reach host state. The embedding host registers functions by
// name; scripts invoke them through Runtime.Call, always on the host goroutine.
package registry

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/scripthost/pkg/domain"
)

// NativeFunction defines the signature for a native function implementation.
// It receives the host context and positional arguments, and returns a result or error.
type NativeFunction func(ctx context.Context, args []any) (any, error)

// Registry manages the available native functions.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]NativeFunction
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]NativeFunction),
	}
}

// Register adds a function to the registry.
// If a function with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn NativeFunction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Names returns the registered function names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Execute looks up a function by name and executes it.
// Returns an error wrapping domain.ErrNativeNotFound if the function is not found.
func (r *Registry) Execute(ctx context.Context, name string, args []any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNativeNotFound, name)
	}
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNativeNotFound, name)
	}

	return fn(ctx, args)
}

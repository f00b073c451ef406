package loader

import (
	"errors"
	"fmt"
	"slices"

	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/ports"
)

// Entry is one loadable script type together with where it came from.
type Entry struct {
	Type         ports.ScriptType
	Module       *ports.Module
	SettingsPath string
}

// Catalog indexes the script types discovered by a Loader.
// It is built once and then only read by the scheduler.
type Catalog struct {
	entries  []Entry
	modules  []*ports.Module
	byModule map[string][]domain.Descriptor
	byID     map[string][]string
	byKey    map[string]int
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byModule: make(map[string][]domain.Descriptor),
		byID:     make(map[string][]string),
		byKey:    make(map[string]int),
	}
}

func key(module, id string) string { return module + "\x00" + id }

// Add registers every type of mod. A module declaring the same identity twice
// is rejected as a whole; the same identity in different modules is kept.
func (c *Catalog) Add(mod *ports.Module, settingsPath string) error {
	seen := make(map[string]bool, len(mod.Types))
	for _, st := range mod.Types {
		if seen[st.Descriptor.ID()] {
			return fmt.Errorf("module %s declares script %s twice", mod.Path, st.Descriptor.ID())
		}
		seen[st.Descriptor.ID()] = true
	}
	if _, dup := c.byModule[mod.Path]; dup {
		return fmt.Errorf("module %s already loaded", mod.Path)
	}

	c.modules = append(c.modules, mod)
	c.byModule[mod.Path] = []domain.Descriptor{}
	for _, st := range mod.Types {
		id := st.Descriptor.ID()
		c.byKey[key(mod.Path, id)] = len(c.entries)
		c.entries = append(c.entries, Entry{Type: st, Module: mod, SettingsPath: settingsPath})
		c.byModule[mod.Path] = append(c.byModule[mod.Path], st.Descriptor)
		c.byID[id] = append(c.byID[id], mod.Path)
	}
	return nil
}

// Len returns the number of script types.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Entries returns every type in discovery order.
func (c *Catalog) Entries() []Entry {
	return slices.Clone(c.entries)
}

// Descriptors returns every descriptor in discovery order.
func (c *Catalog) Descriptors() []domain.Descriptor {
	out := make([]domain.Descriptor, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.Type.Descriptor)
	}
	return out
}

// Modules returns the loaded module paths in discovery order.
func (c *Catalog) Modules() []string {
	out := make([]string, 0, len(c.modules))
	for _, m := range c.modules {
		out = append(out, m.Path)
	}
	return out
}

// TypesOf returns the descriptors declared by module.
func (c *Catalog) TypesOf(module string) []domain.Descriptor {
	return slices.Clone(c.byModule[module])
}

// ModulesOf returns every module declaring id, in discovery order.
func (c *Catalog) ModulesOf(id string) []string {
	return slices.Clone(c.byID[id])
}

// Lookup returns the entry a descriptor was created from.
func (c *Catalog) Lookup(d domain.Descriptor) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	i, ok := c.byKey[key(d.Module(), d.ID())]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Close releases module resources. It keeps going on failure and returns
// every error joined.
func (c *Catalog) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, m := range c.modules {
		if m.Closer == nil {
			continue
		}
		if err := m.Closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("module %s: %w", m.Path, err))
		}
	}
	c.entries = nil
	c.modules = nil
	clear(c.byModule)
	clear(c.byID)
	clear(c.byKey)
	return errors.Join(errs...)
}

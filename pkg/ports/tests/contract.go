package tests

import (
	"context"
	"testing"

	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/ports"
)

// ProviderContractTest is a reusable test suite that verifies if a provider complies with ports.Provider.
// path must point to a valid module declaring exactly wantIDs, in declaration order.
func ProviderContractTest(t *testing.T, p ports.Provider, path string, wantIDs []string) {
	t.Helper()

	// 1. Match
	t.Run("Match", func(t *testing.T) {
		if !p.Match(path) {
			t.Fatalf("provider %s does not match %s", p.Name(), path)
		}
		if p.Match(path + ".unrelated") {
			t.Errorf("provider %s matched an unrelated extension", p.Name())
		}
	})

	// 2. Load
	t.Run("Load", func(t *testing.T) {
		mod, err := p.Load(context.Background(), path)
		if err != nil {
			t.Fatalf("unexpected error loading %s: %v", path, err)
		}
		if mod.Closer != nil {
			defer mod.Closer.Close()
		}
		if mod.Kind != p.Kind() {
			t.Errorf("module kind %s, provider kind %s", mod.Kind, p.Kind())
		}
		if len(mod.Types) != len(wantIDs) {
			t.Fatalf("expected %d types, got %d", len(wantIDs), len(mod.Types))
		}
		for i, st := range mod.Types {
			if st.Descriptor.ID() != wantIDs[i] {
				t.Errorf("type %d: got %s, want %s", i, st.Descriptor.ID(), wantIDs[i])
			}
			if st.Descriptor.Module() != mod.Path {
				t.Errorf("type %s: module %s, want %s", st.Descriptor.ID(), st.Descriptor.Module(), mod.Path)
			}
			if st.New == nil {
				t.Errorf("type %s has no factory", st.Descriptor.ID())
			}
		}
	})

	// 3. Load (NotFound)
	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := p.Load(context.Background(), path+".missing")
		if err == nil {
			t.Error("expected error for missing module, got nil")
		}
	})
}

// KindIs is a tiny helper for table tests asserting provider passes.
func KindIs(t *testing.T, p ports.Provider, want domain.ModuleKind) {
	t.Helper()
	if p.Kind() != want {
		t.Errorf("provider %s: kind %s, want %s", p.Name(), p.Kind(), want)
	}
}

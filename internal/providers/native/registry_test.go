package native_test

import (
	"context"
	"testing"

	"github.com/aretw0/scripthost/internal/providers/native"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopScript struct{}

func (nopScript) Tick(context.Context, ports.Runtime) error { return nil }

func factory(context.Context, ports.Runtime) (ports.Script, error) { return nopScript{}, nil }

func TestRegistry_Modules(t *testing.T) {
	r := native.NewRegistry()
	require.NoError(t, r.Register("zeta", native.Type{ID: "z", New: factory}))
	require.NoError(t, r.Register("alpha", native.Type{ID: "a", Requires: []string{"z"}, New: factory}))
	require.NoError(t, r.Register("zeta", native.Type{ID: "y"}))

	mods, err := r.Modules(context.Background())
	require.NoError(t, err)
	require.Len(t, mods, 2)

	assert.Equal(t, "zeta", mods[0].Path)
	assert.Equal(t, domain.ModuleBuiltin, mods[0].Kind)
	require.Len(t, mods[0].Types, 2)
	assert.Equal(t, "z", mods[0].Types[0].Descriptor.ID())
	assert.Equal(t, "zeta", mods[0].Types[0].Descriptor.Module())
	assert.Nil(t, mods[0].Types[1].New, "a nil factory is kept so the scheduler reports it")

	assert.Equal(t, []string{"z"}, mods[1].Types[0].Descriptor.Requires())
}

func TestRegistry_Rejects(t *testing.T) {
	r := native.NewRegistry()
	require.NoError(t, r.Register("m", native.Type{ID: "x", New: factory}))
	assert.Error(t, r.Register("m", native.Type{ID: "x", New: factory}))
	assert.Error(t, r.Register("m", native.Type{New: factory}))
}

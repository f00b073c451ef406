package graph_test

import (
	"errors"
	"testing"

	"github.com/aretw0/scripthost/internal/graph"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func desc(id string, deps ...string) domain.Descriptor {
	return domain.NewDescriptor(id, id+".lua", deps...)
}

func ids(ds []domain.Descriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.ID())
	}
	return out
}

func excludedIDs(plan graph.Plan) []string {
	out := make([]string, 0, len(plan.Excluded))
	for _, e := range plan.Excluded {
		out = append(out, e.Descriptor.ID())
	}
	return out
}

func assertDepsFirst(t *testing.T, plan graph.Plan) {
	t.Helper()
	pos := map[string]int{}
	for i, d := range plan.Order {
		pos[d.ID()] = i
	}
	for i, d := range plan.Order {
		for _, dep := range d.Requires() {
			p, ok := pos[dep]
			require.True(t, ok, "%s started without dependency %s", d.ID(), dep)
			assert.Less(t, p, i, "%s must start after %s", d.ID(), dep)
		}
	}
}

func TestResolve_MissingDependency(t *testing.T) {
	// A (no deps), B (depends on A), C (depends on missing D).
	plan := graph.Resolve([]domain.Descriptor{
		desc("A"),
		desc("B", "A"),
		desc("C", "D"),
	})

	assert.Equal(t, []string{"A", "B"}, ids(plan.Order))
	require.Len(t, plan.Excluded, 1)
	assert.Equal(t, "C", plan.Excluded[0].Descriptor.ID())

	var missing *graph.MissingDependencyError
	require.True(t, errors.As(plan.Excluded[0].Err, &missing))
	assert.Equal(t, "C", missing.Script)
	assert.Equal(t, "D", missing.Dependency)
	assert.Contains(t, missing.Error(), "C")
	assert.Contains(t, missing.Error(), "D")
}

func TestResolve_DependencyDeclaredLater(t *testing.T) {
	plan := graph.Resolve([]domain.Descriptor{
		desc("B", "A"),
		desc("C"),
		desc("A"),
	})
	assert.Equal(t, []string{"C", "A", "B"}, ids(plan.Order))
	assertDepsFirst(t, plan)
}

func TestResolve_StableDiscoveryOrder(t *testing.T) {
	plan := graph.Resolve([]domain.Descriptor{
		desc("z"), desc("y"), desc("x"), desc("w"),
	})
	assert.Equal(t, []string{"z", "y", "x", "w"}, ids(plan.Order))
	assert.Empty(t, plan.Excluded)
}

func TestResolve_Diamond(t *testing.T) {
	plan := graph.Resolve([]domain.Descriptor{
		desc("top", "left", "right"),
		desc("left", "base"),
		desc("right", "base"),
		desc("base"),
		desc("loner"),
	})
	assert.Equal(t, []string{"base", "left", "right", "top", "loner"}, ids(plan.Order))
	assertDepsFirst(t, plan)
}

func TestResolve_TransitiveExclusionIsLocal(t *testing.T) {
	plan := graph.Resolve([]domain.Descriptor{
		desc("root"),
		desc("broken", "ghost"),
		desc("child", "broken"),
		desc("grandchild", "child"),
		desc("healthy", "root"),
	})

	assert.Equal(t, []string{"root", "healthy"}, ids(plan.Order))
	assert.Equal(t, []string{"broken", "child", "grandchild"}, excludedIDs(plan))

	var up *graph.UpstreamExcludedError
	require.True(t, errors.As(plan.Excluded[2].Err, &up))
	assert.Equal(t, "grandchild", up.Script)
	assert.Equal(t, "child", up.Dependency)

	var missing *graph.MissingDependencyError
	assert.True(t, errors.As(plan.Excluded[2].Err, &missing), "cause chain reaches the missing dependency")
	assert.Equal(t, "ghost", missing.Dependency)
}

func TestResolve_Cycle(t *testing.T) {
	plan := graph.Resolve([]domain.Descriptor{
		desc("ok"),
		desc("a", "b"),
		desc("b", "c"),
		desc("c", "a"),
		desc("reacher", "a"),
		desc("after", "ok"),
	})

	assert.Equal(t, []string{"ok", "after"}, ids(plan.Order))
	assert.Equal(t, []string{"a", "b", "c", "reacher"}, excludedIDs(plan))

	var cyc *graph.CycleError
	require.True(t, errors.As(plan.Excluded[0].Err, &cyc))
	assert.Equal(t, []string{"a", "b", "c", "a"}, cyc.Path)

	var up *graph.UpstreamExcludedError
	require.True(t, errors.As(plan.Excluded[3].Err, &up))
	assert.Equal(t, "a", up.Dependency)
	assert.True(t, errors.As(up, &cyc))
}

func TestResolve_SelfLoop(t *testing.T) {
	plan := graph.Resolve([]domain.Descriptor{desc("self", "self"), desc("fine")})
	assert.Equal(t, []string{"fine"}, ids(plan.Order))

	var cyc *graph.CycleError
	require.Len(t, plan.Excluded, 1)
	require.True(t, errors.As(plan.Excluded[0].Err, &cyc))
	assert.Equal(t, []string{"self", "self"}, cyc.Path)
}

func TestResolve_DuplicateIdentity(t *testing.T) {
	// The same identity declared by two modules: both are kept, and a
	// dependent waits for every declaration.
	plan := graph.Resolve([]domain.Descriptor{
		desc("user", "shared"),
		domain.NewDescriptor("shared", "first.lua"),
		domain.NewDescriptor("shared", "second.lua"),
	})
	require.Len(t, plan.Order, 3)
	assert.Equal(t, "first.lua", plan.Order[0].Module())
	assert.Equal(t, "second.lua", plan.Order[1].Module())
	assert.Equal(t, "user", plan.Order[2].ID())
}

func TestResolve_Empty(t *testing.T) {
	plan := graph.Resolve(nil)
	assert.Empty(t, plan.Order)
	assert.Empty(t, plan.Excluded)
}

func TestResolve_AcyclicOrderProperty(t *testing.T) {
	// Chain declared in reverse plus cross edges.
	descs := []domain.Descriptor{
		desc("e", "d", "a"),
		desc("d", "c"),
		desc("c", "b", "a"),
		desc("b", "a"),
		desc("a"),
		desc("f", "e", "b"),
	}
	plan := graph.Resolve(descs)
	assert.Len(t, plan.Order, len(descs))
	assert.Empty(t, plan.Excluded)
	assertDepsFirst(t, plan)
}

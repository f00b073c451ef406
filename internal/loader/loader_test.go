package loader_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/scripthost/internal/loader"
	luaprovider "github.com/aretw0/scripthost/internal/providers/lua"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/aretw0/scripthost/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineProvider reads one script id per line; "!" makes the load fail.
type lineProvider struct {
	ext  string
	kind domain.ModuleKind
}

func (p lineProvider) Name() string { return "line" + p.ext }
func (p lineProvider) Kind() domain.ModuleKind { return p.kind }
func (p lineProvider) Match(path string) bool { return filepath.Ext(path) == p.ext }
func (p lineProvider) Load(_ context.Context, path string) (*ports.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mod := &ports.Module{Path: path, Kind: p.kind}
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "!" {
			return nil, errors.New("syntax error")
		}
		mod.Types = append(mod.Types, ports.ScriptType{Descriptor: domain.NewDescriptor(line, path)})
	}
	return mod, nil
}

type builtins []*ports.Module

func (b builtins) Modules(context.Context) ([]*ports.Module, error) { return b, nil }

type closer struct{ closed *int }

func (c closer) Close() error { *c.closed++; return nil }

func write(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newLoader(extra ...loader.Option) *loader.Loader {
	opts := []loader.Option{
		loader.WithProvider(lineProvider{ext: ".src", kind: domain.ModuleSource}),
		loader.WithProvider(lineProvider{ext: ".bin", kind: domain.ModulePrebuilt}),
	}
	return loader.New(append(opts, extra...)...)
}

func TestLoad_SourceBeforePrebuiltBeforeBuiltin(t *testing.T) {
	root := t.TempDir()
	bin := write(t, root, "a/first.bin", "p1\n")
	src := write(t, root, "b/second.src", "s1\ns2\n")
	write(t, root, "notes.txt", "ignored")

	l := newLoader(loader.WithBuiltins(builtins{
		{Path: "heartbeat", Kind: domain.ModuleBuiltin, Types: []ports.ScriptType{{Descriptor: domain.NewDescriptor("hb", "heartbeat")}}},
	}))
	cat, err := l.Load(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{src, bin, "heartbeat"}, cat.Modules())
	var got []string
	for _, d := range cat.Descriptors() {
		got = append(got, d.ID())
	}
	assert.Equal(t, []string{"s1", "s2", "p1", "hb"}, got)
	assert.Equal(t, 4, cat.Len())

	entry, ok := cat.Lookup(domain.NewDescriptor("s2", src))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "b", "second.yaml"), entry.SettingsPath)

	entry, ok = cat.Lookup(domain.NewDescriptor("hb", "heartbeat"))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "heartbeat.yaml"), entry.SettingsPath)
}

func TestLoad_FailingModuleIsSkipped(t *testing.T) {
	root := t.TempDir()
	write(t, root, "bad.src", "x\n!\n")
	good := write(t, root, "good.src", "ok\n")
	empty := write(t, root, "empty.src", "\n")

	cat, err := newLoader().Load(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{good}, cat.Modules())
	assert.Empty(t, cat.TypesOf(empty), "zero types is a no-op")
}

func TestLoad_DuplicatesPreserved(t *testing.T) {
	root := t.TempDir()
	one := write(t, root, "one.src", "shared\n")
	two := write(t, root, "two.src", "shared\nother\n")

	cat, err := newLoader().Load(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, []string{one, two}, cat.ModulesOf("shared"))
	assert.Equal(t, []string{"shared", "other"}, []string{cat.TypesOf(two)[0].ID(), cat.TypesOf(two)[1].ID()})
}

func TestLoad_DuplicateWithinModuleRejected(t *testing.T) {
	root := t.TempDir()
	write(t, root, "dup.src", "a\na\n")
	cat, err := newLoader().Load(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 0, cat.Len())
}

func TestLoad_MissingRootStillLoadsBuiltins(t *testing.T) {
	l := newLoader(loader.WithBuiltins(builtins{
		{Path: "echo", Kind: domain.ModuleBuiltin, Types: []ports.ScriptType{{Descriptor: domain.NewDescriptor("echo", "echo")}}},
	}))
	cat, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())
}

func TestCatalog_Close(t *testing.T) {
	closed := 0
	cat := loader.NewCatalog()
	require.NoError(t, cat.Add(&ports.Module{
		Path:   "m",
		Types:  []ports.ScriptType{{Descriptor: domain.NewDescriptor("a", "m")}},
		Closer: closer{&closed},
	}, ""))
	assert.Error(t, cat.Add(&ports.Module{Path: "m"}, ""), "same module twice")

	require.NoError(t, cat.Close())
	assert.Equal(t, 1, closed)
	assert.Equal(t, 0, cat.Len())
	_, ok := cat.Lookup(domain.NewDescriptor("a", "m"))
	assert.False(t, ok)
}

func TestLoadError(t *testing.T) {
	cause := errors.New("boom")
	err := &loader.LoadError{Module: "x.lua", Provider: "lua", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "x.lua")
}

func TestLoad_LoopingModuleDoesNotBlockOthers(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_bad.lua"), []byte(`while true do end`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_good.lua"), []byte(`script { name = "good" }`), 0o644))

	l := loader.New(loader.WithProvider(luaprovider.New(luaprovider.WithLoadTimeout(100 * time.Millisecond))))

	type result struct {
		catalog *loader.Catalog
		err     error
	}
	done := make(chan result, 1)
	go func() {
		c, err := l.Load(context.Background(), dir)
		done <- result{c, err}
	}()

	select {
	case r := <-done:
		require.NoError(t, r.err)
		require.Equal(t, 1, r.catalog.Len())
		assert.Equal(t, "good", r.catalog.Descriptors()[0].ID())
	case <-time.After(5 * time.Second):
		t.Fatal("a looping module blocked the load")
	}
}

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scriptsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chain.lua"), []byte(`
script { name = "consumer", requires = { "producer" } }
script { name = "producer" }
script { name = "orphan", requires = { "ghost" } }
`), 0o644))
	return dir
}

func TestList_Raw(t *testing.T) {
	var out bytes.Buffer
	err := List(context.Background(), &out, ListOptions{Options: Options{ScriptsDir: scriptsDir(t)}, Raw: true})
	require.NoError(t, err)

	md := out.String()
	assert.Contains(t, md, "| 1 | producer | chain.lua | source | - | ready |")
	assert.Contains(t, md, "| 2 | consumer | chain.lua | source | producer | ready |")
	assert.Contains(t, md, "| - | orphan | chain.lua | source | ghost |")
	assert.Contains(t, md, "ghost")
}

func TestList_EmptyDir(t *testing.T) {
	var out bytes.Buffer
	err := List(context.Background(), &out, ListOptions{Options: Options{ScriptsDir: t.TempDir()}, Raw: true})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "No scripts found")
}

func TestGraph(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Graph(context.Background(), &out, Options{ScriptsDir: scriptsDir(t)}))

	g := out.String()
	assert.Contains(t, g, "graph TD")
	assert.Contains(t, g, "producer --> consumer")
	assert.Contains(t, g, "ghost -.-> orphan")
	assert.Contains(t, g, "class orphan excluded;")
}

package process

import (
	"fmt"
	"path/filepath"
	goruntime "runtime"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Manifest describes one out-of-process script.
type Manifest struct {
	Name     string            `hcl:"name,label"`
	Command  string            `hcl:"command"`
	Args     []string          `hcl:"args,optional"`
	Requires []string          `hcl:"requires,optional"`
	Env      map[string]string `hcl:"env,optional"`
	Dir      string            `hcl:"dir,optional"`
	Interval int               `hcl:"interval,optional"` // milliseconds
}

type manifestFile struct {
	Scripts []*Manifest `hcl:"script,block"`
	Remain  hcl.Body    `hcl:",remain"`
}

// evalContext exposes the variables usable inside a manifest.
func evalContext(path string) *hcl.EvalContext {
	dir, _ := filepath.Abs(filepath.Dir(path))
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"script_dir": cty.StringVal(dir),
			"os":         cty.StringVal(goruntime.GOOS),
		},
	}
}

// ParseManifest decodes every script block of an .hcl file.
func ParseManifest(path string) ([]*Manifest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}

	var root manifestFile
	if diags := gohcl.DecodeBody(file.Body, evalContext(path), &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", path, diags)
	}

	seen := make(map[string]bool, len(root.Scripts))
	for _, m := range root.Scripts {
		if m.Command == "" {
			return nil, fmt.Errorf("script %s in %s has an empty command", m.Name, path)
		}
		if seen[m.Name] {
			return nil, fmt.Errorf("script %s declared twice in %s", m.Name, path)
		}
		seen[m.Name] = true
		if m.Dir == "" {
			m.Dir = filepath.Dir(path)
		}
	}
	return root.Scripts, nil
}

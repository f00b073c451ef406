package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/scripthost/internal/presentation/graph"
	"github.com/aretw0/scripthost/pkg/domain"
)

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		descs    []domain.Descriptor
		overlay  *graph.Overlay
		contains []string
		excludes []string
	}{
		{
			name: "Shapes By Module Kind",
			descs: []domain.Descriptor{
				domain.NewDescriptor("heartbeat", "heartbeat"),
				domain.NewDescriptor("ticker", "scripts/ticker.hcl"),
				domain.NewDescriptor("greeter", "scripts/greeter.lua"),
			},
			contains: []string{
				`heartbeat(("heartbeat"))`,
				`ticker[["ticker"]]`,
				`greeter["greeter"]`,
			},
		},
		{
			name: "ID Sanitization",
			descs: []domain.Descriptor{
				domain.NewDescriptor("key-echo.v2", "scripts/a.lua"),
			},
			contains: []string{`key_echo_v2["key-echo.v2"]`},
		},
		{
			name: "Dependency Edges",
			descs: []domain.Descriptor{
				domain.NewDescriptor("base", "scripts/a.lua"),
				domain.NewDescriptor("top", "scripts/a.lua", "base", "ghost"),
			},
			contains: []string{
				"base --> top",
				"ghost -.-> top",
				`ghost{{"ghost (missing)"}}`,
			},
		},
		{
			name: "Overlay",
			descs: []domain.Descriptor{
				domain.NewDescriptor("ok", "scripts/a.lua"),
				domain.NewDescriptor("bad", "scripts/a.lua"),
				domain.NewDescriptor("idle", "scripts/a.lua"),
			},
			overlay: &graph.Overlay{
				Excluded: map[string]bool{"bad": true},
				Running:  map[string]bool{"ok": true},
			},
			contains: []string{"class ok running;", "class bad excluded;"},
			excludes: []string{"class idle"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.descs, tt.overlay)
			if !strings.HasPrefix(got, "graph TD\n") {
				t.Errorf("missing header:\n%s", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected %q in:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("unexpected %q in:\n%s", unwanted, got)
				}
			}
		})
	}
}

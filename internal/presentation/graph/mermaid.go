package graph

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/scripthost/pkg/domain"
)

// Overlay contains run state to visualize on the graph.
type Overlay struct {
	Excluded map[string]bool // script id -> excluded from start
	Running  map[string]bool
}

// GenerateMermaid produces a Mermaid flowchart of scripts and their
// dependencies, edges pointing from a dependency to its dependents.
// Shapes follow the module kind:
// - Builtin: ((Circle))
// - Prebuilt (process manifest): [[Subroutine]]
// - Source: [Rectangle]
// Dependencies nobody declares are drawn as dashed {{Hexagons}}.
func GenerateMermaid(descs []domain.Descriptor, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	declared := make(map[string]bool, len(descs))
	for _, d := range descs {
		declared[d.ID()] = true
	}

	var missing []string
	for _, d := range descs {
		safeID := sanitizeMermaidID(d.ID())

		opener, closer := "[", "]"
		switch moduleKind(d.Module()) {
		case domain.ModuleBuiltin:
			opener, closer = "((", "))"
		case domain.ModulePrebuilt:
			opener, closer = "[[", "]]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, d.ID(), closer))

		for _, dep := range d.Requires() {
			arrow := "-->"
			if !declared[dep] {
				arrow = "-.->"
				if !slices.Contains(missing, dep) {
					missing = append(missing, dep)
				}
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(dep), arrow, safeID))
		}
	}
	for _, dep := range missing {
		sb.WriteString(fmt.Sprintf("    %s{{\"%s (missing)\"}}\n", sanitizeMermaidID(dep), dep))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef running fill:#e8f5e9,stroke:#1b5e20,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef excluded fill:#ffebee,stroke:#b71c1c,stroke-width:2px,color:#000;\n")
		for _, d := range descs {
			safeID := sanitizeMermaidID(d.ID())
			switch {
			case overlay.Excluded[d.ID()]:
				sb.WriteString(fmt.Sprintf("    class %s excluded;\n", safeID))
			case overlay.Running[d.ID()]:
				sb.WriteString(fmt.Sprintf("    class %s running;\n", safeID))
			}
		}
	}

	return sb.String()
}

// moduleKind guesses the kind from the module path: files are source or
// manifests, anything without an extension is compiled in.
func moduleKind(module string) domain.ModuleKind {
	switch strings.ToLower(filepath.Ext(module)) {
	case "":
		return domain.ModuleBuiltin
	case ".hcl":
		return domain.ModulePrebuilt
	default:
		return domain.ModuleSource
	}
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

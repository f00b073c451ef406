package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown for the terminal.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)

	return func(markdown string) (string, error) {
		if err != nil {
			return markdown, err
		}
		return r.Render(markdown)
	}
}

// Row is one line of the script table.
type Row struct {
	Order    int // start position, 0 when excluded
	Script   string
	Module   string
	Kind     string
	Requires []string
	Status   string // "ready" or the exclusion reason
}

// ScriptTable formats rows as a markdown table.
func ScriptTable(title string, rows []Row) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if len(rows) == 0 {
		sb.WriteString("_No scripts found._\n")
		return sb.String()
	}
	sb.WriteString("| # | Script | Module | Kind | Requires | Status |\n")
	sb.WriteString("|---|--------|--------|------|----------|--------|\n")
	for _, r := range rows {
		order := "-"
		if r.Order > 0 {
			order = fmt.Sprint(r.Order)
		}
		requires := strings.Join(r.Requires, ", ")
		if requires == "" {
			requires = "-"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s |\n",
			order, escape(r.Script), escape(r.Module), r.Kind, escape(requires), escape(r.Status))
	}
	return sb.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

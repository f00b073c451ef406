package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the startup banner.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`                 _       _   _               _   `, "#818cf8"},
		{`  ___  ___ _ __ (_)_ __ | |_| |__   ___  ___| |_ `, "#a78bfa"},
		{` / __|/ __| '__|| | '_ \| __| '_ \ / _ \/ __| __|`, "#c084fc"},
		{` \__ \ (__| |   | | |_) | |_| | | | (_) \__ \ |_ `, "#e879f9"},
		{` |___/\___|_|   |_| .__/ \__|_| |_|\___/|___/\__|`, "#f472b6"},
		{`                  |_|                            `, "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  "+version).Faint())
	fmt.Fprintln(w)
}

// State colors a script state for terminal output.
func State(state string) termenv.Style {
	p := termenv.ColorProfile()
	s := termenv.String(state)
	switch state {
	case "running":
		return s.Foreground(p.Color("#22c55e"))
	case "aborted":
		return s.Foreground(p.Color("#ef4444"))
	case "excluded":
		return s.Foreground(p.Color("#f59e0b"))
	default:
		return s.Faint()
	}
}

package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the bake banner to w, colored when the terminal
// supports it.
func PrintBanner(w io.Writer, version string) {
	p := termenv.NewOutput(w).ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  _           _", "#fbbf24"},
		{" | |__   __ _| | _____", "#f59e0b"},
		{" | '_ \\ / _` | |/ / _ \\", "#f97316"},
		{" | |_) | (_| |   <  __/", "#ea580c"},
		{" |_.__/ \\__,_|_|\\_\\___|", "#c2410c"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if version != "" {
		fmt.Fprintln(w, termenv.String(" v"+version).Faint())
	}
	fmt.Fprintln(w)
}

package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/bake/internal/dto"
	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/registry"
	"github.com/aretw0/bake/pkg/runner"
)

// WriteHelp lists every task grouped by source. Tasks whose short name is
// ambiguous are listed by fullname.
func WriteHelp(w io.Writer, r *registry.Registry) {
	if r.Len() == 0 {
		fmt.Fprintln(w, "No tasks are defined.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Tasks:")
	for _, source := range r.Sources() {
		title := source
		if title == "" {
			title = "(builtin)"
		}
		fmt.Fprintf(tw, "\n  %s:\n", title)
		for _, def := range r.BySource(source) {
			name := def.Name
			if r.IsAmbiguous(name) {
				name = def.Fullname
			}
			fmt.Fprintf(tw, "    %s\t%s\n", name, firstLine(def.Description))
		}
	}
	tw.Flush()
}

// WriteTaskHelp describes one task: its requirements, then the visible
// parameters split into required and optional, then its notes passed
// through render when set.
func WriteTaskHelp(w io.Writer, def *domain.Definition, render runner.ContentRenderer) {
	info := dto.NewTaskInfo(def)
	fmt.Fprintf(w, "%s", info.Fullname)
	if info.Description != "" {
		fmt.Fprintf(w, ": %s", info.Description)
	}
	fmt.Fprintln(w)

	if len(info.Requires) > 0 {
		fmt.Fprintf(w, "\nRequires: %s\n", strings.Join(info.Requires, ", "))
	}
	if info.Timeout != "" {
		fmt.Fprintf(w, "Timeout: %s\n", info.Timeout)
	}
	if !info.SupportsDryRun {
		fmt.Fprintln(w, "Skipped in dry-run mode.")
	}

	var required, optional []dto.ParameterInfo
	for _, p := range info.Parameters {
		if p.Required {
			required = append(required, p)
		} else {
			optional = append(optional, p)
		}
	}
	writeParams(w, "Required parameters", required)
	writeParams(w, "Optional parameters", optional)

	if info.Notes != "" {
		notes := info.Notes
		if render != nil {
			if out, err := render(notes); err == nil {
				notes = out
			}
		}
		fmt.Fprintf(w, "\n%s\n", strings.TrimRight(notes, "\n"))
	}
}

func writeParams(w io.Writer, title string, params []dto.ParameterInfo) {
	if len(params) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range params {
		kind := p.Type
		if p.Default != nil {
			kind = fmt.Sprintf("%s, default %v", kind, p.Default)
		}
		fmt.Fprintf(tw, "  %s\t(%s)\t%s\n", p.Key, kind, p.Description)
	}
	tw.Flush()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

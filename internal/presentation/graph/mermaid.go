package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/bake/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of a schedule. Edges point
// from a requirement to the task waiting for it.
//
// Shapes:
// - Requested task: (["Stadium"])
// - Pulled in as a requirement: [Rectangle]
//
// With withStatus set, every node is styled by its instance status, which
// makes the output useful for rendering a finished run.
func GenerateMermaid(seq []*domain.Instance, withStatus bool) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	ids := make(map[*domain.Instance]string, len(seq))
	for i, inst := range seq {
		ids[inst] = fmt.Sprintf("t%d", i)
	}

	for _, inst := range seq {
		id := ids[inst]
		opener, closer := "[", "]"
		if inst.Independent {
			opener, closer = "([", "])"
		}

		label := escape(inst.Definition.Fullname)
		if inst.Definition.Timeout > 0 {
			label = fmt.Sprintf("%s <br/> ⏱️ %s", label, inst.Definition.Timeout)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, label, closer)

		for _, dep := range inst.Dependencies {
			depID, ok := ids[dep]
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "    %s --> %s\n", depID, id)
		}
	}

	if withStatus {
		sb.WriteString("\n    %% Status Styles\n")
		// Black text keeps contrast on both light and dark themes.
		sb.WriteString("    classDef completed fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#c62828,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef skipped fill:#fff9c4,stroke:#f9a825,stroke-dasharray:4,color:#000;\n")
		sb.WriteString("    classDef pending fill:#eeeeee,stroke:#9e9e9e,color:#000;\n")
		for _, inst := range seq {
			fmt.Fprintf(&sb, "    class %s %s;\n", ids[inst], strings.ToLower(string(status(inst))))
		}
	}

	return sb.String()
}

// status folds RUNNING into PENDING; a run that is drawn is never mid-task.
func status(inst *domain.Instance) domain.Status {
	if inst.Status == domain.StatusRunning {
		return domain.StatusPending
	}
	return inst.Status
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

package dto

import (
	"fmt"

	"github.com/aretw0/bake/pkg/domain"
)

// TaskInfo is the public view of a task definition served by the HTTP and
// MCP surfaces. Hidden parameters are left out.
type TaskInfo struct {
	Name           string          `json:"name"`
	Fullname       string          `json:"fullname"`
	Source         string          `json:"source,omitempty"`
	Description    string          `json:"description,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Requires       []string        `json:"requires,omitempty"`
	Timeout        string          `json:"timeout,omitempty"`
	SupportsDryRun bool            `json:"supports_dry_run"`
	Interactive    bool            `json:"interactive,omitempty"`
	Parameters     []ParameterInfo `json:"parameters,omitempty"`
}

// ParameterInfo describes one visible parameter.
type ParameterInfo struct {
	Name        string `json:"name"`
	Key         string `json:"key"`
	Type        string `json:"type"`
	Required    bool   `json:"required,omitempty"`
	Default     any    `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

// NewTaskInfo builds the view of def. Required parameters come first, each
// group sorted by name.
func NewTaskInfo(def *domain.Definition) TaskInfo {
	info := TaskInfo{
		Name:           def.Name,
		Fullname:       def.Fullname,
		Source:         def.Source,
		Description:    def.Description,
		Notes:          def.Notes,
		Requires:       def.Requires,
		SupportsDryRun: def.SupportsDryRun,
		Interactive:    def.SupportsInteractive,
	}
	if def.Timeout > 0 {
		info.Timeout = def.Timeout.String()
	}
	required, optional := def.Parameters.Visible()
	for _, p := range append(required, optional...) {
		value := p.Default
		if s, ok := value.(fmt.Stringer); ok {
			value = s.String()
		}
		info.Parameters = append(info.Parameters, ParameterInfo{
			Name:        p.Name,
			Key:         def.QualifiedKey(p.Name),
			Type:        p.TypeName(),
			Required:    p.Required,
			Default:     value,
			Description: p.Description,
		})
	}
	return info
}

// TaskInfos maps NewTaskInfo over defs.
func TaskInfos(defs []*domain.Definition) []TaskInfo {
	out := make([]TaskInfo, len(defs))
	for i, def := range defs {
		out[i] = NewTaskInfo(def)
	}
	return out
}

// ScheduleEntry is one position of an execution plan.
type ScheduleEntry struct {
	Task        string   `json:"task"`
	Fullname    string   `json:"fullname"`
	Independent bool     `json:"independent,omitempty"`
	After       []string `json:"after,omitempty"`
}

// NewSchedule describes seq, listing for every instance the fullnames of
// the instances it waits for.
func NewSchedule(seq []*domain.Instance) []ScheduleEntry {
	out := make([]ScheduleEntry, len(seq))
	for i, inst := range seq {
		entry := ScheduleEntry{
			Task:        inst.Name(),
			Fullname:    inst.Definition.Fullname,
			Independent: inst.Independent,
		}
		for _, dep := range inst.Dependencies {
			entry.After = append(entry.After, dep.Definition.Fullname)
		}
		out[i] = entry
	}
	return out
}

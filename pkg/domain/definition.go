package domain

import (
	"strings"
	"time"

	"github.com/aretw0/bake/pkg/schema"
)

// Body is the main work routine of a task. Every body receives the same
// Context and uses only the fields it needs.
type Body func(*Context) error

// Definition describes a kind of work. Once registered it must not be modified.
type Definition struct {
	// Name is the short name used for lookup and invocation.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Fullname is globally unique, usually "source.name".
	Fullname string `json:"fullname" yaml:"fullname" mapstructure:"fullname"`

	Description string `json:"description,omitempty" yaml:"description" mapstructure:"description"`
	Notes       string `json:"notes,omitempty" yaml:"notes" mapstructure:"notes"`

	// Source names the declaring library or bakefile; used for grouping in help.
	Source string `json:"source,omitempty" yaml:"source" mapstructure:"source"`

	// Base names a registered definition whose parameters this one inherits.
	Base string `json:"base,omitempty" yaml:"base" mapstructure:"base"`

	Parameters schema.Parameters `json:"parameters,omitempty" yaml:"-" mapstructure:"-"`

	// Configuration maps each fully-qualified key ("task.param") to its local
	// parameter name. The registry computes it on registration.
	Configuration map[string]string `json:"-" yaml:"-" mapstructure:"-"`

	// Requires lists task names that must run before this one.
	Requires []string `json:"requires,omitempty" yaml:"requires" mapstructure:"requires"`

	SupportsDryRun      bool `json:"supports_dry_run,omitempty" yaml:"supports_dry_run" mapstructure:"supports_dry_run"`
	SupportsInteractive bool `json:"supports_interactive,omitempty" yaml:"supports_interactive" mapstructure:"supports_interactive"`

	// Timeout bounds the body. Zero means no limit.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout" mapstructure:"timeout"`

	Prepare  Body `json:"-" yaml:"-" mapstructure:"-"`
	Run      Body `json:"-" yaml:"-" mapstructure:"-"`
	Finalize Body `json:"-" yaml:"-" mapstructure:"-"`
}

// QualifiedKey returns the configuration path of a local parameter name.
// Dotted names are already paths and are returned unchanged, so
// "other.x" stays "other.x" rather than becoming a key of this task.
func (d *Definition) QualifiedKey(param string) string {
	if strings.Contains(param, ".") {
		return param
	}
	return d.Name + "." + param
}

// Clone returns a copy of d that shares the body functions but not the
// parameter, requirement or configuration collections.
func (d *Definition) Clone() *Definition {
	out := *d
	out.Parameters = d.Parameters.Clone()
	out.Requires = append([]string(nil), d.Requires...)
	if d.Configuration != nil {
		out.Configuration = make(map[string]string, len(d.Configuration))
		for k, v := range d.Configuration {
			out.Configuration[k] = v
		}
	}
	return &out
}

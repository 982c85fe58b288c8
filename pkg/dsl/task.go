package dsl

import (
	"fmt"
	"time"

	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/schema"
)

// TaskBuilder provides a fluent API for configuring a task definition.
type TaskBuilder struct {
	def  domain.Definition
	errs []error
}

// ParamOption configures a parameter declared with Param.
type ParamOption func(*schema.Parameter)

// Required marks the parameter as mandatory.
func Required() ParamOption {
	return func(p *schema.Parameter) { p.Required = true }
}

// Default sets the value used when no source provides one.
func Default(v any) ParamOption {
	return func(p *schema.Parameter) { p.Default = v }
}

// Hidden keeps the parameter out of help output.
func Hidden() ParamOption {
	return func(p *schema.Parameter) { p.Hidden = true }
}

// Help sets the parameter description.
func Help(text string) ParamOption {
	return func(p *schema.Parameter) { p.Description = text }
}

// Describe sets the one-line description shown in listings.
func (t *TaskBuilder) Describe(text string) *TaskBuilder {
	t.def.Description = text
	return t
}

// Notes sets the long help text, rendered as markdown.
func (t *TaskBuilder) Notes(markdown string) *TaskBuilder {
	t.def.Notes = markdown
	return t
}

// Fullname overrides the "source.name" default.
func (t *TaskBuilder) Fullname(name string) *TaskBuilder {
	t.def.Fullname = name
	return t
}

// Extends inherits parameters and flags from a registered definition.
func (t *TaskBuilder) Extends(base string) *TaskBuilder {
	t.def.Base = base
	return t
}

// Requires appends requirements, run before this task.
func (t *TaskBuilder) Requires(names ...string) *TaskBuilder {
	t.def.Requires = append(t.def.Requires, names...)
	return t
}

// Param declares a parameter. A nil type accepts any value.
func (t *TaskBuilder) Param(name string, typ schema.Type, opts ...ParamOption) *TaskBuilder {
	p := schema.Parameter{Name: name, Type: typ}
	for _, opt := range opts {
		opt(&p)
	}
	if t.def.Parameters == nil {
		t.def.Parameters = make(schema.Parameters)
	}
	t.def.Parameters[name] = p
	return t
}

// Timeout bounds the body.
func (t *TaskBuilder) Timeout(d time.Duration) *TaskBuilder {
	t.def.Timeout = d
	return t
}

// DryRun declares whether the body runs in dry-run mode. Tasks that do not
// support it complete without running. The default is true.
func (t *TaskBuilder) DryRun(supported bool) *TaskBuilder {
	t.def.SupportsDryRun = supported
	return t
}

// Interactive declares that the body may prompt the user.
func (t *TaskBuilder) Interactive() *TaskBuilder {
	t.def.SupportsInteractive = true
	return t
}

// Prepare sets the hook run before the body.
func (t *TaskBuilder) Prepare(fn domain.Body) *TaskBuilder {
	t.def.Prepare = fn
	return t
}

// Run sets the body.
func (t *TaskBuilder) Run(fn domain.Body) *TaskBuilder {
	t.def.Run = fn
	return t
}

// Finalize sets the hook run after a successful body.
func (t *TaskBuilder) Finalize(fn domain.Body) *TaskBuilder {
	t.def.Finalize = fn
	return t
}

// Shell sets a body running cmdlines in order through the work runner,
// stopping at the first one that fails. In dry-run mode the lines are only
// reported.
func (t *TaskBuilder) Shell(cmdlines ...string) *TaskBuilder {
	if len(cmdlines) == 0 {
		t.errs = append(t.errs, fmt.Errorf("task %s: Shell needs at least one command", t.def.Name))
		return t
	}
	lines := append([]string(nil), cmdlines...)
	t.def.Run = func(c *domain.Context) error {
		for _, line := range lines {
			if c.Runtime != nil && c.Runtime.Mode.DryRun {
				c.Report("[!b]would run:[!] " + line)
				continue
			}
			if err := c.Shell(line, 0); err != nil {
				return err
			}
		}
		return nil
	}
	return t
}

// Build returns a copy of the definition with coerced defaults.
func (t *TaskBuilder) Build() (*domain.Definition, error) {
	if len(t.errs) > 0 {
		return nil, t.errs[0]
	}
	if t.def.Name == "" {
		return nil, fmt.Errorf("task name cannot be empty")
	}
	def := t.def.Clone()
	for name, p := range def.Parameters {
		if p.Default == nil {
			continue
		}
		v, err := p.Process(def.QualifiedKey(name), p.Default, false)
		if err != nil {
			return nil, fmt.Errorf("task %s: default: %w", def.Name, err)
		}
		p.Default = v
		def.Parameters[name] = p
	}
	return def, nil
}

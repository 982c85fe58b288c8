package compiler

import (
	"fmt"
	"sort"

	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/schema"
)

// Registrar receives compiled definitions. *registry.Registry satisfies it.
type Registrar interface {
	Register(def *domain.Definition) (*domain.Definition, error)
}

// Compile turns the task specs of bf into definitions, ordered so that every
// definition comes after the base it inherits from when that base is
// declared in the same bakefile. Otherwise tasks are ordered by name.
func Compile(bf *Bakefile) ([]*domain.Definition, error) {
	names := make([]string, 0, len(bf.Tasks))
	for name := range bf.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		out      []*domain.Definition
		done     = make(map[string]bool, len(names))
		visiting = make(map[string]bool)
	)
	var visit func(name string) error
	visit = func(name string) error {
		if done[name] {
			return nil
		}
		if visiting[name] {
			return fmt.Errorf("task %s: base inheritance loops back to itself", name)
		}
		visiting[name] = true
		spec := bf.Tasks[name]
		if _, local := bf.Tasks[spec.Base]; local && spec.Base != name {
			if err := visit(spec.Base); err != nil {
				return err
			}
		}
		def, err := compileTask(bf.Source, name, spec)
		if err != nil {
			return err
		}
		out = append(out, def)
		done[name] = true
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Load compiles bf and registers every definition with r.
func Load(r Registrar, bf *Bakefile) ([]*domain.Definition, error) {
	defs, err := Compile(bf)
	if err != nil {
		return nil, err
	}
	stored := make([]*domain.Definition, 0, len(defs))
	for _, def := range defs {
		s, err := r.Register(def)
		if err != nil {
			return nil, err
		}
		stored = append(stored, s)
	}
	return stored, nil
}

func compileTask(source, name string, spec TaskSpec) (*domain.Definition, error) {
	params, err := compileParams(spec.Params)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", name, err)
	}

	def := &domain.Definition{
		Name:                name,
		Source:              source,
		Description:         spec.Description,
		Notes:               spec.Notes,
		Base:                spec.Base,
		Parameters:          params,
		Requires:            spec.Requires,
		Timeout:             spec.Timeout,
		SupportsDryRun:      true,
		SupportsInteractive: spec.Interactive,
	}
	if spec.DryRun != nil {
		def.SupportsDryRun = *spec.DryRun
	}

	lines := spec.Commands
	if spec.Command != "" {
		lines = []string{spec.Command}
	}
	if len(lines) > 0 {
		body, err := newShellBody(name, lines, spec.Dir, spec.Env)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", name, err)
		}
		def.Run = body.Run
	}
	return def, nil
}

func compileParams(specs map[string]ParamSpec) (schema.Parameters, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	params := make(schema.Parameters, len(specs))
	for name, spec := range specs {
		typ, err := schema.ParseType(spec.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", name, err)
		}
		p := schema.Parameter{
			Name:        name,
			Type:        typ,
			Required:    spec.Required,
			Hidden:      spec.Hidden,
			Description: spec.Description,
		}
		if spec.Default != nil {
			v, err := p.Process(name, spec.Default, false)
			if err != nil {
				return nil, fmt.Errorf("default: %w", err)
			}
			p.Default = v
		}
		params[name] = p
	}
	return params, nil
}

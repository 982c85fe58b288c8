package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/schema"
)

// Registry is the catalog of task definitions of one engine.
// Registered definitions are copies; callers cannot mutate them afterwards.
type Registry struct {
	mu         sync.RWMutex
	byFullname map[string]*domain.Definition
	byName     map[string][]*domain.Definition
	bySource   map[string][]*domain.Definition
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byFullname: make(map[string]*domain.Definition),
		byName:     make(map[string][]*domain.Definition),
		bySource:   make(map[string][]*domain.Definition),
	}
}

// Register adds a definition and returns the stored copy.
//
// Parameters are inherited from the Base definition, if any, with the
// definition's own parameters overriding inherited ones of the same name.
// Empty descriptions and notes are taken from the base, and capability
// flags the base enables stay enabled. Every default must conform to its
// parameter's type.
// A fullname can only be registered once. A short name shared with another
// definition is kept for both and becomes ambiguous.
func (r *Registry) Register(def *domain.Definition) (*domain.Definition, error) {
	if def == nil {
		return nil, fmt.Errorf("cannot register nil definition")
	}
	if def.Name == "" {
		return nil, fmt.Errorf("task definition has no name")
	}
	if strings.ContainsAny(def.Name, " =") {
		return nil, fmt.Errorf("invalid task name %q", def.Name)
	}

	stored := def.Clone()
	if stored.Fullname == "" {
		stored.Fullname = stored.Name
		if stored.Source != "" {
			stored.Fullname = stored.Source + "." + stored.Name
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byFullname[stored.Fullname]; exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateTask, stored.Fullname)
	}

	if stored.Base != "" {
		base, err := r.lookup(stored.Base, "")
		if err != nil {
			return nil, fmt.Errorf("task %s: base: %w", stored.Fullname, err)
		}
		inherit(stored, base)
	}
	if err := checkDefaults(stored.Parameters); err != nil {
		return nil, fmt.Errorf("task %s: invalid default: %w", stored.Fullname, err)
	}

	stored.Configuration = make(map[string]string, len(stored.Parameters))
	for name, p := range stored.Parameters {
		if p.Name == "" {
			p.Name = name
			stored.Parameters[name] = p
		}
		stored.Configuration[stored.QualifiedKey(name)] = name
	}

	r.byFullname[stored.Fullname] = stored
	r.byName[stored.Name] = append(r.byName[stored.Name], stored)
	r.bySource[stored.Source] = append(r.bySource[stored.Source], stored)
	return stored, nil
}

// MustRegister is like Register but panics on error. Registration errors are
// programming errors, so declaring code may treat them as fatal.
func (r *Registry) MustRegister(def *domain.Definition) *domain.Definition {
	stored, err := r.Register(def)
	if err != nil {
		panic(err)
	}
	return stored
}

func inherit(def, base *domain.Definition) {
	params := base.Parameters.Clone()
	for name, p := range def.Parameters {
		params[name] = p
	}
	def.Parameters = params

	if def.Run == nil {
		def.Run = base.Run
	}
	if def.Prepare == nil {
		def.Prepare = base.Prepare
	}
	if def.Finalize == nil {
		def.Finalize = base.Finalize
	}
	if def.Requires == nil {
		def.Requires = append([]string(nil), base.Requires...)
	}
	if def.Timeout == 0 {
		def.Timeout = base.Timeout
	}
	if def.Description == "" {
		def.Description = base.Description
	}
	if def.Notes == "" {
		def.Notes = base.Notes
	}
	def.SupportsDryRun = def.SupportsDryRun || base.SupportsDryRun
	def.SupportsInteractive = def.SupportsInteractive || base.SupportsInteractive
}

func checkDefaults(params schema.Parameters) error {
	defaults := make(map[string]any, len(params))
	for name, p := range params {
		if p.HasDefault() {
			defaults[name] = p.Default
		}
	}
	return schema.Validate(params.Schema(), defaults)
}

// Lookup resolves name to a definition.
//
// An exact fullname match wins. Otherwise, when prefix is set and name does
// not already carry it, the prefixed name is tried first, then name as a
// short name. Returns *domain.AmbiguousTaskError when a short name belongs to
// several definitions and *domain.UnknownTaskError when nothing matches.
func (r *Registry) Lookup(name, prefix string) (*domain.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(name, prefix)
}

func (r *Registry) lookup(name, prefix string) (*domain.Definition, error) {
	if def, ok := r.byFullname[name]; ok {
		return def, nil
	}

	candidates := []string{name}
	if prefix != "" && !strings.HasPrefix(name, prefix) {
		candidates = []string{prefix + name, name}
	}

	for _, candidate := range candidates {
		if def, ok := r.byFullname[candidate]; ok {
			return def, nil
		}
		defs := r.byName[candidate]
		switch len(defs) {
		case 0:
			continue
		case 1:
			return defs[0], nil
		default:
			names := make([]string, len(defs))
			for i, d := range defs {
				names[i] = d.Fullname
			}
			sort.Strings(names)
			return nil, &domain.AmbiguousTaskError{Name: candidate, Candidates: names}
		}
	}

	return nil, &domain.UnknownTaskError{Name: name}
}

// Definitions returns every registered definition sorted by fullname.
func (r *Registry) Definitions() []*domain.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Definition, 0, len(r.byFullname))
	for _, def := range r.byFullname {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fullname < out[j].Fullname })
	return out
}

// Sources returns the declaring sources, sorted.
func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.bySource))
	for source := range r.bySource {
		out = append(out, source)
	}
	sort.Strings(out)
	return out
}

// BySource returns the definitions declared by source, sorted by short name.
func (r *Registry) BySource(source string) []*domain.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]*domain.Definition(nil), r.bySource[source]...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Fullname < out[j].Fullname
	})
	return out
}

// IsAmbiguous reports whether a short name belongs to more than one definition.
func (r *Registry) IsAmbiguous(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName[name]) > 1
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byFullname)
}

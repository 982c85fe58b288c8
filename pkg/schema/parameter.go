package schema

import (
	"sort"
)

// Parameter declares one named, typed input of a task.
type Parameter struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Type        Type   `json:"-" yaml:"-" mapstructure:"-"`
	Required    bool   `json:"required,omitempty" yaml:"required" mapstructure:"required"`
	Default     any    `json:"default,omitempty" yaml:"default" mapstructure:"default"`
	Hidden      bool   `json:"hidden,omitempty" yaml:"hidden" mapstructure:"hidden"`
	Description string `json:"description,omitempty" yaml:"description" mapstructure:"description"`
}

// TypeName returns the parameter's type name, "any" when unset.
func (p Parameter) TypeName() string {
	if p.Type == nil {
		return Any().Name()
	}
	return p.Type.Name()
}

// HasDefault reports whether the parameter carries a non-nil default.
func (p Parameter) HasDefault() bool {
	return p.Default != nil
}

// Process coerces value to the parameter's type. key names the value in the
// returned *ValidationError, usually the fully-qualified "task.param" path.
func (p Parameter) Process(key string, value any, serialized bool) (any, error) {
	typ := p.Type
	if typ == nil {
		typ = Any()
	}
	out, err := typ.Coerce(value, serialized)
	if err != nil {
		return nil, &ValidationError{Key: key, Reason: err.Error(), Value: value}
	}
	return out, nil
}

// Parameters is a set of parameters keyed by local name.
type Parameters map[string]Parameter

// Names returns the parameter names sorted alphabetically.
func (ps Parameters) Names() []string {
	names := make([]string, 0, len(ps))
	for name := range ps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a shallow copy of ps.
func (ps Parameters) Clone() Parameters {
	out := make(Parameters, len(ps))
	for k, v := range ps {
		out[k] = v
	}
	return out
}

// Visible splits the non-hidden parameters into required and optional,
// each sorted by name.
func (ps Parameters) Visible() (required, optional []Parameter) {
	for _, name := range ps.Names() {
		p := ps[name]
		if p.Hidden {
			continue
		}
		if p.Required {
			required = append(required, p)
		} else {
			optional = append(optional, p)
		}
	}
	return required, optional
}

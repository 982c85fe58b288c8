package runtime

import (
	"sort"

	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/environment"
)

// ResolveEnvironment computes the private environment of inst.
//
// The instance's explicit overrides are laid over base first. Then, for each
// declared parameter, the value found at its qualified key is coerced from
// serialized form; failing that the default applies; failing that a required
// parameter yields *domain.MissingParameterError. Resolved values are laid
// over the result. base is never modified.
func ResolveEnvironment(base *environment.Environment, inst *domain.Instance) (*environment.Environment, error) {
	if base == nil {
		base = environment.New()
	}
	def := inst.Definition
	view := base.Overlay(inst.Overrides())

	config := configuration(def)
	if len(config) == 0 {
		return view, nil
	}

	keys := make([]string, 0, len(config))
	for key := range config {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	resolved := make(map[string]any, len(keys))
	for _, key := range keys {
		param := def.Parameters[config[key]]
		if value := view.Get(key); value != nil {
			v, err := param.Process(key, value, true)
			if err != nil {
				return nil, err
			}
			resolved[key] = v
		} else if param.HasDefault() {
			resolved[key] = param.Default
		} else if param.Required {
			return nil, &domain.MissingParameterError{Key: key}
		}
	}

	return view.Overlay(resolved), nil
}

func configuration(def *domain.Definition) map[string]string {
	if def.Configuration != nil {
		return def.Configuration
	}
	config := make(map[string]string, len(def.Parameters))
	for name := range def.Parameters {
		config[def.QualifiedKey(name)] = name
	}
	return config
}

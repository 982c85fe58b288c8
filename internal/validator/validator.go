package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/bake/internal/runtime"
	"github.com/aretw0/bake/pkg/domain"
)

// Catalog is the read side of a registry.
type Catalog interface {
	Definitions() []*domain.Definition
	Lookup(name, prefix string) (*domain.Definition, error)
}

// ValidateRegistry checks that every requirement of every definition
// resolves to exactly one definition, and that requirements do not loop at
// definition level. All problems are reported together.
func ValidateRegistry(c Catalog, prefix string) error {
	defs := c.Definitions()
	instances := make(map[string]*domain.Instance, len(defs))
	for _, def := range defs {
		instances[def.Fullname] = domain.NewInstance(def, nil, false)
	}

	var problems []string
	g := runtime.NewGraph()
	for _, def := range defs {
		var deps []*domain.Instance
		for _, name := range def.Requires {
			req, err := c.Lookup(name, prefix)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s requires %q: %v", def.Fullname, name, err))
				continue
			}
			deps = append(deps, instances[req.Fullname])
		}
		g.Add(instances[def.Fullname], deps...)
	}

	if len(problems) == 0 {
		if _, err := runtime.TopologicalSort(g); err != nil {
			var cycle *domain.CycleError
			if errors.As(err, &cycle) {
				problems = append(problems, err.Error())
			} else {
				return err
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(problems), strings.Join(problems, "\n- "))
	}
	return nil
}

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/environment"
)

// ParseRequests turns "task k=v k=v task2 ..." into ordered requests.
// Assignments bind to the task named before them; values stay in their
// serialized textual form. An assignment before any task is an error.
func ParseRequests(args []string) ([]domain.Request, error) {
	var reqs []domain.Request
	for _, arg := range args {
		if !strings.Contains(arg, "=") {
			reqs = append(reqs, domain.Request{Task: arg})
			continue
		}
		if len(reqs) == 0 {
			return nil, fmt.Errorf("parameter %q given before any task", arg)
		}
		key, value, err := environment.ParseAssignment(arg)
		if err != nil {
			return nil, err
		}
		last := &reqs[len(reqs)-1]
		if last.Params == nil {
			last.Params = make(map[string]any)
		}
		last.Params[key] = value
	}
	return reqs, nil
}

// DropUnknown checks that every request names a task. For an unknown name,
// keep is asked whether to continue without it; a nil keep or a "no" answer
// returns the lookup error. Ambiguous names always fail.
func DropUnknown(reqs []domain.Request, resolve func(string) (*domain.Definition, error), keep func(name string) bool) ([]domain.Request, error) {
	out := make([]domain.Request, 0, len(reqs))
	for _, req := range reqs {
		_, err := resolve(req.Task)
		var unknown *domain.UnknownTaskError
		switch {
		case err == nil:
			out = append(out, req)
		case errors.As(err, &unknown) && keep != nil && keep(req.Task):
			continue
		default:
			return nil, err
		}
	}
	return out, nil
}

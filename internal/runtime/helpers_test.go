package runtime_test

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/registry"
)

// recordingConsole captures messages and answers prompts from a script.
type recordingConsole struct {
	mu       sync.Mutex
	reports  []string
	errors   []string
	details  []string
	prompts  []string
	answers  []bool
	context  []string
	prefixed []string
}

func (c *recordingConsole) Report(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, msg)
	c.prefixed = append(c.prefixed, fmt.Sprintf("[%s] %s", strings.Join(c.context, " "), msg))
}

func (c *recordingConsole) Info(string) {}

func (c *recordingConsole) Error(msg, detail string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, msg)
	c.details = append(c.details, detail)
}

func (c *recordingConsole) Check(prompt string, def bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	if len(c.answers) == 0 {
		return def
	}
	answer := c.answers[0]
	c.answers = c.answers[1:]
	return answer
}

func (c *recordingConsole) Push(name string) { c.context = append(c.context, name) }
func (c *recordingConsole) Pop()             { c.context = c.context[:len(c.context)-1] }

// trace records body executions in order.
type trace struct {
	mu    sync.Mutex
	order []string
}

func (tr *trace) body(name string) domain.Body {
	return func(*domain.Context) error {
		tr.mu.Lock()
		defer tr.mu.Unlock()
		tr.order = append(tr.order, name)
		return nil
	}
}

func names(seq []*domain.Instance) []string {
	out := make([]string, len(seq))
	for i, inst := range seq {
		out[i] = inst.Name()
	}
	return out
}

func indexOf(seq []*domain.Instance, inst *domain.Instance) int {
	for i, s := range seq {
		if s == inst {
			return i
		}
	}
	return -1
}

func newRegistry(defs ...*domain.Definition) *registry.Registry {
	r := registry.NewRegistry()
	for _, def := range defs {
		r.MustRegister(def)
	}
	return r
}

func mustLookup(r *registry.Registry, name string) *domain.Definition {
	def, err := r.Lookup(name, "")
	if err != nil {
		panic(err)
	}
	return def
}

package dsl

import (
	"fmt"

	"github.com/aretw0/bake/pkg/domain"
)

// Registrar receives built definitions. *registry.Registry and *bake.Engine
// satisfy it.
type Registrar interface {
	Register(def *domain.Definition) (*domain.Definition, error)
}

// Builder collects task declarations of one source.
type Builder struct {
	source string
	order  []string
	tasks  map[string]*TaskBuilder
}

// New creates a builder whose tasks belong to source.
func New(source string) *Builder {
	return &Builder{
		source: source,
		tasks:  make(map[string]*TaskBuilder),
	}
}

// Task declares a task. If the task already exists, it returns the existing builder.
func (b *Builder) Task(name string) *TaskBuilder {
	if tb, ok := b.tasks[name]; ok {
		return tb
	}
	tb := &TaskBuilder{
		def: domain.Definition{
			Name:           name,
			Source:         b.source,
			SupportsDryRun: true,
		},
	}
	b.tasks[name] = tb
	b.order = append(b.order, name)
	return tb
}

// Build returns the definitions in declaration order. Default values are
// coerced to their parameter types.
func (b *Builder) Build() ([]*domain.Definition, error) {
	defs := make([]*domain.Definition, 0, len(b.order))
	for _, name := range b.order {
		def, err := b.tasks[name].Build()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Register builds every task and registers it with r, in declaration order.
func (b *Builder) Register(r Registrar) ([]*domain.Definition, error) {
	defs, err := b.Build()
	if err != nil {
		return nil, err
	}
	stored := make([]*domain.Definition, 0, len(defs))
	for _, def := range defs {
		s, err := r.Register(def)
		if err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", def.Name, err)
		}
		stored = append(stored, s)
	}
	return stored, nil
}

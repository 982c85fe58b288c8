/*
Package bake is a dependency-aware task runner.

Tasks are declared once, in Go or in a bakefile, and registered with an
engine. A run resolves the requested task names, expands their requirements
into a dependency graph, orders it topologically and executes the instances
strictly one at a time. Each instance resolves its parameters from explicit
overrides, the ambient configuration and declared defaults, in that order.

# Concept

A Definition describes a kind of work: its name, typed parameters and the
tasks it requires. An Instance is one parameter-bound occurrence of a
definition inside a run. Requirements that nobody requested are synthesized
as independent instances. A failing instance stops a batch run; in
interactive mode the user is asked whether to continue.

# Key Features

  - Deterministic scheduling: ties between independent tasks keep request order.
  - Layered configuration: dotted-path environment with non-destructive overlays.
  - Typed parameters: values given as text on the command line are decoded and coerced.
  - Run history: every run yields a RunReport that can be kept in memory, on disk or in Redis.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/bake"
		"github.com/aretw0/bake/pkg/domain"
	)

	func main() {
		engine := bake.New()
		engine.MustRegister(&domain.Definition{Name: "build", Run: build})
		engine.MustRegister(&domain.Definition{Name: "test", Requires: []string{"build"}, Run: test})

		report, err := engine.Run(context.Background(), []domain.Request{{Task: "test"}})
		if err != nil {
			log.Fatal(err)
		}
		if !report.Success {
			log.Fatal("run failed")
		}
	}
*/
package bake

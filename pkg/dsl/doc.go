/*
Package dsl provides a fluent builder for declaring bake tasks in Go.

It is the code counterpart of a bakefile: tasks, their parameters and
requirements are declared with a type-safe API and registered explicitly with
a registry or an engine.

Example usage:

	b := dsl.New("app")

	b.Task("build").
		Describe("Compile the binaries").
		Shell("go build ./...")

	b.Task("deploy").
		Describe("Ship a release").
		Requires("build").
		Param("target", schema.String(), dsl.Required(), dsl.Help("environment to deploy to")).
		Param("replicas", schema.Int(), dsl.Default(2)).
		Timeout(5 * time.Minute).
		Run(func(c *domain.Context) error {
			c.Report("deploying to " + c.String("target"))
			return nil
		})

	if _, err := b.Register(engine); err != nil {
		log.Fatal(err)
	}
*/
package dsl

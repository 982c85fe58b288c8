// Package schema declares task parameters and coerces raw input into typed values.
//
// A Parameter names a Type plus its required/hidden flags and default.
// Types know how to validate an already-typed value and how to coerce raw
// input, including "serialized" text coming from the command line:
//
//	retries := schema.Parameter{Name: "retries", Type: schema.Int(), Default: 3}
//	v, err := retries.Process("deploy.retries", "5", true) // v == 5
//
// Failures surface as *ValidationError naming the offending key. Coerce and
// Validate collect several failures into an *AggregateError.
//
// Types can also be parsed from their names, as used by bakefiles:
//
//	typ, err := schema.ParseType("[text]")
//
// Custom validators can be registered for domain-specific checks:
//
//	port := schema.Custom("port", func(v any) error {
//	    i, ok := v.(int)
//	    if !ok || i <= 0 || i > 65535 {
//	        return fmt.Errorf("must be a port number")
//	    }
//	    return nil
//	})
package schema

// Package environment implements the layered configuration store used by a run.
//
// Values live in a nested map addressed by dotted paths ("deploy.target").
// A missing segment anywhere along a path means "not present": Get returns
// nil (or the supplied default) and never fails.
//
// Merge mutates the receiver, recursing only where both sides hold maps.
// Overlay never mutates its inputs; it derives a fresh store, which is how a
// task gets its private view of the configuration:
//
//	base := environment.FromMap(map[string]any{"deploy": map[string]any{"target": "staging"}})
//	view := base.Overlay(map[string]any{"deploy.target": "prod"})
//	view.Get("deploy.target") // "prod"
//	base.Get("deploy.target") // "staging"
package environment

package environment

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/v2"
)

// Delimiter separates the segments of a dotted path.
const Delimiter = "."

// Environment is a nested key/value store addressed by dotted paths.
// It is not safe for concurrent mutation; a run drives it from a single goroutine.
type Environment struct {
	k *koanf.Koanf
}

// rawMap adapts a plain map to the koanf.Provider interface.
type rawMap map[string]any

func (r rawMap) Read() (map[string]any, error) {
	return r, nil
}

func (r rawMap) ReadBytes() ([]byte, error) {
	return nil, errors.New("rawMap provider does not support ReadBytes")
}

// New creates an empty environment.
func New() *Environment {
	return &Environment{k: koanf.New(Delimiter)}
}

// FromMap creates an environment holding a deep copy of values.
func FromMap(values map[string]any) *Environment {
	env := New()
	env.MergeMap(values)
	return env
}

// Get returns the value at path, or nil when any segment is missing.
func (e *Environment) Get(path string) any {
	return e.GetDefault(path, nil)
}

// GetDefault returns the value at path, or def when any segment is missing.
func (e *Environment) GetDefault(path string, def any) any {
	if path == "" || !e.k.Exists(path) {
		return def
	}
	return e.k.Get(path)
}

// Has reports whether path resolves to a value.
func (e *Environment) Has(path string) bool {
	if path == "" {
		return false
	}
	return e.k.Exists(path)
}

// Set stores value at path, replacing whatever was there and creating
// intermediate maps as needed. A scalar found on the way is replaced by a map.
func (e *Environment) Set(path string, value any) {
	if path == "" {
		return
	}
	e.k.Delete(path)
	e.put(path, value)
}

// put merges value into path: a map value is merged with an existing map.
func (e *Environment) put(path string, value any) {
	// Set only fails through a custom merge function, which is never configured.
	_ = e.k.Set(path, copyValue(value))
}

// Merge deep-merges other into e and returns e.
// Nested maps are merged key by key; any other value from other replaces what e holds.
func (e *Environment) Merge(other *Environment) *Environment {
	if other == nil {
		return e
	}
	return e.MergeMap(other.k.Raw())
}

// MergeMap deep-merges a nested map into e and returns e. The map is not retained.
func (e *Environment) MergeMap(values map[string]any) *Environment {
	if len(values) == 0 {
		return e
	}
	// Load only fails for a nil provider.
	_ = e.k.Load(rawMap(maps.Copy(normalize(values))), nil)
	return e
}

// Overlay returns a new environment built from e followed by sources, left to
// right, with assignments applied last. Assignment keys are dotted paths.
// Neither e, the sources nor assignments are modified.
func (e *Environment) Overlay(assignments map[string]any, sources ...*Environment) *Environment {
	layers := make([]*Environment, 0, len(sources)+1)
	layers = append(layers, e)
	layers = append(layers, sources...)
	return Overlay(assignments, layers...)
}

// Overlay builds a fresh environment from sources, later sources taking
// precedence, then applies assignments keyed by dotted path.
func Overlay(assignments map[string]any, sources ...*Environment) *Environment {
	out := New()
	for _, src := range sources {
		out.Merge(src)
	}
	for _, path := range sortedKeys(assignments) {
		if path != "" {
			out.put(path, assignments[path])
		}
	}
	return out
}

// Raw returns a deep copy of the underlying nested map.
func (e *Environment) Raw() map[string]any {
	return e.k.Raw()
}

// Keys returns every leaf path, sorted.
func (e *Environment) Keys() []string {
	return e.k.Keys()
}

// Flatten returns the leaf values keyed by dotted path.
func (e *Environment) Flatten() map[string]any {
	return e.k.All()
}

// Clone returns an independent copy of e.
func (e *Environment) Clone() *Environment {
	return &Environment{k: e.k.Copy()}
}

// Sub returns a copy of the subtree at path. Missing paths yield an empty environment.
func (e *Environment) Sub(path string) *Environment {
	return &Environment{k: e.k.Cut(path)}
}

func (e *Environment) String() string {
	return strings.TrimSpace(e.k.Sprint())
}

func copyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return maps.Copy(normalize(v))
	case map[any]any:
		return maps.Copy(normalize(stringKeys(v)))
	}
	return value
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// normalize converts nested map[any]any values, as produced by some decoders,
// into map[string]any so that merging recurses into them.
func normalize(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch vv := v.(type) {
		case map[string]any:
			out[k] = normalize(vv)
		case map[any]any:
			out[k] = normalize(stringKeys(vv))
		default:
			out[k] = v
		}
	}
	return out
}

func stringKeys(m map[any]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[fmt.Sprint(k)] = v
	}
	return out
}

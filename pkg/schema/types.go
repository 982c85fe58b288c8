package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Type defines the contract for parameter validation and coercion.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "text", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
	// Coerce converts value into this type. When serialized is true, a string
	// value is treated as the textual form of the target (e.g. "3" for an int).
	Coerce(value any, serialized bool) (any, error)
}

// --- Built-in Type Implementations ---

// StringType accepts text. Serialized input is kept verbatim.
type StringType struct{}

func (t *StringType) Name() string { return "text" }

func (t *StringType) Validate(value any) error {
	_, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected text, got %T", value)
	}
	return nil
}

func (t *StringType) Coerce(value any, serialized bool) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
		return fmt.Sprint(v), nil
	}
	return nil, fmt.Errorf("expected text, got %T", value)
}

// IntType validates integer values.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return nil
	case float64:
		// Accept floats that are whole numbers (from JSON unmarshaling)
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

func (t *IntType) Coerce(value any, serialized bool) (any, error) {
	value = unserialize(value, serialized)
	switch f := value.(type) {
	case float64:
		if f != float64(int64(f)) {
			return nil, fmt.Errorf("expected int, got float %v (not a whole number)", f)
		}
	case float32:
		if f != float32(int64(f)) {
			return nil, fmt.Errorf("expected int, got float %v (not a whole number)", f)
		}
	}
	var out int
	if err := weakDecode(value, &out); err != nil {
		return nil, fmt.Errorf("expected int: %w", err)
	}
	return out, nil
}

// FloatType validates floating-point values.
type FloatType struct{}

func (t *FloatType) Name() string { return "float" }

func (t *FloatType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64:
		return nil
	default:
		return fmt.Errorf("expected float, got %T", value)
	}
}

func (t *FloatType) Coerce(value any, serialized bool) (any, error) {
	var out float64
	if err := weakDecode(unserialize(value, serialized), &out); err != nil {
		return nil, fmt.Errorf("expected float: %w", err)
	}
	return out, nil
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	_, ok := value.(bool)
	if !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

func (t *BoolType) Coerce(value any, serialized bool) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "on", "1":
			return true, nil
		case "false", "no", "n", "off", "0", "":
			return false, nil
		}
		return nil, fmt.Errorf("expected bool, got %q", v)
	case int:
		return v != 0, nil
	}
	return nil, fmt.Errorf("expected bool, got %T", value)
}

// PathType accepts filesystem paths. A leading "~" expands to the home directory.
type PathType struct{}

func (t *PathType) Name() string { return "path" }

func (t *PathType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected path, got %T", value)
	}
	if s == "" {
		return fmt.Errorf("expected path, got empty string")
	}
	return nil
}

func (t *PathType) Coerce(value any, serialized bool) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("expected path, got %T", value)
	}
	if s == "~" || strings.HasPrefix(s, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			s = filepath.Join(home, strings.TrimPrefix(s, "~"))
		}
	}
	if s == "" {
		return nil, fmt.Errorf("expected path, got empty string")
	}
	return filepath.Clean(s), nil
}

// DurationType accepts Go duration strings ("1m30s") or whole seconds.
type DurationType struct{}

func (t *DurationType) Name() string { return "duration" }

func (t *DurationType) Validate(value any) error {
	if _, ok := value.(time.Duration); !ok {
		return fmt.Errorf("expected duration, got %T", value)
	}
	return nil
}

func (t *DurationType) Coerce(value any, serialized bool) (any, error) {
	switch v := value.(type) {
	case time.Duration:
		return v, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("expected duration: %w", err)
		}
		return d, nil
	}
	return nil, fmt.Errorf("expected duration, got %T", value)
}

// SliceType validates slices of a specific element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}

	// Validate each element
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if err := t.elemType.Validate(elem); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// Coerce accepts a list, a flow sequence ("[a, b]") or comma-separated text.
func (t *SliceType) Coerce(value any, serialized bool) (any, error) {
	if s, ok := value.(string); ok && serialized {
		trimmed := strings.TrimSpace(s)
		if strings.HasPrefix(trimmed, "[") {
			value = unserialize(trimmed, true)
		} else if trimmed == "" {
			value = []any{}
		} else {
			parts := strings.Split(trimmed, ",")
			items := make([]any, len(parts))
			for i, p := range parts {
				items[i] = strings.TrimSpace(p)
			}
			value = items
		}
	}

	var items []any
	if err := weakDecode(value, &items); err != nil {
		return nil, fmt.Errorf("expected list: %w", err)
	}
	out := make([]any, len(items))
	for i, item := range items {
		v, err := t.elemType.Coerce(item, serialized)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// MapType accepts nested mappings. Serialized input is parsed as YAML.
type MapType struct{}

func (t *MapType) Name() string { return "map" }

func (t *MapType) Validate(value any) error {
	if _, ok := value.(map[string]any); !ok {
		return fmt.Errorf("expected map, got %T", value)
	}
	return nil
}

func (t *MapType) Coerce(value any, serialized bool) (any, error) {
	var out map[string]any
	if err := weakDecode(unserialize(value, serialized), &out); err != nil {
		return nil, fmt.Errorf("expected map: %w", err)
	}
	return out, nil
}

// AnyType accepts every value; serialized text is decoded as YAML.
type AnyType struct{}

func (t *AnyType) Name() string { return "any" }

func (t *AnyType) Validate(value any) error { return nil }

func (t *AnyType) Coerce(value any, serialized bool) (any, error) {
	return unserialize(value, serialized), nil
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

func (t *CustomType) Coerce(value any, serialized bool) (any, error) {
	value = unserialize(value, serialized)
	if err := t.validate(value); err != nil {
		return nil, err
	}
	return value, nil
}

// --- Factory Functions ---

// String creates a text type.
func String() Type { return &StringType{} }

// Int creates an integer type.
func Int() Type { return &IntType{} }

// Float creates a float type.
func Float() Type { return &FloatType{} }

// Bool creates a boolean type.
func Bool() Type { return &BoolType{} }

// Path creates a filesystem path type.
func Path() Type { return &PathType{} }

// Duration creates a duration type.
func Duration() Type { return &DurationType{} }

// Map creates a nested map type.
func Map() Type { return &MapType{} }

// Any creates a type that accepts everything.
func Any() Type { return &AnyType{} }

// Slice creates a slice type for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// Custom creates a custom type with a user-defined validation function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a type name to a Type.
// Supports "text", "int", "float", "bool", "path", "duration", "map", "any"
// (plus the aliases "string", "integer", "number", "boolean") and lists such as "[text]".
func ParseType(typeStr string) (Type, error) {
	typeStr = strings.TrimSpace(typeStr)

	// Handle slice types: [string], [int], etc.
	if len(typeStr) > 2 && typeStr[0] == '[' && typeStr[len(typeStr)-1] == ']' {
		elemTypeStr := typeStr[1 : len(typeStr)-1]
		elemType, err := ParseType(elemTypeStr)
		if err != nil {
			return nil, err
		}
		return Slice(elemType), nil
	}

	switch typeStr {
	case "", "any":
		return Any(), nil
	case "text", "string":
		return String(), nil
	case "int", "integer":
		return Int(), nil
	case "float", "number":
		return Float(), nil
	case "bool", "boolean":
		return Bool(), nil
	case "path":
		return Path(), nil
	case "duration":
		return Duration(), nil
	case "map":
		return Map(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// unserialize decodes a serialized string as a YAML scalar or flow collection.
// Text that is not valid YAML is returned unchanged.
func unserialize(value any, serialized bool) any {
	s, ok := value.(string)
	if !ok || !serialized {
		return value
	}
	var out any
	if err := yaml.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return s
	}
	return out
}

func weakDecode(input, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           output,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

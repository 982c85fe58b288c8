package schema

import "sort"

// Schema is a map of field names to their expected types.
// Example: {"target": String(), "retries": Int(), "tags": Slice(String())}
type Schema map[string]Type

// Schema returns the type of every parameter, keyed by local name.
func (ps Parameters) Schema() Schema {
	out := make(Schema, len(ps))
	for name, p := range ps {
		if p.Type == nil {
			out[name] = Any()
			continue
		}
		out[name] = p.Type
	}
	return out
}

// Validate checks that every field present in data conforms to the schema.
// Fields absent from data are not an error; fields absent from the schema are.
// Returns an *AggregateError with all failures found, in key order.
func Validate(schema Schema, data map[string]any) error {
	var errs []error

	for _, key := range sortedKeys(data) {
		value := data[key]
		fieldType, exists := schema[key]
		if !exists {
			errs = append(errs, &ValidationError{
				Key:    key,
				Reason: "not declared",
				Value:  nil,
			})
			continue
		}

		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    key,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}

	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

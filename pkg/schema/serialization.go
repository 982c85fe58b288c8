package schema

import (
	"encoding/json"
	"fmt"
)

type parameterJSON struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required,omitempty"`
	Default     any    `json:"default,omitempty"`
	Hidden      bool   `json:"hidden,omitempty"`
	Description string `json:"description,omitempty"`
}

// MarshalJSON serializes the parameter with its type as a type name.
func (p Parameter) MarshalJSON() ([]byte, error) {
	def := p.Default
	if d, ok := def.(fmt.Stringer); ok {
		def = d.String()
	}
	return json.Marshal(parameterJSON{
		Name:        p.Name,
		Type:        p.TypeName(),
		Required:    p.Required,
		Default:     def,
		Hidden:      p.Hidden,
		Description: p.Description,
	})
}

// UnmarshalJSON restores a parameter, parsing its type name.
func (p *Parameter) UnmarshalJSON(data []byte) error {
	if p == nil {
		return fmt.Errorf("schema: UnmarshalJSON on nil pointer")
	}

	var raw parameterJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	typ, err := ParseType(raw.Type)
	if err != nil {
		return fmt.Errorf("parameter %s: %w", raw.Name, err)
	}

	*p = Parameter{
		Name:        raw.Name,
		Type:        typ,
		Required:    raw.Required,
		Default:     raw.Default,
		Hidden:      raw.Hidden,
		Description: raw.Description,
	}
	return nil
}

// MarshalJSON serializes the schema as a map of field names to type names.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}

	raw := make(map[string]string, len(s))
	for key, typ := range s {
		if typ == nil {
			return nil, fmt.Errorf("field %s: type is nil", key)
		}
		raw[key] = typ.Name()
	}

	return json.Marshal(raw)
}

package environment

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseAssignment splits a "path=value" argument. The value is kept in its
// serialized textual form; parameter coercion decodes it later.
func ParseAssignment(arg string) (string, string, error) {
	path, value, ok := strings.Cut(arg, "=")
	if !ok {
		return "", "", fmt.Errorf("invalid assignment %q: expected path=value", arg)
	}
	path = strings.TrimSpace(path)
	if path == "" || strings.HasPrefix(path, Delimiter) || strings.HasSuffix(path, Delimiter) {
		return "", "", fmt.Errorf("invalid assignment %q: bad path", arg)
	}
	return path, value, nil
}

// ParseAssignments applies every "path=value" argument to a new environment.
func ParseAssignments(args []string) (*Environment, error) {
	env := New()
	for _, arg := range args {
		path, value, err := ParseAssignment(arg)
		if err != nil {
			return nil, err
		}
		env.Set(path, value)
	}
	return env, nil
}

// Decode parses YAML (or JSON) content into a new environment.
// The top level must be a mapping.
func Decode(data []byte) (*Environment, error) {
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return FromMap(values), nil
}

// LoadFile reads a YAML or JSON environment file.
func LoadFile(path string) (*Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read environment file: %w", err)
	}
	env, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return env, nil
}

package process

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// EnvPrefix prefixes task parameters exported to processes.
const EnvPrefix = "BAKE_"

// ExportEnv renders values as KEY=VALUE entries, one per key, sorted.
// Keys are upper-cased with non-alphanumerics replaced by underscores, so
// "deploy.target" becomes BAKE_DEPLOY_TARGET.
//
// Primitives use their plain form; maps and slices are JSON encoded.
func ExportEnv(prefix string, values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, EnvKey(prefix, k)+"="+EnvValue(values[k]))
	}
	return env
}

// EnvKey builds an environment variable name from a dotted path.
func EnvKey(prefix, path string) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, r := range path {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// EnvValue serializes a single value for the environment.
func EnvValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
		return fmt.Sprintf("%v", val)
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", v)
}

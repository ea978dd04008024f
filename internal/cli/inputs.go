package cli

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// parseInputs turns repeated name=value flags into input bindings. Values
// are read as YAML so numbers, booleans and flow lists keep their type; a
// value YAML cannot read stays a string. The last binding of a name wins.
func parseInputs(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --input %q: expected name=value", pair)
		}
		out[name] = inputValue(raw)
	}
	return out, nil
}

func inputValue(raw string) any {
	if strings.TrimSpace(raw) == "" {
		return raw
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
		return raw
	}
	if _, isMap := v.(map[string]any); isMap {
		return raw
	}
	return v
}

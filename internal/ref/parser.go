package ref

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vk/forecastgrid/internal/config"
)

// wrappedRegex matches a whole-value `${{ expr }}` expression.
var wrappedRegex = regexp.MustCompile(`^\$\{\{\s*(.*?)\s*\}\}$`)

// isValidSegmentName checks a single segment of a path, e.g. `ingest` or
// `output_data`. Segments follow the job and output naming rule.
func isValidSegmentName(name string) bool {
	return config.ValidName(name)
}

// Parse creates an InputValue by parsing a dot-separated expression.
func Parse(raw string) (config.InputValue, error) {
	if raw == "" {
		return config.InputValue{}, fmt.Errorf("expression cannot be empty")
	}
	return FromPath(strings.Split(raw, "."))
}

// FromPath interprets an already split expression path. Loaders that work
// on parsed traversals call it directly.
func FromPath(path []string) (config.InputValue, error) {
	for _, segment := range path {
		if segment == "" {
			return config.InputValue{}, fmt.Errorf("expression path contains empty segment")
		}
		if !isValidSegmentName(segment) {
			return config.InputValue{}, fmt.Errorf("invalid path segment %q", segment)
		}
	}

	raw := strings.Join(path, ".")
	if path[0] == "parent" {
		if len(path) < 2 {
			return config.InputValue{}, fmt.Errorf("incomplete expression %q", raw)
		}
		switch path[1] {
		case "jobs":
			path = append([]string{"job"}, path[2:]...)
		case "inputs":
			path = append([]string{"input"}, path[2:]...)
		default:
			return config.InputValue{}, fmt.Errorf("unsupported expression %q: expected parent.jobs or parent.inputs", raw)
		}
	}

	switch path[0] {
	case "job":
		if len(path) != 4 || path[2] != "outputs" {
			return config.InputValue{}, fmt.Errorf("invalid reference %q: expected job.<job>.outputs.<output>", raw)
		}
		return config.Ref(path[1], path[3]), nil
	case "input":
		if len(path) != 2 {
			return config.InputValue{}, fmt.Errorf("invalid external input %q: expected input.<name>", raw)
		}
		return config.External(path[1]), nil
	case "config":
		if len(path) != 2 {
			return config.InputValue{}, fmt.Errorf("invalid config lookup %q: expected config.<key>", raw)
		}
		return config.ConfigKey(path[1]), nil
	default:
		return config.InputValue{}, fmt.Errorf("unknown expression root %q in %q", path[0], raw)
	}
}

// Unwrap extracts the expression from a `${{ expr }}` string. The second
// return value is false when s is not a whole-value expression.
func Unwrap(s string) (string, bool) {
	m := wrappedRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ContainsExpression reports whether s embeds an expression anywhere.
// Together with Unwrap it lets loaders reject partial interpolation.
func ContainsExpression(s string) bool {
	return strings.Contains(s, "${{")
}

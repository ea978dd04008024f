package config

import "regexp"

// namePattern matches a name usable as one artifact path segment and as one
// segment of a reference expression.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidName reports whether name may be used as a job or output name.
func ValidName(name string) bool {
	return name != "-" && namePattern.MatchString(name)
}

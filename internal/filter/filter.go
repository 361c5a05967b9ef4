// Package filter selects job output directories by name.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern represents a compiled filter condition supporting substring and regex matching.
type Pattern struct {
	raw   string
	regex *regexp.Regexp
	lower string
}

// Compile transforms raw pattern strings into Pattern values. A pattern
// wrapped in slashes is a regular expression; anything else is a
// case-insensitive substring.
func Compile(patterns []string) ([]Pattern, error) {
	result := make([]Pattern, 0, len(patterns))
	for _, raw := range patterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.HasPrefix(raw, "/") && strings.HasSuffix(raw, "/") && len(raw) >= 2 {
			expr := raw[1 : len(raw)-1]
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("compile regexp %q: %w", raw, err)
			}
			result = append(result, Pattern{raw: raw, regex: re})
			continue
		}
		result = append(result, Pattern{raw: raw, lower: strings.ToLower(raw)})
	}
	return result, nil
}

// String returns the pattern as it was written.
func (p Pattern) String() string {
	return p.raw
}

// Match reports whether the pattern matches the supplied string.
func (p Pattern) Match(s string) bool {
	if s == "" {
		return false
	}
	if p.regex != nil {
		return p.regex.MatchString(s)
	}
	return strings.Contains(strings.ToLower(s), p.lower)
}

// Set is an include/exclude pair. An empty include list admits everything.
type Set struct {
	Include []Pattern
	Exclude []Pattern
}

// NewSet compiles include and exclude pattern lists.
func NewSet(include, exclude []string) (Set, error) {
	inc, err := Compile(include)
	if err != nil {
		return Set{}, err
	}
	exc, err := Compile(exclude)
	if err != nil {
		return Set{}, err
	}
	return Set{Include: inc, Exclude: exc}, nil
}

// Allow reports whether name passes the include and exclude patterns.
func (s Set) Allow(name string) bool {
	if len(s.Include) > 0 && !matchesAny(name, s.Include) {
		return false
	}
	if len(s.Exclude) > 0 && matchesAny(name, s.Exclude) {
		return false
	}
	return true
}

// Names returns the subset of names that s allows, preserving order.
func (s Set) Names(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	result := make([]string, 0, len(names))
	for _, name := range names {
		if s.Allow(name) {
			result = append(result, name)
		}
	}
	return result
}

func matchesAny(name string, patterns []Pattern) bool {
	for _, pattern := range patterns {
		if pattern.Match(name) {
			return true
		}
	}
	return false
}

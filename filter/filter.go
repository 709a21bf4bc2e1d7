// Package filter decides which methods an interceptor applies to.
package filter

import (
	"fmt"
	"regexp"
)

// MethodFilter reports whether a method, identified by name, is selected.
type MethodFilter interface {
	Accepts(method string) bool
}

// Func is a function adapter for MethodFilter.
type Func func(method string) bool

func (f Func) Accepts(method string) bool {
	return f(method)
}

// PatternFilter accepts method names that fully match a regular expression.
type PatternFilter struct {
	pattern string
	re      *regexp.Regexp
}

// Pattern compiles pattern anchored at both ends, so "get.*" accepts
// "getSeconds" but not "forgetIt".
func Pattern(pattern string) (*PatternFilter, error) {
	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("invalid method pattern %q: %w", pattern, err)
	}

	return &PatternFilter{
		pattern: pattern,
		re:      re,
	}, nil
}

// MustPattern is like Pattern but panics on a malformed pattern.
func MustPattern(pattern string) *PatternFilter {
	f, err := Pattern(pattern)
	if err != nil {
		panic(err)
	}

	return f
}

func (f *PatternFilter) Accepts(method string) bool {
	return f.re.MatchString(method)
}

func (f *PatternFilter) String() string {
	return f.pattern
}

// GetterSetter accepts accessor style names in either case convention.
func GetterSetter() *PatternFilter {
	return MustPattern(`[gs]et.*|[GS]et.*`)
}

// Names accepts exactly the given method names.
func Names(names ...string) MethodFilter {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}

	return Func(func(method string) bool {
		_, ok := set[method]
		return ok
	})
}

// And accepts a method only if every filter does.
func And(filters ...MethodFilter) MethodFilter {
	return Func(func(method string) bool {
		for _, f := range filters {
			if !f.Accepts(method) {
				return false
			}
		}
		return true
	})
}

// Or accepts a method if any filter does.
func Or(filters ...MethodFilter) MethodFilter {
	return Func(func(method string) bool {
		for _, f := range filters {
			if f.Accepts(method) {
				return true
			}
		}
		return false
	})
}

func Not(f MethodFilter) MethodFilter {
	return Func(func(method string) bool {
		return !f.Accepts(method)
	})
}

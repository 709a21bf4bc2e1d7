// Package caster recovers typed values from the untyped result slices that
// flow through an interceptor chain.
package caster

func Cast[T any](val interface{}) T {
	var defaultVal T
	if v, ok := val.(T); ok {
		return v
	}

	return defaultVal
}

// At casts vals[i], yielding the zero value when i is out of range.
func At[T any](vals []interface{}, i int) T {
	if i < 0 || i >= len(vals) {
		var defaultVal T
		return defaultVal
	}

	return Cast[T](vals[i])
}

// Error returns the trailing error of vals. A call short-circuited by an
// interceptor may return fewer values than the method declares, so the error
// is always read from the end.
func Error(vals []interface{}) error {
	if len(vals) == 0 {
		return nil
	}

	return Cast[error](vals[len(vals)-1])
}

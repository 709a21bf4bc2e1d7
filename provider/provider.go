// Package provider defines deferred factories that produce an object on
// demand.
package provider

import (
	"errors"
	"sync"
)

// ErrInvalidURL marks a provider that was configured with a malformed
// endpoint address.
var ErrInvalidURL = errors.New("invalid url")

// Provider produces an object each time Provide is called. Implementations
// decide whether the result is shared or freshly built.
type Provider[T any] interface {
	Provide() (T, error)
}

// Func is a function adapter for Provider.
type Func[T any] func() (T, error)

func (f Func[T]) Provide() (T, error) {
	return f()
}

// Error reports a provider that could not produce its object.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}

	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Constant always provides v.
func Constant[T any](v T) Provider[T] {
	return Func[T](func() (T, error) {
		return v, nil
	})
}

// Singleton caches the first object successfully produced by inner. Failed
// attempts are not cached.
type Singleton[T any] struct {
	inner Provider[T]

	mu    sync.Mutex
	value T
	done  bool
}

func NewSingleton[T any](inner Provider[T]) *Singleton[T] {
	return &Singleton[T]{inner: inner}
}

func (s *Singleton[T]) Provide() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done {
		return s.value, nil
	}

	v, err := s.inner.Provide()
	if err != nil {
		return v, err
	}
	s.value = v
	s.done = true

	return v, nil
}

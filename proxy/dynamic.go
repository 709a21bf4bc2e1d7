package proxy

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/panagiotisptr/proxychain/interceptor"
)

var (
	ErrUnknownMethod  = errors.New("proxy: method not in capability set")
	ErrArguments      = errors.New("proxy: argument mismatch")
	ErrNotImplemented = errors.New("proxy: terminus does not implement capability")
)

// Dynamic dispatches calls by method name. It is the reflection-based
// counterpart of a generated proxy, for callers that only know method names
// at run time (RPC servers, scripting, tests).
type Dynamic struct {
	methods map[string]reflect.Type
	names   []string
	invoke  func(method string, args []interface{}, reached *bool) []interface{}
}

// Outcome is the result of a dispatched call.
type Outcome struct {
	Results []interface{}
	// Reached is false when an interceptor answered without calling the
	// terminus.
	Reached bool
}

// NewDynamic exposes the methods of terminus declared by capabilities, each
// of which must be an interface type the terminus implements. Without
// capabilities every exported method of the terminus is exposed.
func NewDynamic(
	terminus interface{},
	capabilities ...reflect.Type,
) (*Dynamic, error) {
	if terminus == nil {
		return nil, errors.New("proxy: nil terminus")
	}

	v := reflect.ValueOf(terminus)
	t := v.Type()

	selected := map[string]struct{}{}
	if len(capabilities) == 0 {
		for i := 0; i < t.NumMethod(); i++ {
			selected[t.Method(i).Name] = struct{}{}
		}
	}
	for _, c := range capabilities {
		if c == nil || c.Kind() != reflect.Interface {
			return nil, fmt.Errorf("proxy: capability %v is not an interface type", c)
		}
		if !t.Implements(c) {
			return nil, fmt.Errorf("%w: %s does not implement %s", ErrNotImplemented, t, c)
		}
		for i := 0; i < c.NumMethod(); i++ {
			if m := c.Method(i); m.IsExported() {
				selected[m.Name] = struct{}{}
			}
		}
	}

	bound := make(map[string]reflect.Value, len(selected))
	methods := make(map[string]reflect.Type, len(selected))
	names := make([]string, 0, len(selected))
	for name := range selected {
		fn := v.MethodByName(name)
		bound[name] = fn
		methods[name] = fn.Type()
		names = append(names, name)
	}
	sort.Strings(names)

	return &Dynamic{
		methods: methods,
		names:   names,
		invoke: func(method string, args []interface{}, reached *bool) []interface{} {
			return call(bound[method], args, reached)
		},
	}, nil
}

// Methods lists the exposed method names in sorted order.
func (d *Dynamic) Methods() []string {
	return append([]string(nil), d.names...)
}

func (d *Dynamic) Implements(method string) bool {
	_, ok := d.methods[method]
	return ok
}

// Signature returns the function type of method, without a receiver.
func (d *Dynamic) Signature(method string) (reflect.Type, bool) {
	ft, ok := d.methods[method]
	return ft, ok
}

// Invoke calls method through every interceptor layer. The returned error
// only reports dispatch failures; errors produced by the call itself are the
// last element of the result slice.
func (d *Dynamic) Invoke(
	method string,
	args ...interface{},
) ([]interface{}, error) {
	out, err := d.Dispatch(method, args...)

	return out.Results, err
}

// Dispatch is Invoke that also reports whether the call reached the terminus.
func (d *Dynamic) Dispatch(
	method string,
	args ...interface{},
) (Outcome, error) {
	ft, ok := d.methods[method]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	if _, err := convertArgs(ft, args); err != nil {
		return Outcome{}, fmt.Errorf("%s: %w", method, err)
	}

	var out Outcome
	out.Results = d.invoke(method, args, &out.Reached)

	return out, nil
}

// DynamicFactory builds intercepting layers over a *Dynamic.
type DynamicFactory struct{}

func (DynamicFactory) CreateInterceptingProxy(
	target *Dynamic,
	ic interceptor.Interceptor,
) *Dynamic {
	return &Dynamic{
		methods: target.methods,
		names:   target.names,
		invoke: func(method string, args []interface{}, reached *bool) []interface{} {
			return ic(method, func(args []interface{}) []interface{} {
				return target.invoke(method, args, reached)
			})(args)
		},
	}
}

func call(fn reflect.Value, args []interface{}, reached *bool) []interface{} {
	in, err := convertArgs(fn.Type(), args)
	if err != nil {
		return interceptor.Fail(err)
	}
	*reached = true

	out := fn.Call(in)
	rets := make([]interface{}, len(out))
	for i, o := range out {
		rets[i] = o.Interface()
	}

	return rets
}

func convertArgs(ft reflect.Type, args []interface{}) ([]reflect.Value, error) {
	n := ft.NumIn()
	if ft.IsVariadic() {
		if len(args) < n-1 {
			return nil, fmt.Errorf("%w: want at least %d arguments, got %d", ErrArguments, n-1, len(args))
		}
	} else if len(args) != n {
		return nil, fmt.Errorf("%w: want %d arguments, got %d", ErrArguments, n, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		want := paramType(ft, i)
		v, err := argValue(a, want)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in[i] = v
	}

	return in, nil
}

func paramType(ft reflect.Type, i int) reflect.Type {
	if ft.IsVariadic() && i >= ft.NumIn()-1 {
		return ft.In(ft.NumIn() - 1).Elem()
	}

	return ft.In(i)
}

func argValue(a interface{}, want reflect.Type) (reflect.Value, error) {
	if a == nil {
		switch want.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			return reflect.Zero(want), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: nil is not a valid %s", ErrArguments, want)
	}

	v := reflect.ValueOf(a)
	if v.Type().AssignableTo(want) {
		return v, nil
	}
	if isNumeric(v.Kind()) && isNumeric(want.Kind()) {
		return convertNumber(v, want)
	}

	return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", ErrArguments, v.Type(), want)
}

// convertNumber converts between numeric kinds only when want holds the
// value exactly.
func convertNumber(v reflect.Value, want reflect.Type) (reflect.Value, error) {
	target := reflect.New(want).Elem()
	lossy := false

	switch {
	case v.CanInt():
		n := v.Int()
		switch {
		case target.CanInt():
			lossy = target.OverflowInt(n)
		case target.CanUint():
			lossy = n < 0 || target.OverflowUint(uint64(n))
		}
	case v.CanUint():
		n := v.Uint()
		switch {
		case target.CanInt():
			lossy = n > math.MaxInt64 || target.OverflowInt(int64(n))
		case target.CanUint():
			lossy = target.OverflowUint(n)
		}
	case v.CanFloat():
		f := v.Float()
		switch {
		case target.CanInt():
			lossy = f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 ||
				target.OverflowInt(int64(f))
		case target.CanUint():
			lossy = f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 ||
				target.OverflowUint(uint64(f))
		case target.CanFloat():
			lossy = target.OverflowFloat(f)
		}
	}
	if lossy {
		return reflect.Value{}, fmt.Errorf("%w: %v does not fit in %s", ErrArguments, v.Interface(), want)
	}

	return v.Convert(want), nil
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}

	return false
}

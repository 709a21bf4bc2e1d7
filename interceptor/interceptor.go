// Package interceptor defines the handler and interceptor types every proxy
// routes its calls through, plus the chain that nests them.
package interceptor

import (
	"context"

	"github.com/panagiotisptr/proxychain/filter"
)

// Handler performs one invocation. The returned slice holds the method's
// results in declaration order, with the error (if any) last.
type Handler func(
	args []interface{},
) []interface{}

// Interceptor wraps next for the named method. It may rewrite args before
// delegating and rewrite the results afterwards.
type Interceptor func(
	method string,
	next Handler,
) Handler

// InterceptorChain is applied first-to-last: the first interceptor is the
// outermost layer, the last one sits directly on top of the terminal handler.
type InterceptorChain []Interceptor

// Wrap composes the chain around h for method without invoking it.
func (chain InterceptorChain) Wrap(
	method string,
	h Handler,
) Handler {
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](method, h)
	}

	return h
}

func (chain InterceptorChain) Apply(
	args []interface{},
	method string,
	h Handler,
) []interface{} {
	return chain.Wrap(method, h)(args)
}

// Filtered applies ic only to methods accepted by f.
func Filtered(
	f filter.MethodFilter,
	ic Interceptor,
) Interceptor {
	return func(method string, next Handler) Handler {
		if !f.Accepts(method) {
			return next
		}

		return ic(method, next)
	}
}

// ContextOf returns the leading context argument of a call, following the
// convention that ctx is always the first parameter.
func ContextOf(args []interface{}) context.Context {
	if len(args) > 0 {
		if ctx, ok := args[0].(context.Context); ok && ctx != nil {
			return ctx
		}
	}

	return context.Background()
}

// ErrorOf returns the trailing error of a result slice.
func ErrorOf(rets []interface{}) error {
	if len(rets) == 0 {
		return nil
	}
	err, _ := rets[len(rets)-1].(error)

	return err
}

// Fail builds the result of a call that was stopped before reaching the
// terminus.
func Fail(err error) []interface{} {
	return []interface{}{err}
}

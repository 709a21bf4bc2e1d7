// Package proxy composes interceptors around a terminus, one proxy layer per
// interceptor.
//
// A Factory knows how to build a single intercepting layer for a capability
// type T. Generated proxies (see cmd/proxygen) ship such a factory, and
// DynamicFactory provides one for reflection-based proxies.
//
//	chain := proxy.NewChain(
//		interceptor.Logging(logger),
//		metrics.Interceptor(),
//	)
//	p := proxy.CreateProxyProvider(chain, proxy.FactoryFunc[Clock](ClockProxyFactory), clock)
//	c, _ := p.Provide()
//
// The first interceptor is the outermost layer and sees every call first.
package proxy

import (
	"github.com/panagiotisptr/proxychain/interceptor"
	"github.com/panagiotisptr/proxychain/provider"
)

// Factory builds a proxy exposing T that routes every call on target through ic.
type Factory[T any] interface {
	CreateInterceptingProxy(target T, ic interceptor.Interceptor) T
}

// FactoryFunc is a function adapter for Factory.
type FactoryFunc[T any] func(target T, ic interceptor.Interceptor) T

func (f FactoryFunc[T]) CreateInterceptingProxy(target T, ic interceptor.Interceptor) T {
	return f(target, ic)
}

// Chain is an immutable, ordered list of interceptors.
type Chain struct {
	interceptors []interceptor.Interceptor
}

func NewChain(interceptors ...interceptor.Interceptor) *Chain {
	return &Chain{
		interceptors: append([]interceptor.Interceptor(nil), interceptors...),
	}
}

func (c *Chain) Len() int {
	return len(c.interceptors)
}

// CreateProxy wraps terminus last-to-first, so the last interceptor ends up
// innermost. An empty chain returns terminus itself.
func CreateProxy[T any](
	c *Chain,
	factory Factory[T],
	terminus T,
) T {
	current := terminus
	for i := len(c.interceptors) - 1; i >= 0; i-- {
		current = factory.CreateInterceptingProxy(current, c.interceptors[i])
	}

	return current
}

// CreateProxyProvider defers CreateProxy. Every Provide call composes a new
// chain of proxies; nothing is cached.
func CreateProxyProvider[T any](
	c *Chain,
	factory Factory[T],
	terminus T,
) provider.Provider[T] {
	return provider.Func[T](func() (T, error) {
		return CreateProxy(c, factory, terminus), nil
	})
}

package remote

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panagiotisptr/proxychain/provider"
)

var errDivisionByZero = errors.New("division by zero")

type calculator struct {
	resets atomic.Int32
}

func (c *calculator) Add(a, b int) int {
	return a + b
}

func (c *calculator) Divide(ctx context.Context, a, b float64) (float64, error) {
	if b == 0 {
		return 0, errDivisionByZero
	}
	return a / b, nil
}

func (c *calculator) Sum(nums ...int) int {
	total := 0
	for _, n := range nums {
		total += n
	}
	return total
}

func (c *calculator) MinMax(nums []int) (int, int) {
	if len(nums) == 0 {
		return 0, 0
	}
	lo, hi := nums[0], nums[0]
	for _, n := range nums[1:] {
		lo = min(lo, n)
		hi = max(hi, n)
	}
	return lo, hi
}

func (c *calculator) Reset() {
	c.resets.Add(1)
}

func (c *calculator) Last() interface{} {
	return "none"
}

type adder interface {
	Add(a, b int) int
}

// calculatorStub is the client side of calculator as a user would write it.
type calculatorStub struct {
	inv Invoker
}

func (s *calculatorStub) Add(ctx context.Context, a, b int) (int, error) {
	return Call[int](ctx, s.inv, "Add", a, b)
}

func (s *calculatorStub) Divide(ctx context.Context, a, b float64) (float64, error) {
	return Call[float64](ctx, s.inv, "Divide", a, b)
}

func (s *calculatorStub) Sum(ctx context.Context, nums ...int) (int, error) {
	params := make([]interface{}, len(nums))
	for i, n := range nums {
		params[i] = n
	}
	return Call[int](ctx, s.inv, "Sum", params...)
}

func (s *calculatorStub) Close() error {
	return s.inv.Close()
}

func bindCalculator(inv Invoker) *calculatorStub {
	return &calculatorStub{inv: inv}
}

type nopInvoker struct{}

func (nopInvoker) Invoke(context.Context, string, []interface{}, interface{}) error {
	return nil
}

func (nopInvoker) Close() error {
	return nil
}

func TestNewProvider(t *testing.T) {
	t.Run("Malformed endpoint is reported as an invalid url", func(t *testing.T) {
		p := NewProvider(JSONRPC{}, "ftp://clock.internal/rpc", bindCalculator)

		stub, err := p.Provide()
		require.Error(t, err)
		assert.Nil(t, stub)

		var perr *provider.Error
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "invalid url given", perr.Msg)
		assert.ErrorIs(t, err, provider.ErrInvalidURL)
		assert.ErrorIs(t, err, ErrMalformedEndpoint)
	})

	t.Run("Other dialer failures are not invalid urls", func(t *testing.T) {
		dialErr := errors.New("no route")
		p := NewProvider(DialerFunc(func(string) (Invoker, error) {
			return nil, dialErr
		}), "anything", bindCalculator)

		_, err := p.Provide()
		var perr *provider.Error
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "remote stub unavailable", perr.Msg)
		assert.ErrorIs(t, err, dialErr)
		assert.NotErrorIs(t, err, provider.ErrInvalidURL)
	})

	t.Run("Nothing is dialed before Provide", func(t *testing.T) {
		dials := 0
		p := NewProvider(DialerFunc(func(endpoint string) (Invoker, error) {
			dials++
			assert.Equal(t, "calc", endpoint)
			return nopInvoker{}, nil
		}), "calc", bindCalculator)
		assert.Equal(t, 0, dials)

		first, err := p.Provide()
		require.NoError(t, err)
		second, err := p.Provide()
		require.NoError(t, err)

		assert.Equal(t, 2, dials)
		assert.NotSame(t, first, second)
	})

	t.Run("Composes with a singleton", func(t *testing.T) {
		dials := 0
		p := provider.NewSingleton(NewProvider(DialerFunc(func(string) (Invoker, error) {
			dials++
			return nopInvoker{}, nil
		}), "calc", bindCalculator))

		first, err := p.Provide()
		require.NoError(t, err)
		second, err := p.Provide()
		require.NoError(t, err)

		assert.Equal(t, 1, dials)
		assert.Same(t, first, second)
	})
}

func TestDecodeResponse(t *testing.T) {
	t.Run("Returns the remote error", func(t *testing.T) {
		err := decodeResponse([]byte(`{"jsonrpc":"2.0","error":{"code":-32601,"message":"method Nope not found"},"id":"1"}`), "1", nil)

		var rerr *Error
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, MethodNotFound, rerr.Code)
		assert.Equal(t, "remote error -32601: method Nope not found", rerr.Error())
	})

	t.Run("Rejects a mismatched id", func(t *testing.T) {
		var reply int
		err := decodeResponse([]byte(`{"jsonrpc":"2.0","result":3,"id":"2"}`), "1", &reply)
		assert.ErrorContains(t, err, "does not match")
	})

	t.Run("Decodes the result", func(t *testing.T) {
		var reply []int
		err := decodeResponse([]byte(`{"jsonrpc":"2.0","result":[1,2],"id":"1"}`), "1", &reply)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, reply)
	})

	t.Run("Rejects invalid JSON", func(t *testing.T) {
		err := decodeResponse([]byte(`{`), "1", nil)
		assert.ErrorContains(t, err, "invalid response")
	})
}

func TestEncodeRequest(t *testing.T) {
	data, err := encodeRequest("1", "Reset", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"Reset","params":[],"id":"1"}`, string(data))
}

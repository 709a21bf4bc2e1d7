// Package remote builds stubs for services reached over an RPC transport.
//
// A Dialer turns an endpoint address into an Invoker. A bind function turns
// the Invoker into a typed stub, and NewProvider defers both behind a
// provider.Provider:
//
//	p := remote.NewProvider(remote.JSONRPC{}, "http://clock.internal/rpc", func(inv remote.Invoker) Clock {
//		return &clockStub{inv: inv}
//	})
//	c, err := p.Provide() // *provider.Error wrapping provider.ErrInvalidURL on a bad address
//	defer c.Close()        // clockStub.Close closes inv
//
// All transports encode parameters and results as JSON.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/panagiotisptr/proxychain/provider"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrMalformedEndpoint is wrapped by every Dialer when the endpoint address
// cannot be used.
var ErrMalformedEndpoint = errors.New("remote: malformed endpoint")

// ErrClosed is returned by calls on an Invoker after Close.
var ErrClosed = errors.New("remote: invoker closed")

// Invoker performs remote calls. params are encoded positionally; the
// result is decoded into reply unless reply is nil.
//
// Close releases the connection behind the Invoker and is safe to call more
// than once. Stubs should expose it so the owner of a provided stub can
// release it. Calls after Close fail with ErrClosed.
type Invoker interface {
	io.Closer

	Invoke(
		ctx context.Context,
		method string,
		params []interface{},
		reply interface{},
	) error
}

// Dialer creates Invokers for endpoint addresses. Dialers validate the
// address but must not perform network I/O.
type Dialer interface {
	NewInvoker(endpoint string) (Invoker, error)
}

// DialerFunc is a function adapter for Dialer.
type DialerFunc func(endpoint string) (Invoker, error)

func (f DialerFunc) NewInvoker(endpoint string) (Invoker, error) {
	return f(endpoint)
}

// NewProvider defers creating a stub for endpoint until Provide is called.
// Each call creates a new Invoker.
func NewProvider[T any](
	dialer Dialer,
	endpoint string,
	bind func(Invoker) T,
) provider.Provider[T] {
	return provider.Func[T](func() (T, error) {
		var zero T

		inv, err := dialer.NewInvoker(endpoint)
		if err != nil {
			if errors.Is(err, ErrMalformedEndpoint) {
				return zero, &provider.Error{
					Msg: "invalid url given",
					Err: fmt.Errorf("%w: %w", provider.ErrInvalidURL, err),
				}
			}
			return zero, &provider.Error{Msg: "remote stub unavailable", Err: err}
		}

		return bind(inv), nil
	})
}

// Call invokes method and decodes its result as R.
func Call[R any](
	ctx context.Context,
	inv Invoker,
	method string,
	params ...interface{},
) (R, error) {
	var reply R
	if err := inv.Invoke(ctx, method, params, &reply); err != nil {
		var zero R
		return zero, err
	}

	return reply, nil
}

// JSON-RPC 2.0 error codes, also used to classify dispatch failures on every
// server transport.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
	ServerError    = -32000
)

// Error is a failure reported by the remote side.
type Error struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    jsoniter.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote error %d: %s", e.Code, e.Message)
}

const version = "2.0"

type request struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      string        `json:"id"`
}

type response struct {
	JSONRPC string              `json:"jsonrpc"`
	Result  jsoniter.RawMessage `json:"result,omitempty"`
	Error   *Error              `json:"error,omitempty"`
	ID      string              `json:"id"`
}

func encodeRequest(id, method string, params []interface{}) ([]byte, error) {
	if params == nil {
		params = []interface{}{}
	}

	return json.Marshal(request{
		JSONRPC: version,
		Method:  method,
		Params:  params,
		ID:      id,
	})
}

func decodeResponse(data []byte, id string, reply interface{}) error {
	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("remote: invalid response: %w", err)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if resp.ID != id {
		return fmt.Errorf("remote: response id %q does not match request id %q", resp.ID, id)
	}
	if reply == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, reply); err != nil {
		return fmt.Errorf("remote: decode result: %w", err)
	}

	return nil
}

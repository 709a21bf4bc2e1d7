package remote

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/grpc"

	"github.com/panagiotisptr/proxychain/interceptor"
	"github.com/panagiotisptr/proxychain/proxy"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

type serverOptions struct {
	capabilities []reflect.Type
	interceptors []interceptor.Interceptor
	logger       *slog.Logger

	grpcServerOptions []grpc.ServerOption
}

// ServerOption configures the server side transports.
type ServerOption func(*serverOptions)

// WithCapabilities limits the exposed methods to those of the given
// interface types.
func WithCapabilities(capabilities ...reflect.Type) ServerOption {
	return func(o *serverOptions) {
		o.capabilities = append(o.capabilities, capabilities...)
	}
}

// WithInterceptors routes every served call through the interceptors,
// first one outermost.
func WithInterceptors(interceptors ...interceptor.Interceptor) ServerOption {
	return func(o *serverOptions) {
		o.interceptors = append(o.interceptors, interceptors...)
	}
}

func WithLogger(logger *slog.Logger) ServerOption {
	return func(o *serverOptions) {
		o.logger = logger
	}
}

// dispatcher decodes positional JSON params for a method of target and
// calls it through a dynamic proxy.
type dispatcher struct {
	target *proxy.Dynamic
	logger *slog.Logger
}

func newDispatcher(target interface{}, opts []ServerOption) (*dispatcher, error) {
	o := &serverOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	d, err := proxy.NewDynamic(target, o.capabilities...)
	if err != nil {
		return nil, err
	}

	return &dispatcher{
		target: proxy.CreateProxy(proxy.NewChain(o.interceptors...), proxy.DynamicFactory{}, d),
		logger: o.logger,
	}, nil
}

// dispatch returns the call result: nil for no results, the value itself
// for one result, a slice otherwise. A trailing error result is reported as
// a ServerError.
func (s *dispatcher) dispatch(
	ctx context.Context,
	method string,
	params []jsoniter.RawMessage,
) (interface{}, *Error) {
	ft, ok := s.target.Signature(method)
	if !ok {
		return nil, &Error{Code: MethodNotFound, Message: fmt.Sprintf("method %s not found", method)}
	}

	args, err := decodeParams(ctx, ft, params)
	if err != nil {
		return nil, &Error{Code: InvalidParams, Message: err.Error()}
	}

	out, err := s.target.Dispatch(method, args...)
	if err != nil {
		return nil, &Error{Code: InvalidParams, Message: err.Error()}
	}
	rets := out.Results

	results := ft.NumOut()
	hasErr := results > 0 && ft.Out(results-1) == errorType
	// a call answered by an interceptor with only an error failed, whatever
	// the method returns
	shortCircuit := !out.Reached || len(rets) != results ||
		(results > 0 && !hasErr && !errorType.AssignableTo(ft.Out(results-1)))
	if callErr := interceptor.ErrorOf(rets); callErr != nil && (hasErr || shortCircuit) {
		s.logger.DebugContext(ctx, "remote call failed", "method", method, "error", callErr)
		return nil, &Error{Code: ServerError, Message: callErr.Error()}
	}
	if len(rets) != results {
		return nil, &Error{Code: InternalError, Message: fmt.Sprintf("method %s returned %d of %d results", method, len(rets), results)}
	}
	if hasErr {
		results--
	}

	switch results {
	case 0:
		return nil, nil
	case 1:
		return rets[0], nil
	default:
		return rets[:results], nil
	}
}

// decodeParams decodes params into the parameter types of ft. A leading
// context.Context parameter is filled with ctx instead of being read from
// the wire.
func decodeParams(
	ctx context.Context,
	ft reflect.Type,
	params []jsoniter.RawMessage,
) ([]interface{}, error) {
	args := []interface{}{}
	first := 0
	if ft.NumIn() > 0 && ft.In(0) == contextType {
		args = append(args, ctx)
		first = 1
	}

	fixed := ft.NumIn() - first
	if ft.IsVariadic() {
		fixed--
		if len(params) < fixed {
			return nil, fmt.Errorf("want at least %d params, got %d", fixed, len(params))
		}
	} else if len(params) != fixed {
		return nil, fmt.Errorf("want %d params, got %d", fixed, len(params))
	}

	for i, raw := range params {
		var want reflect.Type
		if idx := first + i; ft.IsVariadic() && idx >= ft.NumIn()-1 {
			want = ft.In(ft.NumIn() - 1).Elem()
		} else {
			want = ft.In(idx)
		}

		v := reflect.New(want)
		if err := json.Unmarshal(raw, v.Interface()); err != nil {
			return nil, fmt.Errorf("param %d: %w", i, err)
		}
		args = append(args, v.Elem().Interface())
	}

	return args, nil
}

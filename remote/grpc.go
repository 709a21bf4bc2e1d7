package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

// jsonCodec lets unary gRPC calls carry plain Go values instead of
// protobuf messages.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return "json"
}

// GRPC dials services exposed by NewGRPCServer. A method M of Service is
// called as /Service/M.
type GRPC struct {
	Service string
	// DialOptions default to insecure transport credentials.
	DialOptions []grpc.DialOption
	CallOptions []grpc.CallOption
}

func (d GRPC) NewInvoker(target string) (Invoker, error) {
	if d.Service == "" {
		return nil, errors.New("remote: grpc service name is required")
	}
	if strings.TrimSpace(target) == "" || strings.ContainsAny(target, " \t\n") {
		return nil, fmt.Errorf("%w: invalid grpc target %q", ErrMalformedEndpoint, target)
	}

	opts := d.DialOptions
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEndpoint, err)
	}

	return &grpcInvoker{
		conn:     conn,
		service:  d.Service,
		callOpts: append(append([]grpc.CallOption(nil), d.CallOptions...), grpc.ForceCodec(jsonCodec{})),
	}, nil
}

type grpcInvoker struct {
	conn     *grpc.ClientConn
	service  string
	callOpts []grpc.CallOption
	closed   atomic.Bool
}

func (c *grpcInvoker) Invoke(
	ctx context.Context,
	method string,
	params []interface{},
	reply interface{},
) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if params == nil {
		params = []interface{}{}
	}
	if reply == nil {
		reply = &jsoniter.RawMessage{}
	}

	err := c.conn.Invoke(ctx, "/"+c.service+"/"+method, params, reply, c.callOpts...)
	if err != nil {
		return fromStatus(err)
	}

	return nil
}

func (c *grpcInvoker) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.conn.Close()
}

// NewGRPCServer serves the methods of target under service using the JSON
// codec, the server side of the GRPC dialer.
func NewGRPCServer(
	service string,
	target interface{},
	opts ...ServerOption,
) (*grpc.Server, error) {
	d, err := newDispatcher(target, opts)
	if err != nil {
		return nil, err
	}

	o := &serverOptions{}
	for _, opt := range opts {
		opt(o)
	}

	handler := func(_ interface{}, stream grpc.ServerStream) error {
		full, ok := grpc.MethodFromServerStream(stream)
		if !ok {
			return status.Error(codes.Internal, "missing method name")
		}
		svc, method, ok := splitFullMethod(full)
		if !ok || svc != service {
			return status.Errorf(codes.Unimplemented, "unknown method %s", full)
		}

		var params []jsoniter.RawMessage
		if err := stream.RecvMsg(&params); err != nil {
			return err
		}

		result, rpcErr := d.dispatch(stream.Context(), method, params)
		if rpcErr != nil {
			return toStatus(rpcErr)
		}
		if result == nil {
			result = jsoniter.RawMessage("null")
		}

		return stream.SendMsg(result)
	}

	serverOpts := append([]grpc.ServerOption{
		grpc.ForceServerCodec(jsonCodec{}),
		grpc.UnknownServiceHandler(handler),
	}, o.grpcServerOptions...)

	return grpc.NewServer(serverOpts...), nil
}

// WithGRPCServerOptions passes extra options to grpc.NewServer.
func WithGRPCServerOptions(opts ...grpc.ServerOption) ServerOption {
	return func(o *serverOptions) {
		o.grpcServerOptions = append(o.grpcServerOptions, opts...)
	}
}

func splitFullMethod(full string) (string, string, bool) {
	full = strings.TrimPrefix(full, "/")
	i := strings.LastIndex(full, "/")
	if i <= 0 || i == len(full)-1 {
		return "", "", false
	}

	return full[:i], full[i+1:], true
}

var statusCodes = map[int]codes.Code{
	MethodNotFound: codes.Unimplemented,
	InvalidParams:  codes.InvalidArgument,
	InternalError:  codes.Internal,
	ServerError:    codes.Unknown,
}

func toStatus(e *Error) error {
	code, ok := statusCodes[e.Code]
	if !ok {
		code = codes.Unknown
	}

	return status.Error(code, e.Message)
}

// fromStatus turns statuses produced by toStatus back into *Error. Other
// failures, such as an unreachable server, are returned unchanged.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for rpcCode, code := range statusCodes {
		if st.Code() == code {
			return &Error{Code: rpcCode, Message: st.Message()}
		}
	}

	return err
}

package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxMessageSize = 16 << 20

// JSONRPC dials JSON-RPC 2.0 services over HTTP POST.
type JSONRPC struct {
	// Client defaults to an http.Client with an otelhttp transport.
	Client *http.Client
	Header http.Header
}

// NewInvoker accepts absolute http and https URLs only.
func (d JSONRPC) NewInvoker(endpoint string) (Invoker, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q in %q", ErrMalformedEndpoint, u.Scheme, endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrMalformedEndpoint, endpoint)
	}

	client := d.Client
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	return &jsonrpcInvoker{
		url:    u.String(),
		client: client,
		header: d.Header.Clone(),
	}, nil
}

type jsonrpcInvoker struct {
	url    string
	client *http.Client
	header http.Header
	closed atomic.Bool
}

// Close drops the idle connections of the client. The client itself stays
// usable, so a shared Client is not affected beyond its idle pool.
func (c *jsonrpcInvoker) Close() error {
	if !c.closed.Swap(true) {
		c.client.CloseIdleConnections()
	}
	return nil
}

func (c *jsonrpcInvoker) Invoke(
	ctx context.Context,
	method string,
	params []interface{},
	reply interface{},
) error {
	if c.closed.Load() {
		return ErrClosed
	}

	id := uuid.NewString()
	body, err := encodeRequest(id, method, params)
	if err != nil {
		return fmt.Errorf("remote: encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("remote: build %s request: %w", method, err)
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("remote: call %s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMessageSize))
	if err != nil {
		return fmt.Errorf("remote: read %s response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remote: call %s: unexpected status %s", method, resp.Status)
	}

	return decodeResponse(data, id, reply)
}

package remote

import (
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var nullID = jsoniter.RawMessage("null")

// serverRequest keeps the id raw: it may be a string, a number or null and is
// echoed back unchanged.
type serverRequest struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  []jsoniter.RawMessage `json:"params"`
	ID      jsoniter.RawMessage   `json:"id"`
}

type serverResponse struct {
	ID     jsoniter.RawMessage
	Result interface{}
	Error  *Error
}

type resultMessage struct {
	JSONRPC string              `json:"jsonrpc"`
	Result  interface{}         `json:"result"`
	ID      jsoniter.RawMessage `json:"id"`
}

type errorMessage struct {
	JSONRPC string              `json:"jsonrpc"`
	Error   *Error              `json:"error"`
	ID      jsoniter.RawMessage `json:"id"`
}

// NewJSONRPCHandler serves the methods of target as JSON-RPC 2.0 over HTTP
// POST, the server side of the JSONRPC dialer.
func NewJSONRPCHandler(
	target interface{},
	opts ...ServerOption,
) (http.Handler, error) {
	d, err := newDispatcher(target, opts)
	if err != nil {
		return nil, err
	}

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize))
		if err != nil {
			http.Error(w, "failed to read request", http.StatusBadRequest)
			return
		}

		var req serverRequest
		if err := json.Unmarshal(body, &req); err != nil {
			writeResponse(w, d, serverResponse{Error: &Error{Code: ParseError, Message: err.Error()}})
			return
		}
		if req.JSONRPC != version || req.Method == "" {
			writeResponse(w, d, serverResponse{ID: req.ID, Error: &Error{Code: InvalidRequest, Message: "invalid request"}})
			return
		}

		result, rpcErr := d.dispatch(r.Context(), req.Method, req.Params)
		writeResponse(w, d, serverResponse{ID: req.ID, Result: result, Error: rpcErr})
	})

	return otelhttp.NewHandler(h, "jsonrpc"), nil
}

// writeResponse sends either a result member, null when the method has no
// results, or an error member, never both.
func writeResponse(w http.ResponseWriter, d *dispatcher, resp serverResponse) {
	id := resp.ID
	if len(id) == 0 {
		id = nullID
	}

	var msg interface{} = resultMessage{JSONRPC: version, Result: resp.Result, ID: id}
	if resp.Error != nil {
		msg = errorMessage{JSONRPC: version, Error: resp.Error, ID: id}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		d.logger.Error("failed to write response", "id", string(id), "error", err)
	}
}

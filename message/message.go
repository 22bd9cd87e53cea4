// Package message defines the JSON-RPC envelope exchanged between the host
// orchestrator and the REPL worker.
//
// Request and Response are the "envelope" for every call. They get serialized
// by the codec layer and wrapped in a Content-Length frame for transmission
// over the process's stdin/stdout.
package message

import "encoding/json"

// JSON-RPC error codes used by the dispatcher.
const (
	CodeMethodNotFound = -32601 // Unknown tool (or unknown method in strict mode)
	CodeInternalError  = -32603 // Any fault during parsing, routing, or encoding
)

// Version is the jsonrpc field stamped on every response.
const Version = "2.0"

// Request carries one incoming call.
//
//   - ID is opaque to the server: whatever the caller sent (number, string,
//     null, or absent) is echoed verbatim in the matching response.
//   - Params stays raw here; each handler decodes it into its own arg struct.
//   - JSONRPC is accepted for interop but never inspected.
type Request struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response carries one outgoing reply. Exactly one of Result/Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is the JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// NewResult builds a success response echoing id. A nil id serializes as
// JSON null, matching the original protocol's behavior for id-less requests.
func NewResult(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: Version, ID: normalizeID(id), Result: result}
}

// NewError builds an error response echoing id.
func NewError(id json.RawMessage, code int, msg string) *Response {
	return &Response{JSONRPC: Version, ID: normalizeID(id), Error: &Error{Code: code, Message: msg}}
}

// normalizeID maps an absent id to explicit null so the response always
// carries an id field.
func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

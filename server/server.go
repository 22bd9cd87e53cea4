// Package server implements the request dispatcher and the frame-serving
// loop of the REPL worker.
//
// Request processing pipeline:
//
//	Serve (single goroutine reads frames)
//	  → for each frame: Handle
//	    → Codec.Decode → Middleware Chain → dispatch → Evaluator → Codec.Encode → write frame
//
// The loop is deliberately single-threaded and synchronous: exactly one
// frame is in flight at a time, and responses are emitted in the exact order
// requests were read. The session and the evaluator's capture buffers are
// single-writer resources under this model; parallelizing request handling
// would require serializing evaluator invocations.
//
// Fault policy: nothing escapes a frame's processing step. Every accepted
// frame yields exactly one response — a fault anywhere in decoding, routing,
// or encoding becomes a -32603 error envelope, with a null id if the
// request id could not be determined before the fault.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"pyrepl/codec"
	"pyrepl/interp"
	"pyrepl/message"
	"pyrepl/middleware"
	"pyrepl/protocol"
	"pyrepl/session"
)

// Identity and protocol literals reported by initialize.
const (
	ProtocolVersion = "2024-11-05"
	ServerName      = "python-repl"
	ServerVersion   = "1.0.0"
)

// toolExecute is the single tool the worker exposes.
const toolExecute = "execute"

// Server routes envelopes to handlers and runs the serve loop.
type Server struct {
	sess        *session.Session
	ev          *interp.Evaluator
	cdc         codec.Codec
	log         zerolog.Logger
	middlewares []middleware.Middleware
	handler     middleware.HandlerFunc

	// Permissive controls the unknown-method policy. When true (the
	// default), any method outside the routing table answers with an
	// empty result object; when false it answers -32601. The leniency is
	// deliberate: orchestrators probe with lifecycle notifications the
	// worker does not implement, and those must not error.
	Permissive bool

	// LenientHeaders is handed to the frame reader: malformed header
	// lines are skipped rather than fatal.
	LenientHeaders bool
}

// New creates a server over an existing session. The session is owned by
// the caller: the server mutates it through evaluator calls but never
// creates or resets it.
func New(sess *session.Session, cdc codec.Codec, log zerolog.Logger) *Server {
	return &Server{
		sess:           sess,
		ev:             interp.New(),
		cdc:            cdc,
		log:            log,
		Permissive:     true,
		LenientHeaders: true,
	}
}

// Use registers a middleware. Middlewares are applied in the order they are
// added and must be registered before the first frame is handled.
func (s *Server) Use(mw middleware.Middleware) {
	s.middlewares = append(s.middlewares, mw)
}

// Serve reads frames from in and writes one response frame per request to
// out until the input stream closes, which is the clean shutdown signal
// (returns nil). A frame truncated by stream closure is not dispatched: it
// cannot satisfy the frame invariant, so it is treated as shutdown too.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	r := protocol.NewReader(in)
	r.Lenient = s.LenientHeaders
	w := protocol.NewWriter(out)

	for {
		payload, err := r.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				s.log.Warn().Msg("stream closed mid-frame")
				return nil
			}
			return err
		}

		data := s.Handle(ctx, payload)
		if err := w.WriteFrame(data); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}

// Handle processes one frame payload and returns the serialized response.
// It never fails: decode, routing, and encode faults all collapse into a
// -32603 envelope.
func (s *Server) Handle(ctx context.Context, payload []byte) []byte {
	if s.handler == nil {
		// Build the middleware chain once, on first use:
		// Chain(A, B)(dispatch) → A(B(dispatch)).
		s.handler = middleware.Chain(s.middlewares...)(s.dispatch)
	}

	resp := s.handleFrame(ctx, payload)

	data, err := s.cdc.Encode(resp)
	if err != nil {
		// Encoding a plain error envelope cannot itself fail.
		fallback := message.NewError(resp.ID, message.CodeInternalError, err.Error())
		data, _ = s.cdc.Encode(fallback)
	}
	return data
}

// handleFrame decodes the envelope and runs it through the handler chain,
// converting any panic into an internal-error response.
func (s *Server) handleFrame(ctx context.Context, payload []byte) (resp *message.Response) {
	var id json.RawMessage
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("recovered during dispatch")
			resp = message.NewError(id, message.CodeInternalError, fmt.Sprint(r))
		}
	}()

	// Probe the id before the full decode so it can be echoed even when
	// the rest of the envelope is unusable. If the payload is not valid
	// JSON at all, the id stays unknown and the response carries null.
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := s.cdc.Decode(payload, &probe); err == nil {
		id = probe.ID
	}

	var req message.Request
	if err := s.cdc.Decode(payload, &req); err != nil {
		return message.NewError(id, message.CodeInternalError, err.Error())
	}

	return s.handler(ctx, &req)
}

// dispatch is the routing table.
func (s *Server) dispatch(_ context.Context, req *message.Request) *message.Response {
	switch req.Method {
	case "initialize":
		return message.NewResult(req.ID, initializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      serverInfo{Name: ServerName, Version: ServerVersion},
		})
	case "tools/list":
		return message.NewResult(req.ID, toolsListResult{Tools: []toolDescriptor{executeDescriptor()}})
	case "tools/execute":
		return s.executeTool(req)
	default:
		if s.Permissive {
			return message.NewResult(req.ID, struct{}{})
		}
		return message.NewError(req.ID, message.CodeMethodNotFound, "Method not found: "+req.Method)
	}
}

// executeTool handles tools/execute: it resolves the named tool, runs the
// evaluator against the session, and wraps the outcome. An evaluation fault
// is a failure inside the result, never an envelope-level error.
func (s *Server) executeTool(req *message.Request) *message.Response {
	var params struct {
		Tool      string `json:"tool"`
		Arguments struct {
			Code string `json:"code"`
		} `json:"arguments"`
	}
	if len(req.Params) > 0 {
		if err := s.cdc.Decode(req.Params, &params); err != nil {
			return message.NewError(req.ID, message.CodeInternalError, err.Error())
		}
	}

	if params.Tool != toolExecute {
		return message.NewError(req.ID, message.CodeMethodNotFound, "Tool not found: "+params.Tool)
	}

	result := s.ev.Run(s.sess, params.Arguments.Code)
	return message.NewResult(req.ID, result)
}

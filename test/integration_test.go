package test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"pyrepl/client"
	"pyrepl/codec"
	"pyrepl/message"
	"pyrepl/middleware"
	"pyrepl/server"
	"pyrepl/session"
)

// startWorker wires a server and a client together over in-memory pipes,
// the same topology an orchestrator has with the worker's stdin/stdout.
func startWorker(t *testing.T, serverCodec, clientCodec codec.CodecType) *client.Client {
	t.Helper()

	inR, inW := io.Pipe()   // orchestrator → worker stdin
	outR, outW := io.Pipe() // worker stdout → orchestrator

	srv := server.New(session.New(), codec.GetCodec(serverCodec), zerolog.Nop())
	srv.Use(middleware.LoggingMiddleware(zerolog.Nop()))

	go func() {
		srv.Serve(context.Background(), inR, outW)
		outW.Close()
	}()
	t.Cleanup(func() { inW.Close() })

	return client.New(outR, inW, clientCodec)
}

func TestEndToEnd(t *testing.T) {
	cli := startWorker(t, codec.CodecTypeJSON, codec.CodecTypeJSON)

	// Handshake
	raw, err := cli.Call("initialize", nil)
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	var init struct {
		ProtocolVersion string `json:"protocolVersion"`
		ServerInfo      struct {
			Name string `json:"name"`
		} `json:"serverInfo"`
	}
	if err := json.Unmarshal(raw, &init); err != nil {
		t.Fatalf("decode initialize result: %v", err)
	}
	if init.ProtocolVersion != "2024-11-05" || init.ServerInfo.Name != "python-repl" {
		t.Errorf("handshake literals mismatch: %+v", init)
	}

	// Session round trip across calls
	if res, err := cli.Execute("x = 5"); err != nil || !res.Success {
		t.Fatalf("assignment failed: %v %+v", err, res)
	}
	res, err := cli.Execute("x + 1")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !res.Success || res.Result == nil || *res.Result != "6" {
		t.Errorf("session round trip: got %+v, want result 6", res)
	}

	// Captured output
	res, err = cli.Execute(`print("hello")`)
	if err != nil {
		t.Fatalf("print failed: %v", err)
	}
	if res.Stdout != "hello\n" {
		t.Errorf("stdout: got %q, want %q", res.Stdout, "hello\n")
	}
}

func TestUnknownToolSurfacesTypedError(t *testing.T) {
	cli := startWorker(t, codec.CodecTypeJSON, codec.CodecTypeJSON)

	_, err := cli.Call("tools/execute", map[string]any{"tool": "foo"})
	if err == nil {
		t.Fatal("expected an error for unknown tool")
	}
	var rpcErr *message.Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *message.Error, got %T: %v", err, err)
	}
	if rpcErr.Code != message.CodeMethodNotFound {
		t.Errorf("code: got %d, want %d", rpcErr.Code, message.CodeMethodNotFound)
	}
	if !strings.Contains(rpcErr.Message, "foo") {
		t.Errorf("message should name the tool: %q", rpcErr.Message)
	}

	// The worker keeps serving after the faulty request.
	res, err := cli.Execute("1+1")
	if err != nil || !res.Success || res.Result == nil || *res.Result != "2" {
		t.Errorf("worker did not recover: %v %+v", err, res)
	}
}

func TestEvaluationFaultThenRecovery(t *testing.T) {
	cli := startWorker(t, codec.CodecTypeJSON, codec.CodecTypeJSON)

	res, err := cli.Execute("1 // 0")
	if err != nil {
		t.Fatalf("an evaluation fault is not an envelope error: %v", err)
	}
	if res.Success {
		t.Fatal("expected failure outcome")
	}
	if res.Result != nil {
		t.Errorf("failed execution must not carry a result, got %q", *res.Result)
	}
	if res.Stderr == "" {
		t.Error("expected a diagnostic trace in stderr")
	}

	res, err = cli.Execute("2*3")
	if err != nil || !res.Success || res.Result == nil || *res.Result != "6" {
		t.Errorf("worker did not recover after the fault: %v %+v", err, res)
	}
}

// The codecs share one wire format: a sonic server and a json client (and
// vice versa) must interoperate transparently.
func TestCodecInterop(t *testing.T) {
	for _, tc := range []struct {
		name           string
		server, client codec.CodecType
	}{
		{"sonic server, json client", codec.CodecTypeSonic, codec.CodecTypeJSON},
		{"json server, sonic client", codec.CodecTypeJSON, codec.CodecTypeSonic},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cli := startWorker(t, tc.server, tc.client)
			res, err := cli.Execute("1+1")
			if err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			if !res.Success || res.Result == nil || *res.Result != "2" {
				t.Errorf("interop result mismatch: %+v", res)
			}
		})
	}
}

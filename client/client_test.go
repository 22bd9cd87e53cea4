package client

import (
	"bytes"
	"testing"

	"pyrepl/codec"
	"pyrepl/protocol"
)

// The client relies on the worker's strict ordering contract; a response
// whose id does not echo the request id is a protocol violation.
func TestCallRejectsMismatchedID(t *testing.T) {
	var in bytes.Buffer
	protocol.NewWriter(&in).WriteFrame([]byte(`{"jsonrpc":"2.0","id":99,"result":{}}`))

	var out bytes.Buffer
	cli := New(&in, &out, codec.CodecTypeJSON)

	if _, err := cli.Call("initialize", nil); err == nil {
		t.Fatal("expected an id mismatch error")
	}
}

func TestCallFramesRequest(t *testing.T) {
	var in bytes.Buffer
	protocol.NewWriter(&in).WriteFrame([]byte(`{"jsonrpc":"2.0","id":1,"result":{"ok":true}}`))

	var out bytes.Buffer
	cli := New(&in, &out, codec.CodecTypeJSON)

	raw, err := cli.Call("initialize", nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if string(raw) != `{"ok":true}` {
		t.Errorf("result mismatch: %s", raw)
	}

	// The request on the wire is one well-formed frame.
	payload, err := protocol.NewReader(&out).ReadFrame()
	if err != nil {
		t.Fatalf("request frame unreadable: %v", err)
	}
	if !bytes.Contains(payload, []byte(`"method":"initialize"`)) {
		t.Errorf("request payload mismatch: %s", payload)
	}
}

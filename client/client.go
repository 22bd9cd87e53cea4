// Package client is the orchestrator-side counterpart of the worker: it
// frames requests onto a writer and reads the matching response frame back.
//
// The client is strictly synchronous. The worker guarantees one response per
// request in order, so there is never more than one call in flight and no
// need for sequence multiplexing beyond a sanity check on the echoed id.
package client

import (
	"encoding/json"
	"fmt"
	"io"

	"pyrepl/codec"
	"pyrepl/interp"
	"pyrepl/message"
	"pyrepl/protocol"
)

// Client issues calls over a reader/writer pair, typically the worker
// process's stdout/stdin.
type Client struct {
	r   *protocol.Reader
	w   *protocol.Writer
	cdc codec.Codec
	seq uint64
}

func New(in io.Reader, out io.Writer, codecType codec.CodecType) *Client {
	return &Client{
		r:   protocol.NewReader(in),
		w:   protocol.NewWriter(out),
		cdc: codec.GetCodec(codecType),
	}
}

// response mirrors message.Response with a raw result so callers can decode
// into their own types.
type response struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *message.Error  `json:"error"`
}

// Call sends one request and waits for its response. An error envelope from
// the worker is returned as a *message.Error, preserving the code.
func (c *Client) Call(method string, params any) (json.RawMessage, error) {
	c.seq++
	id, _ := json.Marshal(c.seq)

	var rawParams json.RawMessage
	if params != nil {
		data, err := c.cdc.Encode(params)
		if err != nil {
			return nil, fmt.Errorf("encode params: %w", err)
		}
		rawParams = data
	}

	data, err := c.cdc.Encode(&message.Request{
		JSONRPC: message.Version,
		ID:      id,
		Method:  method,
		Params:  rawParams,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	if err := c.w.WriteFrame(data); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	payload, err := c.r.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp response
	if err := c.cdc.Decode(payload, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if string(resp.ID) != string(id) {
		return nil, fmt.Errorf("response id %s does not match request id %s", resp.ID, id)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

// Execute runs one snippet through the execute tool and decodes the
// structured outcome.
func (c *Client) Execute(code string) (*interp.Result, error) {
	raw, err := c.Call("tools/execute", map[string]any{
		"tool":      "execute",
		"arguments": map[string]any{"code": code},
	})
	if err != nil {
		return nil, err
	}
	var result interp.Result
	if err := c.cdc.Decode(raw, &result); err != nil {
		return nil, fmt.Errorf("decode execution result: %w", err)
	}
	return &result, nil
}

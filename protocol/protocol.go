// Package protocol implements the Content-Length frame protocol the worker
// speaks over its stdin/stdout.
//
// Each message on the wire is a header line, a blank separator line, and
// exactly N payload bytes. The receiver reads the header first to determine
// the payload length, then reads exactly that many bytes.
//
// Frame format:
//
//	Content-Length: <N>\r\n
//	\r\n
//	<N payload bytes>
//
// The read side is deliberately lenient: any line that does not parse as a
// Content-Length header is discarded and scanning continues with the next
// line. A malformed header never terminates the stream. This leniency is a
// named policy (see Reader.Lenient) so callers and tests opt into it
// explicitly rather than relying on it by accident.
package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// headerPrefix is the only header the protocol defines.
const headerPrefix = "Content-Length:"

// ErrMalformedHeader is returned by a strict Reader when a line does not
// parse as a Content-Length header. A lenient Reader never returns it.
var ErrMalformedHeader = errors.New("protocol: malformed Content-Length header")

// Reader extracts frames from a byte stream.
//
// Not safe for concurrent use: frame boundaries only make sense with a
// single sequential reader.
type Reader struct {
	br *bufio.Reader

	// Lenient controls the malformed-header policy. When true (the
	// default via NewReader), non-matching header lines are skipped and
	// scanning continues. When false, the first non-matching line is a
	// hard ErrMalformedHeader.
	Lenient bool
}

// NewReader wraps r with the default lenient header policy.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r), Lenient: true}
}

// ReadFrame reads one complete frame and returns its payload.
//
// It scans lines until a valid `Content-Length: <N>` header is found,
// discards the separator line, then reads exactly N bytes. The returned
// error is io.EOF when the stream closes while scanning for a header —
// the clean shutdown signal. EOF in the middle of a frame body violates
// the frame invariant (declared length == payload length) and is reported
// as io.ErrUnexpectedEOF; the partial payload is never returned.
func (r *Reader) ReadFrame() ([]byte, error) {
	for {
		line, err := r.br.ReadString('\n')
		if err != nil {
			// A trailing fragment without a newline cannot be a
			// complete header; treat end of stream as clean EOF.
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}

		n, ok := parseHeader(line)
		if !ok {
			if r.Lenient {
				continue // skip-until-match: malformed lines are never fatal
			}
			return nil, fmt.Errorf("%w: %q", ErrMalformedHeader, strings.TrimRight(line, "\r\n"))
		}

		// Discard the blank separator line between header and payload.
		if _, err := r.br.ReadString('\n'); err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}

		payload := make([]byte, n)
		if _, err := io.ReadFull(r.br, payload); err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		return payload, nil
	}
}

// parseHeader reports whether line is a well-formed Content-Length header
// and, if so, the declared payload length.
//
// A line with the right prefix but a non-numeric or negative length is
// malformed, not a parse fault waiting to happen: the integer check is part
// of header matching, so a bad declared length gets the same skip treatment
// as any other junk line.
func parseHeader(line string) (int, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, headerPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, headerPrefix)))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Writer emits frames to a byte stream.
//
// WriteFrame flushes before returning, so one complete response is fully on
// the wire before the caller goes back to reading. That synchronous flush is
// what enforces strict request/response ordering with no pipelining.
type Writer struct {
	bw *bufio.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// WriteFrame writes the header, separator, and payload, then flushes.
func (w *Writer) WriteFrame(payload []byte) error {
	if _, err := fmt.Fprintf(w.bw, "Content-Length: %d\r\n\r\n", len(payload)); err != nil {
		return err
	}
	if _, err := w.bw.Write(payload); err != nil {
		return err
	}
	return w.bw.Flush()
}

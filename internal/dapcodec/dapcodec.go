// Package dapcodec implements the Content-Length framing codec from
// spec §4.2: a stateful byte sink that turns a byte stream into a sequence
// of DAP protocol messages, streaming-safe across arbitrary chunk
// boundaries, plus a writer that serialises and frames outbound messages.
//
// Grounded on the teacher's pkg/tools/mcp.go, which drives a persistent
// subprocess's JSON-RPC-over-stdio using a bufio.Reader fed incrementally;
// this codec generalises that idea to DAP's length-prefixed framing
// instead of newline-delimited JSON, and makes the "has a full frame
// arrived yet" state explicit so Feed can be called with partial chunks.
package dapcodec

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/codetracer/db-backend/internal/replayerr"
)

const headerPrefix = "Content-Length:"

// state names the codec's three-state machine (spec §4.2): header line,
// the blank separator line after it, then the payload bytes.
type state int

const (
	parsingContentLength state = iota
	parsingBlankLine
	parsingContent
)

// Codec accumulates bytes fed via Feed and yields complete frames'
// payloads. It never blocks; Feed returns immediately with whatever
// complete messages the newly fed bytes completed.
type Codec struct {
	state     state
	buf       bytes.Buffer
	remaining int
}

// New creates an empty Codec in the ParsingContentLength state.
func New() *Codec { return &Codec{state: parsingContentLength} }

// Feed appends chunk to the codec's internal buffer and extracts as many
// complete message payloads as are now available. Garbage bytes preceding
// a "Content-Length:" header are a Framing error (spec §4.2); the codec
// recovers by discarding up to the next newline and continuing, since one
// malformed frame should not wedge the whole stream shut (spec §7's
// Framing policy: "log, drop the frame, keep reading").
func (c *Codec) Feed(chunk []byte) ([][]byte, error) {
	c.buf.Write(chunk)
	var payloads [][]byte
	var firstErr error

	for {
		switch c.state {
		case parsingContentLength:
			line, ok := c.takeHeaderLine()
			if !ok {
				return payloads, firstErr
			}
			if line == "" {
				// Blank lines may precede the header on some peers; skip.
				continue
			}
			n, err := parseContentLength(line)
			if err != nil {
				if firstErr == nil {
					firstErr = &replayerr.Framing{Err: err}
				}
				continue
			}
			c.remaining = n
			c.state = parsingBlankLine
		case parsingBlankLine:
			// The header block ends with a blank "\r\n\r\n" separator line
			// (spec §4.2) before the payload bytes begin.
			line, ok := c.takeHeaderLine()
			if !ok {
				return payloads, firstErr
			}
			if line != "" {
				if firstErr == nil {
					firstErr = &replayerr.Framing{Err: fmt.Errorf("expected blank line after Content-Length header, got %q", line)}
				}
				c.state = parsingContentLength
				continue
			}
			c.state = parsingContent
		case parsingContent:
			if c.buf.Len() < c.remaining {
				return payloads, firstErr
			}
			payload := make([]byte, c.remaining)
			if _, err := io.ReadFull(&c.buf, payload); err != nil {
				return payloads, err
			}
			payloads = append(payloads, payload)
			c.state = parsingContentLength
		}
	}
}

// takeHeaderLine extracts one "\r\n"-or-"\n"-terminated line from the
// front of the buffer without consuming bytes past it, returning ok=false
// if no full line is buffered yet.
func (c *Codec) takeHeaderLine() (string, bool) {
	b := c.buf.Bytes()
	idx := bytes.IndexByte(b, '\n')
	if idx < 0 {
		return "", false
	}
	line := string(b[:idx+1])
	c.buf.Next(idx + 1)
	return strings.TrimRight(line, "\r\n"), true
}

func parseContentLength(line string) (int, error) {
	if !strings.HasPrefix(line, headerPrefix) {
		return 0, fmt.Errorf("expected %q header, got %q", headerPrefix, line)
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, headerPrefix)))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid Content-Length value in %q", line)
	}
	return n, nil
}

// DecodeMessage unmarshals a frame payload into a bare envelope holding
// just the fields every DAP message shares, deferring full typed decoding
// to internal/dapproto.
func DecodeMessage(payload []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, &replayerr.Framing{Err: fmt.Errorf("payload is not valid JSON: %w", err)}
	}
	return env, nil
}

// Envelope captures the three message shapes spec §4.2 names, keeping
// only the fields needed to route before full typed decoding.
type Envelope struct {
	Seq        int64           `json:"seq"`
	Type       string          `json:"type"`
	Command    string          `json:"command,omitempty"`
	Event      string          `json:"event,omitempty"`
	RequestSeq int64           `json:"request_seq,omitempty"`
	Success    bool            `json:"success,omitempty"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
}

// Writer frames and writes outbound messages, flushing after each one
// (spec §4.2: "flushes after every message").
type Writer struct {
	w   *bufio.Writer
	seq int64
}

// NewWriter wraps w for framed writes.
func NewWriter(w io.Writer) *Writer { return &Writer{w: bufio.NewWriter(w)} }

// NextSeq returns the next outbound seq value and advances the counter —
// spec §4.2's "every message written is tagged with a monotonically
// increasing seq chosen by the sender".
func (wr *Writer) NextSeq() int64 {
	wr.seq++
	return wr.seq
}

// Write serialises v to JSON, frames it with a Content-Length header, and
// flushes immediately.
func (wr *Writer) Write(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode dap message: %w", err)
	}
	if _, err := fmt.Fprintf(wr.w, "Content-Length: %d\r\n\r\n", len(payload)); err != nil {
		return err
	}
	if _, err := wr.w.Write(payload); err != nil {
		return err
	}
	return wr.w.Flush()
}

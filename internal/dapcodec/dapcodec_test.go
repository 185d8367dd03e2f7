package dapcodec

import (
	"bytes"
	"testing"
)

func frame(payload string) []byte {
	var b bytes.Buffer
	b.WriteString("Content-Length: ")
	b.WriteString(itoa(len(payload)))
	b.WriteString("\r\n\r\n")
	b.WriteString(payload)
	return b.Bytes()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

func TestFeedSingleFrame(t *testing.T) {
	c := New()
	payloads, err := c.Feed(frame(`{"seq":1,"type":"request","command":"initialize"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payloads) != 1 {
		t.Fatalf("got %d payloads, want 1", len(payloads))
	}
	env, err := DecodeMessage(payloads[0])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Command != "initialize" || env.Type != "request" || env.Seq != 1 {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

// TestFeedAcrossArbitraryChunkBoundaries is the core streaming-safety
// property: the same bytes fed one at a time must produce the same
// messages as fed all at once.
func TestFeedAcrossArbitraryChunkBoundaries(t *testing.T) {
	raw := append(frame(`{"seq":1,"type":"request","command":"threads"}`),
		frame(`{"seq":2,"type":"event","event":"stopped"}`)...)

	c := New()
	var got [][]byte
	for i := 0; i < len(raw); i++ {
		out, err := c.Feed(raw[i : i+1])
		if err != nil {
			t.Fatalf("unexpected framing error at byte %d: %v", i, err)
		}
		got = append(got, out...)
	}
	if len(got) != 2 {
		t.Fatalf("got %d payloads across byte-at-a-time feed, want 2", len(got))
	}

	e1, _ := DecodeMessage(got[0])
	e2, _ := DecodeMessage(got[1])
	if e1.Command != "threads" || e2.Event != "stopped" {
		t.Fatalf("unexpected envelopes: %+v %+v", e1, e2)
	}
}

func TestFeedMultipleFramesInOneChunk(t *testing.T) {
	raw := append(frame(`{"seq":1,"type":"request","command":"a"}`),
		frame(`{"seq":2,"type":"request","command":"b"}`)...)
	c := New()
	payloads, err := c.Feed(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(payloads) != 2 {
		t.Fatalf("got %d payloads, want 2", len(payloads))
	}
}

func TestFeedGarbageBeforeHeaderIsFramingError(t *testing.T) {
	c := New()
	raw := append([]byte("garbage\r\n"), frame(`{"seq":1,"type":"request","command":"x"}`)...)
	payloads, err := c.Feed(raw)
	if err == nil {
		t.Fatal("expected a framing error for garbage before Content-Length")
	}
	if len(payloads) != 1 {
		t.Fatalf("codec should recover and still yield the well-formed frame, got %d payloads", len(payloads))
	}
}

func TestWriterFramesAndAssignsMonotonicSeq(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if s := w.NextSeq(); s != 1 {
		t.Fatalf("first seq = %d, want 1", s)
	}
	if s := w.NextSeq(); s != 2 {
		t.Fatalf("second seq = %d, want 2", s)
	}
	if err := w.Write(map[string]any{"seq": 3, "type": "event", "event": "initialized"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	c := New()
	payloads, err := c.Feed(buf.Bytes())
	if err != nil || len(payloads) != 1 {
		t.Fatalf("round trip failed: payloads=%d err=%v", len(payloads), err)
	}
	env, _ := DecodeMessage(payloads[0])
	if env.Event != "initialized" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

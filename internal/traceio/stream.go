package traceio

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Reader yields the low-level event stream one record at a time.
// Next returns io.EOF once the stream is exhausted.
type Reader interface {
	Next() (LowLevelEvent, error)
	Close() error
}

// OpenEventStream opens path and returns a Reader for its contents. The
// file format is chosen by filename per spec §6: a ".bin" extension reads
// the length-prefixed binary framing (see binaryReader); anything else —
// including unrecognised extensions — falls through to line-delimited JSON.
func OpenEventStream(path string) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace event stream %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".bin") {
		return &binaryReader{f: f, r: bufio.NewReader(f)}, nil
	}
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &jsonlReader{f: f, sc: sc}, nil
}

// jsonlReader reads the event stream as JSON Lines: one LowLevelEvent per
// line, blank lines skipped.
type jsonlReader struct {
	f  *os.File
	sc *bufio.Scanner
}

func (r *jsonlReader) Next() (LowLevelEvent, error) {
	for r.sc.Scan() {
		line := strings.TrimSpace(r.sc.Text())
		if line == "" {
			continue
		}
		var ev LowLevelEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return LowLevelEvent{}, fmt.Errorf("malformed trace record: %w", err)
		}
		return ev, nil
	}
	if err := r.sc.Err(); err != nil {
		return LowLevelEvent{}, err
	}
	return LowLevelEvent{}, io.EOF
}

func (r *jsonlReader) Close() error { return r.f.Close() }

// binaryReader reads the length-prefixed binary framing this rewrite
// defines for trace.bin (spec §9, Open Question (a)): each record is a
// one-byte Kind tag, a big-endian uint32 payload length, then that many
// bytes of JSON payload. This stands in for the external runtime-tracing
// crate's real wire format, which has no Go port in the corpus.
type binaryReader struct {
	f *os.File
	r *bufio.Reader
}

var binaryKindTags = map[byte]Kind{
	1: KindPath,
	2: KindFunction,
	3: KindType,
	4: KindVariableName,
	5: KindStep,
	6: KindCall,
	7: KindReturn,
	8: KindVariableWrite,
	9: KindEvent,
}

func (r *binaryReader) Next() (LowLevelEvent, error) {
	tag, err := r.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			return LowLevelEvent{}, io.EOF
		}
		return LowLevelEvent{}, fmt.Errorf("read trace.bin tag: %w", err)
	}
	kind, ok := binaryKindTags[tag]
	if !ok {
		return LowLevelEvent{}, fmt.Errorf("trace.bin: unknown record tag %d", tag)
	}
	var length uint32
	if err := binary.Read(r.r, binary.BigEndian, &length); err != nil {
		return LowLevelEvent{}, fmt.Errorf("read trace.bin length: %w", err)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return LowLevelEvent{}, fmt.Errorf("read trace.bin payload: %w", err)
	}
	return LowLevelEvent{Kind: kind, Data: payload}, nil
}

func (r *binaryReader) Close() error { return r.f.Close() }

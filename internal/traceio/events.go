// Package traceio reads a recorded trace off disk: the metadata descriptor
// and the low-level event stream (JSON or a length-prefixed binary
// framing), handing an ordered stream of low-level events to the database
// postprocessor. Grounded on the original engine's lib.rs/main.rs loading
// sequence; the wire shapes are this rewrite's own (see SPEC_FULL.md §9a).
package traceio

import (
	"encoding/json"

	"github.com/codetracer/db-backend/internal/value"
)

// Kind tags a LowLevelEvent's payload.
type Kind string

const (
	KindPath          Kind = "Path"
	KindFunction      Kind = "Function"
	KindType          Kind = "Type"
	KindVariableName  Kind = "VariableName"
	KindStep          Kind = "Step"
	KindCall          Kind = "Call"
	KindReturn        Kind = "Return"
	KindVariableWrite Kind = "VariableWrite"
	KindEvent         Kind = "Event"
)

// PathPayload interns a source file path.
type PathPayload struct {
	Path string `json:"path"`
}

// FunctionPayload interns a function declaration.
type FunctionPayload struct {
	Name       string   `json:"name"`
	PathIndex  int64    `json:"pathIndex"`
	Line       int64    `json:"line"`
	ParamNames []string `json:"paramNames,omitempty"`
}

// TypePayload interns a type descriptor.
type TypePayload struct {
	Kind     value.Kind `json:"kind"`
	LangType string     `json:"langType"`
	CType    string     `json:"cType"`
	Labels   []string   `json:"labels,omitempty"`
}

// VariableNamePayload interns a variable name.
type VariableNamePayload struct {
	Name string `json:"name"`
}

// StepPayload records one executed source line. CallKey is filled in by
// the postprocessor from the current call stack, not carried on the wire.
type StepPayload struct {
	PathIndex int64 `json:"pathIndex"`
	Line      int64 `json:"line"`
}

// ArgWritePayload is one argument binding recorded at call entry.
type ArgWritePayload struct {
	Name  string      `json:"name"`
	Value value.Value `json:"value"`
}

// CallPayload opens a new call frame; the postprocessor assigns depth,
// parent and entry step from the current call stack.
type CallPayload struct {
	FunctionIndex int64             `json:"functionIndex"`
	Args          []ArgWritePayload `json:"args,omitempty"`
}

// ReturnPayload closes the current call frame.
type ReturnPayload struct{}

// VariableWritePayload records a value bound to a variable at the current step.
type VariableWritePayload struct {
	VariableIndex int64       `json:"variableIndex"`
	Value         value.Value `json:"value"`
}

// EventPayload is a side-channel log/event-log entry, forwarded verbatim
// to the Event DB by the postprocessor (spec §3 "Event log entry").
type EventPayload struct {
	EventKind              string         `json:"eventKind"`
	Content                string         `json:"content"`
	RREventID              *int64         `json:"rrEventId,omitempty"`
	HighLevelPath          string         `json:"highLevelPath,omitempty"`
	HighLevelLine          int64          `json:"highLevelLine,omitempty"`
	FilenameMetadata       string         `json:"filenameMetadata,omitempty"`
	Bytes                  int64          `json:"bytes,omitempty"`
	StdoutFlag             bool           `json:"stdoutFlag,omitempty"`
	DirectLocationRRTicks  int64          `json:"directLocationRrTicks,omitempty"`
	TracepointResultIndex  int64          `json:"tracepointResultIndex,omitempty"`
	EventIndex             int64          `json:"eventIndex"`
}

// LowLevelEvent is one tagged record of the trace event stream.
type LowLevelEvent struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Decode unmarshals the payload for e's Kind into the matching payload
// struct. Callers type-switch via the returned any.
func (e LowLevelEvent) Decode() (any, error) {
	switch e.Kind {
	case KindPath:
		var p PathPayload
		return p, json.Unmarshal(e.Data, &p)
	case KindFunction:
		var p FunctionPayload
		return p, json.Unmarshal(e.Data, &p)
	case KindType:
		var p TypePayload
		return p, json.Unmarshal(e.Data, &p)
	case KindVariableName:
		var p VariableNamePayload
		return p, json.Unmarshal(e.Data, &p)
	case KindStep:
		var p StepPayload
		return p, json.Unmarshal(e.Data, &p)
	case KindCall:
		var p CallPayload
		return p, json.Unmarshal(e.Data, &p)
	case KindReturn:
		var p ReturnPayload
		return p, json.Unmarshal(e.Data, &p)
	case KindVariableWrite:
		var p VariableWritePayload
		return p, json.Unmarshal(e.Data, &p)
	case KindEvent:
		var p EventPayload
		return p, json.Unmarshal(e.Data, &p)
	default:
		return nil, &UnknownEventKindError{Kind: string(e.Kind)}
	}
}

// UnknownEventKindError is returned when the stream contains a tag this
// reader doesn't understand — a malformed-record load failure per spec §7.
type UnknownEventKindError struct{ Kind string }

func (e *UnknownEventKindError) Error() string {
	return "traceio: unknown low-level event kind " + e.Kind
}

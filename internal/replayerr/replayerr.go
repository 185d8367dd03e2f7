// Package replayerr defines the typed error kinds from spec §7. Each is a
// small concrete struct implementing error, following the teacher's and
// the original engine's preference for structs over sentinel strings so
// callers can branch on kind with errors.As instead of string matching.
package replayerr

import "fmt"

// Framing signals a malformed Content-Length header or non-JSON payload.
// Policy: log, drop the frame, keep reading.
type Framing struct{ Err error }

func (e *Framing) Error() string  { return fmt.Sprintf("framing error: %v", e.Err) }
func (e *Framing) Unwrap() error  { return e.Err }

// Protocol signals well-formed JSON that isn't a valid DAP message, or an
// unsupported command. Policy: respond success=false with Message.
type Protocol struct{ Message string }

func (e *Protocol) Error() string { return "protocol error: " + e.Message }

// Load signals a missing or malformed trace/metadata. Policy: fail the
// launch request, stay in Initialized state.
type Load struct {
	Dir string
	Err error
}

func (e *Load) Error() string { return fmt.Sprintf("load %q: %v", e.Dir, e.Err) }
func (e *Load) Unwrap() error { return e.Err }

// Evaluate signals a tracepoint or search evaluation failure at a step.
// Policy: surface as a Value{kind=Error} or a result-level message; the
// scan continues.
type Evaluate struct {
	Message string
}

func (e *Evaluate) Error() string { return "evaluate error: " + e.Message }

// Transport signals the peer closed the connection or an I/O failure.
// Policy: flush, remove rendezvous file, exit cleanly.
type Transport struct{ Err error }

func (e *Transport) Error() string { return fmt.Sprintf("transport error: %v", e.Err) }
func (e *Transport) Unwrap() error { return e.Err }

// InvalidID signals an out-of-range child/replay index in the backend
// manager. Policy: return a typed failing result.
type InvalidID struct{ ID int }

func (e *InvalidID) Error() string { return fmt.Sprintf("invalid id %d", e.ID) }

// OutOfRange documents a step/call/etc id outside its table. Query sites
// never construct or return this as an error — they report an "absent"
// zero value instead (spec §7 policy: "never trap") — this type exists so
// callers that want to log the boundary condition have a named shape to
// log rather than building an ad-hoc string.
type OutOfRange struct {
	What string
	ID   int64
}

func (e *OutOfRange) Error() string { return fmt.Sprintf("%s id %d out of range", e.What, e.ID) }

// Package dapproto wires github.com/google/go-dap's request/response/event
// types to the engine's commands, and defines the `ct/*` extension
// argument/body types spec §4.3 adds on top of the base DAP set (loadLocals,
// updateTable, flow, search). Grounded on the shape the docker-buildx DAP
// server (other_examples/bb68cae2_docker-buildx__dap-thread.go.go) builds
// go-dap events/bodies in: a concrete Go struct per body, embedded
// dap.Event/dap.Response for the envelope fields, assembled by hand rather
// than through any further indirection.
package dapproto

import "github.com/google/go-dap"

// Capabilities builds the initialize response body spec §4.3 names: every
// listed capability true, nothing conditional.
func Capabilities() dap.Capabilities {
	return dap.Capabilities{
		SupportsStepBack:                 true,
		SupportsConfigurationDoneRequest: true,
		SupportsLoadedSourcesRequest:     true,
		SupportsDisassembleRequest:       true,
		SupportsLogPoints:                true,
		SupportsRestartRequest:           true,
	}
}

// LaunchArguments is the ct-specific launch payload: a trace directory and
// a program label (spec §4.3 "launch").
type LaunchArguments struct {
	TraceDirectory string `json:"traceDirectory"`
	Program        string `json:"program,omitempty"`
}

// LoadLocalsArguments is `ct/loadLocals`'s argument body.
type LoadLocalsArguments struct {
	StepID int64 `json:"stepId"`
}

// LoadLocalsBody wraps the resolved locals as generic JSON-shaped values;
// the handler fills it from value.Value via its existing TextRepr/JSON tags.
type LoadLocalsBody struct {
	Locals []LocalValue `json:"locals"`
}

// LocalValue is one resolved variable binding.
type LocalValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

// UpdateTableArguments is `ct/updateTable`'s argument body, mirroring
// internal/eventdb.TableArgs field for field; the handler decodes into it
// and copies each field across to a TableArgs.
type UpdateTableArguments struct {
	Kind        string `json:"kind"`
	StartIndex  int    `json:"startIndex"`
	PageSize    int    `json:"pageSize"`
	ContentLike string `json:"contentLike,omitempty"`
	GroupByPath bool   `json:"groupByPath,omitempty"`
}

// FlowArguments is `ct/flow`'s argument body: the call to preload.
type FlowArguments struct {
	CallKey int64 `json:"callKey"`
}

// SearchArguments is `ct/search`'s argument body: a raw query string,
// parsed by internal/search.
type SearchArguments struct {
	Query string `json:"query"`
}

// StoppedEvent builds a `stopped` event body for the given reason (spec
// §4.4: "reason ∈ {step, breakpoint, entry, exception}").
func StoppedEvent(seq int, reason string, threadID int) *dap.StoppedEvent {
	return &dap.StoppedEvent{
		Event: dap.Event{ProtocolMessage: dap.ProtocolMessage{Seq: seq, Type: "event"}, Event: "stopped"},
		Body:  dap.StoppedEventBody{Reason: reason, ThreadId: threadID, AllThreadsStopped: true},
	}
}

// TerminatedEvent builds a `terminated` event for end-of-trace navigation
// (spec §4.4).
func TerminatedEvent(seq int) *dap.TerminatedEvent {
	return &dap.TerminatedEvent{
		Event: dap.Event{ProtocolMessage: dap.ProtocolMessage{Seq: seq, Type: "event"}, Event: "terminated"},
	}
}

// InitializedEvent builds the `initialized` event sent after a successful
// `initialize` response (spec §4.3).
func InitializedEvent(seq int) *dap.InitializedEvent {
	return &dap.InitializedEvent{
		Event: dap.Event{ProtocolMessage: dap.ProtocolMessage{Seq: seq, Type: "event"}, Event: "initialized"},
	}
}

// Package handler implements the dispatcher from spec §4.3: a pure
// request-in, (responses, events)-out function over the Database and its
// derived caches, plus the navigation rules from spec §4.4. Grounded on
// the docker-buildx DAP server (other_examples/bb68cae2_docker-buildx__dap-thread.go.go)
// for how a thread/session owns per-call state and builds go-dap typed
// bodies by hand. The command table and state machine itself has no
// original_source file to check against (no backend-loop-equivalent
// source was retrieved into the pack); it's reasoned directly from spec
// §4.3's explicit state table. Argument validation uses internal/schemadoc
// (spec §4.3a); persisted run state uses internal/transport.RunDir
// (spec §4.2a), grounded on original_source's sender.rs write-then-notify
// discipline.
package handler

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/google/go-dap"

	"github.com/codetracer/db-backend/internal/dapcodec"
	"github.com/codetracer/db-backend/internal/dapproto"
	"github.com/codetracer/db-backend/internal/database"
	"github.com/codetracer/db-backend/internal/eventdb"
	"github.com/codetracer/db-backend/internal/exprloader"
	"github.com/codetracer/db-backend/internal/flow"
	"github.com/codetracer/db-backend/internal/ids"
	"github.com/codetracer/db-backend/internal/replayerr"
	"github.com/codetracer/db-backend/internal/schemadoc"
	"github.com/codetracer/db-backend/internal/search"
	"github.com/codetracer/db-backend/internal/steplines"
	"github.com/codetracer/db-backend/internal/tracepoint"
	"github.com/codetracer/db-backend/internal/transport"
)

// State is the dispatcher's state machine (spec §4.3).
type State int

const (
	Uninitialized State = iota
	Initialized
	Configured
	Launched
	Running
)

const threadID = 1

// Handler owns everything spec §4.3 lists: the Database, the current
// StepId/CallKey, and every derived-view cache, plus the dispatcher state
// and an outbound seq counter.
type Handler struct {
	state State
	seq   int

	db          *database.Database
	stepID      ids.StepId
	callKey     ids.CallKey
	flowPre     *flow.Preloader
	stepLines   *steplines.Loader
	exprs       *exprloader.Loader
	events      *eventdb.EventDb
	tp          *tracepoint.Interpreter
	breakpoints []Breakpoint

	runDir   *transport.RunDir
	eventSeq int
}

// New creates an uninitialized Handler.
func New() *Handler {
	return &Handler{exprs: exprloader.New(), tp: tracepoint.New()}
}

// UseRunDir enables persisting every request's arguments and every emitted
// event into dir (spec §4.2a), mirroring original_source's sender.rs
// write-then-notify discipline. Optional — a Handler with no RunDir simply
// skips persistence, which is what most tests in this package rely on.
func (h *Handler) UseRunDir(dir *transport.RunDir) {
	h.runDir = dir
}

func (h *Handler) nextSeq() int {
	h.seq++
	return h.seq
}

// persistArgs writes env's raw arguments to runDir/args/<command>-<seq>.json,
// if a RunDir is attached; a "/" in the command becomes "_" in the file name.
func (h *Handler) persistArgs(env dapcodec.Envelope) {
	if h.runDir == nil || len(env.Arguments) == 0 {
		return
	}
	taskID := strings.ReplaceAll(env.Command, "/", "_") + "-" + strconv.FormatInt(env.Seq, 10)
	if err := h.runDir.WriteArgs(taskID, env.Arguments); err != nil {
		fmt.Fprintln(os.Stderr, "persist args:", err)
	}
}

// persistEvents writes each emitted event body to runDir/events/<id>.json
// in emission order, if a RunDir is attached.
func (h *Handler) persistEvents(events []any) {
	if h.runDir == nil {
		return
	}
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			continue
		}
		h.eventSeq++
		if err := h.runDir.WriteEvent(strconv.Itoa(h.eventSeq), data); err != nil {
			fmt.Fprintln(os.Stderr, "persist event:", err)
		}
	}
}

// Handle processes one inbound envelope to completion and returns the
// responses and events it produces, strictly response(s) before any event
// they cause (spec §5 "Ordering").
func (h *Handler) Handle(env dapcodec.Envelope) (responses []any, events []any) {
	if env.Type != "request" {
		return nil, nil
	}

	h.persistArgs(env)

	resp, extraEvents, err := h.dispatch(env)
	if err != nil {
		resp = h.failResponse(env, err.Error())
	}
	responses = append(responses, resp)
	events = append(events, extraEvents...)
	h.persistEvents(events)
	return responses, events
}

func (h *Handler) dispatch(env dapcodec.Envelope) (*dap.Response, []any, error) {
	// spec §4.3a: a ct/* request's arguments are validated against their
	// jsonschema-compiled schema before ever reaching json.Unmarshal into a
	// concrete Go struct; a violation becomes a Protocol error response.
	if err := schemadoc.ValidateArguments(env.Command, env.Arguments); err != nil {
		return h.failResponse(env, (&replayerr.Protocol{Message: err.Error()}).Error()), nil, nil
	}

	switch env.Command {
	case "initialize":
		return h.handleInitialize(env)
	case "launch":
		return h.handleLaunch(env)
	case "configurationDone":
		return h.requireState(env, Initialized, func() (*dap.Response, []any, error) {
			h.state = Configured
			return h.okResponse(env, nil), nil, nil
		})
	case "threads":
		return h.handleThreads(env)
	case "stackTrace":
		return h.requireLaunched(env, h.handleStackTrace)
	case "scopes":
		return h.requireLaunched(env, h.handleScopes)
	case "variables":
		return h.requireLaunched(env, h.handleVariables)
	case "setBreakpoints":
		return h.requireLaunched(env, h.handleSetBreakpoints)
	case "continue":
		return h.requireLaunched(env, h.navigate(h.continueForward))
	case "reverseContinue":
		return h.requireLaunched(env, h.navigate(h.continueBackward))
	case "next":
		return h.requireLaunched(env, h.navigate(h.stepOverForward))
	case "stepBack":
		return h.requireLaunched(env, h.navigate(h.stepOverBackward))
	case "stepIn":
		return h.requireLaunched(env, h.navigate(h.stepInto))
	case "stepInReverse":
		return h.requireLaunched(env, h.navigate(h.stepIntoBackward))
	case "stepOut":
		return h.requireLaunched(env, h.navigate(h.stepOut))
	case "stepOutReverse":
		return h.requireLaunched(env, h.navigate(h.stepOutBackward))
	case "ct/loadLocals":
		return h.requireLaunched(env, h.handleLoadLocals)
	case "ct/updateTable":
		return h.requireLaunched(env, h.handleUpdateTable)
	case "ct/flow":
		return h.requireLaunched(env, h.handleFlow)
	case "ct/search":
		return h.requireLaunched(env, h.handleSearch)
	default:
		return h.failResponse(env, "not supported"), nil, nil
	}
}

type handlerFn func(env dapcodec.Envelope) (*dap.Response, []any, error)

// requireState rejects cmd unless h.state == want, per spec §4.3's
// "invalid command for the current state surfaces a failing response;
// it is never fatal".
func (h *Handler) requireState(env dapcodec.Envelope, want State, fn handlerFn) (*dap.Response, []any, error) {
	if h.state != want {
		return h.failResponse(env, fmt.Sprintf("command %q invalid in current state", env.Command)), nil, nil
	}
	return fn(env)
}

// requireLaunched rejects cmd unless the dispatcher is Launched or later
// (spec §4.3: "Step/inspection commands are valid only in Launched and
// later").
func (h *Handler) requireLaunched(env dapcodec.Envelope, fn handlerFn) (*dap.Response, []any, error) {
	if h.state != Launched && h.state != Running {
		return h.failResponse(env, fmt.Sprintf("command %q requires an active launch", env.Command)), nil, nil
	}
	return fn(env)
}

func (h *Handler) okResponse(env dapcodec.Envelope, body any) *dap.Response {
	return &dap.Response{
		ProtocolMessage: dap.ProtocolMessage{Seq: h.nextSeq(), Type: "response"},
		RequestSeq:      int(env.Seq),
		Success:         true,
		Command:         env.Command,
		Body:            body,
	}
}

func (h *Handler) failResponse(env dapcodec.Envelope, message string) *dap.Response {
	return &dap.Response{
		ProtocolMessage: dap.ProtocolMessage{Seq: h.nextSeq(), Type: "response"},
		RequestSeq:      int(env.Seq),
		Success:         false,
		Command:         env.Command,
		Message:         message,
	}
}

func (h *Handler) handleInitialize(env dapcodec.Envelope) (*dap.Response, []any, error) {
	h.state = Initialized
	resp := h.okResponse(env, dapproto.Capabilities())
	return resp, []any{dapproto.InitializedEvent(h.nextSeq())}, nil
}

func (h *Handler) handleLaunch(env dapcodec.Envelope) (*dap.Response, []any, error) {
	var args dapproto.LaunchArguments
	if err := json.Unmarshal(env.Arguments, &args); err != nil {
		return h.failResponse(env, "malformed launch arguments"), nil, nil
	}
	db, events, err := database.Load(args.TraceDirectory)
	if err != nil {
		// spec §4.3/§7 Load: "Respond launch with failure; stay in
		// Initialized."
		return h.failResponse(env, (&replayerr.Load{Dir: args.TraceDirectory, Err: err}).Error()), nil, nil
	}

	h.db = db
	h.stepID = 0
	h.callKey = db.CallKeyForStep(0)
	h.flowPre = flow.New(h.exprs)
	h.stepLines = steplines.New(db, h.flowPre)
	h.events = eventdb.New()
	h.events.RegisterEvents("trace", events)
	h.state = Launched

	return h.okResponse(env, nil), nil, nil
}

func (h *Handler) handleThreads(env dapcodec.Envelope) (*dap.Response, []any, error) {
	return h.okResponse(env, dap.ThreadsResponseBody{
		Threads: []dap.Thread{{Id: threadID, Name: "main"}},
	}), nil, nil
}

// handleStackTrace walks parent links from the current CallKey up to the
// root, producing one frame per call (spec §4.3 "stackTrace").
func (h *Handler) handleStackTrace(env dapcodec.Envelope) (*dap.Response, []any, error) {
	var frames []dap.StackFrame
	for key := h.callKey; ; {
		call, ok := h.db.CallAt(key)
		if !ok {
			break
		}
		fn, _ := h.db.FunctionAt(call.FunctionID)
		loc := h.db.LoadLocation(h.stepID, key)
		frames = append(frames, dap.StackFrame{
			Id:     int(key),
			Name:   fn.Name,
			Line:   int(loc.Line),
			Source: &dap.Source{Path: loc.Path},
		})
		if key == ids.RootCall {
			break
		}
		key = call.ParentKey
	}
	return h.okResponse(env, dap.StackTraceResponseBody{
		StackFrames: frames,
		TotalFrames: len(frames),
	}), nil, nil
}

func (h *Handler) handleScopes(env dapcodec.Envelope) (*dap.Response, []any, error) {
	return h.okResponse(env, dap.ScopesResponseBody{
		Scopes: []dap.Scope{{Name: "Locals", VariablesReference: int(h.callKey) + 1}},
	}), nil, nil
}

func (h *Handler) handleVariables(env dapcodec.Envelope) (*dap.Response, []any, error) {
	locals := h.resolveLocals(h.stepID)
	vars := make([]dap.Variable, len(locals))
	for i, l := range locals {
		vars[i] = dap.Variable{Name: l.Name, Value: l.Value, Type: l.Type}
	}
	return h.okResponse(env, dap.VariablesResponseBody{Variables: vars}), nil, nil
}

// resolveLocals snapshots every variable's value visible at step s: the
// most recent write (scanning 0..s) made by s's call or an ancestor of it.
func (h *Handler) resolveLocals(s ids.StepId) []dapproto.LocalValue {
	step, ok := h.db.StepAt(s)
	if !ok {
		return nil
	}
	byName := make(map[string]dapproto.LocalValue)
	for cur := ids.StepId(0); cur <= s; cur++ {
		cs, ok := h.db.StepAt(cur)
		if !ok || !h.db.AncestorOrSelf(step.CallKey, cs.CallKey) {
			continue
		}
		for _, w := range h.db.WritesAt(cur) {
			name, ok := h.db.VariableNameAt(w.VariableID)
			if !ok {
				continue
			}
			byName[name] = dapproto.LocalValue{Name: name, Value: w.Value.TextRepr(), Type: w.Value.Typ.LangType}
		}
	}

	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]dapproto.LocalValue, 0, len(names))
	for _, n := range names {
		out = append(out, byName[n])
	}
	return out
}

func (h *Handler) handleSetBreakpoints(env dapcodec.Envelope) (*dap.Response, []any, error) {
	var args dap.SetBreakpointsArguments
	if err := json.Unmarshal(env.Arguments, &args); err != nil {
		return h.failResponse(env, "malformed setBreakpoints arguments"), nil, nil
	}
	path := ""
	if args.Source.Path != "" {
		path = args.Source.Path
	}
	h.breakpoints = h.breakpoints[:0]
	verified := make([]dap.Breakpoint, len(args.Breakpoints))
	for i, bp := range args.Breakpoints {
		h.breakpoints = append(h.breakpoints, Breakpoint{Path: path, Line: int64(bp.Line)})
		verified[i] = dap.Breakpoint{Verified: true, Line: bp.Line}
	}
	return h.okResponse(env, dap.SetBreakpointsResponseBody{Breakpoints: verified}), nil, nil
}

// navigate adapts a navResult-returning movement function into a
// handlerFn, building the response and the stopped/terminated event per
// spec §5's ordering rule: response(success) before any event it causes.
func (h *Handler) navigate(move func() navResult) handlerFn {
	return func(env dapcodec.Envelope) (*dap.Response, []any, error) {
		h.state = Running
		res := move()
		resp := h.okResponse(env, nil)
		if res.terminated {
			return resp, []any{dapproto.TerminatedEvent(h.nextSeq())}, nil
		}
		return resp, []any{dapproto.StoppedEvent(h.nextSeq(), res.reason, threadID)}, nil
	}
}

func (h *Handler) handleLoadLocals(env dapcodec.Envelope) (*dap.Response, []any, error) {
	var args dapproto.LoadLocalsArguments
	if err := json.Unmarshal(env.Arguments, &args); err != nil {
		return h.failResponse(env, "malformed ct/loadLocals arguments"), nil, nil
	}
	locals := h.resolveLocals(ids.StepId(args.StepID))
	return h.okResponse(env, dapproto.LoadLocalsBody{Locals: locals}), nil, nil
}

func (h *Handler) handleUpdateTable(env dapcodec.Envelope) (*dap.Response, []any, error) {
	var args dapproto.UpdateTableArguments
	if err := json.Unmarshal(env.Arguments, &args); err != nil {
		return h.failResponse(env, "malformed ct/updateTable arguments"), nil, nil
	}
	table := h.events.UpdateTableToJSON(eventdb.TableArgs{
		Kind:        args.Kind,
		StartIndex:  args.StartIndex,
		PageSize:    args.PageSize,
		ContentLike: args.ContentLike,
		GroupByPath: args.GroupByPath,
	})
	return h.okResponse(env, table), nil, nil
}

func (h *Handler) handleFlow(env dapcodec.Envelope) (*dap.Response, []any, error) {
	var args dapproto.FlowArguments
	callKey := h.callKey
	if len(env.Arguments) > 0 {
		if err := json.Unmarshal(env.Arguments, &args); err == nil && args.CallKey != 0 {
			callKey = ids.CallKey(args.CallKey)
		}
	}
	update := h.flowPre.Load(h.db, callKey)
	return h.okResponse(env, update), nil, nil
}

func (h *Handler) handleSearch(env dapcodec.Envelope) (*dap.Response, []any, error) {
	var args dapproto.SearchArguments
	if err := json.Unmarshal(env.Arguments, &args); err != nil {
		return h.failResponse(env, "malformed ct/search arguments"), nil, nil
	}
	results := search.Search(h.db, h.exprs, args.Query)
	return h.okResponse(env, struct {
		Results []search.CommandPanelResult `json:"results"`
	}{results}), nil, nil
}

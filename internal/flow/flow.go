// Package flow implements the Flow preloader: for a given call, it produces
// a FlowUpdate mapping each visited source line to the values its
// identifiers held just before the line ran (the most recent earlier write
// in the call's scope chain) — the "omniscient" per-function view of
// spec §4.5. Results are memoised per CallKey; the preloader is lazy and
// never mutates the Database.
package flow

import (
	"github.com/codetracer/db-backend/internal/database"
	"github.com/codetracer/db-backend/internal/exprloader"
	"github.com/codetracer/db-backend/internal/ids"
	"github.com/codetracer/db-backend/internal/value"
)

// ExprValue pairs an expression (here, always a bare identifier) with the
// value it held at a FlowStep.
type ExprValue struct {
	Expression string      `json:"expression"`
	Value      value.Value `json:"value"`
}

// FlowStep is one visited step within a call's flow view.
type FlowStep struct {
	RRTicks      ids.StepId  `json:"rrTicks"`
	Line         int64       `json:"line"`
	CallKey      ids.CallKey `json:"callKey"`
	BeforeValues []ExprValue `json:"beforeValues"`
}

// LoopIteration groups the step ids of one repeated-line iteration,
// synthesised by detecting repeated (path, line) pairs within the call.
type LoopIteration struct {
	Line  int64        `json:"line"`
	Steps []ids.StepId `json:"steps"`
}

// FlowViewUpdate is one function's flow view — today the engine only ever
// produces a single view per call, but the shape carries a slice to match
// spec §4.5 (a future multi-frame/inlined view would append more).
type FlowViewUpdate struct {
	FunctionFirst  int64           `json:"functionFirst"`
	Steps          []FlowStep      `json:"steps"`
	LoopIterations []LoopIteration `json:"loopIterations"`
}

// FlowUpdate is the top-level result of Load.
type FlowUpdate struct {
	Error        bool             `json:"error"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
	ViewUpdates  []FlowViewUpdate `json:"viewUpdates"`
}

func errorUpdate(msg string) FlowUpdate {
	return FlowUpdate{Error: true, ErrorMessage: msg}
}

// Preloader caches FlowUpdates by CallKey, per spec §4.5's memoisation
// contract: re-requesting the same call returns the identical artefact
// without recomputation.
type Preloader struct {
	exprs *exprloader.Loader
	cache map[ids.CallKey]FlowUpdate
}

// New creates a Preloader backed by the given expression loader (shared
// with the Handler so source files are only read once).
func New(exprs *exprloader.Loader) *Preloader {
	return &Preloader{exprs: exprs, cache: make(map[ids.CallKey]FlowUpdate)}
}

// Load returns the FlowUpdate for callKey, computing and caching it on
// first request.
func (p *Preloader) Load(db *database.Database, callKey ids.CallKey) FlowUpdate {
	if cached, ok := p.cache[callKey]; ok {
		return cached
	}
	update := p.compute(db, callKey)
	p.cache[callKey] = update
	return update
}

func (p *Preloader) compute(db *database.Database, callKey ids.CallKey) FlowUpdate {
	call, ok := db.CallAt(callKey)
	if !ok {
		return errorUpdate("unknown call")
	}
	fn, ok := db.FunctionAt(call.FunctionID)
	if !ok {
		return errorUpdate("unknown function")
	}
	lastStep := call.LastStep(db.LastStepID())
	if lastStep < call.EntryStep {
		return FlowUpdate{ViewUpdates: []FlowViewUpdate{{FunctionFirst: fn.Line}}}
	}

	path := db.PathOf(fn.PathID)
	lang := exprloader.LangFromPath(path)

	var steps []FlowStep
	seenLine := map[int64][]ids.StepId{}

	for s := call.EntryStep; s <= lastStep; s++ {
		step, ok := db.StepAt(s)
		if !ok || step.CallKey != callKey {
			continue
		}
		names := p.exprs.Identifiers(db.PathOf(step.PathID), step.Line, lang)
		before := make([]ExprValue, 0, len(names))
		for _, name := range names {
			v, found := mostRecentWrite(db, s-1, callKey, name)
			if found {
				before = append(before, ExprValue{Expression: name, Value: v})
			}
		}
		steps = append(steps, FlowStep{RRTicks: s, Line: step.Line, CallKey: step.CallKey, BeforeValues: before})
		seenLine[step.Line] = append(seenLine[step.Line], s)
	}

	var loops []LoopIteration
	for line, stepIDs := range seenLine {
		if len(stepIDs) > 1 {
			loops = append(loops, LoopIteration{Line: line, Steps: stepIDs})
		}
	}

	return FlowUpdate{
		ViewUpdates: []FlowViewUpdate{{
			FunctionFirst:  fn.Line,
			Steps:          steps,
			LoopIterations: loops,
		}},
	}
}

// mostRecentWrite scans backward from fromStep (inclusive) for the most
// recent VariableWrite named name whose step lies within the call's scope
// chain — the call itself or an ancestor, per spec §4.5 step 3. Callers
// pass fromStep = currentStep-1 so a FlowStep's BeforeValues reflect the
// most recent *prior* write, not one made while executing the line itself.
func mostRecentWrite(db *database.Database, fromStep ids.StepId, callKey ids.CallKey, name string) (value.Value, bool) {
	for s := fromStep; s >= 0; s-- {
		writeStep, ok := db.StepAt(s)
		if !ok {
			break
		}
		if !db.AncestorOrSelf(callKey, writeStep.CallKey) {
			continue
		}
		for _, w := range db.WritesAt(s) {
			if wname, ok := db.VariableNameAt(w.VariableID); ok && wname == name {
				return w.Value, true
			}
		}
	}
	return value.Value{}, false
}

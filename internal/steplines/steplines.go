// Package steplines implements the Step-lines loader: given a centre step
// and a backward/forward window, it produces the linearised execution view
// with synthetic Call/Return markers injected at call-depth transitions —
// spec §4.6.
package steplines

import (
	"fmt"

	"github.com/codetracer/db-backend/internal/database"
	"github.com/codetracer/db-backend/internal/flow"
	"github.com/codetracer/db-backend/internal/ids"
)

// Kind tags a LineStep as a real executed line or a synthetic marker.
type Kind string

const (
	KindLine   Kind = "Line"
	KindCall   Kind = "Call"
	KindReturn Kind = "Return"
)

// LineStep is one entry of a step-lines window.
type LineStep struct {
	Kind       Kind              `json:"kind"`
	Delta      int64             `json:"delta"`
	Location   database.Location `json:"location"`
	SourceLine string            `json:"sourceLine"`
	Values     []flow.ExprValue  `json:"values"`
}

// Loader maintains a global per-step LineStep cache, lazily enriched by the
// Flow preloader the first time a step's call is visited (spec §4.6
// "cross-reference").
type Loader struct {
	db       *database.Database
	flowPre  *flow.Preloader
	bySource map[ids.StepId]string

	// cache holds one real (non-synthetic) LineStep per step, memoised so
	// repeated windows over the same steps don't re-derive Values.
	cache map[ids.StepId]LineStep
}

// New creates a Loader over db, sharing the given Flow preloader so a
// step's Values are filled from the same memoised per-call computation
// ct/flow uses.
func New(db *database.Database, flowPre *flow.Preloader) *Loader {
	return &Loader{
		db:       db,
		flowPre:  flowPre,
		bySource: make(map[ids.StepId]string),
		cache:    make(map[ids.StepId]LineStep),
	}
}

// SetSourceLine lets callers supply the literal source text for a step
// without this package depending on exprloader directly — it only needs
// whatever line text the caller has already read. A step with no line set
// gets an empty SourceLine.
func (l *Loader) SetSourceLine(step ids.StepId, line string) {
	l.bySource[step] = line
}

// Load produces the contiguous window [centre-backward, centre+forward]
// ordered by step id, with Delta relative to centre, injecting synthetic
// Call/Return LineSteps at every call-depth transition between consecutive
// real steps (spec §4.6).
func (l *Loader) Load(centre ids.StepId, backward, forward int64) []LineStep {
	lastStep := l.db.LastStepID()
	if lastStep < 0 {
		return nil
	}
	start := centre - ids.StepId(backward)
	if start < 0 {
		start = 0
	}
	end := centre + ids.StepId(forward)
	if end > lastStep {
		end = lastStep
	}
	if start > end {
		return nil
	}

	var out []LineStep
	havePrev := false
	var prevCall ids.CallKey
	for s := start; s <= end; s++ {
		real, ok := l.realLineStep(s)
		if !ok {
			continue
		}
		currentCall := l.db.CallKeyForStep(s)
		if havePrev && currentCall != prevCall {
			out = append(out, l.transitionMarkers(s, prevCall, currentCall, centre)...)
		}
		real.Delta = int64(s - centre)
		out = append(out, real)
		prevCall = currentCall
		havePrev = true
	}
	return out
}

// realLineStep returns the (cached) LineStep for one real executed step,
// computing its Values from the Flow preloader on first access.
func (l *Loader) realLineStep(s ids.StepId) (LineStep, bool) {
	if cached, ok := l.cache[s]; ok {
		return cached, true
	}
	step, ok := l.db.StepAt(s)
	if !ok {
		return LineStep{}, false
	}
	loc := l.db.LoadLocation(s, ids.NoCall)
	values := l.valuesForStep(s, step.CallKey)
	ls := LineStep{
		Kind:       KindLine,
		Location:   loc,
		SourceLine: l.bySource[s],
		Values:     values,
	}
	l.cache[s] = ls
	return ls, true
}

// valuesForStep pulls the BeforeValues the Flow preloader computed for this
// step's line from its call's (memoised) FlowUpdate.
func (l *Loader) valuesForStep(s ids.StepId, callKey ids.CallKey) []flow.ExprValue {
	if l.flowPre == nil {
		return nil
	}
	update := l.flowPre.Load(l.db, callKey)
	for _, view := range update.ViewUpdates {
		for _, fs := range view.Steps {
			if fs.RRTicks == s {
				return fs.BeforeValues
			}
		}
	}
	return nil
}

// transitionMarkers builds the synthetic LineSteps belonging between a
// previous real step (in call prevCall) and the next real step at causeStep
// (in call nextCall). A deeper nextCall means the next step entered one or
// more new calls (each gets a Call marker, outermost first); a shallower
// nextCall means one or more calls returned (each gets a Return marker,
// innermost first) — spec §4.6's "every transition in call depth ...
// injects a synthetic LineStep ... immediately before the step that causes
// the transition".
func (l *Loader) transitionMarkers(causeStep ids.StepId, prevCall, nextCall ids.CallKey, centre ids.StepId) []LineStep {
	prevDepth := l.depthOf(prevCall)
	nextDepth := l.depthOf(nextCall)

	var out []LineStep
	if nextDepth > prevDepth {
		for _, key := range l.pathFromAncestor(nextCall, prevDepth) {
			out = append(out, l.marker(KindCall, key, causeStep, centre))
		}
	} else if nextDepth < prevDepth {
		for _, key := range l.pathFromAncestor(prevCall, nextDepth) {
			out = append(out, l.marker(KindReturn, key, causeStep, centre))
		}
	}
	return out
}

// pathFromAncestor walks key's ParentKey chain up to (but not including) the
// ancestor at targetDepth, returning the chain outermost-first.
func (l *Loader) pathFromAncestor(key ids.CallKey, targetDepth int) []ids.CallKey {
	var chain []ids.CallKey
	for {
		call, ok := l.db.CallAt(key)
		if !ok || call.Depth <= targetDepth {
			break
		}
		chain = append(chain, key)
		key = call.ParentKey
	}
	// reverse to outermost-first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

func (l *Loader) depthOf(key ids.CallKey) int {
	call, ok := l.db.CallAt(key)
	if !ok {
		return 0
	}
	return call.Depth
}

func (l *Loader) marker(kind Kind, callKey ids.CallKey, causeStep ids.StepId, centre ids.StepId) LineStep {
	call, _ := l.db.CallAt(callKey)
	fn, _ := l.db.FunctionAt(call.FunctionID)
	var text string
	if kind == KindCall {
		text = fmt.Sprintf("call %s", fn.Name)
	} else {
		text = fmt.Sprintf("return from call %s", fn.Name)
	}
	loc := l.db.LoadLocation(causeStep, callKey)
	return LineStep{
		Kind:       kind,
		Delta:      int64(causeStep - centre),
		Location:   loc,
		SourceLine: text,
	}
}

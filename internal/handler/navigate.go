package handler

import (
	"github.com/codetracer/db-backend/internal/database"
	"github.com/codetracer/db-backend/internal/ids"
)

// Breakpoint is a {path, line} predicate consulted on every advance
// (spec §4.3 "setBreakpoints").
type Breakpoint struct {
	Path string
	Line int64
}

// navResult is what a navigation command produces, before it's turned
// into a stopped/terminated event.
type navResult struct {
	reason     string // "step", "breakpoint", "entry"
	terminated bool
}

func (h *Handler) atBreakpoint(s ids.StepId) bool {
	step, ok := h.db.StepAt(s)
	if !ok {
		return false
	}
	loc := h.db.LoadLocation(s, ids.NoCall)
	for _, bp := range h.breakpoints {
		if bp.Path == loc.Path && bp.Line == step.Line {
			return true
		}
	}
	return false
}

// continueForward advances S until a breakpoint line matches, or
// end-of-trace (spec §4.4 "continue forward").
func (h *Handler) continueForward() navResult {
	last := h.db.LastStepID()
	for s := h.stepID + 1; s <= last; s++ {
		if h.atBreakpoint(s) {
			h.moveTo(s)
			return navResult{reason: "breakpoint"}
		}
	}
	h.stepID = last + 1
	return navResult{terminated: true}
}

// continueBackward is continueForward's reverse symmetric: decrementing S,
// breakpoints consulted the same way (spec §4.4 "reverse variants").
func (h *Handler) continueBackward() navResult {
	if h.stepID <= 0 {
		return navResult{reason: "entry"}
	}
	for s := h.stepID - 1; s >= 0; s-- {
		if h.atBreakpoint(s) {
			h.moveTo(s)
			return navResult{reason: "breakpoint"}
		}
	}
	h.moveTo(0)
	return navResult{reason: "entry"}
}

// stepOverForward advances S to the next step whose call key is C or an
// ancestor of C — i.e. skips deeper frames (spec §4.4 "step over").
func (h *Handler) stepOverForward() navResult {
	last := h.db.LastStepID()
	c := h.callKey
	for s := h.stepID + 1; s <= last; s++ {
		step, ok := h.db.StepAt(s)
		if ok && h.db.AncestorOrSelf(c, step.CallKey) {
			h.moveTo(s)
			return navResult{reason: "step"}
		}
	}
	h.stepID = last + 1
	return navResult{terminated: true}
}

func (h *Handler) stepOverBackward() navResult {
	if h.stepID <= 0 {
		return navResult{reason: "entry"}
	}
	c := h.callKey
	for s := h.stepID - 1; s >= 0; s-- {
		step, ok := h.db.StepAt(s)
		if ok && h.db.AncestorOrSelf(c, step.CallKey) {
			h.moveTo(s)
			return navResult{reason: "step"}
		}
	}
	h.moveTo(0)
	return navResult{reason: "entry"}
}

// stepInto advances S by exactly 1 (spec §4.4 "step into").
func (h *Handler) stepInto() navResult {
	last := h.db.LastStepID()
	if h.stepID+1 > last {
		h.stepID = last + 1
		return navResult{terminated: true}
	}
	h.moveTo(h.stepID + 1)
	return navResult{reason: "step"}
}

func (h *Handler) stepIntoBackward() navResult {
	if h.stepID <= 0 {
		return navResult{reason: "entry"}
	}
	h.moveTo(h.stepID - 1)
	return navResult{reason: "step"}
}

// stepOut runs to call[C].return_step + 1, or to end if the call hasn't
// returned yet (spec §4.4 "step out").
func (h *Handler) stepOut() navResult {
	call, ok := h.db.CallAt(h.callKey)
	if !ok || !call.HasReturn {
		last := h.db.LastStepID()
		h.stepID = last + 1
		return navResult{terminated: true}
	}
	target := call.ReturnStep + 1
	last := h.db.LastStepID()
	if target > last {
		h.stepID = last + 1
		return navResult{terminated: true}
	}
	h.moveTo(target)
	return navResult{reason: "step"}
}

// stepOutBackward re-enters the call at its entry step, the reverse of
// running to return_step+1.
func (h *Handler) stepOutBackward() navResult {
	call, ok := h.db.CallAt(h.callKey)
	if !ok {
		return h.continueBackward()
	}
	if call.EntryStep == 0 && h.stepID == 0 {
		return navResult{reason: "entry"}
	}
	h.moveTo(call.EntryStep)
	return navResult{reason: "step"}
}

func (h *Handler) moveTo(s ids.StepId) {
	h.stepID = s
	h.callKey = h.db.CallKeyForStep(s)
}

func (h *Handler) currentLocation() database.Location {
	return h.db.LoadLocation(h.stepID, ids.NoCall)
}

// Package database implements the in-memory, read-only-after-construction
// trace database: steps, calls, functions, paths, types, variable names and
// per-step value records, plus the event log side-channel.
package database

import (
	"path/filepath"

	"github.com/codetracer/db-backend/internal/ids"
	"github.com/codetracer/db-backend/internal/value"
)

// Step is the smallest replay unit: one executed source line.
type Step struct {
	PathID  ids.PathId
	Line    int64
	CallKey ids.CallKey
}

// ArgWrite records a value bound to a call's parameter at entry.
type ArgWrite struct {
	Name  string
	Value value.Value
}

// Call is one function activation.
type Call struct {
	FunctionID ids.FunctionId
	ParentKey  ids.CallKey
	Depth      int
	EntryStep  ids.StepId
	// ReturnStep is the last step of the call. HasReturn is false while the
	// call is still open (return_step not yet observed in the trace).
	ReturnStep ids.StepId
	HasReturn  bool
	Args       []ArgWrite
}

// LastStep returns the call's final step: ReturnStep if set, else lastStep
// (the last step of the whole trace), matching spec §3's
// "[entry_step, return_step ?? last_step]".
func (c Call) LastStep(lastStep ids.StepId) ids.StepId {
	if c.HasReturn {
		return c.ReturnStep
	}
	return lastStep
}

// Function is an interned function declaration.
type Function struct {
	Name       string
	PathID     ids.PathId
	Line       int64
	ParamNames []string
}

// VariableWrite records one assignment observed at a step.
type VariableWrite struct {
	StepID     ids.StepId
	VariableID ids.VariableId
	Value      value.Value
}

// Location is the protocol-level handle for a step.
type Location struct {
	Path            string
	Line            int64
	FunctionName    string
	CallstackDepth  int
	Key             string
	RRTicks         ids.StepId
}

// PathOf joins the database workdir with a stored (possibly relative) path,
// matching spec §3's "path lookups return workdir ⊕ stored_path".
func (db *Database) PathOf(id ids.PathId) string {
	stored, ok := db.Paths.Get(id)
	if !ok {
		return ""
	}
	if filepath.IsAbs(stored) {
		return stored
	}
	return filepath.Join(db.Workdir, stored)
}

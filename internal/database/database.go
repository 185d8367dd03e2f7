package database

import (
	"fmt"

	"github.com/codetracer/db-backend/internal/ids"
	"github.com/codetracer/db-backend/internal/value"
)

// Database is the in-memory normalised form of a trace: append-order
// dense tables for every entity kind, and the variable writes observed at
// each step. It is built once by Postprocess and never mutated afterward —
// see spec §3 "Lifecycle".
type Database struct {
	Workdir string
	Program string
	Args    []string

	Paths     *ids.Vec[ids.PathId, string]
	Functions *ids.Vec[ids.FunctionId, Function]
	Types     *ids.Vec[ids.TypeId, value.Type]
	Variables *ids.Vec[ids.VariableId, string]
	Calls     *ids.Vec[ids.CallKey, Call]
	Steps     *ids.Vec[ids.StepId, Step]

	// writesByStep holds, for each step id, the variable writes active at
	// that step (spec §3 "Variable write" / "locals at step").
	writesByStep map[ids.StepId][]VariableWrite

	variableNameIndex map[string]ids.VariableId
	pathIndex         map[string]ids.PathId
}

// New creates an empty Database with its synthetic root call already
// present at CallKey(0), matching spec I2 ("Calls form a tree under
// CallKey(0)").
func New() *Database {
	db := &Database{
		Paths:             ids.NewVec[ids.PathId, string](),
		Functions:         ids.NewVec[ids.FunctionId, Function](),
		Types:             ids.NewVec[ids.TypeId, value.Type](),
		Variables:         ids.NewVec[ids.VariableId, string](),
		Calls:             ids.NewVec[ids.CallKey, Call](),
		Steps:             ids.NewVec[ids.StepId, Step](),
		writesByStep:      make(map[ids.StepId][]VariableWrite),
		variableNameIndex: make(map[string]ids.VariableId),
		pathIndex:         make(map[string]ids.PathId),
	}
	db.Calls.Push(Call{FunctionID: -1, ParentKey: ids.NoCall, Depth: 0, EntryStep: 0})
	return db
}

// LastStepID returns the id of the final step, or -1 if the trace is empty.
func (db *Database) LastStepID() ids.StepId {
	id, ok := db.Steps.LastID()
	if !ok {
		return -1
	}
	return id
}

// StepAt returns the step at id, absent-safe.
func (db *Database) StepAt(id ids.StepId) (Step, bool) { return db.Steps.Get(id) }

// CallAt returns the call at key, absent-safe.
func (db *Database) CallAt(key ids.CallKey) (Call, bool) { return db.Calls.Get(key) }

// FunctionAt returns the function at id, absent-safe.
func (db *Database) FunctionAt(id ids.FunctionId) (Function, bool) { return db.Functions.Get(id) }

// VariableNameAt returns the variable name at id, absent-safe.
func (db *Database) VariableNameAt(id ids.VariableId) (string, bool) { return db.Variables.Get(id) }

// WritesAt returns the ordered variable writes active at step id, matching
// spec §3's "locals at step".
func (db *Database) WritesAt(id ids.StepId) []VariableWrite {
	return db.writesByStep[id]
}

// CallKeyForStep returns the call key the step belongs to, or NoCall if id
// is out of range.
func (db *Database) CallKeyForStep(id ids.StepId) ids.CallKey {
	step, ok := db.Steps.Get(id)
	if !ok {
		return ids.NoCall
	}
	return step.CallKey
}

// DepthOf returns the call depth active at step id, or 0 if out of range.
func (db *Database) DepthOf(id ids.StepId) int {
	call, ok := db.Calls.Get(db.CallKeyForStep(id))
	if !ok {
		return 0
	}
	return call.Depth
}

// AncestorOrSelf reports whether ancestor is key itself or an ancestor of
// it in the call tree, walking ParentKey links up to the root. Matches
// spec I3's ancestry check and §4.4's step-over rule.
func (db *Database) AncestorOrSelf(key, ancestor ids.CallKey) bool {
	for cur := key; ; {
		if cur == ancestor {
			return true
		}
		call, ok := db.Calls.Get(cur)
		if !ok || cur == ids.RootCall {
			return false
		}
		cur = call.ParentKey
	}
}

// LoadLocation builds the protocol-level Location for a step. If callKey
// is ids.NoCall the step's own call is used (the common case); callers may
// pass an explicit key for synthetic call/return markers.
func (db *Database) LoadLocation(stepID ids.StepId, callKey ids.CallKey) Location {
	step, ok := db.Steps.Get(stepID)
	if !ok {
		return Location{}
	}
	key := callKey
	if key == ids.NoCall {
		key = step.CallKey
	}
	call, _ := db.Calls.Get(key)
	fn, _ := db.Functions.Get(call.FunctionID)
	path := db.PathOf(step.PathID)
	return Location{
		Path:           path,
		Line:           step.Line,
		FunctionName:   fn.Name,
		CallstackDepth: call.Depth,
		Key:            fmt.Sprintf("%s:%d", path, step.Line),
		RRTicks:        stepID,
	}
}

// internPath interns a path, returning its id (existing or newly
// appended), matching spec I4's "already appended to its table" guarantee.
func (db *Database) internPath(p string) ids.PathId {
	if id, ok := db.pathIndex[p]; ok {
		return id
	}
	id := db.Paths.Push(p)
	db.pathIndex[p] = id
	return id
}

// internVariable interns a variable name, returning its id.
func (db *Database) internVariable(name string) ids.VariableId {
	if id, ok := db.variableNameIndex[name]; ok {
		return id
	}
	id := db.Variables.Push(name)
	db.variableNameIndex[name] = id
	return id
}

package database

import (
	"github.com/codetracer/db-backend/internal/ids"
	"github.com/codetracer/db-backend/internal/value"
)

// Builder constructs a Database imperatively without going through the
// trace wire format — used by tests across the engine's packages (and
// conceivable in-process trace producers) that want a Database fixture
// without round-tripping through JSON.
type Builder struct {
	db        *Database
	callStack []ids.CallKey
}

// NewBuilder creates a Builder around a fresh Database.
func NewBuilder() *Builder {
	return &Builder{db: New(), callStack: []ids.CallKey{ids.RootCall}}
}

// Path interns a path and returns its id.
func (b *Builder) Path(p string) ids.PathId { return b.db.internPath(p) }

// Function appends a function declaration and returns its id.
func (b *Builder) Function(name string, pathID ids.PathId, line int64, params ...string) ids.FunctionId {
	return b.db.Functions.Push(Function{Name: name, PathID: pathID, Line: line, ParamNames: params})
}

// Variable interns a variable name and returns its id.
func (b *Builder) Variable(name string) ids.VariableId { return b.db.internVariable(name) }

// Step appends a step at the currently-open call and returns its id.
func (b *Builder) Step(pathID ids.PathId, line int64) ids.StepId {
	current := b.callStack[len(b.callStack)-1]
	return b.db.Steps.Push(Step{PathID: pathID, Line: line, CallKey: current})
}

// Call opens a new call frame as a child of the currently-open one.
func (b *Builder) Call(functionID ids.FunctionId, args ...ArgWrite) ids.CallKey {
	parent := b.callStack[len(b.callStack)-1]
	parentCall, _ := b.db.Calls.Get(parent)
	key := b.db.Calls.Push(Call{
		FunctionID: functionID,
		ParentKey:  parent,
		Depth:      parentCall.Depth + 1,
		EntryStep:  b.db.LastStepID() + 1,
		Args:       args,
	})
	b.callStack = append(b.callStack, key)
	return key
}

// Return closes the currently-open call frame.
func (b *Builder) Return() {
	top := b.callStack[len(b.callStack)-1]
	call, _ := b.db.Calls.Get(top)
	call.ReturnStep = b.db.LastStepID()
	call.HasReturn = true
	b.db.Calls.Set(top, call)
	b.callStack = b.callStack[:len(b.callStack)-1]
}

// Write records a variable write at the most recently pushed step.
func (b *Builder) Write(variableID ids.VariableId, v value.Value) {
	stepID := b.db.LastStepID()
	b.db.writesByStep[stepID] = append(b.db.writesByStep[stepID], VariableWrite{
		StepID: stepID, VariableID: variableID, Value: v,
	})
}

// Done returns the built Database, with Workdir/Program/Args set.
func (b *Builder) Done(workdir, program string, args ...string) *Database {
	b.db.Workdir = workdir
	b.db.Program = program
	b.db.Args = args
	return b.db
}

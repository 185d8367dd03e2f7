package database

import (
	"testing"

	"github.com/codetracer/db-backend/internal/ids"
	"github.com/codetracer/db-backend/internal/value"
)

func TestBuilderRoundTrip(t *testing.T) {
	b := NewBuilder()
	path := b.Path("main.go")
	mainFn := b.Function("main", path, 1)
	sumFn := b.Function("sum", path, 9, "a", "b")
	total := b.Variable("total")

	b.Step(path, 1)
	b.Call(sumFn)
	b.Step(path, 10)
	b.Write(total, value.Int(7))
	b.Return()
	b.Step(path, 2)

	db := b.Done("/src", "main.go")

	if db.Steps.Len() != 3 {
		t.Fatalf("Steps.Len() = %d, want 3", db.Steps.Len())
	}
	step1, _ := db.StepAt(1)
	call, ok := db.CallAt(step1.CallKey)
	if !ok || call.FunctionID != sumFn {
		t.Fatalf("step 1 call = %+v, want sum()", call)
	}
	if !call.HasReturn || call.ReturnStep != 1 {
		t.Fatalf("sum call return = %+v", call)
	}
	step2, _ := db.StepAt(2)
	if step2.CallKey != ids.RootCall {
		t.Fatalf("step 2 call key = %v, want root", step2.CallKey)
	}
	writes := db.WritesAt(1)
	if len(writes) != 1 || writes[0].VariableID != total || writes[0].Value.I != "7" {
		t.Fatalf("writes = %+v", writes)
	}

	mainFnAt, _ := db.FunctionAt(mainFn)
	if mainFnAt.Name != "main" {
		t.Fatalf("mainFn = %+v", mainFnAt)
	}
}

package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/codetracer/db-backend/internal/ids"
	"github.com/codetracer/db-backend/internal/traceio"
)

// writeTrace materialises a minimal trace directory (metadata + trace.json)
// describing:
//
//	main.go:1           (step 0, root call)
//	  sum(a, b)          (call, depth 1)
//	    main.go:10       (step 1)
//	    return            (closes sum)
//	main.go:2           (step 2, back in root call)
//
// with one variable write of "total" at step 1.
func writeTrace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	meta := `{"workdir":"/src","program":"main.go","args":["--flag"]}`
	if err := os.WriteFile(filepath.Join(dir, "trace_metadata.json"), []byte(meta), 0o644); err != nil {
		t.Fatal(err)
	}
	trace := `{"kind":"Path","data":{"path":"main.go"}}
{"kind":"Function","data":{"name":"main","pathIndex":0,"line":1}}
{"kind":"Function","data":{"name":"sum","pathIndex":0,"line":9,"paramNames":["a","b"]}}
{"kind":"VariableName","data":{"name":"total"}}
{"kind":"Step","data":{"pathIndex":0,"line":1}}
{"kind":"Call","data":{"functionIndex":1,"args":[]}}
{"kind":"Step","data":{"pathIndex":0,"line":10}}
{"kind":"VariableWrite","data":{"variableIndex":0,"value":{"kind":0,"i":"3"}}}
{"kind":"Return","data":{}}
{"kind":"Step","data":{"pathIndex":0,"line":2}}
`
	if err := os.WriteFile(filepath.Join(dir, "trace.json"), []byte(trace), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadBuildsDatabase(t *testing.T) {
	dir := writeTrace(t)
	db, events, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no high-level events, got %d", len(events))
	}
	if db.Workdir != "/src" || db.Program != "main.go" {
		t.Fatalf("metadata not applied: %+v", db)
	}
	if db.Steps.Len() != 3 {
		t.Fatalf("Steps.Len() = %d, want 3", db.Steps.Len())
	}

	// I1: a step's call_key names a call that covers it.
	step1, ok := db.StepAt(1)
	if !ok {
		t.Fatal("step 1 missing")
	}
	if step1.CallKey == ids.RootCall {
		t.Fatal("step 1 should belong to the sum() call, not root")
	}

	// I2: the sum() call is a depth-1 child of the root call.
	sumCall, ok := db.CallAt(step1.CallKey)
	if !ok {
		t.Fatal("sum call missing")
	}
	if sumCall.Depth != 1 || sumCall.ParentKey != ids.RootCall {
		t.Fatalf("sum call = %+v, want depth 1 under root", sumCall)
	}
	fn, ok := db.FunctionAt(sumCall.FunctionID)
	if !ok || fn.Name != "sum" {
		t.Fatalf("sum call's function = %+v", fn)
	}

	// I5: once sum() returns, ReturnStep is set and later steps drop back to
	// the root call's depth.
	if !sumCall.HasReturn || sumCall.ReturnStep != 1 {
		t.Fatalf("sum call return = %+v, want HasReturn at step 1", sumCall)
	}
	step2, ok := db.StepAt(2)
	if !ok {
		t.Fatal("step 2 missing")
	}
	if step2.CallKey != ids.RootCall {
		t.Fatalf("step 2 call key = %v, want root (returned from sum)", step2.CallKey)
	}

	// Variable write at step 1 is retrievable and carries the interned name.
	writes := db.WritesAt(1)
	if len(writes) != 1 {
		t.Fatalf("WritesAt(1) = %v, want 1 write", writes)
	}
	name, ok := db.VariableNameAt(writes[0].VariableID)
	if !ok || name != "total" {
		t.Fatalf("write variable name = %q", name)
	}
	if writes[0].Value.I != "3" {
		t.Fatalf("write value = %+v, want I=\"3\"", writes[0].Value)
	}

	// AncestorOrSelf: the sum() call is a descendant of root, not vice versa.
	if !db.AncestorOrSelf(step1.CallKey, ids.RootCall) {
		t.Fatal("sum call should have root as an ancestor")
	}
	if db.AncestorOrSelf(ids.RootCall, step1.CallKey) {
		t.Fatal("root call should not be a descendant of sum")
	}
}

func TestLoadMissingTraceFails(t *testing.T) {
	dir := t.TempDir()
	meta := `{"workdir":"/src","program":"main.go"}`
	if err := os.WriteFile(filepath.Join(dir, "trace_metadata.json"), []byte(meta), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(dir); err == nil {
		t.Fatal("expected error when no trace.json/trace.bin is present")
	}
}

func TestPostprocessRejectsUnbalancedReturn(t *testing.T) {
	content := `{"kind":"Return","data":{}}` + "\n"
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := traceio.OpenEventStream(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if _, _, err := Postprocess(r); err == nil {
		t.Fatal("expected error for return with no open call")
	}
}

package tracepoint

import (
	"testing"

	"github.com/codetracer/db-backend/internal/value"
)

func lookupOf(vars map[string]value.Value) Lookup {
	return func(name string) (value.Value, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

// TestShortCircuitAndScenario covers spec §8 scenario 5: x==1 && y>0.
func TestShortCircuitAndScenario(t *testing.T) {
	in := New()

	r1 := in.Eval("x == 1 && y > 0", lookupOf(map[string]value.Value{
		"x": value.Int(1), "y": value.Int(5),
	}))
	if r1.Value.IsError() || r1.Value.Kind != value.KindBool || !r1.Value.B {
		t.Fatalf("x=1,y=5: got %+v, want true", r1.Value)
	}

	r2 := in.Eval("x == 1 && y > 0", lookupOf(map[string]value.Value{
		"x": value.Int(1), "y": value.Int(-1),
	}))
	if r2.Value.IsError() || r2.Value.Kind != value.KindBool || r2.Value.B {
		t.Fatalf("x=1,y=-1: got %+v, want false", r2.Value)
	}

	r3 := in.Eval("x == 1 && y > 0", lookupOf(map[string]value.Value{
		"y": value.Int(5),
	}))
	if !r3.Value.IsError() {
		t.Fatalf("missing x: got %+v, want an Error value", r3.Value)
	}
}

func TestShortCircuitAndSkipsRightWhenLeftFalse(t *testing.T) {
	in := New()
	calls := 0
	lookup := func(name string) (value.Value, bool) {
		if name == "y" {
			calls++
		}
		if name == "x" {
			return value.Bool(false), true
		}
		return value.Bool(true), true
	}
	r := in.Eval("x && y", lookup)
	if r.Value.IsError() || r.Value.B {
		t.Fatalf("false && y: got %+v, want false", r.Value)
	}
	if calls != 0 {
		t.Fatalf("y should not have been evaluated, was looked up %d times", calls)
	}
}

func TestShortCircuitOrSkipsRightWhenLeftTrue(t *testing.T) {
	in := New()
	calls := 0
	lookup := func(name string) (value.Value, bool) {
		if name == "y" {
			calls++
		}
		return value.Bool(true), true
	}
	r := in.Eval("x || y", lookup)
	if r.Value.IsError() || !r.Value.B {
		t.Fatalf("true || y: got %+v, want true", r.Value)
	}
	if calls != 0 {
		t.Fatalf("y should not have been evaluated, was looked up %d times", calls)
	}
}

func TestArithmeticAndIndex(t *testing.T) {
	in := New()
	r := in.Eval("1 + 2 * 3", lookupOf(nil))
	if r.Value.Kind != value.KindInt || r.Value.I != "7" {
		t.Fatalf("1+2*3 = %+v, want 7", r.Value)
	}

	seq := value.Value{Kind: value.KindSeq, Elements: []value.Value{value.Int(10), value.Int(20), value.Int(30)}}
	r2 := in.Eval("xs[1]", lookupOf(map[string]value.Value{"xs": seq}))
	if r2.Value.Kind != value.KindInt || r2.Value.I != "20" {
		t.Fatalf("xs[1] = %+v, want 20", r2.Value)
	}
}

func TestParseErrorIsReportedAsValue(t *testing.T) {
	in := New()
	r := in.Eval("1 +", lookupOf(nil))
	if !r.Value.IsError() {
		t.Fatal("expected a parse error to surface as an Error value")
	}
}

func TestDivisionByZero(t *testing.T) {
	in := New()
	r := in.Eval("1 / 0", lookupOf(nil))
	if !r.Value.IsError() {
		t.Fatal("expected division by zero to surface as an Error value")
	}
}

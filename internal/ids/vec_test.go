package ids

import "testing"

func TestVecPushGet(t *testing.T) {
	v := NewVec[StepId, string]()
	a := v.Push("zero")
	b := v.Push("one")
	if a != 0 || b != 1 {
		t.Fatalf("unexpected ids: %d %d", a, b)
	}
	if got, ok := v.Get(a); !ok || got != "zero" {
		t.Fatalf("Get(0) = %q, %v", got, ok)
	}
	if v.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", v.Len())
	}
}

func TestVecGetOutOfRangeNeverPanics(t *testing.T) {
	v := NewVec[StepId, string]()
	v.Push("a")

	cases := []StepId{999, -1, -999999, StepId(1) << 40}
	for _, id := range cases {
		if _, ok := v.Get(id); ok {
			t.Fatalf("Get(%d) reported ok=true, want false", id)
		}
	}
}

func TestVecGetOnEmpty(t *testing.T) {
	v := NewVec[StepId, int]()
	if _, ok := v.Get(0); ok {
		t.Fatal("expected ok=false on empty Vec")
	}
	if _, ok := v.LastID(); ok {
		t.Fatal("expected LastID ok=false on empty Vec")
	}
}

func TestVecSetOutOfRange(t *testing.T) {
	v := NewVec[StepId, int]()
	v.Push(1)
	if v.Set(5, 2) {
		t.Fatal("Set on out-of-range id should report false")
	}
	if !v.Set(0, 9) {
		t.Fatal("Set on valid id should report true")
	}
	if got := v.MustGet(0); got != 9 {
		t.Fatalf("MustGet(0) = %d, want 9", got)
	}
}

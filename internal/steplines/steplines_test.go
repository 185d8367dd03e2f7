package steplines

import (
	"testing"

	"github.com/codetracer/db-backend/internal/database"
	"github.com/codetracer/db-backend/internal/exprloader"
	"github.com/codetracer/db-backend/internal/flow"
)

// buildCallReturnTrace builds:
//
//	main.go:1   (root)
//	sum.go:2    (enters sum)
//	sum.go:3
//	main.go:2   (back in root, sum returned)
func buildCallReturnTrace(t *testing.T) *database.Database {
	t.Helper()
	b := database.NewBuilder()
	mainPath := b.Path("main.go")
	sumPath := b.Path("sum.go")
	b.Function("main", mainPath, 1)
	sumFn := b.Function("sum", sumPath, 2)

	b.Step(mainPath, 1)
	b.Call(sumFn)
	b.Step(sumPath, 2)
	b.Step(sumPath, 3)
	b.Return()
	b.Step(mainPath, 2)

	return b.Done("/src", "main.go")
}

func TestLoadInjectsCallAndReturnMarkers(t *testing.T) {
	db := buildCallReturnTrace(t)
	pre := flow.New(exprloader.New())
	loader := New(db, pre)

	window := loader.Load(1, 2, 2)

	var kinds []Kind
	for _, ls := range window {
		kinds = append(kinds, ls.Kind)
	}
	want := []Kind{KindLine, KindCall, KindLine, KindLine, KindReturn, KindLine}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", kinds, want)
		}
	}

	callMarker := window[1]
	if callMarker.SourceLine != "call sum" {
		t.Fatalf("call marker text = %q", callMarker.SourceLine)
	}
	returnMarker := window[4]
	if returnMarker.SourceLine != "return from call sum" {
		t.Fatalf("return marker text = %q", returnMarker.SourceLine)
	}
}

func TestLoadDeltaRelativeToCentre(t *testing.T) {
	db := buildCallReturnTrace(t)
	pre := flow.New(exprloader.New())
	loader := New(db, pre)

	window := loader.Load(2, 1, 1)
	for _, ls := range window {
		if ls.Kind != KindLine {
			continue
		}
		if ls.Location.RRTicks == 2 && ls.Delta != 0 {
			t.Fatalf("centre step delta = %d, want 0", ls.Delta)
		}
	}
}

func TestLoadClampsWindowToTraceBounds(t *testing.T) {
	db := buildCallReturnTrace(t)
	pre := flow.New(exprloader.New())
	loader := New(db, pre)

	// Requesting far beyond both ends should clamp, not panic or return an
	// out-of-range step.
	window := loader.Load(0, 100, 100)
	if len(window) == 0 {
		t.Fatal("expected a non-empty clamped window")
	}
}

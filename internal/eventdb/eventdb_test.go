package eventdb

import (
	"testing"

	"github.com/codetracer/db-backend/internal/traceio"
)

func sample(n int) []traceio.EventPayload {
	payloads := make([]traceio.EventPayload, 0, n)
	for i := 0; i < n; i++ {
		payloads = append(payloads, traceio.EventPayload{
			EventKind:     "write",
			Content:       "line",
			HighLevelPath: "main.go",
			EventIndex:    int64(i),
		})
	}
	return payloads
}

func TestRegisterEventsAssignsMonotonicIDs(t *testing.T) {
	db := New()
	first := db.RegisterEvents("write", sample(3))
	second := db.RegisterEvents("write", sample(2))

	if len(first) != 3 || len(second) != 2 {
		t.Fatalf("first=%v second=%v", first, second)
	}
	if first[0] != 0 || first[2] != 2 || second[0] != 3 || second[1] != 4 {
		t.Fatalf("ids not monotonic: first=%v second=%v", first, second)
	}
}

func TestUpdateTableToJSONPaginates(t *testing.T) {
	db := New()
	db.RegisterEvents("write", sample(5))

	page := db.UpdateTableToJSON(TableArgs{Kind: "write", StartIndex: 1, PageSize: 2})
	if page.TotalCount != 5 {
		t.Fatalf("TotalCount = %d, want 5", page.TotalCount)
	}
	if page.StartIndex != 1 || len(page.Rows) != 2 {
		t.Fatalf("page = %+v", page)
	}
	if page.Rows[0][0] != "1" || page.Rows[1][0] != "2" {
		t.Fatalf("rows = %v", page.Rows)
	}
}

func TestUpdateTableToJSONDeterministic(t *testing.T) {
	db := New()
	db.RegisterEvents("write", sample(4))

	a := db.UpdateTableToJSON(TableArgs{Kind: "write"})
	b := db.UpdateTableToJSON(TableArgs{Kind: "write"})
	if len(a.Rows) != len(b.Rows) {
		t.Fatalf("non-deterministic projection: %+v vs %+v", a, b)
	}
	for i := range a.Rows {
		if a.Rows[i][0] != b.Rows[i][0] {
			t.Fatalf("row %d differs: %v vs %v", i, a.Rows[i], b.Rows[i])
		}
	}
}

func TestUpdateTableToJSONFiltersByContent(t *testing.T) {
	db := New()
	db.RegisterEvents("write", []traceio.EventPayload{
		{EventKind: "write", Content: "hello world", EventIndex: 0},
		{EventKind: "write", Content: "goodbye", EventIndex: 1},
	})

	page := db.UpdateTableToJSON(TableArgs{Kind: "write", ContentLike: "HELLO"})
	if page.TotalCount != 1 || len(page.Rows) != 1 {
		t.Fatalf("page = %+v, want 1 matching row", page)
	}
}

func TestUpdateTableToJSONStartIndexBeyondTotalIsClamped(t *testing.T) {
	db := New()
	db.RegisterEvents("write", sample(2))
	page := db.UpdateTableToJSON(TableArgs{Kind: "write", StartIndex: 50})
	if len(page.Rows) != 0 {
		t.Fatalf("Rows = %v, want empty", page.Rows)
	}
}

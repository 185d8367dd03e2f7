package exprloader

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestExtractIdentifiersGo(t *testing.T) {
	got := ExtractIdentifiers(`if total := a.Sum(b, c); total > 0 { return total }`, LangGo)
	want := []string{"total", "a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractIdentifiersExcludesCallsAndSelectors(t *testing.T) {
	got := ExtractIdentifiers(`result = obj.method(x)`, LangGo)
	want := []string{"result", "obj", "x"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractIdentifiersDedupes(t *testing.T) {
	got := ExtractIdentifiers(`x = x + x`, LangGo)
	want := []string{"x"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLoaderCachesAndReadsLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	content := "package main\n\nfunc main() {\n\tx := 1\n\tprint(x)\n}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	l := New()
	if line := l.Line(path, 4); line != "\tx := 1" {
		t.Fatalf("Line(4) = %q", line)
	}
	ids := l.Identifiers(path, 4, LangGo)
	if !reflect.DeepEqual(ids, []string{"x"}) {
		t.Fatalf("Identifiers(4) = %v", ids)
	}

	// Out of range and missing files are best-effort empty, never an error.
	if line := l.Line(path, 999); line != "" {
		t.Fatalf("Line(999) = %q, want empty", line)
	}
	if line := l.Line(filepath.Join(dir, "missing.go"), 1); line != "" {
		t.Fatalf("Line on missing file = %q, want empty", line)
	}

	l.Invalidate(path)
	if line := l.Line(path, 1); line != "package main" {
		t.Fatalf("Line(1) after invalidate = %q", line)
	}
}

func TestLangFromPath(t *testing.T) {
	cases := map[string]Lang{
		"a.go": LangGo, "b.py": LangPython, "c.c": LangC, "d.h": LangC, "e.rs": LangUnknown,
	}
	for path, want := range cases {
		if got := LangFromPath(path); got != want {
			t.Fatalf("LangFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

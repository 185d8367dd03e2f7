package traceio

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestJSONLReader(t *testing.T) {
	content := `{"kind":"Path","data":{"path":"main.go"}}
{"kind":"Function","data":{"name":"main","pathIndex":0,"line":5}}
`
	path := writeTemp(t, "trace.json", content)
	r, err := OpenEventStream(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ev, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if ev.Kind != KindPath {
		t.Fatalf("Kind = %q, want Path", ev.Kind)
	}
	decoded, err := ev.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if p, ok := decoded.(PathPayload); !ok || p.Path != "main.go" {
		t.Fatalf("decoded = %#v", decoded)
	}

	ev2, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if ev2.Kind != KindFunction {
		t.Fatalf("Kind = %q, want Function", ev2.Kind)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestJSONLReaderMalformedLine(t *testing.T) {
	path := writeTemp(t, "trace.json", "not json at all\n")
	r, err := OpenEventStream(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if _, err := r.Next(); err == nil {
		t.Fatal("expected error for malformed record")
	}
}

func TestUnknownExtensionFallsThroughToJSON(t *testing.T) {
	path := writeTemp(t, "trace.weird", `{"kind":"Path","data":{"path":"x.go"}}`+"\n")
	r, err := OpenEventStream(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	ev, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if ev.Kind != KindPath {
		t.Fatalf("Kind = %q, want Path", ev.Kind)
	}
}

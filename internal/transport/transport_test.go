package transport

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestSocketPathSanitizesName(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX socket path shape only")
	}
	got := SocketPath("db backend!", 123)
	want := filepath.Join(TempDir(), "db_backend__123.sock")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCallerPIDFallsBackToOne(t *testing.T) {
	os.Unsetenv("CODETRACER_CALLER_PROCESS_PID")
	if got := CallerPID(); got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
	os.Setenv("CODETRACER_CALLER_PROCESS_PID", "42")
	defer os.Unsetenv("CODETRACER_CALLER_PROCESS_PID")
	if got := CallerPID(); got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestRunDirCreatesTreeAndPersists(t *testing.T) {
	tmp := t.TempDir()
	os.Setenv("TMPDIR", tmp)
	defer os.Unsetenv("TMPDIR")

	rd, err := NewRunDir(999)
	if err != nil {
		t.Fatal(err)
	}
	if err := rd.WriteArgs("task-1", []byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	if err := rd.WriteEvent("evt-1", []byte(`{"e":1}`)); err != nil {
		t.Fatal(err)
	}
	if err := rd.AppendClientResult("ok"); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{
		filepath.Join(rd.Root, "args", "task-1.json"),
		filepath.Join(rd.Root, "events", "evt-1.json"),
		filepath.Join(rd.Root, "client_results.txt"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s to exist: %v", p, err)
		}
	}
}

// Package transport selects and opens the dispatcher's byte stream: stdio
// or a Unix domain socket (spec §6), and resolves the tmp-dir/run-dir
// layout persisted state lives under. Grounded on the teacher's
// loadDotEnv-style environment resolution in cmd/gert/main.go (read an
// env var, fall back to a default, never fail on its absence) and on
// pkg/tools/mcp.go's stdio-pipe plumbing for the stdio transport.
package transport

import (
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Stream is a bidirectional byte stream the codec reads/writes frames
// over, regardless of whether it's stdio or a socket connection.
type Stream struct {
	io.Reader
	io.Writer
	io.Closer
}

// Stdio wraps os.Stdin/os.Stdout as a Stream. Close is a no-op — closing
// the process's own stdio streams has no useful meaning here.
func Stdio() Stream {
	return Stream{Reader: os.Stdin, Writer: os.Stdout, Closer: io.NopCloser(nil)}
}

// TempDir resolves "<tmp>" per spec §6: on Darwin,
// $HOME/Library/Caches/com.codetracer.CodeTracer/; elsewhere the first
// defined of TMPDIR, TEMPDIR, TMP, TEMP, defaulting to /tmp; then a
// "codetracer" subdirectory.
func TempDir() string {
	if runtime.GOOS == "darwin" {
		if home := os.Getenv("HOME"); home != "" {
			return filepath.Join(home, "Library", "Caches", "com.codetracer.CodeTracer")
		}
	}
	for _, env := range []string{"TMPDIR", "TEMPDIR", "TMP", "TEMP"} {
		if v := os.Getenv(env); v != "" {
			return filepath.Join(v, "codetracer")
		}
	}
	return filepath.Join("/tmp", "codetracer")
}

// CallerPID resolves CODETRACER_CALLER_PROCESS_PID, falling back to 1
// (spec §6 "Environment").
func CallerPID() int {
	if v := os.Getenv("CODETRACER_CALLER_PROCESS_PID"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 1
}

// SocketPath builds the rendezvous path for base under TempDir(), per
// spec §6: a Unix socket "<tmp>/codetracer/<base>_<pid>[.sock]" on POSIX,
// or a Windows named pipe "\\.\pipe\<base>_<pid>" with non-alphanumeric,
// non "-_." characters replaced with "_".
func SocketPath(base string, pid int) string {
	name := sanitizeName(base) + "_" + strconv.Itoa(pid)
	if runtime.GOOS == "windows" {
		return `\\.\pipe\` + name
	}
	return filepath.Join(TempDir(), name+".sock")
}

func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// ListenUnix opens a Unix domain socket at path, removing any stale file
// left by a previous unclean exit first (spec §5 "removed on clean
// exit" implies a live rendezvous file must not block a fresh bind).
func ListenUnix(path string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	return net.Listen("unix", path)
}

// AcceptStream accepts exactly one connection on ln and wraps it as a
// Stream — the dispatcher serves one caller per process lifetime (spec §5:
// "single-threaded and cooperative", one transport owned exclusively by
// the dispatcher).
func AcceptStream(ln net.Listener) (Stream, error) {
	conn, err := ln.Accept()
	if err != nil {
		return Stream{}, err
	}
	return Stream{Reader: conn, Writer: conn, Closer: conn}, nil
}

// RunDir is the per-run persisted-state directory, spec §6:
// "<tmp>/codetracer/run-<pid>/" with args/, events/, client_results.txt.
type RunDir struct {
	Root string
}

// NewRunDir creates the per-run directory tree for pid under TempDir().
func NewRunDir(pid int) (*RunDir, error) {
	root := filepath.Join(TempDir(), "run-"+strconv.Itoa(pid))
	for _, sub := range []string{"args", "events"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, err
		}
	}
	return &RunDir{Root: root}, nil
}

// WriteArgs persists one task's arguments as args/<task-id>.json.
func (r *RunDir) WriteArgs(taskID string, data []byte) error {
	return os.WriteFile(filepath.Join(r.Root, "args", taskID+".json"), data, 0o644)
}

// WriteEvent persists one event as events/<event-id>.json.
func (r *RunDir) WriteEvent(eventID string, data []byte) error {
	return os.WriteFile(filepath.Join(r.Root, "events", eventID+".json"), data, 0o644)
}

// AppendClientResult appends a line to client_results.txt.
func (r *RunDir) AppendClientResult(line string) error {
	f, err := os.OpenFile(filepath.Join(r.Root, "client_results.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

// Remove deletes the rendezvous path (socket file), matching spec §5's
// "removed on clean exit" for the socket/PID rendezvous.
func Remove(path string) error {
	if path == "" {
		return nil
	}
	return os.Remove(path)
}

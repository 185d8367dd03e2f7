// Binary virtualization-layers is a companion process spawned alongside
// db-backend (spec §6): args `<socket-path> <caller-process-pid>`. It
// creates a per-run log file "virtualization_virtualization_0.log" inside
// a per-pid run directory and otherwise exits — a placeholder process
// boundary the real virtualization-layers binary would fill with its own
// protocol; this repo's scope is the replay engine, not that layer.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/codetracer/db-backend/internal/transport"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: virtualization-layers <socket-path> <caller-process-pid>")
		os.Exit(1)
	}
	socketPath := os.Args[1]
	callerPID, err := strconv.Atoi(os.Args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid caller-process-pid:", os.Args[2])
		os.Exit(1)
	}

	runDir, err := transport.NewRunDir(callerPID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "create run dir:", err)
		os.Exit(1)
	}

	logPath := filepath.Join(runDir.Root, "virtualization_virtualization_0.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open log file:", err)
		os.Exit(1)
	}
	defer f.Close()

	fmt.Fprintf(f, "virtualization-layers started: socket=%s caller_pid=%d\n", socketPath, callerPID)
}

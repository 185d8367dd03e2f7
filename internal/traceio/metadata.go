package traceio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Metadata is the trace_metadata.json descriptor: spec §4.1/§6 minimum
// shape {workdir, program, args}.
type Metadata struct {
	Workdir string   `json:"workdir"`
	Program string   `json:"program"`
	Args    []string `json:"args,omitempty"`
}

// LoadMetadata reads trace_metadata.json from dir.
func LoadMetadata(dir string) (Metadata, error) {
	path := filepath.Join(dir, "trace_metadata.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("read metadata: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return Metadata{}, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	return m, nil
}

// EventStreamPath resolves which event-stream file a trace directory
// carries, preferring trace.bin then trace.json, matching spec §6's
// "trace.json or trace.bin" layout. Returns "" if neither exists.
func EventStreamPath(dir string) string {
	bin := filepath.Join(dir, "trace.bin")
	if _, err := os.Stat(bin); err == nil {
		return bin
	}
	js := filepath.Join(dir, "trace.json")
	if _, err := os.Stat(js); err == nil {
		return js
	}
	return ""
}

// DiffIndexPath returns the path of the optional diff_index.json sidecar.
func DiffIndexPath(dir string) string {
	return filepath.Join(dir, "diff_index.json")
}

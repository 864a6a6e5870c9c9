// Package trace records every cache access so that a session can be
// inspected after it ends.
package trace

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Operations recorded in Access.Op.
const (
	OpRead  = "read"
	OpWrite = "write"
)

// Access is one cache operation and its outcome. Field names double as
// column names in every recorder.
type Access struct {
	Session     string
	Seq         uint64
	Op          string
	Address     uint8
	Value       uint8
	Hit         bool
	SetIndex    int
	Tag         uint8
	EvictedLine int
	Dirty       int
}

// Recorder stores accesses. Recorders may buffer; Flush forces buffered
// accesses out and Close releases the underlying resource.
type Recorder interface {
	Record(access Access) error
	Flush() error
	Close() error
}

// NopRecorder drops every access.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(Access) error { return nil }

// Flush implements Recorder.
func (NopRecorder) Flush() error { return nil }

// Close implements Recorder.
func (NopRecorder) Close() error { return nil }

// New creates a recorder from a destination path. The extension picks the
// backend: .csv for CSV, .sqlite3, .sqlite or .db for SQLite. An empty path
// disables tracing.
func New(path string) (Recorder, error) {
	if path == "" {
		return NopRecorder{}, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return NewCSVRecorder(path)
	case ".sqlite3", ".sqlite", ".db":
		return NewSQLiteRecorder(path)
	}

	return nil, fmt.Errorf("unsupported trace destination %q, want .csv or .sqlite3", path)
}

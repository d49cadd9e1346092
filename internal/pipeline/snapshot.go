package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tooldash/tablesnap/pkg/models"
)

// WriteError marks a per-table persistence failure. It fails that table
// only; sibling tables keep running.
type WriteError struct {
	Table string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write snapshot for table %s: %v", e.Table, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Writer persists snapshots under a single output directory.
type Writer struct {
	Dir string
}

// Write serializes the snapshot to <dir>/<file>, writing a temporary
// file in the same directory first and renaming it over the target. A
// reader never observes a half-written snapshot, and a failure mid-write
// leaves the previous one intact.
func (w *Writer) Write(snap *models.Snapshot, file string) (string, error) {
	path, err := w.WriteJSON(snap, file)
	if err != nil {
		return "", &WriteError{Table: snap.Table, Err: err}
	}
	return path, nil
}

// WriteJSON atomically serializes any value as indented JSON to
// <dir>/<file> via the same temp-then-rename mechanics.
func (w *Writer) WriteJSON(v interface{}, file string) (string, error) {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return "", err
	}

	final := filepath.Join(w.Dir, file)
	tmp, err := os.CreateTemp(w.Dir, "."+file+".tmp-*")
	if err != nil {
		return "", err
	}

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return final, nil
}

// ReadSnapshot parses a snapshot file back, with UseNumber so numeric
// values compare equal to freshly fetched ones.
func ReadSnapshot(path string) (*models.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()

	var snap models.Snapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %q: %w", path, err)
	}
	return &snap, nil
}

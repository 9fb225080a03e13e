package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Alert-condition keys persisted in the snapshot file.
const (
	KeyNewCount     = "new_count"
	KeyRate         = "rate"
	KeyStuckRunning = "stuck_running"
)

var knownKeys = []string{KeyNewCount, KeyRate, KeyStuckRunning}

// Snapshot records which alert conditions were active as of the last run.
// It is read at the start of a run and overwritten at the end; a single run
// owns the file, no locking is done.
type Snapshot map[string]bool

// New returns a snapshot with all conditions inactive.
func New() Snapshot {
	s := make(Snapshot, len(knownKeys))
	for _, k := range knownKeys {
		s[k] = false
	}
	return s
}

// Load reads the snapshot file at path. A missing, unreadable or corrupt
// file yields an empty snapshot; in the unreadable/corrupt case the returned
// error describes what was wrong so the caller can log it, but the snapshot
// is always usable.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return New(), fmt.Errorf("read state file %s: %w", path, err)
	}

	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return New(), fmt.Errorf("parse state file %s: %w", path, err)
	}

	// Unknown keys in the file are dropped; absent keys read as inactive.
	s := New()
	for _, k := range knownKeys {
		s[k] = raw[k] != 0
	}
	return s, nil
}

// Save writes the snapshot to path, always with exactly the known keys as
// 0/1 values. The write goes through a temp file in the same directory and
// a rename so a crashed run never leaves a half-written snapshot behind.
func Save(path string, s Snapshot) error {
	raw := make(map[string]int, len(knownKeys))
	for _, k := range knownKeys {
		v := 0
		if s[k] {
			v = 1
		}
		raw[k] = v
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename state file into place: %w", err)
	}
	return nil
}

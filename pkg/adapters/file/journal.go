package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// journalEntry is one recorded outcome.
type journalEntry struct {
	OK     bool      `json:"ok"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

// Journal implements ports.RunJournal as a single JSON file. It is an
// observability ledger only; artifact existence stays the authoritative
// resume signal.
type Journal struct {
	path string

	mu      sync.Mutex
	entries map[string]journalEntry
}

// NewJournal opens (or starts) the journal at path. An existing file is
// loaded so consecutive runs accumulate into one ledger.
func NewJournal(path string) (*Journal, error) {
	j := &Journal{path: path, entries: make(map[string]journalEntry)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return j, nil
		}
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	if err := json.Unmarshal(data, &j.entries); err != nil {
		return nil, fmt.Errorf("failed to parse journal: %w", err)
	}
	return j, nil
}

// Record stores the outcome for one combination key and flushes to disk.
func (j *Journal) Record(ctx context.Context, key string, ok bool, reason string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries[key] = journalEntry{OK: ok, Reason: reason, At: time.Now().UTC()}
	return j.flushLocked()
}

// Summary returns all recorded outcomes keyed by combination.
func (j *Journal) Summary(ctx context.Context) (map[string]bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make(map[string]bool, len(j.entries))
	for k, e := range j.entries {
		out[k] = e.OK
	}
	return out, nil
}

func (j *Journal) flushLocked() error {
	if err := os.MkdirAll(filepath.Dir(j.path), 0755); err != nil {
		return fmt.Errorf("failed to ensure journal directory: %w", err)
	}
	data, err := json.MarshalIndent(j.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal journal: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(j.path), "tmp-journal-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp journal: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write journal: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp journal: %w", err)
	}
	if err := os.Rename(tmpPath, j.path); err != nil {
		return fmt.Errorf("failed to finalize journal: %w", err)
	}
	return nil
}

// Package memory implements ports.RunJournal in memory, for embedding hosts
// and tests that want the progress surface without any persistence.
package memory

import (
	"context"
	"sync"
)

type entry struct {
	ok     bool
	reason string
}

// Journal keeps per-combination outcomes in a map.
// Safe for concurrent use.
type Journal struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewJournal creates an empty in-memory journal.
func NewJournal() *Journal {
	return &Journal{entries: make(map[string]entry)}
}

// Record stores the outcome for one combination key.
func (j *Journal) Record(ctx context.Context, key string, ok bool, reason string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries[key] = entry{ok: ok, reason: reason}
	return nil
}

// Summary returns all recorded outcomes keyed by combination.
func (j *Journal) Summary(ctx context.Context) (map[string]bool, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make(map[string]bool, len(j.entries))
	for k, e := range j.entries {
		out[k] = e.ok
	}
	return out, nil
}

// Reason returns the recorded failure reason for a key, if any.
func (j *Journal) Reason(key string) string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.entries[key].reason
}

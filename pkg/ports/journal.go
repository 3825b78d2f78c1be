package ports

import "context"

// RunJournal records per-combination outcomes for observability. It is a
// ledger, not a source of truth: resumability is decided by the
// ArtifactStore existence check alone, so a lost or stale journal never
// changes what a rerun does.
type RunJournal interface {
	// Record stores the outcome for one combination key. reason is empty on
	// success.
	Record(ctx context.Context, key string, ok bool, reason string) error

	// Summary returns all recorded outcomes keyed by combination.
	Summary(ctx context.Context) (map[string]bool, error)
}

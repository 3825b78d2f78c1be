package ports

// ArtifactStore is the artifact output directory boundary. Its existence
// check is what makes a rerun of the whole batch the retry mechanism: a key
// whose artifact already exists is skipped without any new submission.
type ArtifactStore interface {
	// Exists reports whether the artifact for a combination key is already
	// persisted.
	Exists(key string) bool

	// Save persists the artifact bytes for a key.
	Save(key string, data []byte) error

	// Path returns where the artifact for a key lives (or would live).
	Path(key string) string
}

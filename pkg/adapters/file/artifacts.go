package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/stencil/pkg/domain"
)

// ArtifactStore persists generated images in the artifact output directory.
// The existence check is what makes reruns idempotent, so Save writes
// atomically: a crashed write must never leave a partial file that a later
// run would mistake for a finished artifact.
type ArtifactStore struct {
	dir string
}

// NewArtifactStore creates a store rooted at dir.
func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{dir: dir}
}

// Path returns the deterministic artifact location for a combination key.
func (s *ArtifactStore) Path(key string) string {
	return filepath.Join(s.dir, domain.ArtifactPrefix+key+".png")
}

// Exists reports whether the artifact for key is already persisted.
func (s *ArtifactStore) Exists(key string) bool {
	_, err := os.Stat(s.Path(key))
	return err == nil
}

// Save writes the artifact bytes via temp file and rename, on the same
// filesystem so the rename is atomic.
func (s *ArtifactStore) Save(key string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "tmp-"+key+"-*.png")
	if err != nil {
		return fmt.Errorf("failed to create temp artifact: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp artifact: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path(key)); err != nil {
		return fmt.Errorf("failed to finalize artifact: %w", err)
	}
	return nil
}

package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedImages(t *testing.T) (refDir, subjDir string) {
	t.Helper()
	refDir = t.TempDir()
	subjDir = t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(refDir, "3"), 0755))
	for _, name := range []string{"3.png", "3.jpg", "readme.txt", "other.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(refDir, "3", name), []byte("img"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(subjDir, "P1.png"), []byte("img"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(subjDir, "P2.jpg"), []byte("img"), 0644))
	return refDir, subjDir
}

func TestReferenceImages(t *testing.T) {
	refDir, subjDir := seedImages(t)
	c := NewImageCatalog(refDir, subjDir)

	images := c.ReferenceImages("3")

	// Only files named after the id with an image extension, sorted.
	assert.Equal(t, []string{"3.jpg", "3.png"}, images)
}

func TestReferenceImagesUnknownID(t *testing.T) {
	refDir, subjDir := seedImages(t)
	c := NewImageCatalog(refDir, subjDir)

	assert.Empty(t, c.ReferenceImages("99"))
}

func TestSubjectImage(t *testing.T) {
	refDir, subjDir := seedImages(t)
	c := NewImageCatalog(refDir, subjDir)

	name, ok := c.SubjectImage("1")
	require.True(t, ok)
	assert.Equal(t, "P1.png", name)

	name, ok = c.SubjectImage("2")
	require.True(t, ok)
	assert.Equal(t, "P2.jpg", name)

	_, ok = c.SubjectImage("9")
	assert.False(t, ok)
}

func TestAllImages(t *testing.T) {
	refDir, subjDir := seedImages(t)
	c := NewImageCatalog(refDir, subjDir)

	paths := c.AllImages()

	require.Len(t, paths, 5)
	for _, p := range paths {
		assert.True(t, filepath.IsAbs(p) || p != filepath.Base(p), "full paths expected: %s", p)
	}
}

func TestAllImagesMissingDirectories(t *testing.T) {
	c := NewImageCatalog("/does/not/exist", "/neither/does/this")
	assert.Empty(t, c.AllImages())
}

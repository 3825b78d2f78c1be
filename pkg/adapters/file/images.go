package file

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var imageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// ImageCatalog resolves reference image filenames from the on-disk layout:
//
//	<referenceDir>/<id>/<id>.<ext>   input-seed images, possibly several
//	<subjectDir>/P<id>.<ext>         one personalization image per subject
//
// It returns base filenames only; those are the names the backend knows the
// images by after upload.
type ImageCatalog struct {
	referenceDir string
	subjectDir   string
}

// NewImageCatalog creates a catalog over the two image directories.
func NewImageCatalog(referenceDir, subjectDir string) *ImageCatalog {
	return &ImageCatalog{referenceDir: referenceDir, subjectDir: subjectDir}
}

// ReferenceImages lists the sorted image filenames for a reference id. An
// empty result is normal: the injector then leaves the cluster slots alone.
func (c *ImageCatalog) ReferenceImages(referenceID string) []string {
	dir := filepath.Join(c.referenceDir, referenceID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, referenceID+".") {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(name))] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// SubjectImage returns the personalization image filename for a subject id,
// trying the known extensions in order.
func (c *ImageCatalog) SubjectImage(subjectID string) (string, bool) {
	for _, ext := range []string{".png", ".jpg", ".jpeg"} {
		name := "P" + subjectID + ext
		if _, err := os.Stat(filepath.Join(c.subjectDir, name)); err == nil {
			return name, true
		}
	}
	return "", false
}

// AllImages returns the full paths of every image either directory holds,
// for pre-batch upload to the backend.
func (c *ImageCatalog) AllImages() []string {
	var paths []string

	if refs, err := os.ReadDir(c.referenceDir); err == nil {
		for _, ref := range refs {
			if !ref.IsDir() {
				continue
			}
			sub := filepath.Join(c.referenceDir, ref.Name())
			if entries, err := os.ReadDir(sub); err == nil {
				for _, e := range entries {
					if !e.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
						paths = append(paths, filepath.Join(sub, e.Name()))
					}
				}
			}
		}
	}

	if entries, err := os.ReadDir(c.subjectDir); err == nil {
		for _, e := range entries {
			if !e.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
				paths = append(paths, filepath.Join(c.subjectDir, e.Name()))
			}
		}
	}

	sort.Strings(paths)
	return paths
}

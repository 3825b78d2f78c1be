// Package file implements the filesystem ports: template graphs, fused
// prompt records, reference images, the artifact directory, and a JSON run
// journal.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/stencil/pkg/domain"
)

// TemplateLoader reads visual graph templates from a directory, one JSON
// document per backend capability.
type TemplateLoader struct {
	dir string
}

// NewTemplateLoader creates a loader rooted at dir.
func NewTemplateLoader(dir string) *TemplateLoader {
	return &TemplateLoader{dir: dir}
}

// Load parses the named template. The ".json" suffix is optional.
func (l *TemplateLoader) Load(name string) (*domain.VisualGraph, error) {
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	data, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, name)
		}
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}

	var g domain.VisualGraph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	if len(g.Nodes) == 0 {
		return nil, fmt.Errorf("template %s contains no nodes", name)
	}
	return &g, nil
}

// List returns the available template names (without extension), sorted.
func (l *TemplateLoader) List() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

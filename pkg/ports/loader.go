package ports

import "github.com/aretw0/stencil/pkg/domain"

// TemplateLoader retrieves visual graph templates. This decouples the core
// from the on-disk template directory (one JSON document per backend
// capability).
type TemplateLoader interface {
	// Load parses the named template. The returned graph is treated as
	// immutable for the rest of the run; injection always works on copies.
	// Returns domain.ErrTemplateNotFound for unknown names.
	Load(name string) (*domain.VisualGraph, error)

	// List returns the available template names, sorted.
	List() ([]string, error)
}

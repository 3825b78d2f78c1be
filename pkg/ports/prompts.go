package ports

import "github.com/aretw0/stencil/pkg/domain"

// PromptSource exposes the fused prompt records produced upstream. The
// driver consumes them read-only; the set of keys defines the batch.
type PromptSource interface {
	// Get returns the prompt pair for a combination key.
	// Returns domain.ErrPromptNotFound for unknown keys.
	Get(key string) (domain.PromptPair, error)

	// Keys returns every combination key, sorted, so batch order is stable
	// across runs.
	Keys() ([]string, error)
}

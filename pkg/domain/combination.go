package domain

import (
	"fmt"
	"strings"
)

// ArtifactPrefix is the filename prefix shared by every generated image.
const ArtifactPrefix = "monster_"

// Combination is one (subject, reference) pair driving one generation
// request. Artifact filenames are deterministic functions of it.
type Combination struct {
	SubjectID   string
	ReferenceID string
}

// Key returns the canonical "<subject>_<reference>" form used for prompt
// lookup, save prefixes and artifact names.
func (c Combination) Key() string {
	return c.SubjectID + "_" + c.ReferenceID
}

// ArtifactName returns the deterministic output filename for this pair.
func (c Combination) ArtifactName() string {
	return ArtifactPrefix + c.Key() + ".png"
}

// ParseKey splits a combination key back into its parts. The reference id may
// itself contain underscores, so only the first one separates the subject.
func ParseKey(key string) (Combination, error) {
	parts := strings.SplitN(key, "_", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Combination{}, fmt.Errorf("%w: %q", ErrBadCombinationKey, key)
	}
	return Combination{SubjectID: parts[0], ReferenceID: parts[1]}, nil
}

// PromptPair is one fused prompt record, produced upstream and consumed
// read-only.
type PromptPair struct {
	Prompt         string `json:"prompt" mapstructure:"prompt"`
	NegativePrompt string `json:"negative_prompt" mapstructure:"negative_prompt"`
}

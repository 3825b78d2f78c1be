package file

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/stencil/pkg/domain"
)

// PromptSource reads the fused prompt file produced upstream. Two on-disk
// formats exist historically:
//
//   - current: {"prompts": {key: text}, "negative_prompts": {key: text}},
//     keys present in both maps form the batch;
//   - legacy: {key: {"prompt": text, "negative_prompt": text}}.
//
// The whole file is parsed once at construction; a missing or unparseable
// file is a configuration error and aborts before any submission.
type PromptSource struct {
	pairs map[string]domain.PromptPair
}

// NewPromptSource loads and normalizes the prompt file at path.
func NewPromptSource(path string) (*PromptSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file: %w", err)
	}

	pairs, err := normalizePrompts(raw)
	if err != nil {
		return nil, err
	}
	return &PromptSource{pairs: pairs}, nil
}

func normalizePrompts(raw map[string]any) (map[string]domain.PromptPair, error) {
	pairs := make(map[string]domain.PromptPair)

	pos, hasPos := raw["prompts"].(map[string]any)
	neg, hasNeg := raw["negative_prompts"].(map[string]any)
	if hasPos && hasNeg {
		for key, p := range pos {
			n, ok := neg[key]
			if !ok {
				continue // a key without a negative half is not a combination
			}
			pairs[key] = domain.PromptPair{
				Prompt:         fmt.Sprintf("%v", p),
				NegativePrompt: fmt.Sprintf("%v", n),
			}
		}
		return pairs, nil
	}

	// Legacy layout: each value is already a record.
	for key, value := range raw {
		var pair domain.PromptPair
		if err := mapstructure.Decode(value, &pair); err != nil {
			return nil, fmt.Errorf("malformed prompt record %q: %w", key, err)
		}
		pairs[key] = pair
	}
	return pairs, nil
}

// Get returns the prompt pair for a combination key.
func (s *PromptSource) Get(key string) (domain.PromptPair, error) {
	pair, ok := s.pairs[key]
	if !ok {
		return domain.PromptPair{}, fmt.Errorf("%w: %s", domain.ErrPromptNotFound, key)
	}
	return pair, nil
}

// Keys returns every combination key, sorted for stable batch order.
func (s *PromptSource) Keys() ([]string, error) {
	keys := make([]string, 0, len(s.pairs))
	for k := range s.pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// DependencyRef points one compiled input at the output slot of another node.
// It serializes as the two-element array the backend expects: ["<id>", slot].
type DependencyRef struct {
	NodeID string
	Slot   int
}

// MarshalJSON emits the wire form ["<nodeID>", slot].
func (r DependencyRef) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{r.NodeID, r.Slot})
}

// UnmarshalJSON accepts the wire form back, mainly for tests and replay.
func (r *DependencyRef) UnmarshalJSON(data []byte) error {
	var raw [2]json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("dependency ref must be a [id, slot] pair: %w", err)
	}
	slot, err := raw[1].Int64()
	if err != nil {
		return fmt.Errorf("dependency slot must be an integer: %w", err)
	}
	r.NodeID = raw[0].String()
	r.Slot = int(slot)
	return nil
}

// CompiledJobNode is one node of the flat job graph. Inputs values are either
// a DependencyRef or a JSON-native literal.
type CompiledJobNode struct {
	ClassType string         `json:"class_type"`
	Inputs    map[string]any `json:"inputs"`
}

// JobGraph is the compiled, backend-ready representation of one concrete
// generation request, keyed by node id. Cycle detection is the backend's
// responsibility, not this layer's.
type JobGraph map[string]CompiledJobNode

// JobSubmission tracks one accepted remote job.
type JobSubmission struct {
	PromptID  string
	Key       string
	StartedAt time.Time
}

// JobOutcome is the terminal result of waiting on a remote job.
type JobOutcome string

const (
	JobCompleted JobOutcome = "completed"
	JobErrored   JobOutcome = "errored"
	JobTimedOut  JobOutcome = "timed_out"
)

// ArtifactDescriptor names one produced output as reported by the backend
// history endpoint.
type ArtifactDescriptor struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder,omitempty"`
	Type      string `json:"type,omitempty"`
}

// ArtifactRecord is a downloaded artifact ready to persist.
type ArtifactRecord struct {
	Filename string
	Data     []byte
}

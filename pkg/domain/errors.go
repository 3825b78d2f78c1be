package domain

import "errors"

// ErrLinkNotFound is returned when a link id is not owned by any output slot.
// Callers treat it as recoverable: the dangling input is simply omitted.
var ErrLinkNotFound = errors.New("link not found")

// ErrTemplateNotFound is returned when a named template graph does not exist.
var ErrTemplateNotFound = errors.New("template not found")

// ErrPromptNotFound is returned when no fused prompt exists for a key.
var ErrPromptNotFound = errors.New("prompt not found")

// ErrJobNotFound is returned when the backend has no record of a tracking id.
var ErrJobNotFound = errors.New("job not found")

// ErrNoArtifacts is returned when a completed job reports no downloadable output.
var ErrNoArtifacts = errors.New("no artifacts produced")

// ErrBadCombinationKey is returned for keys that don't split into subject and reference.
var ErrBadCombinationKey = errors.New("malformed combination key")

// ErrJobFailed is returned when the backend reports an execution error for a job.
var ErrJobFailed = errors.New("backend reported job error")

// ErrJobTimeout is returned when the local poll budget is exhausted. The
// remote job is not retracted.
var ErrJobTimeout = errors.New("poll budget exhausted")

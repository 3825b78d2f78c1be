package ports

import (
	"context"
	"time"

	"github.com/aretw0/stencil/pkg/domain"
)

// JobService drives one remote generation job end-to-end. Implementations
// talk to the image-synthesis backend; the orchestrator only sees this
// interface.
type JobService interface {
	// Ping probes backend liveness. Checked once before a batch begins.
	Ping(ctx context.Context) error

	// Submit sends a compiled job graph and returns the backend tracking id.
	Submit(ctx context.Context, job domain.JobGraph) (string, error)

	// Poll queries status every interval until the job reaches a terminal
	// state or the timeout elapses. Transient query failures are swallowed
	// and retried; only wall-clock time ends the wait. A TimedOut outcome is
	// local only; the remote job keeps running.
	Poll(ctx context.Context, promptID string, timeout, interval time.Duration) (domain.JobOutcome, error)

	// FetchArtifacts lists the produced outputs per node id.
	// Returns domain.ErrJobNotFound when the backend has no such job.
	FetchArtifacts(ctx context.Context, promptID string) (map[string][]domain.ArtifactDescriptor, error)

	// Download fetches the raw bytes of one artifact.
	Download(ctx context.Context, desc domain.ArtifactDescriptor) ([]byte, error)

	// Upload pre-populates a reference image on the backend so jobs can
	// reference it by filename.
	Upload(ctx context.Context, filename string, data []byte) error
}

// PushListener observes backend progress events, e.g. over a websocket.
// Delivery is best-effort: it must never be the sole completion signal, the
// authoritative source is always JobService.Poll.
type PushListener interface {
	Listen(ctx context.Context) error
	Close() error
}

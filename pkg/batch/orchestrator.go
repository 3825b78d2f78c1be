// Package batch drives the sequential combination loop (inject, compile,
// submit, wait, persist) with resumable skipping and per-combination
// failure isolation.
package batch

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/stencil/pkg/compiler"
	"github.com/aretw0/stencil/pkg/domain"
	"github.com/aretw0/stencil/pkg/inject"
	"github.com/aretw0/stencil/pkg/ports"
)

// DefaultPacing is the pause between iterations. It protects the backend
// from burst submissions; it is not a correctness requirement.
const DefaultPacing = time.Second

// Metrics receives batch progress counters. The zero implementation is a
// no-op; pkg/adapters/httpapi provides a Prometheus-backed one.
type Metrics interface {
	JobSkipped()
	JobSubmitted()
	JobCompleted()
	JobFailed()
}

type nopMetrics struct{}

func (nopMetrics) JobSkipped()   {}
func (nopMetrics) JobSubmitted() {}
func (nopMetrics) JobCompleted() {}
func (nopMetrics) JobFailed()    {}

// Orchestrator runs batches. A single call site drives it sequentially: no
// two jobs are ever in flight at once, trading throughput for backend-load
// safety.
type Orchestrator struct {
	injector  *inject.Injector
	compiler  *compiler.Compiler
	client    ports.JobService
	prompts   ports.PromptSource
	artifacts ports.ArtifactStore
	journal   ports.RunJournal
	metrics   Metrics
	logger    *slog.Logger

	pacing       time.Duration
	pollTimeout  time.Duration
	pollInterval time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithJournal records outcomes into a run journal.
func WithJournal(j ports.RunJournal) Option {
	return func(o *Orchestrator) { o.journal = j }
}

// WithMetrics wires progress counters.
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithPacing overrides the inter-iteration pause.
func WithPacing(d time.Duration) Option {
	return func(o *Orchestrator) { o.pacing = d }
}

// WithPollBudget overrides the per-job wait budget and query interval.
func WithPollBudget(timeout, interval time.Duration) Option {
	return func(o *Orchestrator) {
		o.pollTimeout = timeout
		o.pollInterval = interval
	}
}

// New creates an Orchestrator over the given collaborators.
func New(injector *inject.Injector, comp *compiler.Compiler, client ports.JobService,
	prompts ports.PromptSource, artifacts ports.ArtifactStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		injector:     injector,
		compiler:     comp,
		client:       client,
		prompts:      prompts,
		artifacts:    artifacts,
		metrics:      nopMetrics{},
		logger:       slog.Default(),
		pacing:       DefaultPacing,
		pollTimeout:  0, // client defaults apply
		pollInterval: 0,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunOptions slice the combination list.
type RunOptions struct {
	// Limit caps the number of combinations attempted; 0 means all.
	Limit int
	// StartFrom skips ahead to the first key containing this substring,
	// inclusive. No match means the full list.
	StartFrom string
}

// GenerateAll processes the keyed combinations in order against the given
// template. One combination's failure never aborts the batch; errors below
// this layer become a per-key false plus a logged reason. The returned map
// holds one entry per attempted key.
func (o *Orchestrator) GenerateAll(ctx context.Context, template *domain.VisualGraph, keys []string, opts RunOptions) map[string]bool {
	keys = sliceKeys(keys, opts)
	results := make(map[string]bool, len(keys))

	o.logger.Info("starting batch", "combinations", len(keys))

	for i, key := range keys {
		if ctx.Err() != nil {
			o.logger.Warn("batch interrupted", "done", i, "total", len(keys))
			break
		}

		if o.artifacts.Exists(key) {
			o.logger.Debug("artifact exists, skipping", "key", key)
			results[key] = true
			o.record(ctx, key, true, "")
			o.metrics.JobSkipped()
			continue
		}

		o.logger.Info("processing combination", "key", key, "progress", i+1, "total", len(keys))

		err := o.generateOne(ctx, template, key)
		results[key] = err == nil
		if err != nil {
			o.logger.Error("combination failed", "key", key, "err", err)
			o.record(ctx, key, false, err.Error())
			o.metrics.JobFailed()
		} else {
			o.logger.Info("combination generated", "key", key)
			o.record(ctx, key, true, "")
			o.metrics.JobCompleted()
		}

		o.pause(ctx)
	}

	return results
}

// GenerateOne runs a single combination, honoring the same skip rule.
func (o *Orchestrator) GenerateOne(ctx context.Context, template *domain.VisualGraph, key string) bool {
	results := o.GenerateAll(ctx, template, []string{key}, RunOptions{})
	return results[key]
}

// generateOne is the per-combination pipeline. Every returned error is
// recoverable at the batch level.
func (o *Orchestrator) generateOne(ctx context.Context, template *domain.VisualGraph, key string) error {
	combo, err := domain.ParseKey(key)
	if err != nil {
		return err
	}

	prompts, err := o.prompts.Get(key)
	if err != nil {
		return err
	}

	graph := o.injector.Apply(template, combo, prompts)
	job := o.compiler.Compile(graph)

	promptID, err := o.client.Submit(ctx, job)
	if err != nil {
		return err
	}
	sub := domain.JobSubmission{PromptID: promptID, Key: key, StartedAt: time.Now()}
	o.metrics.JobSubmitted()
	o.logger.Debug("job submitted", "key", key, "prompt_id", promptID)

	outcome, err := o.client.Poll(ctx, sub.PromptID, o.pollTimeout, o.pollInterval)
	if err != nil {
		return err
	}
	switch outcome {
	case domain.JobErrored:
		return domain.ErrJobFailed
	case domain.JobTimedOut:
		// Local wait ends here; the remote job keeps running and a later
		// rerun may find its artifact via a fresh submission.
		return domain.ErrJobTimeout
	}

	return o.persistFirstArtifact(ctx, sub)
}

// persistFirstArtifact downloads the first artifact among the declared
// output nodes and saves it under the combination's deterministic name.
func (o *Orchestrator) persistFirstArtifact(ctx context.Context, sub domain.JobSubmission) error {
	outputs, err := o.client.FetchArtifacts(ctx, sub.PromptID)
	if err != nil {
		return err
	}

	// Map order is random; sort node ids so "first" is stable.
	nodeIDs := make([]string, 0, len(outputs))
	for id := range outputs {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)

	for _, nodeID := range nodeIDs {
		for _, desc := range outputs[nodeID] {
			if desc.Filename == "" {
				continue
			}
			data, err := o.client.Download(ctx, desc)
			if err != nil {
				return err
			}
			return o.artifacts.Save(sub.Key, data)
		}
	}
	return domain.ErrNoArtifacts
}

func (o *Orchestrator) record(ctx context.Context, key string, ok bool, reason string) {
	if o.journal == nil {
		return
	}
	if err := o.journal.Record(ctx, key, ok, reason); err != nil {
		o.logger.Warn("journal write failed", "key", key, "err", err)
	}
}

// pause sleeps the pacing interval, returning early on cancellation.
func (o *Orchestrator) pause(ctx context.Context) {
	if o.pacing <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(o.pacing):
	}
}

func sliceKeys(keys []string, opts RunOptions) []string {
	if opts.StartFrom != "" {
		for i, key := range keys {
			if strings.Contains(key, opts.StartFrom) {
				keys = keys[i:]
				break
			}
		}
	}
	if opts.Limit > 0 && opts.Limit < len(keys) {
		keys = keys[:opts.Limit]
	}
	return keys
}

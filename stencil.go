package stencil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/stencil/pkg/adapters/comfy"
	"github.com/aretw0/stencil/pkg/adapters/file"
	"github.com/aretw0/stencil/pkg/adapters/redis"
	"github.com/aretw0/stencil/pkg/batch"
	"github.com/aretw0/stencil/pkg/compiler"
	"github.com/aretw0/stencil/pkg/config"
	"github.com/aretw0/stencil/pkg/inject"
	"github.com/aretw0/stencil/pkg/ports"
)

// Generator is the high-level entry point. It wires the template loader,
// prompt source, artifact store, job client and journal into one batch
// driver with a simplified API.
type Generator struct {
	cfg     config.Config
	logger  *slog.Logger
	client  ports.JobService
	loader  ports.TemplateLoader
	prompts ports.PromptSource
	store   ports.ArtifactStore
	journal ports.RunJournal
	catalog inject.ImageCatalog
	metrics batch.Metrics

	listener ports.PushListener
}

// Option defines a functional option for configuring the Generator.
type Option func(*Generator)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) { g.logger = logger }
}

// WithJobService injects a custom backend client, bypassing the default
// HTTP adapter.
func WithJobService(client ports.JobService) Option {
	return func(g *Generator) { g.client = client }
}

// WithTemplateLoader injects a custom template source.
func WithTemplateLoader(l ports.TemplateLoader) Option {
	return func(g *Generator) { g.loader = l }
}

// WithPromptSource injects a custom prompt source.
func WithPromptSource(p ports.PromptSource) Option {
	return func(g *Generator) { g.prompts = p }
}

// WithArtifactStore injects a custom artifact store.
func WithArtifactStore(s ports.ArtifactStore) Option {
	return func(g *Generator) { g.store = s }
}

// WithJournal injects a custom run journal.
func WithJournal(j ports.RunJournal) Option {
	return func(g *Generator) { g.journal = j }
}

// WithImageCatalog injects a custom reference-image catalog.
func WithImageCatalog(c inject.ImageCatalog) Option {
	return func(g *Generator) { g.catalog = c }
}

// WithMetrics wires batch progress counters.
func WithMetrics(m batch.Metrics) Option {
	return func(g *Generator) { g.metrics = m }
}

// WithPushListener injects a progress listener. The default (when
// cfg.Progress.Listen is set and the default client is in use) watches the
// backend websocket.
func WithPushListener(l ports.PushListener) Option {
	return func(g *Generator) { g.listener = l }
}

// New initializes a Generator from explicit configuration. Adapters not
// overridden by options are built from cfg. A missing or unparseable prompt
// file fails here, before anything is submitted.
func New(cfg config.Config, opts ...Option) (*Generator, error) {
	g := &Generator{cfg: cfg}

	for _, opt := range opts {
		opt(g)
	}

	if g.logger == nil {
		g.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if g.client == nil {
		client := comfy.New(cfg.Backend.URL, comfy.WithLogger(g.logger))
		g.client = client
		if cfg.Progress.Listen && g.listener == nil {
			g.listener = comfy.NewListener(cfg.Backend.URL, client.ClientID(), g.logger)
		}
	}
	if g.loader == nil {
		g.loader = file.NewTemplateLoader(cfg.Paths.Templates)
	}
	if g.prompts == nil {
		prompts, err := file.NewPromptSource(cfg.Paths.Prompts)
		if err != nil {
			return nil, fmt.Errorf("prompt source: %w", err)
		}
		g.prompts = prompts
	}
	if g.store == nil {
		g.store = file.NewArtifactStore(cfg.Paths.Artifacts)
	}
	if g.catalog == nil {
		g.catalog = file.NewImageCatalog(cfg.Paths.ReferenceImages, cfg.Paths.SubjectImages)
	}
	if g.journal == nil {
		if cfg.Redis.Addr != "" {
			g.journal = redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		} else if cfg.Paths.Journal != "" {
			journal, err := file.NewJournal(cfg.Paths.Journal)
			if err != nil {
				return nil, fmt.Errorf("run journal: %w", err)
			}
			g.journal = journal
		}
	}

	return g, nil
}

// RunOptions parameterize one batch invocation.
type RunOptions struct {
	// Template names the graph template; empty means the configured default.
	Template string
	// Keys restricts the batch to specific combination keys; empty means
	// every key the prompt source knows.
	Keys []string
	// Limit and StartFrom slice the list, see batch.RunOptions.
	Limit     int
	StartFrom string
}

// Run executes one batch: liveness check, reference-image upload, then the
// sequential combination loop. The returned map has one success flag per
// attempted key. Only configuration-level failures produce an error;
// everything per-combination is contained in the map.
func (g *Generator) Run(ctx context.Context, opts RunOptions) (map[string]bool, error) {
	if err := g.client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("backend liveness check failed: %w", err)
	}

	if g.listener != nil {
		listenCtx, stopListener := context.WithCancel(ctx)
		defer stopListener()
		go func() {
			if err := g.listener.Listen(listenCtx); err != nil {
				g.logger.Debug("push listener stopped", "err", err)
			}
		}()
	}

	g.uploadReferenceImages(ctx)

	name := opts.Template
	if name == "" {
		name = g.cfg.Batch.Template
	}
	template, err := g.loader.Load(name)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", name, err)
	}

	keys := opts.Keys
	if len(keys) == 0 {
		keys, err = g.prompts.Keys()
		if err != nil {
			return nil, fmt.Errorf("prompt keys: %w", err)
		}
	}

	orch := g.orchestrator()
	return orch.GenerateAll(ctx, template, keys, batch.RunOptions{
		Limit:     opts.Limit,
		StartFrom: opts.StartFrom,
	}), nil
}

// RunOne drives a single combination key through the same pipeline.
func (g *Generator) RunOne(ctx context.Context, key string) (bool, error) {
	results, err := g.Run(ctx, RunOptions{Keys: []string{key}})
	if err != nil {
		return false, err
	}
	return results[key], nil
}

// Check validates the setup without submitting anything: configuration
// paths plus one backend liveness probe.
func (g *Generator) Check(ctx context.Context) []string {
	issues := g.cfg.Validate()
	if err := g.client.Ping(ctx); err != nil {
		issues = append(issues, fmt.Sprintf("backend unreachable: %v", err))
	}
	return issues
}

func (g *Generator) orchestrator() *batch.Orchestrator {
	injector := inject.New(g.catalog,
		inject.WithClusterY(g.cfg.Batch.ClusterY),
		inject.WithLogger(g.logger),
	)
	comp := compiler.New(compiler.WithLogger(g.logger))

	orchOpts := []batch.Option{
		batch.WithLogger(g.logger),
		batch.WithPacing(g.cfg.Batch.Pacing.Std()),
		batch.WithPollBudget(g.cfg.Backend.PollTimeout.Std(), g.cfg.Backend.PollInterval.Std()),
	}
	if g.journal != nil {
		orchOpts = append(orchOpts, batch.WithJournal(g.journal))
	}
	if g.metrics != nil {
		orchOpts = append(orchOpts, batch.WithMetrics(g.metrics))
	}

	return batch.New(injector, comp, g.client, g.prompts, g.store, orchOpts...)
}

// uploadReferenceImages pre-populates every known reference image on the
// backend so the injected filenames resolve. Failures are logged and
// skipped; a missing image surfaces later as that combination's job error,
// never as a batch abort.
func (g *Generator) uploadReferenceImages(ctx context.Context) {
	catalog, ok := g.catalog.(interface{ AllImages() []string })
	if !ok {
		return
	}
	uploaded := 0
	for _, path := range catalog.AllImages() {
		data, err := os.ReadFile(path)
		if err != nil {
			g.logger.Warn("failed to read reference image", "path", path, "err", err)
			continue
		}
		name := filepath.Base(path)
		if err := g.client.Upload(ctx, name, data); err != nil {
			g.logger.Warn("failed to upload reference image", "image", name, "err", err)
			continue
		}
		uploaded++
	}
	if uploaded > 0 {
		g.logger.Info("reference images uploaded", "count", uploaded)
	}
}

// Journal returns the wired run journal, if any. The CLI uses it to expose
// the progress endpoint.
func (g *Generator) Journal() ports.RunJournal { return g.journal }

// SplitKeys parses a comma-separated key list, trimming blanks.
func SplitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

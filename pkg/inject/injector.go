// Package inject mutates a per-combination copy of a template graph with the
// concrete parameters of one generation request: fused prompts, reference
// image filenames, a fresh sampler seed, and the output name. Every step is
// tolerant of missing targets, so a template without (say) an edge-detect
// branch injects cleanly.
package inject

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/aretw0/stencil/pkg/domain"
)

// DefaultClusterY is the layout threshold separating the subject-reference
// LoadImage cluster (above) from the style/control reference (below). The
// classification is a layout heuristic carried over from the template
// conventions; templates that move nodes across the threshold change roles.
const DefaultClusterY = 500

// negativeMarkers classify an existing prompt text as the negative slot.
var negativeMarkers = []string{"blurry", "deformed", "bad", "low quality", "worst"}

// ImageCatalog supplies the reference image filenames available on disk.
// Filenames are base names as the backend's upload endpoint knows them.
type ImageCatalog interface {
	// ReferenceImages returns the sorted image filenames for a reference id.
	// An empty slice means the injector leaves the cluster slots untouched.
	ReferenceImages(referenceID string) []string

	// SubjectImage returns the single personalization image for a subject id,
	// or ok=false when none exists.
	SubjectImage(subjectID string) (string, bool)
}

// Injector builds per-combination graphs from an immutable template.
type Injector struct {
	catalog  ImageCatalog
	clusterY float64
	seedFn   func() int
	logger   *slog.Logger
}

// Option configures an Injector.
type Option func(*Injector)

// WithClusterY overrides the vertical threshold for the subject cluster.
func WithClusterY(y float64) Option {
	return func(in *Injector) { in.clusterY = y }
}

// WithSeedFn replaces the sampler seed source, mainly for deterministic tests.
func WithSeedFn(fn func() int) Option {
	return func(in *Injector) { in.seedFn = fn }
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Injector) { in.logger = logger }
}

// New creates an Injector backed by the given image catalog.
func New(catalog ImageCatalog, opts ...Option) *Injector {
	in := &Injector{
		catalog:  catalog,
		clusterY: DefaultClusterY,
		seedFn: func() int {
			// Full positive 32-bit range, fresh on every injection.
			return int(rand.Int32N(math.MaxInt32)) + 1
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Apply produces the mutated copy of template for one combination. The
// template itself is never modified.
func (in *Injector) Apply(template *domain.VisualGraph, combo domain.Combination, prompts domain.PromptPair) *domain.VisualGraph {
	g := template.Clone()
	in.injectPrompts(g, prompts)
	in.injectReferenceImages(g, combo)
	in.resetSeeds(g)
	in.injectSavePrefix(g, combo)
	return g
}

// injectPrompts rewrites every text-encoding node. A node whose current text
// reads like a quality blacklist gets the negative prompt, everything else
// the positive one.
func (in *Injector) injectPrompts(g *domain.VisualGraph, prompts domain.PromptPair) {
	for _, node := range g.NodesByType(domain.KindTextEncode) {
		text := prompts.Prompt
		if len(node.Widgets) > 0 && isNegativeText(node.Widgets[0]) {
			text = prompts.NegativePrompt
		}
		setWidget(node, 0, text)
	}
}

func isNegativeText(raw any) bool {
	s, ok := raw.(string)
	if !ok {
		return false
	}
	s = strings.ToLower(s)
	for _, marker := range negativeMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// injectReferenceImages assigns filenames to the image-loading nodes. The
// topmost group (Y below the threshold) holds the subject-reference slots,
// filled by cycling over however many reference images exist; the single
// lowest node is the style/control reference and receives the subject image.
func (in *Injector) injectReferenceImages(g *domain.VisualGraph, combo domain.Combination) {
	loaders := g.NodesByType(domain.KindLoadImage)
	if len(loaders) == 0 {
		return
	}

	var cluster []*domain.NodeRecord
	control := loaders[0]
	for _, node := range loaders {
		if node.Y() < in.clusterY {
			cluster = append(cluster, node)
		}
		if node.Y() > control.Y() {
			control = node
		}
	}

	images := in.catalog.ReferenceImages(combo.ReferenceID)
	if len(images) > 0 {
		for i, node := range cluster {
			node.Widgets = []any{images[i%len(images)], "image"}
		}
	} else {
		in.logger.Debug("no reference images on disk, cluster slots left unfilled",
			"reference", combo.ReferenceID)
	}

	if filename, ok := in.catalog.SubjectImage(combo.SubjectID); ok {
		control.Widgets = []any{filename, "image"}
	}
}

// resetSeeds assigns a fresh random seed to every sampling node so repeated
// runs of the same combination never share backend-side determinism.
func (in *Injector) resetSeeds(g *domain.VisualGraph) {
	for _, node := range g.NodesByType(domain.KindSampler) {
		setWidget(node, 0, in.seedFn())
	}
}

// injectSavePrefix names the output after the combination, which is what
// makes the produced artifact discoverable and the batch resumable.
func (in *Injector) injectSavePrefix(g *domain.VisualGraph, combo domain.Combination) {
	for _, node := range g.NodesByType(domain.KindSave) {
		node.Widgets = []any{domain.ArtifactPrefix + combo.Key()}
	}
}

func setWidget(node *domain.NodeRecord, idx int, value any) {
	for len(node.Widgets) <= idx {
		node.Widgets = append(node.Widgets, nil)
	}
	node.Widgets[idx] = value
}

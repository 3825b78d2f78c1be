package compiler

import (
	"log/slog"
	"strconv"

	"github.com/aretw0/stencil/pkg/domain"
)

// excluded lists the organizational kinds that never reach the backend.
var excluded = map[string]bool{
	domain.KindNote:    true,
	domain.KindReroute: true,
}

// Compiler translates visual graphs into job graphs. It is safe for reuse
// across combinations; Compile never mutates its input.
type Compiler struct {
	schemas map[string]WidgetSchema
	logger  *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithSchema adds or replaces the widget schema for a node kind, extending
// the built-in catalog.
func WithSchema(kind string, schema WidgetSchema) Option {
	return func(c *Compiler) {
		c.schemas[kind] = schema
	}
}

// WithLogger sets a structured logger for per-node diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// New creates a Compiler with the built-in schema catalog.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		schemas: defaultSchemas(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile flattens the graph into the backend's executable form. It is total
// over unrecognized kinds and tolerant of dangling links: an input whose link
// id has no owner is simply omitted. Identical input always yields an
// identical JobGraph.
func (c *Compiler) Compile(g *domain.VisualGraph) domain.JobGraph {
	job := make(domain.JobGraph, len(g.Nodes))

	for i := range g.Nodes {
		node := &g.Nodes[i]
		if node.Type == "" || excluded[node.Type] {
			continue
		}

		inputs := make(map[string]any)

		// Positional literals first; wired connections override them below.
		schema, known := c.schemas[node.Type]
		for name, value := range decodeWidgets(schema, node.Widgets, known) {
			inputs[name] = value
		}

		for _, in := range node.Inputs {
			if in.Link == nil || in.Name == "" {
				continue
			}
			srcID, slot, ok := ResolveLink(g, *in.Link)
			if !ok {
				c.logger.Debug("dangling link omitted",
					"node", node.ID, "input", in.Name, "link", *in.Link)
				continue
			}
			inputs[in.Name] = domain.DependencyRef{
				NodeID: strconv.Itoa(srcID),
				Slot:   slot,
			}
		}

		job[strconv.Itoa(node.ID)] = domain.CompiledJobNode{
			ClassType: node.Type,
			Inputs:    inputs,
		}
	}

	return job
}

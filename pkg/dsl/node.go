package dsl

// NodeBuilder configures a single node. Methods return the builder for
// chaining; Done returns to the graph builder. It addresses the node by
// index, so it stays valid as the graph grows.
type NodeBuilder struct {
	idx     int
	builder *Builder
}

// At sets the editor layout position. The injector's image-role heuristic
// reads the Y coordinate, so image-loading nodes should get a real one.
func (nb *NodeBuilder) At(x, y float64) *NodeBuilder {
	nb.builder.nodes[nb.idx].Pos = []float64{x, y}
	return nb
}

// Widgets sets the raw positional widget values.
func (nb *NodeBuilder) Widgets(values ...any) *NodeBuilder {
	nb.builder.nodes[nb.idx].Widgets = values
	return nb
}

// Done returns the graph builder for further chaining.
func (nb *NodeBuilder) Done() *Builder {
	return nb.builder
}

package dsl

import (
	"fmt"

	"github.com/aretw0/stencil/pkg/domain"
)

// Builder assembles a visual graph node by node. Node ids and link ids are
// assigned sequentially, so the same build sequence always produces the same
// document.
type Builder struct {
	nodes    []domain.NodeRecord
	byID     map[int]int // node id -> index into nodes
	nextLink int
	err      error
}

// New creates an empty graph builder.
func New() *Builder {
	return &Builder{byID: make(map[int]int), nextLink: 1}
}

// Node adds a node of the given kind and returns its builder. Ids start at 1
// and follow insertion order.
func (b *Builder) Node(kind string) *NodeBuilder {
	id := len(b.nodes) + 1
	b.nodes = append(b.nodes, domain.NodeRecord{ID: id, Type: kind})
	b.byID[id] = len(b.nodes) - 1
	return &NodeBuilder{idx: len(b.nodes) - 1, builder: b}
}

// Connect wires output slot fromSlot of node fromID into the named input of
// node toID, allocating a fresh link id. Unknown node ids surface from Build.
func (b *Builder) Connect(fromID, fromSlot, toID int, input string) *Builder {
	fromIdx, okFrom := b.byID[fromID]
	toIdx, okTo := b.byID[toID]
	if !okFrom || !okTo {
		if b.err == nil {
			b.err = fmt.Errorf("connect %d -> %d: unknown node id", fromID, toID)
		}
		return b
	}

	link := b.nextLink
	b.nextLink++

	from := &b.nodes[fromIdx]
	for len(from.Outputs) <= fromSlot {
		from.Outputs = append(from.Outputs, domain.NodeOutput{})
	}
	from.Outputs[fromSlot].Links = append(from.Outputs[fromSlot].Links, link)

	b.nodes[toIdx].Inputs = append(b.nodes[toIdx].Inputs, domain.NodeInput{
		Name: input,
		Link: &link,
	})
	return b
}

// Build returns the assembled graph.
func (b *Builder) Build() (*domain.VisualGraph, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.nodes) == 0 {
		return nil, fmt.Errorf("graph has no nodes")
	}
	g := &domain.VisualGraph{Nodes: b.nodes}
	return g.Clone(), nil
}

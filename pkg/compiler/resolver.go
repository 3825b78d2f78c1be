package compiler

import "github.com/aretw0/stencil/pkg/domain"

// ResolveLink finds the node and output slot that own the given link id.
// It scans every node's declared outputs; link ids are unique per document,
// so the first owner is the only owner. ok is false for dangling links;
// callers treat that as "omit the input", never as a failure.
func ResolveLink(g *domain.VisualGraph, linkID int) (sourceNodeID int, slot int, ok bool) {
	for i := range g.Nodes {
		for slotIdx, out := range g.Nodes[i].Outputs {
			for _, l := range out.Links {
				if l == linkID {
					return g.Nodes[i].ID, slotIdx, true
				}
			}
		}
	}
	return 0, 0, false
}

package domain

// Node kind tags with compile-time or injection-time meaning. The catalog is
// open: any other tag passes through the compiler opaquely.
const (
	KindTextEncode   = "CLIPTextEncode"
	KindSampler      = "KSampler"
	KindSave         = "SaveImage"
	KindLoadImage    = "LoadImage"
	KindLatentSize   = "EmptyLatentImage"
	KindEdgeDetect   = "Canny"
	KindAdapterBlend = "IPAdapterAdvanced"
	KindCondApply    = "ControlNetApply"

	// Organizational kinds carry no execution semantics and are never compiled.
	KindNote    = "Note"
	KindReroute = "Reroute"
)

// NodeInput is one named input slot of a node. Link is nil when the slot is
// not wired to any producer.
type NodeInput struct {
	Name string `json:"name"`
	Link *int   `json:"link"`
}

// NodeOutput is one output slot. A single slot may fan out to several
// consumers, hence the list of link ids.
type NodeOutput struct {
	Name  string `json:"name,omitempty"`
	Links []int  `json:"links"`
}

// NodeRecord is a single node of the visual document.
type NodeRecord struct {
	ID      int          `json:"id"`
	Type    string       `json:"type"`
	Pos     []float64    `json:"pos,omitempty"`
	Inputs  []NodeInput  `json:"inputs,omitempty"`
	Outputs []NodeOutput `json:"outputs,omitempty"`

	// Widgets holds the raw positional widget values exactly as the editor
	// saved them. Their meaning depends on Type; see compiler.DecodeWidgets.
	Widgets []any `json:"widgets_values,omitempty"`
}

// Y returns the vertical layout position, or 0 when the editor saved no
// position. Image-role classification relies on this.
func (n *NodeRecord) Y() float64 {
	if len(n.Pos) < 2 {
		return 0
	}
	return n.Pos[1]
}

// VisualGraph is the node-and-link document describing a reusable generation
// pipeline before parameter injection. Link ids are unique per document.
type VisualGraph struct {
	Nodes []NodeRecord `json:"nodes"`
}

// NodesByType returns the nodes of the given kind in document order.
func (g *VisualGraph) NodesByType(kind string) []*NodeRecord {
	var out []*NodeRecord
	for i := range g.Nodes {
		if g.Nodes[i].Type == kind {
			out = append(out, &g.Nodes[i])
		}
	}
	return out
}

// Clone produces an independent deep copy. The injector mutates copies only;
// the loaded template stays immutable for the whole run.
func (g *VisualGraph) Clone() *VisualGraph {
	dup := &VisualGraph{Nodes: make([]NodeRecord, len(g.Nodes))}
	for i, n := range g.Nodes {
		c := n
		c.Pos = append([]float64(nil), n.Pos...)
		c.Inputs = make([]NodeInput, len(n.Inputs))
		for j, in := range n.Inputs {
			c.Inputs[j] = in
			if in.Link != nil {
				l := *in.Link
				c.Inputs[j].Link = &l
			}
		}
		c.Outputs = make([]NodeOutput, len(n.Outputs))
		for j, out := range n.Outputs {
			c.Outputs[j] = out
			c.Outputs[j].Links = append([]int(nil), out.Links...)
		}
		c.Widgets = append([]any(nil), n.Widgets...)
		dup.Nodes[i] = c
	}
	return dup
}

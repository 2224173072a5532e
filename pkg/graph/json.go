package graph

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/samcharles93/loprec/pkg/dequant"
	"github.com/samcharles93/loprec/pkg/element"
)

// nodeDoc is the JSON interchange form of a single node.
type nodeDoc struct {
	ID      NodeID              `json:"id"`
	Op      string              `json:"op"`
	Name    string              `json:"name,omitempty"`
	Type    element.Type        `json:"type,omitempty"`
	Shape   []int               `json:"shape,omitempty"`
	Inputs  []NodeID            `json:"inputs,omitempty"`
	InDeq   *dequant.Descriptor `json:"input_dequantization,omitempty"`
	OutDeq  *dequant.Descriptor `json:"output_dequantization,omitempty"`
}

type graphDoc struct {
	Name  string    `json:"name,omitempty"`
	Nodes []nodeDoc `json:"nodes"`
}

// Encode renders the graph in its JSON interchange form.
func Encode(g *Graph) ([]byte, error) {
	doc := graphDoc{Name: g.name, Nodes: make([]nodeDoc, len(g.nodes))}
	for i, n := range g.nodes {
		nd := nodeDoc{
			ID:     n.id,
			Op:     n.kind.String(),
			Name:   n.name,
			Type:   n.outType,
			Shape:  n.shape,
			Inputs: n.inputs,
		}
		if !n.inDeq.IsEmpty() {
			d := n.inDeq
			nd.InDeq = &d
		}
		if !n.outDeq.IsEmpty() {
			d := n.outDeq
			nd.OutDeq = &d
		}
		doc.Nodes[i] = nd
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Decode parses a JSON interchange document into a graph, running the
// same attach-time descriptor validation as the mutation API.
func Decode(data []byte) (*Graph, error) {
	var doc graphDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptGraph, err)
	}

	g := New(doc.Name)
	for i, nd := range doc.Nodes {
		if int(nd.ID) != i {
			return nil, fmt.Errorf("%w: node %d declared id %d", ErrCorruptGraph, i, nd.ID)
		}
		kind, err := ParseOpKind(nd.Op)
		if err != nil {
			return nil, fmt.Errorf("%w: node %d: %v", ErrCorruptGraph, i, err)
		}
		for _, in := range nd.Inputs {
			if in < 0 || int(in) >= i {
				return nil, fmt.Errorf("%w: node %d references input %d", ErrCorruptGraph, i, in)
			}
		}

		var id NodeID
		if kind == OpParameter {
			id = g.AddParameter(nd.Name, nd.Type, nd.Shape)
		} else {
			id = g.AddNode(kind, nd.Name, nd.Inputs...)
			if nd.Type != element.Undefined {
				g.SetOutputElementType(id, nd.Type)
			}
			if len(nd.Shape) > 0 {
				g.nodes[id].shape = nd.Shape
			}
		}
		if nd.InDeq != nil {
			if err := g.SetInputDescriptor(id, *nd.InDeq); err != nil {
				return nil, fmt.Errorf("node %d input dequantization: %w", i, err)
			}
		}
		if nd.OutDeq != nil {
			if err := g.SetOutputDescriptor(id, *nd.OutDeq); err != nil {
				return nil, fmt.Errorf("node %d output dequantization: %w", i, err)
			}
		}
	}
	return g, nil
}

// Package graph holds the quantized compute-graph model the
// transformation engine rewrites. Nodes live in an arena table with
// stable indices; edges carry optional dequantization descriptors that
// rules detach, split and re-attach during an optimization pass.
package graph

import (
	"fmt"

	"github.com/samcharles93/loprec/pkg/dequant"
	"github.com/samcharles93/loprec/pkg/element"
)

// OpKind identifies the operation a node performs.
type OpKind uint8

const (
	OpParameter OpKind = iota
	OpRelu
	OpClamp
	OpConvolution
	OpResult
)

var opNames = map[OpKind]string{
	OpParameter:   "parameter",
	OpRelu:        "relu",
	OpClamp:       "clamp",
	OpConvolution: "convolution",
	OpResult:      "result",
}

func (k OpKind) String() string {
	if name, ok := opNames[k]; ok {
		return name
	}
	return fmt.Sprintf("graph.OpKind(%d)", uint8(k))
}

// ParseOpKind converts an op name as produced by String back into an OpKind.
func ParseOpKind(s string) (OpKind, error) {
	for k, name := range opNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown op kind %q", s)
}

// NodeID is a stable index into the graph's node arena. IDs never move
// or get reused while the graph is alive, so a traversal order
// snapshotted before a pass stays valid while edges are rewritten.
type NodeID int

// Node is one operation in the graph. The dequantization descriptors
// sit on its edges: inDeq on the (single modeled) input edge, outDeq on
// the output edge. outType is the element type the node is recorded to
// produce; for a freshly quantized graph it equals the input type.
type Node struct {
	id      NodeID
	kind    OpKind
	name    string
	shape   []int // NCHW
	inputs  []NodeID
	inDeq   dequant.Descriptor
	outDeq  dequant.Descriptor
	outType element.Type
}

// ID returns the node's arena index.
func (n *Node) ID() NodeID { return n.id }

// Kind returns the node's operation kind.
func (n *Node) Kind() OpKind { return n.kind }

// Name returns the node's display name.
func (n *Node) Name() string { return n.name }

// Shape returns the node's tensor shape in NCHW layout.
func (n *Node) Shape() []int { return n.shape }

// Inputs returns the producing nodes, in input-port order.
func (n *Node) Inputs() []NodeID { return n.inputs }

// Graph is a mutable quantized compute graph. It is not safe for
// concurrent use while a transformer run is mutating its edges.
type Graph struct {
	name  string
	nodes []*Node
}

// New creates an empty graph.
func New(name string) *Graph {
	return &Graph{name: name}
}

// Name returns the graph's display name.
func (g *Graph) Name() string { return g.name }

// Len returns the number of nodes in the arena.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node at id, or an error for an out-of-range id.
func (g *Graph) Node(id NodeID) (*Node, error) {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	return g.nodes[id], nil
}

func (g *Graph) mustNode(id NodeID) *Node {
	n, err := g.Node(id)
	if err != nil {
		panic(err)
	}
	return n
}

// AddParameter appends a graph input of the given element type and shape.
func (g *Graph) AddParameter(name string, typ element.Type, shape []int) NodeID {
	return g.add(&Node{kind: OpParameter, name: name, shape: shape, outType: typ})
}

// AddNode appends an operation consuming the given inputs. The node's
// shape and recorded output type are taken from its first input;
// elementwise ops preserve both until a transformation says otherwise.
func (g *Graph) AddNode(kind OpKind, name string, inputs ...NodeID) NodeID {
	n := &Node{kind: kind, name: name, inputs: inputs}
	if len(inputs) > 0 {
		src := g.mustNode(inputs[0])
		n.shape = src.shape
		n.outType = src.outType
	}
	return g.add(n)
}

// AddResult appends a graph output consuming the given node.
func (g *Graph) AddResult(name string, input NodeID) NodeID {
	return g.AddNode(OpResult, name, input)
}

func (g *Graph) add(n *Node) NodeID {
	n.id = NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	return n.id
}

// ChannelDim returns the size of the channel dimension (axis 1 in NCHW)
// of the node's tensor, or 0 when the rank is too small to have one.
func (g *Graph) ChannelDim(id NodeID) int {
	n := g.mustNode(id)
	if len(n.shape) < 2 {
		return 0
	}
	return n.shape[1]
}

// InputDescriptor returns the descriptor on the node's input edge.
func (g *Graph) InputDescriptor(id NodeID) dequant.Descriptor {
	return g.mustNode(id).inDeq
}

// OutputDescriptor returns the descriptor on the node's output edge.
func (g *Graph) OutputDescriptor(id NodeID) dequant.Descriptor {
	return g.mustNode(id).outDeq
}

// InputElementType returns the element type of the data arriving on the
// node's input edge before any decode, i.e. the recorded output type of
// its producer. Parameters report their own type.
func (g *Graph) InputElementType(id NodeID) element.Type {
	n := g.mustNode(id)
	if len(n.inputs) == 0 {
		return n.outType
	}
	return g.mustNode(n.inputs[0]).outType
}

// OutputElementType returns the node's recorded output element type.
func (g *Graph) OutputElementType(id NodeID) element.Type {
	return g.mustNode(id).outType
}

// SetInputDescriptor replaces the descriptor on the node's input edge.
// Per-channel stages are validated against the channel dimension here,
// at attach time; on mismatch the edge is left unchanged.
func (g *Graph) SetInputDescriptor(id NodeID, d dequant.Descriptor) error {
	n := g.mustNode(id)
	if err := d.Validate(g.ChannelDim(id)); err != nil {
		return err
	}
	n.inDeq = d
	return nil
}

// SetOutputDescriptor replaces the descriptor on the node's output
// edge, with the same attach-time validation as SetInputDescriptor.
func (g *Graph) SetOutputDescriptor(id NodeID, d dequant.Descriptor) error {
	n := g.mustNode(id)
	if err := d.Validate(g.ChannelDim(id)); err != nil {
		return err
	}
	n.outDeq = d
	return nil
}

// SetOutputElementType updates the node's recorded output element type.
func (g *Graph) SetOutputElementType(id NodeID, typ element.Type) {
	g.mustNode(id).outType = typ
}

// Order returns a topological order over the node arena, computed from
// scratch. A transformer run snapshots this once before mutating any
// edge, so rewrites cannot invalidate the traversal.
func (g *Graph) Order() ([]NodeID, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]uint8, len(g.nodes))
	order := make([]NodeID, 0, len(g.nodes))

	var visit func(id NodeID) error
	visit = func(id NodeID) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: at node %q", ErrCycle, g.nodes[id].name)
		}
		state[id] = visiting
		for _, in := range g.nodes[id].inputs {
			if err := visit(in); err != nil {
				return err
			}
		}
		state[id] = done
		order = append(order, id)
		return nil
	}

	for id := range g.nodes {
		if err := visit(NodeID(id)); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Clone returns a deep copy sharing no mutable state with g, so one
// copy can be rewritten while the other stays pristine for comparison.
func (g *Graph) Clone() *Graph {
	out := &Graph{name: g.name, nodes: make([]*Node, len(g.nodes))}
	for i, n := range g.nodes {
		c := *n
		c.shape = append([]int(nil), n.shape...)
		c.inputs = append([]NodeID(nil), n.inputs...)
		c.inDeq = cloneDescriptor(n.inDeq)
		c.outDeq = cloneDescriptor(n.outDeq)
		out.nodes[i] = &c
	}
	return out
}

func cloneDescriptor(d dequant.Descriptor) dequant.Descriptor {
	c := dequant.Descriptor{Convert: d.Convert}
	if d.Subtract != nil {
		s := *d.Subtract
		s.Values = append([]float32(nil), d.Subtract.Values...)
		c.Subtract = &s
	}
	if d.Multiply != nil {
		m := *d.Multiply
		m.Values = append([]float32(nil), d.Multiply.Values...)
		c.Multiply = &m
	}
	return c
}

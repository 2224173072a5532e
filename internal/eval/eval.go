// Package eval executes a quantized graph on concrete float32 tensors,
// applying dequantization descriptors as affine decodes. It is the
// reference semantics the rewrite rules are checked against: a
// transformation is correct iff evaluation before and after agrees on
// every input.
package eval

import (
	"errors"
	"fmt"
	"math"

	"github.com/samcharles93/loprec/pkg/dequant"
	"github.com/samcharles93/loprec/pkg/graph"
)

var (
	ErrMissingInput  = errors.New("missing input tensor")
	ErrUnsupportedOp = errors.New("op not supported by the evaluator")
)

// Run evaluates g on the named input tensors and returns one output
// tensor per result node, keyed by the result node's name. Data is
// flat in NCHW order; element types only affect decode semantics, the
// arithmetic itself is float32 throughout.
func Run(g *graph.Graph, inputs map[string][]float32) (map[string][]float32, error) {
	order, err := g.Order()
	if err != nil {
		return nil, err
	}

	values := make(map[graph.NodeID][]float32, g.Len())
	outputs := make(map[string][]float32)

	for _, id := range order {
		n, err := g.Node(id)
		if err != nil {
			return nil, err
		}

		var v []float32
		switch n.Kind() {
		case graph.OpParameter:
			data, ok := inputs[n.Name()]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrMissingInput, n.Name())
			}
			if want := numel(n.Shape()); want > 0 && len(data) != want {
				return nil, fmt.Errorf("input %q has %d elements, shape %v wants %d",
					n.Name(), len(data), n.Shape(), want)
			}
			v = data

		case graph.OpRelu, graph.OpClamp:
			x := decode(g.InputDescriptor(id), values[n.Inputs()[0]], n.Shape())
			for i, e := range x {
				if e < 0 {
					x[i] = 0
				}
			}
			v = x

		case graph.OpResult:
			v = decode(g.InputDescriptor(id), values[n.Inputs()[0]], n.Shape())

		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedOp, n.Kind())
		}

		v = decode(g.OutputDescriptor(id), v, n.Shape())
		values[id] = v
		if n.Kind() == graph.OpResult {
			outputs[n.Name()] = v
		}
	}
	return outputs, nil
}

// decode applies the affine chain convert -> subtract -> multiply to a
// copy of x. Conversion is a no-op here because the evaluator already
// carries everything as float32; it only matters for precision
// bookkeeping in the graph model.
func decode(d dequant.Descriptor, x []float32, shape []int) []float32 {
	out := append([]float32(nil), x...)
	if d.IsEmpty() {
		return out
	}
	if d.HasSubtract() {
		applyStage(out, shape, d.Subtract.Values, d.Subtract.PerChannel, func(a, b float32) float32 {
			return a - b
		})
	}
	if d.HasMultiply() {
		applyStage(out, shape, d.Multiply.Values, d.Multiply.PerChannel, func(a, b float32) float32 {
			return a * b
		})
	}
	return out
}

func applyStage(x []float32, shape []int, values []float32, perChannel bool, op func(a, b float32) float32) {
	if !perChannel {
		for i := range x {
			x[i] = op(x[i], values[0])
		}
		return
	}
	// NCHW: channel index advances every prod(shape[2:]) elements.
	inner := 1
	if len(shape) > 2 {
		for _, d := range shape[2:] {
			inner *= d
		}
	}
	channels := len(values)
	for i := range x {
		c := (i / inner) % channels
		x[i] = op(x[i], values[c])
	}
}

func numel(shape []int) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// MaxAbsDiff returns the largest elementwise difference between two
// tensors, or an error when their lengths disagree.
func MaxAbsDiff(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("tensor sizes disagree: %d vs %d", len(a), len(b))
	}
	var max float64
	for i := range a {
		d := math.Abs(float64(a[i]) - float64(b[i]))
		if d > max {
			max = d
		}
	}
	return max, nil
}

// Compare evaluates two graphs on the same inputs and returns the
// largest difference over all outputs. Graphs must expose the same
// result names.
func Compare(a, b *graph.Graph, inputs map[string][]float32) (float64, error) {
	outA, err := Run(a, inputs)
	if err != nil {
		return 0, fmt.Errorf("evaluate %s: %w", a.Name(), err)
	}
	outB, err := Run(b, inputs)
	if err != nil {
		return 0, fmt.Errorf("evaluate %s: %w", b.Name(), err)
	}
	if len(outA) != len(outB) {
		return 0, fmt.Errorf("output sets disagree: %d vs %d", len(outA), len(outB))
	}

	var max float64
	for name, ta := range outA {
		tb, ok := outB[name]
		if !ok {
			return 0, fmt.Errorf("output %q missing from %s", name, b.Name())
		}
		d, err := MaxAbsDiff(ta, tb)
		if err != nil {
			return 0, fmt.Errorf("output %q: %w", name, err)
		}
		if d > max {
			max = d
		}
	}
	return max, nil
}

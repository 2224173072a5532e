package lpt

import (
	"fmt"

	"github.com/samcharles93/loprec/pkg/dequant"
	"github.com/samcharles93/loprec/pkg/element"
	"github.com/samcharles93/loprec/pkg/graph"
)

// ActivationRule rewrites the activation-clamp family (relu, clamp at
// zero). These ops map values below a threshold to the threshold, so a
// non-negative scale commutes through them: clamp(k*x) = k*clamp(x)
// for k >= 0. A zero-point shift does not: subtracting it from a
// narrow integer representation can underflow, so the shift must stay
// before the op, on the widened type produced by the convert stage.
type ActivationRule struct{}

// CanBeTransformed reports whether the node carries pending decode
// work the rule may relocate. False means "rule inapplicable here":
// the input descriptor is empty, the input is already floating-point,
// or the configured precisions do not cover the node's type pair.
func (ActivationRule) CanBeTransformed(g *graph.Graph, id graph.NodeID, params Params) bool {
	if g.InputDescriptor(id).IsEmpty() {
		return false
	}
	if g.InputElementType(id).IsFloat() {
		return false
	}
	return params.IsPrecisionSupported(g.InputElementType(id), g.OutputElementType(id))
}

// Transform relocates the node's input dequantization per the decision
// procedure:
//
//  1. Any negative scale element: clamping does not commute with a
//     negative scale, so nothing moves. The op executes on fully
//     decoded data; output type becomes f32, output descriptor empty.
//  2. Non-negative scale, no shift: the whole descriptor moves past
//     the op. The op executes in its native low-precision type.
//  3. Shift present but asymmetric quantization disallowed: same safe
//     outcome as 1.
//  4. Shift present and allowed: split. Convert and subtract stay on
//     the input edge, the scale alone moves past the op, output type
//     becomes f32.
//
// The edit is all-or-nothing: every descriptor about to be attached is
// validated against the channel dimension first, so a ShapeMismatch
// leaves the graph untouched.
func (r ActivationRule) Transform(g *graph.Graph, id graph.NodeID, params Params) error {
	if !r.CanBeTransformed(g, id, params) {
		panic(fmt.Sprintf("lpt: Transform called on ineligible node %d", id))
	}

	d := g.InputDescriptor(id)
	channels := g.ChannelDim(id)

	if d.HasNegativeScale() || (d.HasSubtract() && !params.SupportAsymmetricQuantization()) {
		// Input descriptor stays in place unchanged; the op reads
		// fully decoded data and produces float.
		if err := g.SetOutputDescriptor(id, dequant.Empty); err != nil {
			return err
		}
		g.SetOutputElementType(id, element.F32)
		return nil
	}

	if !d.HasSubtract() {
		// Scale-only chains commute: move the descriptor past the op
		// whole and keep the low-precision output type.
		if err := d.Validate(channels); err != nil {
			return err
		}
		if err := g.SetInputDescriptor(id, dequant.Empty); err != nil {
			return err
		}
		return g.SetOutputDescriptor(id, d)
	}

	before, after := d.SplitMultiplyOut()
	if err := before.Validate(channels); err != nil {
		return err
	}
	if err := after.Validate(channels); err != nil {
		return err
	}
	if err := g.SetInputDescriptor(id, before); err != nil {
		return err
	}
	if err := g.SetOutputDescriptor(id, after); err != nil {
		return err
	}
	g.SetOutputElementType(id, element.F32)
	return nil
}

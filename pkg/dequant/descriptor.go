// Package dequant models the affine decode chain attached to a tensor
// edge of a quantized graph: an optional type conversion, an optional
// zero-point subtraction and an optional scale multiplication, applied
// in exactly that order.
package dequant

import "github.com/samcharles93/loprec/pkg/element"

// Subtract is the zero-point stage. Values holds a single scalar or,
// when PerChannel is set, one shift per channel. Type is the element
// type of the shift constant.
type Subtract struct {
	Values     []float32    `json:"values"`
	Type       element.Type `json:"type,omitempty"`
	PerChannel bool         `json:"per_channel,omitempty"`
}

// Multiply is the scale stage, with the same scalar/per-channel shape
// rule as Subtract.
type Multiply struct {
	Values     []float32 `json:"values"`
	PerChannel bool      `json:"per_channel,omitempty"`
}

// Descriptor is an immutable decode chain. The zero value is the empty
// descriptor. Transformations build new descriptors; they never mutate
// one in place.
type Descriptor struct {
	Convert  element.Type `json:"convert,omitempty"`
	Subtract *Subtract    `json:"subtract,omitempty"`
	Multiply *Multiply    `json:"multiply,omitempty"`
}

// Empty is the descriptor with all three stages absent. It decorates a
// tensor that carries no pending decode work.
var Empty = Descriptor{}

// ScalarSubtract builds a per-tensor zero-point stage.
func ScalarSubtract(v float32, typ element.Type) *Subtract {
	return &Subtract{Values: []float32{v}, Type: typ}
}

// ChannelSubtract builds a per-channel zero-point stage.
func ChannelSubtract(values []float32, typ element.Type) *Subtract {
	return &Subtract{Values: values, Type: typ, PerChannel: true}
}

// ScalarMultiply builds a per-tensor scale stage.
func ScalarMultiply(v float32) *Multiply {
	return &Multiply{Values: []float32{v}}
}

// ChannelMultiply builds a per-channel scale stage.
func ChannelMultiply(values []float32) *Multiply {
	return &Multiply{Values: values, PerChannel: true}
}

// HasConvert reports whether the conversion stage is present.
func (d Descriptor) HasConvert() bool { return d.Convert != element.Undefined }

// HasSubtract reports whether the zero-point stage is present.
func (d Descriptor) HasSubtract() bool { return d.Subtract != nil && len(d.Subtract.Values) > 0 }

// HasMultiply reports whether the scale stage is present.
func (d Descriptor) HasMultiply() bool { return d.Multiply != nil && len(d.Multiply.Values) > 0 }

// IsEmpty reports whether all three stages are absent.
func (d Descriptor) IsEmpty() bool {
	return !d.HasConvert() && !d.HasSubtract() && !d.HasMultiply()
}

// HasNegativeScale reports whether any element of the scale stage is
// strictly negative. An absent scale stage has no negative elements.
func (d Descriptor) HasNegativeScale() bool {
	if !d.HasMultiply() {
		return false
	}
	for _, v := range d.Multiply.Values {
		if v < 0 {
			return true
		}
	}
	return false
}

// SplitMultiplyOut splits the chain into the part that must stay before
// an operation (convert and subtract) and the part that may move past
// it (multiply alone). Both halves share the original stage values.
func (d Descriptor) SplitMultiplyOut() (before, after Descriptor) {
	before = Descriptor{Convert: d.Convert, Subtract: d.Subtract}
	after = Descriptor{Multiply: d.Multiply}
	return before, after
}

// Validate checks the per-channel stages against the channel dimension
// of the tensor the descriptor is being attached to. The channel count
// is only known once the descriptor is bound to an edge, so this runs
// at attach time rather than at construction.
func (d Descriptor) Validate(channels int) error {
	if d.HasSubtract() && d.Subtract.PerChannel && len(d.Subtract.Values) != channels {
		return &ShapeMismatchError{Stage: "subtract", Got: len(d.Subtract.Values), Want: channels}
	}
	if d.HasMultiply() && d.Multiply.PerChannel && len(d.Multiply.Values) != channels {
		return &ShapeMismatchError{Stage: "multiply", Got: len(d.Multiply.Values), Want: channels}
	}
	return nil
}

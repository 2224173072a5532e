package dequant

import (
	"errors"
	"testing"

	"github.com/samcharles93/loprec/pkg/element"
)

func TestIsEmpty(t *testing.T) {
	t.Parallel()

	if !Empty.IsEmpty() {
		t.Fatalf("Empty must be empty")
	}
	if !(Descriptor{}).IsEmpty() {
		t.Fatalf("zero value must be empty")
	}
	if (Descriptor{Convert: element.F32}).IsEmpty() {
		t.Fatalf("convert-only descriptor is not empty")
	}
	if (Descriptor{Multiply: ScalarMultiply(0.1)}).IsEmpty() {
		t.Fatalf("multiply-only descriptor is not empty")
	}
	// A stage with no values counts as absent.
	if !(Descriptor{Subtract: &Subtract{}, Multiply: &Multiply{}}).IsEmpty() {
		t.Fatalf("valueless stages must count as absent")
	}
}

func TestHasNegativeScale(t *testing.T) {
	t.Parallel()

	if Empty.HasNegativeScale() {
		t.Fatalf("empty descriptor has no scale at all")
	}
	d := Descriptor{Convert: element.F32, Multiply: ScalarMultiply(0.1)}
	if d.HasNegativeScale() {
		t.Fatalf("positive scalar scale misreported as negative")
	}
	d = Descriptor{Convert: element.F32, Multiply: ChannelMultiply([]float32{0.1, -0.2, 0.3})}
	if !d.HasNegativeScale() {
		t.Fatalf("mixed-sign per-channel scale must report negative")
	}
	d = Descriptor{Multiply: ChannelMultiply([]float32{0, 0.2})}
	if d.HasNegativeScale() {
		t.Fatalf("zero scale is not negative")
	}
}

func TestSplitMultiplyOut(t *testing.T) {
	t.Parallel()

	orig := Descriptor{
		Convert:  element.F32,
		Subtract: ScalarSubtract(127, element.F32),
		Multiply: ScalarMultiply(0.1),
	}
	before, after := orig.SplitMultiplyOut()

	if before.Convert != element.F32 || !before.HasSubtract() || before.HasMultiply() {
		t.Fatalf("before half must keep convert+subtract only, got %+v", before)
	}
	if after.HasConvert() || after.HasSubtract() || !after.HasMultiply() {
		t.Fatalf("after half must keep multiply only, got %+v", after)
	}
	if after.Multiply.Values[0] != 0.1 {
		t.Fatalf("after half lost the scale value")
	}
	// Split is a pure value operation.
	if !orig.HasMultiply() || orig.Multiply.Values[0] != 0.1 {
		t.Fatalf("split mutated the original descriptor")
	}
}

func TestValidatePerChannel(t *testing.T) {
	t.Parallel()

	d := Descriptor{Convert: element.F32, Multiply: ChannelMultiply([]float32{0.1, 0.2, 0.3})}
	if err := d.Validate(3); err != nil {
		t.Fatalf("matching channel count: %v", err)
	}

	err := d.Validate(4)
	if err == nil {
		t.Fatalf("expected shape mismatch for 3 values over 4 channels")
	}
	if !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("mismatch must wrap ErrShapeMismatch, got %v", err)
	}
	var sm *ShapeMismatchError
	if !errors.As(err, &sm) || sm.Stage != "multiply" || sm.Got != 3 || sm.Want != 4 {
		t.Fatalf("unexpected mismatch detail: %+v", err)
	}

	// Scalar stages are valid for any channel count.
	d = Descriptor{Subtract: ScalarSubtract(128, element.F32), Multiply: ScalarMultiply(0.1)}
	if err := d.Validate(16); err != nil {
		t.Fatalf("scalar stages: %v", err)
	}
}

package dequant

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is wrapped by all per-channel length validation
// failures so callers can match with errors.Is.
var ErrShapeMismatch = errors.New("dequantization shape mismatch")

// ShapeMismatchError reports a per-channel stage whose value count
// disagrees with the channel dimension of the decorated tensor.
type ShapeMismatchError struct {
	Stage string
	Got   int
	Want  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s stage has %d values, channel dimension is %d", e.Stage, e.Got, e.Want)
}

func (e *ShapeMismatchError) Unwrap() error {
	return ErrShapeMismatch
}

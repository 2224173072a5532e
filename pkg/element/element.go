// Package element defines the closed set of tensor element types the
// transformation engine operates on. There are no implicit promotion
// rules: precision changes are always an explicit outcome of a
// transformation, never inferred from a type pair.
package element

import "fmt"

// Type identifies a tensor element type.
type Type uint8

const (
	Undefined Type = iota
	U8
	I8
	U16
	I16
	I32
	F16
	BF16
	F32
)

var typeNames = map[Type]string{
	Undefined: "undefined",
	U8:        "u8",
	I8:        "i8",
	U16:       "u16",
	I16:       "i16",
	I32:       "i32",
	F16:       "f16",
	BF16:      "bf16",
	F32:       "f32",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("element.Type(%d)", uint8(t))
}

// IsFloat reports whether t is a floating-point type.
func (t Type) IsFloat() bool {
	switch t {
	case F16, BF16, F32:
		return true
	}
	return false
}

// IsInteger reports whether t is an integer type.
func (t Type) IsInteger() bool {
	switch t {
	case U8, I8, U16, I16, I32:
		return true
	}
	return false
}

// IsSigned reports whether t can represent negative values.
func (t Type) IsSigned() bool {
	switch t {
	case I8, I16, I32, F16, BF16, F32:
		return true
	}
	return false
}

// Bits returns the storage width of t in bits, or 0 for Undefined.
func (t Type) Bits() int {
	switch t {
	case U8, I8:
		return 8
	case U16, I16, F16, BF16:
		return 16
	case I32, F32:
		return 32
	}
	return 0
}

// Parse converts a type name as produced by String back into a Type.
func Parse(s string) (Type, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return Undefined, fmt.Errorf("unknown element type %q", s)
}

// MarshalJSON encodes the type as its string name.
func (t Type) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON decodes a string name into the type.
func (t *Type) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("element type must be a JSON string, got %s", data)
	}
	parsed, err := Parse(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

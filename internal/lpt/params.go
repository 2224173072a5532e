// Package lpt implements the low-precision transformations: graph
// rewrite rules that relocate dequantization work across operations so
// the operations themselves execute on reduced-precision data, plus
// the engine that drives one pass of rules over a graph.
package lpt

import "github.com/samcharles93/loprec/pkg/element"

// PrecisionPair is an (input type, output type) combination a
// transformation run is allowed to produce.
type PrecisionPair struct {
	In  element.Type
	Out element.Type
}

// Params is the read-only configuration of one transformation run.
// Build it once per run; it is safe to share across concurrent runs on
// different graphs because nothing mutates it after construction.
type Params struct {
	pairs             map[PrecisionPair]struct{}
	supportAsymmetric bool
}

// NewParams builds a Params from the allowed precision pairs.
func NewParams(pairs []PrecisionPair, supportAsymmetric bool) Params {
	set := make(map[PrecisionPair]struct{}, len(pairs))
	for _, p := range pairs {
		set[p] = struct{}{}
	}
	return Params{pairs: set, supportAsymmetric: supportAsymmetric}
}

// ParamsU8I8 mirrors the u8-activations preset: u8 tensors may stay u8
// through a transformed op, and asymmetric shifts may be split.
func ParamsU8I8() Params {
	return NewParams([]PrecisionPair{{In: element.U8, Out: element.U8}}, true)
}

// ParamsI8I8 is the signed counterpart of ParamsU8I8.
func ParamsI8I8() Params {
	return NewParams([]PrecisionPair{{In: element.I8, Out: element.I8}}, true)
}

// WithAsymmetricQuantization returns a copy of p with the asymmetric
// quantization policy replaced.
func (p Params) WithAsymmetricQuantization(enabled bool) Params {
	out := Params{pairs: p.pairs, supportAsymmetric: enabled}
	return out
}

// IsPrecisionSupported reports whether the run may produce the given
// input/output type combination. Pure lookup, no promotion rules.
func (p Params) IsPrecisionSupported(in, out element.Type) bool {
	_, ok := p.pairs[PrecisionPair{In: in, Out: out}]
	return ok
}

// SupportAsymmetricQuantization reports whether zero-point shifts may
// be split away from the scale stage.
func (p Params) SupportAsymmetricQuantization() bool {
	return p.supportAsymmetric
}

package lpt

import (
	"fmt"

	"github.com/samcharles93/loprec/pkg/element"
)

// PrecisionPairConfig is the serialized form of one allowed precision
// pair, element types by name.
type PrecisionPairConfig struct {
	In  string `json:"in" yaml:"in"`
	Out string `json:"out" yaml:"out"`
}

// ParamsConfig is the serialized form of transformation parameters,
// shared by the YAML config file and the REST API. The asymmetric flag
// is a pointer so "not set" can fall back to the preset's default.
type ParamsConfig struct {
	Preset                        string                `json:"preset,omitempty" yaml:"preset"`
	Precisions                    []PrecisionPairConfig `json:"precisions,omitempty" yaml:"precisions"`
	SupportAsymmetricQuantization *bool                 `json:"support_asymmetric_quantization,omitempty" yaml:"support_asymmetric_quantization"`
}

// Build resolves the config into immutable run parameters.
func (c ParamsConfig) Build() (Params, error) {
	var params Params
	switch c.Preset {
	case "":
		pairs := make([]PrecisionPair, 0, len(c.Precisions))
		for _, p := range c.Precisions {
			in, err := element.Parse(p.In)
			if err != nil {
				return Params{}, fmt.Errorf("precision pair input: %w", err)
			}
			out, err := element.Parse(p.Out)
			if err != nil {
				return Params{}, fmt.Errorf("precision pair output: %w", err)
			}
			pairs = append(pairs, PrecisionPair{In: in, Out: out})
		}
		params = NewParams(pairs, true)
	case "u8i8":
		params = ParamsU8I8()
	case "i8i8":
		params = ParamsI8I8()
	default:
		return Params{}, fmt.Errorf("unknown params preset %q", c.Preset)
	}

	if c.SupportAsymmetricQuantization != nil {
		params = params.WithAsymmetricQuantization(*c.SupportAsymmetricQuantization)
	}
	return params, nil
}

package eval

import (
	"errors"
	"testing"

	"github.com/samcharles93/loprec/internal/lpt"
	"github.com/samcharles93/loprec/pkg/dequant"
	"github.com/samcharles93/loprec/pkg/element"
	"github.com/samcharles93/loprec/pkg/graph"
)

func chainGraph(t *testing.T, typ element.Type, shape []int, d dequant.Descriptor) *graph.Graph {
	t.Helper()
	g := graph.New("chain")
	in := g.AddParameter("input", typ, shape)
	relu := g.AddNode(graph.OpRelu, "relu", in)
	g.AddResult("output", relu)
	if err := g.SetInputDescriptor(relu, d); err != nil {
		t.Fatalf("attach: %v", err)
	}
	return g
}

func TestRunAppliesDecodeAndClamp(t *testing.T) {
	t.Parallel()

	d := dequant.Descriptor{
		Convert:  element.F32,
		Subtract: dequant.ScalarSubtract(2, element.F32),
		Multiply: dequant.ScalarMultiply(0.5),
	}
	g := chainGraph(t, element.U8, []int{1, 1, 2, 2}, d)

	out, err := Run(g, map[string][]float32{"input": {0, 2, 4, 6}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// 0.5*(x-2) then clamp below zero: {-1, 0, 1, 2} -> {0, 0, 1, 2}
	want := []float32{0, 0, 1, 2}
	got := out["output"]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("output: got %v, want %v", got, want)
		}
	}
}

func TestRunPerChannelDecode(t *testing.T) {
	t.Parallel()

	d := dequant.Descriptor{
		Convert:  element.F32,
		Multiply: dequant.ChannelMultiply([]float32{1, 10}),
	}
	g := chainGraph(t, element.U8, []int{1, 2, 1, 2}, d)

	out, err := Run(g, map[string][]float32{"input": {1, 2, 3, 4}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []float32{1, 2, 30, 40}
	got := out["output"]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("per-channel decode: got %v, want %v", got, want)
		}
	}
}

func TestRunRejectsMissingInput(t *testing.T) {
	t.Parallel()

	g := chainGraph(t, element.U8, []int{1, 1, 1, 1}, dequant.Empty)
	if _, err := Run(g, nil); !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}

// TestTransformPreservesEvaluation is the equivalence invariant: for
// every rule outcome class, the rewritten graph computes the same
// function as the original.
func TestTransformPreservesEvaluation(t *testing.T) {
	t.Parallel()

	f32 := element.F32
	tests := []struct {
		name      string
		inputType element.Type
		params    lpt.Params
		deq       dequant.Descriptor
		input     []float32
	}{
		{
			name:      "scalar scale propagated whole",
			inputType: element.U8,
			params:    lpt.ParamsU8I8(),
			deq:       dequant.Descriptor{Convert: f32, Multiply: dequant.ScalarMultiply(0.1)},
			input:     []float32{0, 1, 127, 200, 255, 3, 18, 77, 254, 5, 60, 90},
		},
		{
			name:      "mixed-sign scale left in place",
			inputType: element.U8,
			params:    lpt.ParamsU8I8(),
			deq:       dequant.Descriptor{Convert: f32, Multiply: dequant.ChannelMultiply([]float32{0.1, -0.2, 0.3})},
			input:     []float32{0, 1, 127, 200, 255, 3, 18, 77, 254, 5, 60, 90},
		},
		{
			name:      "shift split away from scale",
			inputType: element.I8,
			params:    lpt.ParamsI8I8(),
			deq: dequant.Descriptor{
				Convert:  f32,
				Subtract: dequant.ScalarSubtract(127, f32),
				Multiply: dequant.ScalarMultiply(0.1),
			},
			input: []float32{-128, -1, 0, 1, 64, 127, -77, 33, 100, -5, 6, 90},
		},
		{
			name:      "shift kept unsplit when asymmetric disabled",
			inputType: element.I8,
			params:    lpt.ParamsI8I8().WithAsymmetricQuantization(false),
			deq: dequant.Descriptor{
				Convert:  f32,
				Subtract: dequant.ScalarSubtract(127, f32),
				Multiply: dequant.ScalarMultiply(0.1),
			},
			input: []float32{-128, -1, 0, 1, 64, 127, -77, 33, 100, -5, 6, 90},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			original := chainGraph(t, tc.inputType, []int{1, 3, 2, 2}, tc.deq)
			transformed := original.Clone()

			report, err := lpt.NewTransformer(tc.params, nil).Run(transformed)
			if err != nil {
				t.Fatalf("transform: %v", err)
			}
			if len(report.Failures) != 0 {
				t.Fatalf("unexpected failures: %+v", report.Failures)
			}

			diff, err := Compare(original, transformed, map[string][]float32{"input": tc.input})
			if err != nil {
				t.Fatalf("compare: %v", err)
			}
			if diff > 1e-5 {
				t.Fatalf("graphs diverge after transform: max diff %g", diff)
			}
		})
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/loprec/internal/eval"
	"github.com/samcharles93/loprec/internal/lpt"
)

func verifyCmd() *cli.Command {
	var (
		inputsPath string
		tolerance  float64
	)

	return &cli.Command{
		Name:  "verify",
		Usage: "Transform a graph and check numeric equivalence against the original",
		Flags: append(commonGraphFlags(), append(loggingFlags(),
			&cli.StringFlag{
				Name:        "inputs",
				Aliases:     []string{"i"},
				Usage:       "JSON file mapping parameter names to flat tensor values",
				Destination: &inputsPath,
			},
			&cli.Float64Flag{
				Name:        "tolerance",
				Usage:       "largest allowed output divergence",
				Value:       1e-5,
				Destination: &tolerance,
			})...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := loadConfig()
			applyConfig(cmd, cfg, nil)
			log := newLog()

			original, err := loadGraph()
			if err != nil {
				return err
			}
			if inputsPath == "" {
				return fmt.Errorf("missing --inputs")
			}
			data, err := os.ReadFile(inputsPath)
			if err != nil {
				return err
			}
			var inputs map[string][]float32
			if err := json.Unmarshal(data, &inputs); err != nil {
				return fmt.Errorf("decode %s: %w", inputsPath, err)
			}
			params, err := resolveParams(cmd, cfg)
			if err != nil {
				return err
			}

			transformed := original.Clone()
			report, err := lpt.NewTransformer(params, log).Run(transformed)
			if err != nil {
				return fmt.Errorf("transform %s: %w", original.Name(), err)
			}

			diff, err := eval.Compare(original, transformed, inputs)
			if err != nil {
				return err
			}
			fmt.Printf("transformed: %d\nmax diff:    %g\n", report.Transformed, diff)
			if diff > tolerance {
				return fmt.Errorf("graphs diverge: max diff %g exceeds tolerance %g", diff, tolerance)
			}
			fmt.Println("equivalent")
			return nil
		},
	}
}

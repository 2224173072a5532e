package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/loprec/internal/lpt"
	"github.com/samcharles93/loprec/pkg/graph"
)

func transformCmd() *cli.Command {
	return &cli.Command{
		Name:  "transform",
		Usage: "Run one low-precision transformation pass over a graph",
		Flags: append(commonGraphFlags(), append(loggingFlags(),
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output path for the rewritten graph (default: stdout)",
				Destination: &outPath,
			})...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := loadConfig()
			applyConfig(cmd, cfg, nil)
			log := newLog()

			g, err := loadGraph()
			if err != nil {
				return err
			}
			params, err := resolveParams(cmd, cfg)
			if err != nil {
				return err
			}

			report, err := lpt.NewTransformer(params, log).Run(g)
			if err != nil {
				return fmt.Errorf("transform %s: %w", g.Name(), err)
			}
			for _, f := range report.Failures {
				log.Warn("node left untransformed", "node", f.Name, "err", f.Err)
			}

			data, err := graph.Encode(g)
			if err != nil {
				return fmt.Errorf("encode graph: %w", err)
			}
			if outPath == "" {
				_, err = fmt.Println(string(data))
				return err
			}
			return os.WriteFile(outPath, data, 0o644)
		},
	}
}

func loadGraph() (*graph.Graph, error) {
	if graphPath == "" {
		return nil, fmt.Errorf("missing --graph")
	}
	data, err := os.ReadFile(graphPath)
	if err != nil {
		return nil, err
	}
	g, err := graph.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", graphPath, err)
	}
	return g, nil
}

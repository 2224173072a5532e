package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/loprec/pkg/dequant"
)

func inspectCmd() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Print the nodes and dequantization chains of a graph",
		Flags: commonGraphFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			g, err := loadGraph()
			if err != nil {
				return err
			}
			order, err := g.Order()
			if err != nil {
				return err
			}

			fmt.Printf("graph %q (%d nodes)\n", g.Name(), g.Len())
			for _, id := range order {
				n, err := g.Node(id)
				if err != nil {
					return err
				}
				fmt.Printf("  [%d] %-12s %-16s out=%s shape=%v\n",
					n.ID(), n.Kind(), n.Name(), g.OutputElementType(id), n.Shape())
				if d := g.InputDescriptor(id); !d.IsEmpty() {
					fmt.Printf("        in-deq:  %s\n", describeChain(d))
				}
				if d := g.OutputDescriptor(id); !d.IsEmpty() {
					fmt.Printf("        out-deq: %s\n", describeChain(d))
				}
			}
			return nil
		},
	}
}

func describeChain(d dequant.Descriptor) string {
	var parts []string
	if d.HasConvert() {
		parts = append(parts, "convert->"+d.Convert.String())
	}
	if d.HasSubtract() {
		parts = append(parts, "subtract"+describeValues(d.Subtract.Values, d.Subtract.PerChannel))
	}
	if d.HasMultiply() {
		parts = append(parts, "multiply"+describeValues(d.Multiply.Values, d.Multiply.PerChannel))
	}
	return strings.Join(parts, " ")
}

func describeValues(values []float32, perChannel bool) string {
	if !perChannel {
		return fmt.Sprintf("(%g)", values[0])
	}
	if len(values) > 4 {
		return fmt.Sprintf("(per-channel, %d values)", len(values))
	}
	return fmt.Sprintf("(per-channel %v)", values)
}

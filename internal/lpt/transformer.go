package lpt

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/samcharles93/loprec/internal/logger"
	"github.com/samcharles93/loprec/pkg/graph"
)

// NodeFailure records a node whose rewrite was aborted. The failing
// edit is atomic, so the node is left exactly as it was before.
type NodeFailure struct {
	Node graph.NodeID `json:"node"`
	Name string       `json:"name"`
	Err  string       `json:"error"`
}

// Report summarizes one transformer pass.
type Report struct {
	RunID       string        `json:"run_id"`
	Transformed int           `json:"transformed"`
	Skipped     int           `json:"skipped"`
	Failures    []NodeFailure `json:"failures,omitempty"`
}

// Transformer drives one pass of rewrite rules over a graph. Each
// Transformer owns its Params and rule table; independent graphs may
// be optimized concurrently with separate Transformers.
type Transformer struct {
	rules  RuleTable
	params Params
	log    logger.Logger
}

// NewTransformer builds a transformer with the default rule table.
func NewTransformer(params Params, log logger.Logger) *Transformer {
	if log == nil {
		log = logger.Default()
	}
	return &Transformer{rules: DefaultRules(), params: params, log: log}
}

// SetRules replaces the rule table. Only useful before Run.
func (t *Transformer) SetRules(rules RuleTable) { t.rules = rules }

// Run applies the rule table to every node of g. The traversal order
// is snapshotted before the first edit, so rewrites cannot invalidate
// it. Nodes whose rule is inapplicable are skipped silently; a node
// whose rewrite fails is reported and the pass continues.
func (t *Transformer) Run(g *graph.Graph) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	log := t.log.With("run_id", report.RunID, "graph", g.Name())

	order, err := g.Order()
	if err != nil {
		return report, fmt.Errorf("snapshot traversal order: %w", err)
	}

	for _, id := range order {
		node, err := g.Node(id)
		if err != nil {
			return report, err
		}
		rule, ok := t.rules[node.Kind()]
		if !ok {
			continue
		}
		if !rule.CanBeTransformed(g, id, t.params) {
			report.Skipped++
			continue
		}
		if err := rule.Transform(g, id, t.params); err != nil {
			log.Warn("node rewrite aborted", "node", node.Name(), "err", err)
			report.Failures = append(report.Failures, NodeFailure{
				Node: id,
				Name: node.Name(),
				Err:  err.Error(),
			})
			continue
		}
		report.Transformed++
		log.Debug("node rewritten",
			"node", node.Name(),
			"op", node.Kind().String(),
			"output_type", g.OutputElementType(id).String())
	}

	log.Info("pass complete",
		"transformed", report.Transformed,
		"skipped", report.Skipped,
		"failed", len(report.Failures))
	return report, nil
}

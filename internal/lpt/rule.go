package lpt

import "github.com/samcharles93/loprec/pkg/graph"

// Rule is one op-family rewrite. CanBeTransformed is a pure
// applicability check; Transform mutates the graph in place and is only
// valid after CanBeTransformed returned true for the same node and
// params. Violating that contract is a bug in the caller and panics.
type Rule interface {
	CanBeTransformed(g *graph.Graph, id graph.NodeID, params Params) bool
	Transform(g *graph.Graph, id graph.NodeID, params Params) error
}

// RuleTable maps op kinds to their rewrite rule. Kinds without an
// entry are simply not rewritten.
type RuleTable map[graph.OpKind]Rule

// DefaultRules returns the table of built-in rules.
func DefaultRules() RuleTable {
	activation := ActivationRule{}
	return RuleTable{
		graph.OpRelu:  activation,
		graph.OpClamp: activation,
	}
}

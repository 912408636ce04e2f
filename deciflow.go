// Package deciflow is the public facade over the decision-flow
// evaluation engine: the flow/node types, and the concrete and symbolic
// evaluation entry points, re-exported at the module root the same way
// the corpus's top-level package re-exports its executor/engine types.
package deciflow

import (
	"context"

	"github.com/deciflow/deciflow/internal/concrete"
	"github.com/deciflow/deciflow/internal/domain"
	"github.com/deciflow/deciflow/internal/lang"
	"github.com/deciflow/deciflow/internal/symbolic"
)

// Flow is a decision-flow DAG: a START node, any number of CONDITIONAL
// nodes, and the END nodes they route to.
type Flow = domain.Flow

// Node is one vertex of a Flow.
type Node = domain.Node

// NodeType enumerates START, CONDITIONAL, and END.
type NodeType = domain.NodeType

// Re-exported node type constants.
const (
	NodeTypeStart       = domain.NodeTypeStart
	NodeTypeConditional = domain.NodeTypeConditional
	NodeTypeEnd         = domain.NodeTypeEnd
)

// ConcreteResult is the outcome of one concrete evaluation of a Flow.
type ConcreteResult = concrete.Result

// SymbolicReport is the outcome of a full symbolic exploration of a Flow.
type SymbolicReport = domain.SymbolicReport

// EvaluateConcrete runs flow against env with the tree-walking concrete
// executor, returning the END node reached and the path taken.
func EvaluateConcrete(flow *Flow, env map[string]any) (ConcreteResult, error) {
	cache := lang.NewCache(lang.NewParser())
	return concrete.NewExecutor(flow, cache).Run(env)
}

// EvaluateSymbolic explores every branch of flow with the SMT-backed
// symbolic executor, pruning infeasible branches and simplifying
// conditions against accumulated path constraints.
func EvaluateSymbolic(ctx context.Context, flow *Flow, solverTimeoutMS int) (SymbolicReport, error) {
	cache := lang.NewCache(lang.NewParser())
	return symbolic.NewExplorer(flow, cache, solverTimeoutMS).Run(ctx)
}

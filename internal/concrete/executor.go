package concrete

import (
	"github.com/deciflow/deciflow/internal/domain"
	"github.com/deciflow/deciflow/internal/lang"
)

// Result is the outcome of one concrete evaluation of a flow.
type Result struct {
	EndNodeID   string
	EndMetadata *domain.EndMetadata
	Trace       []string // node IDs visited, START first, END last
}

// Executor walks a flow from its START node to a single END node,
// evaluating each CONDITIONAL's expression against the payload and
// following the matching branch — the concrete counterpart of the
// symbolic explorer's full-tree walk.
type Executor struct {
	flow  *domain.Flow
	cache *lang.Cache
}

// NewExecutor builds an Executor for flow, parsing CONDITIONAL expressions
// through cache.
func NewExecutor(flow *domain.Flow, cache *lang.Cache) *Executor {
	return &Executor{flow: flow, cache: cache}
}

// Run walks the flow from its START node until it reaches an END node.
// env is used as given; it is not checked against the START node's
// declared inputs. A walk that would return to an already visited node
// fails with InvalidFlow.
func (ex *Executor) Run(env map[string]any) (Result, error) {
	node, ok := ex.flow.StartNode()
	if !ok {
		return Result{}, domain.NewDomainError(domain.ErrCodeInvalidFlow, "flow has no START node", nil)
	}

	trace := []string{node.ID}
	visited := map[string]bool{node.ID: true}
	for {
		children := ex.flow.Children(node.ID)
		switch node.Type {
		case domain.NodeTypeEnd:
			return Result{EndNodeID: node.ID, EndMetadata: node.End, Trace: trace}, nil

		case domain.NodeTypeStart:
			if len(children) != 1 {
				return Result{}, domain.NewDomainError(domain.ErrCodeInvalidFlow, "START node must have exactly one child", nil)
			}
			node = children[0]

		case domain.NodeTypeConditional:
			ast, err := ex.cache.Parse(node.Conditional.Expression)
			if err != nil {
				return Result{}, domain.NewRuntimeError(node.ID, node.Conditional.Expression, err)
			}
			v, err := Eval(ast, env)
			if err != nil {
				return Result{}, domain.NewRuntimeError(node.ID, node.Conditional.Expression, err)
			}
			b, ok := v.(bool)
			if !ok {
				return Result{}, domain.NewRuntimeError(node.ID, node.Conditional.Expression,
					domain.NewDomainError(domain.ErrCodeRuntimeError, "condition did not evaluate to a boolean", nil))
			}
			next, found := ex.flow.Branch(node.ID, !b)
			if !found {
				return Result{}, domain.NewDomainError(domain.ErrCodeInvalidFlow,
					"CONDITIONAL node "+node.ID+" is missing its "+branchLabel(!b)+" branch", nil)
			}
			node = next

		default:
			return Result{}, domain.NewDomainError(domain.ErrCodeInvalidFlow, "unknown node type "+node.Type.String(), nil)
		}
		if visited[node.ID] {
			return Result{}, domain.NewDomainError(domain.ErrCodeInvalidFlow, "flow revisits node "+node.ID, nil)
		}
		visited[node.ID] = true
		trace = append(trace, node.ID)
	}
}

func branchLabel(isFalseCase bool) string {
	if isFalseCase {
		return "false"
	}
	return "true"
}

package symbolic

import (
	"context"
	"strings"

	"github.com/deciflow/deciflow/internal/domain"
	"github.com/deciflow/deciflow/internal/lang"
	"github.com/deciflow/deciflow/internal/smt"
)

// Explorer runs the symbolic executor over one flow: a depth-first walk of
// every CONDITIONAL branch, carrying accumulated path constraints on a Z3
// solver stack, pruning branches proven infeasible, and simplifying
// branch conditions against everything already known on the path.
type Explorer struct {
	flow            *domain.Flow
	cache           *lang.Cache
	solverTimeoutMS int
}

// NewExplorer builds an Explorer for flow, parsing CONDITIONAL expressions
// through cache and bounding every individual solver call to
// solverTimeoutMS milliseconds.
func NewExplorer(flow *domain.Flow, cache *lang.Cache, solverTimeoutMS int) *Explorer {
	return &Explorer{flow: flow, cache: cache, solverTimeoutMS: solverTimeoutMS}
}

// pathConstraint pairs the rendered text of a constraint (for reporting)
// with its translated SMT form (for solving).
type pathConstraint struct {
	text string
	expr smt.Expr
}

func textsOf(cs []pathConstraint) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.text
	}
	return out
}

// Run explores flow.ValidateForSymbolic's already-validated structure to
// completion, or returns an error if ctx is cancelled mid-walk.
func (ex *Explorer) Run(ctx context.Context) (domain.SymbolicReport, error) {
	zctx := smt.NewContext()
	defer zctx.Close()

	main := zctx.NewSolver(ex.solverTimeoutMS)
	defer main.Close()
	scratch := zctx.NewSolver(ex.solverTimeoutMS)
	defer scratch.Close()

	tr := newTranslator(zctx)

	var report domain.SymbolicReport
	for _, n := range ex.flow.Nodes {
		if n.Type == domain.NodeTypeEnd {
			report.Coverage.TotalEndNodes++
		}
	}

	seenEnds := make(map[string]bool)

	start, ok := ex.flow.StartNode()
	if !ok {
		return report, domain.NewDomainError(domain.ErrCodeInvalidFlow, "flow has no START node", nil)
	}
	children := ex.flow.Children(start.ID)
	if len(children) != 1 {
		return report, domain.NewDomainError(domain.ErrCodeInvalidFlow, "START node must have exactly one child", nil)
	}

	if err := ex.explore(ctx, main, scratch, tr, children[0], nil, &report, seenEnds); err != nil {
		return report, err
	}
	return report, nil
}

func (ex *Explorer) explore(
	ctx context.Context,
	main, scratch *smt.Solver,
	tr *translator,
	node domain.Node,
	constraints []pathConstraint,
	report *domain.SymbolicReport,
	seenEnds map[string]bool,
) error {
	if err := ctx.Err(); err != nil {
		return &domain.SymbolicTimeoutError{NodeID: node.ID, Reason: "run cancelled before node was explored"}
	}

	switch node.Type {
	case domain.NodeTypeEnd:
		return ex.finalize(main, tr, node, constraints, report, seenEnds)

	case domain.NodeTypeConditional:
		condAST, err := ex.cache.Parse(node.Conditional.Expression)
		if err != nil {
			return domain.NewRuntimeError(node.ID, node.Conditional.Expression, err)
		}

		trueChild, trueOK := ex.flow.Branch(node.ID, false)
		falseChild, falseOK := ex.flow.Branch(node.ID, true)

		if err := ex.tryBranch(ctx, main, scratch, tr, node, condAST, false, trueChild, trueOK, constraints, report, seenEnds); err != nil {
			return err
		}
		if err := ex.tryBranch(ctx, main, scratch, tr, node, condAST, true, falseChild, falseOK, constraints, report, seenEnds); err != nil {
			return err
		}
		return nil

	default:
		return nil
	}
}

// finalize is reached once per END node encountered on a path. Per spec,
// reaching an END is not itself proof the path is live: the accumulated
// constraints so far (everything pushed onto main along the way) must
// still be checked, a model extracted, and one concrete value produced
// per declared START input.
func (ex *Explorer) finalize(
	main *smt.Solver,
	tr *translator,
	node domain.Node,
	constraints []pathConstraint,
	report *domain.SymbolicReport,
	seenEnds map[string]bool,
) error {
	switch main.Check() {
	case smt.Unknown:
		return &domain.SymbolicTimeoutError{NodeID: node.ID, Reason: main.ReasonUnknown()}
	case smt.Unsat:
		report.Pruned = append(report.Pruned, domain.PrunedBranch{
			NodeID:           node.ID,
			Reason:           domain.PruneUnreachable,
			UnsatConstraints: textsOf(constraints),
		})
		return nil
	}

	model := main.Model()
	concrete := ex.concretize(tr, model)
	model.Close()

	if !seenEnds[node.ID] {
		seenEnds[node.ID] = true
		report.Coverage.EndCount++
	}
	report.Cases = append(report.Cases, domain.CaseResult{
		EndNodeID:   node.ID,
		EndMetadata: node.End,
		Constraints: textsOf(constraints),
		Concrete:    concrete,
	})
	return nil
}

// concretize extracts one witness value per declared START input from
// model. Inputs never referenced by any condition on the path are
// unconstrained, so any value is a valid witness; a representative
// default is used for those. Object/list inputs have no structure to
// recover from the opaque sort and fall back to an empty value.
func (ex *Explorer) concretize(tr *translator, model *smt.Model) map[string]any {
	start, ok := ex.flow.StartNode()
	if !ok || start.Start == nil {
		return map[string]any{}
	}

	out := make(map[string]any, len(start.Start.Inputs))
	for _, f := range start.Start.Inputs {
		switch f.Type {
		case domain.InputNumber:
			if e, ok := tr.lookup(f.DisplayName, smt.SortReal); ok {
				out[f.DisplayName] = model.EvalReal(e)
			} else {
				out[f.DisplayName] = 0.0
			}
		case domain.InputBool:
			if e, ok := tr.lookup(f.DisplayName, smt.SortBool); ok {
				out[f.DisplayName] = model.EvalBool(e)
			} else {
				out[f.DisplayName] = false
			}
		case domain.InputText:
			out[f.DisplayName] = "sample"
			if e, ok := tr.lookup(f.DisplayName, smt.SortOpaque); ok {
				if text, ok := tr.opaqueText(model, e); ok {
					out[f.DisplayName] = text
				}
			}
		case domain.InputObject:
			out[f.DisplayName] = map[string]any{}
		case domain.InputList:
			out[f.DisplayName] = []any{}
		}
	}
	return out
}

// isZeroExpr reports whether e is the zero value: a constraint whose
// condition could not be translated into SMT at all, carried along for
// reporting but with nothing to assert.
func isZeroExpr(e smt.Expr) bool { return e == smt.Expr{} }

func (ex *Explorer) tryBranch(
	ctx context.Context,
	main, scratch *smt.Solver,
	tr *translator,
	parent domain.Node,
	condAST lang.Expr,
	isFalseCase bool,
	child domain.Node,
	childOK bool,
	constraints []pathConstraint,
	report *domain.SymbolicReport,
	seenEnds map[string]bool,
) error {
	branchAST := condAST
	text := lang.Print(condAST)
	if isFalseCase {
		branchAST = lang.Unary{Op: "not", X: condAST}
		text = lang.PrintNegated(condAST)
	}

	simplified, simplifiedText, reduction := ex.simplify(scratch, tr, branchAST, text, constraints)
	if reduction != nil {
		reduction.NodeID = parent.ID
		report.Reductions = append(report.Reductions, *reduction)
	}

	if lit, ok := simplified.(lang.BoolLit); ok {
		if !lit.Value {
			report.Pruned = append(report.Pruned, domain.PrunedBranch{
				NodeID:           parent.ID,
				IsFalseCase:      isFalseCase,
				Reason:           domain.PruneRedundantCondition,
				UnsatConstraints: append(textsOf(constraints), simplifiedText),
			})
			return nil
		}
		// Redundant-true: the condition adds nothing to the path, so it is
		// not recorded as a constraint; continue with constraints unchanged.
		if !childOK {
			report.Uncovered = append(report.Uncovered, domain.UncoveredPath{
				NodeID:      parent.ID,
				Constraints: textsOf(constraints),
			})
			return nil
		}
		return ex.explore(ctx, main, scratch, tr, child, constraints, report, seenEnds)
	}

	branchExpr, err := tr.translateCondition(simplified)
	if err != nil {
		// The condition uses a construct the SMT encoding does not cover
		// (string builtins, indexing, and so on): the branch cannot be
		// proven infeasible, so it is explored unconditionally rather
		// than silently dropped.
		if !childOK {
			report.Uncovered = append(report.Uncovered, domain.UncoveredPath{
				NodeID:      parent.ID,
				Constraints: append(textsOf(constraints), simplifiedText),
			})
			return nil
		}
		return ex.explore(ctx, main, scratch, tr, child, append(constraints, pathConstraint{text: simplifiedText}), report, seenEnds)
	}

	scratch.Push()
	scratch.Assert(branchExpr)
	standalone := scratch.Check()
	scratch.Pop()
	if standalone == smt.Unsat {
		report.Pruned = append(report.Pruned, domain.PrunedBranch{
			NodeID:           parent.ID,
			IsFalseCase:      isFalseCase,
			Reason:           domain.PruneUnsatisfiable,
			UnsatConstraints: []string{simplifiedText},
		})
		return nil
	}

	main.Push()
	defer main.Pop()
	main.Assert(branchExpr)
	switch main.Check() {
	case smt.Unsat:
		// Satisfiable alone, but not in conjunction with everything already
		// on the path: this branch is unreachable, not just unsatisfiable.
		report.Pruned = append(report.Pruned, domain.PrunedBranch{
			NodeID:           parent.ID,
			IsFalseCase:      isFalseCase,
			Reason:           domain.PruneUnreachable,
			UnsatConstraints: append(textsOf(constraints), simplifiedText),
		})
		return nil
	case smt.Unknown:
		if strings.Contains(strings.ToLower(main.ReasonUnknown()), "timeout") {
			return &domain.SymbolicTimeoutError{NodeID: parent.ID, Reason: main.ReasonUnknown()}
		}
		report.Pruned = append(report.Pruned, domain.PrunedBranch{
			NodeID:           parent.ID,
			IsFalseCase:      isFalseCase,
			Reason:           domain.PruneUnknown,
			UnsatConstraints: append(textsOf(constraints), simplifiedText),
		})
		return nil
	default:
		if !childOK {
			report.Uncovered = append(report.Uncovered, domain.UncoveredPath{
				NodeID:      parent.ID,
				Constraints: append(textsOf(constraints), simplifiedText),
			})
			return nil
		}
		next := append(append([]pathConstraint{}, constraints...), pathConstraint{text: simplifiedText, expr: branchExpr})
		return ex.explore(ctx, main, scratch, tr, child, next, report, seenEnds)
	}
}

// simplify applies the context-aware simplification of spec §4.5 against
// B, everything already known true on this path:
//
//  1. if B and e together are unsatisfiable, e is left untouched; the
//     branch is genuinely infeasible and tryBranch classifies it instead.
//  2. if e is a conjunction, each conjunct implied by B alone is dropped.
//  3. if e is not a conjunction and B implies e outright, e collapses to
//     true.
//  4. a candidate result is only accepted if it is a bare boolean literal
//     or strictly shorter than the original text.
func (ex *Explorer) simplify(scratch *smt.Solver, tr *translator, e lang.Expr, text string, constraints []pathConstraint) (lang.Expr, string, *domain.ReductionInfo) {
	eExpr, eErr := tr.translateCondition(e)

	scratch.Push()
	defer scratch.Pop()
	for _, c := range constraints {
		if !isZeroExpr(c.expr) {
			scratch.Assert(c.expr)
		}
	}

	if eErr == nil {
		scratch.Push()
		scratch.Assert(eExpr)
		infeasible := scratch.Check() == smt.Unsat
		scratch.Pop()
		if infeasible {
			return e, text, nil
		}
	}

	conjuncts := flattenAnd(e)
	if len(conjuncts) > 1 {
		var kept []lang.Expr
		var removed []string
		for _, cj := range conjuncts {
			cExpr, err := tr.translateCondition(cj)
			if err != nil {
				kept = append(kept, cj)
				continue
			}
			scratch.Push()
			scratch.Assert(tr.ctx.Not(cExpr))
			implied := scratch.Check() == smt.Unsat
			scratch.Pop()
			if implied {
				removed = append(removed, lang.Print(cj))
				continue
			}
			kept = append(kept, cj)
		}

		if len(removed) == 0 {
			return e, text, nil
		}

		var result lang.Expr
		if len(kept) == 0 {
			result = lang.BoolLit{Value: true}
		} else {
			result = kept[0]
			for _, k := range kept[1:] {
				result = lang.Binary{Op: "and", L: result, R: k}
			}
		}

		newText := lang.Print(result)
		_, isBoolLit := result.(lang.BoolLit)
		if !isBoolLit && len(newText) >= len(text) {
			return e, text, nil
		}

		return result, newText, &domain.ReductionInfo{
			Original:     text,
			Simplified:   newText,
			RemovedParts: removed,
		}
	}

	// e is a single expression, not a conjunction: redundant only if B
	// implies the whole of it.
	if eErr == nil {
		scratch.Push()
		scratch.Assert(tr.ctx.Not(eExpr))
		implied := scratch.Check() == smt.Unsat
		scratch.Pop()
		if implied {
			return lang.BoolLit{Value: true}, "true", &domain.ReductionInfo{
				Original:     text,
				Simplified:   "true",
				RemovedParts: []string{text},
			}
		}
	}

	return e, text, nil
}

// Package symbolic turns conditional expressions into SMT formulas and
// drives the depth-first exploration of a flow's branches, per spec §4.3
// and §4.5.
package symbolic

import (
	"fmt"

	"github.com/deciflow/deciflow/internal/lang"
	"github.com/deciflow/deciflow/internal/smt"
)

// translator maps lang.Expr trees onto smt.Expr terms. Every free Name is
// interned once per (path, sort) pair so repeated occurrences of the same
// variable across a flow share one SMT constant.
type translator struct {
	ctx   *smt.Context
	names map[string]smt.Expr

	// literals tracks every string literal translated into the opaque
	// sort, keyed by its source text, so a model-assigned opaque value can
	// be mapped back to readable text when concretizing a witness.
	literals map[string]smt.Expr
}

func newTranslator(ctx *smt.Context) *translator {
	return &translator{
		ctx:      ctx,
		names:    make(map[string]smt.Expr),
		literals: make(map[string]smt.Expr),
	}
}

// translateCondition translates e as a boolean-sorted formula. Every
// CONDITIONAL expression is boolean at the top level, so this is always
// the entry point.
func (t *translator) translateCondition(e lang.Expr) (smt.Expr, error) {
	return t.translate(e, smt.SortBool)
}

func (t *translator) translate(e lang.Expr, hint smt.Sort) (smt.Expr, error) {
	switch n := e.(type) {
	case lang.NumberLit:
		return t.ctx.Real(n.Value), nil
	case lang.BoolLit:
		return t.ctx.Bool(n.Value), nil
	case lang.StringLit:
		e := t.ctx.Opaque("str:" + n.Value)
		t.literals[n.Value] = e
		return e, nil
	case lang.NullLit:
		return t.ctx.Opaque("null"), nil

	case lang.Name:
		return t.constFor(joinPath(n.Path), hint), nil

	case lang.Unary:
		switch n.Op {
		case "not":
			x, err := t.translate(n.X, smt.SortBool)
			if err != nil {
				return smt.Expr{}, err
			}
			return t.ctx.Not(x), nil
		case "-":
			x, err := t.translate(n.X, smt.SortReal)
			if err != nil {
				return smt.Expr{}, err
			}
			return t.ctx.Neg(x), nil
		}
		return smt.Expr{}, fmt.Errorf("unsupported in symbolic mode: unary operator %q", n.Op)

	case lang.Binary:
		return t.translateBinary(n)

	case lang.Call:
		return smt.Expr{}, fmt.Errorf("unsupported in symbolic mode: builtin function %q", n.Name)
	case lang.Index:
		return smt.Expr{}, fmt.Errorf("unsupported in symbolic mode: indexing")
	case lang.ListLit:
		return smt.Expr{}, fmt.Errorf("unsupported in symbolic mode: list literal")
	case lang.ObjectLit:
		return smt.Expr{}, fmt.Errorf("unsupported in symbolic mode: object literal")
	case lang.If:
		return smt.Expr{}, fmt.Errorf("unsupported in symbolic mode: nested if/then/else")
	default:
		return smt.Expr{}, fmt.Errorf("unsupported in symbolic mode: %T", e)
	}
}

func (t *translator) translateBinary(n lang.Binary) (smt.Expr, error) {
	switch n.Op {
	case "and":
		return t.translateNary(n, "and")
	case "or":
		return t.translateNary(n, "or")
	case "+", "-", "*", "/":
		l, err := t.translate(n.L, smt.SortReal)
		if err != nil {
			return smt.Expr{}, err
		}
		r, err := t.translate(n.R, smt.SortReal)
		if err != nil {
			return smt.Expr{}, err
		}
		switch n.Op {
		case "+":
			return t.ctx.Add(l, r), nil
		case "-":
			return t.ctx.Sub(l, r), nil
		case "*":
			return t.ctx.Mul(l, r), nil
		default:
			return t.ctx.Div(l, r), nil
		}
	case "<", "<=", ">", ">=":
		l, err := t.translate(n.L, smt.SortReal)
		if err != nil {
			return smt.Expr{}, err
		}
		r, err := t.translate(n.R, smt.SortReal)
		if err != nil {
			return smt.Expr{}, err
		}
		switch n.Op {
		case "<":
			return t.ctx.Lt(l, r), nil
		case "<=":
			return t.ctx.Le(l, r), nil
		case ">":
			return t.ctx.Gt(l, r), nil
		default:
			return t.ctx.Ge(l, r), nil
		}
	case "=", "!=":
		sort := equalitySort(n.L, n.R)
		l, err := t.translate(n.L, sort)
		if err != nil {
			return smt.Expr{}, err
		}
		r, err := t.translate(n.R, sort)
		if err != nil {
			return smt.Expr{}, err
		}
		eq := t.ctx.Eq(l, r)
		if n.Op == "!=" {
			return t.ctx.Not(eq), nil
		}
		return eq, nil
	case "in":
		return smt.Expr{}, fmt.Errorf("unsupported in symbolic mode: 'in' operator")
	default:
		return smt.Expr{}, fmt.Errorf("unsupported in symbolic mode: operator %q", n.Op)
	}
}

// translateNary flattens a run of the same and/or operator into a single
// n-ary SMT conjunction/disjunction, matching how Z3 represents them.
func (t *translator) translateNary(n lang.Binary, op string) (smt.Expr, error) {
	leaves := flatten(n, op)
	parts := make([]smt.Expr, len(leaves))
	for i, leaf := range leaves {
		e, err := t.translate(leaf, smt.SortBool)
		if err != nil {
			return smt.Expr{}, err
		}
		parts[i] = e
	}
	if op == "and" {
		return t.ctx.And(parts...), nil
	}
	return t.ctx.Or(parts...), nil
}

func (t *translator) constFor(name string, sort smt.Sort) smt.Expr {
	key := fmt.Sprintf("%d:%s", sort, name)
	if e, ok := t.names[key]; ok {
		return e
	}
	e := t.ctx.Const(name, sort)
	t.names[key] = e
	return e
}

// lookup returns the SMT constant registered for name at sort, if the
// translator ever saw that (name, sort) pair while translating a
// condition. Declared inputs never referenced by any explored condition
// have no entry.
func (t *translator) lookup(name string, sort smt.Sort) (smt.Expr, bool) {
	e, ok := t.names[fmt.Sprintf("%d:%s", sort, name)]
	return e, ok
}

// opaqueText reverse-maps target's model assignment back to the string
// literal it was constrained equal to, if any. Object/list symbolic
// values carry no structure to reconstruct this way; this only recovers
// text.
func (t *translator) opaqueText(model *smt.Model, target smt.Expr) (string, bool) {
	targetKey := model.EvalOpaqueKey(target)
	for text, lit := range t.literals {
		if model.EvalOpaqueKey(lit) == targetKey {
			return text, true
		}
	}
	return "", false
}

func joinPath(path []string) string {
	out := path[0]
	for _, p := range path[1:] {
		out += "." + p
	}
	return out
}

// equalitySort infers the sort two sides of = or != should be compared at,
// preferring a literal operand's natural sort and defaulting to Real when
// both sides are variables.
func equalitySort(l, r lang.Expr) smt.Sort {
	if s, ok := literalSort(l); ok {
		return s
	}
	if s, ok := literalSort(r); ok {
		return s
	}
	return smt.SortReal
}

func literalSort(e lang.Expr) (smt.Sort, bool) {
	switch e.(type) {
	case lang.NumberLit:
		return smt.SortReal, true
	case lang.BoolLit:
		return smt.SortBool, true
	case lang.StringLit, lang.NullLit:
		return smt.SortOpaque, true
	default:
		return 0, false
	}
}

// flatten collects the leaves of a left/right-nested chain of the same
// and/or operator, e.g. flatten(a and (b and c), "and") = [a, b, c].
func flatten(e lang.Expr, op string) []lang.Expr {
	b, ok := e.(lang.Binary)
	if !ok || b.Op != op {
		return []lang.Expr{e}
	}
	return append(flatten(b.L, op), flatten(b.R, op)...)
}

// flattenAnd is flatten specialized for "and", used by the simplifier.
func flattenAnd(e lang.Expr) []lang.Expr {
	return flatten(e, "and")
}

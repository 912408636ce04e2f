// Package smt wraps github.com/mitchellh/go-z3 behind a small typed
// interface, so the symbolic executor never touches the cgo binding
// directly. No example repo in the training pack touches SMT solving;
// this is the one dependency added outside the corpus, justified in
// DESIGN.md.
package smt

import (
	z3 "github.com/mitchellh/go-z3"
)

// Sort is the Z3 sort an Expr was built against.
type Sort int

const (
	SortBool Sort = iota
	SortReal
	// SortOpaque covers text, list, and object values: Z3's theory of
	// equality over an uninterpreted sort gives us "=" and "!=" on these
	// values without modeling string/sequence theory in full.
	SortOpaque
)

// Context owns a Z3 config+context pair and must be closed by the caller.
type Context struct {
	cfg *z3.Config
	ctx *z3.Context

	boolSort   *z3.Sort
	realSort   *z3.Sort
	opaqueSort *z3.Sort
}

// NewContext allocates a fresh Z3 context.
func NewContext() *Context {
	cfg := z3.NewConfig()
	ctx := z3.NewContext(cfg)
	c := &Context{cfg: cfg, ctx: ctx}
	c.boolSort = ctx.BoolSort()
	c.realSort = ctx.RealSort()
	c.opaqueSort = ctx.UninterpretedSort("value")
	return c
}

// Close releases the underlying Z3 resources.
func (c *Context) Close() {
	c.ctx.Close()
	c.cfg.Close()
}

func (c *Context) sortFor(s Sort) *z3.Sort {
	switch s {
	case SortBool:
		return c.boolSort
	case SortReal:
		return c.realSort
	default:
		return c.opaqueSort
	}
}

// Expr is an SMT term tagged with the sort it was built at.
type Expr struct {
	ast  *z3.AST
	sort Sort
}

func (e Expr) Sort() Sort { return e.sort }

// Const declares (or re-returns, Z3 interns by name+sort) a free variable.
func (c *Context) Const(name string, sort Sort) Expr {
	sym := c.ctx.Symbol(name)
	ast := c.ctx.Const(sym, c.sortFor(sort))
	return Expr{ast: ast, sort: sort}
}

func (c *Context) Bool(v bool) Expr {
	return Expr{ast: c.ctx.BoolConst(v), sort: SortBool}
}

func (c *Context) Real(v float64) Expr {
	return Expr{ast: c.ctx.Real(v), sort: SortReal}
}

// Opaque returns a distinct constant in the uninterpreted sort keyed by
// literal text, used to model string/list/object literals: two literals
// with equal text compare equal, distinct text compares distinct.
func (c *Context) Opaque(literal string) Expr {
	sym := c.ctx.Symbol("lit$" + literal)
	return Expr{ast: c.ctx.Const(sym, c.opaqueSort), sort: SortOpaque}
}

func (c *Context) Not(e Expr) Expr {
	return Expr{ast: e.ast.Not(), sort: SortBool}
}

func (c *Context) And(es ...Expr) Expr {
	if len(es) == 0 {
		return c.Bool(true)
	}
	asts := make([]*z3.AST, len(es))
	for i, e := range es {
		asts[i] = e.ast
	}
	return Expr{ast: c.ctx.And(asts...), sort: SortBool}
}

func (c *Context) Or(es ...Expr) Expr {
	if len(es) == 0 {
		return c.Bool(false)
	}
	asts := make([]*z3.AST, len(es))
	for i, e := range es {
		asts[i] = e.ast
	}
	return Expr{ast: c.ctx.Or(asts...), sort: SortBool}
}

func (c *Context) Eq(a, b Expr) Expr {
	return Expr{ast: a.ast.Eq(b.ast), sort: SortBool}
}

func (c *Context) Lt(a, b Expr) Expr  { return Expr{ast: a.ast.Lt(b.ast), sort: SortBool} }
func (c *Context) Le(a, b Expr) Expr  { return Expr{ast: a.ast.Le(b.ast), sort: SortBool} }
func (c *Context) Gt(a, b Expr) Expr  { return Expr{ast: a.ast.Gt(b.ast), sort: SortBool} }
func (c *Context) Ge(a, b Expr) Expr  { return Expr{ast: a.ast.Ge(b.ast), sort: SortBool} }
func (c *Context) Add(a, b Expr) Expr { return Expr{ast: a.ast.Add(b.ast), sort: SortReal} }
func (c *Context) Sub(a, b Expr) Expr { return Expr{ast: a.ast.Sub(b.ast), sort: SortReal} }
func (c *Context) Mul(a, b Expr) Expr { return Expr{ast: a.ast.Mul(b.ast), sort: SortReal} }
func (c *Context) Div(a, b Expr) Expr { return Expr{ast: a.ast.Div(b.ast), sort: SortReal} }
func (c *Context) Neg(a Expr) Expr    { return Expr{ast: a.ast.Neg(), sort: SortReal} }

// CheckResult is Z3's ternary answer: a model may not exist, may exist,
// or the solver may give up within its resource bound.
type CheckResult int

const (
	Unsat CheckResult = iota
	Sat
	Unknown
)

// Solver wraps a push/pop-capable Z3 solver instance bound to timeoutMS
// milliseconds per Check call (spec's solver-timeout-to-unknown contract).
type Solver struct {
	ctx     *Context
	solver  *z3.Solver
	timeout int
}

// NewSolver allocates a solver on ctx with a per-call timeout in
// milliseconds.
func (c *Context) NewSolver(timeoutMS int) *Solver {
	s := c.ctx.NewSolver()
	params := c.ctx.NewParams()
	params.SetUInt(c.ctx.Symbol("timeout"), uint(timeoutMS))
	s.SetParams(params)
	return &Solver{ctx: c, solver: s, timeout: timeoutMS}
}

func (s *Solver) Push()        { s.solver.Push() }
func (s *Solver) Pop()         { s.solver.Pop() }
func (s *Solver) Assert(e Expr) { s.solver.Assert(e.ast) }

// Check runs the solver over everything asserted so far.
func (s *Solver) Check() CheckResult {
	switch s.solver.Check() {
	case z3.True:
		return Sat
	case z3.False:
		return Unsat
	default:
		return Unknown
	}
}

// ReasonUnknown reports Z3's explanation for the most recent Check call
// that returned Unknown, e.g. "timeout" or "resource limits reached". The
// value is meaningless after any other result.
func (s *Solver) ReasonUnknown() string {
	return s.solver.ReasonUnknown()
}

// Model returns the satisfying assignment of the most recent Check call
// that returned Sat. The returned Model must be closed before the next
// Push/Pop/Assert/Check call on the same solver.
func (s *Solver) Model() *Model {
	return &Model{m: s.solver.Model()}
}

// Close releases the solver. A Solver allocated from Context.NewSolver
// must be closed before the owning Context.
func (s *Solver) Close() {
	s.solver.Close()
}

// Model wraps a Z3 model: a concrete assignment of every constant that
// appears in the formulas a Solver just proved satisfiable.
type Model struct {
	m *z3.Model
}

// Close releases the model. Must happen before the owning Solver's next
// Check call.
func (m *Model) Close() {
	m.m.Close()
}

// EvalReal reads e's assigned value under the model. e must have been
// built at SortReal.
func (m *Model) EvalReal(e Expr) float64 {
	v := m.m.Eval(e.ast, true)
	if v == nil {
		return 0
	}
	return v.Double()
}

// EvalBool reads e's assigned value under the model. e must have been
// built at SortBool.
func (m *Model) EvalBool(e Expr) bool {
	v := m.m.Eval(e.ast, true)
	return v != nil && v.Bool()
}

// EvalOpaqueKey reads e's assigned value under the model and returns Z3's
// internal identifier for it. The uninterpreted sort has no structure of
// its own, so this key is only meaningful to compare for equality against
// another EvalOpaqueKey call under the same model.
func (m *Model) EvalOpaqueKey(e Expr) string {
	v := m.m.Eval(e.ast, true)
	if v == nil {
		return ""
	}
	return v.String()
}

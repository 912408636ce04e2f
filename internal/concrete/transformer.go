// Package concrete folds the expression AST bottom-up over a concrete
// payload environment, per spec §4.2.
package concrete

import (
	"fmt"
	"strings"

	"github.com/deciflow/deciflow/internal/lang"
)

// Eval folds expr over env, an already-validated payload.
func Eval(expr lang.Expr, env map[string]any) (any, error) {
	switch n := expr.(type) {
	case lang.NumberLit:
		return n.Value, nil
	case lang.StringLit:
		return n.Value, nil
	case lang.BoolLit:
		return n.Value, nil
	case lang.NullLit:
		return nil, nil

	case lang.ListLit:
		out := make([]any, len(n.Elements))
		for i, el := range n.Elements {
			v, err := Eval(el, env)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case lang.ObjectLit:
		out := make(map[string]any, len(n.Keys))
		for i, k := range n.Keys {
			v, err := Eval(n.Values[i], env)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil

	case lang.Name:
		return resolvePath(n.Path, env)

	case lang.Index:
		target, err := Eval(n.Target, env)
		if err != nil {
			return nil, err
		}
		idx, err := Eval(n.Index, env)
		if err != nil {
			return nil, err
		}
		return indexInto(target, idx)

	case lang.Call:
		args := make([]any, len(n.Args))
		for i, a := range n.Args {
			v, err := Eval(a, env)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return callBuiltin(n.Name, args)

	case lang.Unary:
		return evalUnary(n, env)

	case lang.Binary:
		return evalBinary(n, env)

	case lang.If:
		cond, err := Eval(n.Cond, env)
		if err != nil {
			return nil, err
		}
		b, ok := cond.(bool)
		if !ok {
			return nil, fmt.Errorf("type error: if condition must be boolean, got %T", cond)
		}
		if b {
			return Eval(n.Then, env)
		}
		return Eval(n.Else, env)

	default:
		return nil, fmt.Errorf("unsupported expression node %T", expr)
	}
}

func resolvePath(path []string, env map[string]any) (any, error) {
	var cur any = env
	for i, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("name error: %s is not an object, cannot access %q", strings.Join(path[:i], "."), key)
		}
		v, present := m[key]
		if !present {
			return nil, fmt.Errorf("name error: unknown variable %q", strings.Join(path[:i+1], "."))
		}
		cur = v
	}
	return cur, nil
}

func indexInto(target, idx any) (any, error) {
	n, ok := asNumber(idx)
	if !ok {
		return nil, fmt.Errorf("type error: index must be numeric, got %T", idx)
	}
	i := int(n)

	switch t := target.(type) {
	case []any:
		if i < 1 || i > len(t) {
			return nil, fmt.Errorf("index out of range: %d (length %d)", i, len(t))
		}
		return t[i-1], nil
	case string:
		r := []rune(t)
		if i < 1 || i > len(r) {
			return nil, fmt.Errorf("index out of range: %d (length %d)", i, len(r))
		}
		return string(r[i-1]), nil
	default:
		return nil, fmt.Errorf("type error: cannot index into %T", target)
	}
}

func evalUnary(n lang.Unary, env map[string]any) (any, error) {
	v, err := Eval(n.X, env)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case "-":
		if v == nil {
			return nil, nil
		}
		f, ok := asNumber(v)
		if !ok {
			return nil, fmt.Errorf("type error: unary - requires a number, got %T", v)
		}
		return -f, nil
	case "not":
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("type error: not requires a boolean, got %T", v)
		}
		return !b, nil
	default:
		return nil, fmt.Errorf("unknown unary operator %q", n.Op)
	}
}

func evalBinary(n lang.Binary, env map[string]any) (any, error) {
	l, err := Eval(n.L, env)
	if err != nil {
		return nil, err
	}
	r, err := Eval(n.R, env)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "and":
		lb, ok1 := l.(bool)
		rb, ok2 := r.(bool)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("type error: and requires booleans")
		}
		return lb && rb, nil
	case "or":
		lb, ok1 := l.(bool)
		rb, ok2 := r.(bool)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("type error: or requires booleans")
		}
		return lb || rb, nil
	case "=":
		return valuesEqual(l, r), nil
	case "!=":
		return !valuesEqual(l, r), nil
	case "<", "<=", ">", ">=":
		if l == nil || r == nil {
			return nil, fmt.Errorf("type error: relational comparison does not accept null")
		}
		return compareOrdered(n.Op, l, r)
	case "in":
		return membership(l, r)
	case "+":
		return add(l, r)
	case "-", "*", "/":
		return arith(n.Op, l, r)
	default:
		return nil, fmt.Errorf("unknown binary operator %q", n.Op)
	}
}

func valuesEqual(l, r any) bool {
	if l == nil || r == nil {
		return l == nil && r == nil
	}
	lf, lok := asNumber(l)
	rf, rok := asNumber(r)
	if lok && rok {
		return lf == rf
	}
	return fmt.Sprintf("%v", l) == fmt.Sprintf("%v", r) && sameKind(l, r)
}

func sameKind(l, r any) bool {
	switch l.(type) {
	case string:
		_, ok := r.(string)
		return ok
	case bool:
		_, ok := r.(bool)
		return ok
	default:
		return false
	}
}

func compareOrdered(op string, l, r any) (any, error) {
	lf, lok := asNumber(l)
	rf, rok := asNumber(r)
	if lok && rok {
		switch op {
		case "<":
			return lf < rf, nil
		case "<=":
			return lf <= rf, nil
		case ">":
			return lf > rf, nil
		case ">=":
			return lf >= rf, nil
		}
	}
	ls, lsok := l.(string)
	rs, rsok := r.(string)
	if lsok && rsok {
		switch op {
		case "<":
			return ls < rs, nil
		case "<=":
			return ls <= rs, nil
		case ">":
			return ls > rs, nil
		case ">=":
			return ls >= rs, nil
		}
	}
	return nil, fmt.Errorf("type error: cannot compare %T and %T", l, r)
}

func membership(needle, haystack any) (any, error) {
	switch h := haystack.(type) {
	case string:
		s, ok := needle.(string)
		if !ok {
			return nil, fmt.Errorf("type error: 'in' against a string requires a string left-hand side")
		}
		// Substring semantics, per spec §9 open question (c).
		return strings.Contains(h, s), nil
	case []any:
		for _, v := range h {
			if valuesEqual(v, needle) {
				return true, nil
			}
		}
		return false, nil
	default:
		return nil, fmt.Errorf("type error: 'in' requires a string or list right-hand side, got %T", haystack)
	}
}

func add(l, r any) (any, error) {
	if l == nil || r == nil {
		return nil, nil
	}
	if ls, ok := l.(string); ok {
		rs, ok := r.(string)
		if !ok {
			return nil, fmt.Errorf("type error: string + requires a string, got %T", r)
		}
		return ls + rs, nil
	}
	if ll, ok := l.([]any); ok {
		rl, ok := r.([]any)
		if !ok {
			return nil, fmt.Errorf("type error: list + requires a list, got %T", r)
		}
		out := make([]any, 0, len(ll)+len(rl))
		out = append(out, ll...)
		out = append(out, rl...)
		return out, nil
	}
	return arith("+", l, r)
}

func arith(op string, l, r any) (any, error) {
	if l == nil || r == nil {
		return nil, nil
	}
	li, lIsInt := l.(int)
	ri, rIsInt := r.(int)
	if lIsInt && rIsInt {
		switch op {
		case "+":
			return li + ri, nil
		case "-":
			return li - ri, nil
		case "*":
			return li * ri, nil
		case "/":
			if ri == 0 {
				return nil, fmt.Errorf("division by zero")
			}
			return float64(li) / float64(ri), nil
		}
	}
	lf, lok := asNumber(l)
	rf, rok := asNumber(r)
	if !lok || !rok {
		return nil, fmt.Errorf("type error: arithmetic requires numbers, got %T and %T", l, r)
	}
	switch op {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return lf / rf, nil
	}
	return nil, fmt.Errorf("unknown arithmetic operator %q", op)
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

package lang

import "fmt"

// Parser is a recursive-descent parser over the expression grammar of §6.
// A Parser is stateless once constructed and is safe to hold as
// process-wide shared state, matching the "process-wide parser" design
// note: Parse never mutates the Parser value itself.
type Parser struct{}

// NewParser returns the single, immutable parser instance. Call sites are
// expected to hold one Parser for the process lifetime.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses src into an AST, or returns a syntax error.
func (p *Parser) Parse(src string) (Expr, error) {
	ps := &parseState{lex: newLexer(src)}
	if err := ps.advance(); err != nil {
		return nil, err
	}
	expr, err := ps.parseIf()
	if err != nil {
		return nil, err
	}
	if ps.cur.kind != tokEOF {
		return nil, fmt.Errorf("unexpected trailing token %q", ps.cur.text)
	}
	return expr, nil
}

type parseState struct {
	lex *lexer
	cur token
}

func (ps *parseState) advance() error {
	t, err := ps.lex.next()
	if err != nil {
		return err
	}
	ps.cur = t
	return nil
}

func (ps *parseState) isPunct(s string) bool {
	return ps.cur.kind == tokPunct && ps.cur.text == s
}

func (ps *parseState) isIdent(s string) bool {
	return ps.cur.kind == tokIdent && ps.cur.text == s
}

func (ps *parseState) expectPunct(s string) error {
	if !ps.isPunct(s) {
		return fmt.Errorf("expected %q, got %q", s, ps.cur.text)
	}
	return ps.advance()
}

func (ps *parseState) expectIdent(s string) error {
	if !ps.isIdent(s) {
		return fmt.Errorf("expected keyword %q, got %q", s, ps.cur.text)
	}
	return ps.advance()
}

// parseIf : "if" orExpr "then" expr "else" expr | orExpr
func (ps *parseState) parseIf() (Expr, error) {
	if ps.isIdent("if") {
		if err := ps.advance(); err != nil {
			return nil, err
		}
		cond, err := ps.parseOr()
		if err != nil {
			return nil, err
		}
		if err := ps.expectIdent("then"); err != nil {
			return nil, err
		}
		thenE, err := ps.parseIf()
		if err != nil {
			return nil, err
		}
		if err := ps.expectIdent("else"); err != nil {
			return nil, err
		}
		elseE, err := ps.parseIf()
		if err != nil {
			return nil, err
		}
		return If{Cond: cond, Then: thenE, Else: elseE}, nil
	}
	return ps.parseOr()
}

func (ps *parseState) parseOr() (Expr, error) {
	left, err := ps.parseAnd()
	if err != nil {
		return nil, err
	}
	for ps.isIdent("or") {
		if err := ps.advance(); err != nil {
			return nil, err
		}
		right, err := ps.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: "or", L: left, R: right}
	}
	return left, nil
}

func (ps *parseState) parseAnd() (Expr, error) {
	left, err := ps.parseComparison()
	if err != nil {
		return nil, err
	}
	for ps.isIdent("and") {
		if err := ps.advance(); err != nil {
			return nil, err
		}
		right, err := ps.parseComparison()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: "and", L: left, R: right}
	}
	return left, nil
}

var comparisonOps = map[string]bool{"=": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (ps *parseState) parseComparison() (Expr, error) {
	left, err := ps.parseAdd()
	if err != nil {
		return nil, err
	}
	for {
		if ps.cur.kind == tokPunct && comparisonOps[ps.cur.text] {
			op := ps.cur.text
			if err := ps.advance(); err != nil {
				return nil, err
			}
			right, err := ps.parseAdd()
			if err != nil {
				return nil, err
			}
			left = Binary{Op: op, L: left, R: right}
			continue
		}
		if ps.isIdent("in") {
			if err := ps.advance(); err != nil {
				return nil, err
			}
			right, err := ps.parseAdd()
			if err != nil {
				return nil, err
			}
			left = Binary{Op: "in", L: left, R: right}
			continue
		}
		break
	}
	return left, nil
}

func (ps *parseState) parseAdd() (Expr, error) {
	left, err := ps.parseMul()
	if err != nil {
		return nil, err
	}
	for ps.isPunct("+") || ps.isPunct("-") {
		op := ps.cur.text
		if err := ps.advance(); err != nil {
			return nil, err
		}
		right, err := ps.parseMul()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, L: left, R: right}
	}
	return left, nil
}

func (ps *parseState) parseMul() (Expr, error) {
	left, err := ps.parseUnary()
	if err != nil {
		return nil, err
	}
	for ps.isPunct("*") || ps.isPunct("/") {
		op := ps.cur.text
		if err := ps.advance(); err != nil {
			return nil, err
		}
		right, err := ps.parseUnary()
		if err != nil {
			return nil, err
		}
		left = Binary{Op: op, L: left, R: right}
	}
	return left, nil
}

func (ps *parseState) parseUnary() (Expr, error) {
	if ps.isPunct("-") {
		if err := ps.advance(); err != nil {
			return nil, err
		}
		x, err := ps.parseUnary()
		if err != nil {
			return nil, err
		}
		return Unary{Op: "-", X: x}, nil
	}
	if ps.isIdent("not") {
		if err := ps.advance(); err != nil {
			return nil, err
		}
		x, err := ps.parseUnary()
		if err != nil {
			return nil, err
		}
		return Unary{Op: "not", X: x}, nil
	}
	return ps.parsePostfix()
}

func (ps *parseState) parsePostfix() (Expr, error) {
	expr, err := ps.parsePrimary()
	if err != nil {
		return nil, err
	}
	for ps.isPunct("[") {
		if err := ps.advance(); err != nil {
			return nil, err
		}
		idx, err := ps.parseIf()
		if err != nil {
			return nil, err
		}
		if err := ps.expectPunct("]"); err != nil {
			return nil, err
		}
		expr = Index{Target: expr, Index: idx}
	}
	return expr, nil
}

func (ps *parseState) parsePrimary() (Expr, error) {
	switch {
	case ps.cur.kind == tokNumber:
		v := ps.cur.num
		if err := ps.advance(); err != nil {
			return nil, err
		}
		return NumberLit{Value: v}, nil

	case ps.cur.kind == tokString:
		v := ps.cur.text
		if err := ps.advance(); err != nil {
			return nil, err
		}
		return StringLit{Value: v}, nil

	case ps.isIdent("true"):
		if err := ps.advance(); err != nil {
			return nil, err
		}
		return BoolLit{Value: true}, nil

	case ps.isIdent("false"):
		if err := ps.advance(); err != nil {
			return nil, err
		}
		return BoolLit{Value: false}, nil

	case ps.isIdent("null"):
		if err := ps.advance(); err != nil {
			return nil, err
		}
		return NullLit{}, nil

	case ps.isPunct("("):
		if err := ps.advance(); err != nil {
			return nil, err
		}
		inner, err := ps.parseIf()
		if err != nil {
			return nil, err
		}
		if err := ps.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil

	case ps.isPunct("["):
		return ps.parseList()

	case ps.isPunct("{"):
		return ps.parseObject()

	case ps.cur.kind == tokIdent:
		return ps.parseIdentOrCall()

	default:
		return nil, fmt.Errorf("unexpected token %q", ps.cur.text)
	}
}

func (ps *parseState) parseList() (Expr, error) {
	if err := ps.advance(); err != nil { // consume "["
		return nil, err
	}
	var elems []Expr
	if !ps.isPunct("]") {
		for {
			e, err := ps.parseIf()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if ps.isPunct(",") {
				if err := ps.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}
	if err := ps.expectPunct("]"); err != nil {
		return nil, err
	}
	return ListLit{Elements: elems}, nil
}

func (ps *parseState) parseObject() (Expr, error) {
	if err := ps.advance(); err != nil { // consume "{"
		return nil, err
	}
	var keys []string
	var values []Expr
	if !ps.isPunct("}") {
		for {
			var key string
			switch {
			case ps.cur.kind == tokIdent:
				key = ps.cur.text
				if err := ps.advance(); err != nil {
					return nil, err
				}
			case ps.cur.kind == tokString:
				key = ps.cur.text
				if err := ps.advance(); err != nil {
					return nil, err
				}
			default:
				return nil, fmt.Errorf("expected object key, got %q", ps.cur.text)
			}
			if err := ps.expectPunct(":"); err != nil {
				return nil, err
			}
			v, err := ps.parseIf()
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
			values = append(values, v)
			if ps.isPunct(",") {
				if err := ps.advance(); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
	}
	if err := ps.expectPunct("}"); err != nil {
		return nil, err
	}
	return ObjectLit{Keys: keys, Values: values}, nil
}

func (ps *parseState) parseIdentOrCall() (Expr, error) {
	name := ps.cur.text
	if err := ps.advance(); err != nil {
		return nil, err
	}
	if ps.isPunct("(") {
		if err := ps.advance(); err != nil {
			return nil, err
		}
		var args []Expr
		if !ps.isPunct(")") {
			for {
				a, err := ps.parseIf()
				if err != nil {
					return nil, err
				}
				args = append(args, a)
				if ps.isPunct(",") {
					if err := ps.advance(); err != nil {
						return nil, err
					}
					continue
				}
				break
			}
		}
		if err := ps.expectPunct(")"); err != nil {
			return nil, err
		}
		return Call{Name: name, Args: args}, nil
	}

	path := []string{name}
	for ps.isPunct(".") {
		if err := ps.advance(); err != nil {
			return nil, err
		}
		if ps.cur.kind != tokIdent {
			return nil, fmt.Errorf("expected identifier after '.', got %q", ps.cur.text)
		}
		path = append(path, ps.cur.text)
		if err := ps.advance(); err != nil {
			return nil, err
		}
	}
	return Name{Path: path}, nil
}

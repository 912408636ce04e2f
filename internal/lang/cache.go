package lang

import "sync"

// Cache memoizes parses of expression text, mirroring the compiled-program
// cache in the teacher's condition evaluator: a single process-wide parser
// plus a mutex-guarded map from source text to its parsed AST, so a
// conditional node whose expression is evaluated many times across
// concrete/symbolic runs is only parsed once.
type Cache struct {
	parser *Parser

	mu   sync.RWMutex
	asts map[string]Expr
}

// NewCache constructs a Cache around a shared Parser.
func NewCache(parser *Parser) *Cache {
	return &Cache{
		parser: parser,
		asts:   make(map[string]Expr),
	}
}

// Parse returns the cached AST for expr, parsing and storing it on first
// use.
func (c *Cache) Parse(expr string) (Expr, error) {
	c.mu.RLock()
	ast, ok := c.asts[expr]
	c.mu.RUnlock()
	if ok {
		return ast, nil
	}

	ast, err := c.parser.Parse(expr)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.asts[expr] = ast
	c.mu.Unlock()
	return ast, nil
}

package concrete

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deciflow/deciflow/internal/lang"
)

func eval(t *testing.T, src string, env map[string]any) any {
	t.Helper()
	p := lang.NewParser()
	ast, err := p.Parse(src)
	require.NoError(t, err, src)
	v, err := Eval(ast, env)
	require.NoError(t, err, src)
	return v
}

func TestEval_Arithmetic(t *testing.T) {
	assert.Equal(t, 7.0, eval(t, "1 + 2 * 3", nil))
	assert.Equal(t, -4.0, eval(t, "2 - 6", nil))
	assert.Equal(t, 2.5, eval(t, "5 / 2", nil))
}

func TestEval_DottedPathAndIndex(t *testing.T) {
	env := map[string]any{
		"customer": map[string]any{
			"name": "Ada",
			"tags": []any{"vip", "early-adopter"},
		},
	}
	assert.Equal(t, "Ada", eval(t, "customer.name", env))
	assert.Equal(t, "vip", eval(t, "customer.tags[1]", env))
}

func TestEval_IndexOutOfRange(t *testing.T) {
	env := map[string]any{"items": []any{"a", "b"}}
	p := lang.NewParser()
	ast, err := p.Parse("items[5]")
	require.NoError(t, err)
	_, err = Eval(ast, env)
	assert.Error(t, err)
}

func TestEval_UnknownVariable(t *testing.T) {
	p := lang.NewParser()
	ast, err := p.Parse("missing.field")
	require.NoError(t, err)
	_, err = Eval(ast, map[string]any{})
	assert.Error(t, err)
}

func TestEval_ComparisonAndLogic(t *testing.T) {
	env := map[string]any{"age": 21.0}
	assert.Equal(t, true, eval(t, "age >= 18 and age < 65", env))
	assert.Equal(t, false, eval(t, "age < 18 or age > 100", env))
}

func TestEval_IfThenElse(t *testing.T) {
	env := map[string]any{"balance": -5.0}
	assert.Equal(t, "overdrawn", eval(t, `if balance < 0 then "overdrawn" else "ok"`, env))
}

func TestEval_StringAndListConcatenation(t *testing.T) {
	assert.Equal(t, "foobar", eval(t, `"foo" + "bar"`, nil))
	env := map[string]any{"a": []any{1.0}, "b": []any{2.0}}
	assert.Equal(t, []any{1.0, 2.0}, eval(t, "a + b", env))
}

func TestEval_InOperator(t *testing.T) {
	env := map[string]any{"tag": "vip", "tags": []any{"vip", "gold"}}
	assert.Equal(t, true, eval(t, "tag in tags", env))
	assert.Equal(t, true, eval(t, `"ell" in "hello"`, nil))
}

func TestEval_RelationalComparisonWithNullFails(t *testing.T) {
	p := lang.NewParser()
	ast, err := p.Parse("a < 5")
	require.NoError(t, err)
	_, err = Eval(ast, map[string]any{"a": nil})
	assert.Error(t, err)
}

func TestBuiltins_LengthSubstringCase(t *testing.T) {
	env := map[string]any{"name": "Hello"}
	assert.Equal(t, 5, eval(t, "length(name)", env))
	assert.Equal(t, "ell", eval(t, "substring(name, 2, 3)", env))
	assert.Equal(t, "HELLO", eval(t, "upper(name)", env))
	assert.Equal(t, true, eval(t, `startsWith(name, "He")`, env))
}

func TestBuiltins_ListHelpers(t *testing.T) {
	env := map[string]any{"items": []any{"a", "b", "a"}}
	assert.Equal(t, []any{"a", "b", "a", "c"}, eval(t, `append(items, "c")`, env))
	assert.Equal(t, []any{"b"}, eval(t, `remove(items, "a")`, env))
	assert.Equal(t, 2, eval(t, `count(items, "a")`, env))
}

func TestBuiltins_IsNullAndCoalesce(t *testing.T) {
	env := map[string]any{"a": nil, "b": "fallback"}
	assert.Equal(t, true, eval(t, "is_null(a)", env))
	assert.Equal(t, "fallback", eval(t, "coalesce(a, b)", env))
}

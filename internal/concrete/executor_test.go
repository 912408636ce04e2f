package concrete

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deciflow/deciflow/internal/domain"
	"github.com/deciflow/deciflow/internal/lang"
)

func ageFlow() domain.Flow {
	return domain.Flow{
		ID: "flow-1",
		Nodes: []domain.Node{
			domain.NewStartNode("start", "Start", []domain.InputField{
				{DisplayName: "age", Type: domain.InputNumber, Required: true},
			}),
			domain.NewConditionalNode("cond", "AgeCheck", "start", false, "age >= 18"),
			domain.NewEndNode("end-adult", "Adult", "cond", false, map[string]any{"verdict": "adult"}),
			domain.NewEndNode("end-minor", "Minor", "cond", true, map[string]any{"verdict": "minor"}),
		},
	}
}

func TestExecutor_TrueBranch(t *testing.T) {
	flow := ageFlow()
	cache := lang.NewCache(lang.NewParser())
	ex := NewExecutor(&flow, cache)

	result, err := ex.Run(map[string]any{"age": 30.0})
	require.NoError(t, err)
	assert.Equal(t, "end-adult", result.EndNodeID)
	assert.Equal(t, map[string]any{"verdict": "adult"}, result.EndMetadata.Response)
	assert.Equal(t, []string{"start", "cond", "end-adult"}, result.Trace)
}

func TestExecutor_FalseBranch(t *testing.T) {
	flow := ageFlow()
	cache := lang.NewCache(lang.NewParser())
	ex := NewExecutor(&flow, cache)

	result, err := ex.Run(map[string]any{"age": 10.0})
	require.NoError(t, err)
	assert.Equal(t, "end-minor", result.EndNodeID)
}

func TestExecutor_RuntimeErrorOnMissingVariable(t *testing.T) {
	flow := ageFlow()
	cache := lang.NewCache(lang.NewParser())
	ex := NewExecutor(&flow, cache)

	_, err := ex.Run(map[string]any{})
	require.Error(t, err)
	var re *domain.RuntimeError
	assert.ErrorAs(t, err, &re)
	assert.Equal(t, "cond", re.NodeID)
}

func TestExecutor_MissingStartNode(t *testing.T) {
	flow := domain.Flow{Nodes: []domain.Node{domain.NewEndNode("e", "E", "x", false, nil)}}
	cache := lang.NewCache(lang.NewParser())
	ex := NewExecutor(&flow, cache)

	_, err := ex.Run(map[string]any{})
	assert.Error(t, err)
}

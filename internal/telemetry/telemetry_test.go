package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/deciflow/deciflow/internal/domain"
)

func TestPush_FirstRunHasZeroEvolutionIndex(t *testing.T) {
	exec := domain.SymbolicExecution{FlowID: "f1", Pruned: 2, Reductions: 1, Coverage: 0.5}
	summary := Push(nil, exec)

	assert.Equal(t, 0.0, summary.EvolutionIndex)
	assert.Len(t, summary.Window, 1)
	assert.Equal(t, "f1", summary.FlowID)
}

func TestPush_WindowCapsAtTwo(t *testing.T) {
	prev := []domain.SymbolicExecution{
		{FlowID: "f1", Pruned: 1},
		{FlowID: "f1", Pruned: 2},
	}
	summary := Push(prev, domain.SymbolicExecution{FlowID: "f1", Pruned: 3})

	assert.Len(t, summary.Window, 2)
	assert.Equal(t, 2, summary.Window[0].Pruned)
	assert.Equal(t, 3, summary.Window[1].Pruned)
}

func TestPush_EvolutionIndex_CoverageIncreaseIsPositive(t *testing.T) {
	prev := []domain.SymbolicExecution{
		{FlowID: "f1", Coverage: 0.5, Pruned: 0, Reductions: 0, Uncovered: 0},
	}
	curr := domain.SymbolicExecution{FlowID: "f1", Coverage: 1.0, Pruned: 0, Reductions: 0, Uncovered: 0}
	summary := Push(prev, curr)

	assert.Greater(t, summary.EvolutionIndex, 0.0)
}

func TestPush_EvolutionIndex_MorePruningIsNegative(t *testing.T) {
	prev := []domain.SymbolicExecution{
		{FlowID: "f1", Coverage: 1.0, Pruned: 0, Reductions: 0, Uncovered: 0},
	}
	curr := domain.SymbolicExecution{FlowID: "f1", Coverage: 1.0, Pruned: 10, Reductions: 0, Uncovered: 0}
	summary := Push(prev, curr)

	assert.Less(t, summary.EvolutionIndex, 0.0)
}

func TestPush_EvolutionIndex_IsClipped(t *testing.T) {
	prev := []domain.SymbolicExecution{
		{FlowID: "f1", Coverage: 0, Pruned: 1000, Reductions: 0, Uncovered: 0},
	}
	curr := domain.SymbolicExecution{FlowID: "f1", Coverage: 1.0, Pruned: 0, Reductions: 1000, Uncovered: 0}
	summary := Push(prev, curr)

	assert.LessOrEqual(t, summary.EvolutionIndex, 1.0)
	assert.GreaterOrEqual(t, summary.EvolutionIndex, -1.0)
}

func TestTimeToModification(t *testing.T) {
	now := time.Now()
	last := now.Add(-10 * time.Minute)
	assert.Equal(t, 10*time.Minute, TimeToModification(last, now))
	assert.Equal(t, time.Duration(0), TimeToModification(time.Time{}, now))
}

func TestInconsistenciesRatio_NoConditionalsIsZero(t *testing.T) {
	flow := domain.Flow{Nodes: []domain.Node{
		domain.NewStartNode("start", "Start", nil),
		domain.NewEndNode("end", "End", "start", false, nil),
	}}
	ratio := InconsistenciesRatio(domain.SymbolicReport{}, flow)
	assert.Equal(t, 0.0, ratio)
}

func TestInconsistenciesRatio_CountsDistinctFlaggedNodes(t *testing.T) {
	flow := domain.Flow{Nodes: []domain.Node{
		domain.NewStartNode("start", "Start", nil),
		domain.NewConditionalNode("c1", "C1", "start", false, "x > 0"),
		domain.NewConditionalNode("c2", "C2", "c1", false, "x > 1"),
		domain.NewConditionalNode("c3", "C3", "c1", true, "x > 2"),
		domain.NewEndNode("e1", "E1", "c2", false, nil),
		domain.NewEndNode("e2", "E2", "c2", true, nil),
		domain.NewEndNode("e3", "E3", "c3", false, nil),
		domain.NewEndNode("e4", "E4", "c3", true, nil),
	}}
	report := domain.SymbolicReport{
		Pruned:     []domain.PrunedBranch{{NodeID: "c2"}},
		Reductions: []domain.ReductionInfo{{NodeID: "c2"}, {NodeID: "c3"}},
	}
	ratio := InconsistenciesRatio(report, flow)
	assert.InDelta(t, 2.0/3.0, ratio, 1e-9)
}

func TestChanged(t *testing.T) {
	a := domain.SymbolicExecution{Pruned: 1, Reductions: 2, Uncovered: 0, Coverage: 0.5}
	b := a
	assert.False(t, Changed(a, b))

	b.Pruned = 2
	assert.True(t, Changed(a, b))
}

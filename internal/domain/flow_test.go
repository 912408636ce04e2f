package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSymbolicFlow() Flow {
	return Flow{
		ID: "f1",
		Nodes: []Node{
			NewStartNode("start", "Start", nil),
			NewConditionalNode("c1", "C1", "start", false, "a > 0"),
			NewEndNode("e1", "E1", "c1", false, nil),
			NewEndNode("e2", "E2", "c1", true, nil),
		},
	}
}

func TestFlow_ValidateBasic_OK(t *testing.T) {
	f := validSymbolicFlow()
	assert.NoError(t, f.ValidateBasic())
}

func TestFlow_ValidateBasic_NoStart(t *testing.T) {
	f := validSymbolicFlow()
	f.Nodes[0].Type = NodeTypeConditional
	err := f.ValidateBasic()
	require.Error(t, err)
	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, ErrCodeInvalidFlow, de.Code)
}

func TestFlow_ValidateBasic_DanglingParent(t *testing.T) {
	f := validSymbolicFlow()
	f.Nodes = append(f.Nodes, NewEndNode("orphan", "Orphan", "ghost", false, nil))
	assert.Error(t, f.ValidateBasic())
}

func TestFlow_ValidateForSymbolic_OK(t *testing.T) {
	f := validSymbolicFlow()
	assert.NoError(t, f.ValidateForSymbolic())
}

func TestFlow_ValidateForSymbolic_TooFewEnds(t *testing.T) {
	f := Flow{Nodes: []Node{
		NewStartNode("start", "Start", nil),
		NewEndNode("e1", "E1", "start", false, nil),
	}}
	err := f.ValidateForSymbolic()
	assert.Error(t, err)
}

func TestFlow_ValidateForSymbolic_MissingBranch(t *testing.T) {
	f := Flow{Nodes: []Node{
		NewStartNode("start", "Start", nil),
		NewConditionalNode("c1", "C1", "start", false, "a > 0"),
		NewEndNode("e1", "E1", "c1", false, nil),
	}}
	assert.Error(t, f.ValidateForSymbolic())
}

func TestFlow_ValidateForSymbolic_Cycle(t *testing.T) {
	f := validSymbolicFlow()
	// c1's true branch becomes a CONDITIONAL c2 whose true child reuses
	// c1's ID. Every other structural check still passes, and the
	// depth-first walk start → c1 → c2 → "c1" revisits "c1" and trips the
	// cycle guard.
	f.Nodes[2] = NewConditionalNode("c2", "C2", "c1", false, "a > 1")
	f.Nodes = append(f.Nodes,
		NewConditionalNode("c1", "C1Dup", "c2", false, "a > 0"),
		NewEndNode("e3", "E3", "c2", true, nil),
	)
	err := f.ValidateForSymbolic()
	assert.Error(t, err)
	assert.ErrorContains(t, err, "cycle")
}

func TestFlow_Branch(t *testing.T) {
	f := validSymbolicFlow()
	trueChild, ok := f.Branch("c1", false)
	require.True(t, ok)
	assert.Equal(t, "e1", trueChild.ID)

	falseChild, ok := f.Branch("c1", true)
	require.True(t, ok)
	assert.Equal(t, "e2", falseChild.ID)
}

func TestFlow_NodeByID(t *testing.T) {
	f := validSymbolicFlow()
	n, ok := f.NodeByID("c1")
	require.True(t, ok)
	assert.Equal(t, NodeTypeConditional, n.Type)

	_, ok = f.NodeByID("missing")
	assert.False(t, ok)
}

func stringPtr(s string) *string { return &s }

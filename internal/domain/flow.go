package domain

import (
	"fmt"
	"time"
)

// Flow is a decision-flow document: a directed graph of Nodes rooted at a
// single START, owned by a user identifier.
type Flow struct {
	ID          string    `json:"id"`
	Name        string    `json:"flowName"`
	Description string    `json:"flowDescription"`
	OwnerID     string    `json:"ownerId"`
	Nodes       []Node    `json:"nodes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NodeByID returns the node with the given ID, if present.
func (f *Flow) NodeByID(id string) (Node, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// StartNode returns the flow's single START node.
func (f *Flow) StartNode() (Node, bool) {
	for _, n := range f.Nodes {
		if n.Type == NodeTypeStart {
			return n, true
		}
	}
	return Node{}, false
}

// Children returns the node(s) whose parentNodeId is parentID, in
// declaration order (stable, since Nodes is not reordered by validation).
func (f *Flow) Children(parentID string) []Node {
	var out []Node
	for _, n := range f.Nodes {
		if n.ParentNodeID != nil && *n.ParentNodeID == parentID {
			out = append(out, n)
		}
	}
	return out
}

// Branch returns the unique child of a CONDITIONAL parent whose isFalseCase
// matches wantFalseCase.
func (f *Flow) Branch(parentID string, wantFalseCase bool) (Node, bool) {
	for _, n := range f.Nodes {
		if n.matchesBranch(parentID, wantFalseCase) {
			return n, true
		}
	}
	return Node{}, false
}

// ValidateBasic enforces the invariants needed by the concrete executor:
// exactly one START, and every non-START node references an existing
// parent in the same flow.
func (f *Flow) ValidateBasic() error {
	starts := 0
	ids := make(map[string]struct{}, len(f.Nodes))
	for _, n := range f.Nodes {
		ids[n.ID] = struct{}{}
		if n.Type == NodeTypeStart {
			starts++
		}
	}
	if starts != 1 {
		return NewDomainError(ErrCodeInvalidFlow,
			fmt.Sprintf("flow must have exactly one START node, found %d", starts), nil)
	}
	for _, n := range f.Nodes {
		if n.Type == NodeTypeStart {
			continue
		}
		if n.ParentNodeID == nil {
			return NewDomainError(ErrCodeInvalidFlow,
				fmt.Sprintf("node %s is not START but has no parentNodeId", n.ID), nil)
		}
		if _, ok := ids[*n.ParentNodeID]; !ok {
			return NewDomainError(ErrCodeInvalidFlow,
				fmt.Sprintf("node %s references unknown parent %s", n.ID, *n.ParentNodeID), nil)
		}
	}
	return nil
}

// ValidateForSymbolic enforces the full structural invariants required
// before a symbolic run: everything ValidateBasic checks, plus at least
// two END nodes, exactly two children per CONDITIONAL (one true, one
// false), no children under END, and acyclicity from START.
func (f *Flow) ValidateForSymbolic() error {
	if err := f.ValidateBasic(); err != nil {
		return err
	}

	ends := 0
	for _, n := range f.Nodes {
		switch n.Type {
		case NodeTypeEnd:
			ends++
			if len(f.Children(n.ID)) != 0 {
				return NewDomainError(ErrCodeInvalidFlow,
					fmt.Sprintf("END node %s must not have children", n.ID), nil)
			}
		case NodeTypeConditional:
			trueChild, okT := f.Branch(n.ID, false)
			falseChild, okF := f.Branch(n.ID, true)
			if !okT || !okF {
				return NewDomainError(ErrCodeInvalidFlow,
					fmt.Sprintf("CONDITIONAL node %s must have exactly one true and one false child", n.ID), nil)
			}
			if trueChild.ID == falseChild.ID {
				return NewDomainError(ErrCodeInvalidFlow,
					fmt.Sprintf("CONDITIONAL node %s has indistinguishable branches", n.ID), nil)
			}
			children := f.Children(n.ID)
			if len(children) != 2 {
				return NewDomainError(ErrCodeInvalidFlow,
					fmt.Sprintf("CONDITIONAL node %s must have exactly two children, found %d", n.ID, len(children)), nil)
			}
		}
	}
	if ends < 2 {
		return NewDomainError(ErrCodeInvalidFlow,
			fmt.Sprintf("flow must have at least two END nodes for symbolic evaluation, found %d", ends), nil)
	}

	start, ok := f.StartNode()
	if !ok {
		return NewDomainError(ErrCodeInvalidFlow, "flow has no START node", nil)
	}
	if err := f.checkAcyclic(start.ID); err != nil {
		return err
	}
	return nil
}

// checkAcyclic walks the graph depth-first from rootID, failing if any node
// is revisited on the current path.
func (f *Flow) checkAcyclic(rootID string) error {
	onPath := make(map[string]bool)
	var visit func(id string) error
	visit = func(id string) error {
		if onPath[id] {
			return NewDomainError(ErrCodeInvalidFlow,
				fmt.Sprintf("flow contains a cycle reachable from %s", id), nil)
		}
		onPath[id] = true
		defer delete(onPath, id)
		for _, child := range f.Children(id) {
			if err := visit(child.ID); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(rootID)
}

package edit

import (
	"errors"
	"fmt"
)

// Structural errors, detected before any text is modified.
var (
	ErrOverlap        = errors.New("overlapping text edits")
	ErrNotCovered     = errors.New("range not covered by parent")
	ErrUndefinedRange = errors.New("range is undefined")
	ErrDeletedRange   = errors.New("range is deleted")
	ErrOutOfBounds    = errors.New("range exceeds document bounds")
	ErrTargetLength   = errors.New("target edit must have zero length")
	ErrUnlinked       = errors.New("linked edit has no partner in the tree")
	ErrLinkMismatch   = errors.New("linked edit partner does not point back")
	ErrLinkKind       = errors.New("edits cannot form a pair")
	ErrLinkCycle      = errors.New("source edit contains its own target")
	ErrAttached       = errors.New("edit already belongs to a parent")
	ErrConnected      = errors.New("tree is connected to a document")
	ErrPerformed      = errors.New("edit has already been performed")
	ErrUnknownNode    = errors.New("unknown edit node")
)

// ErrNotConnected is returned by Perform for trees that were never validated.
var ErrNotConnected = errors.New("tree is not connected to a document")

// StructuralError reports an invalid tree shape at attach or validation time.
type StructuralError struct {
	Node  NodeID
	Kind  Kind
	Range Range
	Other NodeID // conflicting node, or NoNode
	Err   error
}

func (e *StructuralError) Error() string {
	if e.Other != NoNode {
		return fmt.Sprintf("edit %d (%s %s) conflicts with edit %d: %v", e.Node, e.Kind, e.Range, e.Other, e.Err)
	}
	return fmt.Sprintf("edit %d (%s %s): %v", e.Node, e.Kind, e.Range, e.Err)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// ExecError reports a buffer failure while performing a node.
type ExecError struct {
	Node  NodeID
	Kind  Kind
	Range Range
	Err   error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("perform edit %d (%s %s): %v", e.Node, e.Kind, e.Range, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// structural builds a StructuralError for a node of t.
func (t *Tree) structural(id NodeID, rng Range, other NodeID, err error) error {
	kind := KindComposite
	if t.valid(id) {
		kind = t.nodes[id].kind
	}
	return &StructuralError{Node: id, Kind: kind, Range: rng, Other: other, Err: err}
}

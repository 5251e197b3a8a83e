package edit

import (
	"fmt"

	"github.com/dshills/rewrite/internal/engine/buffer"
)

// ByteOffset is an alias for buffer.ByteOffset for convenience.
type ByteOffset = buffer.ByteOffset

// Range is an alias for buffer.Range for convenience.
type Range = buffer.Range

// NodeID is a stable index of a node inside its Tree.
type NodeID int

// NoNode marks an absent parent or partner.
const NoNode NodeID = -1

// Kind identifies the variant of an edit node.
type Kind uint8

const (
	KindComposite  Kind = iota // groups children, no text effect
	KindInsert                 // inserts text at an insertion point
	KindReplace                // replaces a range with text
	KindDelete                 // removes a range
	KindMarker                 // tracks a range without changing it
	KindCopySource             // text to duplicate
	KindCopyTarget             // where duplicated text is inserted
	KindMoveSource             // text to relocate
	KindMoveTarget             // where relocated text is inserted
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindComposite:
		return "composite"
	case KindInsert:
		return "insert"
	case KindReplace:
		return "replace"
	case KindDelete:
		return "delete"
	case KindMarker:
		return "marker"
	case KindCopySource:
		return "copy-source"
	case KindCopyTarget:
		return "copy-target"
	case KindMoveSource:
		return "move-source"
	case KindMoveTarget:
		return "move-target"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// IsLinked returns true for the halves of copy and move pairs.
func (k Kind) IsLinked() bool {
	return k.IsSource() || k.IsTarget()
}

// IsSource returns true for copy and move sources.
func (k Kind) IsSource() bool {
	return k == KindCopySource || k == KindMoveSource
}

// IsTarget returns true for copy and move targets.
func (k Kind) IsTarget() bool {
	return k == KindCopyTarget || k == KindMoveTarget
}

// pairsWith reports whether k and other form a source/target pair.
func (k Kind) pairsWith(other Kind) bool {
	switch k {
	case KindCopySource:
		return other == KindCopyTarget
	case KindCopyTarget:
		return other == KindCopySource
	case KindMoveSource:
		return other == KindMoveTarget
	case KindMoveTarget:
		return other == KindMoveSource
	}
	return false
}

// dropsChildren reports whether executing k removes the text of its children.
func (k Kind) dropsChildren() bool {
	return k == KindReplace || k == KindDelete
}

// State is the life-cycle stage of a node.
type State uint8

const (
	StateUnconnected State = iota // created, not in a tree
	StateAdded                    // attached to a tree
	StateConnected                // validated against a document
	StatePerformed                // executed; terminal
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateAdded:
		return "added"
	case StateConnected:
		return "connected"
	case StatePerformed:
		return "performed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// node is the arena record behind a NodeID.
type node struct {
	kind     Kind
	rng      Range
	fixed    bool // composite range given at creation
	text     string
	parent   NodeID
	children []NodeID
	partner  NodeID
	state    State
}

// unfixed reports whether the node is a composite whose range is derived.
func (n *node) unfixed() bool {
	return n.kind == KindComposite && !n.fixed
}

// live reports whether the node takes part in an execution.
func (n *node) live() bool {
	return n.state == StateConnected || n.state == StatePerformed
}

// newNode appends a detached node to the arena.
func (t *Tree) newNode(kind Kind, offset, length ByteOffset, text string) NodeID {
	rng := buffer.NewRange(offset, length)
	if !rng.IsReal() {
		rng = buffer.Undefined
	}
	t.nodes = append(t.nodes, node{
		kind:    kind,
		rng:     rng,
		fixed:   true,
		text:    text,
		parent:  NoNode,
		partner: NoNode,
	})
	return NodeID(len(t.nodes) - 1)
}

// NewInsert creates a detached node inserting text at offset.
func (t *Tree) NewInsert(offset ByteOffset, text string) NodeID {
	return t.newNode(KindInsert, offset, 0, text)
}

// NewReplace creates a detached node replacing [offset, offset+length) with text.
func (t *Tree) NewReplace(offset, length ByteOffset, text string) NodeID {
	return t.newNode(KindReplace, offset, length, text)
}

// NewDelete creates a detached node removing [offset, offset+length).
func (t *Tree) NewDelete(offset, length ByteOffset) NodeID {
	return t.newNode(KindDelete, offset, length, "")
}

// NewMarker creates a detached range marker. Markers never change the text;
// after execution their range reports where the marked text ended up.
func (t *Tree) NewMarker(offset, length ByteOffset) NodeID {
	return t.newNode(KindMarker, offset, length, "")
}

// NewComposite creates a detached composite whose range is derived from its
// children.
func (t *Tree) NewComposite() NodeID {
	id := t.newNode(KindComposite, 0, 0, "")
	t.nodes[id].rng = buffer.Undefined
	t.nodes[id].fixed = false
	return id
}

// NewCompositeRange creates a detached composite with a fixed range.
func (t *Tree) NewCompositeRange(offset, length ByteOffset) NodeID {
	return t.newNode(KindComposite, offset, length, "")
}

// NewCopySource creates the source half of a copy pair.
func (t *Tree) NewCopySource(offset, length ByteOffset) NodeID {
	return t.newNode(KindCopySource, offset, length, "")
}

// NewCopyTarget creates the target half of a copy pair.
func (t *Tree) NewCopyTarget(offset ByteOffset) NodeID {
	return t.newNode(KindCopyTarget, offset, 0, "")
}

// NewMoveSource creates the source half of a move pair.
func (t *Tree) NewMoveSource(offset, length ByteOffset) NodeID {
	return t.newNode(KindMoveSource, offset, length, "")
}

// NewMoveTarget creates the target half of a move pair.
func (t *Tree) NewMoveTarget(offset ByteOffset) NodeID {
	return t.newNode(KindMoveTarget, offset, 0, "")
}

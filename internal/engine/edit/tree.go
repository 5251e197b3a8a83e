package edit

import (
	"slices"

	"github.com/dshills/rewrite/internal/engine/buffer"
)

// Tree is an arena of edit nodes with a composite root.
//
// Nodes are created detached through the New* methods and attached with
// Attach. Every node belongs to exactly one tree and is addressed by its
// NodeID for the tree's lifetime. Parent and partner links are indices into
// the arena, so a tree holds no pointer cycles.
//
// A Tree is not safe for concurrent use.
type Tree struct {
	nodes []node
	root  NodeID
	pairs map[NodeID]*pair // keyed by source node
}

// NewTree creates a tree whose root is an unfixed composite.
func NewTree() *Tree {
	t := &Tree{}
	t.root = t.NewComposite()
	t.nodes[t.root].state = StateAdded
	return t
}

// NewTreeRange creates a tree whose root is a composite with a fixed range.
func NewTreeRange(offset, length ByteOffset) *Tree {
	t := &Tree{}
	t.root = t.NewCompositeRange(offset, length)
	t.nodes[t.root].state = StateAdded
	return t
}

// Root returns the root composite.
func (t *Tree) Root() NodeID {
	return t.root
}

// Len returns the number of nodes in the arena, attached or not.
func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// Kind returns the kind of a node.
func (t *Tree) Kind(id NodeID) Kind {
	if !t.valid(id) {
		return KindComposite
	}
	return t.nodes[id].kind
}

// Range returns the current range of a node, or Undefined for unknown IDs.
func (t *Tree) Range(id NodeID) Range {
	if !t.valid(id) {
		return buffer.Undefined
	}
	return t.nodes[id].rng
}

// Text returns the replacement text of insert and replace nodes.
func (t *Tree) Text(id NodeID) string {
	if !t.valid(id) {
		return ""
	}
	return t.nodes[id].text
}

// Parent returns the parent of a node, or NoNode.
func (t *Tree) Parent(id NodeID) NodeID {
	if !t.valid(id) {
		return NoNode
	}
	return t.nodes[id].parent
}

// Children returns a copy of the ordered children of a node.
func (t *Tree) Children(id NodeID) []NodeID {
	if !t.valid(id) {
		return nil
	}
	return slices.Clone(t.nodes[id].children)
}

// Partner returns the linked partner of a copy or move node, or NoNode.
func (t *Tree) Partner(id NodeID) NodeID {
	if !t.valid(id) {
		return NoNode
	}
	return t.nodes[id].partner
}

// State returns the life-cycle state of a node.
func (t *Tree) State(id NodeID) State {
	if !t.valid(id) {
		return StateUnconnected
	}
	return t.nodes[id].state
}

// IsFixed reports whether the node's range was given at creation.
func (t *Tree) IsFixed(id NodeID) bool {
	return t.valid(id) && !t.nodes[id].unfixed()
}

// Walk visits the attached nodes in document order, parents before children.
// Returning false from fn skips the node's children.
func (t *Tree) Walk(fn func(id NodeID, depth int) bool) {
	t.walk(t.root, 0, fn)
}

func (t *Tree) walk(id NodeID, depth int, fn func(NodeID, int) bool) {
	if !fn(id, depth) {
		return
	}
	for _, c := range t.nodes[id].children {
		t.walk(c, depth+1, fn)
	}
}

// reachable returns the attached nodes in pre-order.
func (t *Tree) reachable() []NodeID {
	var ids []NodeID
	t.Walk(func(id NodeID, _ int) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// isAncestor reports whether a is a proper ancestor of b.
func (t *Tree) isAncestor(a, b NodeID) bool {
	for p := t.nodes[b].parent; p != NoNode; p = t.nodes[p].parent {
		if p == a {
			return true
		}
	}
	return false
}

// sealed returns an error if the tree can no longer change shape.
func (t *Tree) sealed(id NodeID) error {
	switch t.nodes[id].state {
	case StateConnected:
		return t.structural(id, t.nodes[id].rng, NoNode, ErrConnected)
	case StatePerformed:
		return t.structural(id, t.nodes[id].rng, NoNode, ErrPerformed)
	}
	return nil
}

// insertionIndex finds where a child with range r goes among children,
// ignoring skip. Siblings ending at or before r.Offset sort first, so an
// insertion point sharing an offset with an earlier one goes after it.
func insertionIndex(children []NodeID, r Range, skip NodeID, rangeOf func(NodeID) Range) (int, NodeID, bool) {
	for i, s := range children {
		if s == skip {
			continue
		}
		sr := rangeOf(s)
		if sr.End() <= r.Offset {
			continue
		}
		if r.End() <= sr.Offset {
			return i, NoNode, true
		}
		return 0, s, false
	}
	return len(children), NoNode, true
}

func (t *Tree) rangeOf(id NodeID) Range {
	return t.nodes[id].rng
}

// Attach adds child as a child of parent.
//
// The child must be detached and its range defined. A fixed parent must cover
// the child, and the child must not overlap any sibling. An unfixed parent
// grows to the union of its children, which propagates up through unfixed
// ancestors. On error the tree is left unchanged.
func (t *Tree) Attach(parent, child NodeID) error {
	if !t.valid(parent) || !t.valid(child) {
		return &StructuralError{Node: child, Other: parent, Range: buffer.Undefined, Err: ErrUnknownNode}
	}
	if child == t.root || child == parent {
		return t.structural(child, t.nodes[child].rng, parent, ErrAttached)
	}
	if err := t.sealed(parent); err != nil {
		return err
	}
	if err := t.sealed(child); err != nil {
		return err
	}
	c := &t.nodes[child]
	if c.parent != NoNode || t.isAncestor(child, parent) {
		return t.structural(child, c.rng, parent, ErrAttached)
	}

	p := &t.nodes[parent]
	if c.unfixed() && len(c.children) == 0 {
		c.rng = placeholder(p.rng)
	}
	switch {
	case c.rng.IsUndefined():
		return t.structural(child, c.rng, NoNode, ErrUndefinedRange)
	case c.rng.IsDeleted():
		return t.structural(child, c.rng, NoNode, ErrDeletedRange)
	}
	if !p.unfixed() && !p.rng.Covers(c.rng) {
		return t.structural(child, c.rng, parent, ErrNotCovered)
	}

	idx, other, ok := insertionIndex(p.children, c.rng, NoNode, t.rangeOf)
	if !ok {
		return t.structural(child, c.rng, other, ErrOverlap)
	}
	p.children = slices.Insert(p.children, idx, child)
	c.parent = parent
	t.markAdded(child)

	if p.unfixed() {
		if err := t.regrow(parent); err != nil {
			t.unlink(child)
			t.markUnconnected(child)
			return err
		}
	}
	return nil
}

// placeholder returns the range of an empty unfixed composite under a parent.
func placeholder(parent Range) Range {
	if parent.IsReal() {
		return buffer.NewRange(parent.Offset, 0)
	}
	return buffer.NewRange(0, 0)
}

func (t *Tree) markAdded(id NodeID) {
	t.nodes[id].state = StateAdded
	for _, c := range t.nodes[id].children {
		t.markAdded(c)
	}
}

// markUnconnected resets the root of a detached subtree. Its descendants stay
// Added because they remain attached to it.
func (t *Tree) markUnconnected(id NodeID) {
	t.nodes[id].state = StateUnconnected
}

// unlink removes id from its parent's child list.
func (t *Tree) unlink(id NodeID) {
	p := t.nodes[id].parent
	if p == NoNode {
		return
	}
	pn := &t.nodes[p]
	if i := slices.Index(pn.children, id); i >= 0 {
		pn.children = slices.Delete(pn.children, i, i+1)
	}
	t.nodes[id].parent = NoNode
}

// childUnion returns the union of the children's ranges.
func (t *Tree) childUnion(id NodeID) Range {
	u := buffer.Undefined
	for _, c := range t.nodes[id].children {
		u = u.Union(t.nodes[c].rng)
	}
	return u
}

type regrowStep struct {
	id     NodeID
	rng    Range
	parent NodeID
	index  int
}

// regrow recomputes the range of an unfixed composite and its unfixed
// ancestors after a child change, re-sorting each grown node among its
// siblings. All changes are reverted on error.
func (t *Tree) regrow(id NodeID) error {
	var steps []regrowStep
	restore := func() {
		for i := len(steps) - 1; i >= 0; i-- {
			s := steps[i]
			t.nodes[s.id].rng = s.rng
			if s.parent == NoNode {
				continue
			}
			pn := &t.nodes[s.parent]
			if j := slices.Index(pn.children, s.id); j >= 0 {
				pn.children = slices.Delete(pn.children, j, j+1)
			}
			pn.children = slices.Insert(pn.children, s.index, s.id)
		}
	}

	for cur := id; ; {
		n := &t.nodes[cur]
		if !n.unfixed() {
			return nil
		}
		grown := t.childUnion(cur)
		if !grown.IsReal() || grown == n.rng {
			return nil
		}
		par := n.parent
		step := regrowStep{id: cur, rng: n.rng, parent: par}
		if par != NoNode {
			step.index = slices.Index(t.nodes[par].children, cur)
		}
		steps = append(steps, step)
		n.rng = grown
		if par == NoNode {
			return nil
		}

		pn := &t.nodes[par]
		if !pn.unfixed() && !pn.rng.Covers(grown) {
			restore()
			return t.structural(cur, grown, par, ErrNotCovered)
		}
		pn.children = slices.Delete(pn.children, step.index, step.index+1)
		idx, other, ok := insertionIndex(pn.children, grown, NoNode, t.rangeOf)
		if !ok {
			pn.children = slices.Insert(pn.children, step.index, cur)
			restore()
			return t.structural(cur, grown, other, ErrOverlap)
		}
		pn.children = slices.Insert(pn.children, idx, cur)
		cur = par
	}
}

// Detach removes a node and its subtree from its parent. The subtree keeps
// its nodes and links and may be attached again.
func (t *Tree) Detach(id NodeID) error {
	if !t.valid(id) {
		return &StructuralError{Node: id, Other: NoNode, Range: buffer.Undefined, Err: ErrUnknownNode}
	}
	if err := t.sealed(id); err != nil {
		return err
	}
	p := t.nodes[id].parent
	if p == NoNode {
		return nil
	}
	t.unlink(id)
	t.markUnconnected(id)
	if t.nodes[p].unfixed() {
		if len(t.nodes[p].children) == 0 {
			return t.hollow(p)
		}
		return t.regrow(p)
	}
	return nil
}

// hollow resets an unfixed composite left without children. A root goes back
// to an undefined range; any other node becomes a zero-length range at its
// parent's offset and is re-sorted among its siblings.
func (t *Tree) hollow(id NodeID) error {
	n := &t.nodes[id]
	par := n.parent
	if par == NoNode {
		n.rng = buffer.Undefined
		return nil
	}

	pn := &t.nodes[par]
	n.rng = placeholder(pn.rng)
	if i := slices.Index(pn.children, id); i >= 0 {
		pn.children = slices.Delete(pn.children, i, i+1)
	}
	idx, other, ok := insertionIndex(pn.children, n.rng, NoNode, t.rangeOf)
	if !ok {
		return t.structural(id, n.rng, other, ErrOverlap)
	}
	pn.children = slices.Insert(pn.children, idx, id)
	if pn.unfixed() {
		return t.regrow(par)
	}
	return nil
}

// Link pairs a copy or move source with its target. Relinking a source to a
// new target leaves the previous target pointing at the source, which
// validation reports as a mismatch.
func (t *Tree) Link(source, target NodeID) error {
	if !t.valid(source) || !t.valid(target) {
		return &StructuralError{Node: source, Other: target, Range: buffer.Undefined, Err: ErrUnknownNode}
	}
	s, g := &t.nodes[source], &t.nodes[target]
	if !s.kind.IsSource() || !s.kind.pairsWith(g.kind) {
		return t.structural(source, s.rng, target, ErrLinkKind)
	}
	if err := t.sealed(source); err != nil {
		return err
	}
	if err := t.sealed(target); err != nil {
		return err
	}
	s.partner = target
	g.partner = source
	return nil
}

package edit

import (
	"slices"

	"github.com/dshills/rewrite/internal/engine/buffer"
)

// layout holds the ranges and child orders computed by a validation pass.
type layout struct {
	ranges map[NodeID]Range
	order  map[NodeID][]NodeID
}

// Validate checks the attached tree against a document of docLen bytes.
// On success every attached node becomes Connected and unfixed composites
// take their derived ranges. On error the tree is left unchanged.
func (t *Tree) Validate(docLen ByteOffset) error {
	return t.validate(docLen, true)
}

// Check runs the same checks as Validate without modifying the tree.
func (t *Tree) Check(docLen ByteOffset) error {
	return t.validate(docLen, false)
}

// Extent returns the range the root covers once composite ranges are
// derived. It does not modify the tree.
func (t *Tree) Extent() Range {
	return t.derive(t.reachable()).ranges[t.root]
}

func (t *Tree) validate(docLen ByteOffset, commit bool) error {
	ids := t.reachable()
	lay := t.derive(ids)

	in := make(map[NodeID]bool, len(ids))
	for _, id := range ids {
		in[id] = true
	}

	// Children before parents, so the innermost failure is reported.
	for i := len(ids) - 1; i >= 0; i-- {
		if err := t.checkNode(ids[i], lay, in, docLen); err != nil {
			return err
		}
	}

	if !commit {
		return nil
	}
	for _, id := range ids {
		n := &t.nodes[id]
		if n.unfixed() {
			n.rng = lay.ranges[id]
		}
		if order, ok := lay.order[id]; ok {
			n.children = order
		}
		n.state = StateConnected
	}
	t.pairs = nil
	return nil
}

// derive computes the range of every unfixed composite from its children.
// Composites with no text-bearing descendants are placed as insertion points
// at their parent's offset, or at 0 under a parent without a range.
func (t *Tree) derive(ids []NodeID) *layout {
	lay := &layout{
		ranges: make(map[NodeID]Range, len(ids)),
		order:  make(map[NodeID][]NodeID),
	}
	hollow := make(map[NodeID]bool)

	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		n := &t.nodes[id]
		if !n.unfixed() {
			lay.ranges[id] = n.rng
			continue
		}
		u := buffer.Undefined
		for _, c := range n.children {
			if !hollow[c] {
				u = u.Union(lay.ranges[c])
			}
		}
		if !u.IsReal() {
			hollow[id] = true
			continue
		}
		lay.ranges[id] = u
	}

	for _, id := range ids {
		if !hollow[id] {
			continue
		}
		parent := t.nodes[id].parent
		if parent == NoNode {
			lay.ranges[id] = buffer.NewRange(0, 0)
			continue
		}
		lay.ranges[id] = placeholder(lay.ranges[parent])
	}
	return lay
}

func (t *Tree) checkNode(id NodeID, lay *layout, in map[NodeID]bool, docLen ByteOffset) error {
	n := &t.nodes[id]
	r := lay.ranges[id]

	switch {
	case n.state == StatePerformed:
		return t.structural(id, r, NoNode, ErrPerformed)
	case r.IsUndefined():
		return t.structural(id, r, NoNode, ErrUndefinedRange)
	case r.IsDeleted():
		return t.structural(id, r, NoNode, ErrDeletedRange)
	case !r.Within(docLen):
		return t.structural(id, r, NoNode, ErrOutOfBounds)
	case n.kind.IsTarget() && r.Length != 0:
		return t.structural(id, r, NoNode, ErrTargetLength)
	}

	if p := n.parent; p != NoNode {
		pr := lay.ranges[p]
		covered := pr.Covers(r)
		if t.nodes[p].unfixed() {
			covered = pr.ContainsRange(r)
		}
		if !covered {
			return t.structural(id, r, p, ErrNotCovered)
		}
	}

	if len(n.children) > 0 {
		rangeOf := func(c NodeID) Range { return lay.ranges[c] }
		order := make([]NodeID, 0, len(n.children))
		for _, c := range n.children {
			idx, other, ok := insertionIndex(order, lay.ranges[c], NoNode, rangeOf)
			if !ok {
				return t.structural(c, lay.ranges[c], other, ErrOverlap)
			}
			order = slices.Insert(order, idx, c)
		}
		lay.order[id] = order
	}

	if n.kind.IsLinked() {
		q := n.partner
		if q == NoNode || !in[q] {
			return t.structural(id, r, q, ErrUnlinked)
		}
		if !n.kind.pairsWith(t.nodes[q].kind) || t.nodes[q].partner != id {
			return t.structural(id, r, q, ErrLinkMismatch)
		}
		if n.kind.IsSource() && t.isAncestor(id, q) {
			return t.structural(id, r, q, ErrLinkCycle)
		}
	}
	return nil
}

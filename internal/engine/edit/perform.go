package edit

import (
	"slices"

	"github.com/dshills/rewrite/internal/engine/buffer"
)

// Mutation describes one change written to the document.
type Mutation struct {
	Node    NodeID // node whose range covers the change
	Active  NodeID // node being executed when the change was written
	Kind    Kind   // kind of Node
	Offset  ByteOffset
	OldText string
	NewText string
}

// Observer is notified while trees execute. Mutations that leave the text
// unchanged are not reported.
type Observer interface {
	// Enter is called before a node's own effect, after its children ran.
	Enter(id NodeID, kind Kind)
	// Observe is called after each change to the document.
	Observe(m Mutation)
	// Leave is called once the node is performed.
	Leave(id NodeID, kind Kind)
}

// Order sorts connected trees by the position of their roots. Roots that
// are insertion points at the same offset keep their relative order.
func Order(trees []*Tree) ([]*Tree, error) {
	ordered := make([]*Tree, 0, len(trees))
	rangeOf := func(i NodeID) Range {
		o := ordered[i]
		return o.nodes[o.root].rng
	}
	for _, t := range trees {
		r := t.nodes[t.root].rng
		idxs := make([]NodeID, len(ordered))
		for i := range idxs {
			idxs[i] = NodeID(i)
		}
		idx, other, ok := insertionIndex(idxs, r, NoNode, rangeOf)
		if !ok {
			o := ordered[other]
			return nil, &StructuralError{
				Node:  t.root,
				Kind:  KindComposite,
				Range: r,
				Other: o.root,
				Err:   ErrOverlap,
			}
		}
		ordered = slices.Insert(ordered, idx, t)
	}
	return ordered, nil
}

// Perform executes connected trees against doc. Trees run from the last in
// document order to the first; inside a tree, children run from last to
// first before their parent. After a node changes the text every other live
// range is adjusted, so all ranges stay valid for the current document.
//
// Perform stops at the first buffer error. Changes already written stay in
// the document and have been reported to obs.
func Perform(doc buffer.Document, obs Observer, trees ...*Tree) error {
	for _, t := range trees {
		root := &t.nodes[t.root]
		switch root.state {
		case StateConnected:
		case StatePerformed:
			return t.structural(t.root, root.rng, NoNode, ErrPerformed)
		default:
			return t.structural(t.root, root.rng, NoNode, ErrNotConnected)
		}
	}

	ordered, err := Order(trees)
	if err != nil {
		return err
	}

	x := &executor{doc: doc, obs: obs, trees: ordered}
	for i := len(ordered) - 1; i >= 0; i-- {
		x.cur = i
		if err := x.run(ordered[i], ordered[i].root); err != nil {
			return err
		}
	}
	return nil
}

// executor is the only writer of node ranges during a perform call.
type executor struct {
	doc   buffer.Document
	obs   Observer
	trees []*Tree
	cur   int
}

func (x *executor) run(t *Tree, id NodeID) error {
	kids := slices.Clone(t.nodes[id].children)
	for i := len(kids) - 1; i >= 0; i-- {
		if err := x.run(t, kids[i]); err != nil {
			return err
		}
	}
	return x.perform(t, id)
}

func (x *executor) perform(t *Tree, id NodeID) error {
	n := &t.nodes[id]
	if x.obs != nil {
		x.obs.Enter(id, n.kind)
	}

	var err error
	switch n.kind {
	case KindInsert, KindReplace, KindDelete:
		if n.rng.IsReal() {
			err = x.replace(t, id, id, n.rng.Offset, n.rng.Length, n.text, n.kind.dropsChildren())
		}
	case KindCopySource, KindCopyTarget, KindMoveSource, KindMoveTarget:
		err = x.advance(t, id)
	}
	if err != nil {
		return err
	}

	n.state = StatePerformed
	if x.obs != nil {
		x.obs.Leave(id, n.kind)
	}
	return nil
}

func (x *executor) fail(t *Tree, id NodeID, err error) error {
	n := &t.nodes[id]
	return &ExecError{Node: id, Kind: n.kind, Range: n.rng, Err: err}
}

// replace is the single place where the document is written.
func (x *executor) replace(t *Tree, active, owner NodeID, off, length ByteOffset, text string, drop bool) error {
	old, err := x.doc.Slice(off, length)
	if err != nil {
		return x.fail(t, active, err)
	}
	if err := x.doc.Replace(off, length, text); err != nil {
		return x.fail(t, active, err)
	}
	if x.obs != nil && old != text {
		x.obs.Observe(Mutation{
			Node:    owner,
			Active:  active,
			Kind:    t.nodes[owner].kind,
			Offset:  off,
			OldText: old,
			NewText: text,
		})
	}
	x.propagate(t, owner, off, length, ByteOffset(len(text)), drop)
	return nil
}

// propagate updates ranges after owner's span [off, off+oldLen) became
// newLen bytes long. Ancestors grow or shrink, descendants are marked
// Deleted when drop is set, and nodes after owner shift.
func (x *executor) propagate(t *Tree, owner NodeID, off, oldLen, newLen ByteOffset, drop bool) {
	delta := newLen - oldLen
	t.nodes[owner].rng = buffer.NewRange(off, newLen)

	if delta != 0 {
		for _, later := range x.trees[x.cur+1:] {
			later.shift(delta)
		}
	}
	if drop {
		for _, c := range t.nodes[owner].children {
			t.drop(c)
		}
	}
	if delta == 0 {
		return
	}

	for cur := owner; t.nodes[cur].parent != NoNode; {
		par := t.nodes[cur].parent
		pn := &t.nodes[par]
		if pn.live() && pn.rng.IsReal() {
			pn.rng.Length += delta
		}
		kids := pn.children
		for _, s := range kids[slices.Index(kids, cur)+1:] {
			t.offsetSubtree(s, delta)
		}
		cur = par
	}
}

// drop marks id and its descendants Deleted.
func (t *Tree) drop(id NodeID) {
	n := &t.nodes[id]
	if n.live() && n.rng.IsReal() {
		n.rng = buffer.Deleted
	}
	for _, c := range n.children {
		t.drop(c)
	}
}

// offsetSubtree moves the live ranges of id and its descendants by delta.
func (t *Tree) offsetSubtree(id NodeID, delta ByteOffset) {
	n := &t.nodes[id]
	if n.live() && n.rng.IsReal() {
		n.rng.Offset += delta
	}
	for _, c := range n.children {
		t.offsetSubtree(c, delta)
	}
}

// shift moves every live range of the tree by delta.
func (t *Tree) shift(delta ByteOffset) {
	for i := range t.nodes {
		n := &t.nodes[i]
		if n.live() {
			n.rng = n.rng.Shift(delta)
		}
	}
}

// advance executes one half of a copy or move pair. The first half to run
// only records progress; the second writes the text.
func (x *executor) advance(t *Tree, id NodeID) error {
	n := &t.nodes[id]
	src, tgt := id, n.partner
	if n.kind.IsTarget() {
		src, tgt = n.partner, id
	}

	p := t.pairOf(src)
	if id == src && n.rng.IsReal() {
		content, err := x.doc.Slice(n.rng.Offset, n.rng.Length)
		if err != nil {
			return x.fail(t, id, err)
		}
		p.content = content
	}

	if p.state == LinkPending {
		p.state = LinkOneSideDone
		return nil
	}

	p.mode = ModeDelete
	if id == tgt {
		p.mode = ModeInsert
	}

	var err error
	if t.nodes[src].kind == KindMoveSource {
		err = x.commitMove(t, id, src, tgt, p.content)
	} else {
		err = x.commitCopy(t, id, tgt, p.content)
	}
	p.content = ""
	if err != nil {
		return err
	}
	p.state = LinkCommitted
	return nil
}

func (x *executor) commitCopy(t *Tree, active, tgt NodeID, content string) error {
	tr := t.nodes[tgt].rng
	if !tr.IsReal() {
		return nil
	}
	return x.replace(t, active, tgt, tr.Offset, 0, content, false)
}

// commitMove removes the source text and inserts it at the target. The
// source's children are re-parented under the target, keeping their offsets
// relative to the moved text.
func (x *executor) commitMove(t *Tree, active, src, tgt NodeID, content string) error {
	sr := t.nodes[src].rng
	rel := make(map[NodeID]ByteOffset)
	if sr.IsReal() {
		t.walk(src, 0, func(d NodeID, _ int) bool {
			if d != src && t.nodes[d].rng.IsReal() {
				rel[d] = t.nodes[d].rng.Offset - sr.Offset
			}
			return true
		})
		if sr.Length > 0 {
			if err := x.replace(t, active, src, sr.Offset, sr.Length, "", false); err != nil {
				return err
			}
		}
	}

	tr := t.nodes[tgt].rng
	if !tr.IsReal() {
		t.walk(src, 0, func(d NodeID, _ int) bool {
			if d != src {
				t.nodes[d].rng = buffer.Deleted
			}
			return true
		})
		return nil
	}

	kids := t.nodes[src].children
	t.nodes[src].children = nil
	for _, c := range kids {
		t.nodes[c].parent = tgt
	}
	t.nodes[tgt].children = append(t.nodes[tgt].children, kids...)
	for d, off := range rel {
		t.nodes[d].rng.Offset = tr.Offset + off
	}

	return x.replace(t, active, tgt, tr.Offset, 0, content, false)
}

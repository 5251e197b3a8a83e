package edit

import (
	"slices"

	"github.com/dshills/rewrite/internal/engine/buffer"
)

// Copier duplicates subtrees of a Tree into fresh trees.
//
// Copying happens in two passes. The first clones every node of the subtree
// and records the mapping from original to copy. The second rewrites partner
// links: a pair with both halves inside the subtree is linked between the
// copies, while a half whose partner lies outside is left unlinked.
type Copier struct {
	src     *Tree
	mapping map[NodeID]NodeID
}

// NewCopier creates a copier reading from src.
func NewCopier(src *Tree) *Copier {
	return &Copier{src: src}
}

// Copy clones the subtree rooted at from. Copying the root yields a tree of
// the same shape; copying any other node yields a tree whose unfixed root
// holds the copy as its only child. Copies are Added, never Connected, and
// keep the ranges of the originals.
func (c *Copier) Copy(from NodeID) (*Tree, error) {
	if !c.src.valid(from) {
		return nil, &StructuralError{Node: from, Other: NoNode, Range: buffer.Undefined, Err: ErrUnknownNode}
	}
	c.mapping = make(map[NodeID]NodeID)

	dst := &Tree{}
	if from == c.src.root {
		dst.root = c.clone(dst, from, NoNode)
	} else {
		dst.root = dst.NewComposite()
		top := c.clone(dst, from, dst.root)
		dst.nodes[dst.root].children = []NodeID{top}
		dst.nodes[dst.root].rng = dst.nodes[top].rng
	}
	dst.nodes[dst.root].state = StateAdded

	c.relink(dst)
	return dst, nil
}

// Lookup returns the copy of an original node from the last Copy call.
func (c *Copier) Lookup(orig NodeID) (NodeID, bool) {
	id, ok := c.mapping[orig]
	return id, ok
}

func (c *Copier) clone(dst *Tree, id, parent NodeID) NodeID {
	orig := &c.src.nodes[id]
	dst.nodes = append(dst.nodes, node{
		kind:    orig.kind,
		rng:     orig.rng,
		fixed:   orig.fixed,
		text:    orig.text,
		parent:  parent,
		partner: NoNode,
		state:   StateAdded,
	})
	cp := NodeID(len(dst.nodes) - 1)
	c.mapping[id] = cp

	kids := make([]NodeID, 0, len(orig.children))
	for _, k := range orig.children {
		kids = append(kids, c.clone(dst, k, cp))
	}
	dst.nodes[cp].children = kids
	return cp
}

func (c *Copier) relink(dst *Tree) {
	origs := make([]NodeID, 0, len(c.mapping))
	for o := range c.mapping {
		origs = append(origs, o)
	}
	slices.Sort(origs)

	for _, o := range origs {
		q := c.src.nodes[o].partner
		if q == NoNode {
			continue
		}
		if qc, ok := c.mapping[q]; ok {
			dst.nodes[c.mapping[o]].partner = qc
		}
	}
}

// Clone returns a deep copy of the nodes reachable from the root.
func (t *Tree) Clone() *Tree {
	cp, _ := NewCopier(t).Copy(t.root)
	return cp
}

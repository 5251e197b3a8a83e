package edit

import "fmt"

// LinkState tracks how far a copy or move pair has progressed.
type LinkState uint8

const (
	LinkPending     LinkState = iota // neither half executed
	LinkOneSideDone                  // one half executed, nothing written
	LinkCommitted                    // both halves executed, text written
)

// String returns the name of the link state.
func (s LinkState) String() string {
	switch s {
	case LinkPending:
		return "pending"
	case LinkOneSideDone:
		return "one-side-done"
	case LinkCommitted:
		return "committed"
	default:
		return fmt.Sprintf("link(%d)", uint8(s))
	}
}

// Mode records which half of a pair committed it.
type Mode uint8

const (
	ModeNone   Mode = iota
	ModeInsert      // target executed second
	ModeDelete      // source executed second
)

// String returns the name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeInsert:
		return "insert"
	case ModeDelete:
		return "delete"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// pair is the shared execution state of a source and its target.
type pair struct {
	state   LinkState
	mode    Mode
	content string
}

// LinkState returns the execution state of the pair a node belongs to.
// Nodes outside a pair, and pairs that have not started executing, report
// LinkPending and ModeNone.
func (t *Tree) LinkState(id NodeID) (LinkState, Mode) {
	if !t.valid(id) || !t.nodes[id].kind.IsLinked() {
		return LinkPending, ModeNone
	}
	src := id
	if t.nodes[id].kind.IsTarget() {
		src = t.nodes[id].partner
	}
	p, ok := t.pairs[src]
	if !ok {
		return LinkPending, ModeNone
	}
	return p.state, p.mode
}

// pairOf returns the shared state for the pair containing id, creating it on
// first use.
func (t *Tree) pairOf(src NodeID) *pair {
	if t.pairs == nil {
		t.pairs = make(map[NodeID]*pair)
	}
	p, ok := t.pairs[src]
	if !ok {
		p = &pair{}
		t.pairs[src] = p
	}
	return p
}

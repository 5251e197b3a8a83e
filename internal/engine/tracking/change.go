package tracking

import (
	"fmt"
	"strings"

	"github.com/dshills/rewrite/internal/engine/buffer"
	"github.com/dshills/rewrite/internal/engine/edit"
)

// ChangeType categorizes the type of a change.
type ChangeType uint8

const (
	// ChangeInsert indicates text was inserted (OldText is empty).
	ChangeInsert ChangeType = iota

	// ChangeDelete indicates text was deleted (NewText is empty).
	ChangeDelete

	// ChangeReplace indicates text was replaced (both OldText and NewText present).
	ChangeReplace
)

// String returns a human-readable representation of the change type.
func (ct ChangeType) String() string {
	switch ct {
	case ChangeInsert:
		return "insert"
	case ChangeDelete:
		return "delete"
	case ChangeReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Change is one document mutation observed during a perform call.
type Change struct {
	Type ChangeType

	// Range is the affected range in the text before the change.
	Range buffer.Range

	// NewRange is the affected range in the text after the change.
	NewRange buffer.Range

	OldText string
	NewText string

	// Node is the edit whose range covers the change; Active is the edit
	// that was executing. They differ when a copy or move commits.
	Node   edit.NodeID
	Active edit.NodeID
	Kind   edit.Kind
}

// NewChange converts an observed mutation into a Change.
func NewChange(m edit.Mutation) Change {
	c := Change{
		Range:    buffer.NewRange(m.Offset, buffer.ByteOffset(len(m.OldText))),
		NewRange: buffer.NewRange(m.Offset, buffer.ByteOffset(len(m.NewText))),
		OldText:  m.OldText,
		NewText:  m.NewText,
		Node:     m.Node,
		Active:   m.Active,
		Kind:     m.Kind,
	}
	switch {
	case m.OldText == "":
		c.Type = ChangeInsert
	case m.NewText == "":
		c.Type = ChangeDelete
	default:
		c.Type = ChangeReplace
	}
	return c
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// String returns a human-readable representation of the change.
func (c Change) String() string {
	switch c.Type {
	case ChangeInsert:
		return fmt.Sprintf("Insert %q at %d", clip(c.NewText, 20), c.Range.Offset)
	case ChangeDelete:
		return fmt.Sprintf("Delete %q at %v", clip(c.OldText, 20), c.Range)
	case ChangeReplace:
		return fmt.Sprintf("Replace %q with %q at %v", clip(c.OldText, 10), clip(c.NewText, 10), c.Range)
	default:
		return "Unknown change"
	}
}

// Delta returns the byte delta of this change.
// Positive means the buffer grew, negative means it shrank.
func (c Change) Delta() int64 {
	return int64(len(c.NewText)) - int64(len(c.OldText))
}

// Summarize returns a human-readable summary of a list of changes.
func Summarize(changes []Change) string {
	if len(changes) == 0 {
		return "no changes"
	}

	var inserts, deletes, replaces int
	var insertedBytes, deletedBytes int64

	for _, c := range changes {
		switch c.Type {
		case ChangeInsert:
			inserts++
			insertedBytes += int64(len(c.NewText))
		case ChangeDelete:
			deletes++
			deletedBytes += int64(len(c.OldText))
		case ChangeReplace:
			replaces++
			insertedBytes += int64(len(c.NewText))
			deletedBytes += int64(len(c.OldText))
		}
	}

	var parts []string
	if inserts > 0 {
		parts = append(parts, fmt.Sprintf("%d inserts (+%d bytes)", inserts, insertedBytes))
	}
	if deletes > 0 {
		parts = append(parts, fmt.Sprintf("%d deletes (-%d bytes)", deletes, deletedBytes))
	}
	if replaces > 0 {
		parts = append(parts, fmt.Sprintf("%d replaces", replaces))
	}

	return strings.Join(parts, ", ")
}

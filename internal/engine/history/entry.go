package history

import (
	"fmt"

	"github.com/dshills/rewrite/internal/engine/buffer"
)

// ByteOffset is an alias for buffer.ByteOffset for convenience.
type ByteOffset = buffer.ByteOffset

// Range is an alias for buffer.Range for convenience.
type Range = buffer.Range

// EntryKind classifies an entry by its effect.
type EntryKind uint8

const (
	EntryNoop EntryKind = iota
	EntryInsert
	EntryDelete
	EntryReplace
)

// String returns the name of the entry kind.
func (k EntryKind) String() string {
	switch k {
	case EntryNoop:
		return "noop"
	case EntryInsert:
		return "insert"
	case EntryDelete:
		return "delete"
	case EntryReplace:
		return "replace"
	default:
		return fmt.Sprintf("entry(%d)", uint8(k))
	}
}

// Entry is a primitive replacement: the Length bytes at Offset become Text.
type Entry struct {
	Offset ByteOffset
	Length ByteOffset
	Text   string
}

// NewInsertEntry creates an entry inserting text at offset.
func NewInsertEntry(offset ByteOffset, text string) Entry {
	return Entry{Offset: offset, Text: text}
}

// NewDeleteEntry creates an entry removing length bytes at offset.
func NewDeleteEntry(offset, length ByteOffset) Entry {
	return Entry{Offset: offset, Length: length}
}

// NewReplaceEntry creates an entry replacing length bytes at offset with text.
func NewReplaceEntry(offset, length ByteOffset, text string) Entry {
	return Entry{Offset: offset, Length: length, Text: text}
}

// Inverse returns the entry that reverts a replacement of oldText at offset
// by newText.
func Inverse(offset ByteOffset, oldText, newText string) Entry {
	return Entry{
		Offset: offset,
		Length: ByteOffset(len(newText)),
		Text:   oldText,
	}
}

// Kind classifies the entry.
func (e Entry) Kind() EntryKind {
	switch {
	case e.Length == 0 && e.Text == "":
		return EntryNoop
	case e.Length == 0:
		return EntryInsert
	case e.Text == "":
		return EntryDelete
	default:
		return EntryReplace
	}
}

// Range returns the span the entry replaces.
func (e Entry) Range() Range {
	return buffer.NewRange(e.Offset, e.Length)
}

// BytesDelta returns the change in document length caused by the entry.
func (e Entry) BytesDelta() int {
	return len(e.Text) - int(e.Length)
}

func (e Entry) String() string {
	switch e.Kind() {
	case EntryInsert:
		return fmt.Sprintf("insert %q at %d", e.Text, e.Offset)
	case EntryDelete:
		return fmt.Sprintf("delete %s", e.Range())
	case EntryReplace:
		return fmt.Sprintf("replace %s with %q", e.Range(), e.Text)
	default:
		return "noop"
	}
}

// apply performs the entry on doc and returns its inverse.
func (e Entry) apply(doc buffer.Document) (Entry, error) {
	old, err := doc.Slice(e.Offset, e.Length)
	if err != nil {
		return Entry{}, err
	}
	if err := doc.Replace(e.Offset, e.Length, e.Text); err != nil {
		return Entry{}, err
	}
	return Inverse(e.Offset, old, e.Text), nil
}

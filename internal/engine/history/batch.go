package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/rewrite/internal/engine/buffer"
	"github.com/google/uuid"
)

// Batch is an ordered list of entries applied front to back.
//
// Batches produced by a perform call hold the inverse of every change in
// reverse order, so applying one to the modified document restores the
// original text.
type Batch struct {
	ID        uuid.UUID
	Label     string
	Timestamp time.Time

	entries []Entry
}

// NewBatch creates an empty batch with a fresh ID.
func NewBatch(label string) *Batch {
	return &Batch{
		ID:        uuid.New(),
		Label:     label,
		Timestamp: time.Now(),
	}
}

// Prepend inserts an entry at the front of the batch.
func (b *Batch) Prepend(e Entry) {
	b.entries = append(b.entries, Entry{})
	copy(b.entries[1:], b.entries)
	b.entries[0] = e
}

// Append adds an entry at the back of the batch.
func (b *Batch) Append(e Entry) {
	b.entries = append(b.entries, e)
}

// Entries returns a copy of the entries in application order.
func (b *Batch) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of entries.
func (b *Batch) Len() int {
	return len(b.entries)
}

// IsEmpty returns true if the batch has no entries.
func (b *Batch) IsEmpty() bool {
	return len(b.entries) == 0
}

// BytesDelta returns the change in document length caused by applying the batch.
func (b *Batch) BytesDelta() int {
	total := 0
	for _, e := range b.entries {
		total += e.BytesDelta()
	}
	return total
}

func (b *Batch) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "batch %s", b.ID)
	if b.Label != "" {
		fmt.Fprintf(&sb, " (%s)", b.Label)
	}
	for i, e := range b.entries {
		fmt.Fprintf(&sb, "\n  %d: %s", i, e)
	}
	return sb.String()
}

// Apply performs the entries on doc front to back and returns the batch that
// reverts them. On failure the entries applied so far stay applied, and the
// returned batch reverts exactly those.
func (b *Batch) Apply(doc buffer.Document) (*Batch, error) {
	inv := NewBatch(b.Label)
	for i, e := range b.entries {
		undo, err := e.apply(doc)
		if err != nil {
			return inv, &ApplyError{Index: i, Entry: e, Err: err}
		}
		inv.Prepend(undo)
	}
	return inv, nil
}

// Concat joins batches applied in sequence into one undo unit. The batches
// are given in the order they were produced; the result reverts the latest
// one first.
func Concat(label string, batches ...*Batch) *Batch {
	out := NewBatch(label)
	for i := len(batches) - 1; i >= 0; i-- {
		out.entries = append(out.entries, batches[i].entries...)
	}
	return out
}

// ApplyError reports the entry that could not be applied.
type ApplyError struct {
	Index int
	Entry Entry
	Err   error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("apply entry %d (%s): %v", e.Index, e.Entry, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

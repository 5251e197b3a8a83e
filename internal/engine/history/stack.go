package history

import (
	"errors"
	"sync"

	"github.com/dshills/rewrite/internal/engine/buffer"
	"github.com/google/uuid"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultMaxEntries is used when a stack is created with a non-positive limit.
const DefaultMaxEntries = 1000

// Stack manages undo and redo batches for one document.
type Stack struct {
	mu sync.Mutex

	undoStack []*Batch
	redoStack []*Batch

	// Grouping state
	grouping   bool
	groupLabel string
	groupBatch []*Batch

	maxEntries int
}

// NewStack creates a stack keeping at most maxEntries undo batches.
func NewStack(maxEntries int) *Stack {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Stack{
		maxEntries: maxEntries,
	}
}

// Push records the undo batch of a completed change and clears the redo
// stack. Empty batches are ignored.
func (s *Stack) Push(b *Batch) {
	if b == nil || b.IsEmpty() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grouping {
		s.groupBatch = append(s.groupBatch, b)
		return
	}
	s.pushLocked(b)
}

func (s *Stack) pushLocked(b *Batch) {
	s.undoStack = append(s.undoStack, b)
	s.redoStack = nil

	if len(s.undoStack) > s.maxEntries {
		excess := len(s.undoStack) - s.maxEntries
		s.undoStack = s.undoStack[excess:]
	}
}

// Undo applies the most recent undo batch to doc and makes its inverse
// available to Redo. The lock is released while the document is modified.
func (s *Stack) Undo(doc buffer.Document) error {
	s.mu.Lock()
	if len(s.undoStack) == 0 {
		s.mu.Unlock()
		return ErrNothingToUndo
	}
	b := s.undoStack[len(s.undoStack)-1]
	s.undoStack = s.undoStack[:len(s.undoStack)-1]
	s.mu.Unlock()

	redo, err := b.Apply(doc)
	if err != nil {
		// Roll back the applied prefix.
		_, _ = redo.Apply(doc)
		s.mu.Lock()
		s.undoStack = append(s.undoStack, b)
		s.mu.Unlock()
		return err
	}
	redo.ID = b.ID

	s.mu.Lock()
	s.redoStack = append(s.redoStack, redo)
	s.mu.Unlock()
	return nil
}

// Redo re-applies the most recently undone change.
func (s *Stack) Redo(doc buffer.Document) error {
	s.mu.Lock()
	if len(s.redoStack) == 0 {
		s.mu.Unlock()
		return ErrNothingToRedo
	}
	b := s.redoStack[len(s.redoStack)-1]
	s.redoStack = s.redoStack[:len(s.redoStack)-1]
	s.mu.Unlock()

	undo, err := b.Apply(doc)
	if err != nil {
		_, _ = undo.Apply(doc)
		s.mu.Lock()
		s.redoStack = append(s.redoStack, b)
		s.mu.Unlock()
		return err
	}
	undo.ID = b.ID

	s.mu.Lock()
	s.undoStack = append(s.undoStack, undo)
	s.mu.Unlock()
	return nil
}

// CanUndo returns true if undo is available.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redoStack) > 0
}

// UndoCount returns the number of undo batches available.
func (s *Stack) UndoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undoStack)
}

// RedoCount returns the number of redo batches available.
func (s *Stack) RedoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redoStack)
}

// BeginGroup starts collecting pushed batches into a single undo unit.
// Nested calls are ignored.
func (s *Stack) BeginGroup(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grouping {
		return
	}
	s.grouping = true
	s.groupLabel = label
	s.groupBatch = nil
}

// EndGroup pushes the batches collected since BeginGroup as one batch.
func (s *Stack) EndGroup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.grouping {
		return
	}
	s.grouping = false

	if len(s.groupBatch) > 0 {
		s.pushLocked(Concat(s.groupLabel, s.groupBatch...))
	}
	s.groupBatch = nil
}

// CancelGroup drops the collected batches without recording them.
// The changes they describe remain in the document.
func (s *Stack) CancelGroup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.grouping = false
	s.groupBatch = nil
}

// IsGrouping returns true while a group is open.
func (s *Stack) IsGrouping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grouping
}

// Clear removes all undo and redo batches.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.undoStack = nil
	s.redoStack = nil
	s.grouping = false
	s.groupBatch = nil
}

// BatchInfo provides read-only info about a recorded batch.
type BatchInfo struct {
	ID         uuid.UUID
	Label      string
	Entries    int
	BytesDelta int // change in length if the batch is applied
}

func infoOf(b *Batch) BatchInfo {
	return BatchInfo{
		ID:         b.ID,
		Label:      b.Label,
		Entries:    b.Len(),
		BytesDelta: b.BytesDelta(),
	}
}

// UndoInfo returns info about available undo batches, oldest first.
func (s *Stack) UndoInfo() []BatchInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]BatchInfo, len(s.undoStack))
	for i, b := range s.undoStack {
		result[i] = infoOf(b)
	}
	return result
}

// PeekUndo returns the next undo batch without removing it.
func (s *Stack) PeekUndo() (*Batch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undoStack) == 0 {
		return nil, false
	}
	return s.undoStack[len(s.undoStack)-1], true
}

// SetMaxEntries changes the maximum number of undo batches.
// If the current stack is larger, the oldest batches are removed.
func (s *Stack) SetMaxEntries(max int) {
	if max <= 0 {
		max = DefaultMaxEntries
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.maxEntries = max
	if len(s.undoStack) > max {
		excess := len(s.undoStack) - max
		s.undoStack = s.undoStack[excess:]
	}
}

// MaxEntries returns the maximum number of undo batches.
func (s *Stack) MaxEntries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxEntries
}

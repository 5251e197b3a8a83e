package history

import "github.com/dshills/rewrite/internal/engine/buffer"

// GroupScope provides a convenient way to group batches using defer.
//
//	defer stack.GroupScope("rename").End()
type GroupScope struct {
	stack  *Stack
	active bool
}

// GroupScope starts a new group scope.
func (s *Stack) GroupScope(label string) *GroupScope {
	s.BeginGroup(label)
	return &GroupScope{stack: s, active: true}
}

// End ends the group scope. Only the first call has effect.
func (g *GroupScope) End() {
	if g.active {
		g.stack.EndGroup()
		g.active = false
	}
}

// Cancel cancels the group scope without recording a batch.
func (g *GroupScope) Cancel() {
	if g.active {
		g.stack.CancelGroup()
		g.active = false
	}
}

// Transaction runs fn inside a group. If fn fails the group is cancelled.
func (s *Stack) Transaction(label string, fn func() error) error {
	s.BeginGroup(label)

	if err := fn(); err != nil {
		s.CancelGroup()
		return err
	}

	s.EndGroup()
	return nil
}

// Checkpoint represents a point in history that can be returned to.
type Checkpoint struct {
	undoDepth int
}

// CreateCheckpoint creates a checkpoint at the current history position.
func (s *Stack) CreateCheckpoint() Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Checkpoint{undoDepth: len(s.undoStack)}
}

// UndoToCheckpoint undoes all batches recorded since the checkpoint.
func (s *Stack) UndoToCheckpoint(cp Checkpoint, doc buffer.Document) error {
	for s.UndoCount() > cp.undoDepth {
		if err := s.Undo(doc); err != nil {
			return err
		}
	}
	return nil
}

// RedoToCheckpoint redoes batches until the checkpoint depth is reached or
// nothing is left to redo.
func (s *Stack) RedoToCheckpoint(cp Checkpoint, doc buffer.Document) error {
	for s.UndoCount() < cp.undoDepth && s.CanRedo() {
		if err := s.Redo(doc); err != nil {
			return err
		}
	}
	return nil
}

package engine

import (
	"github.com/dshills/rewrite/internal/engine/buffer"
	"github.com/dshills/rewrite/internal/engine/edit"
	"github.com/dshills/rewrite/internal/engine/history"
	"github.com/dshills/rewrite/internal/engine/tracking"
	"github.com/dshills/rewrite/internal/logging"
	"github.com/sirupsen/logrus"
)

// Processor executes edit trees against one document.
//
// Trees are validated when they are added; a tree that fails validation is
// left untouched and nothing is written. Perform runs every added tree and
// returns the batch that reverts it. A processor is single use.
type Processor struct {
	doc       buffer.Document
	trees     []*edit.Tree
	observers []edit.Observer
	label     string
	log       logrus.FieldLogger
	done      bool
}

// NewProcessor creates a processor for doc.
func NewProcessor(doc buffer.Document, opts ...ProcessorOption) *Processor {
	p := &Processor{doc: doc}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logging.Discard()
	}
	p.log = logging.WithComponent(p.log, "processor")
	return p
}

// Add validates t against the document and connects it. Trees added to the
// same processor must not overlap each other.
func (p *Processor) Add(t *edit.Tree) error {
	if p.done {
		return ErrProcessorDone
	}
	if t == nil {
		return ErrNilTree
	}
	for _, o := range p.trees {
		if o == t {
			return ErrAlreadyAdded
		}
	}

	if err := check(p.doc.Len(), append(p.trees, t)...); err != nil {
		p.log.WithError(err).Debug("rejected edit tree")
		return err
	}
	if err := t.Validate(p.doc.Len()); err != nil {
		return err
	}
	p.trees = append(p.trees, t)

	p.log.WithFields(logrus.Fields{
		"nodes": t.Len(),
		"range": t.Range(t.Root()).String(),
	}).Debug("added edit tree")
	return nil
}

// CanPerform reports whether Perform would pass validation. It changes
// nothing.
func (p *Processor) CanPerform() bool {
	return p.Check() == nil
}

// Check returns the error Perform would fail validation with, or nil.
func (p *Processor) Check() error {
	if p.done {
		return ErrProcessorDone
	}
	return check(p.doc.Len(), p.trees...)
}

// Perform executes the added trees and returns the batch that reverts them.
// On a buffer failure the returned error is a *PerformError carrying the
// batch that reverts the changes already written.
func (p *Processor) Perform() (*history.Batch, error) {
	if err := p.Check(); err != nil {
		return nil, err
	}

	rec := tracking.NewRecorder(tracking.WithLabel(p.label))
	obs := append(fanout{rec, pairLog{p.log}}, p.observers...)

	err := edit.Perform(p.doc, obs, p.trees...)
	p.done = true
	p.trees = nil

	stats := rec.Stats()
	entry := p.log.WithFields(logrus.Fields{
		"steps":     stats.Steps,
		"mutations": stats.Mutations,
		"inserted":  stats.InsertedBytes,
		"deleted":   stats.DeletedBytes,
	})
	if err != nil {
		entry.WithError(err).Warn("perform aborted")
		return rec.Batch(), &PerformError{Err: err, Partial: rec.Batch()}
	}
	entry.Debug("performed edit trees")
	return rec.Batch(), nil
}

// Check reports whether the trees could be added to one processor for doc.
// It modifies neither the trees nor the document.
func Check(doc buffer.Document, trees ...*edit.Tree) error {
	for _, t := range trees {
		if t == nil {
			return ErrNilTree
		}
	}
	return check(doc.Len(), trees...)
}

func check(docLen buffer.ByteOffset, trees ...*edit.Tree) error {
	extents := make([]buffer.Range, len(trees))
	for i, t := range trees {
		if err := t.Check(docLen); err != nil {
			return err
		}
		extents[i] = t.Extent()
		for j := 0; j < i; j++ {
			if extents[i].Overlaps(extents[j]) {
				return &edit.StructuralError{
					Node:  t.Root(),
					Kind:  edit.KindComposite,
					Range: extents[i],
					Other: trees[j].Root(),
					Err:   edit.ErrOverlap,
				}
			}
		}
	}
	return nil
}

// fanout forwards execution events to several observers.
type fanout []edit.Observer

func (f fanout) Enter(id edit.NodeID, kind edit.Kind) {
	for _, o := range f {
		o.Enter(id, kind)
	}
}

func (f fanout) Observe(m edit.Mutation) {
	for _, o := range f {
		o.Observe(m)
	}
}

func (f fanout) Leave(id edit.NodeID, kind edit.Kind) {
	for _, o := range f {
		o.Leave(id, kind)
	}
}

// pairLog logs the writes made when a copy or move pair commits.
type pairLog struct {
	log logrus.FieldLogger
}

func (pairLog) Enter(edit.NodeID, edit.Kind) {}
func (pairLog) Leave(edit.NodeID, edit.Kind) {}

func (l pairLog) Observe(m edit.Mutation) {
	if !m.Kind.IsLinked() {
		return
	}
	l.log.WithFields(logrus.Fields{
		"node":     m.Node,
		"active":   m.Active,
		"kind":     m.Kind,
		"offset":   m.Offset,
		"removed":  len(m.OldText),
		"inserted": len(m.NewText),
	}).Debug("linked pair commit")
}

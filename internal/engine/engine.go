package engine

import (
	"errors"
	"io"
	"sync"

	"github.com/dshills/rewrite/internal/engine/buffer"
	"github.com/dshills/rewrite/internal/engine/edit"
	"github.com/dshills/rewrite/internal/engine/history"
	"github.com/dshills/rewrite/internal/logging"
	"github.com/sirupsen/logrus"
)

// Engine combines a buffer with undo history and executes edit trees
// against it. All methods are thread-safe.
type Engine struct {
	mu sync.RWMutex

	buf     *buffer.Buffer
	history *history.Stack
	log     logrus.FieldLogger

	observers []edit.Observer

	// Configuration
	initContent    string
	tabWidth       int
	lineEnding     buffer.LineEnding
	normalize      bool
	maxUndoEntries int
	readOnly       bool
}

// New creates a new engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{
		tabWidth:       DefaultTabWidth,
		lineEnding:     buffer.LineEndingLF,
		maxUndoEntries: DefaultMaxUndoEntries,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logging.Discard()
	}
	e.log = logging.WithComponent(e.log, "engine")

	e.buf = buffer.NewBufferFromString(e.initContent, e.bufferOptions()...)
	e.history = history.NewStack(e.maxUndoEntries)
	e.initContent = ""
	return e
}

// NewFromReader creates an engine with content read from r.
func NewFromReader(r io.Reader, opts ...Option) (*Engine, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return New(append(opts, WithContent(string(content)))...), nil
}

func (e *Engine) bufferOptions() []buffer.Option {
	opts := []buffer.Option{
		buffer.WithTabWidth(e.tabWidth),
		buffer.WithLineEnding(e.lineEnding),
	}
	if e.normalize {
		opts = append(opts, buffer.WithNormalizedLineEndings())
	}
	return opts
}

// ============================================================================
// Read Operations
// ============================================================================

// Text returns the full content.
func (e *Engine) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.Text()
}

// Len returns the content length in bytes.
func (e *Engine) Len() buffer.ByteOffset {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.Len()
}

// LineCount returns the number of lines.
func (e *Engine) LineCount() uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.LineCount()
}

// LineText returns the text of a line without its terminator.
func (e *Engine) LineText(line uint32) string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.LineText(line)
}

// Slice returns length bytes starting at offset.
func (e *Engine) Slice(offset, length buffer.ByteOffset) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.Slice(offset, length)
}

// OffsetToPoint converts a byte offset to a line/column point.
func (e *Engine) OffsetToPoint(offset buffer.ByteOffset) buffer.Point {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.OffsetToPoint(offset)
}

// PointToOffset converts a line/column point to a byte offset.
func (e *Engine) PointToOffset(p buffer.Point) buffer.ByteOffset {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.PointToOffset(p)
}

// LineOfOffset returns the line containing offset.
func (e *Engine) LineOfOffset(offset buffer.ByteOffset) (uint32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.LineOfOffset(offset)
}

// OffsetOfLine returns the offset of the first byte of line.
func (e *Engine) OffsetOfLine(line uint32) (buffer.ByteOffset, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.OffsetOfLine(line)
}

// DisplayColumn returns the 0-based visual column of offset within its
// line, with tabs expanded to the tab width.
func (e *Engine) DisplayColumn(offset buffer.ByteOffset) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.buf.DisplayColumn(offset)
}

// Revision returns the buffer revision. It increases on every change.
func (e *Engine) Revision() uint64 {
	return e.buf.Revision()
}

// TabWidth returns the configured tab width.
func (e *Engine) TabWidth() int {
	return e.tabWidth
}

// LineEnding returns the configured line ending style.
func (e *Engine) LineEnding() buffer.LineEnding {
	return e.lineEnding
}

// IsReadOnly reports whether the engine rejects writes.
func (e *Engine) IsReadOnly() bool {
	return e.readOnly
}

// Buffer returns the underlying buffer for read access. Writing to it
// directly bypasses undo history.
func (e *Engine) Buffer() *buffer.Buffer {
	return e.buf
}

// ============================================================================
// Edit Trees
// ============================================================================

// Check reports whether trees could be applied to the current content.
// Neither the trees nor the content are modified.
func (e *Engine) Check(trees ...*edit.Tree) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Check(e.buf, trees...)
}

// Apply validates and executes the trees as one undoable step.
// The returned batch reverts the step; it is also pushed onto the undo
// stack. If execution fails part way, the written changes are rolled back
// and the content is left as it was.
func (e *Engine) Apply(label string, trees ...*edit.Tree) (*history.Batch, error) {
	if e.readOnly {
		return nil, ErrReadOnly
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	opts := []ProcessorOption{WithLabel(label), WithProcessorLogger(e.log)}
	for _, obs := range e.observers {
		opts = append(opts, WithObserver(obs))
	}
	p := NewProcessor(e.buf, opts...)
	for _, t := range trees {
		if err := p.Add(t); err != nil {
			return nil, err
		}
	}

	batch, err := p.Perform()
	if err != nil {
		var perr *PerformError
		if errors.As(err, &perr) && perr.Partial != nil {
			if _, rerr := perr.Partial.Apply(e.buf); rerr != nil {
				e.log.WithError(rerr).Error("rollback failed")
				return nil, errors.Join(err, rerr)
			}
		}
		return nil, err
	}

	e.history.Push(batch)
	e.log.WithFields(logrus.Fields{
		"label":   label,
		"entries": batch.Len(),
		"delta":   batch.BytesDelta(),
	}).Debug("applied edit trees")
	return batch, nil
}

// SetContent replaces the entire content as one undoable step.
func (e *Engine) SetContent(content string) error {
	if e.readOnly {
		return ErrReadOnly
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	old := e.buf.Text()
	if old == content {
		return nil
	}
	if err := e.buf.Replace(0, e.buf.Len(), content); err != nil {
		return err
	}
	b := history.NewBatch("set content")
	b.Append(history.Inverse(0, old, content))
	e.history.Push(b)
	return nil
}

// ============================================================================
// Undo/Redo
// ============================================================================

// Undo reverts the most recent step.
func (e *Engine) Undo() error {
	if e.readOnly {
		return ErrReadOnly
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Undo(e.buf)
}

// Redo reapplies the most recently undone step.
func (e *Engine) Redo() error {
	if e.readOnly {
		return ErrReadOnly
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Redo(e.buf)
}

// CanUndo returns true if undo is available.
func (e *Engine) CanUndo() bool {
	return e.history.CanUndo()
}

// CanRedo returns true if redo is available.
func (e *Engine) CanRedo() bool {
	return e.history.CanRedo()
}

// UndoCount returns the number of steps that can be undone.
func (e *Engine) UndoCount() int {
	return e.history.UndoCount()
}

// RedoCount returns the number of steps that can be redone.
func (e *Engine) RedoCount() int {
	return e.history.RedoCount()
}

// BeginUndoGroup starts collecting applied steps into one undo step.
func (e *Engine) BeginUndoGroup(label string) {
	e.history.BeginGroup(label)
}

// EndUndoGroup closes the current undo group.
func (e *Engine) EndUndoGroup() {
	e.history.EndGroup()
}

// CancelUndoGroup discards the current group without recording it.
// Changes already applied remain in the content.
func (e *Engine) CancelUndoGroup() {
	e.history.CancelGroup()
}

// UndoInfo describes the recorded undo steps, oldest first.
func (e *Engine) UndoInfo() []history.BatchInfo {
	return e.history.UndoInfo()
}

// ClearHistory removes all undo and redo history.
func (e *Engine) ClearHistory() {
	e.history.Clear()
}

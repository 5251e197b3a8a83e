package engine

import (
	"github.com/dshills/rewrite/internal/engine/buffer"
	"github.com/dshills/rewrite/internal/engine/edit"
	"github.com/sirupsen/logrus"
)

// Default configuration values.
const (
	DefaultTabWidth       = 4
	DefaultMaxUndoEntries = 1000
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithContent sets the initial content of the engine.
func WithContent(content string) Option {
	return func(e *Engine) {
		e.initContent = content
	}
}

// WithTabWidth sets the tab width for the engine.
func WithTabWidth(width int) Option {
	return func(e *Engine) {
		if width > 0 {
			e.tabWidth = width
		}
	}
}

// WithLineEnding sets the line ending style for the engine.
func WithLineEnding(ending buffer.LineEnding) Option {
	return func(e *Engine) {
		e.lineEnding = ending
	}
}

// WithNormalizedLineEndings converts the initial content to the configured
// line ending.
func WithNormalizedLineEndings() Option {
	return func(e *Engine) {
		e.normalize = true
	}
}

// WithMaxUndoEntries sets the maximum number of undo history entries.
func WithMaxUndoEntries(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.maxUndoEntries = max
		}
	}
}

// WithReadOnly creates a read-only engine.
// Write operations will return ErrReadOnly.
func WithReadOnly() Option {
	return func(e *Engine) {
		e.readOnly = true
	}
}

// WithLogger sets the logger used by the engine and its processors.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithEditObserver adds an observer notified while Apply executes trees.
func WithEditObserver(obs edit.Observer) Option {
	return func(e *Engine) {
		if obs != nil {
			e.observers = append(e.observers, obs)
		}
	}
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithLabel sets the label of the undo batch returned by Perform.
func WithLabel(label string) ProcessorOption {
	return func(p *Processor) {
		p.label = label
	}
}

// WithObserver adds an observer notified while trees execute.
func WithObserver(obs edit.Observer) ProcessorOption {
	return func(p *Processor) {
		if obs != nil {
			p.observers = append(p.observers, obs)
		}
	}
}

// WithProcessorLogger sets the logger of a processor.
func WithProcessorLogger(l logrus.FieldLogger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.log = l
		}
	}
}

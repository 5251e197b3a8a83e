package script

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/rewrite/internal/engine"
	"github.com/dshills/rewrite/internal/engine/buffer"
	"github.com/dshills/rewrite/internal/engine/edit"
	"github.com/dshills/rewrite/internal/engine/history"
	"github.com/dshills/rewrite/internal/logging"
	"github.com/sirupsen/logrus"
)

// Program is the edit tree built by one script run.
type Program struct {
	Name    string
	Tree    *edit.Tree
	Markers map[string]edit.NodeID
	Edits   int
}

// MarkerRanges returns the current range of every named marker. After the
// tree has been performed these are the positions in the rewritten text.
func (p *Program) MarkerRanges() map[string]buffer.Range {
	out := make(map[string]buffer.Range, len(p.Markers))
	for name, id := range p.Markers {
		out[name] = p.Tree.Range(id)
	}
	return out
}

// Result describes an applied script.
type Result struct {
	Program *Program
	Undo    *history.Batch
	Markers map[string]buffer.Range
}

// Option configures a Runner.
type Option func(*Runner)

// WithTimeout limits how long one script may run. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithMaxEdits limits the number of nodes a script may create. Zero means
// unlimited.
func WithMaxEdits(n int) Option {
	return func(r *Runner) {
		r.maxEdits = n
	}
}

// WithCallStack sets the Lua call stack size.
func WithCallStack(n int) Option {
	return func(r *Runner) {
		r.callStackSize = n
	}
}

// WithLogger sets the logger used for script output and diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// Runner builds edit trees by running Lua scripts against a document.
// Each run gets a fresh Lua state, so runs do not share globals.
type Runner struct {
	timeout       time.Duration
	maxEdits      int
	callStackSize int
	log           logrus.FieldLogger
}

// NewRunner creates a runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		timeout:       DefaultExecutionTimeout,
		callStackSize: DefaultCallStackSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logging.Discard()
	}
	r.log = logging.WithComponent(r.log, "script")
	return r
}

// Build runs code and returns the tree it built. The document is only read.
func (r *Runner) Build(ctx context.Context, doc Document, name, code string) (*Program, error) {
	log := r.log.WithField("script", name)
	state := NewState(
		WithExecutionTimeout(r.timeout),
		WithCallStackSize(r.callStackSize),
		WithStateLogger(log),
	)
	defer state.Close()

	mod := newModule(doc, r.maxEdits)
	mod.Register(state.L)

	start := time.Now()
	if err := state.DoString(ctx, name, code); err != nil {
		return nil, &Error{Script: name, Err: mod.cause(err)}
	}
	if err := mod.finish(); err != nil {
		return nil, &Error{Script: name, Err: err}
	}

	log.WithFields(logrus.Fields{
		"edits":   mod.edits,
		"elapsed": time.Since(start),
	}).Debug("built edit tree")

	return &Program{
		Name:    name,
		Tree:    mod.tree,
		Markers: mod.markers,
		Edits:   mod.edits,
	}, nil
}

// BuildFile reads a script from path and builds it.
func (r *Runner) BuildFile(ctx context.Context, doc Document, path string) (*Program, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return r.Build(ctx, doc, filepath.Base(path), string(code))
}

// Run builds code against the engine's content and applies the tree as one
// undoable step.
func (r *Runner) Run(ctx context.Context, e *engine.Engine, name, code string) (*Result, error) {
	prog, err := r.Build(ctx, e, name, code)
	if err != nil {
		return nil, err
	}
	return Apply(e, prog)
}

// Apply performs a built program on the engine.
func Apply(e *engine.Engine, prog *Program) (*Result, error) {
	undo, err := e.Apply(prog.Name, prog.Tree)
	if err != nil {
		return nil, &Error{Script: prog.Name, Err: err}
	}
	return &Result{
		Program: prog,
		Undo:    undo,
		Markers: prog.MarkerRanges(),
	}, nil
}

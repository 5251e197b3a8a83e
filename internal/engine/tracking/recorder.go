package tracking

import (
	"sync"

	"github.com/dshills/rewrite/internal/engine/edit"
	"github.com/dshills/rewrite/internal/engine/history"
)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLabel sets the label of the recorded undo batch.
func WithLabel(label string) RecorderOption {
	return func(r *Recorder) {
		r.batch.Label = label
	}
}

// WithChangeLog keeps every observed change for later inspection.
func WithChangeLog() RecorderOption {
	return func(r *Recorder) {
		r.keepChanges = true
	}
}

// Stats counts what happened during a perform call.
type Stats struct {
	Steps         int // nodes executed
	Passive       int // nodes that wrote nothing
	Mutations     int // changes written to the document
	InsertedBytes int64
	DeletedBytes  int64
}

// Recorder observes execution and builds the undo batch.
//
// Every change is turned into its inverse and prepended to the batch, so
// applying the batch front to back reverts the changes last to first.
type Recorder struct {
	mu sync.Mutex

	batch       *history.Batch
	changes     []Change
	keepChanges bool

	stats   Stats
	written int // mutations at the last Enter
}

// NewRecorder creates a recorder with an empty undo batch.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		batch: history.NewBatch(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enter implements edit.Observer.
func (r *Recorder) Enter(id edit.NodeID, kind edit.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.Steps++
	r.written = r.stats.Mutations
}

// Observe implements edit.Observer.
func (r *Recorder) Observe(m edit.Mutation) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.batch.Prepend(history.Inverse(m.Offset, m.OldText, m.NewText))

	r.stats.Mutations++
	r.stats.InsertedBytes += int64(len(m.NewText))
	r.stats.DeletedBytes += int64(len(m.OldText))

	if r.keepChanges {
		r.changes = append(r.changes, NewChange(m))
	}
}

// Leave implements edit.Observer.
func (r *Recorder) Leave(id edit.NodeID, kind edit.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stats.Mutations == r.written {
		r.stats.Passive++
	}
}

// Batch returns the undo batch built so far.
func (r *Recorder) Batch() *history.Batch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batch
}

// Changes returns the observed changes in the order they were written.
// It is empty unless the recorder was created WithChangeLog.
func (r *Recorder) Changes() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Change, len(r.changes))
	copy(out, r.changes)
	return out
}

// Stats returns the counters collected so far.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

var _ edit.Observer = (*Recorder)(nil)

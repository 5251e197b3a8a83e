package tracking

import (
	"strings"
	"testing"

	"github.com/dshills/rewrite/internal/engine/buffer"
	"github.com/dshills/rewrite/internal/engine/edit"
)

func TestNewChange(t *testing.T) {
	tests := []struct {
		name  string
		m     edit.Mutation
		want  ChangeType
		delta int64
	}{
		{"insert", edit.Mutation{Offset: 10, NewText: "hello"}, ChangeInsert, 5},
		{"delete", edit.Mutation{Offset: 10, OldText: "hello"}, ChangeDelete, -5},
		{"replace", edit.Mutation{Offset: 10, OldText: "hello", NewText: "hi"}, ChangeReplace, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChange(tt.m)
			if c.Type != tt.want {
				t.Errorf("expected %v, got %v", tt.want, c.Type)
			}
			if c.Delta() != tt.delta {
				t.Errorf("expected delta %d, got %d", tt.delta, c.Delta())
			}
			if c.Range.Offset != 10 || c.Range.Length != buffer.ByteOffset(len(tt.m.OldText)) {
				t.Errorf("unexpected old range %v", c.Range)
			}
			if c.NewRange.Length != buffer.ByteOffset(len(tt.m.NewText)) {
				t.Errorf("unexpected new range %v", c.NewRange)
			}
		})
	}
}

func TestChangeString(t *testing.T) {
	c := NewChange(edit.Mutation{Offset: 0, NewText: strings.Repeat("x", 30)})
	if s := c.String(); !strings.Contains(s, "...") {
		t.Errorf("expected long text to be clipped, got %q", s)
	}
}

func TestSummarize(t *testing.T) {
	if got := Summarize(nil); got != "no changes" {
		t.Errorf("expected %q, got %q", "no changes", got)
	}

	changes := []Change{
		NewChange(edit.Mutation{NewText: "abc"}),
		NewChange(edit.Mutation{OldText: "de"}),
		NewChange(edit.Mutation{OldText: "f", NewText: "g"}),
	}
	want := "1 inserts (+3 bytes), 1 deletes (-2 bytes), 1 replaces"
	if got := Summarize(changes); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

// perform builds a tree with build, runs it on text and returns the document
// and the recorder.
func perform(t *testing.T, text string, build func(tr *edit.Tree) error) (*buffer.Buffer, *Recorder) {
	t.Helper()
	tr := edit.NewTree()
	if err := build(tr); err != nil {
		t.Fatalf("build: %v", err)
	}
	doc := buffer.NewBufferFromString(text)
	if err := tr.Validate(doc.Len()); err != nil {
		t.Fatalf("validate: %v", err)
	}
	rec := NewRecorder(WithLabel("test"), WithChangeLog())
	if err := edit.Perform(doc, rec, tr); err != nil {
		t.Fatalf("perform: %v", err)
	}
	return doc, rec
}

func TestRecorderUndoRestoresText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		build func(tr *edit.Tree) error
	}{
		{
			"siblings",
			"abcdef",
			"aXYde!f",
			func(tr *edit.Tree) error {
				if err := tr.Attach(tr.Root(), tr.NewReplace(1, 2, "XY")); err != nil {
					return err
				}
				return tr.Attach(tr.Root(), tr.NewInsert(5, "!"))
			},
		},
		{
			"nested delete",
			"0123456789",
			"0189",
			func(tr *edit.Tree) error {
				del := tr.NewDelete(2, 6)
				if err := tr.Attach(del, tr.NewReplace(3, 1, "three")); err != nil {
					return err
				}
				return tr.Attach(tr.Root(), del)
			},
		},
		{
			"move",
			"helloworld",
			"worldhello",
			func(tr *edit.Tree) error {
				src := tr.NewMoveSource(0, 5)
				tgt := tr.NewMoveTarget(10)
				if err := tr.Link(src, tgt); err != nil {
					return err
				}
				if err := tr.Attach(tr.Root(), src); err != nil {
					return err
				}
				return tr.Attach(tr.Root(), tgt)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, rec := perform(t, tt.text, tt.build)
			if doc.Text() != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, doc.Text())
			}

			undo := rec.Batch()
			if undo.Label != "test" {
				t.Errorf("expected label %q, got %q", "test", undo.Label)
			}
			if _, err := undo.Apply(doc); err != nil {
				t.Fatalf("undo: %v", err)
			}
			if doc.Text() != tt.text {
				t.Errorf("expected undo to restore %q, got %q", tt.text, doc.Text())
			}
		})
	}
}

func TestRecorderStats(t *testing.T) {
	_, rec := perform(t, "helloworld", func(tr *edit.Tree) error {
		src := tr.NewMoveSource(0, 5)
		tgt := tr.NewMoveTarget(10)
		if err := tr.Link(src, tgt); err != nil {
			return err
		}
		if err := tr.Attach(tr.Root(), src); err != nil {
			return err
		}
		return tr.Attach(tr.Root(), tgt)
	})

	stats := rec.Stats()
	if stats.Steps != 3 {
		t.Errorf("expected 3 steps, got %d", stats.Steps)
	}
	if stats.Mutations != 2 {
		t.Errorf("expected delete and insert, got %d", stats.Mutations)
	}
	// The target ran first and the root only groups.
	if stats.Passive != 2 {
		t.Errorf("expected 2 passive steps, got %d", stats.Passive)
	}
	if stats.InsertedBytes != 5 || stats.DeletedBytes != 5 {
		t.Errorf("unexpected byte counts %+v", stats)
	}
	if rec.Batch().Len() != 2 {
		t.Errorf("expected 2 undo entries, got %d", rec.Batch().Len())
	}

	changes := rec.Changes()
	if len(changes) != 2 || changes[0].Type != ChangeDelete || changes[1].Type != ChangeInsert {
		t.Errorf("unexpected change log %v", changes)
	}
}

func TestRecorderSkipsNoop(t *testing.T) {
	_, rec := perform(t, "abc", func(tr *edit.Tree) error {
		return tr.Attach(tr.Root(), tr.NewReplace(0, 1, "a"))
	})

	if !rec.Batch().IsEmpty() {
		t.Errorf("expected empty undo batch, got %v", rec.Batch())
	}
	if len(rec.Changes()) != 0 {
		t.Error("expected no recorded changes")
	}
}

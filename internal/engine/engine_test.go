package engine

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dshills/rewrite/internal/engine/buffer"
	"github.com/dshills/rewrite/internal/engine/edit"
	"github.com/dshills/rewrite/internal/engine/tracking"
	"github.com/dshills/rewrite/internal/logging"
	"github.com/google/go-cmp/cmp"
)

func moveTree(t *testing.T, src buffer.Range, target buffer.ByteOffset) *edit.Tree {
	t.Helper()
	tr := edit.NewTree()
	s := tr.NewMoveSource(src.Offset, src.Length)
	d := tr.NewMoveTarget(target)
	if err := tr.Link(s, d); err != nil {
		t.Fatal(err)
	}
	for _, id := range []edit.NodeID{s, d} {
		if err := tr.Attach(tr.Root(), id); err != nil {
			t.Fatal(err)
		}
	}
	return tr
}

func TestNew(t *testing.T) {
	e := New()
	if e.Text() != "" || e.Len() != 0 {
		t.Errorf("expected empty engine, got %q", e.Text())
	}
	if e.LineCount() != 1 {
		t.Errorf("expected 1 line, got %d", e.LineCount())
	}
	if e.TabWidth() != DefaultTabWidth {
		t.Errorf("expected tab width %d, got %d", DefaultTabWidth, e.TabWidth())
	}
	if e.CanUndo() || e.CanRedo() {
		t.Error("new engine should have no history")
	}
}

func TestNewWithOptions(t *testing.T) {
	e := New(
		WithContent("one\r\ntwo"),
		WithLineEnding(buffer.LineEndingLF),
		WithNormalizedLineEndings(),
		WithTabWidth(8),
		WithTabWidth(-1),
		WithMaxUndoEntries(0),
	)

	if e.Text() != "one\ntwo" {
		t.Errorf("expected normalized content, got %q", e.Text())
	}
	if e.TabWidth() != 8 {
		t.Errorf("expected tab width 8, got %d", e.TabWidth())
	}
	if e.LineText(1) != "two" {
		t.Errorf("expected line 1 %q, got %q", "two", e.LineText(1))
	}
	off, err := e.OffsetOfLine(1)
	if err != nil || off != 4 {
		t.Errorf("expected line 1 at 4, got %d (%v)", off, err)
	}
	if got := e.PointToOffset(e.OffsetToPoint(5)); got != 5 {
		t.Errorf("point round trip: expected 5, got %d", got)
	}
}

func TestDisplayColumn(t *testing.T) {
	e := New(WithContent("a\tb\n日本x"), WithTabWidth(8))
	tests := []struct {
		offset buffer.ByteOffset
		want   int
	}{
		{0, 0},
		{2, 8},
		{3, 9},
		{4, 0},
		{10, 4},
		{11, 5},
	}
	for _, tt := range tests {
		if got := e.DisplayColumn(tt.offset); got != tt.want {
			t.Errorf("DisplayColumn(%d): expected %d, got %d", tt.offset, tt.want, got)
		}
	}
}

func TestNewFromReader(t *testing.T) {
	e, err := NewFromReader(strings.NewReader("hello\nworld"))
	if err != nil {
		t.Fatal(err)
	}
	if e.LineCount() != 2 {
		t.Errorf("expected 2 lines, got %d", e.LineCount())
	}
	s, err := e.Slice(6, 5)
	if err != nil || s != "world" {
		t.Errorf("expected %q, got %q (%v)", "world", s, err)
	}
}

func TestApplyUndoRedo(t *testing.T) {
	e := New(WithContent("helloworld"))
	rev := e.Revision()

	batch, err := e.Apply("move", moveTree(t, buffer.NewRange(0, 5), 10))
	if err != nil {
		t.Fatal(err)
	}
	if e.Text() != "worldhello" {
		t.Errorf("expected %q, got %q", "worldhello", e.Text())
	}
	if batch.Len() != 2 {
		t.Errorf("expected 2 undo entries, got %d", batch.Len())
	}
	if e.Revision() == rev {
		t.Error("revision should advance after apply")
	}

	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if e.Text() != "helloworld" {
		t.Errorf("undo: expected %q, got %q", "helloworld", e.Text())
	}
	if err := e.Redo(); err != nil {
		t.Fatal(err)
	}
	if e.Text() != "worldhello" {
		t.Errorf("redo: expected %q, got %q", "worldhello", e.Text())
	}

	info := e.UndoInfo()
	if len(info) != 1 || info[0].Label != "move" || info[0].ID != batch.ID {
		t.Errorf("unexpected undo info %+v", info)
	}
}

func TestApplyRejectedTree(t *testing.T) {
	e := New(WithContent("abc"))
	tr := edit.NewTree()
	if err := tr.Attach(tr.Root(), tr.NewDelete(2, 4)); err != nil {
		t.Fatal(err)
	}

	if _, err := e.Apply("bad", tr); !errors.Is(err, edit.ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
	if e.Text() != "abc" || e.CanUndo() {
		t.Error("rejected apply must not change content or history")
	}
}

func TestApplyMultipleTrees(t *testing.T) {
	e := New(WithContent("abc"))
	open := edit.NewTree()
	closing := edit.NewTree()
	if err := open.Attach(open.Root(), open.NewInsert(0, "(")); err != nil {
		t.Fatal(err)
	}
	if err := closing.Attach(closing.Root(), closing.NewInsert(3, ")")); err != nil {
		t.Fatal(err)
	}

	if _, err := e.Apply("wrap", closing, open); err != nil {
		t.Fatal(err)
	}
	if e.Text() != "(abc)" {
		t.Errorf("expected %q, got %q", "(abc)", e.Text())
	}
	if e.UndoCount() != 1 {
		t.Errorf("expected one undo step, got %d", e.UndoCount())
	}
}

func TestReadOnly(t *testing.T) {
	e := New(WithContent("abc"), WithReadOnly())
	if !e.IsReadOnly() {
		t.Fatal("expected read-only engine")
	}
	if _, err := e.Apply("x", edit.NewTree()); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Apply: expected ErrReadOnly, got %v", err)
	}
	if err := e.SetContent("x"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("SetContent: expected ErrReadOnly, got %v", err)
	}
	if err := e.Undo(); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Undo: expected ErrReadOnly, got %v", err)
	}
}

func TestUndoEmpty(t *testing.T) {
	e := New()
	if err := e.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("expected ErrNothingToUndo, got %v", err)
	}
	if err := e.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("expected ErrNothingToRedo, got %v", err)
	}
}

func TestUndoGroup(t *testing.T) {
	e := New(WithContent("abc"))
	insert := func(off buffer.ByteOffset, s string) {
		tr := edit.NewTree()
		if err := tr.Attach(tr.Root(), tr.NewInsert(off, s)); err != nil {
			t.Fatal(err)
		}
		if _, err := e.Apply("insert", tr); err != nil {
			t.Fatal(err)
		}
	}

	e.BeginUndoGroup("both ends")
	insert(3, "]")
	insert(0, "[")
	e.EndUndoGroup()

	if e.Text() != "[abc]" || e.UndoCount() != 1 {
		t.Fatalf("expected one grouped step, got %q with %d steps", e.Text(), e.UndoCount())
	}
	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if e.Text() != "abc" {
		t.Errorf("expected %q, got %q", "abc", e.Text())
	}

	e.ClearHistory()
	if e.CanRedo() {
		t.Error("expected history to be cleared")
	}
}

func TestSetContent(t *testing.T) {
	e := New(WithContent("old"))
	if err := e.SetContent("new text"); err != nil {
		t.Fatal(err)
	}
	if err := e.SetContent("new text"); err != nil {
		t.Fatal(err)
	}
	if e.UndoCount() != 1 {
		t.Errorf("unchanged content should not add history, got %d", e.UndoCount())
	}
	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if e.Text() != "old" {
		t.Errorf("expected %q, got %q", "old", e.Text())
	}
}

func TestEngineLogs(t *testing.T) {
	var buf bytes.Buffer
	l := logging.New(logging.Config{Level: "debug", Output: &buf})
	e := New(WithContent("abcdef"), WithLogger(l))

	if _, err := e.Apply("siblings", siblings(t)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"component=engine", "component=processor", "mutations=2"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in log output:\n%s", want, out)
		}
	}
}

func TestApplyObserver(t *testing.T) {
	rec := tracking.NewRecorder(tracking.WithChangeLog())
	e := New(WithContent("abcdef"), WithEditObserver(rec))

	if _, err := e.Apply("siblings", siblings(t)); err != nil {
		t.Fatal(err)
	}

	changes := rec.Changes()
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(changes))
	}
	if changes[0].Type != tracking.ChangeInsert || changes[1].Type != tracking.ChangeReplace {
		t.Errorf("expected insert then replace, got %v then %v", changes[0].Type, changes[1].Type)
	}
	if got := tracking.Summarize(changes); !strings.Contains(got, "1 inserts") {
		t.Errorf("unexpected summary %q", got)
	}
}

func TestApplyLines(t *testing.T) {
	e := New(WithContent("a\nb\nc\n"))
	tr := edit.NewTree()
	joins := []edit.NodeID{tr.NewReplace(1, 1, " "), tr.NewReplace(3, 1, " ")}
	for _, id := range joins {
		if err := tr.Attach(tr.Root(), id); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := e.Apply("join", tr); err != nil {
		t.Fatal(err)
	}

	var lines []string
	for i := uint32(0); i < e.LineCount(); i++ {
		lines = append(lines, e.LineText(i))
	}
	if diff := cmp.Diff([]string{"a b c", ""}, lines); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

// fuzzTree builds a tree from ops, four bytes per step: nested groups and
// spans, leaf edits and copy or move pairs. Attach rejects steps that do not
// fit; a pair left half attached is rejected later by validation.
func fuzzTree(size buffer.ByteOffset, ops []byte) *edit.Tree {
	tr := edit.NewTree()
	stack := []edit.NodeID{tr.Root()}
	pos := func(b byte) buffer.ByteOffset { return buffer.ByteOffset(b) % (size + 1) }

	for steps := 0; len(ops) >= 4 && steps < 64; steps++ {
		op, a, b, c := ops[0], ops[1], ops[2], ops[3]
		ops = ops[4:]

		parent := stack[len(stack)-1]
		off := pos(a)
		length := buffer.ByteOffset(b) % (size - off + 1)
		text := strings.Repeat(string(rune('A'+c%26)), int(c%3))

		switch op % 8 {
		case 0:
			_ = tr.Attach(parent, tr.NewInsert(off, text))
		case 1:
			_ = tr.Attach(parent, tr.NewReplace(off, length, text))
		case 2:
			_ = tr.Attach(parent, tr.NewDelete(off, length))
		case 3:
			_ = tr.Attach(parent, tr.NewMarker(off, length))
		case 4:
			if g := tr.NewComposite(); tr.Attach(parent, g) == nil {
				stack = append(stack, g)
			}
		case 5:
			if g := tr.NewCompositeRange(off, length); tr.Attach(parent, g) == nil {
				stack = append(stack, g)
			}
		case 6:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case 7:
			src, dst := tr.NewMoveSource(off, length), tr.NewMoveTarget(pos(c/2))
			if c%2 == 0 {
				src, dst = tr.NewCopySource(off, length), tr.NewCopyTarget(pos(c/2))
			}
			if tr.Link(src, dst) != nil {
				continue
			}
			_ = tr.Attach(parent, src)
			_ = tr.Attach(parent, dst)
		}
	}
	return tr
}

func FuzzApplyUndo(f *testing.F) {
	f.Add("hello world", []byte{1, 3, 2, 23, 0, 9, 0, 1}, uint8(1))
	f.Add("", []byte{0, 0, 0, 2}, uint8(0))
	f.Add("helloworld", []byte{7, 0, 5, 21}, uint8(10))
	f.Add("0123456789", []byte{4, 0, 0, 0, 1, 2, 1, 23, 5, 4, 2, 0, 2, 4, 1, 0, 6, 0, 0, 0, 7, 6, 2, 2}, uint8(9))
	f.Add("line one\nline two\n", []byte{5, 0, 9, 0, 7, 1, 4, 35, 3, 5, 2, 0}, uint8(17))

	f.Fuzz(func(t *testing.T, text string, ops []byte, at uint8) {
		e := New(WithContent(text))
		size := buffer.ByteOffset(len(text))

		tr := fuzzTree(size, ops)
		// A second tree that may or may not overlap the first.
		other := edit.NewTree()
		if err := other.Attach(other.Root(), other.NewInsert(buffer.ByteOffset(at)%(size+1), "#")); err != nil {
			t.Fatal(err)
		}

		if _, err := e.Apply("fuzz", tr, other); err != nil {
			if e.Text() != text || e.CanUndo() {
				t.Fatalf("rejected apply changed the engine: %v", err)
			}
			return
		}
		result := e.Text()

		if err := e.Undo(); err != nil {
			t.Fatal(err)
		}
		if e.Text() != text {
			t.Errorf("undo round trip: expected %q, got %q", text, e.Text())
		}
		if err := e.Redo(); err != nil {
			t.Fatal(err)
		}
		if e.Text() != result {
			t.Errorf("redo: expected %q, got %q", result, e.Text())
		}
	})
}

package edit

import (
	"errors"
	"testing"

	"github.com/dshills/rewrite/internal/engine/buffer"
)

func TestValidateOutOfBounds(t *testing.T) {
	tr := NewTree()
	mustAttach(t, tr, tr.Root(), tr.NewDelete(8, 4))

	if err := tr.Validate(10); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
	if tr.State(tr.Root()) != StateAdded {
		t.Error("failed validation must not connect the tree")
	}
}

func TestValidateLinks(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T, tr *Tree)
		want  error
	}{
		{
			"no partner",
			func(t *testing.T, tr *Tree) {
				mustAttach(t, tr, tr.Root(), tr.NewMoveSource(0, 2))
			},
			ErrUnlinked,
		},
		{
			"partner outside tree",
			func(t *testing.T, tr *Tree) {
				src := tr.NewMoveSource(0, 2)
				tgt := tr.NewMoveTarget(5)
				if err := tr.Link(src, tgt); err != nil {
					t.Fatal(err)
				}
				mustAttach(t, tr, tr.Root(), src)
			},
			ErrUnlinked,
		},
		{
			"relinked source",
			func(t *testing.T, tr *Tree) {
				src := tr.NewCopySource(0, 2)
				t1 := tr.NewCopyTarget(4)
				t2 := tr.NewCopyTarget(6)
				if err := tr.Link(src, t1); err != nil {
					t.Fatal(err)
				}
				if err := tr.Link(src, t2); err != nil {
					t.Fatal(err)
				}
				for _, id := range []NodeID{src, t1, t2} {
					mustAttach(t, tr, tr.Root(), id)
				}
			},
			ErrLinkMismatch,
		},
		{
			"target inside source",
			func(t *testing.T, tr *Tree) {
				src := tr.NewMoveSource(0, 5)
				tgt := tr.NewMoveTarget(2)
				if err := tr.Link(src, tgt); err != nil {
					t.Fatal(err)
				}
				mustAttach(t, tr, src, tgt)
				mustAttach(t, tr, tr.Root(), src)
			},
			ErrLinkCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTree()
			tt.build(t, tr)
			if err := tr.Validate(10); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestValidateConnects(t *testing.T) {
	tr := NewTree()
	rep := tr.NewReplace(3, 1, "x")
	g := tr.NewComposite()
	mustAttach(t, tr, tr.Root(), rep)
	mustAttach(t, tr, tr.Root(), g)

	if err := tr.Check(10); err != nil {
		t.Fatalf("check: %v", err)
	}
	if tr.State(rep) != StateAdded {
		t.Error("check must not connect the tree")
	}

	if err := tr.Validate(10); err != nil {
		t.Fatalf("validate: %v", err)
	}
	for _, id := range []NodeID{tr.Root(), rep, g} {
		if tr.State(id) != StateConnected {
			t.Errorf("node %d: expected connected, got %v", id, tr.State(id))
		}
	}
	if got := tr.Range(g); got != buffer.NewRange(3, 0) {
		t.Errorf("expected empty composite at parent offset, got %v", got)
	}
	if got := tr.Range(tr.Root()); got != buffer.NewRange(3, 1) {
		t.Errorf("expected root [3:4), got %v", got)
	}
}

func TestValidateEmptyTree(t *testing.T) {
	tr := NewTree()
	if err := tr.Validate(0); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := tr.Range(tr.Root()); got != buffer.NewRange(0, 0) {
		t.Errorf("expected empty root at 0, got %v", got)
	}
}

package buffer

import "testing"

func TestRangeCovers(t *testing.T) {
	tests := []struct {
		name  string
		outer Range
		inner Range
		want  bool
	}{
		{"inside", NewRange(2, 6), NewRange(3, 2), true},
		{"identical", NewRange(2, 6), NewRange(2, 6), true},
		{"insertion at start", NewRange(2, 6), NewRange(2, 0), true},
		{"insertion at end", NewRange(2, 6), NewRange(8, 0), true},
		{"sticks out right", NewRange(2, 6), NewRange(7, 2), false},
		{"sticks out left", NewRange(2, 6), NewRange(1, 2), false},
		{"empty covers nothing", NewRange(4, 0), NewRange(4, 0), false},
		{"undefined outer", Undefined, NewRange(0, 0), false},
		{"deleted inner", NewRange(0, 10), Deleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outer.Covers(tt.inner); got != tt.want {
				t.Errorf("%v.Covers(%v) = %v, want %v", tt.outer, tt.inner, got, tt.want)
			}
		})
	}
}

func TestIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b Range
		want Range
		ok   bool
	}{
		{"overlap", NewRange(0, 4), NewRange(2, 4), NewRange(0, 6), true},
		{"touching", NewRange(0, 2), NewRange(2, 2), NewRange(0, 4), true},
		{"nested", NewRange(0, 10), NewRange(2, 2), NewRange(0, 10), true},
		{"apart", NewRange(0, 2), NewRange(3, 2), Range{}, false},
		{"deleted", Deleted, NewRange(0, 2), Range{}, false},
		{"undefined", NewRange(0, 2), Undefined, Range{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Intersect(tt.a, tt.b)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Intersect(%v, %v) = %v, %v; want %v, %v", tt.a, tt.b, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestRangeSentinels(t *testing.T) {
	if Undefined.IsReal() || Deleted.IsReal() {
		t.Error("sentinels must not be real ranges")
	}
	if !Undefined.IsUndefined() || !Deleted.IsDeleted() {
		t.Error("sentinel predicates broken")
	}
	if Deleted.Shift(5) != Deleted {
		t.Error("shifting a sentinel must be a no-op")
	}
	if got := Undefined.Union(NewRange(3, 1)); got != NewRange(3, 1) {
		t.Errorf("expected union to ignore sentinel, got %v", got)
	}
	if Undefined.String() != "[undefined]" || Deleted.String() != "[deleted]" {
		t.Errorf("unexpected sentinel strings %s %s", Undefined, Deleted)
	}
}

func TestRangeOverlaps(t *testing.T) {
	tests := []struct {
		a, b Range
		want bool
	}{
		{NewRange(1, 3), NewRange(2, 2), true},
		{NewRange(1, 2), NewRange(3, 2), false},
		{NewRange(1, 2), NewRange(3, 0), false},
		{NewRange(1, 4), NewRange(3, 0), true},
		{NewRange(3, 0), NewRange(3, 0), false},
	}

	for _, tt := range tests {
		if got := tt.a.Overlaps(tt.b); got != tt.want {
			t.Errorf("%v.Overlaps(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRangeWithin(t *testing.T) {
	if !NewRange(2, 3).Within(5) {
		t.Error("expected [2:5) within 5")
	}
	if NewRange(2, 4).Within(5) {
		t.Error("expected [2:6) outside 5")
	}
	if !NewRange(5, 0).Within(5) {
		t.Error("expected insertion point at end within 5")
	}
}

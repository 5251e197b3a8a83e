package buffer

import "fmt"

// Range is a span of the buffer described by an offset and a length.
// The exclusive end is Offset + Length.
//
// Two reserved values mark ranges that do not describe a real position:
// Undefined for spans that have not been computed yet, and Deleted for spans
// whose text was removed by an enclosing edit.
type Range struct {
	Offset ByteOffset
	Length ByteOffset
}

// Reserved sentinel ranges.
var (
	Undefined = Range{Offset: -1, Length: -1}
	Deleted   = Range{Offset: -2, Length: -2}
)

// NewRange creates a new Range from an offset and a length.
func NewRange(offset, length ByteOffset) Range {
	return Range{Offset: offset, Length: length}
}

// Span creates a Range from inclusive start and exclusive end offsets.
func Span(start, end ByteOffset) Range {
	return Range{Offset: start, Length: end - start}
}

// String returns a human-readable representation of the range.
func (r Range) String() string {
	switch {
	case r.IsUndefined():
		return "[undefined]"
	case r.IsDeleted():
		return "[deleted]"
	}
	return fmt.Sprintf("[%d:%d)", r.Offset, r.End())
}

// End returns the exclusive end offset.
func (r Range) End() ByteOffset {
	return r.Offset + r.Length
}

// IsUndefined returns true for the Undefined sentinel.
func (r Range) IsUndefined() bool {
	return r == Undefined
}

// IsDeleted returns true for the Deleted sentinel.
func (r Range) IsDeleted() bool {
	return r == Deleted
}

// IsReal returns true if the range describes an actual span of text.
func (r Range) IsReal() bool {
	return r.Offset >= 0 && r.Length >= 0
}

// IsEmpty returns true if the range is a zero-length insertion point.
func (r Range) IsEmpty() bool {
	return r.IsReal() && r.Length == 0
}

// Covers reports whether other lies entirely inside r.
// A zero-length range covers nothing, not even itself.
func (r Range) Covers(other Range) bool {
	if !r.IsReal() || !other.IsReal() || r.Length == 0 {
		return false
	}
	return r.Offset <= other.Offset && other.End() <= r.End()
}

// ContainsRange reports whether other lies inside r, treating both ends as
// inclusive. Unlike Covers, an empty range contains an empty range at the
// same offset.
func (r Range) ContainsRange(other Range) bool {
	if !r.IsReal() || !other.IsReal() {
		return false
	}
	return r.Offset <= other.Offset && other.End() <= r.End()
}

// Overlaps reports whether the two ranges share at least one byte, or whether
// one of them is an insertion point strictly inside the other.
func (r Range) Overlaps(other Range) bool {
	if !r.IsReal() || !other.IsReal() {
		return false
	}
	if r.Length == 0 && other.Length == 0 {
		return false
	}
	return r.Offset < other.End() && other.Offset < r.End()
}

// Intersect returns the smallest range spanning both a and b when they
// overlap or touch. The second result is false when the ranges are apart or
// either is not a real range.
func Intersect(a, b Range) (Range, bool) {
	if !a.IsReal() || !b.IsReal() {
		return Range{}, false
	}
	if a.End() < b.Offset || b.End() < a.Offset {
		return Range{}, false
	}
	return a.Union(b), true
}

// Union returns the smallest range that contains both ranges.
// Sentinel ranges are ignored; the union of two sentinels is Undefined.
func (r Range) Union(other Range) Range {
	if !r.IsReal() {
		if !other.IsReal() {
			return Undefined
		}
		return other
	}
	if !other.IsReal() {
		return r
	}
	start := min(r.Offset, other.Offset)
	end := max(r.End(), other.End())
	return Span(start, end)
}

// Shift returns a new range moved by delta. Sentinels are returned unchanged.
func (r Range) Shift(delta ByteOffset) Range {
	if !r.IsReal() {
		return r
	}
	return Range{Offset: r.Offset + delta, Length: r.Length}
}

// Within reports whether r lies inside a buffer of the given length.
func (r Range) Within(length ByteOffset) bool {
	return r.IsReal() && r.End() <= length
}

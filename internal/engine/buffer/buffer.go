package buffer

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
)

// Document is the text abstraction driven by the edit engine.
// Replace is the only mutation primitive; it must fail without modifying the
// text when offset+length exceeds Len.
type Document interface {
	Len() ByteOffset
	Slice(offset, length ByteOffset) (string, error)
	Replace(offset, length ByteOffset, text string) error
}

// Buffer is an in-memory Document with line indexing.
// All methods are thread-safe.
type Buffer struct {
	mu         sync.RWMutex
	text       string
	lineStarts []ByteOffset // offset of the first byte of every line
	revision   uint64
	lineEnding LineEnding
	normalize  bool
	tabWidth   int
}

// NewBuffer creates a new empty buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{
		lineStarts: []ByteOffset{0},
		lineEnding: LineEndingLF,
		tabWidth:   4,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// NewBufferFromString creates a buffer with initial content.
// Line endings are normalized only when WithNormalizedLineEndings is given.
func NewBufferFromString(s string, opts ...Option) *Buffer {
	b := NewBuffer(opts...)
	if b.normalize {
		s = b.lineEnding.Normalize(s)
	}
	b.text = s
	b.reindexFrom(0)
	return b
}

// NewBufferFromReader creates a buffer from an io.Reader.
func NewBufferFromReader(r io.Reader, opts ...Option) (*Buffer, error) {
	// Read all content first so CRLF sequences are never split across reads.
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewBufferFromString(string(data), opts...), nil
}

// Read Operations

// Text returns the full buffer content as a string.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ByteOffset(len(b.text))
}

// IsEmpty returns true if the buffer is empty.
func (b *Buffer) IsEmpty() bool {
	return b.Len() == 0
}

// Slice returns length bytes starting at offset.
func (b *Buffer) Slice(offset, length ByteOffset) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := b.checkRange(offset, length); err != nil {
		return "", err
	}
	return b.text[offset : offset+length], nil
}

// ByteAt returns the byte at the given offset.
func (b *Buffer) ByteAt(offset ByteOffset) (byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if offset < 0 || offset >= ByteOffset(len(b.text)) {
		return 0, false
	}
	return b.text[offset], true
}

// RuneAt returns the rune starting at the given byte offset and its width.
// Returns utf8.RuneError and size 0 if offset is out of range.
func (b *Buffer) RuneAt(offset ByteOffset) (rune, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if offset < 0 || offset >= ByteOffset(len(b.text)) {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(b.text[offset:])
}

// Line Queries

// LineCount returns the number of lines (newlines + 1).
func (b *Buffer) LineCount() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return uint32(len(b.lineStarts))
}

// LineOfOffset returns the 0-indexed line containing offset.
func (b *Buffer) LineOfOffset(offset ByteOffset) (uint32, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if offset < 0 || offset > ByteOffset(len(b.text)) {
		return 0, fmt.Errorf("line of offset %d: %w", offset, ErrOffsetOutOfRange)
	}
	return b.lineOfLocked(offset), nil
}

// OffsetOfLine returns the byte offset of the first byte of a line.
func (b *Buffer) OffsetOfLine(line uint32) (ByteOffset, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if int(line) >= len(b.lineStarts) {
		return 0, fmt.Errorf("offset of line %d: %w", line, ErrOffsetOutOfRange)
	}
	return b.lineStarts[line], nil
}

// LineText returns the text of a line without its terminator.
func (b *Buffer) LineText(line uint32) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if int(line) >= len(b.lineStarts) {
		return ""
	}
	start := b.lineStarts[line]
	end := b.lineEndLocked(line)
	return b.text[start:end]
}

// OffsetToPoint converts a byte offset to line/column.
// Offsets past the end are clamped to the end of the buffer.
func (b *Buffer) OffsetToPoint(offset ByteOffset) Point {
	b.mu.RLock()
	defer b.mu.RUnlock()

	offset = max(0, min(offset, ByteOffset(len(b.text))))
	line := b.lineOfLocked(offset)
	return Point{Line: line, Column: uint32(offset - b.lineStarts[line])}
}

// PointToOffset converts line/column to byte offset.
// Columns past the end of the line are clamped to the line end.
func (b *Buffer) PointToOffset(p Point) ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if int(p.Line) >= len(b.lineStarts) {
		return ByteOffset(len(b.text))
	}
	start := b.lineStarts[p.Line]
	return min(start+ByteOffset(p.Column), b.lineEndLocked(p.Line))
}

// DisplayColumn returns the visual column of offset within its line,
// counting grapheme clusters and expanding tabs to the buffer's tab width.
func (b *Buffer) DisplayColumn(offset ByteOffset) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	offset = max(0, min(offset, ByteOffset(len(b.text))))
	line := b.lineOfLocked(offset)
	prefix := b.text[b.lineStarts[line]:offset]

	col := 0
	gr := uniseg.NewGraphemes(prefix)
	for gr.Next() {
		if gr.Str() == "\t" {
			col += b.tabWidth - col%b.tabWidth
			continue
		}
		col += gr.Width()
	}
	return col
}

// Write Operations

// Replace replaces length bytes at offset with text.
// The text is stored verbatim so that replaying captured text is exact.
func (b *Buffer) Replace(offset, length ByteOffset, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.checkRange(offset, length); err != nil {
		return err
	}

	var sb strings.Builder
	sb.Grow(len(b.text) - int(length) + len(text))
	sb.WriteString(b.text[:offset])
	sb.WriteString(text)
	sb.WriteString(b.text[offset+length:])
	b.text = sb.String()
	b.revision++

	b.reindexFrom(offset)
	return nil
}

// Insert inserts text at the given offset.
// Returns the end position of the inserted text.
func (b *Buffer) Insert(offset ByteOffset, text string) (ByteOffset, error) {
	if err := b.Replace(offset, 0, text); err != nil {
		return 0, err
	}
	return offset + ByteOffset(len(text)), nil
}

// Delete removes text in the range [start, end).
func (b *Buffer) Delete(start, end ByteOffset) error {
	if end < start {
		return ErrRangeInvalid
	}
	return b.Replace(start, end-start, "")
}

// Buffer State

// Revision returns a counter incremented by every mutation.
func (b *Buffer) Revision() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.revision
}

// LineEnding returns the buffer's line ending style.
func (b *Buffer) LineEnding() LineEnding {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lineEnding
}

// TabWidth returns the buffer's tab width.
func (b *Buffer) TabWidth() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tabWidth
}

// checkRange validates [offset, offset+length) against the text (must hold lock).
func (b *Buffer) checkRange(offset, length ByteOffset) error {
	if offset < 0 || length < 0 {
		return fmt.Errorf("range [%d+%d]: %w", offset, length, ErrRangeInvalid)
	}
	if offset+length > ByteOffset(len(b.text)) {
		return fmt.Errorf("range [%d+%d] beyond length %d: %w", offset, length, len(b.text), ErrOffsetOutOfRange)
	}
	return nil
}

// lineOfLocked returns the line containing offset (must hold lock).
func (b *Buffer) lineOfLocked(offset ByteOffset) uint32 {
	i := sort.Search(len(b.lineStarts), func(i int) bool {
		return b.lineStarts[i] > offset
	})
	return uint32(i - 1)
}

// lineEndLocked returns the offset of the terminator of a line (must hold lock).
func (b *Buffer) lineEndLocked(line uint32) ByteOffset {
	if int(line)+1 < len(b.lineStarts) {
		end := b.lineStarts[line+1] - 1
		if end > b.lineStarts[line] && b.text[end-1] == '\r' {
			end--
		}
		return end
	}
	return ByteOffset(len(b.text))
}

// reindexFrom rebuilds line starts for every line touched at or after offset.
// Only '\n' terminates a line; "\r\n" is reported as one terminator.
func (b *Buffer) reindexFrom(offset ByteOffset) {
	keep := sort.Search(len(b.lineStarts), func(i int) bool {
		return b.lineStarts[i] > offset
	})
	keep = max(keep, 1)
	b.lineStarts = b.lineStarts[:keep]

	for i := int(b.lineStarts[keep-1]); i < len(b.text); i++ {
		if b.text[i] == '\n' {
			b.lineStarts = append(b.lineStarts, ByteOffset(i+1))
		}
	}
}

// Package buffer provides the text buffer driven by the edit engine, and the
// Range value type used to address it.
//
// The buffer package provides:
//
//   - Range, an (offset, length) span with Undefined and Deleted sentinels
//   - Document, the minimal interface the engine mutates through Replace
//   - Buffer, a thread-safe in-memory Document with line indexing
//   - Coordinate conversion between byte offsets and line/column positions
//   - Grapheme-aware display columns for formatting callers
//
// Basic usage:
//
//	buf := buffer.NewBufferFromString("Hello, World!")
//
//	// The single mutation primitive
//	buf.Replace(7, 5, "Gopher") // "Hello, Gopher!"
//
//	// Line queries
//	line, _ := buf.LineOfOffset(3)
//	start, _ := buf.OffsetOfLine(line)
//
// Range algebra:
//
//	r := buffer.NewRange(2, 4)      // [2:6)
//	r.Covers(buffer.NewRange(3, 1)) // true
//	r.Covers(r)                     // true
//	buffer.NewRange(4, 0).Covers(buffer.NewRange(4, 0)) // false: empty covers nothing
//
// Thread Safety:
//
// All Buffer methods are thread-safe. The edit engine itself is single-writer:
// one perform call owns the buffer until it returns.
package buffer

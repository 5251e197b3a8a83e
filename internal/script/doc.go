// Package script builds edit trees from Lua scripts.
//
// Scripts run in a sandboxed gopher-lua state with the base, table, string
// and math libraries. File, OS, debug and module loading functions are not
// available; print writes to the runner's logger.
//
// The global table rewrite creates edit nodes. Offsets are 0-indexed byte
// offsets into the original text; lines and columns are 1-indexed. Columns
// count grapheme clusters and expand tabs:
//
//	rewrite.insert(offset, text)              -> node
//	rewrite.replace(offset, length, text)     -> node
//	rewrite.delete(offset, length)            -> node
//	rewrite.marker(offset, length [, name])   -> node
//	rewrite.group({node, ...})                -> node
//	rewrite.span(offset, length, {node, ...}) -> node
//	rewrite.copy(offset, length, target)      -> source, target
//	rewrite.move(offset, length, target)      -> source, target
//	rewrite.text(), rewrite.len(), rewrite.slice(offset, length)
//	rewrite.line_of(offset), rewrite.line_start(line)
//	rewrite.column_of(offset)                 -> display column
//
// Every node not placed in a group or span is attached to the root of the
// tree when the script returns. Moving the first word of "hello world" to
// the end and tracking the second word:
//
//	rewrite.move(0, 5, rewrite.len())
//	rewrite.marker(6, 5, "second")
//
// Nothing is written while the script runs. The host validates and
// performs the tree afterwards, so a script that fails leaves the text
// untouched.
package script

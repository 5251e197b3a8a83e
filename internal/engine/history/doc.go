// Package history provides undo batches and an undo/redo stack.
//
// # Entries and Batches
//
// An Entry is a primitive replacement: the bytes at [Offset, Offset+Length)
// become Text. A Batch is an ordered list of entries applied front to back.
//
// When the edit engine performs a tree it builds a batch by prepending the
// inverse of every change it writes. Applying that batch to the modified
// document restores the original:
//
//	undo, _ := processor.Perform()
//	redo, err := undo.Apply(doc) // doc is back to its original text
//
// Apply returns the inverse of what it applied, so redo works the same way.
//
// # Stack
//
// The Stack type manages undo and redo batches:
//
//	stack := NewStack(1000) // keep at most 1000 undo batches
//	stack.Push(undo)
//
//	stack.Undo(doc)
//	stack.Redo(doc)
//
// # Grouping
//
// Batches pushed between BeginGroup and EndGroup are merged into one undo
// unit:
//
//	stack.BeginGroup("rename")
//	// ... several performs ...
//	stack.EndGroup()
package history

// Package engine applies hierarchical edit trees to a text buffer.
//
// The package is a facade over several sub-packages:
//
//   - buffer: text storage with line indexing and the Document interface
//   - edit: edit nodes, trees, validation, copying and execution
//   - history: undo batches and the undo/redo stack
//   - tracking: the observer that records an undo batch during execution
//
// # Processors
//
// A Processor executes one or more trees against a Document exactly once:
//
//	doc := buffer.NewBufferFromString("abcdef")
//	t := edit.NewTree()
//	ins := t.NewInsert(1, "XY")
//	del := t.NewDelete(4, 1)
//	_ = t.Attach(t.Root(), ins)
//	_ = t.Attach(t.Root(), del)
//
//	p := engine.NewProcessor(doc)
//	if err := p.Add(t); err != nil {
//		// structural error, nothing was written
//	}
//	undo, err := p.Perform() // doc is now "aXYbcdf"
//
// Applying undo to the document restores the original content.
//
// # Engine
//
// Engine wraps a buffer and an undo stack. Apply runs trees through a
// processor and pushes the resulting batch:
//
//	e := engine.New(engine.WithContent("hello world"))
//	if _, err := e.Apply("swap", t); err != nil {
//		return err
//	}
//	_ = e.Undo()
//
// # Thread Safety
//
// Engine methods are thread-safe. A read-write mutex allows concurrent
// reads while serializing Apply, Undo and Redo. Processor and edit.Tree are
// not safe for concurrent use.
package engine

// Package edit implements hierarchical text edits.
//
// An edit is a node in a Tree. Leaf kinds insert, replace or delete text,
// markers track a span without changing it, and composites group children
// whose ranges they cover. Copy and move edits come in linked source/target
// pairs.
//
// Building a tree:
//
//	t := edit.NewTree()
//	r := t.NewReplace(1, 2, "XY")
//	i := t.NewInsert(5, "!")
//	_ = t.Attach(t.Root(), r)
//	_ = t.Attach(t.Root(), i)
//
// Attach keeps children sorted and rejects overlapping siblings, so a tree
// that was built without error has a well-defined execution order.
//
// Executing:
//
//	if err := t.Validate(doc.Len()); err != nil {
//		return err
//	}
//	err := edit.Perform(doc, observer, t)
//
// Perform runs children from last to first, so the offsets of edits that
// have not run yet stay valid. After every change the executor adjusts the
// ranges of all other nodes; when Perform returns, each node's range says
// where its text ended up.
//
// Copy and move pairs execute in two steps. Whichever half runs first only
// records progress. The second one writes the text: a copy inserts the
// source's text at the target, a move also deletes it from the source and
// carries the source's children along.
package edit

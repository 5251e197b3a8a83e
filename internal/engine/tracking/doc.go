// Package tracking records the changes made while edit trees execute.
//
// A Recorder is passed to edit.Perform as its observer. For every change the
// executor writes, the recorder prepends the inverse entry to an undo batch:
//
//	rec := tracking.NewRecorder(tracking.WithLabel("format"))
//	if err := edit.Perform(doc, rec, tree); err != nil {
//	    return err
//	}
//	undo := rec.Batch()
//
// Applying the batch to the modified document restores the original text.
// Changes that leave the text as it was are never reported, so they produce
// no entries.
//
// # Change Log
//
// With WithChangeLog the recorder also keeps each [Change] in the order it
// was written, which is useful for reporting:
//
//	fmt.Println(tracking.Summarize(rec.Changes()))
package tracking

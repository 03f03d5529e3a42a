// Package history implements the linear undo/redo log over a clip's trim
// window and quality flag.
//
// Entries are immutable records of the clip state after each applied edit,
// held in an append-only slice with an integer cursor. Applying an edit while
// the cursor is not at the tail truncates the redo branch; the live clip
// state always equals replaying entries up to the cursor from the baseline.
//
// Every successful apply/undo/redo/reset schedules a debounced persistence
// write through a Scheduler, so a burst of edits produces a single backend
// call after the user pauses. The Scheduler takes a Clock so tests run
// without wall-clock delays.
package history

// Package autosave persists a document's working copy after its edits go
// quiet.
//
// Every change notification restarts a debounce timer. When the timer runs
// out, the current content is compared with the last persisted content and
// written only if it differs. The last persisted content is updated to what
// was submitted, not to what the document holds when the write completes,
// so edits made while a save is in flight trigger another save.
//
// Saves may overlap when the store is slow. Each save is stamped with a
// write sequence number; a completion older than the newest completed save
// is discarded, and stores implementing content.SequencedStore refuse to let
// the older write replace the newer one.
package autosave

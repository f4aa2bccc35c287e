// Package content defines the key-addressed document store used by a
// notebook session.
//
// Each document occupies two entries:
//   - the canonical entry at <path>, holding the last fetched published source
//   - the working copy at autosaved.<path>, holding the user's edits
//
// Store implementations must report a missing entry with ErrNotFound so
// callers can treat a miss as "needs creation". Stores that can order writes
// from a single writer implement SequencedStore as well.
package content

// Package store provides a SQLite-backed content.Store for notebook entries.
//
// One table holds every entry, keyed by path:
//   - canonical entries at <path>
//   - working copies at autosaved.<path>
//
// # Write ordering
//
// Save overwrites unconditionally and clears the entry's revision.
// SaveRevision only overwrites when the incoming revision is newer than the
// stored one for the same writer, so a slow autosave that completes after a
// later one cannot clobber it. Writes from different writers are last write
// wins.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store

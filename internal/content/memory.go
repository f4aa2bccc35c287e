package content

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-process SequencedStore.
//
// Thread-safety: all methods are safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Get returns the entry at path or ErrNotFound.
func (m *MemoryStore) Get(ctx context.Context, path string, opts GetOptions) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[path]
	if !ok {
		return Entry{}, fmt.Errorf("get %q: %w", path, ErrNotFound)
	}
	if !opts.Content {
		e.Content = ""
	}
	return e, nil
}

// Save overwrites the entry at path unconditionally and clears its revision.
func (m *MemoryStore) Save(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[path] = Entry{Path: path, Content: content}
	return nil
}

// SaveRevision writes content unless the stored entry carries a newer or
// equal revision from the same writer.
func (m *MemoryStore) SaveRevision(ctx context.Context, path, content string, rev Revision) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.entries[path]; ok && cur.Revision.Writer == rev.Writer && cur.Revision.Seq >= rev.Seq {
		return false, nil
	}
	m.entries[path] = Entry{Path: path, Content: content, Revision: rev}
	return true, nil
}

// Paths returns the stored paths in sorted order.
func (m *MemoryStore) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	paths := make([]string, 0, len(m.entries))
	for p := range m.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

package testutil

import (
	"context"
	"sync"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/content"
)

// SaveCall records one write attempt against a RecordingStore.
type SaveCall struct {
	Path      string
	Content   string
	Revision  content.Revision
	Sequenced bool
}

// RecordingStore is a content.SequencedStore that records every write
// attempt. Writes can be made to fail or to block.
type RecordingStore struct {
	*content.MemoryStore

	mu         sync.Mutex
	saves      []SaveCall
	saveErr    error
	beforeSave func(SaveCall)
}

var _ content.SequencedStore = (*RecordingStore)(nil)

// NewRecordingStore creates an empty recording store.
func NewRecordingStore() *RecordingStore {
	return &RecordingStore{MemoryStore: content.NewMemoryStore()}
}

// FailSaves makes later writes return err (nil restores normal behavior).
func (s *RecordingStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// BeforeSave installs a hook run before each write is applied, outside any
// lock. A hook that blocks holds that write in flight.
func (s *RecordingStore) BeforeSave(fn func(SaveCall)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.beforeSave = fn
}

func (s *RecordingStore) Save(ctx context.Context, path, body string) error {
	if err := s.record(SaveCall{Path: path, Content: body}); err != nil {
		return err
	}
	return s.MemoryStore.Save(ctx, path, body)
}

func (s *RecordingStore) SaveRevision(ctx context.Context, path, body string, rev content.Revision) (bool, error) {
	if err := s.record(SaveCall{Path: path, Content: body, Revision: rev, Sequenced: true}); err != nil {
		return false, err
	}
	return s.MemoryStore.SaveRevision(ctx, path, body, rev)
}

func (s *RecordingStore) record(call SaveCall) error {
	s.mu.Lock()
	s.saves = append(s.saves, call)
	hook := s.beforeSave
	err := s.saveErr
	s.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	return err
}

// Saves returns every recorded write attempt in order.
func (s *RecordingStore) Saves() []SaveCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SaveCall(nil), s.saves...)
}

// SavesTo returns the recorded write attempts for path.
func (s *RecordingStore) SavesTo(path string) []SaveCall {
	var out []SaveCall
	for _, c := range s.Saves() {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// Content returns the stored content at path, or "" if absent.
func (s *RecordingStore) Content(path string) string {
	e, err := s.MemoryStore.Get(context.Background(), path, content.GetOptions{Content: true})
	if err != nil {
		return ""
	}
	return e.Content
}

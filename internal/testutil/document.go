package testutil

import (
	"sync"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/signal"
)

// FakeDocument is an editable document whose edits are made with SetContent.
type FakeDocument struct {
	mu         sync.Mutex
	content    string
	contentErr error

	changed signal.Signal[struct{}]
}

// NewFakeDocument creates a document holding initial.
func NewFakeDocument(initial string) *FakeDocument {
	return &FakeDocument{content: initial}
}

// Content returns the current serialized document.
func (d *FakeDocument) Content() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.contentErr != nil {
		return "", d.contentErr
	}
	return d.content, nil
}

// SetContent replaces the document and emits a change notification.
func (d *FakeDocument) SetContent(s string) {
	d.mu.Lock()
	d.content = s
	d.mu.Unlock()

	d.changed.Emit(struct{}{})
}

// FailContent makes Content return err until cleared with nil.
func (d *FakeDocument) FailContent(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contentErr = err
}

func (d *FakeDocument) OnContentChanged(fn func()) func() {
	return d.changed.Connect(func(struct{}) { fn() })
}

// Listeners returns the number of connected change listeners.
func (d *FakeDocument) Listeners() int {
	return d.changed.Len()
}

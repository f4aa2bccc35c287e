// Package filedoc exposes a file on disk as a notebook document session.
//
// The file's bytes are the document's serialized content. Writes to the file,
// including editors that replace it by rename, are reported as content
// changes to listeners registered with OnContentChanged.
package filedoc

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/signal"
)

// Document is a file-backed document. Change events are delivered only while
// Run is active.
type Document struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	changed signal.Signal[struct{}]

	closeOnce sync.Once
	closeErr  error
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Document) {
		d.logger = l
	}
}

// Open watches the file at path. The file need not exist yet, but its
// directory must.
func Open(path string, opts ...Option) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory so replace-by-rename saves keep being seen.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %q: %w", filepath.Dir(abs), err)
	}

	d := &Document{
		path:    abs,
		watcher: watcher,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Path returns the absolute path of the file.
func (d *Document) Path() string {
	return d.path
}

// Content reads the file.
func (d *Document) Content() (string, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(data), nil
}

// SetContent replaces the file's contents. Listeners see the write as a
// change if Run is active.
func (d *Document) SetContent(content string) error {
	if err := os.WriteFile(d.path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// OnContentChanged registers fn and returns a function that unregisters it.
// fn runs on the goroutine executing Run.
func (d *Document) OnContentChanged(fn func()) func() {
	return d.changed.Connect(func(struct{}) { fn() })
}

// Run delivers change events until ctx is done or the Document is closed.
func (d *Document) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-d.watcher.Events:
			if !ok {
				return nil
			}
			d.handleEvent(event)
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return nil
			}
			d.logger.Warn("document watcher error", "path", d.path, "error", err)
		}
	}
}

// Close stops watching. It is safe to call more than once.
func (d *Document) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.watcher.Close()
	})
	return d.closeErr
}

func (d *Document) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != d.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			d.logger.Debug("document file moved away", "path", d.path, "op", event.Op.String())
		}
		return
	}
	d.logger.Debug("document changed", "path", d.path, "op", event.Op.String())
	d.changed.Emit(struct{}{})
}

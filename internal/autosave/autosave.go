package autosave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/clock"
	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/content"
)

// DefaultDelay is the quiet period after the last edit before saving.
const DefaultDelay = 2000 * time.Millisecond

// ErrReleased is returned by Flush after Release.
var ErrReleased = errors.New("autosave: released")

// ErrRefused is reported when the store refuses the newest save because it
// already holds a later revision from the same writer.
var ErrRefused = errors.New("autosave: store holds a newer revision")

// Document is an open, editable document.
type Document interface {
	// Content returns the current serialized document.
	Content() (string, error)

	// OnContentChanged registers fn for every edit and returns a function
	// that unregisters it.
	OnContentChanged(fn func()) (unsubscribe func())
}

// Saver keeps one working copy in sync with one open document.
//
// Thread-safety: Saver is safe for concurrent use. Change notifications,
// timer callbacks and store completions may arrive on any goroutine.
type Saver struct {
	doc   Document
	store content.Store
	path  string

	delay   time.Duration
	clock   clock.Clock
	logger  *slog.Logger
	onError func(error)
	writer  string
	seq     *clock.Sequence

	mu            sync.Mutex
	lastPersisted string
	lastCompleted int64 // seq of the newest completed save
	timer         clock.Timer
	generation    int // bumped on every reschedule; stale timer callbacks compare against it
	unsubscribe   func()
	released      bool
}

// Option configures a Saver.
type Option func(*Saver)

// WithDelay sets the debounce delay. Default: DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(s *Saver) {
		s.delay = d
	}
}

// WithClock sets the timer source. Default: clock.Wall{}.
func WithClock(c clock.Clock) Option {
	return func(s *Saver) {
		s.clock = c
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Saver) {
		s.logger = l
	}
}

// WithErrorHandler registers fn to receive persistence failures.
// Failures are not retried; the next differing edit triggers a new attempt.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Saver) {
		s.onError = fn
	}
}

// WithWriter sets the writer identity stamped on sequenced writes.
// Default: a fresh UUIDv7.
func WithWriter(id string) Option {
	return func(s *Saver) {
		s.writer = id
	}
}

// Attach starts watching doc and saving it to path in store.
// The document's content at attach time counts as already persisted.
func Attach(doc Document, store content.Store, path string, opts ...Option) (*Saver, error) {
	s := &Saver{
		doc:    doc,
		store:  store,
		path:   path,
		delay:  DefaultDelay,
		clock:  clock.Wall{},
		logger: slog.Default(),
		seq:    clock.NewSequence(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.writer == "" {
		s.writer = uuid.Must(uuid.NewV7()).String()
	}
	s.logger = s.logger.With("path", path)
	s.resumeSequence()

	initial, err := doc.Content()
	if err != nil {
		return nil, fmt.Errorf("autosave attach %q: read content: %w", path, err)
	}
	s.lastPersisted = initial

	unsubscribe := doc.OnContentChanged(s.onChange)
	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	return s, nil
}

// resumeSequence continues numbering after the stored revision when it was
// written by the same writer, so a reattached saver is not refused.
func (s *Saver) resumeSequence() {
	seqStore, ok := s.store.(content.SequencedStore)
	if !ok {
		return
	}
	e, err := seqStore.Get(context.Background(), s.path, content.GetOptions{})
	switch {
	case errors.Is(err, content.ErrNotFound):
	case err != nil:
		s.logger.Warn("autosave revision lookup failed", "error", err)
	case e.Revision.Writer == s.writer:
		s.seq = clock.NewSequenceAt(e.Revision.Seq)
		s.logger.Debug("autosave resuming revisions", "after", e.Revision.Seq)
	}
}

// Path returns the working-copy path being saved.
func (s *Saver) Path() string {
	return s.path
}

// LastPersisted returns the content of the newest completed save.
func (s *Saver) LastPersisted() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPersisted
}

// Pending reports whether a debounced save is scheduled.
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Release stops watching the document and cancels any pending save.
// Saves already in flight complete normally. Release is idempotent.
func (s *Saver) Release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	s.stopTimerLocked()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	s.logger.Debug("autosave released")
}

// Flush cancels the pending timer and saves now if the content differs
// from the last persisted content.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return ErrReleased
	}
	s.stopTimerLocked()
	s.mu.Unlock()

	return s.save(ctx)
}

func (s *Saver) onChange() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return
	}
	s.stopTimerLocked()
	s.generation++
	gen := s.generation
	s.timer = s.clock.AfterFunc(s.delay, func() { s.expire(gen) })
}

// expire runs when the debounce timer for generation gen runs out.
func (s *Saver) expire(gen int) {
	s.mu.Lock()
	if s.released || gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	_ = s.save(context.Background())
}

// stopTimerLocked cancels the pending timer. Must be called with s.mu held.
func (s *Saver) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.generation++
}

func (s *Saver) save(ctx context.Context) error {
	current, err := s.doc.Content()
	if err != nil {
		err = fmt.Errorf("autosave %q: read content: %w", s.path, err)
		s.report(err)
		return err
	}

	s.mu.Lock()
	if current == s.lastPersisted {
		s.mu.Unlock()
		s.logger.Debug("autosave skipped, content unchanged")
		return nil
	}
	seq := s.seq.Next()
	s.mu.Unlock()

	applied, err := s.persist(ctx, current, seq)
	if err != nil {
		err = fmt.Errorf("autosave %q: %w", s.path, err)
		s.report(err)
		return err
	}

	s.mu.Lock()
	if !applied && seq >= s.seq.Current() {
		s.mu.Unlock()
		err = fmt.Errorf("autosave %q: seq %d: %w", s.path, seq, ErrRefused)
		s.report(err)
		return err
	}
	defer s.mu.Unlock()

	// A refused write that a later save of ours supersedes is stale.
	if !applied || seq < s.lastCompleted {
		s.logger.Debug("discarding stale autosave completion", "seq", seq, "newest", s.lastCompleted, "applied", applied)
		return nil
	}
	s.lastCompleted = seq
	s.lastPersisted = current
	s.logger.Info("autosave done", "seq", seq, "bytes", len(current))
	return nil
}

func (s *Saver) persist(ctx context.Context, body string, seq int64) (bool, error) {
	if seqStore, ok := s.store.(content.SequencedStore); ok {
		return seqStore.SaveRevision(ctx, s.path, body, content.Revision{Writer: s.writer, Seq: seq})
	}
	if err := s.store.Save(ctx, s.path, body); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Saver) report(err error) {
	s.logger.Error("autosave failed", "error", err)
	if s.onError != nil {
		s.onError(err)
	}
}

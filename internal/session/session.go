// Package session wires a notebook session together: it fetches the
// published source, reconciles it with the stored working copy, opens the
// working copy, starts autosaving it, and bootstraps the kernel.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/autosave"
	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/content"
	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/fetch"
	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/kernel"
	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/reconcile"
)

// Opener opens the document session for a working-copy path.
type Opener interface {
	Open(ctx context.Context, path string) (autosave.Document, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, path string) (autosave.Document, error)

func (f OpenerFunc) Open(ctx context.Context, path string) (autosave.Document, error) {
	return f(ctx, path)
}

// Options holds a session's collaborators.
type Options struct {
	Store   content.Store
	Fetcher fetch.Fetcher
	Opener  Opener

	// Prompter answers the keep-or-reset question when the published source
	// changed under existing edits. Nil keeps the edits.
	Prompter reconcile.Prompter

	// Kernel and Program are optional. Program is submitted once, when
	// Kernel first reports idle.
	Kernel  kernel.Kernel
	Program string

	// IDs defaults to UUIDv7Generator.
	IDs IDGenerator

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Autosave options are appended after the session's own.
	Autosave []autosave.Option
}

// Stage names the step of Start that failed.
type Stage string

const (
	StageFetch     Stage = "fetch"
	StageReconcile Stage = "reconcile"
	StageOpen      Stage = "open"
	StageAutosave  Stage = "autosave"
)

// StartError reports why a session could not start.
type StartError struct {
	URL   string
	Stage Stage
	Err   error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("session start %s %s: %v", e.Stage, e.URL, e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}

// Session is an open notebook.
type Session struct {
	ID       string
	Source   fetch.CanonicalSource
	Result   reconcile.Result
	Document autosave.Document

	saver     *autosave.Saver
	sequencer *kernel.Sequencer
	logger    *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Start opens the notebook published at rawURL.
//
// A failure to fetch, reconcile or open aborts the start with a
// *StartError. Store write failures during reconciliation do not; they are
// reported in Result.SaveErrors.
func Start(ctx context.Context, rawURL string, opts Options) (*Session, error) {
	if opts.Store == nil || opts.Fetcher == nil || opts.Opener == nil {
		return nil, errors.New("session: Store, Fetcher and Opener are required")
	}
	ids := opts.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{ID: ids.Generate()}
	s.logger = logger.With("session", s.ID)

	src, err := opts.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, &StartError{URL: rawURL, Stage: StageFetch, Err: err}
	}
	s.Source = src
	s.logger.Info("fetched notebook source", "url", src.URL, "path", src.Path, "bytes", len(src.Content))

	rec := reconcile.New(opts.Store, opts.Prompter, reconcile.WithLogger(s.logger))
	s.Result, err = rec.Reconcile(ctx, src.Path, src.Content)
	if err != nil {
		return nil, &StartError{URL: rawURL, Stage: StageReconcile, Err: err}
	}

	doc, err := opts.Opener.Open(ctx, s.Result.WorkingCopyPath)
	if err != nil {
		return nil, &StartError{URL: rawURL, Stage: StageOpen, Err: err}
	}
	s.Document = doc

	saverOpts := append([]autosave.Option{
		autosave.WithLogger(s.logger),
		autosave.WithWriter(s.ID),
	}, opts.Autosave...)
	s.saver, err = autosave.Attach(doc, opts.Store, s.Result.WorkingCopyPath, saverOpts...)
	if err != nil {
		return nil, &StartError{URL: rawURL, Stage: StageAutosave, Err: err}
	}

	if opts.Kernel != nil && opts.Program != "" {
		s.sequencer = kernel.NewSequencer(kernel.WithLogger(s.logger))
		// Submission may happen after Start returns; it must outlive ctx.
		s.sequencer.Run(context.WithoutCancel(ctx), opts.Kernel, opts.Program)
	}

	s.logger.Info("session started", "working_copy", s.Result.WorkingCopyPath)
	return s, nil
}

// WorkingCopyPath returns the store path the session edits.
func (s *Session) WorkingCopyPath() string {
	return s.Result.WorkingCopyPath
}

// Saver returns the session's autosaver.
func (s *Session) Saver() *autosave.Saver {
	return s.saver
}

// Bootstrapped reports whether the initialization program was submitted.
func (s *Session) Bootstrapped() bool {
	return s.sequencer != nil && s.sequencer.Fired()
}

// Close persists any pending edit, then stops autosaving and stops waiting
// for the kernel. It is safe to call more than once; later calls return the
// first call's result.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.saver.Flush(ctx)
		s.saver.Release()
		if s.sequencer != nil {
			s.sequencer.Cancel()
		}
		if s.closeErr != nil {
			s.logger.Warn("final save failed", "error", s.closeErr)
		} else {
			s.logger.Info("session closed")
		}
	})
	return s.closeErr
}

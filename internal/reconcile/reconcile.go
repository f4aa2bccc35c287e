package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/content"
)

// Decision records what the reconciler found. It is never persisted.
type Decision struct {
	BaseChanged        bool
	WorkingCopyExisted bool

	// Prompted is true when the user was asked; Choice holds the answer.
	Prompted bool
	Choice   Choice
}

// Result is the outcome of one reconciliation.
type Result struct {
	WorkingCopyPath string
	Decision        Decision

	// SaveErrors holds store writes that failed. They are not fatal: the
	// session still opens, with a stale entry until the next successful write.
	SaveErrors []error

	// LookupError is set when the working copy could not be looked up. The
	// working copy is then left as it is and no confirmation is asked.
	LookupError error
}

// Reconciler runs the session-start protocol against a content store.
type Reconciler struct {
	store    content.Store
	prompter Prompter
	logger   *slog.Logger
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = l
	}
}

// New creates a Reconciler. A nil prompter answers every question with keep.
func New(store content.Store, prompter Prompter, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:    store,
		prompter: prompter,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile runs the protocol for a fetched canonical source and returns
// the working-copy path to open.
//
// The only error returned is ctx's, when it is already done on entry.
// Store failures after that are logged and collected in Result.SaveErrors
// and Result.LookupError.
func (r *Reconciler) Reconcile(ctx context.Context, canonicalPath, canonicalContent string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	canonicalPath = content.NormalizePath(canonicalPath)
	res := Result{WorkingCopyPath: content.WorkingCopyPath(canonicalPath)}
	log := r.logger.With("path", canonicalPath, "working_copy", res.WorkingCopyPath)

	// Step 1: did the published source change?
	res.Decision.BaseChanged = r.baseChanged(ctx, log, canonicalPath, canonicalContent)

	// Step 2: seed the working copy if absent. Only a confirmed miss counts
	// as absent; when the lookup fails the working copy may hold edits, so it
	// is neither seeded nor offered for reset.
	existed, err := content.Exists(ctx, r.store, res.WorkingCopyPath)
	if err != nil {
		log.Warn("working copy lookup failed, leaving it untouched", "error", err)
		res.Decision.WorkingCopyExisted = true
		res.LookupError = err
	} else {
		res.Decision.WorkingCopyExisted = existed
	}
	if err == nil && !existed {
		log.Debug("seeding working copy")
		if err := r.store.Save(ctx, res.WorkingCopyPath, canonicalContent); err != nil {
			log.Error("seeding working copy failed", "error", err)
			res.SaveErrors = append(res.SaveErrors, err)
		}
	}

	if !res.Decision.BaseChanged {
		log.Debug("canonical source unchanged")
		return res, nil
	}

	// Step 3: keep the canonical entry current.
	if err := r.store.Save(ctx, canonicalPath, canonicalContent); err != nil {
		log.Error("updating canonical entry failed", "error", err)
		res.SaveErrors = append(res.SaveErrors, err)
	} else {
		log.Debug("updated canonical entry")
	}

	// Step 4: the user decides what happens to existing edits.
	if res.Decision.WorkingCopyExisted && res.LookupError == nil {
		res.Decision.Prompted = true
		res.Decision.Choice = r.confirm(ctx, log)
		if res.Decision.Choice == ChoiceReset {
			if err := r.store.Save(ctx, res.WorkingCopyPath, canonicalContent); err != nil {
				log.Error("resetting working copy failed", "error", err)
				res.SaveErrors = append(res.SaveErrors, err)
			} else {
				log.Info("reset working copy to updated source")
			}
		}
	}

	return res, nil
}

func (r *Reconciler) baseChanged(ctx context.Context, log *slog.Logger, canonicalPath, canonicalContent string) bool {
	stored, err := r.store.Get(ctx, canonicalPath, content.GetOptions{Content: true})
	if errors.Is(err, content.ErrNotFound) {
		return true
	}
	if err != nil {
		log.Warn("canonical entry lookup failed, treating as missing", "error", err)
		return true
	}
	return stored.Content != canonicalContent
}

func (r *Reconciler) confirm(ctx context.Context, log *slog.Logger) Choice {
	if r.prompter == nil {
		log.Info("no prompter configured, keeping working copy")
		return ChoiceKeep
	}

	choice, err := r.prompter.Confirm(ctx, UpdateConfirmation)
	switch {
	case err == nil:
		log.Info("user answered update confirmation", "choice", choice)
		return choice
	case errors.Is(err, ErrConfirmationCancelled):
		log.Info("update confirmation dismissed, keeping working copy")
	default:
		log.Warn("update confirmation failed, keeping working copy", "error", err)
	}
	return ChoiceKeep
}

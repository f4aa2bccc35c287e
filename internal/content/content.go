package content

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrNotFound is returned by Store.Get when no entry exists at the path.
var ErrNotFound = errors.New("content: entry not found")

// WorkingCopyPrefix is prepended to a canonical path to address its working copy.
const WorkingCopyPrefix = "autosaved."

// Revision orders writes coming from one writer. Seq increases with every
// write a writer starts; revisions from different writers are not comparable.
type Revision struct {
	Writer string
	Seq    int64
}

// Entry is a stored document.
type Entry struct {
	Path string

	// Content is empty when the entry was read with GetOptions.Content unset.
	Content string

	Revision Revision
}

// GetOptions controls what Get returns.
type GetOptions struct {
	// Content requests the document bytes. Without it Get only confirms
	// that the entry exists.
	Content bool
}

// Store is a key-addressed document store.
type Store interface {
	Get(ctx context.Context, path string, opts GetOptions) (Entry, error)
	Save(ctx context.Context, path, content string) error
}

// SequencedStore is a Store that refuses to let an older revision from a
// writer overwrite a newer one from the same writer.
//
// SaveRevision reports applied=false when the write was refused.
type SequencedStore interface {
	Store
	SaveRevision(ctx context.Context, path, content string, rev Revision) (applied bool, err error)
}

// NormalizePath returns the NFC form of a document path.
func NormalizePath(path string) string {
	return norm.NFC.String(strings.TrimSpace(path))
}

// WorkingCopyPath derives the working-copy path for a canonical path.
func WorkingCopyPath(canonicalPath string) string {
	return WorkingCopyPrefix + NormalizePath(canonicalPath)
}

// IsWorkingCopyPath reports whether path addresses a working copy.
func IsWorkingCopyPath(path string) bool {
	return strings.HasPrefix(path, WorkingCopyPrefix)
}

// Exists reports whether an entry exists at path. Errors other than
// ErrNotFound are returned unchanged.
func Exists(ctx context.Context, s Store, path string) (bool, error) {
	_, err := s.Get(ctx, path, GetOptions{})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

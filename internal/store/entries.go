package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/content"
)

// Get returns the entry at path. A missing entry yields content.ErrNotFound.
func (s *Store) Get(ctx context.Context, path string, opts content.GetOptions) (content.Entry, error) {
	query := `SELECT path, '', writer, seq FROM entries WHERE path = ?`
	if opts.Content {
		query = `SELECT path, content, writer, seq FROM entries WHERE path = ?`
	}

	var e content.Entry
	err := s.db.QueryRowContext(ctx, query, path).Scan(&e.Path, &e.Content, &e.Revision.Writer, &e.Revision.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return content.Entry{}, fmt.Errorf("get %q: %w", path, content.ErrNotFound)
	}
	if err != nil {
		return content.Entry{}, fmt.Errorf("get %q: %w", path, err)
	}
	return e, nil
}

// Save overwrites the entry at path and clears its revision.
func (s *Store) Save(ctx context.Context, path, body string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (path, content, writer, seq, updated_at)
		VALUES (?, ?, '', 0, ?)
		ON CONFLICT(path) DO UPDATE SET
			content = excluded.content,
			writer = excluded.writer,
			seq = excluded.seq,
			updated_at = excluded.updated_at
	`, path, body, s.timestamp())
	if err != nil {
		return fmt.Errorf("save %q: %w", path, err)
	}
	return nil
}

// SaveRevision writes body unless the stored entry already holds a revision
// from the same writer with an equal or higher sequence number.
func (s *Store) SaveRevision(ctx context.Context, path, body string, rev content.Revision) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (path, content, writer, seq, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content = excluded.content,
			writer = excluded.writer,
			seq = excluded.seq,
			updated_at = excluded.updated_at
		WHERE entries.writer <> excluded.writer OR excluded.seq > entries.seq
	`, path, body, rev.Writer, rev.Seq, s.timestamp())
	if err != nil {
		return false, fmt.Errorf("save %q: %w", path, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save %q: rows affected: %w", path, err)
	}
	return n > 0, nil
}

// List returns all stored paths ordered by path.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM entries ORDER BY path COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	paths := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return paths, nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

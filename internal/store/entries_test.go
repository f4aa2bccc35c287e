package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/content"
)

func TestGet_Missing(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Get(context.Background(), "nb.json", content.GetOptions{Content: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, content.ErrNotFound))
}

func TestSave_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.Save(ctx, "nb.json", `{"cells":[]}`))

	e, err := s.Get(ctx, "nb.json", content.GetOptions{Content: true})
	require.NoError(t, err)
	assert.Equal(t, "nb.json", e.Path)
	assert.Equal(t, `{"cells":[]}`, e.Content)
	assert.Equal(t, content.Revision{}, e.Revision)
}

func TestGet_WithoutContent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.Save(ctx, "nb.json", "body"))

	e, err := s.Get(ctx, "nb.json", content.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "nb.json", e.Path)
	assert.Empty(t, e.Content)
}

func TestSave_Overwrites(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	require.NoError(t, s.Save(ctx, "p", "one"))
	require.NoError(t, s.Save(ctx, "p", "two"))

	e, err := s.Get(ctx, "p", content.GetOptions{Content: true})
	require.NoError(t, err)
	assert.Equal(t, "two", e.Content)
}

func TestSaveRevision_RefusesOlderFromSameWriter(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	applied, err := s.SaveRevision(ctx, "autosaved.nb.json", "newer", content.Revision{Writer: "session-1", Seq: 5})
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = s.SaveRevision(ctx, "autosaved.nb.json", "stale", content.Revision{Writer: "session-1", Seq: 4})
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = s.SaveRevision(ctx, "autosaved.nb.json", "same", content.Revision{Writer: "session-1", Seq: 5})
	require.NoError(t, err)
	assert.False(t, applied, "equal seq is not newer")

	e, err := s.Get(ctx, "autosaved.nb.json", content.GetOptions{Content: true})
	require.NoError(t, err)
	assert.Equal(t, "newer", e.Content)
	assert.Equal(t, content.Revision{Writer: "session-1", Seq: 5}, e.Revision)
}

func TestSaveRevision_OtherWriterWins(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.SaveRevision(ctx, "p", "first session", content.Revision{Writer: "session-1", Seq: 40})
	require.NoError(t, err)

	applied, err := s.SaveRevision(ctx, "p", "second session", content.Revision{Writer: "session-2", Seq: 1})
	require.NoError(t, err)
	assert.True(t, applied)

	e, err := s.Get(ctx, "p", content.GetOptions{Content: true})
	require.NoError(t, err)
	assert.Equal(t, "second session", e.Content)
}

func TestSave_ClearsRevision(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	_, err := s.SaveRevision(ctx, "p", "auto", content.Revision{Writer: "w", Seq: 9})
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "p", "reset"))

	applied, err := s.SaveRevision(ctx, "p", "auto again", content.Revision{Writer: "w", Seq: 1})
	require.NoError(t, err)
	assert.True(t, applied, "an unconditional save resets ordering")
}

func TestList(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	paths, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, paths)

	require.NoError(t, s.Save(ctx, "nb.json", "a"))
	require.NoError(t, s.Save(ctx, "autosaved.nb.json", "b"))

	paths, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"autosaved.nb.json", "nb.json"}, paths)
}

func TestEntries_SurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Save(ctx, "nb.json", "persisted"))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	e, err := s2.Get(ctx, "nb.json", content.GetOptions{Content: true})
	require.NoError(t, err)
	assert.Equal(t, "persisted", e.Content)
}

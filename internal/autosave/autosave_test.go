package autosave_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/autosave"
	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/content"
	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/testutil"
)

const wc = "autosaved.nb.json"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	doc   *testutil.FakeDocument
	store *testutil.RecordingStore
	clock *testutil.ManualClock
	saver *autosave.Saver
}

func attach(t *testing.T, initial string, opts ...autosave.Option) *fixture {
	t.Helper()
	f := &fixture{
		doc:   testutil.NewFakeDocument(initial),
		store: testutil.NewRecordingStore(),
		clock: testutil.NewManualClock(),
	}
	opts = append([]autosave.Option{autosave.WithClock(f.clock), autosave.WithWriter("session-1")}, opts...)
	s, err := autosave.Attach(f.doc, f.store, wc, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Release)
	f.saver = s
	return f
}

func contents(calls []testutil.SaveCall) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Content
	}
	return out
}

func TestAutosave_SavesAfterQuietPeriod(t *testing.T) {
	f := attach(t, "A")

	f.doc.SetContent("B")
	f.clock.Advance(autosave.DefaultDelay - time.Millisecond)
	assert.Empty(t, f.store.Saves(), "no save before the delay")
	assert.True(t, f.saver.Pending())

	f.clock.Advance(time.Millisecond)
	assert.Equal(t, []string{"B"}, contents(f.store.Saves()))
	assert.Equal(t, "B", f.store.Content(wc))
	assert.Equal(t, "B", f.saver.LastPersisted())
	assert.False(t, f.saver.Pending())
}

func TestAutosave_CoalescesBursts(t *testing.T) {
	f := attach(t, "A")

	f.doc.SetContent("B")
	f.clock.Advance(time.Second)
	f.doc.SetContent("C")
	f.clock.Advance(1900 * time.Millisecond)
	f.doc.SetContent("D")
	f.clock.Advance(1999 * time.Millisecond)
	assert.Empty(t, f.store.Saves(), "each edit restarts the timer")

	f.clock.Advance(time.Millisecond)
	assert.Equal(t, []string{"D"}, contents(f.store.Saves()))
}

func TestAutosave_IdenticalContentWritesOnce(t *testing.T) {
	f := attach(t, "A")

	f.doc.SetContent("B")
	f.clock.Advance(autosave.DefaultDelay)
	f.doc.SetContent("B")
	f.clock.Advance(autosave.DefaultDelay)

	assert.Len(t, f.store.Saves(), 1)
}

func TestAutosave_NoWriteWhenEditReverted(t *testing.T) {
	f := attach(t, "A")

	f.doc.SetContent("B")
	f.doc.SetContent("A")
	f.clock.Advance(autosave.DefaultDelay)

	assert.Empty(t, f.store.Saves())
}

func TestAutosave_FinalEditAlwaysPersisted(t *testing.T) {
	steps := []struct {
		content string
		gap     time.Duration
	}{
		{"v1", 10 * time.Millisecond},
		{"v2", 2500 * time.Millisecond},
		{"v3", 100 * time.Millisecond},
		{"v4", 1999 * time.Millisecond},
		{"v5", 2 * time.Second},
		{"v6", 0},
		{"v7", 300 * time.Millisecond},
	}

	f := attach(t, "v0")
	for _, s := range steps {
		f.doc.SetContent(s.content)
		f.clock.Advance(s.gap)
	}
	f.clock.Advance(autosave.DefaultDelay)

	got, err := f.doc.Content()
	require.NoError(t, err)
	assert.Equal(t, got, f.store.Content(wc))
	assert.Equal(t, "v7", f.store.Content(wc))
}

func TestAutosave_EditDuringInFlightSaveTriggersAnotherSave(t *testing.T) {
	f := attach(t, "A")

	var once sync.Once
	f.store.BeforeSave(func(call testutil.SaveCall) {
		// The user keeps typing while "B" is being written.
		once.Do(func() { f.doc.SetContent("C") })
	})

	f.doc.SetContent("B")
	f.clock.Advance(autosave.DefaultDelay)
	assert.Equal(t, "B", f.saver.LastPersisted(), "last persisted is the submitted content")
	assert.True(t, f.saver.Pending())

	f.clock.Advance(autosave.DefaultDelay)
	assert.Equal(t, []string{"B", "C"}, contents(f.store.Saves()))
	assert.Equal(t, "C", f.store.Content(wc))
}

func TestAutosave_FailureReportedNotRetried(t *testing.T) {
	var mu sync.Mutex
	var reported []error
	f := attach(t, "A", autosave.WithErrorHandler(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, err)
	}))

	boom := errors.New("quota exceeded")
	f.store.FailSaves(boom)
	f.doc.SetContent("B")
	f.clock.Advance(autosave.DefaultDelay)
	f.clock.Advance(10 * autosave.DefaultDelay)

	assert.Len(t, f.store.Saves(), 1, "no automatic retry")
	mu.Lock()
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], boom)
	mu.Unlock()
	assert.Equal(t, "A", f.saver.LastPersisted())

	// The next edit re-triggers an attempt even though the content is unchanged.
	f.store.FailSaves(nil)
	f.doc.SetContent("B")
	f.clock.Advance(autosave.DefaultDelay)
	assert.Len(t, f.store.Saves(), 2)
	assert.Equal(t, "B", f.store.Content(wc))
}

func TestAutosave_ReleaseCancelsPendingSave(t *testing.T) {
	f := attach(t, "A")

	f.doc.SetContent("B")
	f.saver.Release()
	f.saver.Release()
	f.clock.Advance(autosave.DefaultDelay)
	f.doc.SetContent("C")
	f.clock.Advance(autosave.DefaultDelay)

	assert.Empty(t, f.store.Saves())
	assert.Equal(t, 0, f.doc.Listeners())
	assert.Equal(t, 0, f.clock.Pending())
}

func TestAutosave_Flush(t *testing.T) {
	f := attach(t, "A")

	f.doc.SetContent("B")
	require.NoError(t, f.saver.Flush(context.Background()))
	assert.Equal(t, "B", f.store.Content(wc))
	assert.False(t, f.saver.Pending())

	// The cancelled timer must not save again.
	f.clock.Advance(autosave.DefaultDelay)
	assert.Len(t, f.store.Saves(), 1)

	require.NoError(t, f.saver.Flush(context.Background()), "nothing to flush")
	assert.Len(t, f.store.Saves(), 1)

	f.saver.Release()
	assert.ErrorIs(t, f.saver.Flush(context.Background()), autosave.ErrReleased)
}

func TestAutosave_StampsRevisions(t *testing.T) {
	f := attach(t, "A")

	f.doc.SetContent("B")
	f.clock.Advance(autosave.DefaultDelay)
	f.doc.SetContent("C")
	f.clock.Advance(autosave.DefaultDelay)

	saves := f.store.Saves()
	require.Len(t, saves, 2)
	assert.True(t, saves[0].Sequenced)
	assert.Equal(t, content.Revision{Writer: "session-1", Seq: 1}, saves[0].Revision)
	assert.Equal(t, content.Revision{Writer: "session-1", Seq: 2}, saves[1].Revision)
}

// overlapped runs a save of "B" that stays in flight while a later save of
// "C" starts and completes, then lets "B" finish.
func overlapped(t *testing.T, f *fixture) {
	t.Helper()
	started := make(chan struct{})
	release := make(chan struct{})
	f.store.BeforeSave(func(call testutil.SaveCall) {
		if call.Content == "B" {
			close(started)
			<-release
		}
	})

	f.doc.SetContent("B")
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.clock.Advance(autosave.DefaultDelay)
	}()
	<-started

	f.doc.SetContent("C")
	f.clock.Advance(autosave.DefaultDelay)
	assert.Equal(t, "C", f.saver.LastPersisted())

	close(release)
	<-done
}

func TestAutosave_StaleCompletionDiscarded(t *testing.T) {
	f := attach(t, "A")

	overlapped(t, f)

	assert.Equal(t, "C", f.saver.LastPersisted(), "older completion must not move last persisted")
	assert.Equal(t, "C", f.store.Content(wc), "sequenced store refuses the older write")
	assert.Equal(t, []string{"B", "C"}, contents(f.store.Saves()))
}

func TestAutosave_ReattachResumesRevisions(t *testing.T) {
	f := attach(t, "A")
	for _, v := range []string{"v1", "v2", "v3"} {
		f.doc.SetContent(v)
		f.clock.Advance(autosave.DefaultDelay)
	}
	f.saver.Release()

	doc := testutil.NewFakeDocument("v3")
	s, err := autosave.Attach(doc, f.store, wc, autosave.WithClock(f.clock), autosave.WithWriter("session-1"))
	require.NoError(t, err)
	defer s.Release()

	doc.SetContent("v4")
	f.clock.Advance(autosave.DefaultDelay)

	assert.Equal(t, "v4", f.store.Content(wc))
	assert.Equal(t, "v4", s.LastPersisted())
	saves := f.store.Saves()
	assert.Equal(t, content.Revision{Writer: "session-1", Seq: 4}, saves[len(saves)-1].Revision)
}

func TestAutosave_RefusedWriteReported(t *testing.T) {
	var mu sync.Mutex
	var reported []error
	f := attach(t, "A", autosave.WithErrorHandler(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, err)
	}))

	// Another saver with the same writer moved the entry ahead after attach.
	_, err := f.store.MemoryStore.SaveRevision(context.Background(), wc, "elsewhere", content.Revision{Writer: "session-1", Seq: 9})
	require.NoError(t, err)

	f.doc.SetContent("B")
	f.clock.Advance(autosave.DefaultDelay)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], autosave.ErrRefused)
	assert.Equal(t, "A", f.saver.LastPersisted())
	assert.Equal(t, "elsewhere", f.store.Content(wc))
}

// plainStore hides SaveRevision so the saver falls back to Save.
type plainStore struct {
	content.Store
}

func TestAutosave_StaleCompletionDiscardedWithPlainStore(t *testing.T) {
	doc := testutil.NewFakeDocument("A")
	rec := testutil.NewRecordingStore()
	clk := testutil.NewManualClock()
	s, err := autosave.Attach(doc, plainStore{rec}, wc, autosave.WithClock(clk))
	require.NoError(t, err)
	defer s.Release()

	overlapped(t, &fixture{doc: doc, store: rec, clock: clk, saver: s})

	assert.Equal(t, "C", s.LastPersisted())
	for _, call := range rec.Saves() {
		assert.False(t, call.Sequenced)
	}

	// The plain store was clobbered by the late write; the next edit repairs it.
	doc.SetContent("C2")
	clk.Advance(autosave.DefaultDelay)
	assert.Equal(t, "C2", rec.Content(wc))
}

func TestAttach_ContentError(t *testing.T) {
	doc := testutil.NewFakeDocument("A")
	doc.FailContent(errors.New("model not ready"))

	_, err := autosave.Attach(doc, testutil.NewRecordingStore(), wc)
	require.Error(t, err)
	assert.Equal(t, 0, doc.Listeners())
}

func TestAutosave_ContentErrorReported(t *testing.T) {
	var got error
	f := attach(t, "A", autosave.WithErrorHandler(func(err error) { got = err }))

	f.doc.SetContent("B")
	f.doc.FailContent(errors.New("serialize failed"))
	f.clock.Advance(autosave.DefaultDelay)

	require.Error(t, got)
	assert.Empty(t, f.store.Saves())
}

func TestAutosave_WallClock(t *testing.T) {
	doc := testutil.NewFakeDocument("A")
	st := testutil.NewRecordingStore()
	s, err := autosave.Attach(doc, st, wc, autosave.WithDelay(10*time.Millisecond))
	require.NoError(t, err)
	defer s.Release()

	doc.SetContent("B")
	require.Eventually(t, func() bool {
		return st.Content(wc) == "B"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "autosaved.nb.json", s.Path())
}

package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/kernel"
)

func TestFixedIDGenerator(t *testing.T) {
	assert.Equal(t, "s-1", NewFixedIDGenerator("s-1").Generate())
	assert.Equal(t, "test-session-default", NewFixedIDGenerator("").Generate())
}

func TestFakeKernel_StatusNotifications(t *testing.T) {
	k := NewFakeKernel(kernel.StatusStarting)
	var seen []kernel.Status
	unsubscribe := k.OnStatusChanged(func(st kernel.Status) { seen = append(seen, st) })

	k.SetStatus(kernel.StatusIdle)
	unsubscribe()
	k.SetStatus(kernel.StatusBusy)

	assert.Equal(t, []kernel.Status{kernel.StatusIdle}, seen)
	assert.Equal(t, kernel.StatusBusy, k.Status())
	assert.Equal(t, 0, k.Subscribers())
}

func TestFakeKernel_Execute(t *testing.T) {
	k := NewFakeKernel(kernel.StatusIdle)
	require.NoError(t, k.Execute(context.Background(), "print(1)", kernel.ExecuteOptions{}))

	boom := errors.New("boom")
	k.FailExecute(boom)
	assert.ErrorIs(t, k.Execute(context.Background(), "print(2)", kernel.ExecuteOptions{}), boom)

	require.Len(t, k.Executed(), 2)
	assert.Equal(t, "print(1)", k.Executed()[0].Code)
}

func TestFakeDocument(t *testing.T) {
	d := NewFakeDocument("a")
	changes := 0
	d.OnContentChanged(func() { changes++ })

	d.SetContent("b")
	got, err := d.Content()
	require.NoError(t, err)
	assert.Equal(t, "b", got)
	assert.Equal(t, 1, changes)
}

func TestRecordingStore(t *testing.T) {
	ctx := context.Background()
	s := NewRecordingStore()

	require.NoError(t, s.Save(ctx, "p", "one"))
	boom := errors.New("disk full")
	s.FailSaves(boom)
	assert.ErrorIs(t, s.Save(ctx, "p", "two"), boom)

	assert.Len(t, s.Saves(), 2, "failed attempts are recorded too")
	assert.Equal(t, "one", s.Content("p"))
	assert.Len(t, s.SavesTo("p"), 2)
	assert.Empty(t, s.SavesTo("q"))
}

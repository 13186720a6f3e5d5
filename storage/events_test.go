package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tick returns a clock that advances one second per call.
func tick(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func TestIsScraperRunning(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	store.now = tick(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	running, err := store.IsScraperRunning(ctx, 7)
	require.NoError(t, err)
	assert.False(t, running, "never started")

	require.NoError(t, store.AddEvent(ctx, EventScrapeStart, 7))
	running, err = store.IsScraperRunning(ctx, 7)
	require.NoError(t, err)
	assert.True(t, running, "started, never ended")

	require.NoError(t, store.AddEvent(ctx, EventScrapeEnd, 7))
	running, err = store.IsScraperRunning(ctx, 7)
	require.NoError(t, err)
	assert.False(t, running, "ended after start")

	require.NoError(t, store.AddEvent(ctx, EventScrapeStart, 7))
	running, err = store.IsScraperRunning(ctx, 7)
	require.NoError(t, err)
	assert.True(t, running, "restarted")

	running, err = store.IsScraperRunning(ctx, 8)
	require.NoError(t, err)
	assert.False(t, running, "other scraper")
}

func TestLastEvent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = tick(start)

	require.NoError(t, store.AddEvent(ctx, EventScrapeStart, 3))
	require.NoError(t, store.AddEvent(ctx, EventScrapeEnd, 3))

	ev, ok, err := store.LastEvent(ctx, 3, EventScrapeStart, EventScrapeEnd)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, EventScrapeEnd, ev.Type)
	assert.EqualValues(t, 3, ev.RelevantID)
	assert.True(t, ev.Timestamp.Equal(start.Add(2*time.Second)))

	_, ok, err = store.LastEvent(ctx, 4, EventScrapeStart)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = store.LastEvent(ctx, 3)
	assert.Error(t, err)
}

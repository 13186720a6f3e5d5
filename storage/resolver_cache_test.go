package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cersei/entry"
)

func TestRecordItem_LookupItems(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.RecordItem(ctx, "en", "place", "Berlin", 64))
	require.NoError(t, store.RecordItem(ctx, "en", "place", "Berlin", 64))

	items, err := store.LookupItems(ctx, "en", "place", "Berlin")
	require.NoError(t, err)
	assert.Equal(t, []int64{64}, items)

	for _, key := range [][3]string{{"de", "place", "Berlin"}, {"en", "occupation", "Berlin"}, {"en", "place", "Bern"}} {
		items, err := store.LookupItems(ctx, key[0], key[1], key[2])
		require.NoError(t, err)
		assert.Empty(t, items, key)
	}

	require.NoError(t, store.RecordItem(ctx, "", "place", "Berlin", 64))
	items, err = store.LookupItems(ctx, "de", "place", "Berlin")
	require.NoError(t, err)
	assert.Equal(t, []int64{64}, items, "language-neutral mapping")

	require.NoError(t, store.RecordItem(ctx, "en", "place", "Berlin", 821244))
	items, err = store.LookupItems(ctx, "en", "place", "Berlin")
	require.NoError(t, err)
	assert.Equal(t, []int64{64, 821244}, items)
}

func commitFreetext(t *testing.T, c *Committer, scraperID int, sourceID string, pairs ...interface{}) *CommitResult {
	t.Helper()
	e := entry.New(scraperID, sourceID)
	for i := 0; i < len(pairs); i += 2 {
		require.NoError(t, e.AddFreetext(pairs[i], pairs[i+1].(string)))
	}
	res, err := c.Commit(context.Background(), e)
	require.NoError(t, err)
	return res
}

func TestCurrentFreetext_OnlyCurrentRevisions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	c := NewCommitter(store, nil)

	commitFreetext(t, c, 1, "a", 19, "Hamburg")
	latest := commitFreetext(t, c, 1, "a", 19, "Berlin")
	commitFreetext(t, c, 2, "b", 19, "Paris")

	rows, err := store.CurrentFreetext(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Berlin", rows[0].Text)
	assert.Equal(t, 19, rows[0].Property)
	assert.Equal(t, latest.RevisionID, rows[0].RevisionID)
}

func TestFrequentFreetext(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	c := NewCommitter(store, nil)

	commitFreetext(t, c, 1, "a", 19, "Berlin", 106, "painter")
	commitFreetext(t, c, 1, "b", 19, "Berlin", 106, "painter")
	commitFreetext(t, c, 1, "c", 19, "Berlin", 20, "Berlin")
	commitFreetext(t, c, 1, "d", 19, "Paris")

	counts, err := store.FrequentFreetext(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []FreetextCount{
		{Property: 19, Text: "Berlin", Count: 3},
		{Property: 106, Text: "painter", Count: 2},
	}, counts)
}

func TestPromoteFreetext(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	c := NewCommitter(store, nil)

	res := commitFreetext(t, c, 1, "a", 19, "Berlin")
	rows, err := store.CurrentFreetext(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	ok, err := store.PromoteFreetext(ctx, rows[0], 64)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Zero(t, countRows(t, store, "freetext"))
	var itemID int64
	var revisionID int64
	require.NoError(t, store.DB().QueryRow(`SELECT item_id, revision_id FROM item WHERE property = 19`).Scan(&itemID, &revisionID))
	assert.EqualValues(t, 64, itemID)
	assert.Equal(t, res.RevisionID, revisionID)

	// no new revision, snapshot untouched
	assert.Equal(t, 1, countRows(t, store, "revision"))
	snap, err := store.Snapshot(ctx, res.RevisionID)
	require.NoError(t, err)
	assert.Equal(t, res.Snapshot, snap)

	// second attempt on the same row is a no-op
	ok, err = store.PromoteFreetext(ctx, rows[0], 64)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, countRows(t, store, "item"))
}

func TestPromoteFreetext_SupersededRowUntouched(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	c := NewCommitter(store, nil)

	commitFreetext(t, c, 1, "a", 19, "Berlin")
	rows, err := store.CurrentFreetext(ctx, 1)
	require.NoError(t, err)

	// a re-scrape supersedes the revision between scan and promotion
	commitFreetext(t, c, 1, "a", 19, "Berlin", 20, "Bonn")

	ok, err := store.PromoteFreetext(ctx, rows[0], 64)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 3, countRows(t, store, "freetext"))
	assert.Zero(t, countRows(t, store, "item"))
}

package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/storage"
)

func commitFreetext(t *testing.T, store *storage.SQLStore, sourceID string, pairs ...interface{}) *storage.CommitResult {
	t.Helper()
	e := entry.New(1, sourceID)
	for i := 0; i < len(pairs); i += 2 {
		require.NoError(t, e.AddFreetext(pairs[i], pairs[i+1].(string)))
	}
	res, err := storage.NewCommitter(store, nil).Commit(context.Background(), e)
	require.NoError(t, err)
	return res
}

func countTable(t *testing.T, store *storage.SQLStore, table string) int {
	t.Helper()
	var n int
	require.NoError(t, store.DB().QueryRow(`SELECT COUNT(*) FROM "`+table+`"`).Scan(&n))
	return n
}

func TestPromoteFreetextToItems(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	a := commitFreetext(t, store, "a", 19, "Berlin", 106, "painter", 1449, "Jo")
	commitFreetext(t, store, "b", 19, "Springfield", 20, "Atlantis")

	require.NoError(t, store.RecordItem(ctx, "en", "place", "Berlin", 64))
	require.NoError(t, store.RecordItem(ctx, "en", "occupation", "painter", 1028181))
	require.NoError(t, store.RecordItem(ctx, "en", "place", "Springfield", 1))
	require.NoError(t, store.RecordItem(ctx, "en", "place", "Springfield", 2))

	r := New(store, nil, nil, Config{}, nil)
	report, err := r.PromoteFreetextToItems(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Scanned)
	assert.Equal(t, 2, report.Promoted)
	assert.Equal(t, 1, report.Ambiguous)
	assert.Equal(t, 1, report.Unresolved)
	assert.Equal(t, 1, report.Ungrouped)
	assert.Zero(t, report.Stale)

	assert.Equal(t, 3, countTable(t, store, "freetext"))
	assert.Equal(t, 2, countTable(t, store, "item"))
	assert.Equal(t, 2, countTable(t, store, "revision"), "promotion creates no revision")

	snap, err := store.Snapshot(ctx, a.RevisionID)
	require.NoError(t, err)
	assert.Equal(t, a.Snapshot, snap, "snapshot is not rewritten")

	again, err := r.PromoteFreetextToItems(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, again.Promoted)
	assert.Equal(t, 3, again.Scanned)
}

func TestPromoteFreetextToItems_OtherScraperUntouched(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	commitFreetext(t, store, "a", 19, "Berlin")
	require.NoError(t, store.RecordItem(ctx, "en", "place", "Berlin", 64))

	report, err := New(store, nil, nil, Config{}, nil).PromoteFreetextToItems(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
	assert.Equal(t, 1, countTable(t, store, "freetext"))
}

func TestLearnFrequent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	for _, id := range []string{"a", "b", "c"} {
		commitFreetext(t, store, id, 19, "Berlin", 106, "painter", 1449, "Jo")
	}
	commitFreetext(t, store, "d", 19, "Paris")
	require.NoError(t, store.RecordItem(ctx, "en", "occupation", "painter", 1028181))

	corpus := &fakeCorpus{answers: map[string][]int64{"Berlin": {64}, "Paris": {90}}}
	r := New(store, corpus, nil, Config{}, nil)

	report, err := r.LearnFrequent(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Candidates)
	assert.Equal(t, 1, report.Known)
	assert.Equal(t, 1, report.Learned)
	assert.Equal(t, 1, report.Ungrouped)
	assert.Equal(t, []string{"Berlin"}, corpus.calls, "Paris is below the threshold")

	item, ok, err := r.Resolve(ctx, 19, "Berlin")
	require.NoError(t, err)
	require.True(t, ok)
	assert.EqualValues(t, 64, item.ID)
}

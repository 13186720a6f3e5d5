package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cersei/errors"
)

func TestSetWikidataMapping(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	res := commitVersions(t, NewCommitter(store, nil), 1, "a", "Ann")
	entryID := res[0].EntryID

	require.NoError(t, store.SetWikidataMapping(ctx, entryID, itemRef(t, "Q42"), "manual"))
	m, err := store.WikidataMappingFor(ctx, entryID)
	require.NoError(t, err)
	assert.Equal(t, "Q42", m.Item)
	assert.Equal(t, "manual", m.Method)
	assert.Equal(t, "a", m.SourceID)

	// a new mapping replaces the old one
	require.NoError(t, store.SetWikidataMapping(ctx, entryID, itemRef(t, "Q43"), " auth_id "))
	m, err = store.WikidataMappingFor(ctx, entryID)
	require.NoError(t, err)
	assert.Equal(t, "Q43", m.Item)
	assert.Equal(t, "auth_id", m.Method)
	assert.Equal(t, 1, countRows(t, store, "wikidata_mapping"))

	listing, err := store.QueryEntries(ctx, EntryQuery{})
	require.NoError(t, err)
	require.Len(t, listing, 1)
	require.NotNil(t, listing[0].Mapping)
	assert.Equal(t, "Q43", listing[0].Mapping.Item)
}

func TestSetWikidataMapping_Rejects(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	res := commitVersions(t, NewCommitter(store, nil), 1, "a", "Ann")

	err := store.SetWikidataMapping(ctx, res[0].EntryID, itemRef(t, "Q42"), "  ")
	assert.True(t, errors.IsInvalidRequestError(err))
	err = store.SetWikidataMapping(ctx, res[0].EntryID, nil, "manual")
	assert.True(t, errors.IsInvalidRequestError(err))
	err = store.SetWikidataMapping(ctx, 999, itemRef(t, "Q42"), "manual")
	assert.True(t, errors.IsNotFoundError(err))

	_, err = store.WikidataMappingFor(ctx, res[0].EntryID)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestWikidataMappings(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	c := NewCommitter(store, nil)
	a := commitVersions(t, c, 1, "a", "Ann")[0]
	commitVersions(t, c, 1, "b", "Bob")
	other := commitVersions(t, c, 2, "a", "Ann")[0]

	require.NoError(t, store.SetWikidataMapping(ctx, a.EntryID, itemRef(t, "Q42"), "manual"))
	require.NoError(t, store.SetWikidataMapping(ctx, other.EntryID, itemRef(t, "Q7"), "manual"))

	got, err := store.WikidataMappings(ctx, 1, []string{"a", "b", "unknown"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Q42", got["a"].Item)
	assert.Equal(t, a.EntryID, got["a"].EntryID)

	none, err := store.WikidataMappings(ctx, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

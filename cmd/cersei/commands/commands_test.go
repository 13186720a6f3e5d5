package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cersei/am"
	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/storage"
	storagetest "github.com/teranos/cersei/storage/testutil"
)

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CERSEI_TEST_DOTENV=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CERSEI_TEST_DOTENV") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("CERSEI_TEST_DOTENV"))
}

func TestCommittedIn(t *testing.T) {
	ctx := context.Background()
	store := storage.NewSQLStore(storagetest.SetupTestDB(t), nil)

	e := entry.New(7, "42")
	require.NoError(t, e.AddItem("P31", "Q5"))
	_, err := storage.NewCommitter(store, nil).Commit(ctx, e)
	require.NoError(t, err)

	// an entry row without a revision does not count
	_, err = store.ResolveEntryID(ctx, 7, "43")
	require.NoError(t, err)

	known := committedIn(store, 7)
	for sourceID, want := range map[string]bool{"42": true, "43": false, "44": false} {
		got, err := known(ctx, sourceID)
		require.NoError(t, err)
		assert.Equal(t, want, got, sourceID)
	}

	other, err := committedIn(store, 8)(ctx, "42")
	require.NoError(t, err)
	assert.False(t, other)
}

func TestNewResolver(t *testing.T) {
	store := storage.NewSQLStore(storagetest.SetupTestDB(t), nil)
	cfg := am.ResolverConfig{Language: "de", Endpoint: "https://query.wikidata.org/sparql", TimeoutSeconds: 1}

	r, err := newResolver(cfg, store)
	require.NoError(t, err)
	group, ok := r.Groups().Group(19)
	assert.True(t, ok)
	assert.Equal(t, "place", group)

	cfg.GroupsFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = newResolver(cfg, store)
	assert.Error(t, err)
}

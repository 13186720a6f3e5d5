package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cersei/am"
	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/storage"
	storagetest "github.com/teranos/cersei/storage/testutil"
)

type fixture struct {
	store  *storage.SQLStore
	server *Server
	jane   *storage.CommitResult
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewSQLStore(storagetest.SetupTestDB(t), nil)
	c := storage.NewCommitter(store, nil)

	e := entry.New(3, "42")
	require.NoError(t, e.AddItem("P31", "Q5"))
	require.NoError(t, e.AddLabelEtc("Jane Doe", "label", "en"))
	require.NoError(t, e.AddFreetext("P19", "Berlin"))
	res, err := c.Commit(context.Background(), e)
	require.NoError(t, err)

	cfg := am.ServerConfig{AllowedOrigins: []string{"http://localhost"}}
	return &fixture{store: store, server: New(store, cfg, nil), jane: res}
}

func (f *fixture) get(t *testing.T, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandleHealth(t *testing.T) {
	f := setup(t)
	rec := f.get(t, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestHandleEntities(t *testing.T) {
	f := setup(t)
	id := EntityID(f.jane.EntryID)

	rec := f.get(t, "/api/entities?ids="+id+"|C999")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	entities := decode(t, rec)["entities"].(map[string]interface{})
	require.Len(t, entities, 2)

	jane := entities[id].(map[string]interface{})
	assert.Equal(t, id, jane["id"])
	assert.Equal(t, id, jane["title"])
	assert.EqualValues(t, f.jane.RevisionID, jane["lastrevid"])
	assert.EqualValues(t, f.jane.EntryID, jane["pageid"])
	assert.EqualValues(t, 0, jane["ns"])
	assert.NotContains(t, jane, "freetext")
	assert.Contains(t, jane, "claims")
	assert.Contains(t, jane["labels"], "en")

	missing := entities["C999"].(map[string]interface{})
	assert.Contains(t, missing, "missing")
}

func TestHandleEntities_BadIDs(t *testing.T) {
	f := setup(t)
	for _, q := range []string{"", "?ids=", "?ids=Q1", "?ids=C", "?ids=C-1"} {
		rec := f.get(t, "/api/entities"+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestParseEntityIDs(t *testing.T) {
	ids, err := ParseEntityIDs("C3| c1 |C3")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, ids)

	many := "C1"
	for i := 2; i <= maxEntityIDs+1; i++ {
		many += "|" + EntityID(int64(i))
	}
	_, err = ParseEntityIDs(many)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestProjectEntity_KeepsNumbers(t *testing.T) {
	doc, err := ProjectEntity(storage.EntitySnapshot{
		EntryID:    7,
		RevisionID: 9,
		JSON:       `{"claims":{"P1082":[{"v":12345678901234567}]},"url":[{"language":"en","value":"x"}]}`,
	})
	require.NoError(t, err)
	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "12345678901234567")
	assert.NotContains(t, string(out), `"url"`)

	_, err = ProjectEntity(storage.EntitySnapshot{JSON: "[]"})
	assert.Error(t, err)
}

func TestHandleEntryRevisions(t *testing.T) {
	f := setup(t)

	rec := f.get(t, "/api/entries/"+itoa(f.jane.EntryID)+"/revisions")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	revs := body["revisions"].([]interface{})
	require.Len(t, revs, 1)
	first := revs[0].(map[string]interface{})
	assert.EqualValues(t, f.jane.RevisionID, first["id"])
	assert.Equal(t, true, first["current"])

	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/entries/999/revisions").Code)
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/api/entries/abc/revisions").Code)
}

func TestHandleRevision(t *testing.T) {
	f := setup(t)

	rec := f.get(t, "/api/revisions/"+itoa(f.jane.RevisionID))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, f.jane.Snapshot, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/revisions/999").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	f := setup(t)
	req := httptest.NewRequest(http.MethodPost, "/api/entities?ids=C1", nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORS(t *testing.T) {
	f := setup(t)

	rec := f.get(t, "/health", "Origin", "http://localhost:5173")
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = f.get(t, "/health", "Origin", "https://evil.example")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/api/entities", nil)
	req.Header.Set("Origin", "http://localhost")
	pre := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(pre, req)
	assert.Equal(t, http.StatusOK, pre.Code)
	assert.Contains(t, pre.Header().Get("Access-Control-Allow-Methods"), "GET")
}

func TestMetricsEndpoint(t *testing.T) {
	f := setup(t)
	rec := f.get(t, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cersei_commits_total")
}

type failingStore struct{ Store }

func (failingStore) Snapshot(context.Context, int64) (string, error) {
	return "", errors.MarkStorage(errors.New("database is locked"), "read snapshot")
}

func TestStorageUnavailableIs503(t *testing.T) {
	srv := New(failingStore{}, am.ServerConfig{}, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/revisions/1", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "locked")
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

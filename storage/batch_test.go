package storage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/errors"
)

func TestBatchPersister_CollectsFailures(t *testing.T) {
	store := newTestStore(t)
	bp := NewBatchPersister(store, nil)

	ok := entry.New(1, "a")
	require.NoError(t, ok.AddString("P214", "1"))
	invalid := entry.New(1, "")
	require.NoError(t, invalid.AddString("P214", "2"))
	again := entry.New(1, "a")
	require.NoError(t, again.AddString("P214", "1"))

	result := bp.PersistEntries(context.Background(), []*entry.Entry{ok, invalid, again})

	assert.NotEqual(t, uuid.Nil, result.RunID)
	assert.Equal(t, 1, result.Committed)
	assert.Equal(t, 1, result.Unchanged)
	assert.Equal(t, 1, result.FailureCount)
	assert.Equal(t, 3, result.Total())
	assert.InDelta(t, 66.67, result.SuccessRate, 0.01)

	require.Len(t, result.Failures, 1)
	assert.Equal(t, "", result.Failures[0].SourceID)
	assert.True(t, errors.Is(result.Failures[0].Err, errors.ErrEntryNotValid))
	assert.Contains(t, result.Failures[0].String(), "entry not valid")
}

func TestBatchPersister_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bp := NewBatchPersister(newTestStore(t), nil)
	result := bp.PersistEntries(ctx, []*entry.Entry{entry.New(1, "a")})
	assert.Zero(t, result.Total())
	assert.Zero(t, result.SuccessRate)
}

func TestBatchPersister_RunIDsDiffer(t *testing.T) {
	store := newTestStore(t)
	a := NewBatchPersister(store, nil).Result().RunID
	b := NewBatchPersister(store, nil).Result().RunID
	assert.NotEqual(t, a, b)
}

func TestPersistenceResult_JSON(t *testing.T) {
	bp := NewBatchPersister(newTestStore(t), nil)
	bp.RecordFailure("7", errors.New("belongs to another scraper"))

	data, err := json.Marshal(bp.Result())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run_id":"`+bp.Result().RunID.String()+`"`)
	assert.Contains(t, string(data), `"failures":[{"source_id":"7","error":"belongs to another scraper"}]`)
	assert.Contains(t, string(data), `"failure_count":1`)
}

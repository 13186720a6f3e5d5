package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/logger"
)

// ItemFailure records one entry that could not be committed.
type ItemFailure struct {
	SourceID string
	Err      error
}

func (f ItemFailure) String() string {
	return fmt.Sprintf("%s: %v", f.SourceID, f.Err)
}

// MarshalJSON renders the error as its message.
func (f ItemFailure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		SourceID string `json:"source_id"`
		Error    string `json:"error"`
	}{f.SourceID, msg})
}

// PersistenceResult summarizes a batch of commits.
// Failures are collected per item; one bad entry never aborts the batch.
type PersistenceResult struct {
	RunID        uuid.UUID     `json:"run_id"`
	Committed    int           `json:"committed"`
	Unchanged    int           `json:"unchanged"`
	FailureCount int           `json:"failure_count"`
	Failures     []ItemFailure `json:"failures"`
	SuccessRate  float64       `json:"success_rate"`
}

// Total is the number of entries seen by the batch.
func (r *PersistenceResult) Total() int {
	return r.Committed + r.Unchanged + r.FailureCount
}

func (r *PersistenceResult) updateRate() {
	if total := r.Total(); total > 0 {
		r.SuccessRate = float64(r.Committed+r.Unchanged) / float64(total) * 100
	}
}

// BatchPersister commits entries one at a time and tracks outcomes and failures
type BatchPersister struct {
	committer *Committer
	logger    *zap.SugaredLogger
	result    *PersistenceResult
}

// NewBatchPersister creates a persister with a fresh run id
func NewBatchPersister(store RevisionStore, log *zap.SugaredLogger) *BatchPersister {
	runID := uuid.New()
	l := logger.OrNop(log).Named("batch").With(logger.FieldRunID, runID.String())
	return &BatchPersister{
		committer: NewCommitter(store, l),
		logger:    l,
		result:    &PersistenceResult{RunID: runID},
	}
}

// Persist commits one entry and records its outcome. The error is returned
// for callers that want it, and is also recorded as an ItemFailure.
func (bp *BatchPersister) Persist(ctx context.Context, e *entry.Entry) error {
	res, err := bp.committer.Commit(ctx, e)
	if err != nil {
		bp.logger.Warnw("Entry commit failed",
			logger.FieldScraperID, e.ScraperID,
			logger.FieldSourceID, e.SourceID,
			logger.FieldError, err)
		bp.RecordFailure(e.SourceID, err)
		return err
	}

	switch res.Outcome {
	case OutcomeCommitted:
		bp.result.Committed++
	case OutcomeUnchanged:
		bp.result.Unchanged++
	}
	bp.result.updateRate()
	return nil
}

// RecordFailure records an entry that was rejected before reaching the committer.
func (bp *BatchPersister) RecordFailure(sourceID string, err error) {
	bp.result.FailureCount++
	bp.result.Failures = append(bp.result.Failures, ItemFailure{SourceID: sourceID, Err: err})
	bp.result.updateRate()
}

// PersistEntries commits every entry and returns the batch result
func (bp *BatchPersister) PersistEntries(ctx context.Context, entries []*entry.Entry) *PersistenceResult {
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		_ = bp.Persist(ctx, e)
	}
	return bp.Result()
}

// Result returns the outcomes recorded so far
func (bp *BatchPersister) Result() *PersistenceResult {
	return bp.result
}

package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/internal/metrics"
	"github.com/teranos/cersei/logger"
	"github.com/teranos/cersei/sym"
)

// Outcome is the result of one commit attempt.
type Outcome string

const (
	// OutcomeCommitted means a new revision was created and made current
	OutcomeCommitted Outcome = "committed"
	// OutcomeUnchanged means the snapshot equals the current revision; nothing was written
	OutcomeUnchanged Outcome = "unchanged"
)

// CommitResult describes a successful commit.
type CommitResult struct {
	Outcome            Outcome
	EntryID            int64
	RevisionID         int64
	PreviousRevisionID int64
	Snapshot           string
}

// Committer runs the commit algorithm against a RevisionStore.
type Committer struct {
	store  RevisionStore
	logger *zap.SugaredLogger
}

// NewCommitter creates a committer. A nil logger disables logging.
func NewCommitter(store RevisionStore, log *zap.SugaredLogger) *Committer {
	return &Committer{
		store:  store,
		logger: logger.OrNop(log).Named("commit"),
	}
}

// Commit persists e as a new revision unless its canonical snapshot equals
// the snapshot of the current revision. On success e.EntryID and e.RevisionID
// are set. When the store is a Transactor the revision, snapshot, pointer and
// value rows are written in one transaction, and the write fails with
// ErrConflict if another writer moved the current revision in the meantime.
func (c *Committer) Commit(ctx context.Context, e *entry.Entry) (*CommitResult, error) {
	start := time.Now()
	result, err := c.commit(ctx, e)
	metrics.CommitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Commits.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.Commits.WithLabelValues(string(result.Outcome)).Inc()
	return result, nil
}

func (c *Committer) commit(ctx context.Context, e *entry.Entry) (*CommitResult, error) {
	if err := e.CheckValid(); err != nil {
		return nil, err
	}

	entryID, err := c.store.ResolveEntryID(ctx, e.ScraperID, e.SourceID)
	if err != nil {
		return nil, err
	}
	e.EntryID = entryID

	current, err := c.store.CurrentRevisionID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	snapshot, err := e.CanonicalJSON(true)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize entry %d", entryID)
	}

	if current != 0 {
		stored, ok, err := c.store.SnapshotFor(ctx, current)
		if err != nil {
			return nil, err
		}
		if ok && stored == snapshot {
			e.RevisionID = current
			c.logger.Debugw("Entry unchanged",
				logger.FieldEntryID, entryID,
				logger.FieldRevisionID, current)
			return &CommitResult{
				Outcome:            OutcomeUnchanged,
				EntryID:            entryID,
				RevisionID:         current,
				PreviousRevisionID: current,
				Snapshot:           snapshot,
			}, nil
		}
	}

	var revisionID int64
	write := func(s RevisionStore) error {
		id, err := writeRevision(ctx, s, e, current, snapshot)
		revisionID = id
		return err
	}
	if tx, ok := c.store.(Transactor); ok {
		err = tx.InTx(ctx, write)
	} else {
		err = write(c.store)
	}
	if err != nil {
		return nil, err
	}

	e.RevisionID = revisionID
	c.logger.Debugw("Entry committed",
		logger.FieldSymbol, sym.Revision,
		logger.FieldScraperID, e.ScraperID,
		logger.FieldSourceID, e.SourceID,
		logger.FieldEntryID, entryID,
		logger.FieldRevisionID, revisionID)

	return &CommitResult{
		Outcome:            OutcomeCommitted,
		EntryID:            entryID,
		RevisionID:         revisionID,
		PreviousRevisionID: current,
		Snapshot:           snapshot,
	}, nil
}

func writeRevision(ctx context.Context, s RevisionStore, e *entry.Entry, expected int64, snapshot string) (int64, error) {
	current, err := s.CurrentRevisionID(ctx, e.EntryID)
	if err != nil {
		return 0, err
	}
	if current != expected {
		return 0, errors.Wrapf(errors.ErrConflict,
			"entry %d moved from revision %d to %d during commit", e.EntryID, expected, current)
	}

	revisionID, err := s.CreateRevision(ctx, e.EntryID)
	if err != nil {
		return 0, err
	}
	if err := s.StoreSnapshot(ctx, revisionID, snapshot); err != nil {
		return 0, err
	}
	if err := s.SetCurrentRevision(ctx, e.EntryID, revisionID); err != nil {
		return 0, err
	}

	tables, err := e.Rows(ctx, s, revisionID)
	if err != nil {
		return 0, err
	}
	for _, table := range tables {
		if err := s.InsertValueRows(ctx, table.Kind, table.Columns, table.Rows); err != nil {
			return 0, err
		}
	}
	return revisionID, nil
}

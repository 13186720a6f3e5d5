// Package storage persists entries as immutable revisions.
//
// This file defines the revision store protocol the commit algorithm is
// written against. SQLStore is the SQLite implementation; test doubles can
// implement RevisionStore directly.
package storage

import (
	"context"

	"github.com/teranos/cersei/entry"
)

// RevisionStore defines the storage operations a commit needs.
type RevisionStore interface {
	entry.TextInterner

	// ResolveEntryID returns the entry id for (scraperID, sourceID), creating it on first sight
	ResolveEntryID(ctx context.Context, scraperID int, sourceID string) (int64, error)

	// CurrentRevisionID returns the current revision of an entry, 0 if it was never committed
	CurrentRevisionID(ctx context.Context, entryID int64) (int64, error)

	// SnapshotFor returns the canonical JSON stored for a revision; ok is false if there is none
	SnapshotFor(ctx context.Context, revisionID int64) (snapshot string, ok bool, err error)

	// CreateRevision appends a new revision for an entry and returns its fresh id
	CreateRevision(ctx context.Context, entryID int64) (int64, error)

	// StoreSnapshot stores the canonical JSON of a revision
	StoreSnapshot(ctx context.Context, revisionID int64, snapshot string) error

	// SetCurrentRevision points the entry at revisionID
	SetCurrentRevision(ctx context.Context, entryID, revisionID int64) error

	// InsertValueRows bulk-inserts value rows; rows already present are ignored
	InsertValueRows(ctx context.Context, kind entry.Kind, columns []string, rows [][]interface{}) error

	// PruneSuperseded deletes every non-current revision of a scraper and its rows
	PruneSuperseded(ctx context.Context, scraperID int) (*PruneReport, error)
}

// Transactor is implemented by stores that can run several operations atomically.
// The commit algorithm uses it when available.
type Transactor interface {
	InTx(ctx context.Context, fn func(RevisionStore) error) error
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/logger"
)

// Query constants
const (
	textInsertQuery = `INSERT OR IGNORE INTO "text" (value) VALUES (?)`
	textSelectQuery = `SELECT id FROM "text" WHERE value = ?`

	entryInsertQuery = `
		INSERT OR IGNORE INTO entry (scraper_id, source_text_id, created_at)
		VALUES (?, ?, ?)`
	entrySelectQuery = `SELECT id FROM entry WHERE scraper_id = ? AND source_text_id = ?`

	currentRevisionQuery = `SELECT current_revision_id FROM entry WHERE id = ?`
	setCurrentQuery      = `UPDATE entry SET current_revision_id = ? WHERE id = ?`

	revisionInsertQuery = `INSERT INTO revision (entry_id, created_at) VALUES (?, ?)`
	snapshotInsertQuery = `INSERT INTO revision_item (revision_id, json) VALUES (?, ?)`
	snapshotSelectQuery = `SELECT json FROM revision_item WHERE revision_id = ?`
)

// maxInsertVariables keeps bulk inserts under SQLite's bound-parameter limit.
const maxInsertVariables = 900

const textMemoSize = 50000

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SQLStore is the SQLite implementation of RevisionStore, Transactor and the resolver cache.
type SQLStore struct {
	db     *sql.DB
	q      execer
	inTx   bool
	logger *zap.SugaredLogger
	texts  *gocache.Cache
	now    func() time.Time
}

// NewSQLStore creates a store over db. A nil logger disables logging.
func NewSQLStore(db *sql.DB, log *zap.SugaredLogger) *SQLStore {
	return &SQLStore{
		db:     db,
		q:      db,
		logger: logger.OrNop(log),
		texts:  gocache.New(gocache.NoExpiration, 0),
		now:    time.Now,
	}
}

// DB returns the underlying handle.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// InTx runs fn against a store bound to one transaction; fn's error rolls it back.
func (s *SQLStore) InTx(ctx context.Context, fn func(RevisionStore) error) error {
	return s.inTxSQL(ctx, func(tx *SQLStore) error { return fn(tx) })
}

func (s *SQLStore) inTxSQL(ctx context.Context, fn func(*SQLStore) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.MarkStorage(err, "failed to begin transaction")
	}
	txStore := &SQLStore{db: s.db, q: tx, inTx: true, logger: s.logger, texts: s.texts, now: s.now}

	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warnw("Rollback failed", logger.FieldError, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.MarkStorage(err, "failed to commit transaction")
	}
	return nil
}

// InternText returns the text-pool id of text, inserting it if needed.
// Ids created inside a transaction are memoized only once they are committed
// elsewhere, so a rollback cannot leave a dangling id in the memo.
func (s *SQLStore) InternText(ctx context.Context, text string) (int64, error) {
	if id, ok := s.texts.Get(text); ok {
		return id.(int64), nil
	}
	if _, err := s.q.ExecContext(ctx, textInsertQuery, text); err != nil {
		return 0, errors.MarkStorage(err, "failed to intern text")
	}
	var id int64
	if err := s.q.QueryRowContext(ctx, textSelectQuery, text).Scan(&id); err != nil {
		return 0, errors.MarkStorage(err, "failed to read interned text")
	}
	if !s.inTx && s.texts.ItemCount() < textMemoSize {
		s.texts.SetDefault(text, id)
	}
	return id, nil
}

// LookupText returns the id of text without creating it.
func (s *SQLStore) LookupText(ctx context.Context, text string) (int64, bool, error) {
	if id, ok := s.texts.Get(text); ok {
		return id.(int64), true, nil
	}
	var id int64
	err := s.q.QueryRowContext(ctx, textSelectQuery, text).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.MarkStorage(err, "failed to look up text")
	}
	return id, true, nil
}

// ResolveEntryID implements RevisionStore.
func (s *SQLStore) ResolveEntryID(ctx context.Context, scraperID int, sourceID string) (int64, error) {
	sourceTextID, err := s.InternText(ctx, sourceID)
	if err != nil {
		return 0, err
	}
	if _, err := s.q.ExecContext(ctx, entryInsertQuery, scraperID, sourceTextID, s.now().UnixNano()); err != nil {
		return 0, errors.MarkStoragef(err, "failed to create entry for scraper %d source %q", scraperID, sourceID)
	}
	var id int64
	if err := s.q.QueryRowContext(ctx, entrySelectQuery, scraperID, sourceTextID).Scan(&id); err != nil {
		return 0, errors.MarkStoragef(err, "failed to read entry for scraper %d source %q", scraperID, sourceID)
	}
	return id, nil
}

// CurrentRevisionID implements RevisionStore.
func (s *SQLStore) CurrentRevisionID(ctx context.Context, entryID int64) (int64, error) {
	var id int64
	err := s.q.QueryRowContext(ctx, currentRevisionQuery, entryID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, errors.NewNotFoundError("entry %d", entryID)
	}
	if err != nil {
		return 0, errors.MarkStoragef(err, "failed to read current revision of entry %d", entryID)
	}
	return id, nil
}

// SnapshotFor implements RevisionStore.
func (s *SQLStore) SnapshotFor(ctx context.Context, revisionID int64) (string, bool, error) {
	var snapshot string
	err := s.q.QueryRowContext(ctx, snapshotSelectQuery, revisionID).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.MarkStoragef(err, "failed to read snapshot of revision %d", revisionID)
	}
	return snapshot, true, nil
}

// CreateRevision implements RevisionStore.
func (s *SQLStore) CreateRevision(ctx context.Context, entryID int64) (int64, error) {
	res, err := s.q.ExecContext(ctx, revisionInsertQuery, entryID, s.now().UnixNano())
	if err != nil {
		return 0, errors.MarkStoragef(err, "failed to create revision for entry %d", entryID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.MarkStorage(err, "failed to read revision id")
	}
	return id, nil
}

// StoreSnapshot implements RevisionStore.
func (s *SQLStore) StoreSnapshot(ctx context.Context, revisionID int64, snapshot string) error {
	if _, err := s.q.ExecContext(ctx, snapshotInsertQuery, revisionID, snapshot); err != nil {
		return errors.MarkStoragef(err, "failed to store snapshot of revision %d", revisionID)
	}
	return nil
}

// SetCurrentRevision implements RevisionStore.
func (s *SQLStore) SetCurrentRevision(ctx context.Context, entryID, revisionID int64) error {
	res, err := s.q.ExecContext(ctx, setCurrentQuery, revisionID, entryID)
	if err != nil {
		return errors.MarkStoragef(err, "failed to set current revision of entry %d", entryID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewNotFoundError("entry %d", entryID)
	}
	return nil
}

// InsertValueRows implements RevisionStore. Rows are written in chunks
// with INSERT OR IGNORE, so repeating an insert is a no-op.
func (s *SQLStore) InsertValueRows(ctx context.Context, kind entry.Kind, columns []string, rows [][]interface{}) error {
	if !kind.Valid() {
		return errors.NewInvalidRequestError("unknown value table %q", kind)
	}
	if len(rows) == 0 {
		return nil
	}
	if len(columns) == 0 {
		return errors.NewInvalidRequestError("no columns for table %q", kind)
	}
	perChunk := maxInsertVariables / len(columns)
	if perChunk < 1 {
		perChunk = 1
	}

	for start := 0; start < len(rows); start += perChunk {
		end := start + perChunk
		if end > len(rows) {
			end = len(rows)
		}
		query, args, err := buildInsert(kind, columns, rows[start:end])
		if err != nil {
			return err
		}
		if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
			return errors.MarkStoragef(err, "failed to insert %d rows into %s", end-start, kind)
		}
	}
	return nil
}

func buildInsert(kind entry.Kind, columns []string, rows [][]interface{}) (string, []interface{}, error) {
	placeholder := "(" + placeholders(len(columns)) + ")"
	tuples := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", nil, errors.AssertionFailedf("row %d of %s has %d values for %d columns", i, kind, len(row), len(columns))
		}
		tuples = append(tuples, placeholder)
		args = append(args, row...)
	}
	query := fmt.Sprintf(`INSERT OR IGNORE INTO "%s" (%s) VALUES %s`,
		kind, strings.Join(columns, ", "), strings.Join(tuples, ", "))
	return query, args, nil
}

package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/errors"
)

// Entry listing page sizes
const (
	DefaultEntryLimit = 50
	MaxEntryLimit     = 5000
)

// EntryLink restricts a listing to entries whose current revision claims
// Item for Property.
type EntryLink struct {
	Property int
	Item     *entry.ItemValue
}

// EntryQuery selects committed entries. Zero fields do not filter.
type EntryQuery struct {
	ScraperID     int
	EntrySince    time.Time
	RevisionSince time.Time
	Links         []EntryLink
	Limit         int // DefaultEntryLimit when 0, capped at MaxEntryLimit
	Offset        int
	WithSnapshot  bool
}

// EntryListing is one row of an entry listing.
type EntryListing struct {
	EntryInfo
	RevisionCreatedAt time.Time        `json:"revision_created_at"`
	Mapping           *WikidataMapping `json:"wikidata_mapping,omitempty"`
	Snapshot          string           `json:"-"`
}

// ScraperSummary describes the entries of one scraper.
type ScraperSummary struct {
	ScraperID        int        `json:"scraper_id"`
	Entries          int64      `json:"entries"`
	CommittedEntries int64      `json:"committed_entries"`
	MappedEntries    int64      `json:"mapped_entries"`
	LastRun          *time.Time `json:"last_run,omitempty"`
	Running          bool       `json:"running"`
}

// Normalize applies the default page size and rejects impossible bounds.
func (q EntryQuery) Normalize() (EntryQuery, error) {
	switch {
	case q.Limit < 0:
		return q, errors.NewInvalidRequestError("limit %d is negative", q.Limit)
	case q.Limit == 0:
		q.Limit = DefaultEntryLimit
	case q.Limit > MaxEntryLimit:
		q.Limit = MaxEntryLimit
	}
	if q.Offset < 0 {
		return q, errors.NewInvalidRequestError("offset %d is negative", q.Offset)
	}
	for _, l := range q.Links {
		if l.Property <= 0 || l.Item == nil {
			return q, errors.NewInvalidRequestError("link needs a property and an item")
		}
	}
	return q, nil
}

// QueryEntries lists committed entries matching q, ordered by entry id.
// Entries that never got a revision are not listed.
func (s *SQLStore) QueryEntries(ctx context.Context, q EntryQuery) ([]EntryListing, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}

	snapshotColumn, snapshotJoin := `''`, ""
	if q.WithSnapshot {
		snapshotColumn = "ri.json"
		snapshotJoin = "JOIN revision_item ri ON ri.revision_id = e.current_revision_id"
	}

	var (
		conditions []string
		args       []interface{}
	)
	if q.ScraperID != 0 {
		conditions = append(conditions, "e.scraper_id = ?")
		args = append(args, q.ScraperID)
	}
	if !q.EntrySince.IsZero() {
		conditions = append(conditions, "e.created_at >= ?")
		args = append(args, q.EntrySince.UnixNano())
	}
	if !q.RevisionSince.IsZero() {
		conditions = append(conditions, "r.created_at >= ?")
		args = append(args, q.RevisionSince.UnixNano())
	}
	for _, l := range q.Links {
		conditions = append(conditions, `EXISTS (SELECT 1 FROM "item" i
			WHERE i.revision_id = e.current_revision_id
			AND i.property = ? AND i.item_type = ? AND i.item_id = ?)`)
		args = append(args, l.Property, string(l.Item.Type), l.Item.ID)
	}

	query := `
		SELECT e.id, e.scraper_id, t.value, e.current_revision_id, e.created_at, r.created_at,
			m.item_type, m.item_id, m.method, m.created_at, ` + snapshotColumn + `
		FROM entry e
		JOIN "text" t ON t.id = e.source_text_id
		JOIN revision r ON r.id = e.current_revision_id
		LEFT JOIN wikidata_mapping m ON m.entry_id = e.id
		` + snapshotJoin
	if len(conditions) > 0 {
		query += "\nWHERE " + strings.Join(conditions, "\n\t\t\tAND ")
	}
	query += "\nORDER BY e.id LIMIT ? OFFSET ?"
	args = append(args, q.Limit, q.Offset)

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.MarkStorage(err, "failed to query entries")
	}
	defer rows.Close()

	var out []EntryListing
	for rows.Next() {
		var (
			l                     EntryListing
			created, revCreated   int64
			mapType, mapMethod    sql.NullString
			mapItemID, mapCreated sql.NullInt64
		)
		if err := rows.Scan(&l.ID, &l.ScraperID, &l.SourceID, &l.CurrentRevisionID, &created, &revCreated,
			&mapType, &mapItemID, &mapMethod, &mapCreated, &l.Snapshot); err != nil {
			return nil, errors.MarkStorage(err, "failed to scan entry listing")
		}
		l.CreatedAt = time.Unix(0, created)
		l.RevisionCreatedAt = time.Unix(0, revCreated)
		if mapType.Valid {
			l.Mapping = newWikidataMapping(l.ID, l.SourceID, mapType.String, mapItemID.Int64, mapMethod.String, mapCreated.Int64)
		}
		out = append(out, l)
	}
	return out, errors.MarkStorage(rows.Err(), "failed to iterate entry listing")
}

// ScraperSummaries counts entries per scraper, with the state of its last run.
func (s *SQLStore) ScraperSummaries(ctx context.Context) ([]ScraperSummary, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT e.scraper_id,
			COUNT(*),
			SUM(CASE WHEN e.current_revision_id <> 0 THEN 1 ELSE 0 END),
			COUNT(m.entry_id)
		FROM entry e
		LEFT JOIN wikidata_mapping m ON m.entry_id = e.id
		GROUP BY e.scraper_id
		ORDER BY e.scraper_id`)
	if err != nil {
		return nil, errors.MarkStorage(err, "failed to summarize scrapers")
	}

	var out []ScraperSummary
	for rows.Next() {
		var sum ScraperSummary
		if err := rows.Scan(&sum.ScraperID, &sum.Entries, &sum.CommittedEntries, &sum.MappedEntries); err != nil {
			rows.Close()
			return nil, errors.MarkStorage(err, "failed to scan scraper summary")
		}
		out = append(out, sum)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, errors.MarkStorage(err, "failed to iterate scraper summaries")
	}

	// event lookups run after the rows are closed; tests use a single connection
	for i := range out {
		id := out[i].ScraperID
		start, ok, err := s.LastEvent(ctx, int64(id), EventScrapeStart)
		if err != nil {
			return nil, err
		}
		if ok {
			ts := start.Timestamp
			out[i].LastRun = &ts
		}
		if out[i].Running, err = s.IsScraperRunning(ctx, id); err != nil {
			return nil, err
		}
	}
	return out, nil
}

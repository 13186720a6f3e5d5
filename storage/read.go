package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/errors"
)

// EntitySnapshot is the current committed snapshot of one entry.
type EntitySnapshot struct {
	EntryID    int64
	ScraperID  int
	SourceID   string
	RevisionID int64
	JSON       string
}

// EntryInfo describes one entry row.
type EntryInfo struct {
	ID                int64     `json:"id"`
	ScraperID         int       `json:"scraper_id"`
	SourceID          string    `json:"source_id"`
	CurrentRevisionID int64     `json:"current_revision_id"`
	CreatedAt         time.Time `json:"created_at"`
}

// RevisionInfo describes one revision of an entry.
type RevisionInfo struct {
	ID        int64     `json:"id"`
	EntryID   int64     `json:"entry_id"`
	CreatedAt time.Time `json:"created_at"`
	Current   bool      `json:"current"`
}

// Stats summarizes the contents of the store.
type Stats struct {
	Entries             int64                `json:"entries"`
	CommittedEntries    int64                `json:"committed_entries"`
	Revisions           int64                `json:"revisions"`
	SupersededRevisions int64                `json:"superseded_revisions"`
	Texts               int64                `json:"texts"`
	ResolverMappings    int64                `json:"resolver_mappings"`
	WikidataMappings    int64                `json:"wikidata_mappings"`
	ValueRows           map[entry.Kind]int64 `json:"value_rows"`
}

// CurrentSnapshots returns the current snapshot of each committed entry in entryIDs.
// Unknown and never-committed entries are left out. Order follows the entry id.
func (s *SQLStore) CurrentSnapshots(ctx context.Context, entryIDs []int64) ([]EntitySnapshot, error) {
	if len(entryIDs) == 0 {
		return nil, nil
	}
	args := make([]interface{}, len(entryIDs))
	for i, id := range entryIDs {
		args[i] = id
	}
	query := `
		SELECT e.id, e.scraper_id, t.value, e.current_revision_id, ri.json
		FROM entry e
		JOIN "text" t ON t.id = e.source_text_id
		JOIN revision_item ri ON ri.revision_id = e.current_revision_id
		WHERE e.id IN (` + placeholders(len(entryIDs)) + `)
		ORDER BY e.id`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.MarkStorage(err, "failed to query current snapshots")
	}
	defer rows.Close()

	var out []EntitySnapshot
	for rows.Next() {
		var snap EntitySnapshot
		if err := rows.Scan(&snap.EntryID, &snap.ScraperID, &snap.SourceID, &snap.RevisionID, &snap.JSON); err != nil {
			return nil, errors.MarkStorage(err, "failed to scan snapshot")
		}
		out = append(out, snap)
	}
	return out, errors.MarkStorage(rows.Err(), "failed to iterate snapshots")
}

// Snapshot returns the stored snapshot of any revision, current or superseded.
func (s *SQLStore) Snapshot(ctx context.Context, revisionID int64) (string, error) {
	snap, ok, err := s.SnapshotFor(ctx, revisionID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.NewNotFoundError("revision %d", revisionID)
	}
	return snap, nil
}

// EntryBySource looks up an entry by its external id.
func (s *SQLStore) EntryBySource(ctx context.Context, scraperID int, sourceID string) (*EntryInfo, error) {
	info := &EntryInfo{}
	var created int64
	err := s.q.QueryRowContext(ctx, `
		SELECT e.id, e.scraper_id, t.value, e.current_revision_id, e.created_at
		FROM entry e
		JOIN "text" t ON t.id = e.source_text_id
		WHERE e.scraper_id = ? AND t.value = ?`, scraperID, sourceID).
		Scan(&info.ID, &info.ScraperID, &info.SourceID, &info.CurrentRevisionID, &created)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("entry %q of scraper %d", sourceID, scraperID)
	}
	if err != nil {
		return nil, errors.MarkStoragef(err, "failed to read entry %q of scraper %d", sourceID, scraperID)
	}
	info.CreatedAt = time.Unix(0, created)
	return info, nil
}

// Revisions lists the revisions of an entry, oldest first.
func (s *SQLStore) Revisions(ctx context.Context, entryID int64) ([]RevisionInfo, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT r.id, r.created_at, r.id = e.current_revision_id
		FROM revision r
		JOIN entry e ON e.id = r.entry_id
		WHERE r.entry_id = ?
		ORDER BY r.id`, entryID)
	if err != nil {
		return nil, errors.MarkStoragef(err, "failed to list revisions of entry %d", entryID)
	}
	defer rows.Close()

	var out []RevisionInfo
	for rows.Next() {
		rev := RevisionInfo{EntryID: entryID}
		var created int64
		if err := rows.Scan(&rev.ID, &created, &rev.Current); err != nil {
			return nil, errors.MarkStorage(err, "failed to scan revision")
		}
		rev.CreatedAt = time.Unix(0, created)
		out = append(out, rev)
	}
	return out, errors.MarkStorage(rows.Err(), "failed to iterate revisions")
}

// Stats counts rows across the store.
func (s *SQLStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ValueRows: make(map[entry.Kind]int64)}

	counts := []struct {
		dest  *int64
		query string
	}{
		{&stats.Entries, `SELECT COUNT(*) FROM entry`},
		{&stats.CommittedEntries, `SELECT COUNT(*) FROM entry WHERE current_revision_id <> 0`},
		{&stats.Revisions, `SELECT COUNT(*) FROM revision`},
		{&stats.SupersededRevisions, `SELECT COUNT(*) FROM revision r JOIN entry e ON e.id = r.entry_id WHERE r.id <> e.current_revision_id`},
		{&stats.Texts, `SELECT COUNT(*) FROM "text"`},
		{&stats.ResolverMappings, `SELECT COUNT(*) FROM text2item`},
		{&stats.WikidataMappings, `SELECT COUNT(*) FROM wikidata_mapping`},
	}
	for _, c := range counts {
		if err := s.q.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, errors.MarkStorage(err, "failed to collect stats")
		}
	}

	for _, kind := range entry.Kinds() {
		var n int64
		if err := s.q.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, kind)).Scan(&n); err != nil {
			return nil, errors.MarkStoragef(err, "failed to count %s rows", kind)
		}
		stats.ValueRows[kind] = n
	}
	return stats, nil
}

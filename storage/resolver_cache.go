package storage

import (
	"context"

	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/wikidata"
)

// FreetextRow is one free-text value row of a current revision.
type FreetextRow struct {
	ID               int64
	RevisionID       int64
	Property         int
	QualifiersTextID int64
	Text             string
}

// FreetextCount is a free-text value with the number of current revisions carrying it.
type FreetextCount struct {
	Property int
	Text     string
	Count    int
}

// LookupItems returns every item cached for (language, group, text), sorted.
// Mappings recorded with an empty language match every language.
// More than one item means the cache disagrees with itself.
func (s *SQLStore) LookupItems(ctx context.Context, language, group, text string) ([]int64, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT DISTINCT ti.item_id FROM text2item ti
		JOIN "text" t ON t.id = ti.text_id
		WHERE ti.language IN ('', ?) AND ti.group_name = ? AND t.value = ?
		ORDER BY ti.item_id`, language, group, text)
	if err != nil {
		return nil, errors.MarkStorage(err, "failed to query resolution cache")
	}
	defer rows.Close()

	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.MarkStorage(err, "failed to scan resolution cache")
		}
		items = append(items, id)
	}
	return items, errors.MarkStorage(rows.Err(), "failed to iterate resolution cache")
}

// RecordItem caches text → itemID for (language, group). Recording the same
// mapping twice is a no-op.
func (s *SQLStore) RecordItem(ctx context.Context, language, group, text string, itemID int64) error {
	return s.inTxSQL(ctx, func(tx *SQLStore) error {
		textID, err := tx.InternText(ctx, text)
		if err != nil {
			return err
		}
		_, err = tx.q.ExecContext(ctx, `
			INSERT OR IGNORE INTO text2item (language, group_name, text_id, item_id)
			VALUES (?, ?, ?, ?)`, language, group, textID, itemID)
		return errors.MarkStoragef(err, "failed to cache %q as Q%d", text, itemID)
	})
}

// CurrentFreetext returns the free-text rows of the current revisions of scraperID.
func (s *SQLStore) CurrentFreetext(ctx context.Context, scraperID int) ([]FreetextRow, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT f.id, f.revision_id, f.property, f.qualifiers_text_id, t.value
		FROM freetext f
		JOIN entry e ON e.current_revision_id = f.revision_id
		JOIN "text" t ON t.id = f.text_id
		WHERE e.scraper_id = ?
		ORDER BY f.id`, scraperID)
	if err != nil {
		return nil, errors.MarkStoragef(err, "failed to query free text of scraper %d", scraperID)
	}
	defer rows.Close()

	var out []FreetextRow
	for rows.Next() {
		var r FreetextRow
		if err := rows.Scan(&r.ID, &r.RevisionID, &r.Property, &r.QualifiersTextID, &r.Text); err != nil {
			return nil, errors.MarkStorage(err, "failed to scan free text")
		}
		out = append(out, r)
	}
	return out, errors.MarkStorage(rows.Err(), "failed to iterate free text")
}

// FrequentFreetext returns the free-text values of scraperID's current
// revisions that occur at least minCount times, most frequent first.
func (s *SQLStore) FrequentFreetext(ctx context.Context, scraperID, minCount int) ([]FreetextCount, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT f.property, t.value, COUNT(*) AS n
		FROM freetext f
		JOIN entry e ON e.current_revision_id = f.revision_id
		JOIN "text" t ON t.id = f.text_id
		WHERE e.scraper_id = ?
		GROUP BY f.property, f.text_id
		HAVING COUNT(*) >= ?
		ORDER BY n DESC, t.value, f.property`, scraperID, minCount)
	if err != nil {
		return nil, errors.MarkStoragef(err, "failed to count free text of scraper %d", scraperID)
	}
	defer rows.Close()

	var out []FreetextCount
	for rows.Next() {
		var c FreetextCount
		if err := rows.Scan(&c.Property, &c.Text, &c.Count); err != nil {
			return nil, errors.MarkStorage(err, "failed to scan free text count")
		}
		out = append(out, c)
	}
	return out, errors.MarkStorage(rows.Err(), "failed to iterate free text counts")
}

// PromoteFreetext replaces a free-text row with an item row in the same
// revision, in one transaction. It returns false without writing when the
// row is gone or its revision is no longer current.
// The stored snapshot of the revision is not rewritten.
func (s *SQLStore) PromoteFreetext(ctx context.Context, row FreetextRow, itemID int64) (bool, error) {
	promoted := false
	err := s.inTxSQL(ctx, func(tx *SQLStore) error {
		res, err := tx.q.ExecContext(ctx, `
			DELETE FROM freetext
			WHERE id = ? AND revision_id IN (SELECT current_revision_id FROM entry)`, row.ID)
		if err != nil {
			return errors.MarkStoragef(err, "failed to delete free text row %d", row.ID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.MarkStorage(err, "failed to count deleted free text")
		}
		if n == 0 {
			return nil
		}

		_, err = tx.q.ExecContext(ctx, `
			INSERT OR IGNORE INTO item (revision_id, property, qualifiers_text_id, item_id, item_type)
			VALUES (?, ?, ?, ?, ?)`,
			row.RevisionID, row.Property, row.QualifiersTextID, itemID, string(wikidata.EntityItem))
		if err != nil {
			return errors.MarkStoragef(err, "failed to insert item row for free text %d", row.ID)
		}
		promoted = true
		return nil
	})
	return promoted, err
}

package storage

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/logger"
	"github.com/teranos/cersei/wikidata"
)

// WikidataMapping links an entry to the Wikidata entity it describes.
type WikidataMapping struct {
	EntryID   int64     `json:"entry_id"`
	SourceID  string    `json:"source_id,omitempty"`
	Item      string    `json:"item"`
	Method    string    `json:"method"`
	CreatedAt time.Time `json:"created_at"`
}

func newWikidataMapping(entryID int64, sourceID, itemType string, itemID int64, method string, created int64) *WikidataMapping {
	ref := &entry.ItemValue{Type: wikidata.EntityType(itemType), ID: itemID}
	return &WikidataMapping{
		EntryID:   entryID,
		SourceID:  sourceID,
		Item:      ref.EntityID(),
		Method:    method,
		CreatedAt: time.Unix(0, created),
	}
}

// SetWikidataMapping records that entryID describes item, found by method
// (e.g. "manual", "auth_id"). An existing mapping of the entry is replaced.
func (s *SQLStore) SetWikidataMapping(ctx context.Context, entryID int64, item *entry.ItemValue, method string) error {
	method = strings.TrimSpace(method)
	if item == nil || method == "" {
		return errors.NewInvalidRequestError("mapping of entry %d needs an item and a method", entryID)
	}

	var exists bool
	if err := s.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM entry WHERE id = ?)`, entryID).Scan(&exists); err != nil {
		return errors.MarkStoragef(err, "failed to look up entry %d", entryID)
	}
	if !exists {
		return errors.NewNotFoundError("entry %d", entryID)
	}

	_, err := s.q.ExecContext(ctx, `
		INSERT INTO wikidata_mapping (entry_id, item_type, item_id, method, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (entry_id) DO UPDATE SET
			item_type = excluded.item_type,
			item_id = excluded.item_id,
			method = excluded.method,
			created_at = excluded.created_at`,
		entryID, string(item.Type), item.ID, method, s.now().UnixNano())
	if err != nil {
		return errors.MarkStoragef(err, "failed to map entry %d", entryID)
	}
	s.logger.Debugw("Entry mapped",
		logger.FieldEntryID, entryID,
		logger.FieldItem, item.EntityID(),
		"method", method)
	return nil
}

// WikidataMappings returns the mappings of the given source ids of a scraper,
// keyed by source id. Unmapped and unknown source ids are absent.
func (s *SQLStore) WikidataMappings(ctx context.Context, scraperID int, sourceIDs []string) (map[string]WikidataMapping, error) {
	out := make(map[string]WikidataMapping)
	if len(sourceIDs) == 0 {
		return out, nil
	}
	args := make([]interface{}, 0, len(sourceIDs)+1)
	args = append(args, scraperID)
	for _, id := range sourceIDs {
		args = append(args, id)
	}

	rows, err := s.q.QueryContext(ctx, `
		SELECT e.id, t.value, m.item_type, m.item_id, m.method, m.created_at
		FROM entry e
		JOIN "text" t ON t.id = e.source_text_id
		JOIN wikidata_mapping m ON m.entry_id = e.id
		WHERE e.scraper_id = ? AND t.value IN (`+placeholders(len(sourceIDs))+`)`, args...)
	if err != nil {
		return nil, errors.MarkStoragef(err, "failed to read mappings of scraper %d", scraperID)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			entryID, itemID, created   int64
			sourceID, itemType, method string
		)
		if err := rows.Scan(&entryID, &sourceID, &itemType, &itemID, &method, &created); err != nil {
			return nil, errors.MarkStorage(err, "failed to scan mapping")
		}
		out[sourceID] = *newWikidataMapping(entryID, sourceID, itemType, itemID, method, created)
	}
	return out, errors.MarkStorage(rows.Err(), "failed to iterate mappings")
}

// WikidataMappingFor returns the mapping of one entry.
func (s *SQLStore) WikidataMappingFor(ctx context.Context, entryID int64) (*WikidataMapping, error) {
	var (
		sourceID, itemType, method string
		itemID, created            int64
	)
	err := s.q.QueryRowContext(ctx, `
		SELECT t.value, m.item_type, m.item_id, m.method, m.created_at
		FROM wikidata_mapping m
		JOIN entry e ON e.id = m.entry_id
		JOIN "text" t ON t.id = e.source_text_id
		WHERE m.entry_id = ?`, entryID).Scan(&sourceID, &itemType, &itemID, &method, &created)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("mapping of entry %d", entryID)
	}
	if err != nil {
		return nil, errors.MarkStoragef(err, "failed to read mapping of entry %d", entryID)
	}
	return newWikidataMapping(entryID, sourceID, itemType, itemID, method, created), nil
}

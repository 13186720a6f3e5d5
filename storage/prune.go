package storage

import (
	"context"
	"fmt"

	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/internal/metrics"
	"github.com/teranos/cersei/logger"
	"github.com/teranos/cersei/sym"
)

// supersededRevisions selects every revision of a scraper that is not the current one
const supersededRevisions = `
	SELECT r.id FROM revision r
	JOIN entry e ON e.id = r.entry_id
	WHERE e.scraper_id = ? AND r.id <> e.current_revision_id`

// PruneReport counts what a prune run deleted.
type PruneReport struct {
	ScraperID int                  `json:"scraper_id"`
	Revisions int64                `json:"revisions"`
	Snapshots int64                `json:"snapshots"`
	ValueRows map[entry.Kind]int64 `json:"value_rows"`
}

// TotalValueRows sums the deleted value rows across kinds.
func (r *PruneReport) TotalValueRows() int64 {
	var n int64
	for _, c := range r.ValueRows {
		n += c
	}
	return n
}

// PruneSuperseded deletes every non-current revision of scraperID together
// with its snapshot and value rows, in one transaction. Current revisions are
// never touched.
func (s *SQLStore) PruneSuperseded(ctx context.Context, scraperID int) (*PruneReport, error) {
	report := &PruneReport{ScraperID: scraperID, ValueRows: make(map[entry.Kind]int64)}

	err := s.inTxSQL(ctx, func(tx *SQLStore) error {
		for _, kind := range entry.Kinds() {
			n, err := tx.deleteWhereSuperseded(ctx, fmt.Sprintf(`"%s"`, kind), "revision_id", scraperID)
			if err != nil {
				return err
			}
			if n > 0 {
				report.ValueRows[kind] = n
			}
		}

		n, err := tx.deleteWhereSuperseded(ctx, "revision_item", "revision_id", scraperID)
		if err != nil {
			return err
		}
		report.Snapshots = n

		n, err = tx.deleteWhereSuperseded(ctx, "revision", "id", scraperID)
		if err != nil {
			return err
		}
		report.Revisions = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PrunedRevisions.Add(float64(report.Revisions))
	s.logger.Infow("Pruned superseded revisions",
		logger.FieldSymbol, sym.Prune,
		logger.FieldScraperID, scraperID,
		logger.FieldCount, report.Revisions,
		"value_rows", report.TotalValueRows())
	return report, nil
}

func (s *SQLStore) deleteWhereSuperseded(ctx context.Context, table, column string, scraperID int) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s IN (%s)`, table, column, supersededRevisions)
	res, err := s.q.ExecContext(ctx, query, scraperID)
	if err != nil {
		return 0, errors.MarkStoragef(err, "failed to prune %s of scraper %d", table, scraperID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.MarkStorage(err, "failed to count pruned rows")
	}
	return n, nil
}

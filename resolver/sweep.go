package resolver

import (
	"context"

	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/internal/metrics"
	"github.com/teranos/cersei/logger"
)

// PromotionReport counts what a promotion sweep did with each free-text row.
type PromotionReport struct {
	ScraperID  int `json:"scraper_id"`
	Scanned    int `json:"scanned"`
	Promoted   int `json:"promoted"`
	Ambiguous  int `json:"ambiguous"`
	Unresolved int `json:"unresolved"`
	Ungrouped  int `json:"ungrouped"`
	// Stale rows vanished or were superseded between scan and promotion.
	Stale int `json:"stale"`
}

// PromoteFreetextToItems replaces every free-text row of scraperID's current
// revisions that has exactly one cached item by an item row. Rows whose key
// the cache disagrees about are skipped and logged. Each row swap is its own
// transaction, so an interrupted sweep leaves no row half migrated.
//
// No revision is created: the stored snapshot of a touched revision no
// longer matches its value rows until the entry is committed again with its
// free text resolved at ingest.
func (r *Resolver) PromoteFreetextToItems(ctx context.Context, scraperID int) (*PromotionReport, error) {
	rows, err := r.cache.CurrentFreetext(ctx, scraperID)
	if err != nil {
		return nil, err
	}

	report := &PromotionReport{ScraperID: scraperID, Scanned: len(rows)}
	touched := make(map[int64]bool)
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		group, ok := r.groups.Group(row.Property)
		if !ok {
			report.Ungrouped++
			continue
		}

		id, err := r.cached(ctx, group, NormalizeText(row.Text))
		if errors.Is(err, errors.ErrAmbiguousResolution) {
			report.Ambiguous++
			metrics.Promotions.WithLabelValues("ambiguous").Inc()
			r.logger.Warnw("Skipping free text with several cached items",
				logger.FieldScraperID, scraperID,
				logger.FieldRevisionID, row.RevisionID,
				logger.FieldProperty, row.Property,
				logger.FieldText, row.Text)
			continue
		}
		if err != nil {
			return report, err
		}
		if id == 0 {
			report.Unresolved++
			continue
		}

		promoted, err := r.cache.PromoteFreetext(ctx, row, id)
		if err != nil {
			return report, err
		}
		if !promoted {
			report.Stale++
			metrics.Promotions.WithLabelValues("stale").Inc()
			continue
		}
		report.Promoted++
		touched[row.RevisionID] = true
		metrics.Promotions.WithLabelValues("promoted").Inc()
	}

	if len(touched) > 0 {
		r.logger.Warnw("Promotion rewrote value rows without a new revision; stored snapshots lag behind",
			logger.FieldScraperID, scraperID,
			logger.FieldCount, len(touched))
	}
	r.logger.Infow("Promotion sweep finished",
		logger.FieldScraperID, scraperID,
		"scanned", report.Scanned,
		"promoted", report.Promoted,
		"ambiguous", report.Ambiguous)
	return report, nil
}

// LearnReport counts what LearnFrequent did with each frequent free-text value.
type LearnReport struct {
	ScraperID  int `json:"scraper_id"`
	Candidates int `json:"candidates"`
	Known      int `json:"known"`
	Learned    int `json:"learned"`
	Unresolved int `json:"unresolved"`
	Ungrouped  int `json:"ungrouped"`
}

// LearnFrequent learns every grouped free-text value of scraperID's current
// revisions that occurs at least minCount times and is not cached yet.
func (r *Resolver) LearnFrequent(ctx context.Context, scraperID, minCount int) (*LearnReport, error) {
	if r.corpus == nil {
		return nil, errors.Wrap(errors.ErrUnsupported, "resolver has no corpus")
	}
	if minCount < 1 {
		minCount = 1
	}
	counts, err := r.cache.FrequentFreetext(ctx, scraperID, minCount)
	if err != nil {
		return nil, err
	}

	report := &LearnReport{ScraperID: scraperID, Candidates: len(counts)}
	for _, c := range counts {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, ok := r.groups.Group(c.Property); !ok {
			report.Ungrouped++
			continue
		}

		id, err := r.resolve(ctx, c.Property, c.Text)
		if errors.Is(err, errors.ErrAmbiguousResolution) || (err == nil && id != 0) {
			report.Known++
			continue
		}
		if err != nil {
			return report, err
		}

		_, ok, err := r.Learn(ctx, c.Property, c.Text)
		if err != nil {
			return report, err
		}
		if ok {
			report.Learned++
		} else {
			report.Unresolved++
		}
	}
	return report, nil
}

package scraper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/logger"
	"github.com/teranos/cersei/storage"
)

// Store is what a run needs: revision storage plus the event log.
type Store interface {
	storage.RevisionStore
	AddEvent(ctx context.Context, eventType string, relevantID int64) error
	IsScraperRunning(ctx context.Context, scraperID int) (bool, error)
}

// Report describes one run.
type Report struct {
	ScraperID int                        `json:"scraper_id"`
	Name      string                     `json:"name"`
	Mode      Mode                       `json:"mode"`
	Started   time.Time                  `json:"started"`
	Finished  time.Time                  `json:"finished"`
	Result    *storage.PersistenceResult `json:"result"`
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Runner runs scrapers against a store.
type Runner struct {
	store  Store
	logger *zap.SugaredLogger
}

// NewRunner creates a runner. A nil logger disables logging.
func NewRunner(store Store, log *zap.SugaredLogger) *Runner {
	return &Runner{store: store, logger: logger.OrNop(log).Named("runner")}
}

// Run scrapes s in mode and commits every emitted entry. Unless force is set
// it refuses with ErrAlreadyRunning when the event log shows an unfinished
// run of the same scraper; the check is advisory, not a lock.
//
// Entry failures are collected in the report and do not stop the run. When
// the scraper itself fails the report is still returned with the error.
func (r *Runner) Run(ctx context.Context, s Scraper, mode Mode, force bool) (*Report, error) {
	scrape, err := scrapeFunc(s, mode)
	if err != nil {
		return nil, err
	}

	if !force {
		running, err := r.store.IsScraperRunning(ctx, s.ID())
		if err != nil {
			return nil, err
		}
		if running {
			return nil, errors.WithHint(
				errors.Wrapf(errors.ErrAlreadyRunning, "scraper %d (%s)", s.ID(), s.Name()),
				"pass --force if the previous run died without logging its end")
		}
	}

	if err := r.store.AddEvent(ctx, storage.EventScrapeStart, int64(s.ID())); err != nil {
		return nil, err
	}

	persister := storage.NewBatchPersister(r.store, r.logger)
	report := &Report{
		ScraperID: s.ID(),
		Name:      s.Name(),
		Mode:      mode,
		Started:   time.Now(),
		Result:    persister.Result(),
	}
	log := r.logger.With(
		logger.FieldScraperID, s.ID(),
		logger.FieldRunID, report.Result.RunID.String())
	log.Infow("Scrape started", "mode", mode)

	sink := &runSink{ctx: ctx, scraperID: s.ID(), persister: persister, logger: log}
	scrapeErr := scrape(ctx, sink)
	report.Finished = time.Now()

	// the end event is logged even when ctx was cancelled
	if err := r.store.AddEvent(context.WithoutCancel(ctx), storage.EventScrapeEnd, int64(s.ID())); err != nil {
		log.Errorw("Failed to log scrape end", logger.FieldError, err)
		if scrapeErr == nil {
			scrapeErr = err
		}
	}

	log.Infow("Scrape finished",
		"committed", report.Result.Committed,
		"unchanged", report.Result.Unchanged,
		"failed", report.Result.FailureCount,
		logger.FieldDurationMS, report.Duration().Milliseconds())

	if scrapeErr != nil {
		return report, errors.Wrapf(scrapeErr, "scraper %d (%s) failed", s.ID(), s.Name())
	}
	return report, nil
}

// runSink commits emitted entries and records failures in the run result.
type runSink struct {
	ctx       context.Context
	scraperID int
	persister *storage.BatchPersister
	logger    *zap.SugaredLogger
}

func (k *runSink) Emit(e *entry.Entry) error {
	if err := k.ctx.Err(); err != nil {
		return err
	}
	if e == nil {
		return nil
	}
	if e.ScraperID == 0 {
		e.ScraperID = k.scraperID
	}
	if e.ScraperID != k.scraperID {
		k.Fail(e.SourceID, errors.NewInvalidRequestError(
			"entry %q belongs to scraper %d, not %d", e.SourceID, e.ScraperID, k.scraperID))
		return nil
	}
	_ = k.persister.Persist(k.ctx, e)
	return nil
}

func (k *runSink) Fail(itemID string, err error) {
	k.logger.Debugw("Item failed", logger.FieldSourceID, itemID, logger.FieldError, err)
	k.persister.RecordFailure(itemID, err)
}

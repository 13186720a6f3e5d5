package commands

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cersei/am"
	"github.com/teranos/cersei/display"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/logger"
	"github.com/teranos/cersei/scraper"
	"github.com/teranos/cersei/storage"
	"github.com/teranos/cersei/sym"
)

// IngestCmd commits a JSON-lines record file as revisions of one scraper.
var IngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: sym.IX + " Commit catalog records as revisions",
	Long: sym.IX + ` ingest — Commit catalog records as revisions

Reads one JSON record per line and commits each as an entry of the given
scraper. Entries whose content did not change are left alone; entries that
fail are reported and skipped. Free text the resolution cache already knows
is committed as an item (ingest.resolve_freetext); the corpus is never asked.

Record format:
  {"source_id": "42",
   "labels": [{"type": "label", "language": "en", "text": "Jane Doe"}],
   "values": [{"kind": "item", "property": "P31", "item": "Q5"},
              {"kind": "time", "property": "P569", "time": "1901-05-02"}]}

Examples:
  cersei ingest --scraper 7 --file records.jsonl
  cersei ingest --scraper 7 --file records.jsonl --mode new
  cersei ingest --scraper 7 --file records.jsonl --force`,
	RunE: runIngest,
}

var (
	ingestScraperID int
	ingestFile      string
	ingestName      string
	ingestMode      string
	ingestForce     bool
)

func init() {
	IngestCmd.Flags().IntVar(&ingestScraperID, "scraper", 0, "Scraper id (required)")
	IngestCmd.Flags().StringVar(&ingestFile, "file", "", "JSON-lines record file (required)")
	IngestCmd.Flags().StringVar(&ingestName, "name", "", "Scraper name used in logs")
	IngestCmd.Flags().StringVar(&ingestMode, "mode", "all", "Scrape mode: all, or new to skip entries already committed")
	IngestCmd.Flags().BoolVar(&ingestForce, "force", false, "Run even if the event log shows an unfinished run")
	_ = IngestCmd.MarkFlagRequired("scraper")
	_ = IngestCmd.MarkFlagRequired("file")
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestScraperID <= 0 {
		return errors.Newf("--scraper must be a positive id, got %d", ingestScraperID)
	}
	mode, err := scraper.ParseMode(ingestMode)
	if err != nil {
		return err
	}
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}

	store, closeDB, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	source := scraper.NewRecordSource(ingestScraperID, ingestName, ingestFile, logger.ComponentLogger("records"))
	if cfg.Ingest.ResolveFreetext {
		r, err := newResolver(cfg.Resolver, store)
		if err != nil {
			return err
		}
		source.ResolveWith(r.Resolve)
	}
	var s scraper.Scraper = source
	if mode == scraper.ModeNew {
		s = source.Incremental(committedIn(store, ingestScraperID))
	}

	if logger.ShouldOutput(verbosity(cmd), logger.OutputProgress) {
		pterm.Info.Printf("Ingesting %s as scraper %d (mode %s)\n", ingestFile, ingestScraperID, mode)
	}
	logger.IXInfow("Ingest starting",
		logger.FieldScraperID, ingestScraperID,
		"file", ingestFile,
		"mode", mode)

	runner := scraper.NewRunner(store, logger.ComponentLogger("ingest"))
	report, runErr := runner.Run(cmd.Context(), s, mode, ingestForce || cfg.Ingest.Force)
	if report != nil {
		if report.Result.FailureCount > 0 {
			logger.IXWarnw("Ingest finished with failures",
				logger.FieldScraperID, ingestScraperID,
				logger.FieldCount, report.Result.FailureCount)
		}
		if display.ShouldOutputJSON(cmd) {
			if err := display.OutputJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
		} else {
			printRunReport(report, verbosity(cmd))
		}
	}
	if errors.Is(runErr, errors.ErrAlreadyRunning) {
		pterm.Warning.Println("Another run of this scraper looks unfinished; pass --force to run anyway")
	}
	return runErr
}

// committedIn reports whether sourceID already has a committed revision in scraperID.
func committedIn(store *storage.SQLStore, scraperID int) scraper.KnownFunc {
	return func(ctx context.Context, sourceID string) (bool, error) {
		info, err := store.EntryBySource(ctx, scraperID, sourceID)
		if errors.IsNotFoundError(err) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return info.CurrentRevisionID != 0, nil
	}
}

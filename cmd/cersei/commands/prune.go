package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/cersei/display"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/logger"
	"github.com/teranos/cersei/sym"
)

// PruneCmd deletes superseded revisions of one scraper.
var PruneCmd = &cobra.Command{
	Use:   "prune",
	Short: sym.Prune + " Delete superseded revisions of a scraper",
	Long: sym.Prune + ` prune — Delete superseded revisions of a scraper

Removes every revision that is no longer the current revision of its entry,
together with its snapshot and value rows. Current revisions are never touched.

Examples:
  cersei prune --scraper 7`,
	RunE: runPrune,
}

var pruneScraperID int

func init() {
	PruneCmd.Flags().IntVar(&pruneScraperID, "scraper", 0, "Scraper id (required)")
	_ = PruneCmd.MarkFlagRequired("scraper")
}

func runPrune(cmd *cobra.Command, args []string) error {
	if pruneScraperID <= 0 {
		return errors.Newf("--scraper must be a positive id, got %d", pruneScraperID)
	}
	store, closeDB, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	report, err := store.PruneSuperseded(cmd.Context(), pruneScraperID)
	if err != nil {
		return errors.Wrapf(err, "failed to prune scraper %d", pruneScraperID)
	}
	logger.DBInfow("Prune finished",
		logger.FieldScraperID, pruneScraperID,
		logger.FieldCount, report.Revisions)
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), report)
	}
	printPruneReport(report)
	return nil
}

package commands

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"

	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/logger"
	"github.com/teranos/cersei/scraper"
	"github.com/teranos/cersei/storage"
)

// printRunReport renders the outcome of one ingest run.
func printRunReport(r *scraper.Report, verbosity int) {
	res := r.Result
	pterm.Println()
	pterm.Success.Printf("Scraper %d (%s) finished in %s\n", r.ScraperID, r.Name, r.Duration().Round(time.Millisecond))
	pterm.Info.Printf("Run: %s, mode %s\n", res.RunID, r.Mode)

	_ = pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"Committed", "Unchanged", "Failed", "Success rate"},
		{
			fmt.Sprint(res.Committed),
			fmt.Sprint(res.Unchanged),
			fmt.Sprint(res.FailureCount),
			fmt.Sprintf("%.1f%%", res.SuccessRate),
		},
	}).Render()

	if res.FailureCount > 0 && logger.ShouldOutput(verbosity, logger.OutputFailures) {
		pterm.Println()
		pterm.Warning.Printf("%d entries failed:\n", res.FailureCount)
		for _, f := range res.Failures {
			pterm.Printf("  %s\n", f)
		}
	}
}

// printPruneReport renders what a prune deleted.
func printPruneReport(r *storage.PruneReport) {
	pterm.Success.Printf("Pruned %d superseded revisions of scraper %d\n", r.Revisions, r.ScraperID)

	data := pterm.TableData{{"Table", "Rows deleted"}}
	data = append(data, []string{"revision_item", fmt.Sprint(r.Snapshots)})
	for _, kind := range entry.Kinds() {
		if n, ok := r.ValueRows[kind]; ok {
			data = append(data, []string{string(kind), fmt.Sprint(n)})
		}
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	pterm.Info.Printf("Value rows deleted: %d\n", r.TotalValueRows())
}

package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cersei/db"
	"github.com/teranos/cersei/display"
	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/sym"
)

// DbCmd represents the db (database) command
var DbCmd = &cobra.Command{
	Use:   "db",
	Short: sym.DB + " Database statistics",
	Long: sym.DB + ` db — Database operations

Examples:
  cersei db stats                 # Row counts of every table and per scraper`,
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Long:  "Display entry, revision, text pool, resolver cache, mapping and value row counts, then entry counts per scraper",
	RunE:  runDbStats,
}

func init() {
	DbCmd.AddCommand(dbStatsCmd)
}

func runDbStats(cmd *cobra.Command, args []string) error {
	path, err := databasePath(cmd)
	if err != nil {
		return err
	}
	store, closeDB, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "failed to collect statistics")
	}
	scrapers, err := store.ScraperSummaries(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "failed to summarize scrapers")
	}
	schema, err := db.SchemaVersion(store.DB())
	if err != nil {
		return err
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), map[string]interface{}{
			"path":           path,
			"schema_version": schema,
			"stats":          stats,
			"scrapers":       scrapers,
		})
	}

	pterm.DefaultSection.Printf("%s Database Statistics", sym.DB)
	pterm.Printf("Database Path:        %s\n", path)
	pterm.Printf("Schema version:       %s\n", schema)
	pterm.Printf("Entries:              %d (%d committed)\n", stats.Entries, stats.CommittedEntries)
	pterm.Printf("Revisions:            %d (%d superseded)\n", stats.Revisions, stats.SupersededRevisions)
	pterm.Printf("Pooled texts:         %d\n", stats.Texts)
	pterm.Printf("Resolver mappings:    %d\n", stats.ResolverMappings)
	pterm.Printf("Wikidata mappings:    %d\n", stats.WikidataMappings)
	pterm.Println()

	data := pterm.TableData{{"Value table", "Rows"}}
	for _, kind := range entry.Kinds() {
		data = append(data, []string{string(kind), fmt.Sprint(stats.ValueRows[kind])})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	if len(scrapers) == 0 {
		return nil
	}

	pterm.Println()
	data = pterm.TableData{{"Scraper", "Entries", "Committed", "Mapped", "Last run", "Running"}}
	for _, sc := range scrapers {
		lastRun, running := "-", ""
		if sc.LastRun != nil {
			lastRun = sc.LastRun.Format("2006-01-02 15:04:05")
		}
		if sc.Running {
			running = "yes"
		}
		data = append(data, []string{
			fmt.Sprint(sc.ScraperID), fmt.Sprint(sc.Entries), fmt.Sprint(sc.CommittedEntries),
			fmt.Sprint(sc.MappedEntries), lastRun, running,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

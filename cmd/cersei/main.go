package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teranos/cersei/cmd/cersei/commands"
	"github.com/teranos/cersei/logger"
)

var rootCmd = &cobra.Command{
	Use:   "cersei",
	Short: "cersei - catalog normalizer for Wikidata-compatible entities",
	Long: `cersei - catalog normalizer for Wikidata-compatible entities.

cersei turns records scraped from external catalogs into revisioned,
Wikidata-shaped entities, and resolves free-text values to items.

Available commands:
  ingest  - Commit catalog records as revisions
  prune   - Delete superseded revisions of a scraper
  resolve - Look up, learn and promote free-text values
  entry   - Inspect one entry and its revisions
  serve   - Start the read-only entity API
  db      - Database statistics
  am      - Show and validate configuration
  version - Show build information

Examples:
  cersei ingest --scraper 7 --file records.jsonl
  cersei resolve sweep --scraper 7
  cersei entry show --scraper 7 --source 42
  cersei serve --port 8877`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := commands.LoadDotEnv(".env"); err != nil {
			return err
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON on stderr")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Print command results as JSON")
	rootCmd.PersistentFlags().String("db", "", "Database path (overrides config)")

	rootCmd.AddCommand(commands.IngestCmd)
	rootCmd.AddCommand(commands.PruneCmd)
	rootCmd.AddCommand(commands.ResolveCmd)
	rootCmd.AddCommand(commands.EntryCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

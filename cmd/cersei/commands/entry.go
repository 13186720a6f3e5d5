package commands

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cersei/display"
	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/logger"
	"github.com/teranos/cersei/server"
	"github.com/teranos/cersei/storage"
)

// EntryCmd inspects stored entries.
var EntryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Inspect and map entries",
	Long: `entry — Inspect entries and link them to Wikidata

Examples:
  cersei entry show --scraper 7 --source 42
  cersei entry show --scraper 7 --source 42 --public
  cersei entry map --scraper 7 --source 42 --item Q42 --method manual`,
}

var entryShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current snapshot and revision history of an entry",
	RunE:  runEntryShow,
}

var entryMapCmd = &cobra.Command{
	Use:   "map",
	Short: "Record the Wikidata entity an entry describes",
	Long:  "Link an entry to a Wikidata entity. An existing link of the entry is replaced.",
	RunE:  runEntryMap,
}

var (
	entryScraperID int
	entrySourceID  string
	entryPublic    bool
	entryMapItem   string
	entryMapMethod string
)

func init() {
	entryShowCmd.Flags().IntVar(&entryScraperID, "scraper", 0, "Scraper id (required)")
	entryShowCmd.Flags().StringVar(&entrySourceID, "source", "", "Source id within the scraper (required)")
	entryShowCmd.Flags().BoolVar(&entryPublic, "public", false, "Show the public entity projection instead of the stored snapshot")
	_ = entryShowCmd.MarkFlagRequired("scraper")
	_ = entryShowCmd.MarkFlagRequired("source")

	entryMapCmd.Flags().IntVar(&entryScraperID, "scraper", 0, "Scraper id (required)")
	entryMapCmd.Flags().StringVar(&entrySourceID, "source", "", "Source id within the scraper (required)")
	entryMapCmd.Flags().StringVar(&entryMapItem, "item", "", "Wikidata entity, e.g. Q42 (required)")
	entryMapCmd.Flags().StringVar(&entryMapMethod, "method", "manual", "How the link was established")
	_ = entryMapCmd.MarkFlagRequired("scraper")
	_ = entryMapCmd.MarkFlagRequired("source")
	_ = entryMapCmd.MarkFlagRequired("item")

	EntryCmd.AddCommand(entryShowCmd, entryMapCmd)
}

func runEntryMap(cmd *cobra.Command, args []string) error {
	item, err := entry.ParseItemValue(entryMapItem)
	if err != nil {
		return err
	}
	store, closeDB, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()
	ctx := cmd.Context()

	info, err := store.EntryBySource(ctx, entryScraperID, entrySourceID)
	if err != nil {
		return err
	}
	if err := store.SetWikidataMapping(ctx, info.ID, item, entryMapMethod); err != nil {
		return err
	}
	mapping, err := store.WikidataMappingFor(ctx, info.ID)
	if err != nil {
		return err
	}
	logger.DBInfow("Entry mapped",
		logger.FieldEntryID, info.ID,
		logger.FieldItem, mapping.Item)

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(cmd.OutOrStdout(), mapping)
	}
	pterm.Success.Printf("%s → %s (%s)\n", server.EntityID(info.ID), mapping.Item, mapping.Method)
	return nil
}

// currentMapping returns the mapping of entryID, or nil when it has none.
func currentMapping(cmd *cobra.Command, store *storage.SQLStore, entryID int64) (*storage.WikidataMapping, error) {
	m, err := store.WikidataMappingFor(cmd.Context(), entryID)
	if errors.IsNotFoundError(err) {
		return nil, nil
	}
	return m, err
}

func runEntryShow(cmd *cobra.Command, args []string) error {
	store, closeDB, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer closeDB()
	ctx := cmd.Context()

	info, err := store.EntryBySource(ctx, entryScraperID, entrySourceID)
	if err != nil {
		return err
	}
	revs, err := store.Revisions(ctx, info.ID)
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return showEntryJSON(cmd, store, info, revs)
	}

	pterm.DefaultSection.Printf("%s (scraper %d, source %q)", server.EntityID(info.ID), info.ScraperID, info.SourceID)
	mapping, err := currentMapping(cmd, store, info.ID)
	if err != nil {
		return err
	}
	if mapping != nil {
		pterm.Info.Printf("Wikidata: %s (%s)\n", mapping.Item, mapping.Method)
	}
	data := pterm.TableData{{"Revision", "Created", "Current"}}
	for _, rev := range revs {
		current := ""
		if rev.Current {
			current = "✓"
		}
		data = append(data, []string{fmt.Sprint(rev.ID), rev.CreatedAt.Format("2006-01-02 15:04:05"), current})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}

	if info.CurrentRevisionID == 0 {
		pterm.Warning.Println("Entry has no committed revision")
		return nil
	}
	snaps, err := store.CurrentSnapshots(ctx, []int64{info.ID})
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		return errors.NewNotFoundError("snapshot of revision %d", info.CurrentRevisionID)
	}

	var out []byte
	if entryPublic {
		doc, err := server.ProjectEntity(snaps[0])
		if err != nil {
			return err
		}
		if out, err = json.MarshalIndent(doc, "", "  "); err != nil {
			return err
		}
	} else {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(snaps[0].JSON), "", "  "); err != nil {
			return errors.Wrapf(err, "snapshot of revision %d", snaps[0].RevisionID)
		}
		out = buf.Bytes()
	}
	fmt.Println(string(out))
	return nil
}

// showEntryJSON prints the entry, its revisions and its current document as one JSON object.
func showEntryJSON(cmd *cobra.Command, store *storage.SQLStore, info *storage.EntryInfo, revs []storage.RevisionInfo) error {
	out := map[string]interface{}{
		"entity":    server.EntityID(info.ID),
		"entry":     info,
		"revisions": revs,
	}
	mapping, err := currentMapping(cmd, store, info.ID)
	if err != nil {
		return err
	}
	if mapping != nil {
		out["wikidata_mapping"] = mapping
	}
	if info.CurrentRevisionID != 0 {
		snaps, err := store.CurrentSnapshots(cmd.Context(), []int64{info.ID})
		if err != nil {
			return err
		}
		if len(snaps) > 0 {
			if entryPublic {
				doc, err := server.ProjectEntity(snaps[0])
				if err != nil {
					return err
				}
				out["document"] = doc
			} else {
				out["document"] = json.RawMessage(snaps[0].JSON)
			}
		}
	}
	return display.OutputJSON(cmd.OutOrStdout(), out)
}

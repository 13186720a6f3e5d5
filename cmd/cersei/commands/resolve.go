package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/cersei/am"
	"github.com/teranos/cersei/display"
	"github.com/teranos/cersei/entry"
	"github.com/teranos/cersei/errors"
	"github.com/teranos/cersei/logger"
	"github.com/teranos/cersei/resolver"
	"github.com/teranos/cersei/storage"
	"github.com/teranos/cersei/sym"
	"github.com/teranos/cersei/version"
	"github.com/teranos/cersei/wikidata"
)

// ResolveCmd groups the resolver operations.
var ResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: sym.AX + " Look up, learn and promote free-text values",
	Long: sym.AX + ` resolve — Map free text to canonical items

Free text is resolved per property group (place, occupation, ...) through a
persistent cache. Unknown text can be learned from the public item corpus;
only unambiguous answers are cached. A sweep rewrites cached free-text values
of current revisions into item values.

Examples:
  cersei resolve lookup --property P19 --text Berlin
  cersei resolve lookup --property P19 --text Berlin --learn
  cersei resolve learn --scraper 7 --min-count 3
  cersei resolve sweep --scraper 7
  cersei resolve groups`,
}

var resolveLookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Resolve one text for a property",
	RunE:  runResolveLookup,
}

var resolveLearnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Learn items for frequent free-text values of a scraper",
	RunE:  runResolveLearn,
}

var resolveSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Promote cached free-text values of a scraper to items",
	RunE:  runResolveSweep,
}

var resolveGroupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Show the property group table",
	RunE:  runResolveGroups,
}

var (
	resolveProperty string
	resolveText     string
	resolveLearn    bool
	resolveScraper  int
	resolveMinCount int
)

func init() {
	resolveLookupCmd.Flags().StringVar(&resolveProperty, "property", "", "Property, e.g. P19 (required)")
	resolveLookupCmd.Flags().StringVar(&resolveText, "text", "", "Text to resolve (required)")
	resolveLookupCmd.Flags().BoolVar(&resolveLearn, "learn", false, "Ask the corpus when the cache has no answer")
	_ = resolveLookupCmd.MarkFlagRequired("property")
	_ = resolveLookupCmd.MarkFlagRequired("text")

	resolveLearnCmd.Flags().IntVar(&resolveScraper, "scraper", 0, "Scraper id (required)")
	resolveLearnCmd.Flags().IntVar(&resolveMinCount, "min-count", 0, "Minimum occurrences (default: resolver.min_count)")
	_ = resolveLearnCmd.MarkFlagRequired("scraper")

	resolveSweepCmd.Flags().IntVar(&resolveScraper, "scraper", 0, "Scraper id (required)")
	_ = resolveSweepCmd.MarkFlagRequired("scraper")

	ResolveCmd.AddCommand(resolveLookupCmd)
	ResolveCmd.AddCommand(resolveLearnCmd)
	ResolveCmd.AddCommand(resolveSweepCmd)
	ResolveCmd.AddCommand(resolveGroupsCmd)
}

// newResolver builds a resolver over store from the resolver config section.
func newResolver(cfg am.ResolverConfig, store *storage.SQLStore) (*resolver.Resolver, error) {
	groups := resolver.DefaultGroups()
	if cfg.GroupsFile != "" {
		var err error
		if groups, err = resolver.LoadGroups(cfg.GroupsFile); err != nil {
			return nil, err
		}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = version.Get().UserAgent()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	corpus := resolver.NewWikidataCorpus(resolver.CorpusConfig{
		Endpoint:          cfg.Endpoint,
		UserAgent:         userAgent,
		Timeout:           timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	}, logger.ComponentLogger("corpus"))

	return resolver.New(store, corpus, groups, resolver.Config{
		Language: cfg.Language,
		Timeout:  timeout,
		MemoTTL:  time.Duration(cfg.MemoTTLSeconds) * time.Second,
	}, logger.ComponentLogger("resolver")), nil
}

// openResolver loads config, opens the store and builds a resolver.
func openResolver(cmd *cobra.Command) (*am.Config, *resolver.Resolver, func(), error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to load configuration")
	}
	store, closeDB, err := openStore(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	r, err := newResolver(cfg.Resolver, store)
	if err != nil {
		closeDB()
		return nil, nil, nil, err
	}
	return cfg, r, closeDB, nil
}

func runResolveLookup(cmd *cobra.Command, args []string) error {
	property, err := entry.NormalizeProperty(resolveProperty)
	if err != nil {
		return err
	}
	_, r, closeDB, err := openResolver(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	group, grouped := r.Groups().Group(property)
	if !grouped {
		pterm.Warning.Printf("%s belongs to no group; free text of this property is never resolved\n", wikidata.PropertyID(property))
		return nil
	}

	resolve := r.Resolve
	if resolveLearn {
		resolve = r.ResolveOrLearn
	}
	item, ok, err := resolve(cmd.Context(), property, resolveText)
	if err != nil {
		return err
	}
	if logger.ShouldOutput(verbosity(cmd), logger.OutputResolverHits) {
		pterm.Info.Printf("Normalized key %q, learning %v\n", resolver.NormalizeText(resolveText), resolveLearn)
	}
	if !ok {
		pterm.Info.Printf("%q (%s, group %s): unresolved\n", resolveText, wikidata.PropertyID(property), group)
		return nil
	}
	pterm.Success.Printf("%q (%s, group %s) → %s\n", resolveText, wikidata.PropertyID(property), group, item.EntityID())
	return nil
}

func runResolveLearn(cmd *cobra.Command, args []string) error {
	cfg, r, closeDB, err := openResolver(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	minCount := resolveMinCount
	if minCount == 0 {
		minCount = cfg.Resolver.MinCount
	}

	jsonOut := display.ShouldOutputJSON(cmd)
	var spinner *pterm.SpinnerPrinter
	if !jsonOut {
		spinner, _ = pterm.DefaultSpinner.Start(fmt.Sprintf("Learning frequent free text of scraper %d...", resolveScraper))
	}
	report, err := r.LearnFrequent(cmd.Context(), resolveScraper, minCount)
	if spinner != nil {
		if err != nil {
			spinner.Fail(err.Error())
		} else {
			spinner.Success("Learning complete")
		}
	}
	if err != nil {
		return err
	}
	logger.AXInfow("Learned frequent free text",
		logger.FieldScraperID, resolveScraper,
		logger.FieldCount, report.Learned)
	if jsonOut {
		return display.OutputJSON(cmd.OutOrStdout(), report)
	}

	_ = pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"Candidates", "Already known", "Learned", "Unresolved", "Ungrouped"},
		{
			fmt.Sprint(report.Candidates),
			fmt.Sprint(report.Known),
			fmt.Sprint(report.Learned),
			fmt.Sprint(report.Unresolved),
			fmt.Sprint(report.Ungrouped),
		},
	}).Render()
	return nil
}

func runResolveSweep(cmd *cobra.Command, args []string) error {
	_, r, closeDB, err := openResolver(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	report, err := r.PromoteFreetextToItems(cmd.Context(), resolveScraper)
	if report != nil {
		logger.AXInfow("Promotion sweep done",
			logger.FieldScraperID, resolveScraper,
			logger.FieldCount, report.Promoted)
		if display.ShouldOutputJSON(cmd) {
			if jsonErr := display.OutputJSON(cmd.OutOrStdout(), report); jsonErr != nil {
				return jsonErr
			}
			return err
		}
		_ = pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
			{"Scanned", "Promoted", "Ambiguous", "Unresolved", "Ungrouped", "Stale"},
			{
				fmt.Sprint(report.Scanned),
				fmt.Sprint(report.Promoted),
				fmt.Sprint(report.Ambiguous),
				fmt.Sprint(report.Unresolved),
				fmt.Sprint(report.Ungrouped),
				fmt.Sprint(report.Stale),
			},
		}).Render()
		if report.Promoted > 0 {
			pterm.Info.Println("Snapshots of touched revisions refresh on the next ingest of those entries")
		}
	}
	return err
}

func runResolveGroups(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	groups := resolver.DefaultGroups()
	if cfg.Resolver.GroupsFile != "" {
		if groups, err = resolver.LoadGroups(cfg.Resolver.GroupsFile); err != nil {
			return err
		}
	}

	data := pterm.TableData{{"Group", "Properties", "Hints"}}
	for _, name := range groups.Names() {
		var props, hints []string
		for _, p := range groups.Properties(name) {
			props = append(props, wikidata.PropertyID(p))
		}
		for _, h := range groups.Hints(name) {
			hints = append(hints, entry.NewItemValue(h).EntityID())
		}
		data = append(data, []string{name, strings.Join(props, ", "), strings.Join(hints, ", ")})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

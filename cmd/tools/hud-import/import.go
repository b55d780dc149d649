// cmd/tools/hud-import/import.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"usahud-crm/internal/common/database"
	"usahud-crm/internal/hud"
	"usahud-crm/internal/matching"
)

var (
	dryRun  bool
	noIndex bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Scrape listings and upsert them into Postgres and the search index",
	RunE:  runImport,
}

func init() {
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute statistics without writing")
	importCmd.Flags().BoolVar(&noIndex, "no-index", false, "Skip the Elasticsearch index")
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return fail("load config: %v", err)
	}
	log := newLogger(cfg)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return fail("connect postgres: %v", err)
	}
	defer pg.Close()
	if err := pg.Ping(ctx); err != nil {
		return fail("ping postgres: %v", err)
	}

	var index hud.Indexer
	if !noIndex && cfg.Database.Elasticsearch.GetURL() != "" {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return fail("connect elasticsearch: %v", err)
		}
		if !dryRun {
			if err := es.EnsureIndex(ctx, cfg.Database.Elasticsearch.PropertyIndex, database.PropertyIndexMapping); err != nil {
				return fail("ensure index: %v", err)
			}
		}
		index = matching.NewSearchSource(es.Client, cfg.Database.Elasticsearch.PropertyIndex)
	}

	results, err := newScraper(cfg, log).ScrapeStates(ctx, selectedStates(cfg))
	if err != nil {
		return fail("scrape: %v", err)
	}

	importer := hud.NewImporter(pg.DB, index, log).WithDryRun(dryRun)

	var total hud.ImportStats
	total.DryRun = dryRun
	for _, r := range results {
		if r.Error != "" {
			fmt.Printf("  %s  skipped: %s\n", r.State, r.Error)
			continue
		}
		stats, err := importer.Import(ctx, r.State, r.Properties)
		if err != nil {
			fmt.Printf("  %s  failed: %v\n", r.State, err)
			continue
		}
		fmt.Printf("  %s  scraped=%d new=%d updated=%d restored=%d under_contract=%d errors=%d\n",
			r.State, stats.TotalScraped, stats.NewProperties, stats.UpdatedProperties,
			stats.RestoredProperties, stats.MarkedUnderContract, stats.Errors)

		total.TotalScraped += stats.TotalScraped
		total.NewProperties += stats.NewProperties
		total.UpdatedProperties += stats.UpdatedProperties
		total.RestoredProperties += stats.RestoredProperties
		total.MarkedUnderContract += stats.MarkedUnderContract
		total.Errors += stats.Errors
	}

	mode := "Imported"
	if dryRun {
		mode = "Dry run:"
	}
	fmt.Printf("%s %d listings (%d new, %d updated, %d restored, %d under contract, %d errors)\n",
		mode, total.TotalScraped, total.NewProperties, total.UpdatedProperties,
		total.RestoredProperties, total.MarkedUnderContract, total.Errors)
	return nil
}

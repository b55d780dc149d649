// cmd/tools/hud-import/scrape.go
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"usahud-crm/internal/hud"
)

var scrapeOutput string

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape listings and print or save them without touching storage",
	RunE:  runScrape,
}

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeOutput, "output", "o", "", "Write scraped listings as JSON to this file")
}

func runScrape(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fail("load config: %v", err)
	}
	log := newLogger(cfg)

	results, err := newScraper(cfg, log).ScrapeStates(cmd.Context(), selectedStates(cfg))
	if err != nil {
		return fail("scrape: %v", err)
	}

	printScrapeSummary(results)

	if scrapeOutput == "" {
		return nil
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fail("marshal results: %v", err)
	}
	if err := os.WriteFile(scrapeOutput, data, 0o644); err != nil {
		return fail("write %s: %v", scrapeOutput, err)
	}
	fmt.Printf("Saved listings to %s\n", scrapeOutput)
	return nil
}

func printScrapeSummary(results []hud.StateResult) {
	total := 0
	for _, r := range results {
		if r.Error != "" {
			fmt.Printf("  %s  failed: %s\n", r.State, r.Error)
			continue
		}
		total += len(r.Properties)
		fmt.Printf("  %s  %s listings\n", r.State, humanize.Comma(int64(len(r.Properties))))
	}
	fmt.Printf("Scraped %s listings across %d states\n", humanize.Comma(int64(total)), len(results))
}

// cmd/tools/hud-import/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"usahud-crm/internal/common/config"
	httpclient "usahud-crm/internal/common/http"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/hud"
)

var (
	configPath string
	statesFlag string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "hud-import",
	Short: "Scrape HUD Home Store listings and sync them into the property catalog",
	Long: `hud-import fetches the public HUD Home Store search results per state,
parses the listing cards and upserts them into Postgres and the property
search index. Listings that disappear from a state are marked under contract.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (defaults to configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&statesFlag, "states", "", "Comma separated state codes (defaults to hud.states)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(scrapeCmd, importCmd, extractCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func newLogger(cfg *config.Config) logger.Logger {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return logger.NewStructured(level, cfg.Logging.Format)
}

// selectedStates prefers --states over the configured list.
func selectedStates(cfg *config.Config) []string {
	if strings.TrimSpace(statesFlag) == "" {
		return cfg.HUD.States
	}
	var out []string
	for _, s := range strings.Split(statesFlag, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func newScraper(cfg *config.Config, log logger.Logger) *hud.Scraper {
	client := httpclient.NewClient(config.GetDuration(cfg.HUD.Timeout))
	return hud.NewScraper(client, cfg.HUD.BaseURL, cfg.HUD.Concurrency, log)
}

func fail(format string, args ...interface{}) error {
	err := fmt.Errorf(format, args...)
	fmt.Fprintln(os.Stderr, "Error:", err)
	return err
}

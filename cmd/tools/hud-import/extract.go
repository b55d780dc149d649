// cmd/tools/hud-import/extract.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"usahud-crm/internal/common/config"
	httpclient "usahud-crm/internal/common/http"
	"usahud-crm/internal/hud"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract a structured listing from free text with the AI model",
	Long: `extract reads listing text from a file (or stdin when no file is given),
asks the configured OpenAI model for structured listing data and prints it
with a validation report.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fail("load config: %v", err)
	}
	if cfg.APIs.OpenAI.APIKey == "" {
		return fail("apis.openai.api_key is not configured")
	}
	log := newLogger(cfg)

	var text []byte
	if len(args) == 1 {
		text, err = os.ReadFile(args[0])
	} else {
		text, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fail("read input: %v", err)
	}

	client := httpclient.NewClient(config.GetDuration(cfg.APIs.OpenAI.Timeout))
	enhancer := hud.NewEnhancer(client, cfg.APIs.OpenAI.BaseURL, cfg.APIs.OpenAI.APIKey, cfg.APIs.OpenAI.Model, log)

	listing, err := enhancer.ExtractFromText(cmd.Context(), string(text))
	if err != nil {
		return fail("extract: %v", err)
	}

	out, err := json.MarshalIndent(map[string]interface{}{
		"listing":    listing,
		"validation": hud.ValidateProperty(*listing, time.Now()),
	}, "", "  ")
	if err != nil {
		return fail("marshal: %v", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/korolevd/textifier/internal/normalize"
	"github.com/korolevd/textifier/internal/pipeline"
)

var (
	summarizeLang    string
	summarizeTimeout time.Duration
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <id>",
	Short: "Summarize an entity with the configured LLM",
	Long: `Summarize renders the entity as prose and asks the configured LLM
provider for a short natural-language summary.

Requires an LLM provider in the config (llm.provider) and its API key
(OPENAI_API_KEY for openai).

Example:
  textifier summarize Q42`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)

	summarizeCmd.Flags().StringVar(&summarizeLang, "lang", "", "label language (default from config)")
	summarizeCmd.Flags().DurationVar(&summarizeTimeout, "timeout", 2*time.Minute, "overall request timeout")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), summarizeTimeout)
	defer cancel()

	id := args[0]
	lang := pickDefault(summarizeLang, a.cfg.Defaults.Lang)

	resp, err := a.pipe.Summarize(ctx, id, pipeline.Request{
		IDs:          []string{id},
		Lang:         lang,
		FallbackLang: a.cfg.Defaults.FallbackLang,
		Options:      normalize.Options{IncludeExternalIDs: true},
	})
	if err != nil {
		return fmt.Errorf("summarize failed: %w", err)
	}

	fmt.Println(resp.Summary)
	if verbose {
		fmt.Printf("\n(model: %s, tokens: %d)\n", resp.Model, resp.TokensUsed)
	}
	return nil
}

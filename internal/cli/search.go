package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/frontdesk-ai/reception-hub/internal/config"
	"github.com/frontdesk-ai/reception-hub/internal/match"
)

// NewSearchCmd creates the 'search' command for querying the knowledge base
// from the terminal.
func NewSearchCmd() *cobra.Command {
	var (
		mode       string
		limit      int
		tags       []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the knowledge base",
		Long:  `Run a query against the knowledge base and show scored matches.`,
		Example: `  reception-hub search "what are your hours"
  reception-hub search --mode bm25 "parking"
  reception-hub search --tags pricing "haircut" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(strings.Join(args, " "), mode, limit, tags, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Search mode: lexical, semantic, or bm25")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum matches to return")
	cmd.Flags().StringSliceVarP(&tags, "tags", "t", nil, "Restrict to entries carrying any of these tags")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runSearch(query, mode string, limit int, tags []string, jsonOutput bool) error {
	cfg, err := config.LoadOrCreate()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	engine, err := buildEngine(ctx, cfg, store, mode == string(match.ModeBM25))
	if err != nil {
		return fmt.Errorf("failed to build match engine: %w", err)
	}

	if mode == string(match.ModeBM25) {
		if _, err := engine.Sync(ctx); err != nil {
			return fmt.Errorf("failed to build search index: %w", err)
		}
	}

	matches, err := engine.Search(ctx, query, match.Mode(mode), match.Options{Limit: limit, Tags: tags})
	if err != nil {
		return err
	}

	if jsonOutput {
		data, err := json.MarshalIndent(matches, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	if len(matches) == 0 {
		fmt.Println("No matches.")
		return nil
	}

	fmt.Printf("Matches (%d):\n\n", len(matches))
	for _, m := range matches {
		fmt.Printf("  %s  [%s, %s, score %.2f]\n", m.Entry.Question, m.Stage, m.Tier, m.Score)
		fmt.Printf("    %s\n\n", m.Entry.Answer)
	}

	return nil
}

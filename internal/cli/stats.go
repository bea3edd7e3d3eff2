package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frontdesk-ai/reception-hub/internal/config"
	"github.com/frontdesk-ai/reception-hub/internal/storage"
)

// NewStatsCmd creates the 'stats' command summarizing the local database.
func NewStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show knowledge base and escalation queue stats",
		Example: `  reception-hub stats
  reception-hub stats --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runStats(jsonOutput bool) error {
	cfg, err := config.LoadOrCreate()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	entries, err := store.ListEntries()
	if err != nil {
		return err
	}
	requests, err := store.ListHelpRequests()
	if err != nil {
		return err
	}

	stats := struct {
		TotalEntries       int `json:"totalEntries"`
		ActiveEntries      int `json:"activeEntries"`
		LearnedEntries     int `json:"learnedEntries"`
		TotalRequests      int `json:"totalRequests"`
		PendingRequests    int `json:"pendingRequests"`
		ResolvedRequests   int `json:"resolvedRequests"`
		UnresolvedRequests int `json:"unresolvedRequests"`
	}{}

	stats.TotalEntries = len(entries)
	for _, e := range entries {
		if e.IsActive {
			stats.ActiveEntries++
		}
		if e.Type == storage.EntryTypeLearnedAnswer {
			stats.LearnedEntries++
		}
	}

	stats.TotalRequests = len(requests)
	for _, r := range requests {
		switch r.Status {
		case storage.StatusPending:
			stats.PendingRequests++
		case storage.StatusResolved:
			stats.ResolvedRequests++
		case storage.StatusUnresolved:
			stats.UnresolvedRequests++
		}
	}

	if jsonOutput {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println("Knowledge base:")
	fmt.Printf("  Total entries:   %d\n", stats.TotalEntries)
	fmt.Printf("  Active:          %d\n", stats.ActiveEntries)
	fmt.Printf("  Learned:         %d\n", stats.LearnedEntries)
	fmt.Println()
	fmt.Println("Help requests:")
	fmt.Printf("  Total:           %d\n", stats.TotalRequests)
	fmt.Printf("  Pending:         %d\n", stats.PendingRequests)
	fmt.Printf("  Resolved:        %d\n", stats.ResolvedRequests)
	fmt.Printf("  Unresolved:      %d\n", stats.UnresolvedRequests)

	return nil
}

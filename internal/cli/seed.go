package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frontdesk-ai/reception-hub/internal/config"
	"github.com/frontdesk-ai/reception-hub/internal/seed"
)

// NewSeedCmd creates the 'seed' command for loading starter knowledge.
func NewSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load starter entries into the knowledge base",
		Long: `Load knowledge entries into the local database.

Without --file, a built-in sample set for a salon front desk is loaded.
Entries whose question already exists are skipped, so re-running is safe.`,
		Example: `  reception-hub seed
  reception-hub seed --file ./knowledge.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(file)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file with entries to load")

	return cmd
}

// runSeed loads the entries and reports what was created.
func runSeed(file string) error {
	cfg, err := config.LoadOrCreate()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	entries := seed.SampleEntries
	if file != "" {
		entries, err = seed.LoadFile(file)
		if err != nil {
			return err
		}
	}

	created, err := seed.Apply(store, entries)
	if err != nil {
		return err
	}

	fmt.Printf("Seeded %d entries (%d skipped as duplicates).\n", created, len(entries)-created)
	fmt.Println("Test the agent with: 'What are your working hours?'")
	return nil
}

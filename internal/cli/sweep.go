package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frontdesk-ai/reception-hub/internal/config"
	"github.com/frontdesk-ai/reception-hub/internal/sweep"
)

// NewSweepCmd creates the 'sweep' command for a one-shot maintenance pass.
func NewSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Time out stale pending help requests",
		Long: `Run one maintenance pass: pending help requests older than the
configured timeout are marked unresolved. The running server does this on a
schedule; this command covers deployments that prefer an external cron.`,
		Example: `  reception-hub sweep`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep()
		},
	}

	return cmd
}

func runSweep() error {
	cfg, err := config.LoadOrCreate()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	result, err := sweep.New(store, nil, cfg.RequestTimeout()).RunOnce()
	if err != nil {
		return err
	}

	fmt.Printf("Timed out %d pending help requests.\n", result.TimedOut)
	return nil
}

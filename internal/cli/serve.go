package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/frontdesk-ai/reception-hub/internal/agent"
	"github.com/frontdesk-ai/reception-hub/internal/config"
	"github.com/frontdesk-ai/reception-hub/internal/convo"
	"github.com/frontdesk-ai/reception-hub/internal/httpapi"
	"github.com/frontdesk-ai/reception-hub/internal/notify"
	"github.com/frontdesk-ai/reception-hub/internal/sweep"
)

// NewServeCmd creates the 'serve' command for running the API server.
func NewServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reception-hub API server",
		Long: `Start the reception-hub HTTP API.

The server answers caller questions from the knowledge base, escalates the
rest to the supervisor queue, and applies supervisor resolutions back as
learned knowledge. A periodic sweep times out stale escalations and evicts
idle conversation sessions.`,
		Example: `  # Run with the config at ~/.reception-hub/config.json
  reception-hub serve

  # Override the listen address
  reception-hub serve --addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")

	return cmd
}

// runServe assembles the runtime and serves until SIGINT/SIGTERM.
func runServe(addrOverride string) error {
	// Load configuration (creates a default config if missing)
	cfg, err := config.LoadOrCreate()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Warning: failed to close store: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	engine, err := buildEngine(ctx, cfg, store, true)
	if err != nil {
		return fmt.Errorf("failed to build match engine: %w", err)
	}

	// Bring the derived views (index, embedding cache) up to date with the
	// store before taking traffic.
	count, err := engine.Sync(ctx)
	if err != nil {
		log.Printf("Warning: initial sync incomplete: %v", err)
	} else {
		log.Printf("Knowledge base ready: %d active entries", count)
	}

	conversations := convo.NewManager(cfg.SessionIdleTimeout())
	orchestrator := agent.New(store, engine, conversations, buildNotifier(cfg))

	sweeper := sweep.New(store, conversations, cfg.RequestTimeout())
	if cfg.Sweep != nil {
		sweeper.Start(cfg.Sweep.Schedule)
	}
	defer sweeper.Stop()

	server := httpapi.NewServer(store, engine, orchestrator, conversations)

	addr := ":8080"
	if cfg.HTTP != nil && cfg.HTTP.Addr != "" {
		addr = cfg.HTTP.Addr
	}
	if addrOverride != "" {
		addr = addrOverride
	}

	if err := server.Run(ctx, addr); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Println("Shutdown complete")
	return nil
}

// buildNotifier assembles the configured notification channels. With
// nothing configured the orchestrator gets a no-op notifier.
func buildNotifier(cfg *config.Config) notify.Notifier {
	n := cfg.Notifications
	if n == nil {
		return nil
	}

	var sinks notify.Multi

	if n.SupervisorWebhookURL != "" || n.FollowupWebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookNotifier(
			n.SupervisorWebhookURL,
			n.FollowupWebhookURL,
			cfg.NotificationTimeout(),
		))
	}

	if n.SlackChannelID != "" {
		token := os.Getenv(n.SlackTokenEnv)
		if token == "" {
			log.Printf("Warning: Slack channel configured but %s is not set, Slack notifications disabled", n.SlackTokenEnv)
		} else {
			sinks = append(sinks, notify.NewSlackNotifier(token, n.SlackChannelID))
		}
	}

	if len(sinks) == 0 {
		return nil
	}
	return sinks
}

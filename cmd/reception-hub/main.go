/*
Package main is the entry point for the reception-hub CLI.

reception-hub is the support backend for an AI receptionist: it answers
caller questions from a local knowledge base, escalates what it cannot
answer to a human supervisor, and folds supervisor answers back into the
knowledge base so the same question is answered automatically next time.

Usage:
  reception-hub [command]

Available Commands:
  serve       Run the HTTP API server
  seed        Load starter entries into the knowledge base
  search      Search the knowledge base from the terminal
  sweep       Time out stale pending help requests
  stats       Show knowledge base and escalation queue stats
  help        Help about any command

Examples:
  # Start the API
  reception-hub serve

  # Load the sample knowledge set
  reception-hub seed

  # Query from the terminal
  reception-hub search "do you have parking"
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frontdesk-ai/reception-hub/internal/cli"
	"github.com/frontdesk-ai/reception-hub/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reception-hub",
		Short: "Knowledge base and escalation backend for an AI receptionist",
		Long: `reception-hub keeps an AI receptionist honest: questions it can answer
come from a curated knowledge base, and everything else escalates to a
human supervisor. Supervisor answers become new knowledge entries, so the
system answers more on its own over time.`,
		Version: version.GetVersion(),
	}

	rootCmd.AddCommand(cli.NewServeCmd())
	rootCmd.AddCommand(cli.NewSeedCmd())
	rootCmd.AddCommand(cli.NewSearchCmd())
	rootCmd.AddCommand(cli.NewSweepCmd())
	rootCmd.AddCommand(cli.NewStatsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "navstack-demo",
		Short: "Demo server for navstack browser-history synchronization",
		Long: `navstack-demo serves a page whose session history is driven by a
navstack synchronizer over a WebSocket bridge.

The page embeds a thin JavaScript shim; the server owns the back stack and
mirrors it into the browser history using either the chronological or the
hierarchical strategy.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("navstack-demo %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "heldairy-api",
	Short:   "heldairy health journal API",
	Long:    `REST API and background jobs for the heldairy daily health journal: entries, local analysis, AI advice and weekly insights.`,
	Version: version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		// os.Exit skips deferred calls
		memguard.Purge()
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(weeklyCmd)
	rootCmd.AddCommand(adviseCmd)
}

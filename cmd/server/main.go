// Package main implements the entry point for the TaskPulse API server,
// which manages users' tasks, regenerates recurring tasks on a daily
// schedule and reports per-user productivity analytics.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. configPath is shared by every
// subcommand through a persistent flag.
func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "taskpulse",
		Short:         "TaskPulse - task tracking API with recurring tasks and analytics",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to a config file (defaults to ./config.yaml when present)")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(migrateCmd(&configPath))
	rootCmd.AddCommand(recurCmd(&configPath))

	return rootCmd
}

package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "swarm",
	Short: "Multi-agent task orchestrator",
	Long: `Swarm runs a pool of LLM-backed agent workers behind a priority
task queue. Tasks are matched to workers by capability, executed in
parallel, and every result is recorded to a local history database.

Tasks arrive either through the spool directory (YAML files picked up
by the watcher) or the submit command. With no subcommand, swarm starts
the pool with a live dashboard, same as 'swarm run'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRun(cmd, args)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:           "orchestrator",
	Short:         "Podcast pipeline orchestrator",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command; every subcommand hangs off it.
var rootCmd = &cobra.Command{
	Use:   "workshop-sync",
	Short: "Mirrors a Steam Workshop favorites list to local game directories",
	Long: `workshop-sync keeps a local catalog of the Workshop items on your
favorites list, downloads their archives through community mirrors and
extracts them into the game's Maps and Mods directories.`,
}

// Execute runs the command tree. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package cmd

import (
	"fmt"

	"workshop-sync/logger"
	"workshop-sync/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// tagsCmd represents the tags command
var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Synchronizes the tag registry with the workshop's tag list",
	Run: func(cmd *cobra.Command, args []string) {
		runTags()
	},
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}

func runTags() {
	_, engine := bootstrap(".")

	added, removed, err := engine.SyncTags()
	if err != nil {
		logger.Log.Errorw("Failed to sync tags", zap.Error(err))
		fmt.Println(ui.ErrStyle.Render("Tag sync failed, registry unchanged."))
		return
	}
	fmt.Printf("%s added %d, removed %d\n", ui.LabelStyle.Render("Tags:"), added, removed)
}

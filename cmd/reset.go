package cmd

import (
	"fmt"

	"workshop-sync/logger"
	"workshop-sync/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipes the catalog, previews and installed directories",
	Long: `Deletes every catalog record, every cached preview and every
installed item directory. Requires --yes; there is no undo.`,
	Run: func(cmd *cobra.Command, args []string) {
		confirmed, _ := cmd.Flags().GetBool("yes")
		if !confirmed {
			fmt.Println(ui.WarnStyle.Render("Refusing to wipe without --yes."))
			return
		}
		runReset()
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().BoolP("yes", "y", false, "Confirm the wipe")
}

func runReset() {
	_, engine := bootstrap(".")

	res, err := engine.Wipe()
	if err != nil {
		logger.Log.Fatalw("Wipe failed", zap.Error(err))
	}

	fmt.Println(ui.TitleStyle.Render("Wipe complete"))
	fmt.Printf("%s %d\n", ui.LabelStyle.Render("Records:"), res.Records)
	fmt.Printf("%s %d\n", ui.LabelStyle.Render("Previews:"), res.Previews)
	fmt.Printf("%s %d\n", ui.LabelStyle.Render("Directories:"), res.Dirs)
	fmt.Printf("%s %s\n", ui.LabelStyle.Render("Freed:"), ui.FormatSize(res.FreedBytes))
}

package cmd

import (
	"fmt"

	"workshop-sync/logger"
	"workshop-sync/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconciles the local catalog with the remote favorites list",
	Long: `Compares the favorites list against the catalog and the installed
directories, then deletes unfavorited items, refreshes known ones and
inserts new ones.`,
	Run: func(cmd *cobra.Command, args []string) {
		useTUI, _ := cmd.Flags().GetBool("tui")
		install, _ := cmd.Flags().GetBool("install")

		if useTUI {
			runSyncTUI(install)
			return
		}
		runSync(install)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().Bool("tui", false, "Show interactive progress instead of plain output")
	syncCmd.Flags().BoolP("install", "i", false, "Download newly favorited items after reconciling")
}

func runSync(install bool) {
	_, engine := bootstrap(".")

	logger.Log.Info("Running sync command...")
	res, err := engine.Reconcile()
	if err != nil {
		logger.Log.Fatalw("Reconciliation aborted", zap.Error(err))
	}

	fmt.Println(ui.TitleStyle.Render("Sync complete"))
	fmt.Printf("%s %d\n", ui.LabelStyle.Render("Deleted:"), res.Deleted)
	fmt.Printf("%s %d\n", ui.LabelStyle.Render("Updated:"), res.Updated)
	fmt.Printf("%s %d\n", ui.LabelStyle.Render("Inserted:"), res.Inserted)
	fmt.Printf("%s %s\n", ui.LabelStyle.Render("Freed:"), ui.FormatSize(res.FreedBytes))

	if !install || len(res.NewIDs) == 0 {
		return
	}

	logger.Log.Infof("Installing %d new items...", len(res.NewIDs))
	failed := engine.InstallPending(res.NewIDs, 0, 0)
	if len(failed) > 0 {
		fmt.Printf("%s %v\n", ui.ErrStyle.Render("Failed downloads:"), failed)
	}
}

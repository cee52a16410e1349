package cmd

import (
	"fmt"
	"strconv"

	"workshop-sync/logger"
	"workshop-sync/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// installCmd represents the install command
var installCmd = &cobra.Command{
	Use:   "install [steam-id...]",
	Short: "Downloads and extracts item archives through the mirror chain",
	Long: `Downloads the archives of the given items, or with --pending every
catalog item that is missing on disk or flagged as stale, and extracts
them into the Maps or Mods directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		pending, _ := cmd.Flags().GetBool("pending")
		runInstall(args, pending)
	},
}

func init() {
	rootCmd.AddCommand(installCmd)

	installCmd.Flags().BoolP("pending", "p", false, "Install everything missing or flagged for update")
}

func runInstall(args []string, pending bool) {
	if len(args) == 0 && !pending {
		logger.Log.Fatal("Error: provide at least one steam id or use --pending.")
	}

	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			logger.Log.Fatalw("Invalid steam id", zap.String("arg", arg), zap.Error(err))
		}
		ids = append(ids, id)
	}

	_, engine := bootstrap(".")

	if pending {
		flagged, err := engine.CheckUpdates()
		if err != nil {
			logger.Log.Errorw("Failed to check for updates", zap.Error(err))
		} else {
			logger.Log.Infof("Flagged %d items as stale.", flagged)
		}
	}

	failed := engine.InstallPending(ids, 0, 0)
	if len(failed) > 0 {
		fmt.Printf("%s %v\n", ui.ErrStyle.Render("Failed downloads:"), failed)
		return
	}
	fmt.Println(ui.TitleStyle.Render("All items installed"))
}

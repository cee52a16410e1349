package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"workshop-sync/logger"
	"workshop-sync/ui"
	"workshop-sync/workshop"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh <steam-id>",
	Short: "Re-fetches one item's metadata and preview",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runRefresh(args[0])
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(arg string) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		logger.Log.Fatalw("Invalid steam id", zap.String("arg", arg), zap.Error(err))
	}

	_, engine := bootstrap(".")

	asset, err := engine.GetAsset(id, false)
	if errors.Is(err, workshop.ErrAssetNotFound) {
		fmt.Println(ui.ErrStyle.Render(fmt.Sprintf("No such workshop item: %d", id)))
		return
	}
	if err != nil {
		logger.Log.Fatalw("Failed to load asset", zap.Int64("steam_id", id), zap.Error(err))
	}

	if err := asset.RefreshFromRemote(); err != nil {
		logger.Log.Fatalw("Failed to refresh asset", zap.Int64("steam_id", id), zap.Error(err))
	}

	fmt.Println(ui.TitleStyle.Render(asset.Name))
	fmt.Printf("%s %s\n", ui.LabelStyle.Render("Kind:"), asset.Kind)
	fmt.Printf("%s %v\n", ui.LabelStyle.Render("Tags:"), asset.Tags)
	fmt.Printf("%s %s\n", ui.LabelStyle.Render("Size:"), ui.FormatSize(asset.FileSize))
	fmt.Printf("%s %s\n", ui.LabelStyle.Render("Updated:"), asset.TimeUpdated.Format("2006-01-02 15:04:05"))
	fmt.Printf("%s %v\n", ui.LabelStyle.Render("Installed:"), asset.IsInstalled)
	if asset.NeedUpdate {
		fmt.Println(ui.WarnStyle.Render("A newer version is available."))
	}
	for name, size := range asset.LocalFiles() {
		fmt.Printf("  %s (%s)\n", name, ui.FormatSize(size))
	}
}

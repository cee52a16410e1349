package cmd

import (
	"fmt"
	"sort"

	"workshop-sync/logger"
	"workshop-sync/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints catalog counts and on-disk sizes",
	Run: func(cmd *cobra.Command, args []string) {
		runStats()
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats() {
	_, engine := bootstrap(".")

	stats, err := engine.Stats()
	if err != nil {
		logger.Log.Fatalw("Failed to collect statistics", zap.Error(err))
	}

	fmt.Println(ui.TitleStyle.Render("Catalog"))
	fmt.Printf("%s %d\n", ui.LabelStyle.Render("Items:"), stats.Total)
	fmt.Printf("%s %d\n", ui.LabelStyle.Render("Installed:"), stats.Installed)
	if stats.NotInstalled > 0 {
		fmt.Printf("%s %s\n", ui.LabelStyle.Render("Not installed:"),
			ui.WarnStyle.Render(fmt.Sprintf("%d", stats.NotInstalled)))
	}

	fmt.Println(ui.TitleStyle.Render("Tags"))
	names := make([]string, 0, len(stats.ByTag))
	for name := range stats.ByTag {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s %d\n", ui.LabelStyle.Render(name+":"), stats.ByTag[name])
	}

	fmt.Println(ui.TitleStyle.Render("Disk"))
	fmt.Printf("%s %s\n", ui.LabelStyle.Render("Maps:"), ui.FormatSize(stats.AssetsBytes))
	fmt.Printf("%s %s\n", ui.LabelStyle.Render("Mods:"), ui.FormatSize(stats.ModsBytes))
	fmt.Printf("%s %s\n", ui.LabelStyle.Render("Total:"), ui.FormatSize(stats.TotalBytes))
}

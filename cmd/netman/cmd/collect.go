package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/AravindhGoutham/NetMan/common"
	"github.com/AravindhGoutham/NetMan/scraping"
	"github.com/AravindhGoutham/NetMan/snapshot"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "poll every device once and write the snapshot file",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()
		return collect(ctx, config)
	},
}

func init() {
	rootCmd.AddCommand(collectCmd)
}

func collect(ctx context.Context, config *common.Config) error {
	collector := scraping.NewCollector(newPoller(config), config.Devices, config.Workers)
	fleet, _, err := collector.Collect(ctx)
	if err != nil {
		return err
	}
	return snapshot.Write(fleet, config.SnapshotPath)
}

package cmd

import (
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AravindhGoutham/NetMan/db"
	"github.com/AravindhGoutham/NetMan/util"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "collect the snapshot and sample the CPU at the same time",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		var waitGroup sync.WaitGroup
		shutdown := util.NewShutdownChannelDistributor[struct{}](nil)
		dbClient := db.StartClient(&waitGroup, shutdown, config.InfluxDB)
		defer func() {
			shutdown.Shutdown()
			waitGroup.Wait()
		}()

		// Independent sessions, neither cancels the other
		var group errgroup.Group
		group.Go(func() error {
			return collect(ctx, config)
		})
		group.Go(func() error {
			return sample(ctx, config, dbClient)
		})
		return group.Wait()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

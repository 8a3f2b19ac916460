package cmd

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AravindhGoutham/NetMan/chart"
	"github.com/AravindhGoutham/NetMan/common"
	"github.com/AravindhGoutham/NetMan/db"
	"github.com/AravindhGoutham/NetMan/scraping"
	"github.com/AravindhGoutham/NetMan/util"
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "sample the CPU utilization of one device for the configured window and render a chart",
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
		return sample(ctx, config, dbClient)
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
}

func sample(ctx context.Context, config *common.Config, dbClient *db.Client) error {
	device, err := config.SamplerDevice()
	if err != nil {
		return err
	}
	sampler := scraping.NewSampler(newPoller(config), device, config.Sampler, nil)
	startTime := time.Now()
	sampler.OnSample = func(sample common.Sample) {
		dbClient.StoreCPUSample(startTime, device, sample)
	}
	series := sampler.Run(ctx)
	if len(series) == 0 {
		log.WithFields(log.Fields{
			"device": device.Name,
		}).Warn("No samples collected, rendering empty chart")
	}
	return chart.RenderJPEG(series, config.Sampler.ChartPath, "CPU Utilization of "+device.Name)
}

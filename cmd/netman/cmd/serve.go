package cmd

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AravindhGoutham/NetMan/chart"
	"github.com/AravindhGoutham/NetMan/common"
	"github.com/AravindhGoutham/NetMan/db"
	"github.com/AravindhGoutham/NetMan/http"
	"github.com/AravindhGoutham/NetMan/scraping"
	"github.com/AravindhGoutham/NetMan/snapshot"
	"github.com/AravindhGoutham/NetMan/util"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "collect periodically, sample continuously and serve metrics over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		serve(config)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(config *common.Config) {
	// Setup internal shutdown mechanism
	shutdownChannel := make(chan os.Signal, 1)
	signal.Notify(shutdownChannel, syscall.SIGINT, syscall.SIGTERM)
	shutdown := util.NewShutdownChannelDistributor[os.Signal](shutdownChannel)

	poller := newPoller(config)
	store := scraping.NewStore()

	// Run internal services in background
	var waitGroup sync.WaitGroup
	dbClient := db.StartClient(&waitGroup, shutdown, config.InfluxDB)
	http.StartServer(&waitGroup, shutdown, config.HTTPEndpoint, http.NewServer(store, dbClient))

	collector := scraping.NewCollector(poller, config.Devices, config.Workers)
	scraping.StartScraper(&waitGroup, shutdown, collector, config.ScrapeInterval(), func(fleet *common.FleetSnapshot, scrapes []common.ScrapeEntry) {
		store.SetCollection(fleet, scrapes)
		if err := snapshot.Write(fleet, config.SnapshotPath); err != nil {
			log.WithError(err).Error("Failed to write snapshot")
		}
		for _, entry := range scrapes {
			dbClient.StoreScrapeEntry(entry)
		}
		for _, status := range fleet.Status {
			dbClient.StoreDeviceStatus(fleet.Time, status)
		}
	})

	if device, err := config.SamplerDevice(); err != nil {
		log.WithError(err).Warn("Sampler disabled")
	} else {
		newSampler := func() *scraping.Sampler {
			sampler := scraping.NewSampler(poller, device, config.Sampler, nil)
			startTime := time.Now()
			sampler.OnSample = func(sample common.Sample) {
				store.SetSample(sample)
				dbClient.StoreCPUSample(startTime, device, sample)
			}
			return sampler
		}
		scraping.StartSampler(&waitGroup, shutdown, newSampler, config.Sampler.Interval(), func(series common.SampleSeries) {
			if err := chart.RenderJPEG(series, config.Sampler.ChartPath, "CPU Utilization of "+device.Name); err != nil {
				log.WithError(err).Error("Failed to render chart")
			}
		})
	}

	// Wait for internal services to finish
	waitGroup.Wait()
}

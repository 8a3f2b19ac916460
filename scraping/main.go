package scraping

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/AravindhGoutham/NetMan/common"
	"github.com/AravindhGoutham/NetMan/util"
)

// CollectionHandler - Receives every completed fleet collection.
type CollectionHandler func(snapshot *common.FleetSnapshot, scrapes []common.ScrapeEntry)

// StartScraper - Start the periodic fleet collection in background.
// Collections never overlap; a collection still running at shutdown is cancelled.
// A fatal collection error shuts everything down.
func StartScraper(waitGroup *sync.WaitGroup, shutdown *util.ShutdownChannelDistributor, collector *Collector, interval time.Duration, handler CollectionHandler) {
	// Setup shutdown signal and waitgroup
	shutdownChannel := make(chan bool, 1)
	if !shutdown.AddListener(shutdownChannel) {
		return
	}
	waitGroup.Add(1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-shutdownChannel
		cancel()
	}()

	go func() {
		defer waitGroup.Done()
		defer log.Info("Scraper stopped")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// Scrape immediately
		if !scrapeAll(ctx, collector, handler) {
			shutdown.Shutdown()
			return
		}

		for {
			select {
			case <-ticker.C:
				if !scrapeAll(ctx, collector, handler) {
					shutdown.Shutdown()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.WithFields(log.Fields{
		"interval": interval,
	}).Info("Scraper started")
}

// scrapeAll returns false if the collection failed fatally.
func scrapeAll(ctx context.Context, collector *Collector, handler CollectionHandler) bool {
	log.Trace("Scraping all devices")
	snapshot, scrapes, err := collector.Collect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Shutting down
			return true
		}
		log.WithError(err).Error("Fleet collection failed, stopping")
		return false
	}
	handler(snapshot, scrapes)
	return true
}

// SeriesHandler - Receives the series of every completed sampling window.
type SeriesHandler func(series common.SampleSeries)

// StartSampler - Run sampling windows back to back in background until shutdown.
// Every window uses a fresh sampler from newSampler; pause is waited between windows.
func StartSampler(waitGroup *sync.WaitGroup, shutdown *util.ShutdownChannelDistributor, newSampler func() *Sampler, pause time.Duration, handler SeriesHandler) {
	// Setup shutdown signal and waitgroup
	shutdownChannel := make(chan bool, 1)
	if !shutdown.AddListener(shutdownChannel) {
		return
	}
	waitGroup.Add(1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-shutdownChannel
		cancel()
	}()

	go func() {
		defer waitGroup.Done()
		defer log.Info("Sampler stopped")
		for {
			series := newSampler().Run(ctx)
			if ctx.Err() != nil {
				return
			}
			handler(series)

			select {
			case <-time.After(pause):
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Sampler started")
}

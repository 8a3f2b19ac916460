package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2api "github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	log "github.com/sirupsen/logrus"

	"github.com/AravindhGoutham/NetMan/common"
	"github.com/AravindhGoutham/NetMan/util"
)

// QueryRecentTime - InfluxDB-formatted time to consider for fetching "recent" entries.
const QueryRecentTime = "-15m"

// Measurements.
const (
	MeasurementScrape          = "scrape"
	MeasurementInterfaceStatus = "interface_status"
	MeasurementCPU             = "cpu_utilization"
)

// Client - InfluxDB client. All methods are safe on a nil client and do nothing until the DB is up.
type Client struct {
	mutex    sync.RWMutex
	url      string
	bucket   string
	client   influxdb2.Client
	queryAPI influxdb2api.QueryAPI
	writeAPI influxdb2api.WriteAPI
}

// StartClient - Start DB client in the background. Returns nil if no DB is configured.
func StartClient(waitGroup *sync.WaitGroup, shutdown *util.ShutdownChannelDistributor, config common.InfluxDBConfig) *Client {
	if config.URL == "" {
		log.Info("No database configured")
		return nil
	}

	// Setup shutdown signal and waitgroup
	shutdownChannel := make(chan bool, 1)
	if !shutdown.AddListener(shutdownChannel) {
		return nil
	}
	waitGroup.Add(1)

	dbClient := &Client{
		url:    config.URL,
		bucket: config.Bucket,
		client: influxdb2.NewClient(config.URL, config.Token),
	}

	cleanup := func() {
		dbClient.mutex.Lock()
		writeAPI := dbClient.writeAPI
		dbClient.queryAPI = nil
		dbClient.writeAPI = nil
		dbClient.mutex.Unlock()
		if writeAPI != nil {
			writeAPI.Flush()
		}
		dbClient.client.Close()
		log.Info("DB client stopped")
		waitGroup.Done()
	}

	go func() {
		// Wait for DB connection (true) to come up or for shutdown signal (false)
		if !dbClient.waitForDBUp(shutdownChannel) {
			cleanup()
			return
		}

		// Setup query API, async write API and error logging
		writeAPI := dbClient.client.WriteAPI(config.Org, config.Bucket)
		writeAPIErrors := writeAPI.Errors()
		go func() {
			for err := range writeAPIErrors {
				log.WithError(err).Error("Failed to write to database")
			}
		}()
		dbClient.mutex.Lock()
		dbClient.queryAPI = dbClient.client.QueryAPI(config.Org)
		dbClient.writeAPI = writeAPI
		dbClient.mutex.Unlock()
		log.Info("DB client ready: ", config.URL)

		<-shutdownChannel
		cleanup()
	}()

	log.Info("DB client started: ", config.URL)
	return dbClient
}

func (dbClient *Client) waitForDBUp(shutdownChannel <-chan bool) bool {
	checkHealth := func() bool {
		_, err := dbClient.client.Health(context.Background())
		if err != nil {
			log.WithError(err).Tracef("Database connection error")
			return false
		}
		return true
	}
	if checkHealth() {
		return true
	}
	log.Info("Waiting for database")
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if checkHealth() {
				return true
			}
		case <-shutdownChannel:
			return false
		}
	}
}

func (dbClient *Client) write(point *write.Point) {
	if dbClient == nil {
		return
	}
	dbClient.mutex.RLock()
	defer dbClient.mutex.RUnlock()
	if dbClient.writeAPI == nil {
		return
	}
	dbClient.writeAPI.WritePoint(point)
}

// StoreScrapeEntry - Attempt to store a scrape entry in the DB.
func (dbClient *Client) StoreScrapeEntry(entry common.ScrapeEntry) {
	log.WithFields(log.Fields{
		"source":          entry.Source,
		"time":            entry.Time,
		"duration":        entry.Duration,
		"success":         entry.Success,
		"interface_count": entry.InterfaceCount,
	}).Trace("Scrape entry")
	dbClient.write(newScrapePoint(entry))
}

// StoreDeviceStatus - Attempt to store the link state of every interface of a device in the DB.
func (dbClient *Client) StoreDeviceStatus(timestamp time.Time, status common.DeviceStatus) {
	log.WithFields(log.Fields{
		"source":          status.Device.Name,
		"interface_count": len(status.Interfaces),
	}).Trace("Device status entry")
	for _, iface := range status.Interfaces {
		dbClient.write(newInterfaceStatusPoint(timestamp, status.Device.Name, iface))
	}
}

// StoreCPUSample - Attempt to store a CPU utilization sample in the DB.
func (dbClient *Client) StoreCPUSample(startTime time.Time, device common.Device, sample common.Sample) {
	log.WithFields(log.Fields{
		"source":  device.Name,
		"elapsed": sample.Elapsed,
		"value":   sample.Value,
	}).Trace("CPU sample entry")
	dbClient.write(newCPUPoint(startTime, device, sample))
}

func newScrapePoint(entry common.ScrapeEntry) *write.Point {
	return influxdb2.NewPointWithMeasurement(MeasurementScrape).
		AddTag("source", entry.Source).
		AddField("duration_seconds", entry.Duration.Seconds()).
		AddField("success", entry.Success).
		AddField("interface_count", entry.InterfaceCount).
		SetTime(entry.Time)
}

func newInterfaceStatusPoint(timestamp time.Time, device string, iface common.InterfaceStatus) *write.Point {
	return influxdb2.NewPointWithMeasurement(MeasurementInterfaceStatus).
		AddTag("source", device).
		AddTag("interface", iface.Name).
		AddField("up", iface.State == common.LinkStateUp).
		AddField("state", iface.State.String()).
		SetTime(timestamp)
}

func newCPUPoint(startTime time.Time, device common.Device, sample common.Sample) *write.Point {
	elapsed := time.Duration(sample.Elapsed * float64(time.Second))
	return influxdb2.NewPointWithMeasurement(MeasurementCPU).
		AddTag("source", device.Name).
		AddField("percent", sample.Value).
		SetTime(startTime.Add(elapsed))
}

// FetchRecentScrapeEntries - Fetch recent scrape entries from the DB, oldest first.
func (dbClient *Client) FetchRecentScrapeEntries(ctx context.Context) ([]common.ScrapeEntry, error) {
	if dbClient == nil {
		return nil, nil
	}
	dbClient.mutex.RLock()
	queryAPI := dbClient.queryAPI
	dbClient.mutex.RUnlock()
	if queryAPI == nil {
		return nil, nil
	}

	result, err := queryAPI.Query(ctx, recentScrapesQuery(dbClient.bucket))
	if err != nil {
		return nil, fmt.Errorf("failed to query scrape entries: %w", err)
	}
	defer result.Close()

	entries := make([]common.ScrapeEntry, 0)
	for result.Next() {
		record := result.Record()
		entry := common.ScrapeEntry{Time: record.Time()}
		if source, ok := record.ValueByKey("source").(string); ok {
			entry.Source = source
		}
		if duration, ok := record.ValueByKey("duration_seconds").(float64); ok {
			entry.Duration = time.Duration(duration * float64(time.Second))
		}
		if success, ok := record.ValueByKey("success").(bool); ok {
			entry.Success = success
		}
		if count, ok := record.ValueByKey("interface_count").(int64); ok {
			entry.InterfaceCount = int(count)
		}
		entries = append(entries, entry)
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("failed to parse scrape entries: %w", result.Err())
	}
	return entries, nil
}

func recentScrapesQuery(bucket string) string {
	return `from(bucket:"` + bucket + `")` +
		` |> range(start: ` + QueryRecentTime + `)` +
		` |> filter(fn: (r) => r._measurement == "` + MeasurementScrape + `")` +
		` |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")` +
		` |> sort(columns: ["_time"])`
}

package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/AravindhGoutham/NetMan/common"
	"github.com/AravindhGoutham/NetMan/db"
	"github.com/AravindhGoutham/NetMan/scraping"
	"github.com/AravindhGoutham/NetMan/snapshot"
	"github.com/AravindhGoutham/NetMan/util"
)

// ShutdownTimeout - Time given to in-flight requests on shutdown.
const ShutdownTimeout = 5 * time.Second

// Server - Serves metrics and the latest snapshot.
type Server struct {
	store    *scraping.Store
	dbClient *db.Client
}

// NewServer - Create a server reading from the store. The DB client may be nil.
func NewServer(store *scraping.Store, dbClient *db.Client) *Server {
	return &Server{
		store:    store,
		dbClient: dbClient,
	}
}

// Handler - Request multiplexer for all paths.
func (server *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", server.handleOtherRequest)
	mux.HandleFunc("/metrics", server.handleMetricsRequest)
	mux.HandleFunc("/snapshot", server.handleSnapshotRequest)
	mux.HandleFunc("/scrapes", server.handleScrapesRequest)
	return mux
}

// StartServer - Start HTTP server in the background.
func StartServer(waitGroup *sync.WaitGroup, shutdown *util.ShutdownChannelDistributor, endpoint string, server *Server) {
	shutdownChannel := make(chan bool, 1)
	if !shutdown.AddListener(shutdownChannel) {
		return
	}
	waitGroup.Add(1)

	httpServer := &http.Server{
		Addr:              endpoint,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run
	stopped := make(chan struct{})
	go func() {
		defer waitGroup.Done()
		defer close(stopped)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server failed")
			shutdown.Shutdown()
		}
		log.Info("HTTP server stopped")
	}()

	// Shutdown
	go func() {
		select {
		case <-shutdownChannel:
			ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(ctx); err != nil {
				log.WithError(err).Warn("HTTP server shutdown incomplete")
			}
		case <-stopped:
		}
	}()

	log.Infof("HTTP server started: %v", endpoint)
}

func (server *Server) handleOtherRequest(response http.ResponseWriter, request *http.Request) {
	if request.URL.Path == "/" {
		fmt.Fprintf(response, "%s version %s by %s.\n", common.AppName, common.AppVersion, common.AppAuthor)
		fmt.Fprintf(response, "\nPaths:\n")
		fmt.Fprintf(response, "- Metrics: /metrics\n")
		fmt.Fprintf(response, "- Latest snapshot: /snapshot\n")
		fmt.Fprintf(response, "- Recent scrapes: /scrapes\n")
	} else {
		http.Error(response, "404 - Page not found.\n", http.StatusNotFound)
	}
}

func (server *Server) handleMetricsRequest(response http.ResponseWriter, request *http.Request) {
	log.WithFields(log.Fields{
		"endpoint": "metrics",
		"client":   request.RemoteAddr,
		"url":      request.URL,
	}).Trace("Request")

	// Build registry with data
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	factory := util.NewMetricFactory(registry, common.PrometheusNamespace)
	factory.ExporterInfo(common.AppVersion)
	fleet, scrapes := server.store.Collection()
	buildInterfaceMetrics(factory, fleet)
	buildScrapeMetrics(factory, scrapes)
	if sample, ok := server.store.Sample(); ok {
		factory.Gauge("cpu", "utilization_percent", "Latest sampled CPU utilization.", nil).Set(sample.Value)
	}

	// Delegate final handling to Prometheus
	promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP(response, request)
}

func buildInterfaceMetrics(factory util.MetricFactory, fleet *common.FleetSnapshot) {
	upMetric := factory.GaugeVec("interface", "up", "Whether the interface link is up (1) or down (0).", "device", "interface")
	ipv6Metric := factory.GaugeVec("interface", "ipv6_addresses", "Number of IPv6 addresses on the interface.", "device", "interface")
	if fleet == nil {
		return
	}
	for _, router := range fleet.Routers {
		for _, record := range router.Interfaces {
			labels := prometheus.Labels{"device": router.Device.Name, "interface": record.Name}
			if record.LinkState != common.LinkStateUnknown {
				upMetric.With(labels).Set(util.BoolValue(record.LinkState == common.LinkStateUp))
			}
			ipv6Metric.With(labels).Set(float64(len(record.IPv6)))
		}
	}
}

func buildScrapeMetrics(factory util.MetricFactory, scrapes []common.ScrapeEntry) {
	successMetric := factory.GaugeVec("device", "last_scrape_success", "Whether the last scrape of the device succeeded.", "device")
	durationMetric := factory.GaugeVec("device", "last_scrape_duration_seconds", "Duration of the last scrape of the device.", "device")
	for _, entry := range scrapes {
		labels := prometheus.Labels{"device": entry.Source}
		successMetric.With(labels).Set(util.BoolValue(entry.Success))
		durationMetric.With(labels).Set(entry.Duration.Seconds())
	}
}

func (server *Server) handleSnapshotRequest(response http.ResponseWriter, request *http.Request) {
	fleet, _ := server.store.Collection()
	if fleet == nil {
		http.Error(response, "503 - No snapshot collected yet.\n", http.StatusServiceUnavailable)
		return
	}
	data, err := snapshot.Render(fleet)
	if err != nil {
		log.WithError(err).Error("Failed to render snapshot")
		http.Error(response, "500 - Failed to render snapshot.\n", http.StatusInternalServerError)
		return
	}
	response.Header().Set("Content-Type", "application/json")
	response.Write(data)
}

func (server *Server) handleScrapesRequest(response http.ResponseWriter, request *http.Request) {
	entries, err := server.dbClient.FetchRecentScrapeEntries(request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to query from database")
		http.Error(response, "500 - Database query failed.\n", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		// No database, fall back to the latest collection
		_, entries = server.store.Collection()
	}
	for _, entry := range entries {
		fmt.Fprintf(response, "%v source=%v success=%v duration=%v interfaces=%v\n",
			entry.Time.UTC().Format(time.RFC3339), entry.Source, entry.Success, entry.Duration, entry.InterfaceCount)
	}
}

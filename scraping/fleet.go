package scraping

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/AravindhGoutham/NetMan/common"
	"github.com/AravindhGoutham/NetMan/correlation"
	"github.com/AravindhGoutham/NetMan/oid"
	"github.com/AravindhGoutham/NetMan/snmp"
)

// Collector - Polls the configured fleet and builds a snapshot.
type Collector struct {
	poller  snmp.Poller
	devices []common.Device
	workers int
}

// deviceResult is written by exactly one worker and read by the coordinator after all workers are done.
type deviceResult struct {
	router common.RouterSnapshot
	ok     bool
	scrape common.ScrapeEntry
}

// NewCollector - Create a collector polling at most workers devices at the same time.
func NewCollector(poller snmp.Poller, devices []common.Device, workers int) *Collector {
	if workers < 1 {
		workers = 1
	}
	return &Collector{
		poller:  poller,
		devices: devices,
		workers: workers,
	}
}

// Collect - Poll every device once. Devices which could not be polled are absent from the snapshot.
// An error is only returned for a fatal failure (a programming error or cancellation); no snapshot is produced then.
func (collector *Collector) Collect(ctx context.Context) (*common.FleetSnapshot, []common.ScrapeEntry, error) {
	log.WithFields(log.Fields{
		"device_count": len(collector.devices),
		"workers":      collector.workers,
	}).Debug("Collecting fleet")
	startTime := time.Now()

	results := make([]deviceResult, len(collector.devices))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(collector.workers)
	for i, device := range collector.devices {
		i, device := i, device
		group.Go(func() error {
			result, err := collector.collectDevice(groupCtx, device)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("collection cancelled: %w", err)
	}

	// Single aggregation point, in configured device order
	snapshot := &common.FleetSnapshot{
		Time:    startTime,
		Routers: make([]common.RouterSnapshot, 0, len(results)),
		Status:  make([]common.DeviceStatus, 0, len(results)),
	}
	scrapes := make([]common.ScrapeEntry, 0, len(results))
	for _, result := range results {
		scrapes = append(scrapes, result.scrape)
		if !result.ok {
			continue
		}
		snapshot.Routers = append(snapshot.Routers, result.router)
		snapshot.Status = append(snapshot.Status, result.router.StatusView())
	}

	log.WithFields(log.Fields{
		"device_count":    len(collector.devices),
		"collected_count": len(snapshot.Routers),
		"duration":        time.Since(startTime),
	}).Info("Collected fleet")
	return snapshot, scrapes, nil
}

// collectDevice polls one device with its own session. Only a correlation error is returned.
func (collector *Collector) collectDevice(ctx context.Context, device common.Device) (deviceResult, error) {
	log.WithFields(log.Fields{
		"device": device.Name,
	}).Trace("Collecting device")
	startTime := time.Now()
	result := deviceResult{
		scrape: common.ScrapeEntry{Time: startTime, Source: device.Name},
	}

	session, err := collector.poller.Open(ctx, device)
	if err != nil {
		showDeviceFailure(device, "Failed to open session, device omitted", err)
		result.scrape.Duration = time.Since(startTime)
		return result, nil
	}
	defer func() {
		if err := session.Close(); err != nil {
			showDeviceWeakFailure(device, "Failed to close session", err, nil)
		}
	}()

	tables := correlation.Tables{
		Names:  collector.walk(ctx, session, device, oid.InterfaceNameTable),
		IPv4:   collector.walk(ctx, session, device, oid.IPv4AddressTable),
		IPv6:   collector.walk(ctx, session, device, oid.IPv6AddressTable),
		Status: collector.walk(ctx, session, device, oid.InterfaceStatusTable),
	}
	router, err := correlation.Correlate(device, tables)
	if err != nil {
		return result, fmt.Errorf("correlate device %v: %w", device.Name, err)
	}

	result.router = router
	result.ok = true
	result.scrape.Duration = time.Since(startTime)
	result.scrape.Success = true
	result.scrape.InterfaceCount = len(router.Interfaces)
	return result, nil
}

// walk returns the table, or an empty table if the walk failed.
func (collector *Collector) walk(ctx context.Context, session snmp.Session, device common.Device, table string) common.WalkResult {
	walk, err := session.Walk(ctx, table)
	if err != nil {
		showDeviceWeakFailure(device, "Failed to walk table, using empty table", err, log.Fields{
			"table": table,
		})
		return common.WalkResult{}
	}
	return walk
}

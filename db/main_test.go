package db

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AravindhGoutham/NetMan/common"
	"github.com/AravindhGoutham/NetMan/util"
)

var testTime = time.Unix(1700000000, 0)

func TestScrapePoint(t *testing.T) {
	line := write.PointToLineProtocol(newScrapePoint(common.ScrapeEntry{
		Time:           testTime,
		Source:         "R1",
		Duration:       1500 * time.Millisecond,
		Success:        true,
		InterfaceCount: 3,
	}), time.Second)

	assert.Contains(t, line, "scrape,source=R1 ")
	assert.Contains(t, line, "duration_seconds=1.5")
	assert.Contains(t, line, "success=true")
	assert.Contains(t, line, "interface_count=3i")
	assert.Contains(t, line, " 1700000000")
}

func TestInterfaceStatusPoint(t *testing.T) {
	line := write.PointToLineProtocol(newInterfaceStatusPoint(testTime, "R1", common.InterfaceStatus{
		Name:  "Gi0/0",
		State: common.LinkStateDown,
	}), time.Second)

	assert.Contains(t, line, "interface_status,")
	assert.Contains(t, line, "interface=Gi0/0")
	assert.Contains(t, line, "source=R1")
	assert.Contains(t, line, "up=false")
	assert.Contains(t, line, `state="Down"`)
}

func TestCPUPoint(t *testing.T) {
	point := newCPUPoint(testTime, common.Device{Name: "R1"}, common.Sample{Elapsed: 10, Value: 42})
	assert.Equal(t, testTime.Add(10*time.Second), point.Time())

	line := write.PointToLineProtocol(point, time.Second)
	assert.Contains(t, line, "cpu_utilization,source=R1 percent=42")
}

func TestRecentScrapesQuery(t *testing.T) {
	query := recentScrapesQuery("netman")
	assert.Contains(t, query, `from(bucket:"netman")`)
	assert.Contains(t, query, `r._measurement == "scrape"`)
	assert.Contains(t, query, "range(start: "+QueryRecentTime+")")
}

func TestNilClientIsNoOp(t *testing.T) {
	var client *Client
	client.StoreScrapeEntry(common.ScrapeEntry{Source: "R1"})
	client.StoreDeviceStatus(testTime, common.DeviceStatus{
		Device:     common.Device{Name: "R1"},
		Interfaces: []common.InterfaceStatus{{Name: "Gi0/0", State: common.LinkStateUp}},
	})
	client.StoreCPUSample(testTime, common.Device{Name: "R1"}, common.Sample{})

	entries, err := client.FetchRecentScrapeEntries(context.Background())
	require.NoError(t, err)
	assert.Nil(t, entries)
}

func TestStartClient_Disabled(t *testing.T) {
	var waitGroup sync.WaitGroup
	shutdown := util.NewShutdownChannelDistributor[bool](nil)
	assert.Nil(t, StartClient(&waitGroup, shutdown, common.InfluxDBConfig{}))
	waitGroup.Wait()
}

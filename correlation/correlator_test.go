package correlation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AravindhGoutham/NetMan/common"
	"github.com/AravindhGoutham/NetMan/oid"
)

var testDevice = common.Device{Name: "R1", Address: "7.0.0.1", CredentialID: "v3"}

func nameEntry(index int, name string) common.WalkEntry {
	return common.WalkEntry{OID: fmt.Sprintf("%v.%d", oid.InterfaceNameTable, index), Value: name}
}

func ipv4Entry(index int, address string) common.WalkEntry {
	return common.WalkEntry{OID: fmt.Sprintf("%v.%d", oid.IPv4AddressTable, index), Value: address}
}

func statusEntry(index int, value string) common.WalkEntry {
	return common.WalkEntry{OID: fmt.Sprintf("%v.%d", oid.InterfaceStatusTable, index), Value: value}
}

// ipv6Entry encodes a 16 octet address given as 8 hextets into an IPV6-MIB OID.
func ipv6Entry(index int, hextets ...uint16) common.WalkEntry {
	parts := []string{oid.IPv6AddressTable, strconv.Itoa(index)}
	for _, hextet := range hextets {
		parts = append(parts, strconv.Itoa(int(hextet>>8)), strconv.Itoa(int(hextet&0xff)))
	}
	return common.WalkEntry{OID: strings.Join(parts, "."), Value: "64"}
}

func TestCorrelate_SingleInterface(t *testing.T) {
	tables := Tables{
		Names:  common.WalkResult{nameEntry(1, "Gi0/0")},
		IPv4:   common.WalkResult{ipv4Entry(1, "10.0.0.1")},
		IPv6:   common.WalkResult{ipv6Entry(1, 0x2001, 0x0db8, 0, 0, 0, 0, 0, 1)},
		Status: common.WalkResult{statusEntry(1, "1")},
	}

	router, err := Correlate(testDevice, tables)
	require.NoError(t, err)
	require.Len(t, router.Interfaces, 1)

	record, ok := router.Interface("Gi0/0")
	require.True(t, ok)
	assert.Equal(t, 1, record.Index)
	assert.Equal(t, "10.0.0.1", record.IPv4)
	assert.Equal(t, []string{"2001:0db8:0000:0000:0000:0000:0000:0001"}, record.IPv6)
	assert.Equal(t, common.LinkStateUp, record.LinkState)
	assert.Equal(t, testDevice, router.Device)
}

func TestCorrelate_UnnamedDownInterface(t *testing.T) {
	tables := Tables{
		Status: common.WalkResult{statusEntry(7, "2")},
	}

	router, err := Correlate(testDevice, tables)
	require.NoError(t, err)

	record, ok := router.Interface("Interface-7")
	require.True(t, ok)
	assert.Equal(t, common.LinkStateDown, record.LinkState)
	assert.Empty(t, record.IPv4)
	assert.Empty(t, record.IPv6)
}

func TestCorrelate_PlaceholderConsistentAcrossTables(t *testing.T) {
	tables := Tables{
		Names:  common.WalkResult{nameEntry(1, "Gi0/0")},
		IPv4:   common.WalkResult{ipv4Entry(3, "10.0.3.1")},
		IPv6:   common.WalkResult{ipv6Entry(3, 0xfe80, 0, 0, 0, 0, 0, 0, 3)},
		Status: common.WalkResult{statusEntry(3, "1")},
	}

	router, err := Correlate(testDevice, tables)
	require.NoError(t, err)
	require.Len(t, router.Interfaces, 1, "all three tables must land on the same record")

	record := router.Interfaces[0]
	assert.Equal(t, "Interface-3", record.Name)
	assert.Equal(t, "10.0.3.1", record.IPv4)
	assert.Equal(t, []string{"fe80:0000:0000:0000:0000:0000:0000:0003"}, record.IPv6)
	assert.Equal(t, common.LinkStateUp, record.LinkState)
}

func TestCorrelate_IPv6AppendOrder(t *testing.T) {
	tables := Tables{
		Names: common.WalkResult{nameEntry(2, "Fa0/0")},
		IPv6: common.WalkResult{
			ipv6Entry(2, 0xfe80, 0, 0, 0, 0xc801, 0x4cff, 0xfe2a, 0),
			ipv6Entry(2, 0x2001, 0x0db8, 0, 1, 0, 0, 0, 2),
			ipv6Entry(2, 0x2001, 0x0db8, 0, 1, 0, 0, 0, 2),
		},
	}

	router, err := Correlate(testDevice, tables)
	require.NoError(t, err)

	record, ok := router.Interface("Fa0/0")
	require.True(t, ok)
	assert.Equal(t, []string{
		"fe80:0000:0000:0000:c801:4cff:fe2a:0000",
		"2001:0db8:0000:0001:0000:0000:0000:0002",
		"2001:0db8:0000:0001:0000:0000:0000:0002",
	}, record.IPv6, "walk order kept, no sort, no dedup")
	assert.Equal(t, common.LinkStateUnknown, record.LinkState)
}

func TestCorrelate_IPv4LastWriteWins(t *testing.T) {
	tables := Tables{
		IPv4: common.WalkResult{ipv4Entry(1, "10.0.0.1"), ipv4Entry(1, "10.0.0.2")},
	}

	router, err := Correlate(testDevice, tables)
	require.NoError(t, err)
	record, ok := router.Interface("Interface-1")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.2", record.IPv4)
}

func TestCorrelate_MalformedEntriesSkipped(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()
	log.SetLevel(log.DebugLevel)
	defer log.SetLevel(log.InfoLevel)

	tables := Tables{
		Names: common.WalkResult{
			{OID: "garbage", Value: "Bogus"},
			nameEntry(1, "Gi0/0"),
		},
		IPv4: common.WalkResult{
			{OID: oid.IPv4AddressTable + ".x", Value: "10.9.9.9"},
			ipv4Entry(1, "10.0.0.1"),
		},
		IPv6: common.WalkResult{
			{OID: oid.IPv6AddressTable + ".1.32.1", Value: "64"}, // Truncated address
			ipv6Entry(1, 0x2001, 0x0db8, 0, 0, 0, 0, 0, 1),
			{OID: oid.IPv6AddressTable, Value: "64"},
		},
		Status: common.WalkResult{
			{OID: "", Value: "1"},
			statusEntry(1, "1"),
		},
	}

	router, err := Correlate(testDevice, tables)
	require.NoError(t, err)
	require.Len(t, router.Interfaces, 1)

	record := router.Interfaces[0]
	assert.Equal(t, "Gi0/0", record.Name)
	assert.Equal(t, "10.0.0.1", record.IPv4)
	assert.Equal(t, []string{"2001:0db8:0000:0000:0000:0000:0000:0001"}, record.IPv6)
	assert.Equal(t, common.LinkStateUp, record.LinkState)

	skipped := 0
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Skipping malformed table entry" {
			skipped++
			assert.Equal(t, "R1", entry.Data["device"])
			assert.Contains(t, entry.Data, "table")
			assert.Contains(t, entry.Data, "oid")
		}
	}
	assert.Equal(t, 5, skipped)
}

func TestCorrelate_EmptyTables(t *testing.T) {
	router, err := Correlate(testDevice, Tables{})
	require.NoError(t, err)
	assert.Empty(t, router.Interfaces)
}

func TestCorrelate_InvalidDevice(t *testing.T) {
	_, err := Correlate(common.Device{Address: "7.0.0.1"}, Tables{})
	assert.True(t, errors.Is(err, ErrInvalidDevice))
}

func TestCorrelate_FirstAppearanceOrder(t *testing.T) {
	tables := Tables{
		Names:  common.WalkResult{nameEntry(1, "Gi0/0"), nameEntry(2, "Gi0/1"), nameEntry(3, "Lo0")},
		IPv4:   common.WalkResult{ipv4Entry(3, "1.1.1.1"), ipv4Entry(1, "10.0.0.1")},
		IPv6:   common.WalkResult{ipv6Entry(2, 0xfe80, 0, 0, 0, 0, 0, 0, 2)},
		Status: common.WalkResult{statusEntry(1, "1"), statusEntry(2, "1"), statusEntry(3, "1"), statusEntry(4, "2")},
	}

	router, err := Correlate(testDevice, tables)
	require.NoError(t, err)

	var names []string
	for _, record := range router.Interfaces {
		names = append(names, record.Name)
	}
	assert.Equal(t, []string{"Lo0", "Gi0/0", "Gi0/1", "Interface-4"}, names)
}

func TestCorrelate_Idempotent(t *testing.T) {
	tables := Tables{
		Names:  common.WalkResult{nameEntry(1, "Gi0/0"), nameEntry(2, "Gi0/1")},
		IPv4:   common.WalkResult{ipv4Entry(1, "10.0.0.1"), ipv4Entry(5, "10.0.5.1")},
		IPv6:   common.WalkResult{ipv6Entry(2, 0xfe80, 0, 0, 0, 0, 0, 0, 2), ipv6Entry(5, 0x2001, 0xdb8, 0, 5, 0, 0, 0, 1)},
		Status: common.WalkResult{statusEntry(1, "1"), statusEntry(2, "2"), statusEntry(5, "1")},
	}

	first, err := Correlate(testDevice, tables)
	require.NoError(t, err)
	second, err := Correlate(testDevice, tables)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated correlation differs (-first +second):\n%s", diff)
	}
}

func TestNameTable_Resolve(t *testing.T) {
	names := NewNameTable(testDevice, common.WalkResult{
		nameEntry(1, "Gi0/0"),
		nameEntry(2, ""),
		{OID: "iso.3.6.1.2.1.31.1.1.1.1.9", Value: "Tunnel9"},
	})

	assert.Equal(t, "Gi0/0", names.Resolve(1))
	assert.Equal(t, "Interface-2", names.Resolve(2), "empty names fall back to the placeholder")
	assert.Equal(t, "Tunnel9", names.Resolve(9))
	assert.Equal(t, "Interface-42", names.Resolve(42))
	assert.Equal(t, names.Resolve(42), names.Resolve(42))
}

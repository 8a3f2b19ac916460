// Package correlation merges the independently walked interface tables of a device into one record set.
package correlation

import (
	"errors"
	"fmt"

	"github.com/AravindhGoutham/NetMan/common"
	"github.com/AravindhGoutham/NetMan/oid"
)

// ErrInvalidDevice - The device passed to the correlator is unusable. This is a programming error.
var ErrInvalidDevice = errors.New("invalid device")

// Table names, used for logging.
const (
	tableNames  = "names"
	tableIPv4   = "ipv4"
	tableIPv6   = "ipv6"
	tableStatus = "status"
)

// Tables - The four walks of one device. A table that failed to walk is empty.
type Tables struct {
	Names  common.WalkResult
	IPv4   common.WalkResult
	IPv6   common.WalkResult
	Status common.WalkResult
}

// recordSet keeps records keyed by name in order of first appearance.
type recordSet struct {
	positions map[string]int
	records   []common.InterfaceRecord
}

func (set *recordSet) get(index int, name string) *common.InterfaceRecord {
	if position, ok := set.positions[name]; ok {
		return &set.records[position]
	}
	set.positions[name] = len(set.records)
	set.records = append(set.records, common.InterfaceRecord{Index: index, Name: name, IPv6: []string{}})
	return &set.records[len(set.records)-1]
}

// Correlate - Merge the tables of one device into per-interface records.
// Malformed entries are logged and skipped; only an invalid device is an error.
func Correlate(device common.Device, tables Tables) (common.RouterSnapshot, error) {
	if device.Name == "" {
		return common.RouterSnapshot{}, fmt.Errorf("%w: missing name (address %q)", ErrInvalidDevice, device.Address)
	}

	names := NewNameTable(device, tables.Names)
	set := &recordSet{positions: make(map[string]int)}

	// IPv4, last write wins
	for _, entry := range tables.IPv4 {
		index, err := oid.ExtractTrailingIndex(entry.OID)
		if err != nil {
			skipEntry(device, tableIPv4, entry, err)
			continue
		}
		set.get(index, names.Resolve(index)).IPv4 = entry.Value
	}

	// IPv6, appended in walk order
	for _, entry := range tables.IPv6 {
		index, octets, err := oid.ExtractAddressIndex(entry.OID, oid.IPv6AddressTable, oid.IPv6OctetCount)
		if err != nil {
			skipEntry(device, tableIPv6, entry, err)
			continue
		}
		record := set.get(index, names.Resolve(index))
		record.IPv6 = append(record.IPv6, oid.RenderAddress(octets))
	}

	// Link status, "1" is up and anything else is down
	for _, entry := range tables.Status {
		index, err := oid.ExtractTrailingIndex(entry.OID)
		if err != nil {
			skipEntry(device, tableStatus, entry, err)
			continue
		}
		state := common.LinkStateDown
		if entry.Value == "1" {
			state = common.LinkStateUp
		}
		set.get(index, names.Resolve(index)).LinkState = state
	}

	return common.RouterSnapshot{
		Device:     device,
		Interfaces: set.records,
	}, nil
}

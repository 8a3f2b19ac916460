package common

import (
	"time"
)

// LinkState - Interface link state from the status table.
type LinkState int

// Link states. Unknown means the status table omitted the interface.
const (
	LinkStateUnknown LinkState = iota
	LinkStateUp
	LinkStateDown
)

func (state LinkState) String() string {
	switch state {
	case LinkStateUp:
		return "Up"
	case LinkStateDown:
		return "Down"
	default:
		return "Unknown"
	}
}

// WalkEntry - One (OID, value) pair returned by a walk.
type WalkEntry struct {
	OID   string
	Value string
}

// WalkResult - Ordered walk output for one table on one device.
type WalkResult []WalkEntry

// InterfaceRecord - Correlated data for one interface of one device.
type InterfaceRecord struct {
	Index     int
	Name      string
	IPv4      string   // Empty if none
	IPv6      []string // Walk order
	LinkState LinkState
}

// HasAddress - Whether the interface carries any IPv4 or IPv6 address.
func (record InterfaceRecord) HasAddress() bool {
	return record.IPv4 != "" || len(record.IPv6) > 0
}

// RouterSnapshot - All interfaces of one device, in order of first appearance.
type RouterSnapshot struct {
	Device     Device
	Interfaces []InterfaceRecord
}

// Interface - Find an interface record by name.
func (router RouterSnapshot) Interface(name string) (InterfaceRecord, bool) {
	for _, record := range router.Interfaces {
		if record.Name == name {
			return record, true
		}
	}
	return InterfaceRecord{}, false
}

// InterfaceStatus - Link state of a named interface.
type InterfaceStatus struct {
	Name  string
	State LinkState
}

// DeviceStatus - Secondary status view for one device.
type DeviceStatus struct {
	Device     Device
	Interfaces []InterfaceStatus
}

// StatusView - Derive the status view from the records. Interfaces with unknown state are left out.
func (router RouterSnapshot) StatusView() DeviceStatus {
	status := DeviceStatus{
		Device:     router.Device,
		Interfaces: make([]InterfaceStatus, 0, len(router.Interfaces)),
	}
	for _, record := range router.Interfaces {
		if record.LinkState == LinkStateUnknown {
			continue
		}
		status.Interfaces = append(status.Interfaces, InterfaceStatus{Name: record.Name, State: record.LinkState})
	}
	return status
}

// FleetSnapshot - Result of one full collection run. Devices that failed are absent.
type FleetSnapshot struct {
	Time    time.Time
	Routers []RouterSnapshot // Configured device order
	Status  []DeviceStatus   // Same order as Routers
}

// Router - Find a router snapshot by device name.
func (snapshot *FleetSnapshot) Router(name string) (RouterSnapshot, bool) {
	for _, router := range snapshot.Routers {
		if router.Device.Name == name {
			return router, true
		}
	}
	return RouterSnapshot{}, false
}

// Sample - One successful scalar read.
type Sample struct {
	Elapsed float64 // Seconds since sampling started
	Value   float64
}

// SampleSeries - Successful samples in time order. Failed reads are not represented.
type SampleSeries []Sample

// ScrapeEntry - Outcome of polling one device.
type ScrapeEntry struct {
	Time           time.Time
	Source         string
	Duration       time.Duration
	Success        bool
	InterfaceCount int
}

// Package snapshot renders fleet snapshots to the on-disk JSON document.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/AravindhGoutham/NetMan/common"
	"github.com/AravindhGoutham/NetMan/util"
)

// SchemaVersion - Version of the document layout. Bump on any change of the external shape.
const SchemaVersion = 1

// FileMode - Permissions of written snapshot files.
const FileMode = 0o644

// Addresses - Addresses of one interface under "network".
type Addresses struct {
	V4 string   `json:"v4,omitempty"`
	V6 []string `json:"v6"`
}

// InterfaceAddresses - Interface name to addresses, in order of first appearance.
type InterfaceAddresses = orderedmap.OrderedMap[string, Addresses]

// InterfaceStates - Interface name to "Up"/"Down", in order of first appearance.
type InterfaceStates = orderedmap.OrderedMap[string, string]

// Document - The serialized form of a fleet snapshot. Devices keep their configured order.
type Document struct {
	SchemaVersion   int                                                 `json:"schema_version"`
	Network         *orderedmap.OrderedMap[string, *InterfaceAddresses] `json:"network"`
	InterfaceStatus *orderedmap.OrderedMap[string, *InterfaceStates]    `json:"interface_status"`
}

// Build - Convert a fleet snapshot to its document.
// Interfaces without any address are left out of "network", interfaces with unknown state out of "interface_status".
func Build(snapshot *common.FleetSnapshot) *Document {
	document := &Document{
		SchemaVersion:   SchemaVersion,
		Network:         orderedmap.New[string, *InterfaceAddresses](),
		InterfaceStatus: orderedmap.New[string, *InterfaceStates](),
	}
	if snapshot == nil {
		return document
	}

	for _, router := range snapshot.Routers {
		interfaces := orderedmap.New[string, Addresses]()
		for _, record := range router.Interfaces {
			if !record.HasAddress() {
				continue
			}
			v6 := make([]string, len(record.IPv6))
			copy(v6, record.IPv6)
			interfaces.Set(record.Name, Addresses{V4: record.IPv4, V6: v6})
		}
		document.Network.Set(router.Device.Name, interfaces)
	}
	for _, status := range snapshot.Status {
		states := orderedmap.New[string, string]()
		for _, iface := range status.Interfaces {
			states.Set(iface.Name, iface.State.String())
		}
		document.InterfaceStatus.Set(status.Device.Name, states)
	}
	return document
}

// Render - Serialize the snapshot as indented JSON.
func Render(snapshot *common.FleetSnapshot) ([]byte, error) {
	data, err := json.MarshalIndent(Build(snapshot), "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Write - Serialize the snapshot and atomically replace the file at path.
func Write(snapshot *common.FleetSnapshot, path string) error {
	data, err := Render(snapshot)
	if err != nil {
		return err
	}
	if err := util.WriteFileAtomic(path, data, FileMode); err != nil {
		return err
	}

	deviceCount := 0
	if snapshot != nil {
		deviceCount = len(snapshot.Routers)
	}
	log.WithFields(log.Fields{
		"path":         path,
		"device_count": deviceCount,
	}).Info("Snapshot written")
	return nil
}

// Load - Read a snapshot document, keeping its key order.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var document Document
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %v: %w", path, err)
	}
	if document.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported snapshot schema version %v in %v", document.SchemaVersion, path)
	}
	if document.Network == nil {
		document.Network = orderedmap.New[string, *InterfaceAddresses]()
	}
	if document.InterfaceStatus == nil {
		document.InterfaceStatus = orderedmap.New[string, *InterfaceStates]()
	}
	return &document, nil
}

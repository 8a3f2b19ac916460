package correlation

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/AravindhGoutham/NetMan/common"
	"github.com/AravindhGoutham/NetMan/oid"
)

// NameTable - Interface names keyed by interface index.
type NameTable map[int]string

// NewNameTable - Build the name table from a walk of the name table, keyed by trailing index.
// Entries with a malformed OID are skipped. A repeated index keeps the last name.
func NewNameTable(device common.Device, walk common.WalkResult) NameTable {
	names := make(NameTable, len(walk))
	for _, entry := range walk {
		index, err := oid.ExtractTrailingIndex(entry.OID)
		if err != nil {
			skipEntry(device, tableNames, entry, err)
			continue
		}
		names[index] = entry.Value
	}
	return names
}

// Resolve - Name of the interface, or "Interface-<index>" if the table has no (non-empty) name for it.
func (names NameTable) Resolve(index int) string {
	if name, ok := names[index]; ok && name != "" {
		return name
	}
	return PlaceholderName(index)
}

// PlaceholderName - Name used for interfaces missing from the name table.
func PlaceholderName(index int) string {
	return fmt.Sprintf("Interface-%d", index)
}

func skipEntry(device common.Device, table string, entry common.WalkEntry, err error) {
	log.WithError(err).WithFields(log.Fields{
		"device": device.Name,
		"table":  table,
		"oid":    entry.OID,
		"value":  entry.Value,
	}).Debug("Skipping malformed table entry")
}

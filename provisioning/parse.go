package provisioning

import (
	"net"
	"strconv"
	"strings"
)

// Neighbor - One row of "show ipv6 neighbors".
type Neighbor struct {
	Address   string
	MAC       string // Cisco dotted notation
	State     string
	Interface string
}

// ParseIPv6Neighbors - Extract the neighbor rows from "show ipv6 neighbors" output. Other lines are ignored.
func ParseIPv6Neighbors(lines []string) []Neighbor {
	neighbors := make([]Neighbor, 0)
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		ip := net.ParseIP(fields[0])
		if ip == nil || ip.To4() != nil {
			continue
		}
		if _, err := strconv.Atoi(fields[1]); err != nil && fields[1] != "-" {
			continue
		}
		mac, err := FormatCiscoMAC(fields[2])
		if err != nil {
			continue
		}
		neighbors = append(neighbors, Neighbor{
			Address:   fields[0],
			MAC:       mac,
			State:     fields[3],
			Interface: fields[4],
		})
	}
	return neighbors
}

// FindNeighborByMAC - Address of the first neighbor with the MAC address. The comparison ignores case and notation.
func FindNeighborByMAC(neighbors []Neighbor, mac string) (string, bool) {
	wanted, err := FormatCiscoMAC(mac)
	if err != nil {
		return "", false
	}
	for _, neighbor := range neighbors {
		if neighbor.MAC == wanted {
			return neighbor.Address, true
		}
	}
	return "", false
}

// ParseDHCPBindings - Extract the leased IPv4 addresses from "show ip dhcp binding" output, in table order.
func ParseDHCPBindings(lines []string) []string {
	addresses := make([]string, 0)
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 || !isIPv4(fields[0]) {
			continue
		}
		addresses = append(addresses, fields[0])
	}
	return addresses
}

// Package provisioning configures DHCP pools on a Cisco IOS router over SSH and reads back the bindings.
package provisioning

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrInvalidPlan - Returned (wrapped) for any plan or pool validation failure.
var ErrInvalidPlan = errors.New("invalid provisioning plan")

// Pool - One DHCP pool. Either a static host binding (host + hardware address) or a dynamic network pool.
type Pool struct {
	Name            string `json:"name"`
	Host            string `json:"host"`
	Network         string `json:"network"`
	Mask            string `json:"mask"`
	HardwareAddress string `json:"hardware_address"`
	DefaultRouter   string `json:"default_router"`
}

// IsStatic - Whether the pool binds one host to a hardware address.
func (pool Pool) IsStatic() bool {
	return pool.Host != ""
}

// Validate - Check that the pool renders to a complete IOS pool.
func (pool Pool) Validate() error {
	if pool.Name == "" || strings.ContainsAny(pool.Name, " \t\r\n") {
		return fmt.Errorf("%w: pool name must be a single word: %q", ErrInvalidPlan, pool.Name)
	}
	if (pool.Host == "") == (pool.Network == "") {
		return fmt.Errorf("%w: pool %v needs exactly one of host or network", ErrInvalidPlan, pool.Name)
	}
	if !isIPv4(pool.Mask) {
		return fmt.Errorf("%w: pool %v has invalid mask %q", ErrInvalidPlan, pool.Name, pool.Mask)
	}
	if pool.IsStatic() {
		if !isIPv4(pool.Host) {
			return fmt.Errorf("%w: pool %v has invalid host %q", ErrInvalidPlan, pool.Name, pool.Host)
		}
		if _, err := FormatCiscoMAC(pool.HardwareAddress); err != nil {
			return fmt.Errorf("%w: pool %v: %v", ErrInvalidPlan, pool.Name, err)
		}
		return nil
	}
	if !isIPv4(pool.Network) {
		return fmt.Errorf("%w: pool %v has invalid network %q", ErrInvalidPlan, pool.Name, pool.Network)
	}
	if pool.DefaultRouter != "" && !isIPv4(pool.DefaultRouter) {
		return fmt.Errorf("%w: pool %v has invalid default router %q", ErrInvalidPlan, pool.Name, pool.DefaultRouter)
	}
	return nil
}

// Commands - IOS configuration mode commands for the pool. The pool must be valid.
func (pool Pool) Commands() []string {
	commands := []string{"ip dhcp pool " + pool.Name}
	if pool.IsStatic() {
		mac, _ := FormatCiscoMAC(pool.HardwareAddress)
		commands = append(commands,
			" host "+pool.Host+" "+pool.Mask,
			" hardware-address "+mac,
		)
	} else {
		commands = append(commands, " network "+pool.Network+" "+pool.Mask)
		if pool.DefaultRouter != "" {
			commands = append(commands, " default-router "+pool.DefaultRouter)
		}
	}
	return append(commands, " exit")
}

// RenderPools - Validate all pools and render their commands in order.
func RenderPools(pools []Pool) ([]string, error) {
	if len(pools) == 0 {
		return nil, fmt.Errorf("%w: no pools", ErrInvalidPlan)
	}
	names := make(map[string]bool, len(pools))
	commands := make([]string, 0, 4*len(pools))
	for _, pool := range pools {
		if err := pool.Validate(); err != nil {
			return nil, err
		}
		if names[pool.Name] {
			return nil, fmt.Errorf("%w: duplicate pool name %v", ErrInvalidPlan, pool.Name)
		}
		names[pool.Name] = true
		commands = append(commands, pool.Commands()...)
	}
	return commands, nil
}

// FormatCiscoMAC - Render a 48-bit MAC address in Cisco dotted notation (ca05.4c8c.0000).
// Any notation accepted by net.ParseMAC is accepted.
func FormatCiscoMAC(mac string) (string, error) {
	hardwareAddress, err := net.ParseMAC(mac)
	if err != nil {
		return "", fmt.Errorf("invalid hardware address %q: %w", mac, err)
	}
	if len(hardwareAddress) != 6 {
		return "", fmt.Errorf("invalid hardware address %q: not 48 bits", mac)
	}
	return fmt.Sprintf("%02x%02x.%02x%02x.%02x%02x", hardwareAddress[0], hardwareAddress[1],
		hardwareAddress[2], hardwareAddress[3], hardwareAddress[4], hardwareAddress[5]), nil
}

func isIPv4(value string) bool {
	ip := net.ParseIP(value)
	return ip != nil && ip.To4() != nil && !strings.Contains(value, ":")
}

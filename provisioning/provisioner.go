package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/AravindhGoutham/NetMan/common"
	"github.com/AravindhGoutham/NetMan/util"
)

// ErrNeighborNotFound - The DHCP server's MAC address is missing from the neighbor table.
var ErrNeighborNotFound = errors.New("neighbor not found")

// DefaultSettleSeconds - Time given to DHCP clients to obtain leases before reading the bindings.
const DefaultSettleSeconds = 10.0

// Plan - Which router to configure and how to reach it.
// The server is reached at ServerAddress, or at the IPv6 address the neighbor device has learned for ServerMAC.
type Plan struct {
	NeighborDevice     string  `json:"neighbor_device"`
	ServerMAC          string  `json:"server_mac"`
	ServerAddress      string  `json:"server_address"`
	ServerName         string  `json:"server_name"`
	ServerCredentialID string  `json:"server_credential_id"`
	SettleSeconds      float64 `json:"settle_time"`
	Pools              []Pool  `json:"pools"`
}

// Result - Outcome of one provisioning run.
type Result struct {
	ServerAddress string
	ConfigOutput  []string
	Bindings      []string
}

// LoadPlan - Load and validate a plan file.
func LoadPlan(path string) (*Plan, error) {
	plan := Plan{SettleSeconds: DefaultSettleSeconds}
	if err := util.ParseJSONFile(&plan, path); err != nil {
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Validate - Check the plan without resolving devices.
func (plan *Plan) Validate() error {
	if plan.ServerAddress == "" {
		if plan.NeighborDevice == "" {
			return fmt.Errorf("%w: either server_address or neighbor_device is required", ErrInvalidPlan)
		}
		if _, err := FormatCiscoMAC(plan.ServerMAC); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPlan, err)
		}
	}
	if plan.ServerCredentialID == "" {
		return fmt.Errorf("%w: server_credential_id is required", ErrInvalidPlan)
	}
	if plan.SettleSeconds < 0 {
		return fmt.Errorf("%w: negative settle time", ErrInvalidPlan)
	}
	_, err := RenderPools(plan.Pools)
	return err
}

// SettleTime - Wait between configuring and reading the bindings.
func (plan *Plan) SettleTime() time.Duration {
	return time.Duration(plan.SettleSeconds * float64(time.Second))
}

// Provisioner - Runs plans against routers.
type Provisioner struct {
	dialer      Dialer
	credentials map[string]common.Credential
	devices     []common.Device
	clock       clock.Clock
}

// NewProvisioner - Create a provisioner using the configured devices and credentials. A nil clock means the real clock.
func NewProvisioner(dialer Dialer, config *common.Config, clk clock.Clock) *Provisioner {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Provisioner{
		dialer:      dialer,
		credentials: config.Credentials,
		devices:     config.Devices,
		clock:       clk,
	}
}

// Provision - Discover the server if needed, push the pools, wait for leases and read the bindings.
func (provisioner *Provisioner) Provision(ctx context.Context, plan *Plan) (*Result, error) {
	commands, err := RenderPools(plan.Pools)
	if err != nil {
		return nil, err
	}
	credential, ok := provisioner.credentials[plan.ServerCredentialID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown credential %v", ErrInvalidPlan, plan.ServerCredentialID)
	}

	address := plan.ServerAddress
	if address == "" {
		address, err = provisioner.DiscoverServer(ctx, plan.NeighborDevice, plan.ServerMAC)
		if err != nil {
			return nil, err
		}
	}
	name := plan.ServerName
	if name == "" {
		name = address
	}
	server := common.Device{Name: name, Address: address, CredentialID: plan.ServerCredentialID}

	shell, err := provisioner.dialer.Dial(ctx, server, credential)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := shell.Close(); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"device": server.Name,
			}).Warn("Failed to close shell")
		}
	}()

	log.WithFields(log.Fields{
		"device":         server.Name,
		"device_address": server.Address,
		"pools":          len(plan.Pools),
	}).Info("Configuring DHCP pools")
	output, err := shell.Configure(ctx, commands)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"settle_time": plan.SettleTime(),
	}).Info("Waiting for DHCP clients")
	provisioner.clock.Sleep(plan.SettleTime())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bindingLines, err := shell.Run(ctx, "show ip dhcp binding")
	if err != nil {
		return nil, err
	}
	result := &Result{
		ServerAddress: address,
		ConfigOutput:  output,
		Bindings:      ParseDHCPBindings(bindingLines),
	}
	log.WithFields(log.Fields{
		"device":   server.Name,
		"bindings": len(result.Bindings),
	}).Info("Read DHCP bindings")
	return result, nil
}

// DiscoverServer - Find the IPv6 address the neighbor device has learned for the MAC address.
func (provisioner *Provisioner) DiscoverServer(ctx context.Context, neighborName string, mac string) (string, error) {
	neighbor, credential, err := provisioner.resolve(neighborName)
	if err != nil {
		return "", err
	}
	shell, err := provisioner.dialer.Dial(ctx, neighbor, credential)
	if err != nil {
		return "", err
	}
	defer shell.Close()

	lines, err := shell.Run(ctx, "show ipv6 neighbors")
	if err != nil {
		return "", err
	}
	address, found := FindNeighborByMAC(ParseIPv6Neighbors(lines), mac)
	if !found {
		return "", fmt.Errorf("%w: %v on %v", ErrNeighborNotFound, mac, neighbor.Name)
	}
	log.WithFields(log.Fields{
		"device":  neighbor.Name,
		"mac":     mac,
		"address": address,
	}).Info("Found DHCP server address")
	return address, nil
}

func (provisioner *Provisioner) resolve(name string) (common.Device, common.Credential, error) {
	for _, device := range provisioner.devices {
		if device.Name != name {
			continue
		}
		credential, ok := provisioner.credentials[device.CredentialID]
		if !ok {
			return common.Device{}, common.Credential{}, fmt.Errorf("%w: unknown credential %v for %v", ErrInvalidPlan, device.CredentialID, name)
		}
		return device, credential, nil
	}
	return common.Device{}, common.Credential{}, fmt.Errorf("%w: unknown device %v", ErrInvalidPlan, name)
}

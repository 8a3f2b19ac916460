package common

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/AravindhGoutham/NetMan/util"
)

// SNMP versions.
const (
	SNMPVersion2c = "2c"
	SNMPVersion3  = "3"
)

// Credential - Credential for a device, SNMP plus optional SSH for provisioning.
type Credential struct {
	SNMPVersion   string `json:"snmp_version"` // Defaults to "3"
	Community     string `json:"community"`
	Username      string `json:"username"`
	AuthProtocol  string `json:"auth_protocol"`
	AuthPassword  string `json:"auth_password"`
	PrivProtocol  string `json:"priv_protocol"`
	PrivPassword  string `json:"priv_password"`
	SecurityLevel string `json:"security_level"` // noAuthNoPriv, authNoPriv or authPriv (default)

	SSHUsername       string `json:"ssh_username"`
	SSHPassword       string `json:"ssh_password"`
	SSHPrivateKeyPath string `json:"ssh_private_key_path"`
}

// Device - A device to poll.
type Device struct {
	Name         string `json:"name"`    // Unique
	Address      string `json:"address"` // Host name or IP address
	Port         uint   `json:"port"`    // Optional, default to normal service port
	CredentialID string `json:"credential_id"`
}

// LoadCredentials - Load credentials from the file from config.
func (config *Config) LoadCredentials() error {
	if config.CredentialsPath == "" {
		return fmt.Errorf("%w: credentials path missing", ErrInvalidConfig)
	}

	credentials := make(map[string]Credential)
	if err := util.ParseJSONFile(&credentials, config.CredentialsPath); err != nil {
		return err
	}
	if err := ValidateCredentials(credentials); err != nil {
		return err
	}
	config.Credentials = credentials

	log.WithFields(log.Fields{
		"credentials_path": config.CredentialsPath,
		"credential_count": len(credentials),
	}).Info("Loaded credentials")
	return nil
}

// LoadDevices - Load devices from the file from config. Requires credentials to be loaded.
func (config *Config) LoadDevices() error {
	if config.DevicesPath == "" {
		return fmt.Errorf("%w: devices path missing", ErrInvalidConfig)
	}

	var devices []Device
	if err := util.ParseJSONFile(&devices, config.DevicesPath); err != nil {
		return err
	}
	if err := ValidateDevices(devices, config.Credentials); err != nil {
		return err
	}
	config.Devices = devices

	log.WithFields(log.Fields{
		"devices_path": config.DevicesPath,
		"device_count": len(devices),
	}).Info("Loaded devices")
	return nil
}

// ValidateCredentials - Check credentials for missing fields and unknown SNMP versions.
func ValidateCredentials(credentials map[string]Credential) error {
	for credentialID, credential := range credentials {
		if credentialID == "" {
			return fmt.Errorf("%w: credential with empty ID", ErrInvalidConfig)
		}
		switch credential.Version() {
		case SNMPVersion2c:
			if credential.Community == "" {
				return fmt.Errorf("%w: credential %v: community missing", ErrInvalidConfig, credentialID)
			}
		case SNMPVersion3:
			if credential.Username == "" {
				return fmt.Errorf("%w: credential %v: username missing", ErrInvalidConfig, credentialID)
			}
		default:
			return fmt.Errorf("%w: credential %v: unknown SNMP version %q", ErrInvalidConfig, credentialID, credential.SNMPVersion)
		}
	}
	return nil
}

// ValidateDevices - Check devices for missing fields, duplicates and unknown credentials.
func ValidateDevices(devices []Device, credentials map[string]Credential) error {
	deviceNames := make(map[string]bool)
	for _, device := range devices {
		if device.Name == "" || device.Address == "" || device.CredentialID == "" {
			return fmt.Errorf("%w: device %q: missing fields", ErrInvalidConfig, device.Name)
		}
		if deviceNames[device.Name] {
			return fmt.Errorf("%w: duplicate device name: %v", ErrInvalidConfig, device.Name)
		}
		deviceNames[device.Name] = true
		if _, found := credentials[device.CredentialID]; !found {
			return fmt.Errorf("%w: device %v: credential ID not found: %v", ErrInvalidConfig, device.Name, device.CredentialID)
		}
	}
	return nil
}

// Version - SNMP version with the default applied.
func (credential Credential) Version() string {
	if credential.SNMPVersion == "" {
		return SNMPVersion3
	}
	return credential.SNMPVersion
}

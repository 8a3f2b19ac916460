package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir string, name string, content string) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "network_data.json", config.SnapshotPath)
	assert.Equal(t, 4, config.Workers)
	assert.Equal(t, 5*time.Minute, config.ScrapeInterval())
	assert.Equal(t, 5*time.Second, config.SNMPTimeout())
	assert.Equal(t, DefaultCPUUtilizationOID, config.Sampler.OID)
	assert.Equal(t, 120*time.Second, config.Sampler.Duration())
	assert.Equal(t, 5*time.Second, config.Sampler.Interval())
	assert.Equal(t, time.Duration(0), config.Sampler.SampleTimeout())
}

func TestLoadConfig_PartialOverride(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.json", `{"workers": 8, "sampler": {"duration": 20, "sample_timeout": 2.5}}`)
	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8, config.Workers)
	assert.Equal(t, 20*time.Second, config.Sampler.Duration())
	assert.Equal(t, 2500*time.Millisecond, config.Sampler.SampleTimeout())
	assert.Equal(t, 5*time.Second, config.Sampler.Interval(), "unset nested fields keep defaults")
	assert.Equal(t, DefaultCPUUtilizationOID, config.Sampler.OID)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"zero workers":      `{"workers": 0}`,
		"too many workers":  `{"workers": 65}`,
		"negative interval": `{"scrape_interval": -1}`,
		"zero timeout":      `{"snmp_timeout": 0}`,
		"negative retries":  `{"snmp_retries": -1}`,
		"no snapshot path":  `{"snapshot_path": ""}`,
		"no sampler oid":    `{"sampler": {"oid": ""}}`,
		"zero interval":     `{"sampler": {"interval": 0}}`,
		"negative timeout":  `{"sampler": {"sample_timeout": -1}}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "config.json", content)
			_, err := LoadConfig(path)
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestLoadConfig_UnknownField(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.json", `{"wrokers": 4}`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadDevicesAndCredentials(t *testing.T) {
	dir := t.TempDir()
	config := DefaultConfig()
	config.CredentialsPath = writeFile(t, dir, "credentials.json", `{
		"v3": {"username": "netman", "auth_password": "secret123", "priv_password": "secret123"},
		"v2": {"snmp_version": "2c", "community": "public"}
	}`)
	config.DevicesPath = writeFile(t, dir, "devices.json", `[
		{"name": "R2", "address": "10.0.0.2", "credential_id": "v3"},
		{"name": "R1", "address": "10.0.0.1", "port": 1161, "credential_id": "v2"}
	]`)

	require.NoError(t, config.LoadCredentials())
	require.NoError(t, config.LoadDevices())
	require.Len(t, config.Devices, 2)
	assert.Equal(t, "R2", config.Devices[0].Name, "file order kept")
	assert.Equal(t, uint(1161), config.Devices[1].Port)
	assert.Equal(t, SNMPVersion3, config.Credentials["v3"].Version())

	device, err := config.SamplerDevice()
	require.NoError(t, err)
	assert.Equal(t, "R2", device.Name, "first device by default")

	config.Sampler.Device = "R1"
	device, err = config.SamplerDevice()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", device.Address)

	config.Sampler.Device = "R9"
	_, err = config.SamplerDevice()
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestValidateCredentials(t *testing.T) {
	assert.Error(t, ValidateCredentials(map[string]Credential{"": {Username: "a"}}))
	assert.Error(t, ValidateCredentials(map[string]Credential{"v2": {SNMPVersion: SNMPVersion2c}}))
	assert.Error(t, ValidateCredentials(map[string]Credential{"v3": {}}))
	assert.Error(t, ValidateCredentials(map[string]Credential{"v1": {SNMPVersion: "1", Community: "public"}}))
	assert.NoError(t, ValidateCredentials(map[string]Credential{"v2": {SNMPVersion: SNMPVersion2c, Community: "public"}}))
}

func TestValidateDevices(t *testing.T) {
	credentials := map[string]Credential{"v3": {Username: "netman"}}
	tests := map[string][]Device{
		"missing name":       {{Address: "10.0.0.1", CredentialID: "v3"}},
		"missing address":    {{Name: "R1", CredentialID: "v3"}},
		"duplicate":          {{Name: "R1", Address: "10.0.0.1", CredentialID: "v3"}, {Name: "R1", Address: "10.0.0.2", CredentialID: "v3"}},
		"unknown credential": {{Name: "R1", Address: "10.0.0.1", CredentialID: "v2"}},
	}
	for name, devices := range tests {
		t.Run(name, func(t *testing.T) {
			assert.True(t, errors.Is(ValidateDevices(devices, credentials), ErrInvalidConfig))
		})
	}
	assert.NoError(t, ValidateDevices(nil, credentials))
}

func TestSamplerDevice_NoDevices(t *testing.T) {
	config := DefaultConfig()
	_, err := config.SamplerDevice()
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

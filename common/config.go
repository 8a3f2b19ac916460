package common

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/AravindhGoutham/NetMan/util"
)

// ErrInvalidConfig - Returned (wrapped) for any configuration validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultCPUUtilizationOID - Cisco avgBusy5 (5 second CPU busy percentage).
const DefaultCPUUtilizationOID = "1.3.6.1.4.1.9.2.1.58.0"

// MaxWorkers - Upper bound for the fleet collector worker pool.
const MaxWorkers = 64

// Config - The main config. Devices and credentials are loaded from their own files.
type Config struct {
	HTTPEndpoint          string         `json:"http_endpoint"`
	CredentialsPath       string         `json:"credentials_path"`
	DevicesPath           string         `json:"devices_path"`
	SnapshotPath          string         `json:"snapshot_path"`
	ScrapeIntervalSeconds float64        `json:"scrape_interval"`
	Workers               int            `json:"workers"`
	SNMPTimeoutSeconds    float64        `json:"snmp_timeout"`
	SNMPRetries           int            `json:"snmp_retries"`
	Sampler               SamplerConfig  `json:"sampler"`
	InfluxDB              InfluxDBConfig `json:"influxdb"`

	Credentials map[string]Credential `json:"-"`
	Devices     []Device              `json:"-"`
}

// SamplerConfig - Bounded CPU sampler settings.
type SamplerConfig struct {
	Device               string  `json:"device"` // Device name, defaults to the first device
	OID                  string  `json:"oid"`
	DurationSeconds      float64 `json:"duration"`
	IntervalSeconds      float64 `json:"interval"`
	SampleTimeoutSeconds float64 `json:"sample_timeout"` // Zero means no per-sample timeout
	ChartPath            string  `json:"chart_path"`
}

// InfluxDBConfig - Optional InfluxDB sink. An empty URL disables it.
type InfluxDBConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// DefaultConfig - Config with all defaults applied.
func DefaultConfig() Config {
	return Config{
		HTTPEndpoint:          ":9116",
		CredentialsPath:       "credentials.json",
		DevicesPath:           "devices.json",
		SnapshotPath:          "network_data.json",
		ScrapeIntervalSeconds: 300.0,
		Workers:               4,
		SNMPTimeoutSeconds:    5.0,
		SNMPRetries:           1,
		Sampler: SamplerConfig{
			OID:             DefaultCPUUtilizationOID,
			DurationSeconds: 120.0,
			IntervalSeconds: 5.0,
			ChartPath:       "cpu_utilization.jpg",
		},
		InfluxDB: InfluxDBConfig{
			Bucket: "netman",
		},
	}
}

// LoadConfig - Load configuration file on top of the defaults.
// An empty path means defaults only.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		log.WithFields(log.Fields{
			"config_path": path,
		}).Info("Loading config")
		if err := util.ParseJSONFile(&config, path); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate - Check the main config values (not devices or credentials).
func (config *Config) Validate() error {
	if config.ScrapeIntervalSeconds <= 0 {
		return fmt.Errorf("%w: non-positive scrape interval", ErrInvalidConfig)
	}
	if config.Workers < 1 || config.Workers > MaxWorkers {
		return fmt.Errorf("%w: worker count must be within 1-%v, got %v", ErrInvalidConfig, MaxWorkers, config.Workers)
	}
	if config.SNMPTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: non-positive SNMP timeout", ErrInvalidConfig)
	}
	if config.SNMPRetries < 0 {
		return fmt.Errorf("%w: negative SNMP retries", ErrInvalidConfig)
	}
	if config.SnapshotPath == "" {
		return fmt.Errorf("%w: snapshot path missing", ErrInvalidConfig)
	}
	sampler := config.Sampler
	if sampler.OID == "" {
		return fmt.Errorf("%w: sampler OID missing", ErrInvalidConfig)
	}
	if sampler.DurationSeconds <= 0 || sampler.IntervalSeconds <= 0 {
		return fmt.Errorf("%w: non-positive sampler duration or interval", ErrInvalidConfig)
	}
	if sampler.SampleTimeoutSeconds < 0 {
		return fmt.Errorf("%w: negative sample timeout", ErrInvalidConfig)
	}
	return nil
}

// ScrapeInterval - Interval between fleet collections in serve mode.
func (config *Config) ScrapeInterval() time.Duration {
	return seconds(config.ScrapeIntervalSeconds)
}

// SNMPTimeout - Timeout for a single SNMP request.
func (config *Config) SNMPTimeout() time.Duration {
	return seconds(config.SNMPTimeoutSeconds)
}

// Duration - Total sampling window.
func (sampler SamplerConfig) Duration() time.Duration {
	return seconds(sampler.DurationSeconds)
}

// Interval - Fixed delay after every sample attempt.
func (sampler SamplerConfig) Interval() time.Duration {
	return seconds(sampler.IntervalSeconds)
}

// SampleTimeout - Timeout for one sample read, zero if unbounded.
func (sampler SamplerConfig) SampleTimeout() time.Duration {
	return seconds(sampler.SampleTimeoutSeconds)
}

// SamplerDevice - Resolve the sampled device. Defaults to the first configured device.
func (config *Config) SamplerDevice() (Device, error) {
	if len(config.Devices) == 0 {
		return Device{}, fmt.Errorf("%w: no devices configured", ErrInvalidConfig)
	}
	if config.Sampler.Device == "" {
		return config.Devices[0], nil
	}
	device, ok := config.Device(config.Sampler.Device)
	if !ok {
		return Device{}, fmt.Errorf("%w: sampler device not found: %v", ErrInvalidConfig, config.Sampler.Device)
	}
	return device, nil
}

// Device - Find a configured device by name.
func (config *Config) Device(name string) (Device, bool) {
	for _, device := range config.Devices {
		if device.Name == name {
			return device, true
		}
	}
	return Device{}, false
}

func seconds(value float64) time.Duration {
	return time.Duration(value * float64(time.Second))
}

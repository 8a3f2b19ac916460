package scraping

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/AravindhGoutham/NetMan/common"
	"github.com/AravindhGoutham/NetMan/snmp"
)

// SamplerState - Lifecycle of a sampler. Idle -> Sampling -> Done, or Idle -> Done if no session.
type SamplerState int

// Sampler states.
const (
	SamplerIdle SamplerState = iota
	SamplerSampling
	SamplerDone
)

func (state SamplerState) String() string {
	switch state {
	case SamplerIdle:
		return "Idle"
	case SamplerSampling:
		return "Sampling"
	default:
		return "Done"
	}
}

// Sampler - Reads one scalar OID from one device at a fixed interval for a fixed duration.
// A sampler runs once.
type Sampler struct {
	poller        snmp.Poller
	device        common.Device
	oid           string
	duration      time.Duration
	interval      time.Duration
	sampleTimeout time.Duration
	clock         clock.Clock
	state         SamplerState

	// OnSample is called for every successful sample, if set.
	OnSample func(sample common.Sample)
}

// NewSampler - Create a sampler for the device. A nil clock means the real clock.
func NewSampler(poller snmp.Poller, device common.Device, config common.SamplerConfig, clk clock.Clock) *Sampler {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Sampler{
		poller:        poller,
		device:        device,
		oid:           config.OID,
		duration:      config.Duration(),
		interval:      config.Interval(),
		sampleTimeout: config.SampleTimeout(),
		clock:         clk,
		state:         SamplerIdle,
	}
}

// State - Current state. Only safe to call from the goroutine running the sampler or after Run returned.
func (sampler *Sampler) State() SamplerState {
	return sampler.state
}

// Run - Sample until the duration has passed or the context is cancelled, then return the successful samples.
// Failed reads are logged and skipped. The series is empty if the session could not be opened.
func (sampler *Sampler) Run(ctx context.Context) common.SampleSeries {
	series := common.SampleSeries{}
	if sampler.state != SamplerIdle {
		log.WithFields(log.Fields{
			"device": sampler.device.Name,
		}).Warn("Sampler already ran")
		return series
	}

	session, err := sampler.poller.Open(ctx, sampler.device)
	if err != nil {
		showDeviceFailure(sampler.device, "Failed to open sampling session", err)
		sampler.state = SamplerDone
		return series
	}
	defer func() {
		if err := session.Close(); err != nil {
			showDeviceWeakFailure(sampler.device, "Failed to close sampling session", err, nil)
		}
	}()

	sampler.state = SamplerSampling
	log.WithFields(log.Fields{
		"device":   sampler.device.Name,
		"oid":      sampler.oid,
		"duration": sampler.duration,
		"interval": sampler.interval,
	}).Info("Sampling started")

	startTime := sampler.clock.Now()
	attempts := 0
	for sampler.clock.Since(startTime) < sampler.duration {
		if ctx.Err() != nil {
			break
		}
		attempts++
		value, err := sampler.sample(ctx, session)
		elapsed := sampler.clock.Since(startTime).Seconds()
		if err != nil {
			showDeviceWeakFailure(sampler.device, "Failed to read sample, skipping", err, log.Fields{
				"oid":     sampler.oid,
				"elapsed": elapsed,
			})
		} else {
			sample := common.Sample{Elapsed: elapsed, Value: value}
			series = append(series, sample)
			log.WithFields(log.Fields{
				"device":  sampler.device.Name,
				"elapsed": elapsed,
				"value":   value,
			}).Debug("Sample")
			if sampler.OnSample != nil {
				sampler.OnSample(sample)
			}
		}
		sampler.clock.Sleep(sampler.interval)
	}

	sampler.state = SamplerDone
	log.WithFields(log.Fields{
		"device":   sampler.device.Name,
		"attempts": attempts,
		"samples":  len(series),
	}).Info("Sampling done")
	return series
}

func (sampler *Sampler) sample(ctx context.Context, session snmp.Session) (float64, error) {
	if sampler.sampleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sampler.sampleTimeout)
		defer cancel()
	}
	raw, err := session.Get(ctx, sampler.oid)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: non-numeric value %q", snmp.ErrGet, raw)
	}
	return value, nil
}

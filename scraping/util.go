package scraping

import (
	log "github.com/sirupsen/logrus"

	"github.com/AravindhGoutham/NetMan/common"
)

// Log a failure which only degrades part of the device's data (a table or a sample).
func showDeviceWeakFailure(device common.Device, message string, err error, fields log.Fields) {
	entry := log.WithError(err).WithFields(log.Fields{
		"device":         device.Name,
		"device_address": device.Address,
	})
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	entry.Warnf("Device weak failure: %v", message)
}

// Log a failure which removes the device from the current result.
func showDeviceFailure(device common.Device, message string, err error) {
	log.WithError(err).WithFields(log.Fields{
		"device":         device.Name,
		"device_address": device.Address,
	}).Warnf("Device failure: %v", message)
}

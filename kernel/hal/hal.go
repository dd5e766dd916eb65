// Package hal probes the registered device drivers and keeps track of the
// ones that initialized successfully.
package hal

import (
	"fmt"
	"io"

	"amlvm/device"
	"amlvm/kernel/kfmt"
)

// managedDevices contains the devices discovered by the HAL.
type managedDevices struct {
	// activeDrivers tracks all initialized device drivers.
	activeDrivers []device.Driver
}

var devices managedDevices

// ActiveDrivers returns the drivers that were successfully initialized by
// DetectHardware, in initialization order.
func ActiveDrivers() []device.Driver {
	return devices.activeDrivers
}

// DetectHardware probes for hardware devices and initializes the appropriate
// drivers. Driver output is written to w with a per-driver line prefix.
// Drivers found by a previous call are discarded.
func DetectHardware(w io.Writer) {
	devices.activeDrivers = nil

	probe(w, device.DriverList())
}

// probe executes the probe function for each driver and records each
// successfully initialized driver.
func probe(sink io.Writer, driverInfoList device.DriverInfoList) {
	var w = kfmt.PrefixWriter{Sink: sink}

	for _, info := range driverInfoList {
		drv := info.Probe()
		if drv == nil {
			continue
		}

		major, minor, patch := drv.DriverVersion()
		w.SetPrefix("[hal] %s(%d.%d.%d): ", drv.DriverName(), major, minor, patch)

		if err := drv.DriverInit(&w); err != nil {
			fmt.Fprintf(&w, "init failed: %s\n", err.Message)
			continue
		}

		fmt.Fprintf(&w, "initialized\n")
		devices.activeDrivers = append(devices.activeDrivers, drv)
	}
}

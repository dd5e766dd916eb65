// Package device defines the contract between firmware drivers and the hal
// package that probes and initializes them.
package device

import (
	"io"
	"sort"
	"sync"

	"amlvm/kernel"
)

// Driver is implemented by every driver that can be managed by hal.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major uint16, minor uint16, patch uint16)

	// DriverInit initializes the driver. Any diagnostic output should be
	// written to the supplied io.Writer, which prefixes each line with
	// the driver name.
	DriverInit(io.Writer) *kernel.Error
}

// ProbeFn checks whether the resources a driver needs are available and
// returns a driver for them, or nil.
type ProbeFn func() Driver

// DetectOrder specifies when each driver's probe function will be invoked
// by the hal package. Lower values are probed first.
type DetectOrder int8

const (
	// DetectOrderEarly drivers are probed before any firmware tables
	// are consumed.
	DetectOrderEarly DetectOrder = -128

	// DetectOrderBeforeACPI drivers are probed right before the ACPI
	// driver.
	DetectOrderBeforeACPI DetectOrder = -127

	// DetectOrderACPI is used by drivers that load the ACPI namespace.
	DetectOrderACPI DetectOrder = 0

	// DetectOrderLast drivers are probed once the namespace is available.
	DetectOrderLast DetectOrder = 127
)

// DriverInfo is passed to RegisterDriver.
type DriverInfo struct {
	Order DetectOrder
	Probe ProbeFn
}

// DriverInfoList is a list of registered drivers that implements
// sort.Interface.
type DriverInfoList []*DriverInfo

func (l DriverInfoList) Len() int           { return len(l) }
func (l DriverInfoList) Swap(i, j int)      { l[i], l[j] = l[j], l[i] }
func (l DriverInfoList) Less(i, j int) bool { return l[i].Order < l[j].Order }

var (
	registryMu        sync.Mutex
	registeredDrivers DriverInfoList
)

// RegisterDriver adds info to the list of registered drivers. It is safe
// for concurrent use.
func RegisterDriver(info *DriverInfo) {
	registryMu.Lock()
	registeredDrivers = append(registeredDrivers, info)
	registryMu.Unlock()
}

// DriverList returns a copy of the registered drivers ordered by their
// DetectOrder. Drivers with the same order keep their registration order.
func DriverList() DriverInfoList {
	registryMu.Lock()
	list := make(DriverInfoList, len(registeredDrivers))
	copy(list, registeredDrivers)
	registryMu.Unlock()

	sort.Stable(list)
	return list
}

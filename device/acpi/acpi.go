// Package acpi provides a driver that loads the ACPI definition blocks
// (DSDT/SSDT) into an AML interpreter and evaluates namespace objects on
// behalf of its clients.
package acpi

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"amlvm/device"
	"amlvm/device/acpi/aml"
	"amlvm/device/acpi/aml/entity"
	"amlvm/device/acpi/table"
	"amlvm/kernel"
)

const dsdtSignature = "DSDT"

var (
	errMissingDSDT    = &kernel.Error{Module: "acpi", Message: "could not locate the DSDT"}
	errNotInitialized = &kernel.Error{Module: "acpi", Message: "driver has not been initialized"}
)

// Driver owns an AML interpreter. The interpreter is single-threaded; all
// evaluations go through the driver which serializes them.
type Driver struct {
	resolver table.Resolver
	cfg      aml.Config

	mu sync.Mutex
	vm *aml.VM
}

// NewDriver returns a driver for the tables provided by resolver. The
// interpreter is created by DriverInit.
func NewDriver(resolver table.Resolver, cfg aml.Config) *Driver {
	return &Driver{resolver: resolver, cfg: cfg}
}

// DriverInit loads the definition blocks into a new interpreter instance.
func (drv *Driver) DriverInit(w io.Writer) *kernel.Error {
	if drv.resolver == nil || drv.resolver.LookupTable(dsdtSignature) == nil {
		return errMissingDSDT
	}

	drv.printTableInfo(w)

	vm := aml.NewVM(w, drv.resolver, drv.cfg)
	if err := vm.Init(); err != nil {
		return &kernel.Error{Module: "acpi", Message: err.Error()}
	}

	fmt.Fprintf(w, "loaded %s (%d-bit integers)\n", strings.Join(vm.Tables(), ", "), vm.IntegerWidth())

	drv.mu.Lock()
	drv.vm = vm
	drv.mu.Unlock()
	return nil
}

// DriverName returns the name of this driver.
func (*Driver) DriverName() string {
	return "ACPI"
}

// DriverVersion returns the version of this driver.
func (*Driver) DriverVersion() (uint16, uint16, uint16) {
	return 0, 0, 1
}

func (drv *Driver) printTableInfo(w io.Writer) {
	lister, ok := drv.resolver.(interface{ Names() []string })
	if !ok {
		return
	}

	for _, name := range lister.Names() {
		t := drv.resolver.LookupTable(name)
		if t == nil {
			continue
		}
		fmt.Fprintf(w, "%-5s rev %d %6x (%6s %8s)\n",
			name,
			t.Header.Revision,
			t.Header.Length,
			string(t.Header.OEMID[:]),
			string(t.Header.OEMTableID[:]),
		)
	}
}

// Evaluate resolves the absolute path and evaluates the object it refers
// to. ctx bounds the time spent waiting on AML mutexes and events.
func (drv *Driver) Evaluate(ctx context.Context, path string, args ...entity.Value) (entity.Value, error) {
	drv.mu.Lock()
	defer drv.mu.Unlock()

	if drv.vm == nil {
		return nil, errNotInitialized
	}
	return drv.vm.ExecuteMethodContext(ctx, path, args...)
}

// Snapshot captures the namespace subtree rooted at path. It returns nil if
// the driver is not initialized or the path cannot be resolved.
func (drv *Driver) Snapshot(path string) *aml.Snapshot {
	drv.mu.Lock()
	defer drv.mu.Unlock()

	if drv.vm == nil {
		return nil
	}
	return drv.vm.Snapshot(path)
}

// DebugOutput drains the output written to the AML Debug object.
func (drv *Driver) DebugOutput() string {
	drv.mu.Lock()
	defer drv.mu.Unlock()

	if drv.vm == nil {
		return ""
	}
	return drv.vm.DebugOutput()
}

// DeviceInfo describes a Device object found in the namespace.
type DeviceInfo struct {
	Path string

	// HID is the hardware id reported by _HID. Compressed EISA ids are
	// expanded to their 7 character form.
	HID string

	// Status is the value returned by _STA or 0x0F if the device does
	// not define one.
	Status uint64
}

// Devices walks the namespace and evaluates the _HID and _STA objects of
// every device. Devices whose objects fail to evaluate are reported with
// an empty HID and the default status.
func (drv *Driver) Devices() ([]DeviceInfo, error) {
	drv.mu.Lock()
	defer drv.mu.Unlock()

	if drv.vm == nil {
		return nil, errNotInitialized
	}

	var devices []*entity.Object
	drv.vm.Visit(entity.TypeDevice, func(_ int, obj *entity.Object) bool {
		devices = append(devices, obj)
		return true
	})

	list := make([]DeviceInfo, 0, len(devices))
	for _, dev := range devices {
		info := DeviceInfo{Path: dev.Path(), Status: 0x0f}

		if hid := dev.Child("_HID"); hid != nil {
			if val, err := drv.vm.ExecuteObject(hid); err == nil {
				info.HID = hardwareID(val)
			}
		}

		if sta := dev.Child("_STA"); sta != nil {
			if val, err := drv.vm.ExecuteObject(sta); err == nil {
				if status, ok := val.(entity.Integer); ok {
					info.Status = uint64(status)
				}
			}
		}

		list = append(list, info)
	}
	return list, nil
}

// hardwareID formats the value returned by _HID.
func hardwareID(v entity.Value) string {
	switch val := v.(type) {
	case entity.String:
		return string(val)
	case entity.Integer:
		return eisaIDToString(uint32(val))
	default:
		return ""
	}
}

// eisaIDToString expands a compressed EISA id (as produced by the ASL
// EISAID macro) to its "PNP0A03" form.
func eisaIDToString(id uint32) string {
	swapped := id>>24 | (id>>8)&0xff00 | (id<<8)&0xff0000 | id<<24

	return fmt.Sprintf("%c%c%c%04X",
		byte(0x40+(swapped>>26)&0x1f),
		byte(0x40+(swapped>>21)&0x1f),
		byte(0x40+(swapped>>16)&0x1f),
		swapped&0xffff,
	)
}

// Register adds a probe for an ACPI driver backed by resolver to the list
// of drivers detected by the hal package. The probe fails if the resolver
// does not provide a DSDT.
func Register(resolver table.Resolver, cfg aml.Config) {
	device.RegisterDriver(&device.DriverInfo{
		Order: device.DetectOrderACPI,
		Probe: func() device.Driver {
			if resolver == nil || resolver.LookupTable(dsdtSignature) == nil {
				return nil
			}
			return NewDriver(resolver, cfg)
		},
	})
}

package acpi

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"amlvm/device"
	"amlvm/device/acpi/aml"
	"amlvm/device/acpi/aml/amlasm"
	"amlvm/device/acpi/aml/entity"
	"amlvm/device/acpi/aml/opcode"
	"amlvm/device/acpi/table"

	"github.com/google/go-cmp/cmp"
)

func testResolver() table.MemResolver {
	dsdt := amlasm.Seq(
		amlasm.New().Name("CNT0", amlasm.Int(0)),
		amlasm.New().Device("PCI0", amlasm.Seq(
			// EISAID("PNP0A03")
			amlasm.New().Name("_HID", amlasm.Int(0x030ad041)),
		)),
		amlasm.New().Device("DEV1", amlasm.Seq(
			amlasm.New().Name("_HID", amlasm.Str("AMLV0001")),
			amlasm.New().Method("_STA", 0, false, amlasm.New().Return(amlasm.Int(0x0b))),
		)),
		amlasm.New().Method("INCR", 0, false, amlasm.Seq(
			amlasm.New().Term(opcode.Increment, amlasm.Path("CNT0")),
			amlasm.New().Return(amlasm.Path("CNT0")),
		)),
	)

	r := table.MemResolver{}
	r.Add(amlasm.Table("DSDT", 2, dsdt.Bytes()))
	return r
}

func TestDriverInit(t *testing.T) {
	drv := NewDriver(testResolver(), aml.Config{})

	if _, err := drv.Evaluate(context.Background(), `\INCR`); err != errNotInitialized {
		t.Fatalf("expected errNotInitialized before DriverInit; got %v", err)
	}

	var buf bytes.Buffer
	if err := drv.DriverInit(&buf); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, exp := range []string{"DSDT  rev 2", "(AMLVM  AMLASM  )", "loaded DSDT (64-bit integers)"} {
		if !strings.Contains(out, exp) {
			t.Errorf("expected driver output to contain %q; got:\n%s", exp, out)
		}
	}

	if drv.DriverName() != "ACPI" {
		t.Errorf("unexpected driver name %q", drv.DriverName())
	}
}

func TestDriverInitErrors(t *testing.T) {
	specs := []struct {
		resolver table.Resolver
		expMsg   string
	}{
		{nil, errMissingDSDT.Message},
		{table.MemResolver{}, errMissingDSDT.Message},
		{
			table.MemResolver{"DSDT": amlasm.Table("DSDT", 2, []byte{0x02})},
			"unimplemented opcode",
		},
	}

	for specIndex, spec := range specs {
		err := NewDriver(spec.resolver, aml.Config{}).DriverInit(&bytes.Buffer{})
		if err == nil {
			t.Errorf("[spec %02d] expected an error", specIndex)
			continue
		}
		if !strings.Contains(err.Message, spec.expMsg) {
			t.Errorf("[spec %02d] expected error to contain %q; got %q", specIndex, spec.expMsg, err.Message)
		}
	}
}

func TestEvaluateIsSerialized(t *testing.T) {
	drv := NewDriver(testResolver(), aml.Config{})
	if err := drv.DriverInit(&bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	const workers, calls = 8, 25

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				if _, err := drv.Evaluate(context.Background(), `\INCR`); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	got, err := drv.Evaluate(context.Background(), `\CNT0`)
	if err != nil {
		t.Fatal(err)
	}
	if exp := entity.Integer(workers * calls); got != exp {
		t.Fatalf("expected counter to be %d; got %v", exp, got)
	}
}

func TestDevices(t *testing.T) {
	drv := NewDriver(testResolver(), aml.Config{})
	if err := drv.DriverInit(&bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	got, err := drv.Devices()
	if err != nil {
		t.Fatal(err)
	}

	exp := []DeviceInfo{
		{Path: `\PCI0`, HID: "PNP0A03", Status: 0x0f},
		{Path: `\DEV1`, HID: "AMLV0001", Status: 0x0b},
	}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Fatalf("device list mismatch (-want +got):\n%s", diff)
	}

	if snap := drv.Snapshot(`\DEV1`); snap == nil || len(snap.Children) != 2 {
		t.Fatalf("expected a snapshot with 2 children; got %+v", snap)
	}
}

func TestEISAIDToString(t *testing.T) {
	specs := []struct {
		id  uint32
		exp string
	}{
		{0x030ad041, "PNP0A03"},
		{0x0c0cd041, "PNP0C0C"},
		{0x0d0cd041, "PNP0C0D"},
	}

	for specIndex, spec := range specs {
		if got := eisaIDToString(spec.id); got != spec.exp {
			t.Errorf("[spec %02d] expected %q; got %q", specIndex, spec.exp, got)
		}
	}
}

func TestRegister(t *testing.T) {
	before := len(device.DriverList())

	Register(testResolver(), aml.Config{})
	Register(table.MemResolver{}, aml.Config{})

	list := device.DriverList()
	if got := len(list) - before; got != 2 {
		t.Fatalf("expected 2 registered probes; got %d", got)
	}

	if drv := list[before].Probe(); drv == nil {
		t.Error("expected the probe to return a driver when a DSDT is available")
	}
	if drv := list[before+1].Probe(); drv != nil {
		t.Error("expected the probe to fail without a DSDT")
	}
}

package aml

import (
	"context"
	"errors"
	"testing"

	"amlvm/device/acpi/aml/amlasm"
	"amlvm/device/acpi/aml/entity"
	"amlvm/device/acpi/aml/opcode"
)

func syncDSDT() *amlasm.Builder {
	return Seq(
		New().Mutex("MTX0", 0),
		New().Event("EVT0"),
		method("ACQ", 0, ret(New().Acquire("MTX0", 0x10))),
		method("REL", 0, New().Release("MTX0")),
		method("WAIT", 0, ret(term(opcode.Wait, Path("EVT0"), Int(0x10)))),
		method("SIG", 0, term(opcode.Signal, Path("EVT0"))),
		method("RST", 0, term(opcode.Reset, Path("EVT0"))),
	)
}

func TestMutexAcquireRelease(t *testing.T) {
	vm, _ := loadAML(t, Config{}, 2, syncDSDT())
	ones := vm.ones()

	mutex, ok := vm.Lookup(`\MTX0`).Value.(*entity.Mutex)
	if !ok {
		t.Fatal(`expected \MTX0 to hold a mutex`)
	}

	// While the host holds the mutex, Acquire times out.
	if !mutex.Acquire(context.Background(), "host") {
		t.Fatal("expected the host to acquire the mutex")
	}
	if got, err := vm.ExecuteMethod(`\ACQ_`); err != nil || got != ones {
		t.Fatalf("expected Acquire to time out and return Ones; got %v (err: %v)", got, err)
	}
	if err := mutex.Release("host"); err != nil {
		t.Fatal(err)
	}

	// AML mutexes are recursive.
	for i := 0; i < 2; i++ {
		if got, err := vm.ExecuteMethod(`\ACQ_`); err != nil || got != entity.Integer(0) {
			t.Fatalf("[acquire %d] expected Acquire to return Zero; got %v (err: %v)", i, got, err)
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := vm.ExecuteMethod(`\REL_`); err != nil {
			t.Fatalf("[release %d] unexpected error: %v", i, err)
		}
	}
	if mutex.Held() {
		t.Fatal("expected the mutex to be released")
	}

	if _, err := vm.ExecuteMethod(`\REL_`); !errors.Is(err, errMutexNotOwned) {
		t.Fatalf("expected releasing an unowned mutex to fail with %v; got %v", errMutexNotOwned, err)
	}
}

func TestEventWaitSignal(t *testing.T) {
	vm, _ := loadAML(t, Config{}, 2, syncDSDT())
	ones := vm.ones()

	specs := []struct {
		method string
		exp    entity.Value
	}{
		{`\WAIT`, ones},
		{`\SIG_`, entity.Uninitialized{}},
		{`\SIG_`, entity.Uninitialized{}},
		{`\WAIT`, entity.Integer(0)},
		{`\RST_`, entity.Uninitialized{}},
		{`\WAIT`, ones},
		{`\SIG_`, entity.Uninitialized{}},
		{`\WAIT`, entity.Integer(0)},
	}

	for specIndex, spec := range specs {
		got, err := vm.ExecuteMethod(spec.method)
		if err != nil {
			t.Errorf("[spec %02d] %s: unexpected error: %v", specIndex, spec.method, err)
			continue
		}
		if got != spec.exp {
			t.Errorf("[spec %02d] %s: expected %v; got %v", specIndex, spec.method, spec.exp, got)
		}
	}
}

func TestWaitHonorsContext(t *testing.T) {
	aml := Seq(
		New().Event("EVT0"),
		method("WFVR", 0, ret(term(opcode.Wait, Path("EVT0"), Int(0xffff)))),
	)
	vm, _ := loadAML(t, Config{}, 2, aml)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := vm.ExecuteMethodContext(ctx, `\WFVR`)
	if err != nil {
		t.Fatal(err)
	}
	if got != vm.ones() {
		t.Fatalf("expected a cancelled wait to return Ones; got %v", got)
	}
}

func TestSerializedMethod(t *testing.T) {
	aml := Seq(
		New().Name("CNT0", Int(0)),
		New().Method("SERM", 0, true, Seq(
			term(opcode.Increment, Path("CNT0")),
			ret(Path("CNT0")),
		)),
	)
	vm, _ := loadAML(t, Config{}, 2, aml)

	for i := 1; i <= 3; i++ {
		got, err := vm.ExecuteMethod(`\SERM`)
		if err != nil {
			t.Fatal(err)
		}
		if got != entity.Integer(i) {
			t.Fatalf("[call %d] expected %d; got %v", i, i, got)
		}
	}

	if m := vm.Lookup(`\SERM`).Value.(*entity.Method); m.SerialLock.Held() {
		t.Fatal("expected the serialization lock to be released when the method returns")
	}
}

package device

import (
	"sync"
	"testing"
)

func resetRegistry() {
	registryMu.Lock()
	registeredDrivers = nil
	registryMu.Unlock()
}

func TestDriverListOrdering(t *testing.T) {
	defer resetRegistry()

	origList := []*DriverInfo{
		{Order: DetectOrderACPI},
		{Order: DetectOrderLast},
		{Order: DetectOrderBeforeACPI},
		{Order: DetectOrderACPI},
		{Order: DetectOrderEarly},
	}

	for _, drv := range origList {
		RegisterDriver(drv)
	}

	list := DriverList()
	if exp, got := len(origList), len(list); got != exp {
		t.Fatalf("expected DriverList() to return %d entries; got %d", exp, got)
	}

	expOrder := []int{4, 2, 0, 3, 1}
	for i, exp := range expOrder {
		if list[i] != origList[exp] {
			t.Errorf("[spec %02d] expected entry %d to be the driver registered at index %d", i, i, exp)
		}
	}

	// Reordering the returned list must not affect the registry.
	list[0], list[1] = list[1], list[0]
	if again := DriverList(); again[0] != origList[4] {
		t.Error("expected DriverList() to return an independent copy")
	}
}

func TestRegisterDriverConcurrently(t *testing.T) {
	defer resetRegistry()

	const workers = 16

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			RegisterDriver(&DriverInfo{Order: DetectOrderLast})
		}()
	}
	wg.Wait()

	if got := len(DriverList()); got != workers {
		t.Fatalf("expected %d registered drivers; got %d", workers, got)
	}
}

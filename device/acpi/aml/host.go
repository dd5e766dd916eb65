package aml

import (
	"sync"
	"time"

	"amlvm/device/acpi/aml/entity"
)

// Host provides the interpreter with access to the platform. Operation
// region accesses, timing and device notifications are all routed through
// it.
type Host interface {
	// ReadRegion reads width bytes (1, 2, 4 or 8) at addr in the given
	// address space and returns them as a little-endian integer.
	ReadRegion(space entity.RegionSpace, addr uint64, width uint8) (uint64, error)

	// WriteRegion writes the low width bytes of val at addr in the given
	// address space.
	WriteRegion(space entity.RegionSpace, addr uint64, width uint8, val uint64) error

	// Sleep suspends execution for at least the specified number of
	// milliseconds.
	Sleep(ms uint64)

	// Stall busy-waits for the specified number of microseconds.
	Stall(us uint64)

	// Timer returns a monotonically increasing counter in 100ns units.
	Timer() uint64

	// Notify delivers a Notify(obj, value) request to the OS.
	Notify(obj *entity.Object, value uint64)

	// Fatal is invoked when AML code executes the Fatal operator.
	Fatal(typ uint8, code uint32, arg uint64)

	// OSI reports whether the OS supports the interface named by feature.
	OSI(feature string) bool
}

// Notification is a Notify request recorded by MemoryHost.
type Notification struct {
	Path  string
	Value uint64
}

// MemoryHost is a Host that backs every operation region address space with
// a sparse byte map. It is used by the tests and by the amlsh tool.
type MemoryHost struct {
	mu       sync.Mutex
	start    time.Time
	spaces   map[entity.RegionSpace]map[uint64]byte
	osi      map[string]bool
	notified []Notification
	fatal    []uint32

	// RealSleep makes Sleep and Stall block for the requested time.
	RealSleep bool
}

// NewMemoryHost returns a MemoryHost that answers true to OSI queries for the
// supplied interface names.
func NewMemoryHost(osi ...string) *MemoryHost {
	h := &MemoryHost{
		start:  time.Now(),
		spaces: make(map[entity.RegionSpace]map[uint64]byte),
		osi:    make(map[string]bool),
	}
	for _, name := range osi {
		h.osi[name] = true
	}
	return h
}

// ReadRegion implements Host.
func (h *MemoryHost) ReadRegion(space entity.RegionSpace, addr uint64, width uint8) (uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var val uint64
	mem := h.spaces[space]
	for i := uint64(0); i < uint64(width); i++ {
		val |= uint64(mem[addr+i]) << (8 * i)
	}
	return val, nil
}

// WriteRegion implements Host.
func (h *MemoryHost) WriteRegion(space entity.RegionSpace, addr uint64, width uint8, val uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	mem := h.spaces[space]
	if mem == nil {
		mem = make(map[uint64]byte)
		h.spaces[space] = mem
	}
	for i := uint64(0); i < uint64(width); i++ {
		mem[addr+i] = byte(val >> (8 * i))
	}
	return nil
}

// Poke writes b at addr in the given address space.
func (h *MemoryHost) Poke(space entity.RegionSpace, addr uint64, b ...byte) {
	for i, v := range b {
		_ = h.WriteRegion(space, addr+uint64(i), 1, uint64(v))
	}
}

// Peek returns n bytes starting at addr in the given address space.
func (h *MemoryHost) Peek(space entity.RegionSpace, addr uint64, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		v, _ := h.ReadRegion(space, addr+uint64(i), 1)
		out[i] = byte(v)
	}
	return out
}

// Sleep implements Host.
func (h *MemoryHost) Sleep(ms uint64) {
	if h.RealSleep {
		time.Sleep(time.Duration(ms) * time.Millisecond)
	}
}

// Stall implements Host.
func (h *MemoryHost) Stall(us uint64) {
	if h.RealSleep {
		time.Sleep(time.Duration(us) * time.Microsecond)
	}
}

// Timer implements Host.
func (h *MemoryHost) Timer() uint64 {
	return uint64(time.Since(h.start) / 100)
}

// Notify implements Host.
func (h *MemoryHost) Notify(obj *entity.Object, value uint64) {
	h.mu.Lock()
	h.notified = append(h.notified, Notification{Path: obj.Path(), Value: value})
	h.mu.Unlock()
}

// Notifications returns the Notify requests received so far.
func (h *MemoryHost) Notifications() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Notification(nil), h.notified...)
}

// Fatal implements Host.
func (h *MemoryHost) Fatal(_ uint8, code uint32, _ uint64) {
	h.mu.Lock()
	h.fatal = append(h.fatal, code)
	h.mu.Unlock()
}

// FatalCodes returns the codes passed to Fatal so far.
func (h *MemoryHost) FatalCodes() []uint32 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]uint32(nil), h.fatal...)
}

// OSI implements Host.
func (h *MemoryHost) OSI(feature string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.osi[feature]
}

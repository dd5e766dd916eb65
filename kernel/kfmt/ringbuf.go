package kfmt

import (
	"io"
	"sync"
)

// DefaultRingBufferSize is large enough to hold the Debug output of a typical
// firmware _INI sequence.
const DefaultRingBufferSize = 4096

// RingBuffer is a bounded io.ReadWriter. Once full, new writes overwrite the
// oldest unread bytes. It is used to capture output that producers emit
// faster or earlier than a consumer drains it, e.g. stores to the AML Debug
// object. A RingBuffer is safe for concurrent use.
type RingBuffer struct {
	mu             sync.Mutex
	buffer         []byte
	rIndex, wIndex int
}

// NewRingBuffer returns a RingBuffer that can hold size-1 bytes. The size is
// rounded up to the next power of 2.
func NewRingBuffer(size int) *RingBuffer {
	capacity := 1
	for capacity < size {
		capacity <<= 1
	}

	return &RingBuffer{buffer: make([]byte, capacity)}
}

// Write writes len(p) bytes from p to the RingBuffer.
func (rb *RingBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.buffer == nil {
		rb.buffer = make([]byte, DefaultRingBufferSize)
	}

	mask := len(rb.buffer) - 1
	for _, b := range p {
		rb.buffer[rb.wIndex] = b
		rb.wIndex = (rb.wIndex + 1) & mask
		if rb.rIndex == rb.wIndex {
			rb.rIndex = (rb.rIndex + 1) & mask
		}
	}

	return len(p), nil
}

// Read reads up to len(p) bytes into p. It returns the number of bytes read (0
// <= n <= len(p)) and any error encountered.
func (rb *RingBuffer) Read(p []byte) (n int, err error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	switch {
	case rb.rIndex < rb.wIndex:
		// read up to min(wIndex - rIndex, len(p)) bytes
		n = copy(p, rb.buffer[rb.rIndex:rb.wIndex])
		rb.rIndex += n
		return n, nil
	case rb.rIndex > rb.wIndex:
		// read up to min(len(buf) - rIndex, len(p)) bytes
		n = copy(p, rb.buffer[rb.rIndex:])
		rb.rIndex += n
		if rb.rIndex == len(rb.buffer) {
			rb.rIndex = 0
		}
		return n, nil
	default: // rIndex == wIndex
		return 0, io.EOF
	}
}

// Len returns the number of unread bytes.
func (rb *RingBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.wIndex >= rb.rIndex {
		return rb.wIndex - rb.rIndex
	}
	return len(rb.buffer) - rb.rIndex + rb.wIndex
}

// Drain returns all unread bytes as a string and empties the buffer.
func (rb *RingBuffer) Drain() string {
	out := make([]byte, 0, rb.Len())
	chunk := make([]byte, 256)
	for {
		n, err := rb.Read(chunk)
		out = append(out, chunk[:n]...)
		if err == io.EOF {
			return string(out)
		}
	}
}

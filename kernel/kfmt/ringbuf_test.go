package kfmt

import (
	"bytes"
	"io"
	"testing"
)

func TestRingBuffer(t *testing.T) {
	var (
		buf    bytes.Buffer
		expStr = "the big brown fox jumped over the lazy dog"
		rb     = NewRingBuffer(64)
		size   = len(rb.buffer)
	)

	if size != 64 {
		t.Fatalf("expected buffer size to be 64; got %d", size)
	}

	t.Run("read/write", func(t *testing.T) {
		rb.wIndex = 0
		rb.rIndex = 0
		n, err := rb.Write([]byte(expStr))
		if err != nil {
			t.Fatal(err)
		}

		if n != len(expStr) {
			t.Fatalf("expected to write %d bytes; wrote %d", len(expStr), n)
		}

		if got := readByteByByte(&buf, rb); got != expStr {
			t.Fatalf("expected to read %q; got %q", expStr, got)
		}
	})

	t.Run("write moves read pointer", func(t *testing.T) {
		rb.wIndex = size - 1
		rb.rIndex = 0
		_, err := rb.Write([]byte{'!'})
		if err != nil {
			t.Fatal(err)
		}

		if exp := 1; rb.rIndex != exp {
			t.Fatalf("expected write to push rIndex to %d; got %d", exp, rb.rIndex)
		}
	})

	t.Run("wIndex < rIndex", func(t *testing.T) {
		rb.wIndex = size - 2
		rb.rIndex = size - 2
		n, err := rb.Write([]byte(expStr))
		if err != nil {
			t.Fatal(err)
		}

		if n != len(expStr) {
			t.Fatalf("expected to write %d bytes; wrote %d", len(expStr), n)
		}

		if exp, got := len(expStr), rb.Len(); got != exp {
			t.Fatalf("expected Len() to return %d; got %d", exp, got)
		}

		if got := readByteByByte(&buf, rb); got != expStr {
			t.Fatalf("expected to read %q; got %q", expStr, got)
		}
	})

	t.Run("with io.Copy", func(t *testing.T) {
		rb.wIndex = size - 2
		rb.rIndex = size - 2
		if _, err := rb.Write([]byte(expStr)); err != nil {
			t.Fatal(err)
		}

		var buf bytes.Buffer
		io.Copy(&buf, rb)

		if got := buf.String(); got != expStr {
			t.Fatalf("expected to read %q; got %q", expStr, got)
		}
	})

	t.Run("overflow keeps newest bytes", func(t *testing.T) {
		rb.wIndex = 0
		rb.rIndex = 0
		data := bytes.Repeat([]byte("0123456789"), 10)
		rb.Write(data)

		exp := string(data[len(data)-(size-1):])
		if got := rb.Drain(); got != exp {
			t.Fatalf("expected to drain %q; got %q", exp, got)
		}

		if got := rb.Len(); got != 0 {
			t.Fatalf("expected buffer to be empty after Drain; got %d bytes", got)
		}
	})
}

func TestRingBufferZeroValue(t *testing.T) {
	var rb RingBuffer
	rb.Write([]byte("lazy init"))

	if exp, got := DefaultRingBufferSize, len(rb.buffer); got != exp {
		t.Fatalf("expected zero value buffer to allocate %d bytes; got %d", exp, got)
	}

	if exp, got := "lazy init", rb.Drain(); got != exp {
		t.Fatalf("expected to drain %q; got %q", exp, got)
	}
}

func readByteByByte(buf *bytes.Buffer, r io.Reader) string {
	buf.Reset()
	var b = make([]byte, 1)
	for {
		_, err := r.Read(b)
		if err == io.EOF {
			break
		}

		buf.Write(b)
	}
	return buf.String()
}

package aml

import (
	"errors"
	"io"
)

var (
	errInvalidUnreadByte = errors.New("amlStreamReader: invalid use of UnreadByte")
	errInvalidOffset     = errors.New("amlStreamReader: offset out of bounds")
	errInvalidLimit      = errors.New("amlStreamReader: limit exceeds the enclosing scope")
)

// amlStreamReader reads the AML byte stream of a table or a method body. All
// reads are bounded by limit which is narrowed every time the interpreter
// enters a PkgLength-delimited scope and restored when the scope is exited.
type amlStreamReader struct {
	offset uint32
	limit  uint32
	data   []byte
}

// Init sets up the reader so it can read the contents of data. If a non-zero
// initialOffset is specified, it will be used as the current offset in the
// stream.
func (r *amlStreamReader) Init(data []byte, initialOffset uint32) error {
	r.data = data
	r.limit = uint32(len(data))
	return r.SetOffset(initialOffset)
}

// EOF returns true if the end of the current scope has been reached.
func (r *amlStreamReader) EOF() bool {
	return r.offset >= r.limit
}

// ReadByte returns the next byte from the stream.
func (r *amlStreamReader) ReadByte() (byte, error) {
	if r.EOF() {
		return 0, io.EOF
	}

	r.offset++
	return r.data[r.offset-1], nil
}

// PeekByte returns the next byte from the stream without advancing the read pointer.
func (r *amlStreamReader) PeekByte() (byte, error) {
	if r.EOF() {
		return 0, io.EOF
	}

	return r.data[r.offset], nil
}

// LastByte returns the last byte read off the stream
func (r *amlStreamReader) LastByte() (byte, error) {
	if r.offset == 0 {
		return 0, io.EOF
	}

	return r.data[r.offset-1], nil
}

// UnreadByte moves back the read pointer by one byte.
func (r *amlStreamReader) UnreadByte() error {
	if r.offset == 0 {
		return errInvalidUnreadByte
	}

	r.offset--
	return nil
}

// ReadBytes returns the next n bytes from the stream. The returned slice
// aliases the stream contents.
func (r *amlStreamReader) ReadBytes(n uint32) ([]byte, error) {
	if r.Remaining() < n {
		return nil, io.ErrUnexpectedEOF
	}

	r.offset += n
	return r.data[r.offset-n : r.offset], nil
}

// Offset returns the current offset.
func (r *amlStreamReader) Offset() uint32 {
	return r.offset
}

// SetOffset sets the reader offset to the supplied value. Seeking past the
// end of the data is an error; seeking past the current limit is allowed so
// callers can skip to the end of the scope they are about to leave.
func (r *amlStreamReader) SetOffset(off uint32) error {
	if off > uint32(len(r.data)) {
		return errInvalidOffset
	}

	r.offset = off
	return nil
}

// Remaining returns the number of bytes left before the current limit.
func (r *amlStreamReader) Remaining() uint32 {
	if r.offset >= r.limit {
		return 0
	}
	return r.limit - r.offset
}

// Limit returns the offset where the current scope ends.
func (r *amlStreamReader) Limit() uint32 {
	return r.limit
}

// PushLimit narrows the readable range to end and returns the previous
// limit so that it can be restored with PopLimit.
func (r *amlStreamReader) PushLimit(end uint32) (uint32, error) {
	if end > r.limit || end < r.offset {
		return 0, errInvalidLimit
	}

	prev := r.limit
	r.limit = end
	return prev, nil
}

// PopLimit restores a limit returned by PushLimit.
func (r *amlStreamReader) PopLimit(prev uint32) {
	r.limit = prev
}

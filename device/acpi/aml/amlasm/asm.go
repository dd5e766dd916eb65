// Package amlasm assembles AML byte-code. It is used to build test fixtures
// and small tables without an external ASL compiler.
package amlasm

import (
	"bytes"
	"encoding/binary"
	"strings"

	"amlvm/device/acpi/aml/opcode"
	"amlvm/device/acpi/table"
)

const (
	pkgLen1 = 1 << 6
	pkgLen2 = 1 << 12
	pkgLen3 = 1 << 20
)

// Builder accumulates an AML byte stream. All methods append to the stream
// and return the receiver so calls can be chained.
type Builder struct {
	buf bytes.Buffer
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{}
}

// Bytes returns the assembled stream.
func (b *Builder) Bytes() []byte {
	return b.buf.Bytes()
}

// Len returns the number of assembled bytes.
func (b *Builder) Len() int {
	return b.buf.Len()
}

// Raw appends data verbatim.
func (b *Builder) Raw(data ...byte) *Builder {
	b.buf.Write(data)
	return b
}

// Append appends the contents of other builders.
func (b *Builder) Append(parts ...*Builder) *Builder {
	for _, part := range parts {
		if part != nil {
			b.buf.Write(part.Bytes())
		}
	}
	return b
}

// Op appends an opcode, emitting the extension prefix when needed.
func (b *Builder) Op(op opcode.Opcode) *Builder {
	if op.IsExtended() {
		b.buf.WriteByte(opcode.ExtPrefix)
	}
	b.buf.WriteByte(byte(op))
	return b
}

// Term appends op followed by its operands.
func (b *Builder) Term(op opcode.Opcode, operands ...*Builder) *Builder {
	return b.Op(op).Append(operands...)
}

// Scoped appends op followed by a PkgLength covering the operands.
func (b *Builder) Scoped(op opcode.Opcode, operands ...*Builder) *Builder {
	body := New().Append(operands...)
	b.Op(op)
	b.buf.Write(PkgLength(uint32(body.Len()), true))
	b.buf.Write(body.Bytes())
	return b
}

// PkgLength encodes length as an AML PkgLength. If includeSelf is set the
// encoded value also accounts for the PkgLength bytes.
func PkgLength(length uint32, includeSelf bool) []byte {
	var lenLen uint32
	switch {
	case length+1 < pkgLen1:
		lenLen = 1
	case length+2 < pkgLen2:
		lenLen = 2
	case length+3 < pkgLen3:
		lenLen = 3
	default:
		lenLen = 4
	}

	if includeSelf {
		length += lenLen
	}

	out := make([]byte, lenLen)
	if lenLen == 1 {
		out[0] = uint8(length)
		return out
	}

	out[0] = uint8(lenLen-1)<<6 | uint8(length&0xf)
	for i := uint32(1); i < lenLen; i++ {
		out[i] = uint8(length >> (4 + 8*(i-1)))
	}
	return out
}

// Path appends a NameString. Paths use the text form (`\_SB_.PCI0`, `^FOO`,
// `BAR`); segments shorter than 4 characters are padded with '_'. An empty
// path produces a NullName.
func (b *Builder) Path(path string) *Builder {
	for len(path) > 0 && (path[0] == '\\' || path[0] == '^') {
		b.buf.WriteByte(path[0])
		path = path[1:]
	}

	if path == "" {
		b.buf.WriteByte(0x00)
		return b
	}

	segs := strings.Split(path, ".")
	switch len(segs) {
	case 1:
	case 2:
		b.buf.WriteByte(byte(opcode.DualNamePrefix))
	default:
		b.buf.WriteByte(byte(opcode.MultiNamePrefix))
		b.buf.WriteByte(byte(len(segs)))
	}

	for _, seg := range segs {
		b.buf.WriteString((seg + "____")[:4])
	}
	return b
}

// Zero appends the Zero opcode.
func (b *Builder) Zero() *Builder { return b.Op(opcode.Zero) }

// One appends the One opcode.
func (b *Builder) One() *Builder { return b.Op(opcode.One) }

// Ones appends the Ones opcode.
func (b *Builder) Ones() *Builder { return b.Op(opcode.Ones) }

// Int appends v using the shortest integer encoding.
func (b *Builder) Int(v uint64) *Builder {
	switch {
	case v == 0:
		return b.Zero()
	case v == 1:
		return b.One()
	case v <= 0xff:
		return b.Byte(uint8(v))
	case v <= 0xffff:
		return b.Word(uint16(v))
	case v <= 0xffffffff:
		return b.DWord(uint32(v))
	default:
		return b.QWord(v)
	}
}

// Byte appends a ByteConst.
func (b *Builder) Byte(v uint8) *Builder {
	return b.Op(opcode.BytePrefix).Raw(v)
}

// Word appends a WordConst.
func (b *Builder) Word(v uint16) *Builder {
	var data [2]byte
	binary.LittleEndian.PutUint16(data[:], v)
	return b.Op(opcode.WordPrefix).Raw(data[:]...)
}

// DWord appends a DWordConst.
func (b *Builder) DWord(v uint32) *Builder {
	var data [4]byte
	binary.LittleEndian.PutUint32(data[:], v)
	return b.Op(opcode.DwordPrefix).Raw(data[:]...)
}

// QWord appends a QWordConst.
func (b *Builder) QWord(v uint64) *Builder {
	var data [8]byte
	binary.LittleEndian.PutUint64(data[:], v)
	return b.Op(opcode.QwordPrefix).Raw(data[:]...)
}

// String appends a null-terminated String.
func (b *Builder) String(s string) *Builder {
	b.Op(opcode.StringPrefix)
	b.buf.WriteString(s)
	b.buf.WriteByte(0x00)
	return b
}

// Local appends LocalN.
func (b *Builder) Local(n int) *Builder { return b.Op(opcode.Local0 + opcode.Opcode(n)) }

// Arg appends ArgN.
func (b *Builder) Arg(n int) *Builder { return b.Op(opcode.Arg0 + opcode.Opcode(n)) }

// Debug appends the Debug object.
func (b *Builder) Debug() *Builder { return b.Op(opcode.Debug) }

// Buffer appends Buffer(size) {init}. A nil size uses len(init).
func (b *Builder) Buffer(size *Builder, init []byte) *Builder {
	if size == nil {
		size = Int(uint64(len(init)))
	}
	return b.Scoped(opcode.Buffer, size, New().Raw(init...))
}

// Package appends Package() {elems...} with NumElements set to len(elems).
func (b *Builder) Package(elems ...*Builder) *Builder {
	return b.Scoped(opcode.Package, append([]*Builder{New().Raw(byte(len(elems)))}, elems...)...)
}

// Name appends Name(path, value).
func (b *Builder) Name(path string, value *Builder) *Builder {
	return b.Term(opcode.Name, New().Path(path), value)
}

// Scope appends Scope(path) {body}.
func (b *Builder) Scope(path string, body *Builder) *Builder {
	return b.Scoped(opcode.Scope, New().Path(path), body)
}

// Device appends Device(path) {body}.
func (b *Builder) Device(path string, body *Builder) *Builder {
	return b.Scoped(opcode.Device, New().Path(path), body)
}

// Method appends Method(path, args, serialized) {body}.
func (b *Builder) Method(path string, args uint8, serialized bool, body *Builder) *Builder {
	flags := args & 0x7
	if serialized {
		flags |= 1 << 3
	}
	return b.Scoped(opcode.Method, New().Path(path).Raw(flags), body)
}

// If appends If(pred) {body}.
func (b *Builder) If(pred, body *Builder) *Builder {
	return b.Scoped(opcode.If, pred, body)
}

// Else appends Else {body}. It must directly follow an If.
func (b *Builder) Else(body *Builder) *Builder {
	return b.Scoped(opcode.Else, body)
}

// While appends While(pred) {body}.
func (b *Builder) While(pred, body *Builder) *Builder {
	return b.Scoped(opcode.While, pred, body)
}

// Return appends Return(value).
func (b *Builder) Return(value *Builder) *Builder {
	return b.Term(opcode.Return, value)
}

// Store appends Store(value, target).
func (b *Builder) Store(value, target *Builder) *Builder {
	return b.Term(opcode.Store, value, target)
}

// Call appends a method invocation.
func (b *Builder) Call(path string, args ...*Builder) *Builder {
	return b.Path(path).Append(args...)
}

// Binary appends a two operand opcode with a target (Add, Concat, And ...).
// A nil target is encoded as a NullName.
func (b *Builder) Binary(op opcode.Opcode, x, y, target *Builder) *Builder {
	if target == nil {
		target = Null()
	}
	return b.Term(op, x, y, target)
}

// OpRegion appends OperationRegion(path, space, offset, length).
func (b *Builder) OpRegion(path string, space uint8, offset, length *Builder) *Builder {
	return b.Term(opcode.OpRegion, New().Path(path).Raw(space), offset, length)
}

// FieldEntry is an element of a field list. Entries with an empty Name
// are reserved bits.
type FieldEntry struct {
	Name string
	Bits uint32
}

// Field appends Field(region, flags) {entries...}.
func (b *Builder) Field(region string, flags uint8, entries ...FieldEntry) *Builder {
	list := New().Path(region).Raw(flags)
	for _, entry := range entries {
		if entry.Name == "" {
			list.Raw(0x00)
		} else {
			list.buf.WriteString((entry.Name + "____")[:4])
		}
		list.Raw(PkgLength(entry.Bits, false)...)
	}
	return b.Scoped(opcode.Field, list)
}

// Mutex appends Mutex(path, syncLevel).
func (b *Builder) Mutex(path string, syncLevel uint8) *Builder {
	return b.Term(opcode.Mutex, New().Path(path).Raw(syncLevel))
}

// Acquire appends Acquire(path, timeout).
func (b *Builder) Acquire(path string, timeout uint16) *Builder {
	var data [2]byte
	binary.LittleEndian.PutUint16(data[:], timeout)
	return b.Term(opcode.Acquire, New().Path(path).Raw(data[:]...))
}

// Release appends Release(path).
func (b *Builder) Release(path string) *Builder {
	return b.Term(opcode.Release, New().Path(path))
}

// Event appends Event(path).
func (b *Builder) Event(path string) *Builder {
	return b.Term(opcode.Event, New().Path(path))
}

// Table wraps aml in an ACPI table with the given signature and revision.
func Table(signature string, revision uint8, aml []byte) *table.SDT {
	t, err := table.ParseSDT(table.Build(signature, revision, "AMLVM", "AMLASM", aml))
	if err != nil {
		panic(err)
	}
	return t
}

// Int returns a builder holding an integer constant.
func Int(v uint64) *Builder { return New().Int(v) }

// Str returns a builder holding a string constant.
func Str(s string) *Builder { return New().String(s) }

// Path returns a builder holding a NameString.
func Path(path string) *Builder { return New().Path(path) }

// Local returns a builder holding LocalN.
func Local(n int) *Builder { return New().Local(n) }

// Arg returns a builder holding ArgN.
func Arg(n int) *Builder { return New().Arg(n) }

// Null returns a builder holding a NullName.
func Null() *Builder { return New().Raw(0x00) }

// Seq concatenates the given builders.
func Seq(parts ...*Builder) *Builder { return New().Append(parts...) }

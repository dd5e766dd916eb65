package table

import (
	"encoding/binary"

	"amlvm/kernel"

	"golang.org/x/crypto/cryptobyte"
)

// HeaderLength is the size of the standard header that precedes all ACPI
// tables.
const HeaderLength = 36

var (
	errTableTooShort         = &kernel.Error{Module: "acpi_table", Message: "table is shorter than the standard SDT header"}
	errTableLengthMismatch   = &kernel.Error{Module: "acpi_table", Message: "header length field does not match the table size"}
	errTableChecksumMismatch = &kernel.Error{Module: "acpi_table", Message: "detected checksum mismatch while parsing ACPI table header"}
)

// Resolver is an interface implemented by objects that can lookup an ACPI table
// by its name.
//
// LookupTable attempts to locate a table by name returning back the parsed
// table or nil if the table could not be found. Tables that appear more than
// once (e.g. SSDT) are named by appending a 1-based index to the signature
// (SSDT1, SSDT2, ...); the first instance is also reachable by the bare
// signature.
type Resolver interface {
	LookupTable(string) *SDT
}

// SDTHeader defines the common header for all ACPI-related tables.
type SDTHeader struct {
	// The signature defines the table type.
	Signature [4]byte

	// The length of the table
	Length uint32

	// If this header belongs to a DSDT/SSDT table, the revision is also
	// used to indicate whether the AML VM should treat integers as 32-bits
	// (revision < 2) or 64-bits (revision >= 2).
	Revision uint8

	// A value that when added to the sum of all other bytes in the table
	// should result in the value 0.
	Checksum uint8

	// OEM specific information
	OEMID       [6]byte
	OEMTableID  [8]byte
	OEMRevision uint32

	// Information about the ASL compiler that generated this table
	CreatorID       uint32
	CreatorRevision uint32
}

// SDT is a decoded ACPI table: its header and the payload that follows it.
// For DSDT and SSDT tables the payload is the AML byte stream. Raw holds
// the complete table including the header.
type SDT struct {
	Header SDTHeader
	Data   []byte
	Raw    []byte
}

// Signature returns the table signature as a string.
func (t *SDT) Signature() string {
	return string(t.Header.Signature[:])
}

// ParseSDT decodes the header of the raw table contents in b and validates
// the table length and checksum. The returned SDT references b.
func ParseSDT(b []byte) (*SDT, *kernel.Error) {
	var (
		t     SDT
		s     = cryptobyte.String(b)
		sig   []byte
		oemID []byte
		oemTb []byte
	)

	if !s.ReadBytes(&sig, 4) ||
		!readUint32LE(&s, &t.Header.Length) ||
		!s.ReadUint8(&t.Header.Revision) ||
		!s.ReadUint8(&t.Header.Checksum) ||
		!s.ReadBytes(&oemID, 6) ||
		!s.ReadBytes(&oemTb, 8) ||
		!readUint32LE(&s, &t.Header.OEMRevision) ||
		!readUint32LE(&s, &t.Header.CreatorID) ||
		!readUint32LE(&s, &t.Header.CreatorRevision) {
		return nil, errTableTooShort
	}

	copy(t.Header.Signature[:], sig)
	copy(t.Header.OEMID[:], oemID)
	copy(t.Header.OEMTableID[:], oemTb)

	if int(t.Header.Length) != len(b) {
		return nil, errTableLengthMismatch
	}

	if Checksum(b) != 0 {
		return nil, errTableChecksumMismatch
	}

	t.Raw = b
	t.Data = b[HeaderLength:]
	return &t, nil
}

// readUint32LE reads a little-endian uint32 from s. ACPI tables are always
// little-endian whereas cryptobyte only provides big-endian integer readers.
func readUint32LE(s *cryptobyte.String, out *uint32) bool {
	var v []byte
	if !s.ReadBytes(&v, 4) {
		return false
	}
	*out = binary.LittleEndian.Uint32(v)
	return true
}

// Checksum returns the 8-bit sum of all bytes in b. A valid table sums to 0.
func Checksum(b []byte) uint8 {
	var sum uint8
	for _, v := range b {
		sum += v
	}
	return sum
}

// Build assembles a complete ACPI table with the given signature, revision
// and OEM ids around payload and fixes up its length and checksum fields.
func Build(signature string, revision uint8, oemID, oemTableID string, payload []byte) []byte {
	var b cryptobyte.Builder

	b.AddBytes(padTo([]byte(signature), 4))
	b.AddBytes(le32(uint32(HeaderLength + len(payload))))
	b.AddUint8(revision)
	b.AddUint8(0) // checksum, fixed below
	b.AddBytes(padTo([]byte(oemID), 6))
	b.AddBytes(padTo([]byte(oemTableID), 8))
	b.AddBytes(le32(1))
	b.AddBytes([]byte("AMLV"))
	b.AddBytes(le32(1))
	b.AddBytes(payload)

	out := b.BytesOrPanic()
	out[9] = -Checksum(out)
	return out
}

func padTo(b []byte, n int) []byte {
	out := make([]byte, n)
	copy(out, b)
	for i := len(b); i < n; i++ {
		out[i] = ' '
	}
	return out
}

func le32(v uint32) []byte {
	var out [4]byte
	binary.LittleEndian.PutUint32(out[:], v)
	return out[:]
}

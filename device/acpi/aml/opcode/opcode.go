// Package opcode contains the AML opcode list and the argument grammar for
// every opcode that the interpreter understands.
package opcode

// Opcode describes an AML opcode. While AML supports 256 opcodes, some of
// them are specified using a combination of an extension prefix (0x5B) and a
// code. To map each opcode into a single unique value extended opcodes are
// stored as 0x5B00 | code.
type Opcode uint16

// ExtPrefix is the byte that introduces an extended opcode.
const ExtPrefix = 0x5b

// List of AML opcodes.
const (
	// Regular opcode list
	Zero             = Opcode(0x00)
	One              = Opcode(0x01)
	Alias            = Opcode(0x06)
	Name             = Opcode(0x08)
	BytePrefix       = Opcode(0x0a)
	WordPrefix       = Opcode(0x0b)
	DwordPrefix      = Opcode(0x0c)
	StringPrefix     = Opcode(0x0d)
	QwordPrefix      = Opcode(0x0e)
	Scope            = Opcode(0x10)
	Buffer           = Opcode(0x11)
	Package          = Opcode(0x12)
	VarPackage       = Opcode(0x13)
	Method           = Opcode(0x14)
	External         = Opcode(0x15)
	DualNamePrefix   = Opcode(0x2e)
	MultiNamePrefix  = Opcode(0x2f)
	RootChar         = Opcode(0x5c)
	ParentPrefixChar = Opcode(0x5e)
	Local0           = Opcode(0x60)
	Local1           = Opcode(0x61)
	Local2           = Opcode(0x62)
	Local3           = Opcode(0x63)
	Local4           = Opcode(0x64)
	Local5           = Opcode(0x65)
	Local6           = Opcode(0x66)
	Local7           = Opcode(0x67)
	Arg0             = Opcode(0x68)
	Arg1             = Opcode(0x69)
	Arg2             = Opcode(0x6a)
	Arg3             = Opcode(0x6b)
	Arg4             = Opcode(0x6c)
	Arg5             = Opcode(0x6d)
	Arg6             = Opcode(0x6e)
	Store            = Opcode(0x70)
	RefOf            = Opcode(0x71)
	Add              = Opcode(0x72)
	Concat           = Opcode(0x73)
	Subtract         = Opcode(0x74)
	Increment        = Opcode(0x75)
	Decrement        = Opcode(0x76)
	Multiply         = Opcode(0x77)
	Divide           = Opcode(0x78)
	ShiftLeft        = Opcode(0x79)
	ShiftRight       = Opcode(0x7a)
	And              = Opcode(0x7b)
	Nand             = Opcode(0x7c)
	Or               = Opcode(0x7d)
	Nor              = Opcode(0x7e)
	Xor              = Opcode(0x7f)
	Not              = Opcode(0x80)
	FindSetLeftBit   = Opcode(0x81)
	FindSetRightBit  = Opcode(0x82)
	DerefOf          = Opcode(0x83)
	ConcatRes        = Opcode(0x84)
	Mod              = Opcode(0x85)
	Notify           = Opcode(0x86)
	SizeOf           = Opcode(0x87)
	Index            = Opcode(0x88)
	Match            = Opcode(0x89)
	CreateDWordField = Opcode(0x8a)
	CreateWordField  = Opcode(0x8b)
	CreateByteField  = Opcode(0x8c)
	CreateBitField   = Opcode(0x8d)
	ObjectType       = Opcode(0x8e)
	CreateQWordField = Opcode(0x8f)
	Land             = Opcode(0x90)
	Lor              = Opcode(0x91)
	Lnot             = Opcode(0x92)
	LEqual           = Opcode(0x93)
	LGreater         = Opcode(0x94)
	LLess            = Opcode(0x95)
	ToBuffer         = Opcode(0x96)
	ToDecimalString  = Opcode(0x97)
	ToHexString      = Opcode(0x98)
	ToInteger        = Opcode(0x99)
	ToString         = Opcode(0x9c)
	CopyObject       = Opcode(0x9d)
	Mid              = Opcode(0x9e)
	Continue         = Opcode(0x9f)
	If               = Opcode(0xa0)
	Else             = Opcode(0xa1)
	While            = Opcode(0xa2)
	Noop             = Opcode(0xa3)
	Return           = Opcode(0xa4)
	Break            = Opcode(0xa5)
	BreakPoint       = Opcode(0xcc)
	Ones             = Opcode(0xff)
	// Extended opcodes
	Mutex       = Opcode(0x5b01)
	Event       = Opcode(0x5b02)
	CondRefOf   = Opcode(0x5b12)
	CreateField = Opcode(0x5b13)
	LoadTable   = Opcode(0x5b1f)
	Load        = Opcode(0x5b20)
	Stall       = Opcode(0x5b21)
	Sleep       = Opcode(0x5b22)
	Acquire     = Opcode(0x5b23)
	Signal      = Opcode(0x5b24)
	Wait        = Opcode(0x5b25)
	Reset       = Opcode(0x5b26)
	Release     = Opcode(0x5b27)
	FromBCD     = Opcode(0x5b28)
	ToBCD       = Opcode(0x5b29)
	Unload      = Opcode(0x5b2a)
	Revision    = Opcode(0x5b30)
	Debug       = Opcode(0x5b31)
	Fatal       = Opcode(0x5b32)
	Timer       = Opcode(0x5b33)
	OpRegion    = Opcode(0x5b80)
	Field       = Opcode(0x5b81)
	Device      = Opcode(0x5b82)
	Processor   = Opcode(0x5b83)
	PowerRes    = Opcode(0x5b84)
	ThermalZone = Opcode(0x5b85)
	IndexField  = Opcode(0x5b86)
	BankField   = Opcode(0x5b87)
	DataRegion  = Opcode(0x5b88)
)

// IsExtended returns true if op belongs to the extended (0x5B-prefixed)
// opcode group.
func (op Opcode) IsExtended() bool {
	return op>>8 == ExtPrefix
}

// IsLocal returns true if this opcode represents any of the supported local
// function args 0 to 7.
func (op Opcode) IsLocal() bool {
	return op >= Local0 && op <= Local7
}

// IsArg returns true if this opcode represents any of the supported
// input function args 0 to 6.
func (op Opcode) IsArg() bool {
	return op >= Arg0 && op <= Arg6
}

// IsNameLead returns true if b can start a NameString: a root or parent
// prefix, a dual/multi name prefix, an uppercase letter or an underscore.
func IsNameLead(b byte) bool {
	return group0[b].Flags&FlagNameLead != 0
}

// IsNameChar returns true if b is valid inside a 4-character NameSeg.
func IsNameChar(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// String implements fmt.Stringer for Opcode.
func (op Opcode) String() string {
	if info := Lookup(op); info != nil && info.Name != "" {
		return info.Name
	}

	const hex = "0123456789abcdef"
	if op.IsExtended() {
		return "unknown(0x5b" + string([]byte{hex[op>>4&0xf], hex[op&0xf]}) + ")"
	}
	return "unknown(0x" + string([]byte{hex[op>>4&0xf], hex[op&0xf]}) + ")"
}

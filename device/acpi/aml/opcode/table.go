package opcode

// ArgKind describes how the bytes of a fixed opcode argument are decoded.
type ArgKind uint8

// The list of supported argument kinds.
const (
	ArgNone ArgKind = iota

	// Raw little-endian integers of 1, 2, 4 and 8 bytes.
	ArgByte
	ArgWord
	ArgDword
	ArgQword

	// A null-terminated ASCII string.
	ArgString

	// A NameString that is not resolved by the argument reader.
	ArgName

	// A TermArg evaluated to a value of any type.
	ArgTermArg

	// A SuperName/Target. References are strong unless the opcode is
	// CondRefOf.
	ArgObjRef

	// TermArgs that are coerced to an Integer, Buffer or Package.
	ArgInteger
	ArgBuffer
	ArgPackage
)

var argKindNames = [...]string{"None", "Byte", "Word", "Dword", "Qword", "String", "Name", "TermArg", "ObjRef", "Integer", "Buffer", "Package"}

// String implements fmt.Stringer for ArgKind.
func (k ArgKind) String() string {
	if int(k) < len(argKindNames) {
		return argKindNames[k]
	}
	return "invalid"
}

// Flag is an OR-able set of opcode attributes.
type Flag uint8

const (
	// FlagTerm marks an opcode that has a fixed grammar entry and is
	// handled by one of the executor categories.
	FlagTerm Flag = 1 << iota

	// FlagNameLead marks bytes that start a NameString. They are valid
	// table entries but are routed to the method invocation path.
	FlagNameLead

	// FlagScope marks opcodes that are followed by a PkgLength and open
	// a nested scope once their fixed arguments have been read.
	FlagScope
)

// MaxArgs is the largest number of fixed arguments taken by any opcode.
const MaxArgs = 6

// Info contains the grammar of a single opcode.
type Info struct {
	Name     string
	Flags    Flag
	ArgCount uint8
	Args     [MaxArgs]ArgKind
}

// OpensScope returns true if the opcode is followed by a PkgLength and a
// nested block.
func (i *Info) OpensScope() bool {
	return i.Flags&FlagScope != 0
}

// Lookup returns the grammar entry for op or nil if op is not a valid
// opcode.
func Lookup(op Opcode) *Info {
	var info *Info
	switch {
	case op.IsExtended():
		info = &group1[op&0xff]
	case op <= 0xff:
		info = &group0[op]
	default:
		return nil
	}

	if info.Flags == 0 {
		return nil
	}
	return info
}

// Abbreviations for the argument kinds; they keep the table rows short.
const (
	_B = ArgByte
	_W = ArgWord
	_D = ArgDword
	_Q = ArgQword
	_S = ArgString
	_N = ArgName
	_T = ArgTermArg
	_O = ArgObjRef
	_I = ArgInteger
	_U = ArgBuffer
	_P = ArgPackage
)

func term(name string, args ...ArgKind) Info {
	info := Info{Name: name, Flags: FlagTerm, ArgCount: uint8(len(args))}
	copy(info.Args[:], args)
	return info
}

func scoped(name string, args ...ArgKind) Info {
	info := term(name, args...)
	info.Flags |= FlagScope
	return info
}

// nameLead marks the bytes that start a NameString rather than an opcode.
var nameLead = Info{Name: "NameString", Flags: FlagNameLead}

// group0 holds the single byte opcodes. Entries that are not listed have a
// zero value and are rejected by Lookup.
var group0 = [256]Info{
	0x00: term("Zero"),
	0x01: term("One"),
	0x06: term("Alias", _N, _N),
	0x08: term("Name", _N, _T),
	0x0a: term("BytePrefix", _B),
	0x0b: term("WordPrefix", _W),
	0x0c: term("DWordPrefix", _D),
	0x0d: term("StringPrefix", _S),
	0x0e: term("QWordPrefix", _Q),
	0x10: scoped("Scope", _N),
	0x11: scoped("Buffer", _I),
	0x12: scoped("Package", _B),
	0x13: scoped("VarPackage", _I),
	0x14: scoped("Method", _N, _B),
	0x15: term("External", _N, _B, _B),
	0x2e: nameLead,
	0x2f: nameLead,
	'A':  nameLead, 'B': nameLead, 'C': nameLead, 'D': nameLead, 'E': nameLead,
	'F': nameLead, 'G': nameLead, 'H': nameLead, 'I': nameLead, 'J': nameLead,
	'K': nameLead, 'L': nameLead, 'M': nameLead, 'N': nameLead, 'O': nameLead,
	'P': nameLead, 'Q': nameLead, 'R': nameLead, 'S': nameLead, 'T': nameLead,
	'U': nameLead, 'V': nameLead, 'W': nameLead, 'X': nameLead, 'Y': nameLead,
	'Z':  nameLead,
	0x5c: nameLead,
	0x5e: nameLead,
	0x5f: nameLead,
	0x60: term("Local0"),
	0x61: term("Local1"),
	0x62: term("Local2"),
	0x63: term("Local3"),
	0x64: term("Local4"),
	0x65: term("Local5"),
	0x66: term("Local6"),
	0x67: term("Local7"),
	0x68: term("Arg0"),
	0x69: term("Arg1"),
	0x6a: term("Arg2"),
	0x6b: term("Arg3"),
	0x6c: term("Arg4"),
	0x6d: term("Arg5"),
	0x6e: term("Arg6"),
	0x70: term("Store", _T, _O),
	0x71: term("RefOf", _O),
	0x72: term("Add", _I, _I, _O),
	0x73: term("Concat", _T, _T, _O),
	0x74: term("Subtract", _I, _I, _O),
	0x75: term("Increment", _O),
	0x76: term("Decrement", _O),
	0x77: term("Multiply", _I, _I, _O),
	0x78: term("Divide", _I, _I, _O, _O),
	0x79: term("ShiftLeft", _I, _I, _O),
	0x7a: term("ShiftRight", _I, _I, _O),
	0x7b: term("And", _I, _I, _O),
	0x7c: term("Nand", _I, _I, _O),
	0x7d: term("Or", _I, _I, _O),
	0x7e: term("Nor", _I, _I, _O),
	0x7f: term("Xor", _I, _I, _O),
	0x80: term("Not", _I, _O),
	0x81: term("FindSetLeftBit", _I, _O),
	0x82: term("FindSetRightBit", _I, _O),
	0x83: term("DerefOf", _O),
	0x84: term("ConcatRes", _T, _T, _O),
	0x85: term("Mod", _I, _I, _O),
	0x86: term("Notify", _O, _I),
	0x87: term("SizeOf", _O),
	0x88: term("Index", _T, _I, _O),
	0x89: term("Match", _P, _B, _I, _B, _I, _I),
	0x8a: term("CreateDWordField", _U, _I, _N),
	0x8b: term("CreateWordField", _U, _I, _N),
	0x8c: term("CreateByteField", _U, _I, _N),
	0x8d: term("CreateBitField", _U, _I, _N),
	0x8e: term("ObjectType", _O),
	0x8f: term("CreateQWordField", _U, _I, _N),
	0x90: term("Land", _T, _T),
	0x91: term("Lor", _T, _T),
	0x92: term("Lnot", _T),
	0x93: term("LEqual", _T, _T),
	0x94: term("LGreater", _T, _T),
	0x95: term("LLess", _T, _T),
	0x96: term("ToBuffer", _T, _O),
	0x97: term("ToDecimalString", _T, _O),
	0x98: term("ToHexString", _T, _O),
	0x99: term("ToInteger", _T, _O),
	0x9c: term("ToString", _T, _I, _O),
	0x9d: term("CopyObject", _T, _O),
	0x9e: term("Mid", _T, _T, _T, _O),
	0x9f: term("Continue"),
	0xa0: scoped("If", _I),
	0xa1: scoped("Else"),
	0xa2: scoped("While", _I),
	0xa3: term("Noop"),
	0xa4: term("Return", _T),
	0xa5: term("Break"),
	0xcc: term("BreakPoint"),
	0xff: term("Ones"),
}

// group1 holds the extended opcodes indexed by the byte that follows the
// 0x5B prefix.
var group1 = [256]Info{
	0x01: term("Mutex", _N, _B),
	0x02: term("Event", _N),
	0x12: term("CondRefOf", _O, _O),
	0x13: term("CreateField", _U, _I, _I, _N),
	0x1f: term("LoadTable", _T, _T, _T, _T, _T, _T),
	0x20: term("Load", _N, _O),
	0x21: term("Stall", _I),
	0x22: term("Sleep", _I),
	0x23: term("Acquire", _O, _W),
	0x24: term("Signal", _O),
	0x25: term("Wait", _O, _I),
	0x26: term("Reset", _O),
	0x27: term("Release", _O),
	0x28: term("FromBCD", _I, _O),
	0x29: term("ToBCD", _I, _O),
	0x2a: term("Unload", _O),
	0x30: term("Revision"),
	0x31: term("Debug"),
	0x32: term("Fatal", _B, _D, _I),
	0x33: term("Timer"),
	0x80: term("OpRegion", _N, _B, _I, _I),
	0x81: scoped("Field", _N, _B),
	0x82: scoped("Device", _N),
	0x83: scoped("Processor", _N, _B, _D, _B),
	0x84: scoped("PowerRes", _N, _B, _W),
	0x85: scoped("ThermalZone", _N),
	0x86: scoped("IndexField", _N, _N, _B),
	0x87: scoped("BankField", _N, _N, _I, _B),
	0x88: term("DataRegion", _N, _T, _T, _T),
}

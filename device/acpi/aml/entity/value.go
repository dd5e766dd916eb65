package entity

// Type identifies the kind of data held by a Value. The numeric values of the
// first 17 types match the codes returned by the AML ObjectType operator.
type Type uint8

// The list of supported value types.
const (
	TypeUninitialized Type = iota
	TypeInteger
	TypeString
	TypeBuffer
	TypePackage
	TypeFieldUnit
	TypeDevice
	TypeEvent
	TypeMethod
	TypeMutex
	TypeRegion
	TypePowerResource
	TypeProcessor
	TypeThermalZone
	TypeBufferField
	TypeReserved
	TypeDebug
	TypeAlias
	TypeScope
	TypeReference
)

// typeTags contains the text produced when a value of a non-data type is
// converted to a string.
var typeTags = [...]string{
	TypeUninitialized: "[Uninitialized Object]",
	TypeInteger:       "[Integer]",
	TypeString:        "[String]",
	TypeBuffer:        "[Buffer]",
	TypePackage:       "[Package]",
	TypeFieldUnit:     "[Field]",
	TypeDevice:        "[Device]",
	TypeEvent:         "[Event]",
	TypeMethod:        "[Control Method]",
	TypeMutex:         "[Mutex]",
	TypeRegion:        "[Operation Region]",
	TypePowerResource: "[Power Resource]",
	TypeProcessor:     "[Processor]",
	TypeThermalZone:   "[Thermal Zone]",
	TypeBufferField:   "[Buffer Field]",
	TypeReserved:      "[Reserved]",
	TypeDebug:         "[Debug Object]",
	TypeAlias:         "[Alias]",
	TypeScope:         "[Scope]",
	TypeReference:     "[Reference]",
}

// String returns the tag used when values of this type are printed.
func (t Type) String() string {
	if int(t) < len(typeTags) {
		return typeTags[t]
	}
	return "[Unknown]"
}

// Value is implemented by every data type that can be stored in the
// namespace, a Local/Arg slot or a Package element.
type Value interface {
	Type() Type
}

// Uninitialized is the value of empty Local and Arg slots.
type Uninitialized struct{}

// Type implements Value.
func (Uninitialized) Type() Type { return TypeUninitialized }

// Integer is an AML integer. Integers are 32 bits wide when the DSDT
// revision is less than 2 and 64 bits wide otherwise; the interpreter
// truncates results accordingly.
type Integer uint64

// Type implements Value.
func (Integer) Type() Type { return TypeInteger }

// String is an AML string. The trailing null byte of the encoded string is
// not included.
type String string

// Type implements Value.
func (String) Type() Type { return TypeString }

// Buffer is a mutable byte array. Buffers are shared by pointer so that
// buffer fields and Index references can update them in place.
type Buffer struct {
	Data []byte
}

// Type implements Value.
func (*Buffer) Type() Type { return TypeBuffer }

// Package is an ordered list of values. Elements that were encoded as a
// NameString are kept as *NameRef and resolved when accessed.
type Package struct {
	Elements []Value
}

// Type implements Value.
func (*Package) Type() Type { return TypePackage }

// NameRef is a package element that refers to a namespace object by name.
// The name is resolved relative to Scope when the element is used. NameRef
// does not own the object it names.
type NameRef struct {
	Path  string
	Scope *Object
}

// Type implements Value.
func (*NameRef) Type() Type { return TypeReference }

// Device is a namespace object that groups the objects describing a piece
// of hardware.
type Device struct{}

// Type implements Value.
func (*Device) Type() Type { return TypeDevice }

// Scope is the value of namespace nodes created by the interpreter for the
// root and the predefined scopes.
type Scope struct{}

// Type implements Value.
func (*Scope) Type() Type { return TypeScope }

// ThermalZone describes a thermal zone.
type ThermalZone struct{}

// Type implements Value.
func (*ThermalZone) Type() Type { return TypeThermalZone }

// Processor describes a processor declared with the (deprecated) Processor
// operator.
type Processor struct {
	ID        uint8
	BlockAddr uint32
	BlockLen  uint8
}

// Type implements Value.
func (*Processor) Type() Type { return TypeProcessor }

// PowerResource describes a power resource.
type PowerResource struct {
	SystemLevel   uint8
	ResourceOrder uint16
}

// Type implements Value.
func (*PowerResource) Type() Type { return TypePowerResource }

// NativeMethod is a method implemented by the host rather than by AML code.
type NativeMethod func(args []Value) (Value, error)

// Method is a control method. Code references the AML byte stream of the
// method body inside the table that defined it.
type Method struct {
	Code  []byte
	Flags uint8

	// Table is the name of the table that defined the method.
	Table string

	// Native, if set, is invoked instead of interpreting Code.
	Native NativeMethod

	// SerialLock is held while a serialized method executes.
	SerialLock Mutex
}

// Type implements Value.
func (*Method) Type() Type { return TypeMethod }

// ArgCount returns the number of args expected by this method.
func (m *Method) ArgCount() uint8 {
	return m.Flags & 0x7
}

// Serialized returns true if the method is declared as serialized.
func (m *Method) Serialized() bool {
	return (m.Flags>>3)&0x1 == 1
}

// SyncLevel returns the synchronization level of a serialized method.
func (m *Method) SyncLevel() uint8 {
	return m.Flags >> 4
}

// RegionSpace describes the memory space where a region is located.
type RegionSpace uint8

// The list of supported RegionSpace values.
const (
	RegionSpaceSystemMemory RegionSpace = iota
	RegionSpaceSystemIO
	RegionSpacePCIConfig
	RegionSpaceEmbeddedControl
	RegionSpaceSMBus
	RegionSpaceSystemCMOS
	RegionSpacePCIBarTarget
	RegionSpaceIPMI
	RegionSpaceGeneralPurposeIO
	RegionSpaceGenericSerialBus
	RegionSpacePCC

	// RegionSpaceData is used for regions created by DataRegion; their
	// contents live in a host buffer.
	RegionSpaceData RegionSpace = 0xfe
)

// Region describes an operation region: a range of an address space that
// fields read and write through the host.
type Region struct {
	Space  RegionSpace
	Offset uint64
	Length uint64

	// Data holds the contents of RegionSpaceData regions.
	Data []byte
}

// Type implements Value.
func (*Region) Type() Type { return TypeRegion }

// FieldAccessType specifies the access width for a field unit.
type FieldAccessType uint8

// The list of supported FieldAccessType values.
const (
	FieldAccessTypeAny FieldAccessType = iota
	FieldAccessTypeByte
	FieldAccessTypeWord
	FieldAccessTypeDword
	FieldAccessTypeQword
	FieldAccessTypeBuffer
)

// Bytes returns the access width in bytes. FieldAccessTypeAny and
// FieldAccessTypeBuffer use byte accesses.
func (t FieldAccessType) Bytes() uint64 {
	switch t {
	case FieldAccessTypeWord:
		return 2
	case FieldAccessTypeDword:
		return 4
	case FieldAccessTypeQword:
		return 8
	default:
		return 1
	}
}

// FieldLockRule specifies what type of locking is required when accessing a
// field.
type FieldLockRule uint8

// The list of supported FieldLockRule values.
const (
	FieldLockRuleNoLock FieldLockRule = iota
	FieldLockRuleLock
)

// FieldUpdateRule specifies how a field value is updated when a write uses
// a value whose width is smaller than the access width.
type FieldUpdateRule uint8

// The list of supported FieldUpdateRule values.
const (
	FieldUpdateRulePreserve FieldUpdateRule = iota
	FieldUpdateRuleWriteAsOnes
	FieldUpdateRuleWriteAsZeros
)

// FieldFlags holds the access attributes decoded from a field definition.
type FieldFlags struct {
	AccessType   FieldAccessType
	LockRule     FieldLockRule
	UpdateRule   FieldUpdateRule
	AccessAttrib uint8
	AccessLength uint8
}

// DecodeFieldFlags decodes the flags byte that follows the region name in a
// Field, IndexField or BankField definition.
func DecodeFieldFlags(flags uint8) FieldFlags {
	return FieldFlags{
		AccessType: FieldAccessType(flags & 0xf),
		LockRule:   FieldLockRule((flags >> 4) & 0x1),
		UpdateRule: FieldUpdateRule((flags >> 5) & 0x3),
	}
}

// FieldKind distinguishes the three field definition operators.
type FieldKind uint8

// The list of supported FieldKind values.
const (
	FieldKindRegion FieldKind = iota
	FieldKindIndex
	FieldKindBank
)

// FieldUnit is a named bit range inside an operation region. Index fields
// access their data through an Index/Data register pair; bank fields select
// a register bank by writing BankValue to Bank before each access. The
// objects referenced by a FieldUnit are not owned by it.
type FieldUnit struct {
	Kind FieldKind
	FieldFlags

	Region *Object

	// Index fields only.
	Index, Data *Object

	// Bank fields only.
	Bank      *Object
	BankValue uint64

	BitOffset uint64
	BitWidth  uint64
}

// Type implements Value.
func (*FieldUnit) Type() Type { return TypeFieldUnit }

// BufferField is a bit range inside a buffer created by one of the
// CreateXField operators.
type BufferField struct {
	Source    *Buffer
	BitOffset uint64
	BitWidth  uint64
}

// Type implements Value.
func (*BufferField) Type() Type { return TypeBufferField }

// Alias is a second name for an existing object. It does not own Target.
type Alias struct {
	Target *Object
}

// Type implements Value.
func (*Alias) Type() Type { return TypeAlias }

// DebugObject is the AML Debug object. Values stored to it are logged by
// the interpreter.
type DebugObject struct{}

// Type implements Value.
func (DebugObject) Type() Type { return TypeDebug }

// RefKind describes the target of a Reference.
type RefKind uint8

// The list of supported RefKind values.
const (
	// RefObject references a namespace object.
	RefObject RefKind = iota

	// RefSlot references a Local or Arg slot.
	RefSlot

	// RefIndex references an element of a Buffer, String or Package.
	RefIndex
)

// Reference is a non-owning pointer to a namespace object, a Local/Arg
// slot or a single element of a Buffer, String or Package. References are
// produced by RefOf, CondRefOf, Index and by name lookups that resolve to
// objects that cannot be copied by value.
type Reference struct {
	Kind RefKind

	Object *Object
	Slot   *Value

	Source Value
	Index  uint64
}

// Type implements Value.
func (*Reference) Type() Type { return TypeReference }

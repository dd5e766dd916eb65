package aml

import (
	"strings"

	"amlvm/device/acpi/aml/entity"
	"amlvm/device/acpi/aml/opcode"
)

// Field list element prefixes.
const (
	fieldReserved       = 0x00
	fieldAccess         = 0x01
	fieldConnect        = 0x02
	fieldExtendedAccess = 0x03
)

// execFieldOp handles operation regions, field definitions and buffer
// fields.
func execFieldOp(ctx *execContext, op opcode.Opcode, info *opcode.Info) (bool, entity.Value, error) {
	var err error
	switch op {
	case opcode.OpRegion:
		err = vmOpRegion(ctx, op, info)
	case opcode.DataRegion:
		err = vmOpDataRegion(ctx, op, info)
	case opcode.Field, opcode.IndexField, opcode.BankField:
		err = vmOpField(ctx, op, info)
	case opcode.CreateBitField, opcode.CreateByteField, opcode.CreateWordField,
		opcode.CreateDWordField, opcode.CreateQWordField, opcode.CreateField:
		err = vmOpCreateField(ctx, op, info)
	default:
		return false, nil, nil
	}
	return true, nil, err
}

// Args: name, space, offset, length
func vmOpRegion(ctx *execContext, op opcode.Opcode, info *opcode.Info) error {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return err
	}

	region := &entity.Region{
		Space:  entity.RegionSpace(args[1].num),
		Offset: args[2].num,
		Length: args[3].num,
	}
	return ctx.createObject(args[0].str, region)
}

// Args: name, signature, oemID, oemTableID
// Creates a region that maps the contents of an ACPI table.
func vmOpDataRegion(ctx *execContext, op opcode.Opcode, info *opcode.Info) error {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return err
	}

	var ids [3]string
	for i := range ids {
		v, err := ctx.deref(args[i+1].val)
		if err != nil {
			return err
		}
		s, err := ToString(v, ctx.vm.sizeOfIntInBits, true, false)
		if err != nil {
			return err
		}
		ids[i] = string(s)
	}

	if ctx.vm.tableResolver == nil {
		return newError(ErrUnresolvedReference, "vmOpDataRegion: no table resolver available")
	}

	t := ctx.vm.tableResolver.LookupTable(ids[0])
	if t == nil {
		return newError(ErrUnresolvedReference, "vmOpDataRegion: table %q not found", ids[0])
	}

	if (ids[1] != "" && strings.TrimRight(string(t.Header.OEMID[:]), " \x00") != ids[1]) ||
		(ids[2] != "" && strings.TrimRight(string(t.Header.OEMTableID[:]), " \x00") != ids[2]) {
		return newError(ErrUnresolvedReference, "vmOpDataRegion: table %q does not match OEM ids %q/%q", ids[0], ids[1], ids[2])
	}

	region := &entity.Region{
		Space:  entity.RegionSpaceData,
		Length: uint64(len(t.Raw)),
		Data:   append([]byte(nil), t.Raw...),
	}
	return ctx.createObject(args[0].str, region)
}

// Grammar: Field PkgLength NameString FieldFlags FieldList
// Grammar: IndexField PkgLength NameString NameString FieldFlags FieldList
// Grammar: BankField PkgLength NameString NameString BankValue FieldFlags FieldList
// Creates a field unit in the current scope for each named entry of the
// field list.
func vmOpField(ctx *execContext, op opcode.Opcode, info *opcode.Info) error {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return err
	}

	var proto entity.FieldUnit
	switch op {
	case opcode.Field:
		proto.Kind = entity.FieldKindRegion
		if proto.Region, err = ctx.resolveTyped(args[0].str, entity.TypeRegion); err != nil {
			return err
		}
	case opcode.IndexField:
		proto.Kind = entity.FieldKindIndex
		if proto.Index, err = ctx.resolveTyped(args[0].str, entity.TypeFieldUnit); err != nil {
			return err
		}
		if proto.Data, err = ctx.resolveTyped(args[1].str, entity.TypeFieldUnit); err != nil {
			return err
		}
	case opcode.BankField:
		proto.Kind = entity.FieldKindBank
		if proto.Region, err = ctx.resolveTyped(args[0].str, entity.TypeRegion); err != nil {
			return err
		}
		if proto.Bank, err = ctx.resolveTyped(args[1].str, entity.TypeFieldUnit); err != nil {
			return err
		}
		proto.BankValue = args[2].num
	}

	proto.FieldFlags = entity.DecodeFieldFlags(uint8(args[len(args)-1].num))
	return ctx.parseFieldList(&proto)
}

// resolveTyped resolves name from the current scope and checks the type of
// the object it refers to.
func (ctx *execContext) resolveTyped(name string, typ entity.Type) (*entity.Object, error) {
	obj := ctx.vm.ns.Find(ctx.curScope(), name)
	if obj == nil {
		return nil, newError(ErrUnresolvedReference, "vm: unable to resolve %q", name)
	}

	obj = obj.Target()
	if got := typeOf(obj.Value); got != typ {
		return nil, newError(ErrTypeCoercion, "vm: %s is a %s object; expected %s", obj.Path(), got, typ)
	}
	return obj, nil
}

// parseFieldList decodes the FieldList of a field definition and creates a
// field unit for each NamedField entry.
func (ctx *execContext) parseFieldList(proto *entity.FieldUnit) error {
	var (
		bitOffset uint64
		flags     = proto.FieldFlags
	)

	for !ctx.r.EOF() {
		next, _ := ctx.r.ReadByte()

		switch next {
		case fieldReserved: // ReservedField := 0x00 PkgLength
			width, err := ctx.parsePkgLength()
			if err != nil {
				return err
			}
			bitOffset += uint64(width)
		case fieldAccess: // AccessField := 0x01 AccessType AccessAttrib
			data, err := ctx.r.ReadBytes(2)
			if err != nil {
				return errTruncatedStream
			}
			flags.AccessType = entity.FieldAccessType(data[0] & 0xf)
			flags.AccessAttrib = data[1]
			flags.AccessLength = 0
		case fieldExtendedAccess: // ExtendedAccessField := 0x03 AccessType ExtendedAccessAttrib AccessLength
			data, err := ctx.r.ReadBytes(3)
			if err != nil {
				return errTruncatedStream
			}
			flags.AccessType = entity.FieldAccessType(data[0] & 0xf)
			flags.AccessAttrib = data[1]
			flags.AccessLength = data[2]
		case fieldConnect: // ConnectField := 0x02 NameString | 0x02 BufferData
			if peek, _ := ctx.r.PeekByte(); opcode.Opcode(peek) == opcode.Buffer {
				if _, err := ctx.evalTermArg(); err != nil {
					return err
				}
			} else if _, err := ctx.parseNameString(); err != nil {
				return err
			}
		default: // NamedField := NameSeg PkgLength
			_ = ctx.r.UnreadByte()
			seg, err := ctx.r.ReadBytes(4)
			if err != nil {
				return errTruncatedStream
			}

			width, err := ctx.parsePkgLength()
			if err != nil {
				return err
			}

			unit := *proto
			unit.FieldFlags = flags
			unit.BitOffset = bitOffset
			unit.BitWidth = uint64(width)
			if err = ctx.createObject(string(seg), &unit); err != nil {
				return err
			}
			bitOffset += uint64(width)
		}
	}

	return nil
}

// Args: source, index, [numBits,] name
// Creates a buffer field over the bits of source. The Create{Bit,Byte,
// Word,DWord,QWord}Field opcodes take a bit index for CreateBitField and a
// byte index for the rest.
func vmOpCreateField(ctx *execContext, op opcode.Opcode, info *opcode.Info) error {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return err
	}

	buf := args[0].val.(*entity.Buffer)
	index := args[1].num

	var bitOffset, bitWidth uint64
	switch op {
	case opcode.CreateBitField:
		bitOffset, bitWidth = index, 1
	case opcode.CreateByteField:
		bitOffset, bitWidth = index*8, 8
	case opcode.CreateWordField:
		bitOffset, bitWidth = index*8, 16
	case opcode.CreateDWordField:
		bitOffset, bitWidth = index*8, 32
	case opcode.CreateQWordField:
		bitOffset, bitWidth = index*8, 64
	case opcode.CreateField:
		bitOffset, bitWidth = index, args[2].num
	}

	if bitWidth == 0 || bitOffset+bitWidth > uint64(len(buf.Data))*8 || bitOffset+bitWidth < bitOffset {
		return newError(ErrInvalidOperation, "vm: buffer field [%d:%d] exceeds the source buffer size (%d bytes)",
			bitOffset, bitOffset+bitWidth, len(buf.Data))
	}

	field := &entity.BufferField{Source: buf, BitOffset: bitOffset, BitWidth: bitWidth}
	return ctx.createObject(args[len(args)-1].str, field)
}

package aml

import (
	"amlvm/device/acpi/aml/entity"
	"amlvm/device/acpi/aml/opcode"
)

// maxBufferSize bounds the size of buffers allocated by the Buffer opcode.
const maxBufferSize = 16 << 20

// execDataOp handles constants, literals and the Buffer/Package data
// objects.
func execDataOp(ctx *execContext, op opcode.Opcode, info *opcode.Info) (bool, entity.Value, error) {
	switch op {
	case opcode.Zero:
		return true, entity.Integer(0), nil
	case opcode.One:
		return true, entity.Integer(1), nil
	case opcode.Ones:
		return true, ctx.vm.ones(), nil
	case opcode.Revision:
		return true, entity.Integer(interpreterRevision), nil
	case opcode.Timer:
		return true, entity.Integer(ctx.vm.host.Timer()), nil
	case opcode.Debug:
		return true, entity.DebugObject{}, nil
	case opcode.BytePrefix, opcode.WordPrefix, opcode.DwordPrefix, opcode.QwordPrefix:
		args, err := ctx.readArgs(op, info)
		if err != nil {
			return true, nil, err
		}
		return true, entity.Integer(args[0].num), nil
	case opcode.StringPrefix:
		args, err := ctx.readArgs(op, info)
		if err != nil {
			return true, nil, err
		}
		return true, entity.String(args[0].str), nil
	case opcode.Buffer:
		v, err := vmOpBuffer(ctx, op, info)
		return true, v, err
	case opcode.Package, opcode.VarPackage:
		v, err := vmOpPackage(ctx, op, info)
		return true, v, err
	default:
		return false, nil, nil
	}
}

// Grammar: Buffer PkgLength BufferSize ByteList
// Returns: a buffer of BufferSize bytes initialized with ByteList. If the
// list is shorter than BufferSize the remaining bytes are zero.
func vmOpBuffer(ctx *execContext, op opcode.Opcode, info *opcode.Info) (entity.Value, error) {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return nil, err
	}

	size := args[0].num
	if size > maxBufferSize {
		return nil, newError(ErrResourceExhaustion, "vmOpBuffer: buffer size %d exceeds the allocation limit", size)
	}

	initializer, _ := ctx.r.ReadBytes(ctx.r.Remaining())
	if uint64(len(initializer)) > size {
		size = uint64(len(initializer))
	}

	data := make([]byte, size)
	copy(data, initializer)
	return &entity.Buffer{Data: data}, nil
}

// Grammar: Package PkgLength NumElements PackageElementList
// Grammar: VarPackage PkgLength VarNumElements PackageElementList
// Returns: a package with NumElements entries. Elements that are names are
// stored as unresolved NameRef values; missing elements are uninitialized.
func vmOpPackage(ctx *execContext, op opcode.Opcode, info *opcode.Info) (entity.Value, error) {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return nil, err
	}

	numElements := args[0].num
	if numElements > maxBufferSize {
		return nil, newError(ErrResourceExhaustion, "vmOpPackage: package size %d exceeds the allocation limit", numElements)
	}

	var elems []entity.Value
	for !ctx.r.EOF() {
		next, _ := ctx.r.PeekByte()

		var elem entity.Value
		if opcode.IsNameLead(next) {
			path, err := ctx.parseNameString()
			if err != nil {
				return nil, err
			}
			elem = &entity.NameRef{Path: path, Scope: ctx.curScope()}
		} else if elem, err = ctx.evalTermArg(); err != nil {
			return nil, err
		}

		elems = append(elems, entity.Copy(elem))
	}

	if uint64(len(elems)) > numElements {
		elems = elems[:numElements]
	}

	pkg := &entity.Package{Elements: make([]entity.Value, numElements)}
	for i := range pkg.Elements {
		if i < len(elems) {
			pkg.Elements[i] = elems[i]
		} else {
			pkg.Elements[i] = entity.Uninitialized{}
		}
	}
	return pkg, nil
}

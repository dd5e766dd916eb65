package aml

import (
	"amlvm/device/acpi/aml/entity"
	"amlvm/device/acpi/aml/opcode"
)

// execNamedObjOp handles the opcodes that create methods, devices and
// synchronization objects.
func execNamedObjOp(ctx *execContext, op opcode.Opcode, info *opcode.Info) (bool, entity.Value, error) {
	var err error
	switch op {
	case opcode.Method:
		err = vmOpMethod(ctx, op, info)
	case opcode.Device, opcode.Processor, opcode.PowerRes, opcode.ThermalZone:
		err = vmOpScopedObject(ctx, op, info)
	case opcode.Mutex, opcode.Event:
		err = vmOpSyncObject(ctx, op, info)
	default:
		return false, nil, nil
	}
	return true, nil, err
}

// createObject adds an object named by path to the current scope.
func (ctx *execContext) createObject(path string, v entity.Value) error {
	_, err := ctx.createScopedObject(path, v)
	return err
}

func (ctx *execContext) createScopedObject(path string, v entity.Value) (*entity.Object, error) {
	obj, err := ctx.vm.ns.Create(ctx.curScope(), path, v)
	switch err {
	case nil:
		return obj, nil
	case entity.ErrObjectExists:
		return nil, newError(ErrInvalidOperation, "%s: %s", errObjectExists.message, path)
	case entity.ErrParentNotFound:
		return nil, newError(ErrUnresolvedReference, "vm: unable to resolve the parent scope of %q", path)
	default:
		return nil, newError(ErrMalformedStream, "vm: invalid object name %q", path)
	}
}

// Grammar: Method PkgLength NameString MethodFlags TermList
// The method body is not executed; the method object keeps a reference to
// its byte-code.
func vmOpMethod(ctx *execContext, op opcode.Opcode, info *opcode.Info) error {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return err
	}

	method := &entity.Method{
		Code:  ctx.r.data[ctx.r.Offset():ctx.r.Limit()],
		Flags: uint8(args[1].num),
		Table: ctx.table,
	}
	return ctx.createObject(args[0].str, method)
}

// Grammar: Device PkgLength NameString TermList
// Grammar: Processor PkgLength NameString ProcID PblkAddr PblkLen TermList
// Grammar: PowerRes PkgLength NameString SystemLevel ResourceOrder TermList
// Grammar: ThermalZone PkgLength NameString TermList
// Creates the object and executes its body with the object as the current
// scope.
func vmOpScopedObject(ctx *execContext, op opcode.Opcode, info *opcode.Info) error {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return err
	}

	var v entity.Value
	switch op {
	case opcode.Device:
		v = &entity.Device{}
	case opcode.Processor:
		v = &entity.Processor{
			ID:        uint8(args[1].num),
			BlockAddr: uint32(args[2].num),
			BlockLen:  uint8(args[3].num),
		}
	case opcode.PowerRes:
		v = &entity.PowerResource{
			SystemLevel:   uint8(args[1].num),
			ResourceOrder: uint16(args[2].num),
		}
	default:
		v = &entity.ThermalZone{}
	}

	obj, err := ctx.createScopedObject(args[0].str, v)
	if err != nil {
		return err
	}

	ctx.setScope(obj)
	return ctx.execTermList()
}

// Args: name, syncFlags (Mutex only)
func vmOpSyncObject(ctx *execContext, op opcode.Opcode, info *opcode.Info) error {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return err
	}

	if op == opcode.Event {
		return ctx.createObject(args[0].str, &entity.Event{})
	}
	return ctx.createObject(args[0].str, &entity.Mutex{SyncLevel: uint8(args[1].num) & 0xf})
}

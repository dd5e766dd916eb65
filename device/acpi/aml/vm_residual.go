package aml

import (
	"amlvm/device/acpi/aml/entity"
	"amlvm/device/acpi/aml/opcode"
)

// execResidualOp is consulted last. It resolves locals, args, SizeOf and
// name references; any other opcode is reported as unimplemented.
func execResidualOp(ctx *execContext, op opcode.Opcode, info *opcode.Info) (bool, entity.Value, error) {
	switch {
	case op.IsLocal():
		return true, slotValue(ctx.localArg[op-opcode.Local0]), nil
	case op.IsArg():
		return true, slotValue(ctx.methodArg[op-opcode.Arg0]), nil
	case op == opcode.SizeOf:
		val, err := vmOpSizeOf(ctx, op, info)
		return true, val, err
	case op.IsExtended() || !opcode.IsNameLead(byte(op)):
		return true, nil, errUnimplemented(op, ctx.r.Remaining())
	}

	_ = ctx.r.UnreadByte()
	val, err := ctx.evalName()
	return true, val, err
}

// Args: object
// Returns: the number of bytes of a Buffer, characters of a String or
// elements of a Package.
func vmOpSizeOf(ctx *execContext, op opcode.Opcode, info *opcode.Info) (entity.Value, error) {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return nil, err
	}

	val, err := ctx.loadTarget(args[0].tgt)
	if err == nil {
		val, err = ctx.deref(val)
	}
	if err != nil {
		return nil, err
	}

	switch v := val.(type) {
	case *entity.Buffer:
		return entity.Integer(len(v.Data)), nil
	case entity.String:
		return entity.Integer(len(v)), nil
	case *entity.Package:
		return entity.Integer(len(v.Elements)), nil
	default:
		return nil, newError(ErrTypeCoercion, "vm: SizeOf operand must be a Buffer, String or Package; got %s", typeOf(val))
	}
}

// evalName resolves a NameString in term position. Methods are invoked with
// as many TermArgs as they declare; other objects evaluate to their value.
func (ctx *execContext) evalName() (entity.Value, error) {
	name, err := ctx.parseNameString()
	if err != nil {
		return nil, err
	}

	obj := ctx.vm.ns.Find(ctx.curScope(), name)
	if obj == nil {
		return nil, newError(ErrUnresolvedReference, "vm: unable to resolve %q", name)
	}
	obj = obj.Target()

	method, ok := obj.Value.(*entity.Method)
	if !ok {
		return ctx.readObject(obj)
	}

	args := make([]entity.Value, method.ArgCount())
	for i := range args {
		if args[i], err = ctx.evalTermArg(); err != nil {
			return nil, err
		}
	}

	return ctx.invoke(obj, args)
}

// invoke executes a method in a fresh execution context. Objects created
// by the method body are removed from the namespace when it returns.
func (ctx *execContext) invoke(obj *entity.Object, args []entity.Value) (entity.Value, error) {
	method := obj.Value.(*entity.Method)

	if ctx.vm.callDepth >= ctx.vm.cfg.MaxCallDepth {
		return nil, errCallDepthExceeded
	}
	ctx.vm.callDepth++
	defer func() { ctx.vm.callDepth-- }()

	if method.Native != nil {
		ret, err := method.Native(args)
		if err != nil {
			return nil, asError(err)
		}
		if ret == nil {
			ret = entity.Uninitialized{}
		}
		return ret, nil
	}

	if method.Serialized() {
		if !method.SerialLock.Acquire(ctx.goCtx, ctx.vm) {
			return nil, newError(ErrResourceExhaustion, "vm: timed out waiting for serialized method %s", obj.Path())
		}
		defer func() { _ = method.SerialLock.Release(ctx.vm) }()
	}

	callCtx := &execContext{
		method: obj,
		table:  method.Table,
		vm:     ctx.vm,
		goCtx:  ctx.goCtx,
	}
	if err := callCtx.r.Init(method.Code, 0); err != nil {
		return nil, asError(err)
	}
	callCtx.scopes = []scope{{obj: obj, prevLimit: callCtx.r.Limit()}}

	for i := range callCtx.localArg {
		callCtx.localArg[i] = entity.Uninitialized{}
	}
	for i := range callCtx.methodArg {
		if i < len(args) {
			callCtx.methodArg[i] = entity.Copy(args[i])
		} else {
			callCtx.methodArg[i] = entity.Uninitialized{}
		}
	}

	mark := ctx.vm.ns.Mark()
	err := callCtx.execTermList()
	ctx.vm.ns.Rollback(mark)

	if err != nil {
		amlErr := asError(err)
		fillFrames(amlErr, method.Table, obj.Path())
		return nil, amlErr
	}

	if callCtx.retVal == nil {
		return entity.Uninitialized{}, nil
	}
	return entity.Copy(callCtx.retVal), nil
}

package aml

import (
	"amlvm/device/acpi/aml/entity"
	"amlvm/device/acpi/aml/opcode"
)

// execStmtOp handles control flow, synchronization, reference and
// miscellaneous statements.
func execStmtOp(ctx *execContext, op opcode.Opcode, info *opcode.Info) (bool, entity.Value, error) {
	var (
		val entity.Value
		err error
	)

	switch op {
	case opcode.If:
		err = vmOpIf(ctx, op, info)
	case opcode.Else:
		err = vmOpElse(ctx)
	case opcode.While:
		err = vmOpWhile(ctx, op, info)
	case opcode.Break:
		err = vmOpBreak(ctx)
	case opcode.Continue:
		err = vmOpContinue(ctx)
	case opcode.Return:
		err = vmOpReturn(ctx, op, info)
	case opcode.Noop, opcode.BreakPoint:
	case opcode.Fatal:
		err = vmOpFatal(ctx, op, info)
	case opcode.Notify:
		err = vmOpNotify(ctx, op, info)
	case opcode.Sleep, opcode.Stall:
		err = vmOpSleep(ctx, op, info)
	case opcode.Acquire, opcode.Release:
		val, err = vmOpMutex(ctx, op, info)
	case opcode.Signal, opcode.Reset, opcode.Wait:
		val, err = vmOpEvent(ctx, op, info)
	case opcode.Store, opcode.CopyObject:
		val, err = vmOpStore(ctx, op, info)
	case opcode.RefOf:
		val, err = vmOpRefOf(ctx, op, info)
	case opcode.CondRefOf:
		val, err = vmOpCondRefOf(ctx, op, info)
	case opcode.DerefOf:
		val, err = vmOpDerefOf(ctx, op, info)
	case opcode.Index:
		val, err = vmOpIndex(ctx, op, info)
	case opcode.Match:
		val, err = vmOpMatch(ctx, op, info)
	case opcode.ObjectType:
		val, err = vmOpObjectType(ctx, op, info)
	case opcode.Load, opcode.LoadTable, opcode.Unload:
		err = errLoadUnsupported
	default:
		return false, nil, nil
	}

	return true, val, err
}

// Args: value
// Sets the method return value and unwinds to the method boundary. The
// value is returned as evaluated; references are not dereferenced.
func vmOpReturn(ctx *execContext, op opcode.Opcode, info *opcode.Info) error {
	if ctx.method == nil {
		return errReturnOutsideMethod
	}

	args, err := ctx.readArgs(op, info)
	if err != nil {
		return err
	}

	ctx.retVal = args[0].val
	ctx.ctrlFlow = ctrlFlowTypeFnReturn
	return nil
}

func vmOpBreak(ctx *execContext) error {
	if ctx.loopDepth == 0 {
		return errBreakOutsideWhile
	}
	ctx.ctrlFlow = ctrlFlowTypeBreak
	return nil
}

func vmOpContinue(ctx *execContext) error {
	if ctx.loopDepth == 0 {
		return errBreakOutsideWhile
	}
	ctx.ctrlFlow = ctrlFlowTypeContinue
	return nil
}

// Grammar: While PkgLength Predicate TermList
// The predicate is re-evaluated before each iteration.
func vmOpWhile(ctx *execContext, op opcode.Opcode, info *opcode.Info) error {
	predOffset := ctx.r.Offset()

	ctx.loopDepth++
	defer func() { ctx.loopDepth-- }()

	for iteration := uint64(0); ; iteration++ {
		if limit := ctx.vm.cfg.MaxLoopIterations; limit != 0 && iteration >= limit {
			return errLoopLimitExceeded
		}

		if err := ctx.r.SetOffset(predOffset); err != nil {
			return err
		}

		args, err := ctx.readArgs(op, info)
		if err != nil {
			return err
		}
		if args[0].num == 0 {
			return nil
		}

		if err = ctx.execTermList(); err != nil {
			return err
		}

		switch ctx.ctrlFlow {
		case ctrlFlowTypeBreak:
			ctx.ctrlFlow = ctrlFlowTypeNextOpcode
			return nil
		case ctrlFlowTypeContinue:
			ctx.ctrlFlow = ctrlFlowTypeNextOpcode
		case ctrlFlowTypeFnReturn:
			return nil
		}
	}
}

// Grammar: If PkgLength Predicate TermList
// The outcome is recorded so that an Else immediately following the block
// can select its branch.
func vmOpIf(ctx *execContext, op opcode.Opcode, info *opcode.Info) error {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return err
	}

	if args[0].num == 0 {
		ctx.lastIf = ifSkipped
		return nil
	}

	if err = ctx.execTermList(); err != nil {
		return err
	}
	ctx.lastIf = ifTaken
	return nil
}

// Grammar: Else PkgLength TermList
// The body runs only when the preceding If was not taken; otherwise it is
// skipped using its PkgLength.
func vmOpElse(ctx *execContext) error {
	switch ctx.precedingIf {
	case ifSkipped:
		return ctx.execTermList()
	case ifTaken:
		return nil
	default:
		return errOrphanElse
	}
}

// Args: type, code, arg
func vmOpFatal(ctx *execContext, op opcode.Opcode, info *opcode.Info) error {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return err
	}

	typ, code, arg := uint8(args[0].num), uint32(args[1].num), args[2].num
	ctx.vm.host.Fatal(typ, code, arg)
	return newError(ErrFatal, "vm: Fatal(type: 0x%x, code: 0x%x, arg: 0x%x)", typ, code, arg)
}

// Args: object, value
func vmOpNotify(ctx *execContext, op opcode.Opcode, info *opcode.Info) error {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return err
	}

	obj, err := ctx.targetObject(args[0].tgt)
	if err != nil {
		return err
	}

	switch obj.Value.(type) {
	case *entity.Device, *entity.Processor, *entity.ThermalZone, *entity.PowerResource:
	default:
		return newError(ErrTypeCoercion, "vm: Notify target %s is a %s object", obj.Path(), typeOf(obj.Value))
	}

	ctx.vm.host.Notify(obj, args[1].num)
	return nil
}

// Args: duration (milliseconds for Sleep, microseconds for Stall)
func vmOpSleep(ctx *execContext, op opcode.Opcode, info *opcode.Info) error {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return err
	}

	if op == opcode.Sleep {
		ctx.vm.host.Sleep(args[0].num)
	} else {
		ctx.vm.host.Stall(args[0].num)
	}
	return nil
}

// targetObject returns the namespace object a target refers to.
func (ctx *execContext) targetObject(t *target) (*entity.Object, error) {
	switch t.kind {
	case targetObject:
		return t.obj, nil
	case targetRef:
		if t.ref.Kind == entity.RefObject {
			return t.ref.Object.Target(), nil
		}
	case targetLocal, targetArg:
		v, _ := ctx.loadTarget(t)
		if ref, ok := v.(*entity.Reference); ok && ref.Kind == entity.RefObject {
			return ref.Object.Target(), nil
		}
	}
	return nil, errNotAReference
}

package aml

import (
	"amlvm/device/acpi/aml/entity"
	"amlvm/device/acpi/aml/opcode"
)

// Args: value, target
// Returns: value
// Stores: target <= value (converted for Store, as is for CopyObject)
func vmOpStore(ctx *execContext, op opcode.Opcode, info *opcode.Info) (entity.Value, error) {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return nil, err
	}

	val := args[0].val
	if op == opcode.CopyObject {
		return val, ctx.copyTarget(args[1].tgt, val)
	}
	return val, ctx.storeTarget(args[1].tgt, val)
}

// Args: object
// Returns: a reference to object
func vmOpRefOf(ctx *execContext, op opcode.Opcode, info *opcode.Info) (entity.Value, error) {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return nil, err
	}

	ref, err := ctx.refOf(args[0].tgt)
	if err != nil {
		return nil, err
	}
	return ref, nil
}

// Args: object, target
// Returns: Ones if object exists; Zero otherwise
// Stores: target <= RefOf(object) if object exists
func vmOpCondRefOf(ctx *execContext, op opcode.Opcode, info *opcode.Info) (entity.Value, error) {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return nil, err
	}

	src := args[0].tgt
	if src.kind == targetNull {
		return entity.Integer(0), nil
	}

	ref, err := ctx.refOf(src)
	if err != nil {
		return nil, err
	}

	if err = ctx.storeTarget(args[1].tgt, ref); err != nil {
		return nil, err
	}
	return ctx.vm.ones(), nil
}

// Args: reference
// Returns: the value pointed to by reference. A String operand is treated
// as the path of a namespace object.
func vmOpDerefOf(ctx *execContext, op opcode.Opcode, info *opcode.Info) (entity.Value, error) {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return nil, err
	}

	val, err := ctx.loadTarget(args[0].tgt)
	if err != nil {
		return nil, err
	}

	switch v := val.(type) {
	case *entity.Reference:
		return ctx.deref(v)
	case entity.String:
		obj := ctx.vm.ns.Find(ctx.curScope(), entity.NormalizePath(string(v)))
		if obj == nil {
			return nil, newError(ErrUnresolvedReference, "vm: unable to resolve %q", string(v))
		}
		return ctx.readObject(obj)
	default:
		return nil, errNotAReference
	}
}

// Args: source, index, target
// Returns: a reference to element index of source
func vmOpIndex(ctx *execContext, op opcode.Opcode, info *opcode.Info) (entity.Value, error) {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return nil, err
	}

	src, err := ctx.deref(args[0].val)
	if err != nil {
		return nil, err
	}

	var length int
	switch s := src.(type) {
	case *entity.Buffer:
		length = len(s.Data)
	case entity.String:
		length = len(s)
	case *entity.Package:
		length = len(s.Elements)
	default:
		return nil, newError(ErrTypeCoercion, "vm: Index source must be a Buffer, String or Package; got %s", typeOf(src))
	}

	if args[1].num >= uint64(length) {
		return nil, errIndexOutOfBounds
	}

	ref := &entity.Reference{Kind: entity.RefIndex, Source: src, Index: args[1].num}
	return ref, ctx.storeTarget(args[2].tgt, ref)
}

// Match operators
const (
	matchTrue = iota
	matchEqual
	matchLessEqual
	matchLess
	matchGreaterEqual
	matchGreater
)

// Args: package, op1, operand1, op2, operand2, startIndex
// Returns: the index of the first element at or after startIndex that
// satisfies both comparisons or Ones if there is no such element.
func vmOpMatch(ctx *execContext, op opcode.Opcode, info *opcode.Info) (entity.Value, error) {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return nil, err
	}

	var (
		pkg  = args[0].val.(*entity.Package)
		ops  = [2]uint64{args[1].num, args[3].num}
		vals = [2]entity.Value{args[2].val, args[4].val}
	)

	for _, matchOp := range ops {
		if matchOp > matchGreater {
			return nil, newError(ErrInvalidOperation, "vm: invalid Match operator %d", matchOp)
		}
	}

	for i := args[5].num; i < uint64(len(pkg.Elements)); i++ {
		elem := slotValue(pkg.Elements[i])
		switch elem.(type) {
		case entity.Integer, entity.String, *entity.Buffer:
		default:
			continue
		}

		matched := true
		for j := range ops {
			if !matchElement(elem, ops[j], vals[j], ctx.vm.sizeOfIntInBits) {
				matched = false
				break
			}
		}

		if matched {
			return entity.Integer(i), nil
		}
	}

	return ctx.vm.ones(), nil
}

// matchElement applies a Match operator to a package element. Elements that
// cannot be compared with the operand never match.
func matchElement(elem entity.Value, matchOp uint64, operand entity.Value, width uint8) bool {
	if matchOp == matchTrue {
		return true
	}

	cmp, err := vmCompare(elem, operand, width)
	if err != nil {
		return false
	}

	switch matchOp {
	case matchEqual:
		return cmp == 0
	case matchLessEqual:
		return cmp <= 0
	case matchLess:
		return cmp < 0
	case matchGreaterEqual:
		return cmp >= 0
	default:
		return cmp > 0
	}
}

// Args: object
// Returns: the ObjectType code of object
func vmOpObjectType(ctx *execContext, op opcode.Opcode, info *opcode.Info) (entity.Value, error) {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return nil, err
	}

	var typ entity.Type
	switch t := args[0].tgt; t.kind {
	case targetNull:
		typ = entity.TypeUninitialized
	case targetDebug:
		typ = entity.TypeDebug
	case targetObject:
		typ = typeOf(t.obj.Value)
	default:
		val, err := ctx.loadTarget(t)
		if err != nil {
			return nil, err
		}
		typ = typeOf(val)
		if ref, ok := val.(*entity.Reference); ok {
			if ref.Kind == entity.RefObject {
				typ = typeOf(ref.Object.Target().Value)
			} else if val, err = ctx.deref(ref); err == nil {
				typ = typeOf(val)
			}
		}
	}

	if typ > entity.TypeDebug {
		typ = entity.TypeUninitialized
	}
	return entity.Integer(typ), nil
}

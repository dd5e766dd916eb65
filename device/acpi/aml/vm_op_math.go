package aml

import (
	"bytes"
	"math/bits"

	"amlvm/device/acpi/aml/entity"
	"amlvm/device/acpi/aml/opcode"
)

// execMathOp handles the integer arithmetic and logic opcodes.
func execMathOp(ctx *execContext, op opcode.Opcode, info *opcode.Info) (bool, entity.Value, error) {
	var fn func(*execContext, []operand) (entity.Value, error)
	switch op {
	case opcode.Add, opcode.Subtract, opcode.Multiply, opcode.ShiftLeft, opcode.ShiftRight,
		opcode.And, opcode.Nand, opcode.Or, opcode.Nor, opcode.Xor:
		fn = vmOpBinary(op)
	case opcode.Not:
		fn = vmOpNot
	case opcode.FindSetLeftBit:
		fn = vmOpFindSetLeftBit
	case opcode.FindSetRightBit:
		fn = vmOpFindSetRightBit
	case opcode.Mod:
		fn = vmOpMod
	case opcode.Divide:
		v, err := vmOpDivide(ctx, op, info)
		return true, v, err
	case opcode.Increment, opcode.Decrement:
		v, err := vmOpIncDec(ctx, op, info)
		return true, v, err
	case opcode.Land, opcode.Lor, opcode.Lnot, opcode.LEqual, opcode.LGreater, opcode.LLess:
		v, err := vmOpLogic(ctx, op, info)
		return true, v, err
	default:
		return false, nil, nil
	}

	args, err := ctx.readArgs(op, info)
	if err != nil {
		return true, nil, err
	}

	res, err := fn(ctx, args)
	if err != nil {
		return true, nil, err
	}

	return true, res, ctx.storeTarget(args[len(args)-1].tgt, res)
}

// Args: left, right, store?
// Returns: the result of the binary operator applied to left and right,
// truncated to the integer width.
func vmOpBinary(op opcode.Opcode) func(*execContext, []operand) (entity.Value, error) {
	return func(ctx *execContext, args []operand) (entity.Value, error) {
		left, right := args[0].num, args[1].num

		var res uint64
		switch op {
		case opcode.Add:
			res = left + right
		case opcode.Subtract:
			res = left - right
		case opcode.Multiply:
			res = left * right
		case opcode.ShiftLeft:
			if right < uint64(ctx.vm.sizeOfIntInBits) {
				res = left << right
			}
		case opcode.ShiftRight:
			if right < uint64(ctx.vm.sizeOfIntInBits) {
				res = left >> right
			}
		case opcode.And:
			res = left & right
		case opcode.Nand:
			res = ^(left & right)
		case opcode.Or:
			res = left | right
		case opcode.Nor:
			res = ^(left | right)
		case opcode.Xor:
			res = left ^ right
		}

		return ctx.vm.truncate(res), nil
	}
}

// Args: operand, store?
// Returns: ^operand
func vmOpNot(ctx *execContext, args []operand) (entity.Value, error) {
	return ctx.vm.truncate(^args[0].num), nil
}

// Args: operand, store?
// Returns: the 1-based index of the most significant set bit or 0 if no bit
// is set.
func vmOpFindSetLeftBit(ctx *execContext, args []operand) (entity.Value, error) {
	return entity.Integer(bits.Len64(args[0].num)), nil
}

// Args: operand, store?
// Returns: the 1-based index of the least significant set bit or 0 if no
// bit is set.
func vmOpFindSetRightBit(ctx *execContext, args []operand) (entity.Value, error) {
	if args[0].num == 0 {
		return entity.Integer(0), nil
	}
	return entity.Integer(bits.TrailingZeros64(args[0].num) + 1), nil
}

// Args: left, right, remainder_store?
// Returns: left % right; errDivideByZero if right == 0
func vmOpMod(ctx *execContext, args []operand) (entity.Value, error) {
	if args[1].num == 0 {
		return nil, errDivideByZero
	}
	return entity.Integer(args[0].num % args[1].num), nil
}

// Args: left, right, remainder_store?, quotient_store?
// Returns: left / right; errDivideByZero if right == 0
func vmOpDivide(ctx *execContext, op opcode.Opcode, info *opcode.Info) (entity.Value, error) {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return nil, err
	}

	left, right := args[0].num, args[1].num
	if right == 0 {
		return nil, errDivideByZero
	}

	quotient := entity.Integer(left / right)
	if err = ctx.storeTarget(args[3].tgt, quotient); err != nil {
		return nil, err
	}

	// Divide can also specify a target for storing the remainder
	return quotient, ctx.storeTarget(args[2].tgt, entity.Integer(left%right))
}

// Args: operand
// Returns: operand + 1 (or - 1 for Decrement)
// Stores: operand <= result
func vmOpIncDec(ctx *execContext, op opcode.Opcode, info *opcode.Info) (entity.Value, error) {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return nil, err
	}

	cur, err := ctx.loadTarget(args[0].tgt)
	if err != nil {
		return nil, err
	}
	if cur, err = ctx.deref(cur); err != nil {
		return nil, err
	}

	n, err := ToInteger(cur, ctx.vm.sizeOfIntInBits)
	if err != nil {
		return nil, err
	}

	res := ctx.vm.truncate(uint64(n) + 1)
	if op == opcode.Decrement {
		res = ctx.vm.truncate(uint64(n) - 1)
	}

	// The result is stored back into the operand
	return res, ctx.storeTarget(args[0].tgt, res)
}

// Args: left, right (only left for Lnot)
// Returns: Ones if the comparison holds; Zero otherwise. LEqual, LGreater
// and LLess compare Strings and Buffers lexicographically after converting
// right to the type of left.
func vmOpLogic(ctx *execContext, op opcode.Opcode, info *opcode.Info) (entity.Value, error) {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return nil, err
	}

	vals := make([]entity.Value, len(args))
	for i := range args {
		if vals[i], err = ctx.deref(args[i].val); err != nil {
			return nil, err
		}
	}

	var res bool
	switch op {
	case opcode.Lnot:
		n, err := ToInteger(vals[0], ctx.vm.sizeOfIntInBits)
		if err != nil {
			return nil, err
		}
		res = n == 0
	case opcode.Land, opcode.Lor:
		var ints [2]entity.Integer
		for i := range ints {
			if ints[i], err = ToInteger(vals[i], ctx.vm.sizeOfIntInBits); err != nil {
				return nil, err
			}
		}
		if op == opcode.Land {
			res = ints[0] != 0 && ints[1] != 0
		} else {
			res = ints[0] != 0 || ints[1] != 0
		}
	default:
		cmp, err := vmCompare(vals[0], vals[1], ctx.vm.sizeOfIntInBits)
		if err != nil {
			return nil, err
		}
		switch op {
		case opcode.LEqual:
			res = cmp == 0
		case opcode.LGreater:
			res = cmp > 0
		case opcode.LLess:
			res = cmp < 0
		}
	}

	if res {
		return ctx.vm.ones(), nil
	}
	return entity.Integer(0), nil
}

// vmCompare compares left and right after converting right to the type of
// left and returns -1, 0 or 1.
func vmCompare(left, right entity.Value, width uint8) (int, error) {
	switch l := left.(type) {
	case entity.Integer:
		r, err := ToInteger(right, width)
		if err != nil {
			return 0, err
		}
		switch {
		case l < r:
			return -1, nil
		case l > r:
			return 1, nil
		}
		return 0, nil
	case entity.String:
		r, err := ToString(right, width, true, false)
		if err != nil {
			return 0, err
		}
		return bytes.Compare([]byte(l), []byte(r)), nil
	case *entity.Buffer:
		r, err := ToBuffer(right, width)
		if err != nil {
			return 0, err
		}
		return bytes.Compare(l.Data, r.Data), nil
	default:
		return 0, errInvalidComparison
	}
}

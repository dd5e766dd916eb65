package aml

import (
	"amlvm/device/acpi/aml/entity"
	"amlvm/device/acpi/aml/opcode"
)

// execConvOp handles the explicit data conversion opcodes.
func execConvOp(ctx *execContext, op opcode.Opcode, info *opcode.Info) (bool, entity.Value, error) {
	var fn func(*execContext, []operand) (entity.Value, error)
	switch op {
	case opcode.ToBuffer:
		fn = vmOpToBuffer
	case opcode.ToDecimalString:
		fn = vmOpToDecimalString
	case opcode.ToHexString:
		fn = vmOpToHexString
	case opcode.ToInteger:
		fn = vmOpToInteger
	case opcode.ToString:
		fn = vmOpToString
	case opcode.FromBCD:
		fn = vmOpFromBCD
	case opcode.ToBCD:
		fn = vmOpToBCD
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

// Args: data, target
func vmOpToBuffer(ctx *execContext, args []operand) (entity.Value, error) {
	v, err := ctx.deref(args[0].val)
	if err != nil {
		return nil, err
	}

	buf, err := ToBuffer(v, ctx.vm.sizeOfIntInBits)
	if err != nil {
		return nil, err
	}
	return entity.Copy(buf), nil
}

// Args: data, target
func vmOpToDecimalString(ctx *execContext, args []operand) (entity.Value, error) {
	v, err := ctx.deref(args[0].val)
	if err != nil {
		return nil, err
	}
	return ToString(v, ctx.vm.sizeOfIntInBits, false, true)
}

// Args: data, target
func vmOpToHexString(ctx *execContext, args []operand) (entity.Value, error) {
	v, err := ctx.deref(args[0].val)
	if err != nil {
		return nil, err
	}
	return ToString(v, ctx.vm.sizeOfIntInBits, false, false)
}

// Args: data, target
// Returns: data converted to an Integer. Strings are decimal unless they
// start with a 0x prefix.
func vmOpToInteger(ctx *execContext, args []operand) (entity.Value, error) {
	v, err := ctx.deref(args[0].val)
	if err != nil {
		return nil, err
	}

	if s, ok := v.(entity.String); ok {
		return parseIntegerString(string(s), ctx.vm.sizeOfIntInBits)
	}
	return ToInteger(v, ctx.vm.sizeOfIntInBits)
}

// Args: buffer, length, target
// Returns: the bytes of buffer up to the first null byte or length bytes,
// whichever comes first, as a String.
func vmOpToString(ctx *execContext, args []operand) (entity.Value, error) {
	v, err := ctx.deref(args[0].val)
	if err != nil {
		return nil, err
	}

	buf, err := ToBuffer(v, ctx.vm.sizeOfIntInBits)
	if err != nil {
		return nil, err
	}

	// A length of Ones means no limit.
	limit := args[1].num
	var str []byte
	for i := 0; i < len(buf.Data) && uint64(i) < limit && buf.Data[i] != 0; i++ {
		str = append(str, buf.Data[i])
	}
	return entity.String(str), nil
}

// Args: bcdValue, target
func vmOpFromBCD(ctx *execContext, args []operand) (entity.Value, error) {
	var (
		bcd = args[0].num
		res uint64
		mul uint64 = 1
	)

	for ; bcd != 0; bcd >>= 4 {
		digit := bcd & 0xf
		if digit > 9 {
			return nil, newError(ErrTypeCoercion, "vmOpFromBCD: invalid BCD digit 0x%x", digit)
		}
		res += digit * mul
		mul *= 10
	}
	return ctx.vm.truncate(res), nil
}

// Args: value, target
func vmOpToBCD(ctx *execContext, args []operand) (entity.Value, error) {
	var (
		val   = args[0].num
		res   uint64
		shift uint
	)

	for ; val != 0; val /= 10 {
		if shift >= 64 {
			return nil, newError(ErrTypeCoercion, "vmOpToBCD: value does not fit in a BCD integer")
		}
		res |= (val % 10) << shift
		shift += 4
	}
	return ctx.vm.truncate(res), nil
}

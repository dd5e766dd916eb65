package aml

import (
	"amlvm/device/acpi/aml/entity"
	"amlvm/device/acpi/aml/opcode"
)

// endTag is the small resource descriptor that terminates a resource
// template.
const endTag = 0x79

// execConcatOp handles the opcodes that join or split strings and buffers.
func execConcatOp(ctx *execContext, op opcode.Opcode, info *opcode.Info) (bool, entity.Value, error) {
	var fn func(*execContext, []operand) (entity.Value, error)
	switch op {
	case opcode.Concat:
		fn = vmOpConcat
	case opcode.ConcatRes:
		fn = vmOpConcatRes
	case opcode.Mid:
		fn = vmOpMid
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

// Args: left, right, target
// Returns: the concatenation of left and right. The type of the result
// follows the type of left; right is converted to the same type.
func vmOpConcat(ctx *execContext, args []operand) (entity.Value, error) {
	bits := ctx.vm.sizeOfIntInBits

	left, err := ctx.deref(args[0].val)
	if err != nil {
		return nil, err
	}
	right, err := ctx.deref(args[1].val)
	if err != nil {
		return nil, err
	}

	switch l := left.(type) {
	case entity.Integer:
		r, err := ToInteger(right, bits)
		if err != nil {
			return nil, err
		}
		lb, _ := ToBuffer(l, bits)
		rb, _ := ToBuffer(r, bits)
		return &entity.Buffer{Data: append(append([]byte{}, lb.Data...), rb.Data...)}, nil
	case *entity.Buffer:
		rb, err := ToBuffer(right, bits)
		if err != nil {
			return nil, err
		}
		return &entity.Buffer{Data: append(append([]byte{}, l.Data...), rb.Data...)}, nil
	default:
		ls, _ := ToString(left, bits, true, false)
		rs, _ := ToString(right, bits, true, false)
		return ls + rs, nil
	}
}

// Args: left, right, target
// Returns: a resource template with the descriptors of left followed by the
// descriptors of right and a new end tag.
func vmOpConcatRes(ctx *execContext, args []operand) (entity.Value, error) {
	var data []byte
	for _, arg := range args[:2] {
		v, err := ctx.deref(arg.val)
		if err != nil {
			return nil, err
		}
		buf, ok := v.(*entity.Buffer)
		if !ok {
			return nil, newError(ErrTypeCoercion, "vmOpConcatRes: expected a Buffer operand; got %s", typeOf(v))
		}
		data = append(data, stripEndTag(buf.Data)...)
	}

	// The end tag checksum of zero means that the template is not
	// checksummed.
	data = append(data, endTag, 0)
	return &entity.Buffer{Data: data}, nil
}

// stripEndTag returns data without its trailing end tag descriptor.
func stripEndTag(data []byte) []byte {
	if n := len(data); n >= 2 && data[n-2] == endTag {
		return data[:n-2]
	}
	return data
}

// Args: source, index, length, target
// Returns: length bytes (or characters) of source starting at index. The
// result is truncated if it would extend past the end of source.
func vmOpMid(ctx *execContext, args []operand) (entity.Value, error) {
	bits := ctx.vm.sizeOfIntInBits

	src, err := ctx.deref(args[0].val)
	if err != nil {
		return nil, err
	}

	var bounds [2]uint64
	for i, arg := range args[1:3] {
		v, err := ctx.deref(arg.val)
		if err != nil {
			return nil, err
		}
		n, err := ToInteger(v, bits)
		if err != nil {
			return nil, err
		}
		bounds[i] = uint64(n)
	}

	slice := func(length int) (int, int) {
		start, count := bounds[0], bounds[1]
		if start >= uint64(length) {
			return length, length
		}
		if count > uint64(length)-start {
			count = uint64(length) - start
		}
		return int(start), int(start + count)
	}

	switch s := src.(type) {
	case entity.String:
		from, to := slice(len(s))
		return s[from:to], nil
	case *entity.Buffer:
		from, to := slice(len(s.Data))
		return &entity.Buffer{Data: append([]byte{}, s.Data[from:to]...)}, nil
	default:
		str, err := ToString(src, bits, true, false)
		if err != nil {
			return nil, err
		}
		from, to := slice(len(str))
		return str[from:to], nil
	}
}

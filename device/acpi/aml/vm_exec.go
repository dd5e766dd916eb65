package aml

import (
	"context"
	"io"

	"amlvm/device/acpi/aml/entity"
	"amlvm/device/acpi/aml/opcode"
)

// ctrlFlowType describes the different ways that the control flow can be altered
// while executing a set of AML opcodes.
type ctrlFlowType uint8

// The list of supported control flows.
const (
	ctrlFlowTypeNextOpcode ctrlFlowType = iota
	ctrlFlowTypeBreak
	ctrlFlowTypeContinue
	ctrlFlowTypeFnReturn
)

// ifState records the outcome of an If so that an Else that immediately
// follows it can select its branch.
type ifState uint8

const (
	ifNone ifState = iota
	ifTaken
	ifSkipped
)

// scope is an entry of the scope stack. obj is the namespace scope used to
// resolve relative names and prevLimit the stream limit that is restored
// when the scope is exited.
type scope struct {
	obj       *entity.Object
	prevLimit uint32
}

// execContext holds the AML interpreter state while a table or an AML method
// executes.
type execContext struct {
	localArg  [maxLocalArgs]entity.Value
	methodArg [maxMethodArgs]entity.Value

	// ctrlFlow specifies how the VM should select the next instruction to
	// execute.
	ctrlFlow ctrlFlowType

	// retVal holds the return value from a method if ctrlFlow is set to
	// the value ctrlFlowTypeFnReturn.
	retVal entity.Value

	// loopDepth is the number of enclosing While loops.
	loopDepth int

	// lastIf is set by an If handler and cleared by every other opcode.
	// precedingIf holds its value as seen by the opcode being decoded.
	lastIf, precedingIf ifState

	r      amlStreamReader
	scopes []scope

	// method is the method object being executed or nil when executing the
	// body of a table.
	method *entity.Object
	table  string

	vm    *VM
	goCtx context.Context
}

// curScope returns the namespace scope used for resolving relative names.
func (ctx *execContext) curScope() *entity.Object {
	return ctx.scopes[len(ctx.scopes)-1].obj
}

// pushScope enters a nested scope that ends at the stream offset end.
func (ctx *execContext) pushScope(obj *entity.Object, end uint32) error {
	prev, err := ctx.r.PushLimit(end)
	if err != nil {
		return errInvalidPkgLength
	}
	ctx.scopes = append(ctx.scopes, scope{obj: obj, prevLimit: prev})
	return nil
}

// popScope exits the current scope and restores the enclosing limit.
func (ctx *execContext) popScope() {
	top := ctx.scopes[len(ctx.scopes)-1]
	ctx.scopes = ctx.scopes[:len(ctx.scopes)-1]
	ctx.r.PopLimit(top.prevLimit)
}

// setScope makes obj the namespace scope of the innermost block. Handlers
// of opcodes that define a scoped object call it before executing the
// block body.
func (ctx *execContext) setScope(obj *entity.Object) {
	ctx.scopes[len(ctx.scopes)-1].obj = obj
}

// execTermList executes the terms of the current scope until the scope limit
// is reached or the control flow changes. Objects created by a statement
// that fails are removed from the namespace before the error is returned.
func (ctx *execContext) execTermList() error {
	for !ctx.r.EOF() && ctx.ctrlFlow == ctrlFlowTypeNextOpcode {
		var (
			mark  = ctx.vm.ns.Mark()
			start = ctx.r.Offset()
		)

		if _, err := ctx.execOpcode(); err != nil {
			ctx.vm.ns.Rollback(mark)
			return withFrame(err, &frame{IP: start, instr: ctx.opcodeAt(start).String()})
		}
	}

	return nil
}

// opcodeAt decodes the opcode at offset without moving the reader.
func (ctx *execContext) opcodeAt(offset uint32) opcode.Opcode {
	data := ctx.r.data
	if int(offset) >= len(data) {
		return opcode.Opcode(0)
	}
	if data[offset] == opcode.ExtPrefix && int(offset)+1 < len(data) {
		return opcode.Opcode(0x5b00 | uint16(data[offset+1]))
	}
	return opcode.Opcode(data[offset])
}

// opHandler is implemented by each opcode category. It returns handled set
// to false if op does not belong to the category.
type opHandler func(ctx *execContext, op opcode.Opcode, info *opcode.Info) (handled bool, val entity.Value, err error)

// opCategories lists the opcode categories in the order they are consulted
// for every decoded opcode. The residual category resolves locals, args,
// SizeOf and names and reports everything else as unimplemented.
var opCategories []opHandler

func init() {
	opCategories = []opHandler{
		execConcatOp,
		execConvOp,
		execDataOp,
		execFieldOp,
		execMathOp,
		execNamedObjOp,
		execNsModOp,
		execStmtOp,
		execResidualOp,
	}
}

// execOpcode decodes and executes the opcode at the current offset and
// returns the value it produced (or nil for statements).
func (ctx *execContext) execOpcode() (entity.Value, error) {
	start := ctx.r.Offset()
	b, err := ctx.r.ReadByte()
	if err != nil {
		return nil, errTruncatedStream
	}

	op := opcode.Opcode(b)
	if b == opcode.ExtPrefix {
		ext, err := ctx.r.ReadByte()
		if err != nil {
			return nil, locate(errTruncatedStream, op, start, 0)
		}
		op = opcode.Opcode(0x5b00 | uint16(ext))
	}

	ctx.precedingIf, ctx.lastIf = ctx.lastIf, ifNone

	info := opcode.Lookup(op)
	val, err := ctx.dispatch(op, info)
	if op != opcode.If {
		ctx.lastIf = ifNone
	}
	if err != nil {
		return nil, locate(err, op, start, ctx.r.Remaining())
	}
	return val, nil
}

// dispatch runs the handler of op. Opcodes whose grammar entry opens a
// scope are followed by a PkgLength: the handler runs inside a scope that
// ends where the package ends and the reader resumes after the package
// once it returns.
func (ctx *execContext) dispatch(op opcode.Opcode, info *opcode.Info) (entity.Value, error) {
	if info == nil || !info.OpensScope() {
		return ctx.dispatchCategory(op, info)
	}

	end, err := ctx.parsePkgEnd()
	if err != nil {
		return nil, err
	}
	if err = ctx.pushScope(ctx.curScope(), end); err != nil {
		return nil, err
	}

	val, err := ctx.dispatchCategory(op, info)
	ctx.popScope()
	if err != nil {
		return nil, err
	}
	return val, ctx.r.SetOffset(end)
}

func (ctx *execContext) dispatchCategory(op opcode.Opcode, info *opcode.Info) (entity.Value, error) {
	for _, category := range opCategories {
		if handled, val, err := category(ctx, op, info); handled || err != nil {
			return val, err
		}
	}

	// execResidualOp handles every opcode; this is unreachable.
	return nil, errUnimplemented(op, ctx.r.Remaining())
}

func errUnimplemented(op opcode.Opcode, remaining uint32) *Error {
	return &Error{
		Kind:      ErrUnimplementedOpcode,
		message:   "vm: unimplemented opcode " + op.String(),
		Op:        op,
		Remaining: remaining,
	}
}

// evalTermArg evaluates the next opcode and returns its value.
func (ctx *execContext) evalTermArg() (entity.Value, error) {
	val, err := ctx.execOpcode()
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, errNoValue
	}
	return val, nil
}

// evalOperand evaluates the next opcode and dereferences the result if it
// is a reference.
func (ctx *execContext) evalOperand() (entity.Value, error) {
	val, err := ctx.evalTermArg()
	if err != nil {
		return nil, err
	}
	return ctx.deref(val)
}

// operand holds a decoded fixed argument. Depending on the argument kind
// only some of the fields are populated.
type operand struct {
	// val holds the value of TermArg, Integer, Buffer and Package args.
	val entity.Value

	// num holds the value of Byte/Word/Dword/Qword and Integer args.
	num uint64

	// str holds the value of String and Name args.
	str string

	// tgt holds ObjRef args.
	tgt *target
}

// readArgs decodes the fixed arguments of op as described by its grammar
// entry.
func (ctx *execContext) readArgs(op opcode.Opcode, info *opcode.Info) ([]operand, error) {
	args := make([]operand, info.ArgCount)
	for i := range args {
		if err := ctx.readArg(op, info.Args[i], &args[i]); err != nil {
			return nil, err
		}
	}
	return args, nil
}

func (ctx *execContext) readArg(op opcode.Opcode, kind opcode.ArgKind, arg *operand) error {
	var err error

	switch kind {
	case opcode.ArgByte:
		arg.num, err = ctx.parseNumConstant(1)
	case opcode.ArgWord:
		arg.num, err = ctx.parseNumConstant(2)
	case opcode.ArgDword:
		arg.num, err = ctx.parseNumConstant(4)
	case opcode.ArgQword:
		arg.num, err = ctx.parseNumConstant(8)
	case opcode.ArgString:
		arg.str, err = ctx.parseString()
	case opcode.ArgName:
		arg.str, err = ctx.parseNameString()
	case opcode.ArgTermArg:
		arg.val, err = ctx.evalTermArg()
	case opcode.ArgInteger:
		var n entity.Integer
		if arg.val, err = ctx.evalOperand(); err == nil {
			if n, err = ToInteger(arg.val, ctx.vm.sizeOfIntInBits); err == nil {
				arg.num, arg.val = uint64(n), n
			}
		}
	case opcode.ArgBuffer:
		if arg.val, err = ctx.evalOperand(); err == nil {
			arg.val, err = ToBuffer(arg.val, ctx.vm.sizeOfIntInBits)
		}
	case opcode.ArgPackage:
		if arg.val, err = ctx.evalOperand(); err == nil {
			if _, ok := arg.val.(*entity.Package); !ok {
				err = newError(ErrTypeCoercion, "vm: expected a Package operand; got %s", arg.val.Type())
			}
		}
	case opcode.ArgObjRef:
		arg.tgt, err = ctx.parseTarget(op == opcode.CondRefOf)
	}

	return err
}

// parsePkgLength reads a PkgLength and returns its raw value.
func (ctx *execContext) parsePkgLength() (uint32, error) {
	lead, err := ctx.r.ReadByte()
	if err != nil {
		return 0, errTruncatedStream
	}

	// The high 2 bits of the lead byte indicate how many bytes follow.
	count := lead >> 6
	if count == 0 {
		return uint32(lead & 0x3f), nil
	}

	// lead bits 0-3 are the lsb of the length nybble
	pkgLen := uint32(lead & 0xf)
	for i := uint8(0); i < count; i++ {
		b, err := ctx.r.ReadByte()
		if err != nil {
			return 0, errTruncatedStream
		}
		pkgLen |= uint32(b) << (4 + 8*i)
	}

	return pkgLen, nil
}

// parsePkgEnd reads a PkgLength and returns the stream offset where the
// package ends. The length includes the PkgLength bytes themselves.
func (ctx *execContext) parsePkgEnd() (uint32, error) {
	start := ctx.r.Offset()
	pkgLen, err := ctx.parsePkgLength()
	if err != nil {
		return 0, err
	}

	end := start + pkgLen
	if end < ctx.r.Offset() || end > ctx.r.Limit() {
		return 0, errInvalidPkgLength
	}
	return end, nil
}

// parseNumConstant reads a little-endian integer of numBytes.
func (ctx *execContext) parseNumConstant(numBytes uint32) (uint64, error) {
	data, err := ctx.r.ReadBytes(numBytes)
	if err != nil {
		return 0, errTruncatedStream
	}

	var res uint64
	for i := len(data) - 1; i >= 0; i-- {
		res = res<<8 | uint64(data[i])
	}
	return res, nil
}

// parseString reads a null-terminated ASCII string.
func (ctx *execContext) parseString() (string, error) {
	var str []byte
	for {
		next, err := ctx.r.ReadByte()
		if err != nil {
			return "", errTruncatedStream
		}
		if next == 0x00 {
			return string(str), nil
		}
		if next > 0x7f {
			return "", newError(ErrMalformedStream, "vm: invalid character 0x%x in string", next)
		}
		str = append(str, next)
	}
}

// parseNameString reads a NameString and returns it as a path with '.'
// separated segments. A NullName yields an empty string.
func (ctx *execContext) parseNameString() (string, error) {
	var str []byte

	// NameString := RootChar NamePath | PrefixPath NamePath
	next, err := ctx.r.PeekByte()
	if err != nil {
		return "", errTruncatedStream
	}

	switch next {
	case '\\': // RootChar
		str = append(str, next)
		_, _ = ctx.r.ReadByte()
	case '^': // PrefixPath := Nothing | '^' PrefixPath
		for next == '^' {
			str = append(str, next)
			_, _ = ctx.r.ReadByte()
			if next, err = ctx.r.PeekByte(); err != nil {
				return "", errTruncatedStream
			}
		}
	}

	// NamePath := NameSeg | DualNamePath | MultiNamePath | NullName
	next, err = ctx.r.ReadByte()
	if err != nil {
		return "", errTruncatedStream
	}

	var segCount int
	switch next {
	case 0x00: // NullName
		return string(str), nil
	case byte(opcode.DualNamePrefix): // DualNamePath := DualNamePrefix NameSeg NameSeg
		segCount = 2
	case byte(opcode.MultiNamePrefix): // MultiNamePath := MultiNamePrefix SegCount NameSeg(SegCount)
		count, err := ctx.r.ReadByte()
		if err != nil {
			return "", errTruncatedStream
		}
		if count == 0 {
			return "", newError(ErrMalformedStream, "vm: MultiNamePath with zero segments")
		}
		segCount = int(count)
	default: // NameSeg := LeadNameChar NameChar NameChar NameChar
		_ = ctx.r.UnreadByte()
		segCount = 1
	}

	for i := 0; i < segCount; i++ {
		seg, err := ctx.r.ReadBytes(4)
		if err != nil {
			if err == io.ErrUnexpectedEOF {
				return "", errTruncatedStream
			}
			return "", err
		}

		// LeadNameChar := 'A' - 'Z' | '_'
		if seg[0] != '_' && (seg[0] < 'A' || seg[0] > 'Z') {
			return "", newError(ErrMalformedStream, "vm: invalid NameSeg lead character 0x%x", seg[0])
		}
		for _, c := range seg[1:] {
			if !opcode.IsNameChar(c) {
				return "", newError(ErrMalformedStream, "vm: invalid NameSeg character 0x%x", c)
			}
		}

		if i > 0 {
			str = append(str, '.')
		}
		str = append(str, seg...)
	}

	return string(str), nil
}

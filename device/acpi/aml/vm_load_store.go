package aml

import (
	"bytes"
	"fmt"

	"amlvm/device/acpi/aml/entity"
	"amlvm/device/acpi/aml/opcode"
)

// targetKind describes what a SuperName/Target operand refers to.
type targetKind uint8

const (
	// targetNull discards stores. It is also used by CondRefOf for names
	// that cannot be resolved.
	targetNull targetKind = iota
	targetLocal
	targetArg
	targetDebug
	targetObject
	targetRef

	// targetValue is a target expression that did not evaluate to a
	// reference. It can be read but not written.
	targetValue
)

// target is a decoded SuperName/Target operand.
type target struct {
	kind  targetKind
	index int
	obj   *entity.Object
	ref   *entity.Reference
	val   entity.Value

	// name is set for unresolved names parsed in weak mode.
	name string
}

// parseTarget decodes a SuperName or Target operand. In weak mode names that
// cannot be resolved produce a null target instead of an error.
func (ctx *execContext) parseTarget(weak bool) (*target, error) {
	next, err := ctx.r.PeekByte()
	if err != nil {
		return nil, errTruncatedStream
	}

	op := opcode.Opcode(next)
	switch {
	case next == 0x00: // NullName
		_, _ = ctx.r.ReadByte()
		return &target{kind: targetNull}, nil
	case op.IsLocal():
		_, _ = ctx.r.ReadByte()
		return &target{kind: targetLocal, index: int(op - opcode.Local0)}, nil
	case op.IsArg():
		_, _ = ctx.r.ReadByte()
		return &target{kind: targetArg, index: int(op - opcode.Arg0)}, nil
	case next == opcode.ExtPrefix && ctx.opcodeAt(ctx.r.Offset()) == opcode.Debug:
		_, _ = ctx.r.ReadBytes(2)
		return &target{kind: targetDebug}, nil
	case op == opcode.DerefOf:
		// DerefOf used as a target writes to the referenced location.
		_, _ = ctx.r.ReadByte()
		return ctx.parseDerefTarget()
	case opcode.IsNameLead(next):
		name, err := ctx.parseNameString()
		if err != nil {
			return nil, err
		}

		obj := ctx.vm.ns.Find(ctx.curScope(), name)
		if obj == nil {
			if weak {
				return &target{kind: targetNull, name: name}, nil
			}
			return nil, newError(ErrUnresolvedReference, "vm: unable to resolve %q", name)
		}
		return &target{kind: targetObject, obj: obj.Target()}, nil
	}

	val, err := ctx.evalTermArg()
	if err != nil {
		return nil, err
	}

	if ref, ok := val.(*entity.Reference); ok {
		return &target{kind: targetRef, ref: ref}, nil
	}
	return &target{kind: targetValue, val: val}, nil
}

// parseDerefTarget handles DerefOf(Operand) in target position. The operand
// must hold a reference or a string with the path of an object.
func (ctx *execContext) parseDerefTarget() (*target, error) {
	src, err := ctx.parseTarget(false)
	if err != nil {
		return nil, err
	}

	val, err := ctx.loadTarget(src)
	if err != nil {
		return nil, err
	}

	switch v := val.(type) {
	case *entity.Reference:
		return &target{kind: targetRef, ref: v}, nil
	case entity.String:
		obj := ctx.vm.ns.Find(ctx.curScope(), entity.NormalizePath(string(v)))
		if obj == nil {
			return nil, newError(ErrUnresolvedReference, "vm: unable to resolve %q", string(v))
		}
		return &target{kind: targetObject, obj: obj.Target()}, nil
	default:
		return nil, errNotAReference
	}
}

// loadTarget returns the current value of a target.
func (ctx *execContext) loadTarget(t *target) (entity.Value, error) {
	switch t.kind {
	case targetLocal:
		return slotValue(ctx.localArg[t.index]), nil
	case targetArg:
		return slotValue(ctx.methodArg[t.index]), nil
	case targetDebug:
		return entity.DebugObject{}, nil
	case targetObject:
		if method, ok := t.obj.Value.(*entity.Method); ok && method.ArgCount() == 0 {
			return ctx.invoke(t.obj, nil)
		}
		return ctx.readObject(t.obj)
	case targetRef:
		return t.ref, nil
	case targetValue:
		return t.val, nil
	default:
		return entity.Uninitialized{}, nil
	}
}

// refOf returns a reference to the location described by t.
func (ctx *execContext) refOf(t *target) (*entity.Reference, error) {
	switch t.kind {
	case targetLocal:
		return &entity.Reference{Kind: entity.RefSlot, Slot: &ctx.localArg[t.index]}, nil
	case targetArg:
		if ref, ok := ctx.methodArg[t.index].(*entity.Reference); ok {
			return ref, nil
		}
		return &entity.Reference{Kind: entity.RefSlot, Slot: &ctx.methodArg[t.index]}, nil
	case targetObject:
		return &entity.Reference{Kind: entity.RefObject, Object: t.obj}, nil
	case targetRef:
		return t.ref, nil
	default:
		return nil, errNotAReference
	}
}

func slotValue(v entity.Value) entity.Value {
	if v == nil {
		return entity.Uninitialized{}
	}
	return v
}

// readObject returns the value of a namespace object. Data objects are
// returned as is, field units and buffer fields are read and all other
// objects are wrapped in a reference.
func (ctx *execContext) readObject(obj *entity.Object) (entity.Value, error) {
	obj = obj.Target()

	switch v := obj.Value.(type) {
	case nil:
		return entity.Uninitialized{}, nil
	case entity.Uninitialized, entity.Integer, entity.String, *entity.Buffer, *entity.Package, *entity.Reference:
		return v, nil
	case *entity.FieldUnit:
		return ctx.readField(v)
	case *entity.BufferField:
		return ctx.readBufferField(v)
	default:
		return &entity.Reference{Kind: entity.RefObject, Object: obj}, nil
	}
}

// deref returns the value pointed to by v if v is a reference; otherwise it
// returns v.
func (ctx *execContext) deref(v entity.Value) (entity.Value, error) {
	ref, ok := v.(*entity.Reference)
	if !ok {
		return v, nil
	}

	switch ref.Kind {
	case entity.RefObject:
		return ctx.readObject(ref.Object)
	case entity.RefSlot:
		return slotValue(*ref.Slot), nil
	default:
		return ctx.readIndex(ref)
	}
}

// readIndex returns the element referenced by an Index reference.
func (ctx *execContext) readIndex(ref *entity.Reference) (entity.Value, error) {
	switch src := ref.Source.(type) {
	case *entity.Buffer:
		if ref.Index >= uint64(len(src.Data)) {
			return nil, errIndexOutOfBounds
		}
		return entity.Integer(src.Data[ref.Index]), nil
	case entity.String:
		if ref.Index >= uint64(len(src)) {
			return nil, errIndexOutOfBounds
		}
		return entity.Integer(src[ref.Index]), nil
	case *entity.Package:
		if ref.Index >= uint64(len(src.Elements)) {
			return nil, errIndexOutOfBounds
		}
		elem := slotValue(src.Elements[ref.Index])
		if nameRef, ok := elem.(*entity.NameRef); ok {
			if obj := ctx.vm.ns.Find(nameRef.Scope, nameRef.Path); obj != nil {
				return ctx.readObject(obj)
			}
		}
		return elem, nil
	default:
		return nil, errNotAReference
	}
}

// storeTarget implements the Store semantics: the value is converted to the
// type of named data objects and copied into locals and args.
func (ctx *execContext) storeTarget(t *target, v entity.Value) error {
	switch t.kind {
	case targetNull:
		return nil
	case targetDebug:
		ctx.vm.writeDebug(v)
		return nil
	case targetLocal:
		ctx.localArg[t.index] = entity.Copy(v)
		return nil
	case targetArg:
		// Args that hold a reference are written through.
		if ref, ok := ctx.methodArg[t.index].(*entity.Reference); ok {
			return ctx.storeReference(ref, v)
		}
		ctx.methodArg[t.index] = entity.Copy(v)
		return nil
	case targetObject:
		return ctx.storeObject(t.obj, v)
	case targetRef:
		return ctx.storeReference(t.ref, v)
	default:
		return errInvalidStoreTarget
	}
}

// copyTarget implements the CopyObject semantics: the target is replaced by
// a copy of v without any conversion.
func (ctx *execContext) copyTarget(t *target, v entity.Value) error {
	switch t.kind {
	case targetLocal:
		ctx.localArg[t.index] = entity.Copy(v)
	case targetArg:
		ctx.methodArg[t.index] = entity.Copy(v)
	case targetObject:
		switch t.obj.Value.(type) {
		case *entity.FieldUnit, *entity.BufferField:
			return ctx.storeObject(t.obj, v)
		}
		t.obj.Value = entity.Copy(v)
	default:
		return ctx.storeTarget(t, v)
	}
	return nil
}

// storeObject stores v to a named object applying the implicit conversion
// rules for the type of the object.
func (ctx *execContext) storeObject(obj *entity.Object, v entity.Value) error {
	obj = obj.Target()
	bits := ctx.vm.sizeOfIntInBits

	switch obj.Value.(type) {
	case entity.Integer, entity.String, *entity.Buffer, *entity.FieldUnit, *entity.BufferField:
		var err error
		if v, err = ctx.deref(v); err != nil {
			return err
		}
	}

	switch cur := obj.Value.(type) {
	case entity.Integer:
		n, err := ToInteger(v, bits)
		if err != nil {
			return err
		}
		obj.Value = ctx.vm.truncate(uint64(n))
	case entity.String:
		s, err := ToString(v, bits, true, false)
		if err != nil {
			return err
		}
		obj.Value = s
	case *entity.Buffer:
		buf, err := ToBuffer(v, bits)
		if err != nil {
			return err
		}
		storeToBuffer(cur, buf.Data)
	case *entity.FieldUnit:
		return ctx.writeField(cur, v)
	case *entity.BufferField:
		return ctx.writeBufferField(cur, v)
	case nil, entity.Uninitialized, *entity.Package, *entity.Reference:
		obj.Value = entity.Copy(v)
	default:
		return newError(ErrInvalidOperation, "vm: cannot store to %s object %s", obj.Value.Type(), obj.Path())
	}
	return nil
}

// storeToBuffer copies data into buf. Buffers keep their length: longer
// data is truncated and shorter data is zero-extended. Empty buffers take
// the length of data.
func storeToBuffer(buf *entity.Buffer, data []byte) {
	if len(buf.Data) == 0 {
		buf.Data = append([]byte(nil), data...)
		return
	}

	n := copy(buf.Data, data)
	for ; n < len(buf.Data); n++ {
		buf.Data[n] = 0
	}
}

// storeReference writes v to the location pointed to by ref.
func (ctx *execContext) storeReference(ref *entity.Reference, v entity.Value) error {
	switch ref.Kind {
	case entity.RefObject:
		return ctx.storeObject(ref.Object, v)
	case entity.RefSlot:
		*ref.Slot = entity.Copy(v)
		return nil
	}

	switch src := ref.Source.(type) {
	case *entity.Buffer:
		if ref.Index >= uint64(len(src.Data)) {
			return errIndexOutOfBounds
		}
		n, err := ToInteger(v, ctx.vm.sizeOfIntInBits)
		if err != nil {
			return err
		}
		src.Data[ref.Index] = byte(n)
	case *entity.Package:
		if ref.Index >= uint64(len(src.Elements)) {
			return errIndexOutOfBounds
		}
		src.Elements[ref.Index] = entity.Copy(v)
	default:
		return errInvalidStoreTarget
	}
	return nil
}

// writeDebug logs a value stored to the Debug object.
func (vm *VM) writeDebug(v entity.Value) {
	var buf bytes.Buffer
	buf.WriteString("[debug] ")
	formatValue(&buf, v, vm.sizeOfIntInBits)
	buf.WriteByte('\n')
	_, _ = vm.debugWriter.Write(buf.Bytes())
}

// FormatValue returns the representation of v used for Debug object output
// and namespace snapshots.
func FormatValue(v entity.Value) string {
	var buf bytes.Buffer
	formatValue(&buf, v, 64)
	return buf.String()
}

// formatValue writes a human readable representation of v to buf.
func formatValue(buf *bytes.Buffer, v entity.Value, bits uint8) {
	switch val := v.(type) {
	case entity.Integer:
		fmt.Fprintf(buf, "0x%X", uint64(val))
	case entity.String:
		fmt.Fprintf(buf, "%q", string(val))
	case *entity.Buffer:
		s, _ := ToString(val, bits, false, false)
		fmt.Fprintf(buf, "Buffer(%d) {%s}", len(val.Data), s)
	case *entity.Package:
		fmt.Fprintf(buf, "Package(%d) {", len(val.Elements))
		for i, elem := range val.Elements {
			if i > 0 {
				buf.WriteString(", ")
			}
			formatValue(buf, slotValue(elem), bits)
		}
		buf.WriteByte('}')
	case *entity.NameRef:
		buf.WriteString(val.Path)
	case *entity.Reference:
		switch val.Kind {
		case entity.RefObject:
			fmt.Fprintf(buf, "%s %s", entity.TypeReference, val.Object.Path())
		case entity.RefSlot:
			fmt.Fprintf(buf, "%s ", entity.TypeReference)
			formatValue(buf, slotValue(*val.Slot), bits)
		default:
			fmt.Fprintf(buf, "%s Index(%d)", entity.TypeReference, val.Index)
		}
	default:
		buf.WriteString(v.Type().String())
	}
}

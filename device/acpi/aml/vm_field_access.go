package aml

import (
	"encoding/binary"

	"amlvm/device/acpi/aml/entity"
)

// readField reads a field unit. Fields that fit in an integer are returned
// as Integer values; wider fields are returned as a Buffer.
func (ctx *execContext) readField(fu *entity.FieldUnit) (entity.Value, error) {
	unlock, err := ctx.lockField(fu)
	if err != nil {
		return nil, err
	}
	defer unlock()

	data := make([]byte, (fu.BitWidth+7)/8)
	if err = ctx.accessField(fu, data, false); err != nil {
		return nil, err
	}
	return ctx.fieldValue(data, fu.BitWidth), nil
}

// writeField converts v to the bit layout of a field unit and writes it.
func (ctx *execContext) writeField(fu *entity.FieldUnit, v entity.Value) error {
	data, err := ctx.fieldBytes(v, fu.BitWidth)
	if err != nil {
		return err
	}

	unlock, err := ctx.lockField(fu)
	if err != nil {
		return err
	}
	defer unlock()

	return ctx.accessField(fu, data, true)
}

// readBufferField reads the bits covered by a buffer field.
func (ctx *execContext) readBufferField(bf *entity.BufferField) (entity.Value, error) {
	if bf.BitOffset+bf.BitWidth > uint64(len(bf.Source.Data))*8 {
		return nil, errIndexOutOfBounds
	}

	data := make([]byte, (bf.BitWidth+7)/8)
	copyBits(data, 0, bf.Source.Data, bf.BitOffset, bf.BitWidth)
	return ctx.fieldValue(data, bf.BitWidth), nil
}

// writeBufferField writes v to the bits covered by a buffer field.
func (ctx *execContext) writeBufferField(bf *entity.BufferField, v entity.Value) error {
	if bf.BitOffset+bf.BitWidth > uint64(len(bf.Source.Data))*8 {
		return errIndexOutOfBounds
	}

	data, err := ctx.fieldBytes(v, bf.BitWidth)
	if err != nil {
		return err
	}
	copyBits(bf.Source.Data, bf.BitOffset, data, 0, bf.BitWidth)
	return nil
}

func (ctx *execContext) fieldValue(data []byte, bitWidth uint64) entity.Value {
	if bitWidth > uint64(ctx.vm.sizeOfIntInBits) {
		return &entity.Buffer{Data: data}
	}

	var word [8]byte
	copy(word[:], data)
	return entity.Integer(binary.LittleEndian.Uint64(word[:]))
}

// fieldBytes converts v to a zero-extended or truncated byte slice that
// covers bitWidth bits.
func (ctx *execContext) fieldBytes(v entity.Value, bitWidth uint64) ([]byte, error) {
	v, err := ctx.deref(v)
	if err != nil {
		return nil, err
	}

	var src []byte
	switch val := v.(type) {
	case entity.Integer:
		src = make([]byte, 8)
		binary.LittleEndian.PutUint64(src, uint64(val))
	default:
		buf, err := ToBuffer(v, ctx.vm.sizeOfIntInBits)
		if err != nil {
			return nil, err
		}
		src = buf.Data
	}

	data := make([]byte, (bitWidth+7)/8)
	copy(data, src)
	return data, nil
}

// lockField acquires the global lock if the field requires it and returns
// a function that releases it.
func (ctx *execContext) lockField(fu *entity.FieldUnit) (func(), error) {
	if fu.LockRule != entity.FieldLockRuleLock {
		return func() {}, nil
	}

	gl := ctx.vm.ns.Root().Child("_GL_")
	if gl == nil {
		return func() {}, nil
	}

	mutex, ok := gl.Value.(*entity.Mutex)
	if !ok {
		return func() {}, nil
	}

	if !mutex.Acquire(ctx.goCtx, ctx.vm) {
		return nil, newError(ErrResourceExhaustion, "vm: timed out acquiring the global lock")
	}
	return func() { _ = mutex.Release(ctx.vm) }, nil
}

// accessField transfers data to or from the access units covered by a
// field unit. Partially covered units are completed according to the
// field update rule when writing.
func (ctx *execContext) accessField(fu *entity.FieldUnit, data []byte, write bool) error {
	if fu.BitWidth == 0 {
		return nil
	}

	if fu.Kind == entity.FieldKindBank {
		bank, err := fieldUnitOf(fu.Bank)
		if err != nil {
			return err
		}
		if err := ctx.writeField(bank, entity.Integer(fu.BankValue)); err != nil {
			return err
		}
	}

	var (
		width     = fu.AccessType.Bytes()
		unitBits  = width * 8
		fieldEnd  = fu.BitOffset + fu.BitWidth
		firstUnit = fu.BitOffset / unitBits
		lastUnit  = (fieldEnd - 1) / unitBits
	)

	for unit := firstUnit; unit <= lastUnit; unit++ {
		unitStart := unit * unitBits
		lo, hi := maxU64(fu.BitOffset, unitStart), minU64(fieldEnd, unitStart+unitBits)

		var (
			count  = hi - lo
			shift  = lo - unitStart
			srcBit = lo - fu.BitOffset
			word   [8]byte
		)

		if !write {
			val, err := ctx.readUnit(fu, unit*width, width)
			if err != nil {
				return err
			}
			binary.LittleEndian.PutUint64(word[:], val)
			copyBits(data, srcBit, word[:], shift, count)
			continue
		}

		var base uint64
		if count < unitBits {
			switch fu.UpdateRule {
			case entity.FieldUpdateRulePreserve:
				var err error
				if base, err = ctx.readUnit(fu, unit*width, width); err != nil {
					return err
				}
			case entity.FieldUpdateRuleWriteAsOnes:
				base = ^uint64(0)
			}
		}

		binary.LittleEndian.PutUint64(word[:], base)
		copyBits(word[:], shift, data, srcBit, count)
		if err := ctx.writeUnit(fu, unit*width, width, binary.LittleEndian.Uint64(word[:])); err != nil {
			return err
		}
	}

	return nil
}

// readUnit reads a single access unit at the given byte offset of a field.
func (ctx *execContext) readUnit(fu *entity.FieldUnit, offset, width uint64) (uint64, error) {
	if fu.Kind == entity.FieldKindIndex {
		index, data, err := indexFieldUnits(fu)
		if err != nil {
			return 0, err
		}
		if err = ctx.writeField(index, entity.Integer(offset)); err != nil {
			return 0, err
		}

		val, err := ctx.readField(data)
		if err != nil {
			return 0, err
		}
		n, err := ToInteger(val, ctx.vm.sizeOfIntInBits)
		return uint64(n), err
	}

	region, err := fieldRegion(fu, offset, width)
	if err != nil {
		return 0, err
	}

	if region.Space == entity.RegionSpaceData {
		var word [8]byte
		copy(word[:], region.Data[offset:offset+width])
		return binary.LittleEndian.Uint64(word[:]), nil
	}

	val, err := ctx.vm.host.ReadRegion(region.Space, region.Offset+offset, uint8(width))
	if err != nil {
		return 0, newError(ErrInvalidOperation, "vm: region read failed: %s", err.Error())
	}
	return val, nil
}

// writeUnit writes a single access unit at the given byte offset of a
// field.
func (ctx *execContext) writeUnit(fu *entity.FieldUnit, offset, width, val uint64) error {
	if fu.Kind == entity.FieldKindIndex {
		index, data, err := indexFieldUnits(fu)
		if err != nil {
			return err
		}
		if err = ctx.writeField(index, entity.Integer(offset)); err != nil {
			return err
		}
		return ctx.writeField(data, entity.Integer(val))
	}

	region, err := fieldRegion(fu, offset, width)
	if err != nil {
		return err
	}

	if region.Space == entity.RegionSpaceData {
		var word [8]byte
		binary.LittleEndian.PutUint64(word[:], val)
		copy(region.Data[offset:offset+width], word[:width])
		return nil
	}

	if err = ctx.vm.host.WriteRegion(region.Space, region.Offset+offset, uint8(width), val); err != nil {
		return newError(ErrInvalidOperation, "vm: region write failed: %s", err.Error())
	}
	return nil
}

func fieldRegion(fu *entity.FieldUnit, offset, width uint64) (*entity.Region, error) {
	region, ok := objectValue(fu.Region).(*entity.Region)
	if !ok {
		return nil, errFieldTarget(fu.Region, entity.TypeRegion)
	}
	if offset+width > region.Length {
		return nil, newError(ErrInvalidOperation, "vm: field access at offset 0x%x exceeds region %s (length 0x%x)",
			offset, fu.Region.Path(), region.Length)
	}
	return region, nil
}

// fieldUnitOf returns the field unit stored in obj. Bank and index fields
// refer to other field units by object, and CopyObject may since have
// replaced their value.
func fieldUnitOf(obj *entity.Object) (*entity.FieldUnit, error) {
	fu, ok := objectValue(obj).(*entity.FieldUnit)
	if !ok {
		return nil, errFieldTarget(obj, entity.TypeFieldUnit)
	}
	return fu, nil
}

func indexFieldUnits(fu *entity.FieldUnit) (index, data *entity.FieldUnit, err error) {
	if index, err = fieldUnitOf(fu.Index); err != nil {
		return nil, nil, err
	}
	if data, err = fieldUnitOf(fu.Data); err != nil {
		return nil, nil, err
	}
	return index, data, nil
}

func objectValue(obj *entity.Object) entity.Value {
	if obj == nil {
		return nil
	}
	return obj.Value
}

// errFieldTarget reports a field whose backing object no longer holds a
// value of the expected type.
func errFieldTarget(obj *entity.Object, exp entity.Type) *Error {
	var (
		path  = "<nil>"
		found = "<nil>"
	)
	if obj != nil {
		path = obj.Path()
		if obj.Value != nil {
			found = obj.Value.Type().String()
		}
	}
	return newError(ErrTypeCoercion, "vm: field is backed by %s which holds %s; expected %s", path, found, exp)
}

// copyBits copies n bits from src starting at bit srcOff to dst starting at
// bit dstOff. Bits are numbered from the least significant bit of byte 0.
func copyBits(dst []byte, dstOff uint64, src []byte, srcOff, n uint64) {
	for i := uint64(0); i < n; i++ {
		s, d := srcOff+i, dstOff+i
		if src[s/8]&(1<<(s%8)) != 0 {
			dst[d/8] |= 1 << (d % 8)
		} else {
			dst[d/8] &^= 1 << (d % 8)
		}
	}
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

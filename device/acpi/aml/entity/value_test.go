package entity

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTypeTags(t *testing.T) {
	specs := []struct {
		v   Value
		exp string
	}{
		{Uninitialized{}, "[Uninitialized Object]"},
		{Integer(1), "[Integer]"},
		{String("x"), "[String]"},
		{&Buffer{}, "[Buffer]"},
		{&Package{}, "[Package]"},
		{&FieldUnit{}, "[Field]"},
		{&Device{}, "[Device]"},
		{&Event{}, "[Event]"},
		{&Method{}, "[Control Method]"},
		{&Mutex{}, "[Mutex]"},
		{&Region{}, "[Operation Region]"},
		{&PowerResource{}, "[Power Resource]"},
		{&Processor{}, "[Processor]"},
		{&ThermalZone{}, "[Thermal Zone]"},
		{&BufferField{}, "[Buffer Field]"},
		{DebugObject{}, "[Debug Object]"},
		{&Scope{}, "[Scope]"},
		{&Reference{}, "[Reference]"},
	}

	for specIndex, spec := range specs {
		if got := spec.v.Type().String(); got != spec.exp {
			t.Errorf("[spec %02d] expected tag %q; got %q", specIndex, spec.exp, got)
		}
	}

	if exp, got := "[Unknown]", Type(0x80).String(); got != exp {
		t.Errorf("expected tag %q; got %q", exp, got)
	}
}

func TestMethodFlags(t *testing.T) {
	m := &Method{Flags: 0xfb}

	if exp, got := uint8(3), m.ArgCount(); got != exp {
		t.Errorf("expected ArgCount() to return %d; got %d", exp, got)
	}

	if !m.Serialized() {
		t.Error("expected Serialized() to return true")
	}

	if exp, got := uint8(0xf), m.SyncLevel(); got != exp {
		t.Errorf("expected SyncLevel() to return %d; got %d", exp, got)
	}
}

func TestDecodeFieldFlags(t *testing.T) {
	specs := []struct {
		flags uint8
		exp   FieldFlags
	}{
		{0x00, FieldFlags{AccessType: FieldAccessTypeAny}},
		{0x13, FieldFlags{AccessType: FieldAccessTypeDword, LockRule: FieldLockRuleLock}},
		{0x44, FieldFlags{AccessType: FieldAccessTypeQword, UpdateRule: FieldUpdateRuleWriteAsZeros}},
		{0x21, FieldFlags{AccessType: FieldAccessTypeByte, UpdateRule: FieldUpdateRuleWriteAsOnes}},
	}

	for specIndex, spec := range specs {
		if diff := cmp.Diff(spec.exp, DecodeFieldFlags(spec.flags)); diff != "" {
			t.Errorf("[spec %02d] flags mismatch (-want +got):\n%s", specIndex, diff)
		}
	}

	for accessType, exp := range map[FieldAccessType]uint64{
		FieldAccessTypeAny: 1, FieldAccessTypeByte: 1, FieldAccessTypeWord: 2,
		FieldAccessTypeDword: 4, FieldAccessTypeQword: 8, FieldAccessTypeBuffer: 1,
	} {
		if got := accessType.Bytes(); got != exp {
			t.Errorf("access type %d: expected %d bytes; got %d", accessType, exp, got)
		}
	}
}

func TestCopyAndFreeContents(t *testing.T) {
	target := &Object{Value: Integer(7)}
	orig := &Package{
		Elements: []Value{
			Integer(1),
			&Buffer{Data: []byte{1, 2, 3}},
			&Package{Elements: []Value{String("nested")}},
			&Reference{Kind: RefObject, Object: target},
		},
	}

	dup := Copy(orig).(*Package)
	dup.Elements[1].(*Buffer).Data[0] = 0xff
	if orig.Elements[1].(*Buffer).Data[0] != 1 {
		t.Fatal("expected Copy to duplicate buffer contents")
	}

	if dup.Elements[3] != orig.Elements[3] {
		t.Fatal("expected Copy to keep references as is")
	}

	if _, ok := Copy(nil).(Uninitialized); !ok {
		t.Fatal("expected Copy(nil) to return Uninitialized")
	}

	FreeContents(orig)
	if orig.Elements != nil {
		t.Fatal("expected FreeContents to release package elements")
	}

	// Non-owning links are never followed.
	if target.Value != Integer(7) {
		t.Fatal("expected FreeContents not to touch referenced objects")
	}

	nestedBuf := dup.Elements[1].(*Buffer)
	Free(dup)
	if dup.Elements != nil || nestedBuf.Data != nil {
		t.Fatal("expected Free to release the storage owned by the value")
	}
	if target.Value != Integer(7) {
		t.Fatal("expected Free not to touch referenced objects")
	}

	// Values without owned storage are ignored.
	Free(Integer(1))
	Free(nil)
}

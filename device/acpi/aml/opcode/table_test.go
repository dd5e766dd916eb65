package opcode

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLookup(t *testing.T) {
	specs := []struct {
		op        Opcode
		exp       *Info
		expString string
	}{
		{Package, &Info{Name: "Package", Flags: FlagTerm | FlagScope, ArgCount: 1, Args: [MaxArgs]ArgKind{ArgByte}}, "Package"},
		{Method, &Info{Name: "Method", Flags: FlagTerm | FlagScope, ArgCount: 2, Args: [MaxArgs]ArgKind{ArgName, ArgByte}}, "Method"},
		{Divide, &Info{Name: "Divide", Flags: FlagTerm, ArgCount: 4, Args: [MaxArgs]ArgKind{ArgInteger, ArgInteger, ArgObjRef, ArgObjRef}}, "Divide"},
		{Match, &Info{Name: "Match", Flags: FlagTerm, ArgCount: 6, Args: [MaxArgs]ArgKind{ArgPackage, ArgByte, ArgInteger, ArgByte, ArgInteger, ArgInteger}}, "Match"},
		{Processor, &Info{Name: "Processor", Flags: FlagTerm | FlagScope, ArgCount: 4, Args: [MaxArgs]ArgKind{ArgName, ArgByte, ArgDword, ArgByte}}, "Processor"},
		{Fatal, &Info{Name: "Fatal", Flags: FlagTerm, ArgCount: 3, Args: [MaxArgs]ArgKind{ArgByte, ArgDword, ArgInteger}}, "Fatal"},
		{Opcode('N'), &Info{Name: "NameString", Flags: FlagNameLead}, "NameString"},
		{Opcode(0x5c), &Info{Name: "NameString", Flags: FlagNameLead}, "NameString"},
		{Opcode(0x02), nil, "unknown(0x02)"},
		{Opcode(0x5b00), nil, "unknown(0x5b00)"},
		{Opcode(0x5b5b), nil, "unknown(0x5b5b)"},
		{Opcode(0x1234), nil, "unknown(0x34)"},
	}

	for specIndex, spec := range specs {
		if diff := cmp.Diff(spec.exp, Lookup(spec.op)); diff != "" {
			t.Errorf("[spec %02d] lookup mismatch (-want +got):\n%s", specIndex, diff)
		}

		if got := spec.op.String(); got != spec.expString {
			t.Errorf("[spec %02d] expected String() to return %q; got %q", specIndex, spec.expString, got)
		}
	}
}

func TestNameLeadEntries(t *testing.T) {
	leads := "\\^_" + string([]byte{byte(DualNamePrefix), byte(MultiNamePrefix)}) + "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	for b := 0; b < 256; b++ {
		exp := strings.IndexByte(leads, byte(b)) != -1
		if got := IsNameLead(byte(b)); got != exp {
			t.Errorf("byte 0x%02x: expected IsNameLead() to return %t; got %t", b, exp, got)
		}

		if !exp {
			continue
		}

		info := Lookup(Opcode(b))
		if info == nil || info.Flags != FlagNameLead || info.Name != "NameString" {
			t.Errorf("byte 0x%02x: expected a NameString table entry; got %+v", b, info)
		}
	}
}

func TestTableConsistency(t *testing.T) {
	check := func(group string, table *[256]Info) {
		for index, info := range table {
			if info.Flags == 0 {
				if info.ArgCount != 0 || info.Name != "" {
					t.Errorf("%s[0x%02x]: absent entry carries data", group, index)
				}
				continue
			}

			for argIndex, kind := range info.Args {
				if used := argIndex < int(info.ArgCount); used != (kind != ArgNone) {
					t.Errorf("%s[0x%02x] %s: arg %d kind %s does not match arg count %d", group, index, info.Name, argIndex, kind, info.ArgCount)
				}
			}
		}
	}

	check("group0", &group0)
	check("group1", &group1)
}

func TestOpcodeHelpers(t *testing.T) {
	if !Local7.IsLocal() || Arg0.IsLocal() {
		t.Error("IsLocal() returned unexpected result")
	}

	if !Arg6.IsArg() || Local7.IsArg() || Opcode(0x6f).IsArg() {
		t.Error("IsArg() returned unexpected result")
	}

	if !Device.IsExtended() || Scope.IsExtended() {
		t.Error("IsExtended() returned unexpected result")
	}

	for _, b := range []byte("_AZ09") {
		if !IsNameChar(b) {
			t.Errorf("expected %q to be a valid name char", b)
		}
	}

	if IsNameChar('a') || IsNameLead('0') {
		t.Error("lowercase letters and digits must not start a name")
	}

	if exp, got := "ObjRef", ArgObjRef.String(); got != exp {
		t.Errorf("expected %q; got %q", exp, got)
	}
}

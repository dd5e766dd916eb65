package table

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSDT(t *testing.T) {
	payload := []byte{0x08, 'F', 'O', 'O', '_', 0x0a, 0x2a}
	raw := Build("DSDT", 2, "AMLVM", "TESTTBL", payload)

	if got := Checksum(raw); got != 0 {
		t.Fatalf("expected built table checksum to be 0; got %d", got)
	}

	tbl, err := ParseSDT(raw)
	if err != nil {
		t.Fatal(err)
	}

	exp := SDTHeader{
		Signature:       [4]byte{'D', 'S', 'D', 'T'},
		Length:          uint32(HeaderLength + len(payload)),
		Revision:        2,
		Checksum:        raw[9],
		OEMID:           [6]byte{'A', 'M', 'L', 'V', 'M', ' '},
		OEMTableID:      [8]byte{'T', 'E', 'S', 'T', 'T', 'B', 'L', ' '},
		OEMRevision:     1,
		CreatorID:       uint32('A') | uint32('M')<<8 | uint32('L')<<16 | uint32('V')<<24,
		CreatorRevision: 1,
	}

	if diff := cmp.Diff(exp, tbl.Header); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}

	if !bytes.Equal(tbl.Data, payload) {
		t.Fatalf("expected payload %x; got %x", payload, tbl.Data)
	}

	if exp, got := "DSDT", tbl.Signature(); got != exp {
		t.Fatalf("expected signature %q; got %q", exp, got)
	}
}

func TestParseSDTErrors(t *testing.T) {
	valid := Build("SSDT", 2, "", "", []byte{0xa3})

	corrupted := append([]byte(nil), valid...)
	corrupted[len(corrupted)-1]++

	specs := []struct {
		input  []byte
		expErr error
	}{
		{valid[:HeaderLength-1], errTableTooShort},
		{append(append([]byte(nil), valid...), 0), errTableLengthMismatch},
		{corrupted, errTableChecksumMismatch},
	}

	for specIndex, spec := range specs {
		if _, err := ParseSDT(spec.input); err != spec.expErr {
			t.Errorf("[spec %02d] expected error %v; got %v", specIndex, spec.expErr, err)
		}
	}
}

func TestMemResolverAdd(t *testing.T) {
	r := make(MemResolver)
	dsdt, _ := ParseSDT(Build("DSDT", 2, "", "", nil))
	ssdtA, _ := ParseSDT(Build("SSDT", 2, "", "A", nil))
	ssdtB, _ := ParseSDT(Build("SSDT", 2, "", "B", nil))

	if exp, got := "DSDT", r.Add(dsdt); got != exp {
		t.Errorf("expected name %q; got %q", exp, got)
	}
	if exp, got := "SSDT1", r.Add(ssdtA); got != exp {
		t.Errorf("expected name %q; got %q", exp, got)
	}
	if exp, got := "SSDT2", r.Add(ssdtB); got != exp {
		t.Errorf("expected name %q; got %q", exp, got)
	}

	if diff := cmp.Diff([]string{"DSDT", "SSDT", "SSDT1", "SSDT2"}, r.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	if r.LookupTable("SSDT") != ssdtA || r.LookupTable("SSDT2") != ssdtB {
		t.Fatal("resolver returned the wrong SSDT instances")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"dsdt.dat":  Build("DSDT", 2, "", "", []byte{0xa3}),
		"ssdt2.dat": Build("SSDT", 2, "", "", []byte{0xa3}),
		"junk.bin":  []byte("not a table"),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var log bytes.Buffer
	r, err := LoadDir(dir, &log)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"DSDT", "SSDT", "SSDT2"}, r.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	if !bytes.Contains(log.Bytes(), []byte("junk.bin")) {
		t.Fatalf("expected invalid file to be reported; got %q", log.String())
	}

	if _, err = LoadDir(t.TempDir(), &log); err != errNoTables {
		t.Fatalf("expected errNoTables for an empty dir; got %v", err)
	}
}

package table

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"amlvm/kernel"
)

var errNoTables = &kernel.Error{Module: "acpi_table", Message: "no ACPI tables found"}

// MemResolver is a Resolver backed by a map of table name to table.
type MemResolver map[string]*SDT

// LookupTable implements Resolver.
func (r MemResolver) LookupTable(name string) *SDT {
	return r[name]
}

// Add registers t under its signature. Repeated signatures are numbered
// (SSDT1, SSDT2, ...) and the first instance is also reachable by the bare
// signature.
func (r MemResolver) Add(t *SDT) string {
	sig := t.Signature()
	if _, exists := r[sig]; !exists {
		r[sig] = t
		if sig != "SSDT" {
			return sig
		}
	}

	for index := 1; ; index++ {
		name := fmt.Sprintf("%s%d", sig, index)
		if _, exists := r[name]; !exists {
			r[name] = t
			return name
		}
	}
}

// Names returns the sorted list of names known to the resolver.
func (r MemResolver) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadDir reads every regular file in dir (e.g. /sys/firmware/acpi/tables or
// the output of "acpidump -b") and returns a resolver for the tables that
// could be decoded. Files that are not valid ACPI tables are reported to w
// and skipped.
func LoadDir(dir string, w io.Writer) (MemResolver, *kernel.Error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &kernel.Error{Module: "acpi_table", Message: err.Error()}
	}

	r := make(MemResolver)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "%s: %v [skipping]\n", path, err)
			continue
		}

		t, kerr := ParseSDT(data)
		if kerr != nil {
			fmt.Fprintf(w, "%s: %s [skipping]\n", path, kerr.Message)
			continue
		}

		// Files produced by acpidump are named after the table
		// (dsdt.dat, ssdt3.dat); prefer that name if it matches the
		// signature so SSDT ordering is preserved.
		name := strings.ToUpper(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
		if sig := t.Signature(); name != sig && strings.HasPrefix(name, sig) && r[name] == nil {
			r[name] = t
			if r[sig] == nil {
				r[sig] = t
			}
			continue
		}
		r.Add(t)
	}

	if len(r) == 0 {
		return nil, errNoTables
	}

	return r, nil
}

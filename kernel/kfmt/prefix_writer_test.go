package kfmt

import (
	"bytes"
	"errors"
	"testing"
)

func TestPrefixWriter(t *testing.T) {
	specs := []struct {
		writes []string
		exp    string
	}{
		{nil, ""},
		{[]string{""}, ""},
		{[]string{"\n"}, "[acpi] \n"},
		{[]string{"loaded DSDT"}, "[acpi] loaded DSDT"},
		{[]string{"loaded DSDT\n"}, "[acpi] loaded DSDT\n"},
		{
			[]string{"\nDSDT rev 2\nSSDT rev 1\nloaded"},
			"[acpi] \n[acpi] DSDT rev 2\n[acpi] SSDT rev 1\n[acpi] loaded",
		},
		{
			[]string{"DSDT ", "rev 2\n", "SSDT", " rev 1\n"},
			"[acpi] DSDT rev 2\n[acpi] SSDT rev 1\n",
		},
	}

	for specIndex, spec := range specs {
		var (
			buf bytes.Buffer
			w   = PrefixWriter{Sink: &buf, Prefix: []byte("[acpi] ")}
		)

		for _, in := range spec.writes {
			wrote, err := w.Write([]byte(in))
			if err != nil {
				t.Errorf("[spec %02d] unexpected error: %v", specIndex, err)
			}
			if wrote != len(in) {
				t.Errorf("[spec %02d] expected writer to report %d bytes; got %d", specIndex, len(in), wrote)
			}
		}

		if got := buf.String(); got != spec.exp {
			t.Errorf("[spec %02d] expected output:\n%q\ngot:\n%q", specIndex, spec.exp, got)
		}
	}
}

func TestPrefixWriterErrors(t *testing.T) {
	expErr := errors.New("write failed")

	specs := []struct {
		sink   *failingWriter
		input  string
		expN   int
		expErr error
	}{
		// prefix write fails
		{&failingWriter{failAt: 1, err: expErr}, "no line feed", 0, expErr},
		// second line fails after the first one got through
		{&failingWriter{failAt: 4, err: expErr}, "line\nanother\n", 5, expErr},
	}

	for specIndex, spec := range specs {
		w := PrefixWriter{Sink: spec.sink, Prefix: []byte("> ")}
		n, err := w.Write([]byte(spec.input))
		if err != spec.expErr {
			t.Errorf("[spec %02d] expected error %v; got %v", specIndex, spec.expErr, err)
		}
		if n != spec.expN {
			t.Errorf("[spec %02d] expected %d bytes to be reported; got %d", specIndex, spec.expN, n)
		}
	}
}

func TestPrefixWriterSetPrefix(t *testing.T) {
	var (
		buf bytes.Buffer
		w   = PrefixWriter{Sink: &buf}
	)

	w.SetPrefix("[hal] %s(%d.%d.%d): ", "ACPI", 0, 0, 1)
	w.Write([]byte("partial"))
	w.SetPrefix("[%s] ", "debug")
	w.Write([]byte("line\n"))

	if exp, got := "[hal] ACPI(0.0.1): partial[debug] line\n", buf.String(); got != exp {
		t.Fatalf("expected output %q; got %q", exp, got)
	}
}

// failingWriter returns err on its failAt-th call to Write (1-based).
type failingWriter struct {
	calls  int
	failAt int
	err    error
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.calls == w.failAt {
		return 0, w.err
	}
	return len(p), nil
}

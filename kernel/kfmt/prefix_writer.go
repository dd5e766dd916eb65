package kfmt

import (
	"bytes"
	"fmt"
	"io"
)

// PrefixWriter wraps an io.Writer and injects Prefix at the start of every
// line written through it. The hal package uses it to tag driver output
// with the driver name.
type PrefixWriter struct {
	Sink   io.Writer
	Prefix []byte

	// midLine is set when the last write did not end with a line feed.
	midLine bool
}

// SetPrefix replaces the line prefix with the result of formatting args
// according to format. The next write starts a fresh line.
func (w *PrefixWriter) SetPrefix(format string, args ...interface{}) {
	w.Prefix = append(w.Prefix[:0], fmt.Sprintf(format, args...)...)
	w.midLine = false
}

// Write implements io.Writer. The returned count excludes injected
// prefixes so callers see the usual len(p) on success.
func (w *PrefixWriter) Write(p []byte) (int, error) {
	var written int

	for len(p) != 0 {
		if !w.midLine {
			if _, err := w.Sink.Write(w.Prefix); err != nil {
				return written, err
			}
			w.midLine = true
		}

		line := p
		if idx := bytes.IndexByte(p, '\n'); idx != -1 {
			line = p[:idx+1]
			w.midLine = false
		}

		n, err := w.Sink.Write(line)
		written += n
		if err != nil {
			return written, err
		}
		p = p[len(line):]
	}

	return written, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"amlvm/device/acpi"
	"amlvm/device/acpi/aml"
	"amlvm/device/acpi/aml/entity"

	"github.com/peterh/liner"
	"gopkg.in/yaml.v3"
)

const (
	promptMain = "amlsh> "

	formatText = "text"
	formatYAML = "yaml"
)

var (
	errQuit          = errors.New("quit")
	errUnknownFormat = errors.New("unknown dump format; expected text or yaml")
	errMissingPath   = errors.New("missing object path")
)

const helpText = `commands:
  eval PATH [ARG...]   evaluate an object; ARGs are integers or "strings"
  PATH [ARG...]        shorthand for eval
  dump [PATH]          print the namespace rooted at PATH (default \)
  devices              list devices with their _HID and _STA values
  debug                print the output written to the Debug object
  format text|yaml     select the dump format
  help                 show this message
  quit                 exit the shell
`

// shell executes amlsh commands against an ACPI driver.
type shell struct {
	drv    *acpi.Driver
	out    io.Writer
	format string
}

func newShell(drv *acpi.Driver, out io.Writer, format string) *shell {
	return &shell{drv: drv, out: out, format: format}
}

// exec runs a single command line. It returns errQuit when the user asks
// to leave the shell.
func (sh *shell) exec(line string) error {
	fields, err := splitArgs(line)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}

	switch cmd, args := fields[0], fields[1:]; cmd {
	case "quit", "exit":
		return errQuit
	case "help":
		_, err = io.WriteString(sh.out, helpText)
		return err
	case "eval":
		if len(args) == 0 {
			return errMissingPath
		}
		return sh.eval(args[0], args[1:])
	case "dump":
		path := `\`
		if len(args) != 0 {
			path = args[0]
		}
		return sh.dump(path)
	case "devices":
		return sh.devices()
	case "debug":
		_, err = io.WriteString(sh.out, sh.drv.DebugOutput())
		return err
	case "format":
		if len(args) != 1 || (args[0] != formatText && args[0] != formatYAML) {
			return errUnknownFormat
		}
		sh.format = args[0]
		return nil
	default:
		if strings.HasPrefix(cmd, `\`) {
			return sh.eval(cmd, args)
		}
		return fmt.Errorf("unknown command %q; type help for a list of commands", cmd)
	}
}

// eval evaluates the object at path and prints the result followed by any
// Debug object output it produced.
func (sh *shell) eval(path string, rawArgs []string) error {
	args := make([]entity.Value, len(rawArgs))
	for i, raw := range rawArgs {
		arg, err := parseArg(raw)
		if err != nil {
			return err
		}
		args[i] = arg
	}

	val, err := sh.drv.Evaluate(context.Background(), path, args...)
	if debug := sh.drv.DebugOutput(); debug != "" {
		io.WriteString(sh.out, debug)
	}
	if err != nil {
		var amlErr *aml.Error
		if errors.As(err, &amlErr) {
			return fmt.Errorf("%w\n%s", err, amlErr.StackTrace())
		}
		return err
	}

	_, err = fmt.Fprintln(sh.out, aml.FormatValue(val))
	return err
}

func (sh *shell) dump(path string) error {
	snap := sh.drv.Snapshot(path)
	if snap == nil {
		return fmt.Errorf("unable to resolve %q", path)
	}
	return writeSnapshot(sh.out, snap, sh.format)
}

func (sh *shell) devices() error {
	list, err := sh.drv.Devices()
	if err != nil {
		return err
	}

	for _, dev := range list {
		hid := dev.HID
		if hid == "" {
			hid = "-"
		}
		if _, err = fmt.Fprintf(sh.out, "%-24s %-10s sta 0x%02x\n", dev.Path, hid, dev.Status); err != nil {
			return err
		}
	}
	return nil
}

// writeSnapshot renders snap in the requested format.
func writeSnapshot(w io.Writer, snap *aml.Snapshot, format string) error {
	switch format {
	case formatText:
		_, err := snap.WriteTo(w)
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errUnknownFormat
	}
}

// parseArg converts a command line argument to an AML value. Quoted
// arguments are strings; anything else must be an integer in Go syntax.
func parseArg(raw string) (entity.Value, error) {
	if strings.HasPrefix(raw, `"`) {
		s, err := strconv.Unquote(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid string argument %s", raw)
		}
		return entity.String(s), nil
	}

	v, err := strconv.ParseUint(raw, 0, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid integer argument %q", raw)
	}
	return entity.Integer(v), nil
}

// splitArgs splits line at whitespace. Double-quoted sections are kept
// together, quotes included, so parseArg can tell strings from integers.
func splitArgs(line string) ([]string, error) {
	var (
		fields  []string
		cur     strings.Builder
		inQuote bool
		escaped bool
	)

	for _, r := range line {
		switch {
		case escaped:
			escaped = false
		case inQuote && r == '\\':
			escaped = true
		case r == '"':
			inQuote = !inQuote
		case !inQuote && (r == ' ' || r == '\t'):
			if cur.Len() != 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteRune(r)
	}

	if inQuote {
		return nil, errors.New("unterminated string argument")
	}
	if cur.Len() != 0 {
		fields = append(fields, cur.String())
	}
	return fields, nil
}

// completions returns the commands and namespace paths that start with
// the last word of line.
func (sh *shell) completions(line string) []string {
	idx := strings.LastIndexByte(line, ' ') + 1
	head, word := line[:idx], line[idx:]

	var candidates []string
	if idx == 0 {
		candidates = []string{"debug", "devices", "dump", "eval", "format", "help", "quit"}
	}
	if strings.HasPrefix(word, `\`) || idx != 0 {
		if root := sh.drv.Snapshot(`\`); root != nil {
			candidates = appendPaths(candidates, root, "")
		}
	}

	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(c, word) {
			out = append(out, head+c)
		}
	}
	sort.Strings(out)
	return out
}

func appendPaths(list []string, snap *aml.Snapshot, parent string) []string {
	path := `\`
	switch parent {
	case "":
	case `\`:
		path = parent + snap.Name
	default:
		path = parent + "." + snap.Name
	}

	list = append(list, path)
	for _, child := range snap.Children {
		list = appendPaths(list, child, path)
	}
	return list
}

// repl runs an interactive session until the user quits or closes the
// input. The history is loaded from and saved to historyPath if set.
func (sh *shell) repl(historyPath string, errOut io.Writer) error {
	ln := liner.NewLiner()
	defer ln.Close()

	ln.SetCtrlCAborts(true)
	ln.SetCompleter(sh.completions)

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}

		defer func() {
			if f, err := os.Create(historyPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	for {
		line, err := ln.Prompt(promptMain)
		switch {
		case errors.Is(err, io.EOF):
			fmt.Fprintln(sh.out)
			return nil
		case errors.Is(err, liner.ErrPromptAborted):
			continue
		case err != nil:
			return err
		}

		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)

		if err = sh.exec(line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
	}
}

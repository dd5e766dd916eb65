// Command amlsh loads the ACPI tables of a machine (or a directory of table
// dumps) into the AML interpreter and evaluates namespace objects, either
// from the command line or from an interactive shell.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"amlvm/device/acpi"
	"amlvm/device/acpi/table"
	"amlvm/kernel/hal"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("amlsh", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: amlsh [flags] [ARG...]\n\n")
		fs.PrintDefaults()
	}

	var (
		configPath = fs.String("config", "", "path to a TOML configuration file")
		tablesDir  = fs.String("tables", "", "directory with raw ACPI table dumps (overrides the configuration)")
		evalPath   = fs.String("eval", "", "evaluate the object at `PATH` with the remaining arguments and exit")
		dump       = fs.Bool("dump", false, "print the namespace and exit")
		format     = fs.String("format", formatText, "namespace dump format: text or yaml")
	)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *format != formatText && *format != formatYAML {
		fmt.Fprintf(stderr, "amlsh: %v\n", errUnknownFormat)
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "amlsh: %v\n", err)
		return 1
	}
	if *tablesDir != "" {
		cfg.Tables = *tablesDir
	}

	drv, err := initDriver(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "amlsh: %v\n", err)
		return 1
	}

	sh := newShell(drv, stdout, *format)
	switch {
	case *evalPath != "":
		err = sh.eval(*evalPath, fs.Args())
	case *dump:
		err = sh.dump(`\`)
	default:
		err = sh.repl(cfg.historyPath(), stderr)
	}

	if err != nil {
		fmt.Fprintf(stderr, "amlsh: %v\n", err)
		return 1
	}
	return 0
}

// initDriver loads the tables from the configured directory and runs the
// driver detection sequence. Driver output is written to w.
func initDriver(cfg config, w io.Writer) (*acpi.Driver, error) {
	resolver, kerr := table.LoadDir(cfg.Tables, w)
	if kerr != nil {
		return nil, kerr
	}

	acpi.Register(resolver, cfg.amlConfig())
	hal.DetectHardware(w)

	// The most recently registered ACPI driver is the one backed by
	// resolver.
	active := hal.ActiveDrivers()
	for i := len(active) - 1; i >= 0; i-- {
		if drv, ok := active[i].(*acpi.Driver); ok {
			return drv, nil
		}
	}
	return nil, errors.New("ACPI driver failed to initialize")
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"amlvm/device/acpi/aml"

	"github.com/BurntSushi/toml"
)

// config holds the settings read from the amlsh configuration file.
type config struct {
	// Tables is a directory with raw ACPI table dumps.
	Tables string `toml:"tables"`

	DefaultScopes     bool     `toml:"default_scopes"`
	MaxCallDepth      int      `toml:"max_call_depth"`
	MaxLoopIterations uint64   `toml:"max_loop_iterations"`
	OSI               []string `toml:"osi"`

	// History is the file used to persist the shell history. An empty
	// value disables persistence.
	History string `toml:"history"`
}

func defaultConfig() config {
	return config{
		Tables:        "/sys/firmware/acpi/tables",
		DefaultScopes: true,
		MaxCallDepth:  aml.DefaultMaxCallDepth,
		OSI:           []string{"Windows 2015", "Linux"},
		History:       "~/.amlsh_history",
	}
}

// loadConfig decodes the TOML file at path on top of the default settings.
// An empty path returns the defaults. Unknown keys are reported as errors.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		sort.Strings(keys)
		return cfg, fmt.Errorf("%s: unknown configuration keys: %s", path, strings.Join(keys, ", "))
	}

	return cfg, nil
}

// amlConfig returns the interpreter settings.
func (c config) amlConfig() aml.Config {
	return aml.Config{
		MaxCallDepth:      c.MaxCallDepth,
		MaxLoopIterations: c.MaxLoopIterations,
		DefaultScopes:     c.DefaultScopes,
		OSI:               c.OSI,
	}
}

// historyPath expands a leading "~/" in the history setting.
func (c config) historyPath() string {
	if !strings.HasPrefix(c.History, "~/") {
		return c.History
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, c.History[2:])
}

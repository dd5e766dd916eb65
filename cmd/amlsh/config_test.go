package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"amlvm/device/acpi/aml"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	specs := []struct {
		contents string
		exp      config
		expErr   string
	}{
		{
			"",
			defaultConfig(),
			"",
		},
		{
			`
tables = "/tmp/tables"
default_scopes = false
max_call_depth = 32
max_loop_iterations = 1000
osi = ["Linux"]
history = ""
`,
			config{
				Tables:            "/tmp/tables",
				MaxCallDepth:      32,
				MaxLoopIterations: 1000,
				OSI:               []string{"Linux"},
			},
			"",
		},
		{
			`max_call_depth = 8`,
			func() config {
				cfg := defaultConfig()
				cfg.MaxCallDepth = 8
				return cfg
			}(),
			"",
		},
		{
			"tables = \"/tmp\"\nverbose = true\nlog_level = 2\n",
			config{},
			"unknown configuration keys: log_level, verbose",
		},
		{
			"max_call_depth = \"deep\"",
			config{},
			"incompatible types",
		},
	}

	for specIndex, spec := range specs {
		path := writeFile(t, dir, "amlsh.toml", spec.contents)

		got, err := loadConfig(path)
		if spec.expErr != "" {
			if err == nil || !strings.Contains(err.Error(), spec.expErr) {
				t.Errorf("[spec %02d] expected error containing %q; got %v", specIndex, spec.expErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("[spec %02d] unexpected error: %v", specIndex, err)
			continue
		}
		if diff := cmp.Diff(spec.exp, got); diff != "" {
			t.Errorf("[spec %02d] config mismatch (-want +got):\n%s", specIndex, diff)
		}
	}

	if _, err := loadConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("expected an error for a missing configuration file")
	}
	if got, err := loadConfig(""); err != nil || got.Tables != defaultConfig().Tables {
		t.Errorf("expected the defaults for an empty path; got %+v (err: %v)", got, err)
	}
}

func TestConfigAMLConfig(t *testing.T) {
	cfg := config{MaxCallDepth: 12, MaxLoopIterations: 99, DefaultScopes: true, OSI: []string{"Linux"}}

	exp := aml.Config{MaxCallDepth: 12, MaxLoopIterations: 99, DefaultScopes: true, OSI: []string{"Linux"}}
	if diff := cmp.Diff(exp, cfg.amlConfig()); diff != "" {
		t.Fatalf("aml config mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	specs := []struct {
		history string
		exp     string
	}{
		{"", ""},
		{"/var/tmp/history", "/var/tmp/history"},
		{"~/.amlsh_history", filepath.Join(home, ".amlsh_history")},
	}

	for specIndex, spec := range specs {
		if got := (config{History: spec.history}).historyPath(); got != spec.exp {
			t.Errorf("[spec %02d] expected %q; got %q", specIndex, spec.exp, got)
		}
	}
}

package config

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Partition defaults
	if cfg.Partition.Strategy != StrategyMaterial {
		t.Errorf("expected strategy material, got %s", cfg.Partition.Strategy)
	}
	if cfg.Partition.Budget != 12000 {
		t.Errorf("expected budget 12000, got %d", cfg.Partition.Budget)
	}
	if cfg.Partition.GridCols != 4 || cfg.Partition.GridRows != 4 {
		t.Errorf("expected 4x4 grid, got %dx%d", cfg.Partition.GridCols, cfg.Partition.GridRows)
	}

	// Resolve defaults
	if cfg.Resolve.HardCeiling != 60000 {
		t.Errorf("expected hard ceiling 60000, got %d", cfg.Resolve.HardCeiling)
	}
	if cfg.Resolve.FormatLimit != 65534 {
		t.Errorf("expected format limit 65534, got %d", cfg.Resolve.FormatLimit)
	}
	if cfg.Resolve.MaxBisections != 3 {
		t.Errorf("expected 3 bisections, got %d", cfg.Resolve.MaxBisections)
	}
	if cfg.Resolve.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %v", cfg.Resolve.Timeout)
	}

	// Epsilons
	if cfg.Hygiene.MergeEpsilon != 0.0001 {
		t.Errorf("expected merge epsilon 0.0001, got %g", cfg.Hygiene.MergeEpsilon)
	}
	if !cfg.Hygiene.PreWeld {
		t.Error("expected pre_weld to be true by default")
	}
	if cfg.Transfer.MatchEpsilon != 0.001 {
		t.Errorf("expected match epsilon 0.001, got %g", cfg.Transfer.MatchEpsilon)
	}

	if cfg.Runtime.Workers != 1 {
		t.Errorf("expected 1 worker, got %d", cfg.Runtime.Workers)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
partition:
  strategy: grid
  budget: 8000
  grid_cols: 2
  grid_rows: 3

resolve:
  hard_ceiling: 50000
  max_bisections: 2
  timeout: 5s

hygiene:
  merge_epsilon: 0.001
  pre_weld: false

runtime:
  workers: 4

logging:
  level: "debug"
  log_file: "meshsplit.log"
  format: json
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Partition.Strategy != StrategyGrid {
		t.Errorf("expected strategy grid, got %s", cfg.Partition.Strategy)
	}
	if cfg.Partition.Budget != 8000 {
		t.Errorf("expected budget 8000, got %d", cfg.Partition.Budget)
	}
	if cfg.Partition.GridCols != 2 || cfg.Partition.GridRows != 3 {
		t.Errorf("expected 2x3 grid, got %dx%d", cfg.Partition.GridCols, cfg.Partition.GridRows)
	}
	if cfg.Resolve.HardCeiling != 50000 {
		t.Errorf("expected hard ceiling 50000, got %d", cfg.Resolve.HardCeiling)
	}
	if cfg.Resolve.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Resolve.Timeout)
	}
	if cfg.Hygiene.PreWeld {
		t.Error("expected pre_weld to be false")
	}
	if cfg.Runtime.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Runtime.Workers)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected json format, got %s", cfg.Logging.Format)
	}

	// Untouched keys keep their defaults
	if cfg.Resolve.FormatLimit != 65534 {
		t.Errorf("expected default format limit, got %d", cfg.Resolve.FormatLimit)
	}
	if cfg.Transfer.MatchEpsilon != 0.001 {
		t.Errorf("expected default match epsilon, got %g", cfg.Transfer.MatchEpsilon)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
partition:
  budget: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"strategy", func(c *Config) { c.Partition.Strategy = "octree" }, "partition.strategy"},
		{"budget", func(c *Config) { c.Partition.Budget = 0 }, "partition.budget"},
		{"grid", func(c *Config) { c.Partition.GridRows = 0 }, "partition grid"},
		{"ceiling too small", func(c *Config) { c.Resolve.HardCeiling = 2 }, "resolve.hard_ceiling"},
		{"ceiling above format", func(c *Config) { c.Resolve.HardCeiling = 70000 }, "format_limit"},
		{"collapse target", func(c *Config) { c.Resolve.CollapseTarget = 1.5 }, "collapse_target"},
		{"collapse ratio", func(c *Config) { c.Resolve.MaxCollapseRatio = 1 }, "max_collapse_ratio"},
		{"merge epsilon", func(c *Config) { c.Hygiene.MergeEpsilon = 0 }, "merge_epsilon"},
		{"match epsilon", func(c *Config) { c.Transfer.MatchEpsilon = -1 }, "match_epsilon"},
		{"workers", func(c *Config) { c.Runtime.Workers = 0 }, "runtime.workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention %s", err, tt.field)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	// No config file exists - should return empty
	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "meshsplit.yaml")
	if err := os.WriteFile(configPath, []byte("partition:\n  budget: 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find meshsplit.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "budget and ceiling",
			args: []string{"-budget", "5000", "-ceiling", "20000"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Partition.Budget != 5000 {
					t.Errorf("expected budget 5000, got %d", cfg.Partition.Budget)
				}
				if cfg.Resolve.HardCeiling != 20000 {
					t.Errorf("expected ceiling 20000, got %d", cfg.Resolve.HardCeiling)
				}
			},
		},
		{
			name: "strategy, workers and output",
			args: []string{"-strategy", "grid", "-workers", "8", "-out", "/tmp/frags"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Partition.Strategy != StrategyGrid {
					t.Errorf("expected grid strategy, got %s", cfg.Partition.Strategy)
				}
				if cfg.Runtime.Workers != 8 {
					t.Errorf("expected 8 workers, got %d", cfg.Runtime.Workers)
				}
				if cfg.Output.Dir != "/tmp/frags" {
					t.Errorf("expected output /tmp/frags, got %s", cfg.Output.Dir)
				}
			},
		},
		{
			name: "zero values leave defaults",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Partition.Budget != 12000 {
					t.Errorf("expected default budget, got %d", cfg.Partition.Budget)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flags Flags
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			flags.Register(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("parse failed: %v", err)
			}

			cfg := Default()
			flags.applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
partition:
  budget: 9000
resolve:
  hard_ceiling: 40000
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	flags := &Flags{Config: configPath, Budget: 3000}
	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Budget should be from flag (3000), not file (9000)
	if cfg.Partition.Budget != 3000 {
		t.Errorf("expected budget 3000 from flag, got %d", cfg.Partition.Budget)
	}

	// Ceiling should be from file (40000) since no flag override
	if cfg.Resolve.HardCeiling != 40000 {
		t.Errorf("expected ceiling 40000 from file, got %d", cfg.Resolve.HardCeiling)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	flags := &Flags{Config: filepath.Join(t.TempDir(), "none.yaml")}
	if _, err := Load(flags); err == nil {
		t.Error("expected error for missing explicit config file")
	}

	tmp := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(tmp, []byte("resolve:\n  hard_ceiling: 99999\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(&Flags{Config: tmp}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Partition.Budget = 4321
	cfg.Resolve.Timeout = 2 * time.Minute
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Partition.Budget != 4321 {
		t.Errorf("expected budget 4321, got %d", loaded.Partition.Budget)
	}
	if loaded.Resolve.Timeout != 2*time.Minute {
		t.Errorf("expected timeout 2m, got %v", loaded.Resolve.Timeout)
	}

	var buf bytes.Buffer
	if err := cfg.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "budget: 4321") {
		t.Errorf("encoded config missing budget:\n%s", buf.String())
	}
}

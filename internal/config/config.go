// Package config handles meshsplit configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Partition strategies.
const (
	StrategyMaterial = "material"
	StrategyGrid     = "grid"
)

// Config holds all settings.
type Config struct {
	Partition PartitionConfig `yaml:"partition"`
	Resolve   ResolveConfig   `yaml:"resolve"`
	Hygiene   HygieneConfig   `yaml:"hygiene"`
	Transfer  TransferConfig  `yaml:"transfer"`
	Runtime   RuntimeConfig   `yaml:"runtime"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// PartitionConfig selects how vertex groups are formed.
type PartitionConfig struct {
	Strategy      string  `yaml:"strategy"` // material or grid
	Budget        int     `yaml:"budget"`   // soft vertex budget B
	GridCols      int     `yaml:"grid_cols"`
	GridRows      int     `yaml:"grid_rows"`
	SeamThreshold float64 `yaml:"seam_threshold"` // grid strategy only
}

// ResolveConfig holds hard-ceiling enforcement settings.
type ResolveConfig struct {
	HardCeiling      int           `yaml:"hard_ceiling"`
	FormatLimit      int           `yaml:"format_limit"` // ceiling may never exceed this
	MaxBisections    int           `yaml:"max_bisections"`
	PlanarAngleDeg   float64       `yaml:"planar_angle_deg"`
	CollapseTarget   float64       `yaml:"collapse_target"`
	MaxCollapseRatio float64       `yaml:"max_collapse_ratio"`
	Timeout          time.Duration `yaml:"timeout"` // per fragment, 0 = none
}

// HygieneConfig holds vertex welding settings.
type HygieneConfig struct {
	MergeEpsilon float64 `yaml:"merge_epsilon"`
	PreWeld      bool    `yaml:"pre_weld"` // weld the source before splitting
}

// TransferConfig holds material transfer settings.
type TransferConfig struct {
	MatchEpsilon float64 `yaml:"match_epsilon"`
}

// RuntimeConfig holds execution settings.
type RuntimeConfig struct {
	Workers int `yaml:"workers"` // 1 = sequential
}

// OutputConfig holds artifact settings for the CLI.
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	WriteGLB    bool   `yaml:"write_glb"`
	WriteReport bool   `yaml:"write_report"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	Format  string `yaml:"format"` // console or json
}

// Default returns a Config with the reference settings.
func Default() *Config {
	return &Config{
		Partition: PartitionConfig{
			Strategy:      StrategyMaterial,
			Budget:        12000,
			GridCols:      4,
			GridRows:      4,
			SeamThreshold: 0.0001,
		},
		Resolve: ResolveConfig{
			HardCeiling:      60000,
			FormatLimit:      65534,
			MaxBisections:    3,
			PlanarAngleDeg:   5,
			CollapseTarget:   0.9,
			MaxCollapseRatio: 0.95,
			Timeout:          30 * time.Second,
		},
		Hygiene: HygieneConfig{
			MergeEpsilon: 0.0001,
			PreWeld:      true,
		},
		Transfer: TransferConfig{
			MatchEpsilon: 0.001,
		},
		Runtime: RuntimeConfig{
			Workers: 1,
		},
		Output: OutputConfig{
			Dir:         "out",
			WriteGLB:    true,
			WriteReport: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
			Format:  "console",
		},
	}
}

// Validate checks that settings are usable.
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	p, r := c.Partition, c.Resolve
	check(p.Strategy == StrategyMaterial || p.Strategy == StrategyGrid,
		"partition.strategy %q must be %q or %q", p.Strategy, StrategyMaterial, StrategyGrid)
	check(p.Budget >= 1, "partition.budget %d must be at least 1", p.Budget)
	check(p.GridCols >= 1 && p.GridRows >= 1, "partition grid %dx%d must be at least 1x1", p.GridCols, p.GridRows)
	check(p.SeamThreshold >= 0, "partition.seam_threshold must not be negative")
	check(r.HardCeiling >= 3, "resolve.hard_ceiling %d must be at least 3", r.HardCeiling)
	check(r.HardCeiling <= r.FormatLimit, "resolve.hard_ceiling %d exceeds format_limit %d", r.HardCeiling, r.FormatLimit)
	check(r.MaxBisections >= 0, "resolve.max_bisections must not be negative")
	check(r.CollapseTarget > 0 && r.CollapseTarget <= 1, "resolve.collapse_target %g must be in (0, 1]", r.CollapseTarget)
	check(r.MaxCollapseRatio > 0 && r.MaxCollapseRatio < 1, "resolve.max_collapse_ratio %g must be in (0, 1)", r.MaxCollapseRatio)
	check(r.Timeout >= 0, "resolve.timeout must not be negative")
	check(c.Hygiene.MergeEpsilon > 0, "hygiene.merge_epsilon must be positive")
	check(c.Transfer.MatchEpsilon > 0, "transfer.match_epsilon must be positive")
	check(c.Runtime.Workers >= 1, "runtime.workers %d must be at least 1", c.Runtime.Workers)

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}

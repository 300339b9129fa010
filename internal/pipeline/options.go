package pipeline

import (
	"errors"
	"fmt"
	gomath "math"
	"time"

	"github.com/Faultbox/meshsplit/internal/config"
	"github.com/Faultbox/meshsplit/pkg/resolve"
)

// ErrInvalidOptions is returned by Run for unusable options.
var ErrInvalidOptions = errors.New("invalid pipeline options")

// Options configures a run.
type Options struct {
	Strategy string // config.StrategyMaterial or config.StrategyGrid
	Budget   int
	GridCols int
	GridRows int
	Seam     float64

	PreWeld      bool
	MergeEpsilon float64
	MatchEpsilon float64

	Resolve resolve.Options
	Timeout time.Duration // per fragment, 0 = none
	Workers int
}

// DefaultOptions returns the reference settings: material strategy, B=12000,
// H=60000, sequential.
func DefaultOptions() Options {
	return FromConfig(config.Default())
}

// FromConfig maps a loaded configuration onto run options.
func FromConfig(cfg *config.Config) Options {
	return Options{
		Strategy:     cfg.Partition.Strategy,
		Budget:       cfg.Partition.Budget,
		GridCols:     cfg.Partition.GridCols,
		GridRows:     cfg.Partition.GridRows,
		Seam:         cfg.Partition.SeamThreshold,
		PreWeld:      cfg.Hygiene.PreWeld,
		MergeEpsilon: cfg.Hygiene.MergeEpsilon,
		MatchEpsilon: cfg.Transfer.MatchEpsilon,
		Resolve: resolve.Options{
			HardCeiling:      cfg.Resolve.HardCeiling,
			MergeEpsilon:     cfg.Hygiene.MergeEpsilon,
			MaxBisections:    cfg.Resolve.MaxBisections,
			PlanarAngle:      cfg.Resolve.PlanarAngleDeg * gomath.Pi / 180,
			CollapseTarget:   cfg.Resolve.CollapseTarget,
			MaxCollapseRatio: cfg.Resolve.MaxCollapseRatio,
		},
		Timeout: cfg.Resolve.Timeout,
		Workers: cfg.Runtime.Workers,
	}
}

func (o Options) validate() error {
	if o.Strategy != config.StrategyMaterial && o.Strategy != config.StrategyGrid {
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidOptions, o.Strategy)
	}
	if o.Workers < 1 {
		return fmt.Errorf("%w: workers %d", ErrInvalidOptions, o.Workers)
	}
	if o.MatchEpsilon <= 0 {
		return fmt.Errorf("%w: match epsilon must be positive", ErrInvalidOptions)
	}
	if err := o.Resolve.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}

// Package resolve enforces a hard vertex ceiling on mesh fragments.
//
// Each fragment moves through a small state machine: it is cleaned, accepted
// if it fits, otherwise bisected along bounding-box planes, and as a last
// resort decimated. Bisection depth and decimation rounds are capped, and the
// whole walk honors the caller's context.
package resolve

import (
	"context"
	"errors"
	"fmt"
	gomath "math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshsplit/pkg/math"
	"github.com/Faultbox/meshsplit/pkg/mesh"
)

var (
	// ErrCeilingExceeded marks a piece still above the ceiling after every
	// bisection and decimation attempt. It is reported, never fatal.
	ErrCeilingExceeded = errors.New("fragment exceeds hard ceiling")

	// ErrInvalidOptions is returned by Options.Validate.
	ErrInvalidOptions = errors.New("invalid resolve options")
)

// Axis preference for bisection: height first, then the horizontal axes.
var axisOrder = [3]int{math.AxisZ, math.AxisX, math.AxisY}

// Split positions tried along each axis, as fractions of the box extent.
var splitPositions = [3]float64{1.0 / 2.0, 1.0 / 3.0, 2.0 / 3.0}

// maxCollapseRounds caps the stepped collapse loop in ForcedDecimation.
const maxCollapseRounds = 64

// State is a step of the per-fragment state machine.
type State int

const (
	StateClean State = iota
	StateAccepted
	StateNeedsBisection
	StateForcedDecimation
	StateExceeded
)

var stateNames = map[State]string{
	StateClean:            "clean",
	StateAccepted:         "accepted",
	StateNeedsBisection:   "needs_bisection",
	StateForcedDecimation: "forced_decimation",
	StateExceeded:         "exceeded",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText writes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(text []byte) error {
	for st, name := range stateNames {
		if name == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Options configures a Resolver.
type Options struct {
	HardCeiling      int     // H: maximum vertices per piece
	MergeEpsilon     float64 // weld distance for the hygiene step
	MaxBisections    int     // bisection depth per lineage
	PlanarAngle      float64 // radians, for planar dissolve
	CollapseTarget   float64 // fraction of H aimed at by edge collapse
	MaxCollapseRatio float64 // upper bound of the kept fraction per collapse step
}

// DefaultOptions returns the reference settings.
func DefaultOptions() Options {
	return Options{
		HardCeiling:      60000,
		MergeEpsilon:     0.0001,
		MaxBisections:    3,
		PlanarAngle:      5 * gomath.Pi / 180,
		CollapseTarget:   0.9,
		MaxCollapseRatio: 0.95,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	switch {
	case o.HardCeiling < 3:
		return fmt.Errorf("%w: hard ceiling %d below 3", ErrInvalidOptions, o.HardCeiling)
	case o.MergeEpsilon < 0:
		return fmt.Errorf("%w: negative merge epsilon", ErrInvalidOptions)
	case o.MaxBisections < 0:
		return fmt.Errorf("%w: negative bisection count", ErrInvalidOptions)
	case o.CollapseTarget <= 0 || o.CollapseTarget > 1:
		return fmt.Errorf("%w: collapse target %g not in (0, 1]", ErrInvalidOptions, o.CollapseTarget)
	case o.MaxCollapseRatio <= 0 || o.MaxCollapseRatio >= 1:
		return fmt.Errorf("%w: collapse ratio %g not in (0, 1)", ErrInvalidOptions, o.MaxCollapseRatio)
	}
	return nil
}

// Report describes how one output piece was produced.
type Report struct {
	Path            string `yaml:"path,omitempty"`
	VerticesIn      int    `yaml:"vertices_in"`
	VerticesOut     int    `yaml:"vertices_out"`
	Merged          int    `yaml:"merged"`
	DegenerateFaces int    `yaml:"degenerate_faces"`
	Unreferenced    int    `yaml:"unreferenced"`
	Bisections      int    `yaml:"bisections"`
	Decimated       bool   `yaml:"decimated"`
	PlanarRemoved   int    `yaml:"planar_removed,omitempty"`
	CollapseRemoved int    `yaml:"collapse_removed,omitempty"`
	Exceeded        bool   `yaml:"exceeded"`
	State           State  `yaml:"state"`
}

// Piece is one output mesh of Resolve.
type Piece struct {
	Mesh   *mesh.Mesh
	Report Report
}

// Err returns ErrCeilingExceeded, wrapped with the piece's counts, if the
// piece is over the ceiling.
func (p Piece) Err() error {
	if !p.Report.Exceeded {
		return nil
	}
	return fmt.Errorf("%d vertices after %d bisections (decimated=%v): %w",
		p.Report.VerticesOut, p.Report.Bisections, p.Report.Decimated, ErrCeilingExceeded)
}

// Resolver runs the ceiling state machine.
type Resolver struct {
	opts Options
	log  *zap.Logger
}

// New creates a Resolver. A nil logger discards output.
func New(opts Options, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{opts: opts, log: log}
}

type work struct {
	mesh   *mesh.Mesh
	report Report
	path   []string
}

// Resolve brings m under the hard ceiling, returning one or more pieces in
// depth-first order (below before above at every cut). m is modified in
// place and must not be used afterwards.
//
// If ctx ends before every piece is settled, the unfinished pieces are
// emitted as they are, flagged exceeded when over the ceiling, together with
// ctx.Err().
func (r *Resolver) Resolve(ctx context.Context, m *mesh.Mesh) ([]Piece, error) {
	var out []Piece
	stack := []work{{mesh: m, report: Report{VerticesIn: len(m.Vertices)}}}

	for len(stack) > 0 {
		if err := expired(ctx); err != nil {
			for i := len(stack) - 1; i >= 0; i-- {
				out = append(out, r.finish(stack[i], StateAccepted))
			}
			return out, err
		}

		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		r.clean(&w)
		if len(w.mesh.Vertices) <= r.opts.HardCeiling {
			out = append(out, r.finish(w, StateAccepted))
			continue
		}

		if w.report.Bisections < r.opts.MaxBisections {
			below, above, ok := r.bisect(w)
			if ok {
				// Push above first so below is resolved first.
				stack = append(stack, above, below)
				continue
			}
		}

		r.decimate(&w)
		out = append(out, r.finish(w, StateForcedDecimation))
	}
	return out, nil
}

// expired reports ctx's error, treating a passed deadline as expired even
// before the context's timer has fired.
func expired(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dl, ok := ctx.Deadline(); ok && !time.Now().Before(dl) {
		return context.DeadlineExceeded
	}
	return nil
}

func (r *Resolver) clean(w *work) {
	stats := w.mesh.Clean(r.opts.MergeEpsilon)
	w.report.Merged += stats.Merged
	w.report.DegenerateFaces += stats.Degenerate
	w.report.Unreferenced += stats.Unreferenced
}

// bisect tries every axis and split position in preference order and returns
// the first cut that leaves geometry on both sides.
func (r *Resolver) bisect(w work) (below, above work, ok bool) {
	bounds := w.mesh.Bounds()
	for _, axis := range axisOrder {
		for _, t := range splitPositions {
			pos := bounds.PlaneAt(axis, t)
			lo, hi := w.mesh.SplitByPlane(axis, pos)
			if len(lo.Faces) == 0 || len(hi.Faces) == 0 {
				r.log.Debug("bisection did not separate",
					zap.String("mesh", w.mesh.Name),
					zap.String("axis", axisName(axis)),
					zap.Float64("at", t))
				continue
			}

			r.log.Debug("bisected",
				zap.String("mesh", w.mesh.Name),
				zap.String("axis", axisName(axis)),
				zap.Float64("at", t),
				zap.Float64("plane", pos),
				zap.Int("below", len(lo.Vertices)),
				zap.Int("above", len(hi.Vertices)))

			below = child(w, lo, axisName(axis)+"-")
			above = child(w, hi, axisName(axis)+"+")
			return below, above, true
		}
	}
	return work{}, work{}, false
}

func child(parent work, m *mesh.Mesh, step string) work {
	rep := parent.report
	rep.Bisections++
	rep.VerticesIn = len(m.Vertices)
	path := append(append([]string(nil), parent.path...), step)
	return work{mesh: m, report: rep, path: path}
}

// decimate runs one ForcedDecimation round: planar dissolve, then stepped
// edge collapse toward CollapseTarget*H, then hygiene again.
func (r *Resolver) decimate(w *work) {
	w.report.Decimated = true
	ceiling := r.opts.HardCeiling

	w.report.PlanarRemoved = w.mesh.DissolvePlanar(r.opts.PlanarAngle, ceiling)

	goal := int(r.opts.CollapseTarget * float64(ceiling))
	for round := 0; round < maxCollapseRounds && len(w.mesh.Vertices) > ceiling; round++ {
		count := len(w.mesh.Vertices)
		ratio := gomath.Min(r.opts.MaxCollapseRatio, float64(goal)/float64(count))
		removed := w.mesh.CollapseEdges(int(float64(count) * ratio))
		if removed == 0 {
			break
		}
		w.report.CollapseRemoved += removed
	}

	r.clean(w)
	r.log.Debug("decimated",
		zap.String("mesh", w.mesh.Name),
		zap.Int("planar_removed", w.report.PlanarRemoved),
		zap.Int("collapse_removed", w.report.CollapseRemoved),
		zap.Int("vertices", len(w.mesh.Vertices)))
}

func (r *Resolver) finish(w work, state State) Piece {
	rep := w.report
	rep.Path = strings.Join(w.path, "/")
	rep.VerticesOut = len(w.mesh.Vertices)
	rep.State = state
	if rep.VerticesOut > r.opts.HardCeiling {
		rep.Exceeded = true
		rep.State = StateExceeded
		r.log.Warn("fragment still exceeds hard ceiling",
			zap.String("mesh", w.mesh.Name),
			zap.String("path", rep.Path),
			zap.Int("vertices", rep.VerticesOut),
			zap.Int("ceiling", r.opts.HardCeiling),
			zap.Int("bisections", rep.Bisections),
			zap.Bool("decimated", rep.Decimated))
	}
	return Piece{Mesh: w.mesh, Report: rep}
}

func axisName(axis int) string {
	switch axis {
	case math.AxisX:
		return "x"
	case math.AxisY:
		return "y"
	default:
		return "z"
	}
}

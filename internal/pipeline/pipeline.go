// Package pipeline runs the whole split of one source mesh: validate, weld,
// snapshot, partition, then extract, resolve and transfer every group.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/meshsplit/internal/config"
	"github.com/Faultbox/meshsplit/pkg/mesh"
	"github.com/Faultbox/meshsplit/pkg/partition"
	"github.com/Faultbox/meshsplit/pkg/resolve"
	"github.com/Faultbox/meshsplit/pkg/transfer"
)

// Fragment is one output mesh with a stable ordinal.
type Fragment struct {
	Ordinal int
	Mesh    *mesh.Mesh
	Report  FragmentReport
}

// Result is the outcome of Run.
type Result struct {
	Source    SourceReport
	Fragments []Fragment
	// Warnings aggregates recoverable conditions (ceiling exceeded, resolve
	// timeouts). Use multierr.Errors to list them.
	Warnings error
	Elapsed  time.Duration
}

// groupResult holds what a worker produced for one group.
type groupResult struct {
	group    int
	size     int
	vertices int
	faces    int
	pieces   []resolve.Piece
	stats    []transfer.Stats
	warning  error
}

// Run splits m into fragments. m itself is not modified.
//
// Input errors (no faces, bad indices) abort before any work. Fragments
// that stay over the ceiling, or whose resolve deadline expires, are still
// returned and reported in Result.Warnings. Cancelling ctx aborts the run.
func Run(ctx context.Context, m *mesh.Mesh, opts Options, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()

	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("source %q: %w", m.Name, err)
	}

	res := &Result{Source: SourceReport{
		Name:      m.Name,
		Vertices:  m.VertexCount(),
		Faces:     m.FaceCount(),
		Materials: len(m.Materials),
		Strategy:  opts.Strategy,
	}}

	src := m.Clone()
	if opts.PreWeld {
		stats := src.Clean(opts.MergeEpsilon)
		res.Source.PreWeld = &stats
		log.Debug("pre-weld",
			zap.String("mesh", src.Name),
			zap.Int("merged", stats.Merged),
			zap.Int("degenerate", stats.Degenerate),
			zap.Int("unreferenced", stats.Unreferenced))
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("source %q after weld: %w", m.Name, err)
		}
	}

	snap := transfer.NewSnapshot(src)
	adj := mesh.BuildAdjacency(src)

	groups, err := partitionSource(src, adj, opts)
	if err != nil {
		return nil, err
	}
	res.Source.Groups = len(groups)
	res.Source.BoundaryFaces = countBoundaryFaces(src, adj, groups)
	log.Info("partitioned",
		zap.String("mesh", src.Name),
		zap.String("strategy", opts.Strategy),
		zap.Int("vertices", src.VertexCount()),
		zap.Int("groups", len(groups)),
		zap.Int("boundary_faces", res.Source.BoundaryFaces))

	results := make([]groupResult, len(groups))
	resolver := resolve.New(opts.Resolve, log.Named("resolve"))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, group := range groups {
		g.Go(func() error {
			r, err := processGroup(gctx, src, snap, resolver, opts, i, group)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range results {
		res.Warnings = multierr.Append(res.Warnings, r.warning)
		if r.pieces == nil {
			res.Source.EmptyGroups++
			log.Debug("group has no faces", zap.Int("group", r.group), zap.Int("vertices", r.size))
			continue
		}
		for k, p := range r.pieces {
			res.Warnings = multierr.Append(res.Warnings, wrapPiece(src.Name, len(res.Fragments), p.Err()))
			frag := Fragment{
				Ordinal: len(res.Fragments),
				Mesh:    p.Mesh,
				Report: FragmentReport{
					Ordinal:   len(res.Fragments),
					Group:     r.group,
					GroupSize: r.size,
					Extracted: Counts{Vertices: r.vertices, Faces: r.faces},
					Final:     Counts{Vertices: p.Mesh.VertexCount(), Faces: p.Mesh.FaceCount()},
					Resolve:   p.Report,
					Transfer:  r.stats[k],
					Materials: materialNames(p.Mesh),
				},
			}
			res.Fragments = append(res.Fragments, frag)
			logFragment(log, src.Name, frag)
		}
	}

	res.Elapsed = time.Since(start)
	log.Info("split complete",
		zap.String("mesh", src.Name),
		zap.Int("fragments", len(res.Fragments)),
		zap.Int("warnings", len(multierr.Errors(res.Warnings))),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

func partitionSource(src *mesh.Mesh, adj *mesh.Adjacency, opts Options) ([]partition.Group, error) {
	switch opts.Strategy {
	case config.StrategyGrid:
		return partition.Grid(src, opts.GridCols, opts.GridRows, opts.Seam)
	default:
		return partition.ByMaterial(src, adj, len(src.Materials), opts.Budget)
	}
}

// processGroup extracts, resolves and transfers one group. It only returns
// an error when the run itself is cancelled.
func processGroup(ctx context.Context, src *mesh.Mesh, snap *transfer.Snapshot, resolver *resolve.Resolver,
	opts Options, index int, group partition.Group) (groupResult, error) {
	r := groupResult{group: index, size: len(group)}

	frag := mesh.Extract(src, group)
	r.vertices, r.faces = frag.VertexCount(), frag.FaceCount()
	if frag.FaceCount() == 0 {
		return r, nil
	}

	rctx, cancel := ctx, context.CancelFunc(func() {})
	if opts.Timeout > 0 {
		rctx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}
	pieces, err := resolver.Resolve(rctx, frag)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return r, ctx.Err()
		}
		r.warning = fmt.Errorf("group %d: resolve stopped after %s: %w", index, opts.Timeout, err)
	}

	for _, p := range pieces {
		r.stats = append(r.stats, transfer.Transfer(p.Mesh, snap, opts.MatchEpsilon))
	}
	r.pieces = pieces
	return r, nil
}

// countBoundaryFaces counts source faces that no group fully contains.
func countBoundaryFaces(src *mesh.Mesh, adj *mesh.Adjacency, groups []partition.Group) int {
	kept := make([]bool, len(src.Faces))
	stamp := make([]int, len(src.Vertices))
	for gi, group := range groups {
		id := gi + 1
		for _, v := range group {
			stamp[v] = id
		}
		for _, v := range group {
			for _, fi := range adj.VertexFaces[v] {
				if kept[fi] {
					continue
				}
				f := src.Faces[fi]
				if stamp[f.V[0]] == id && stamp[f.V[1]] == id && stamp[f.V[2]] == id {
					kept[fi] = true
				}
			}
		}
	}

	dropped := 0
	for _, k := range kept {
		if !k {
			dropped++
		}
	}
	return dropped
}

func wrapPiece(name string, ordinal int, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s fragment %d: %w", name, ordinal, err)
}

func materialNames(m *mesh.Mesh) []string {
	used := m.MaterialsUsed()
	names := make([]string, 0, len(used))
	for _, idx := range used {
		if idx == mesh.NoMaterial {
			names = append(names, "")
			continue
		}
		names = append(names, m.Materials[idx].Name)
	}
	return names
}

func logFragment(log *zap.Logger, name string, f Fragment) {
	rep := f.Report
	fields := []zap.Field{
		zap.String("mesh", name),
		zap.Int("ordinal", f.Ordinal),
		zap.Int("group", rep.Group),
		zap.Int("vertices_in", rep.Extracted.Vertices),
		zap.Int("vertices_out", rep.Final.Vertices),
		zap.Int("faces", rep.Final.Faces),
		zap.Int("bisections", rep.Resolve.Bisections),
		zap.Bool("decimated", rep.Resolve.Decimated),
		zap.Float64("confidence", rep.Transfer.Confidence),
	}
	if rep.Resolve.Exceeded {
		log.Warn("fragment over ceiling", fields...)
		return
	}
	log.Info("fragment", fields...)
}

// IsCeilingWarning reports whether err includes a ceiling-exceeded warning.
func IsCeilingWarning(err error) bool {
	return errors.Is(err, resolve.ErrCeilingExceeded)
}

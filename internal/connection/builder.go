package connection

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/curve-apps/internal/ctxlog"
)

// Fitter proposes edges within one label's subset of vertices.
//
// points and parts describe the subset; the returned pairs index into them.
// maxDistance is +Inf when unbounded. An empty result is not an error.
type Fitter interface {
	FindCurves(points []orb.Point, parts []int32, minEdges int, maxDistance, damping float64) ([][2]int, error)
}

// FitterFunc adapts a plain function to the Fitter interface.
type FitterFunc func(points []orb.Point, parts []int32, minEdges int, maxDistance, damping float64) ([][2]int, error)

// FindCurves calls f.
func (f FitterFunc) FindCurves(points []orb.Point, parts []int32, minEdges int, maxDistance, damping float64) ([][2]int, error) {
	return f(points, parts, minEdges, maxDistance, damping)
}

// Builder runs the parts connection pass. A Builder is safe to reuse and to
// share between goroutines as long as its Fitter is.
type Builder struct {
	fitter  Fitter
	workers int
	isolate bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithWorkers fits up to n labels concurrently. Results are merged in label
// order, so the output does not depend on n. Values below 2 keep the
// sequential path.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		b.workers = n
	}
}

// WithIsolateFailures makes a failing label a skip instead of aborting the
// whole run.
func WithIsolateFailures() Option {
	return func(b *Builder) {
		b.isolate = true
	}
}

// New returns a Builder that delegates edge proposals to fitter.
func New(fitter Fitter, opts ...Option) *Builder {
	b := &Builder{fitter: fitter, workers: 1}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// labelGroup is the set of global vertex indices carrying one label.
type labelGroup struct {
	label   int32
	members []int
}

// labelStep is the accumulator produced by one label. Exactly one of edges
// and skip is set.
type labelStep struct {
	label   int32
	members []int
	edges   []Edge
	skip    SkipReason
}

// FindConnections links the fragments of every non-background label and
// returns the compacted result. Absent parts and labels are defaulted before
// the per-label loop (see Input.Resolve).
//
// The only errors are Fitter failures (as *ErrFit, unless the Builder was
// built WithIsolateFailures) and context cancellation. An empty result is
// reported through Result.Found, not as an error.
func (b *Builder) FindConnections(ctx context.Context, in Input) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	in = in.Resolve()

	groups := partition(in.Labels)
	steps := make([]labelStep, len(groups))

	run := func(ctx context.Context, i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		step, err := b.fitLabel(in, groups[i])
		if err != nil {
			if !b.isolate {
				return err
			}
			logger.WarnContext(ctx, "label skipped after fitting failure",
				"label", groups[i].label,
				"error", err,
			)
			step = labelStep{label: groups[i].label, members: groups[i].members, skip: SkipFitFailed}
		}
		logger.DebugContext(ctx, "label processed",
			"label", step.label,
			"vertices", len(step.members),
			"edges", len(step.edges),
		)
		steps[i] = step
		return nil
	}

	if b.workers < 2 {
		for i := range groups {
			if err := run(ctx, i); err != nil {
				return nil, err
			}
		}
	} else {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(b.workers)
		for i := range groups {
			eg.Go(func() error {
				return run(egCtx, i)
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	}

	return assemble(in, steps), nil
}

// partition groups vertex indices by label, in ascending label order. Members
// are ascending.
func partition(labels []int32) []labelGroup {
	byLabel := make(map[int32]*roaring.Bitmap)
	for i, l := range labels {
		bm, ok := byLabel[l]
		if !ok {
			bm = roaring.New()
			byLabel[l] = bm
		}
		bm.Add(uint32(i))
	}

	keys := slices.Sorted(maps.Keys(byLabel))
	groups := make([]labelGroup, len(keys))
	for i, l := range keys {
		groups[i] = labelGroup{label: l, members: indices(byLabel[l])}
	}
	return groups
}

// indices returns the members of bm in ascending order.
func indices(bm *roaring.Bitmap) []int {
	out := make([]int, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// fitLabel runs the Fitter on one label's subset and translates the proposed
// pairs back to global vertex indices.
func (b *Builder) fitLabel(in Input, g labelGroup) (labelStep, error) {
	step := labelStep{label: g.label, members: g.members}

	if g.label == Background {
		step.skip = SkipBackground
		return step, nil
	}
	if len(g.members) < 2 {
		step.skip = SkipTooFew
		return step, nil
	}

	points := make([]orb.Point, len(g.members))
	parts := make([]int32, len(g.members))
	for k, idx := range g.members {
		points[k] = in.Vertices[idx].XY()
		parts[k] = in.Parts[idx]
	}

	pairs, err := b.fitter.FindCurves(points, parts, in.Params.MinEdges, in.Params.maxDistance(), in.Params.Damping)
	if err != nil {
		return step, &ErrFit{Label: g.label, cause: err}
	}
	if len(pairs) == 0 {
		step.skip = SkipNoCandidates
		return step, nil
	}

	step.edges = make([]Edge, len(pairs))
	for k, p := range pairs {
		if p[0] < 0 || p[1] < 0 || p[0] >= len(g.members) || p[1] >= len(g.members) || p[0] == p[1] {
			return step, &ErrFit{Label: g.label, cause: fmt.Errorf("invalid local edge %v for %d vertices", p, len(g.members))}
		}
		step.edges[k] = Edge{g.members[p[0]], g.members[p[1]]}
	}
	return step, nil
}

// assemble merges the per-label accumulators and compacts the vertex array
// down to the vertices referenced by an edge.
func assemble(in Input, steps []labelStep) *Result {
	outLabels := make([]int32, len(in.Vertices))

	var (
		edges   []Edge
		skipped []LabelSkip
	)
	for _, step := range steps {
		if step.skip != "" {
			skipped = append(skipped, LabelSkip{Label: step.label, Vertices: len(step.members), Reason: step.skip})
			continue
		}
		edges = append(edges, step.edges...)
		for _, idx := range step.members {
			outLabels[idx] = step.label
		}
	}

	if len(edges) == 0 {
		return &Result{
			Vertices: in.Vertices,
			Labels:   outLabels,
			Skipped:  skipped,
		}
	}

	uni, inverse := uniqueInverse(edges, len(in.Vertices))

	res := &Result{
		Vertices: make([]Vertex, len(uni)),
		Edges:    make([]Edge, len(edges)),
		Labels:   make([]int32, len(uni)),
		Skipped:  skipped,
	}
	for k, idx := range uni {
		res.Vertices[k] = in.Vertices[idx]
		res.Labels[k] = outLabels[idx]
	}
	for k, e := range edges {
		res.Edges[k] = Edge{inverse[e[0]], inverse[e[1]]}
	}
	return res
}

// uniqueInverse returns the sorted set of vertex indices referenced by edges
// and a lookup from each referenced index to its position in that set.
func uniqueInverse(edges []Edge, n int) ([]int, []int) {
	used := roaring.New()
	for _, e := range edges {
		used.Add(uint32(e[0]))
		used.Add(uint32(e[1]))
	}

	uni := indices(used)
	inverse := make([]int, n)
	for k, idx := range uni {
		inverse[idx] = k
	}
	return uni, inverse
}

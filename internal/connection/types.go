package connection

import (
	"math"

	"github.com/paulmach/orb"
)

// Background is the label value that is never connected.
const Background int32 = 0

// Vertex is a point of the source curve. Z is carried through but does not
// take part in connection distances.
type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// XY returns the horizontal projection of the vertex.
func (v Vertex) XY() orb.Point {
	return orb.Point{v.X, v.Y}
}

// Edge is a pair of vertex indices.
type Edge [2]int

// Params are the tuning scalars passed through to the Fitter.
type Params struct {
	// MaxDistance caps the length of a connection. Nil and +Inf mean
	// unbounded; zero only joins coincident endpoints.
	MaxDistance *float64

	// MinEdges is the minimum number of fragment connections a chain needs
	// before the Fitter proposes it.
	MinEdges int

	// Damping penalizes costly connections in the Fitter's cost function.
	Damping float64
}

// maxDistance returns the effective cap, +Inf when unset.
func (p Params) maxDistance() float64 {
	if p.MaxDistance == nil {
		return math.Inf(1)
	}
	return *p.MaxDistance
}

// Input is everything FindConnections needs for one run.
type Input struct {
	Vertices []Vertex

	// Parts holds a fragment id per vertex. Nil means every vertex is its own
	// fragment.
	Parts []int32

	// Labels holds a group id per vertex. Nil means every vertex carries
	// label 1.
	Labels []int32

	Params Params
}

// Resolve returns a copy of in with absent parts and labels replaced by
// their defaults.
func (in Input) Resolve() Input {
	n := len(in.Vertices)
	out := in

	if in.Parts == nil {
		out.Parts = make([]int32, n)
		for i := range out.Parts {
			out.Parts[i] = int32(i)
		}
	}

	if in.Labels == nil {
		out.Labels = make([]int32, n)
		for i := range out.Labels {
			out.Labels[i] = 1
		}
	}

	return out
}

// SkipReason explains why a label produced no edges.
type SkipReason string

const (
	SkipBackground   SkipReason = "background"
	SkipTooFew       SkipReason = "too-few-vertices"
	SkipNoCandidates SkipReason = "no-candidates"
	SkipFitFailed    SkipReason = "fit-failed"
)

// LabelSkip records a label that did not contribute edges.
type LabelSkip struct {
	Label    int32      `json:"label"`
	Vertices int        `json:"vertices"`
	Reason   SkipReason `json:"reason"`
}

// Result is the output of FindConnections.
type Result struct {
	// Vertices is the compacted vertex array, or the original vertices when
	// no connection was found.
	Vertices []Vertex `json:"vertices"`

	// Edges index into Vertices. Nil when no connection was found.
	Edges []Edge `json:"edges"`

	// Labels holds one label per entry of Vertices.
	Labels []int32 `json:"labels"`

	// Skipped lists the labels that contributed no edges, in ascending order.
	Skipped []LabelSkip `json:"skipped,omitempty"`
}

// Found reports whether at least one connection was made.
func (r *Result) Found() bool {
	return r != nil && len(r.Edges) > 0
}

package curves

import (
	"cmp"
	"errors"
	"math"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ErrLengthMismatch indicates points and parts of different lengths.
var ErrLengthMismatch = errors.New("curves: points and parts must have the same length")

// Finder holds search settings for FindCurves. The zero value keeps every
// candidate.
type Finder struct {
	// Neighbors keeps, for each endpoint, only its Neighbors nearest
	// candidates. Zero means no limit.
	Neighbors int
}

// FindCurves chains fragments with the default Finder.
func FindCurves(points []orb.Point, parts []int32, minEdges int, maxDistance, damping float64) ([][2]int, error) {
	return Finder{}.FindCurves(points, parts, minEdges, maxDistance, damping)
}

// fragment is an ordered run of point indices sharing a part id.
type fragment struct {
	members []int
}

// endpoint is a fragment end that can receive connections.
type endpoint struct {
	vertex  int
	frag    int
	slots   int
	tangent orb.Point // outward unit direction, zero when undefined
}

// candidate is a possible connection between two endpoints.
type candidate struct {
	a, b     int // endpoint indices, a < b
	distance float64
	cost     float64
}

// FindCurves returns the edges of every chain that satisfies minEdges,
// expressed as index pairs into points. maxDistance may be +Inf; zero joins
// coincident endpoints only.
func (f Finder) FindCurves(points []orb.Point, parts []int32, minEdges int, maxDistance, damping float64) ([][2]int, error) {
	if len(points) != len(parts) {
		return nil, ErrLengthMismatch
	}
	if len(points) < 2 {
		return nil, nil
	}

	frags := buildFragments(parts)
	if len(frags) < 2 {
		return nil, nil
	}
	ends := buildEndpoints(points, frags)

	cands := findCandidates(points, ends, maxDistance)
	if len(cands) == 0 {
		return nil, nil
	}
	if f.Neighbors > 0 {
		cands = nearestOnly(cands, len(ends), f.Neighbors)
	}
	for i := range cands {
		c := &cands[i]
		c.cost = c.distance * (1 + damping*bend(points, ends[c.a], ends[c.b]))
	}
	slices.SortFunc(cands, func(x, y candidate) int {
		if c := cmp.Compare(x.cost, y.cost); c != 0 {
			return c
		}
		if c := cmp.Compare(ends[x.a].vertex, ends[y.a].vertex); c != 0 {
			return c
		}
		return cmp.Compare(ends[x.b].vertex, ends[y.b].vertex)
	})

	chains := newDisjointSet(len(frags))
	var accepted []candidate
	for _, c := range cands {
		ea, eb := &ends[c.a], &ends[c.b]
		if ea.slots == 0 || eb.slots == 0 {
			continue
		}
		if !chains.union(ea.frag, eb.frag) {
			continue
		}
		ea.slots--
		eb.slots--
		accepted = append(accepted, c)
	}
	if len(accepted) == 0 {
		return nil, nil
	}

	connections := make(map[int]int)
	for _, c := range accepted {
		connections[chains.find(ends[c.a].frag)]++
	}
	required := max(1, minEdges)
	keep := func(frag int) bool {
		return connections[chains.find(frag)] >= required
	}

	var out [][2]int
	for fi, fr := range frags {
		if !keep(fi) {
			continue
		}
		for k := 1; k < len(fr.members); k++ {
			out = append(out, [2]int{fr.members[k-1], fr.members[k]})
		}
	}
	for _, c := range accepted {
		if !keep(ends[c.a].frag) {
			continue
		}
		u, v := ends[c.a].vertex, ends[c.b].vertex
		if u > v {
			u, v = v, u
		}
		out = append(out, [2]int{u, v})
	}
	return out, nil
}

// buildFragments groups point indices by part id in order of first
// appearance.
func buildFragments(parts []int32) []fragment {
	index := make(map[int32]int)
	var frags []fragment
	for i, p := range parts {
		fi, ok := index[p]
		if !ok {
			fi = len(frags)
			index[p] = fi
			frags = append(frags, fragment{})
		}
		frags[fi].members = append(frags[fi].members, i)
	}
	return frags
}

// buildEndpoints returns the endpoints of every fragment, in fragment order.
func buildEndpoints(points []orb.Point, frags []fragment) []endpoint {
	ends := make([]endpoint, 0, 2*len(frags))
	for fi, fr := range frags {
		m := fr.members
		if len(m) == 1 {
			ends = append(ends, endpoint{vertex: m[0], frag: fi, slots: 2})
			continue
		}
		last := len(m) - 1
		ends = append(ends,
			endpoint{vertex: m[0], frag: fi, slots: 1, tangent: unit(points[m[1]], points[m[0]])},
			endpoint{vertex: m[last], frag: fi, slots: 1, tangent: unit(points[m[last-1]], points[m[last]])},
		)
	}
	return ends
}

// findCandidates lists endpoint pairs of different fragments within
// maxDistance of each other.
func findCandidates(points []orb.Point, ends []endpoint, maxDistance float64) []candidate {
	var cands []candidate
	consider := func(i, j int) {
		if ends[i].frag == ends[j].frag {
			return
		}
		d := planar.Distance(points[ends[i].vertex], points[ends[j].vertex])
		if d > maxDistance {
			return
		}
		if i > j {
			i, j = j, i
		}
		cands = append(cands, candidate{a: i, b: j, distance: d})
	}

	// A zero cap only admits coincident endpoints and has no usable bucket
	// size, so it takes the exhaustive path as well.
	if maxDistance <= 0 || math.IsInf(maxDistance, 1) || math.IsNaN(maxDistance) {
		for i := range ends {
			for j := i + 1; j < len(ends); j++ {
				consider(i, j)
			}
		}
		return cands
	}

	idx := newBucketIndex(maxDistance)
	for i, e := range ends {
		idx.insert(points[e.vertex], i)
	}
	for i, e := range ends {
		idx.visit(points[e.vertex], func(j int) {
			if j > i {
				consider(i, j)
			}
		})
	}
	return cands
}

// nearestOnly keeps the candidates that rank among the k nearest of at least
// one of their endpoints.
func nearestOnly(cands []candidate, numEnds, k int) []candidate {
	byEnd := make([][]int, numEnds)
	for ci, c := range cands {
		byEnd[c.a] = append(byEnd[c.a], ci)
		byEnd[c.b] = append(byEnd[c.b], ci)
	}

	keep := make([]bool, len(cands))
	for _, list := range byEnd {
		slices.SortStableFunc(list, func(x, y int) int {
			return cmp.Compare(cands[x].distance, cands[y].distance)
		})
		for _, ci := range list[:min(k, len(list))] {
			keep[ci] = true
		}
	}

	out := cands[:0]
	for ci, c := range cands {
		if keep[ci] {
			out = append(out, c)
		}
	}
	return out
}

// bend measures how sharply a connection between a and b turns away from the
// fragments it continues, from 0 (straight on) to 1 (doubling back).
func bend(points []orb.Point, a, b endpoint) float64 {
	pa, pb := points[a.vertex], points[b.vertex]
	d := planar.Distance(pa, pb)
	if d == 0 {
		return 0
	}
	ux, uy := (pb[0]-pa[0])/d, (pb[1]-pa[1])/d

	var sum float64
	var n int
	if a.tangent != (orb.Point{}) {
		sum += (1 - (a.tangent[0]*ux + a.tangent[1]*uy)) / 2
		n++
	}
	if b.tangent != (orb.Point{}) {
		sum += (1 - (b.tangent[0]*-ux + b.tangent[1]*-uy)) / 2
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// unit returns the unit vector pointing from p to q, or the zero point when
// they coincide.
func unit(p, q orb.Point) orb.Point {
	d := planar.Distance(p, q)
	if d == 0 {
		return orb.Point{}
	}
	return orb.Point{(q[0] - p[0]) / d, (q[1] - p[1]) / d}
}

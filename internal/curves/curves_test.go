package curves

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var inf = math.Inf(1)

// line returns n points along the x axis, spaced by step, starting at x0.
func line(x0, step float64, n int) []orb.Point {
	pts := make([]orb.Point, n)
	for i := range pts {
		pts[i] = orb.Point{x0 + float64(i)*step, 0}
	}
	return pts
}

// identityParts gives every point its own part id.
func identityParts(n int) []int32 {
	parts := make([]int32, n)
	for i := range parts {
		parts[i] = int32(i)
	}
	return parts
}

func TestFindCurves_LengthMismatch(t *testing.T) {
	_, err := FindCurves(line(0, 1, 3), []int32{0, 1}, 1, inf, 0)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestFindCurves_TooFewPoints(t *testing.T) {
	edges, err := FindCurves(line(0, 1, 1), []int32{0}, 1, inf, 0)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestFindCurves_SingleFragment(t *testing.T) {
	// All points in one part: nothing to connect.
	edges, err := FindCurves(line(0, 1, 4), []int32{7, 7, 7, 7}, 1, inf, 0)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestFindCurves_AdjacentFragments(t *testing.T) {
	pts := []orb.Point{{0, 0}, {1, 0}, {2, 0}}
	edges, err := FindCurves(pts, []int32{0, 0, 1}, 1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, edges)
}

func TestFindCurves_SingletonChain(t *testing.T) {
	// Unordered singletons along a line are chained to their neighbours.
	pts := []orb.Point{{3, 0}, {0, 0}, {2, 0}, {1, 0}}
	edges, err := FindCurves(pts, identityParts(4), 1, inf, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, [][2]int{{1, 3}, {2, 3}, {0, 2}}, edges)
}

func TestFindCurves_MaxDistanceExceeded(t *testing.T) {
	pts := []orb.Point{{0, 0}, {5, 0}}
	edges, err := FindCurves(pts, identityParts(2), 1, 0.5, 0)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestFindCurves_ZeroMaxDistance(t *testing.T) {
	pts := []orb.Point{{0, 0}, {5, 0}, {5, 0}}
	edges, err := FindCurves(pts, identityParts(3), 1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 2}}, edges, "only the coincident pair is within a zero cap")
}

func TestFindCurves_MaxDistanceSplitsChains(t *testing.T) {
	// Two clusters far apart: each becomes its own chain.
	pts := []orb.Point{{0, 0}, {1, 0}, {100, 0}, {101, 0}}
	edges, err := FindCurves(pts, identityParts(4), 1, 2, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, [][2]int{{0, 1}, {2, 3}}, edges)
}

func TestFindCurves_MinEdgesFiltersShortChains(t *testing.T) {
	// Cluster A has 2 connections, cluster B only 1.
	pts := []orb.Point{{0, 0}, {1, 0}, {2, 0}, {100, 0}, {101, 0}}
	edges, err := FindCurves(pts, identityParts(5), 2, 2, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, [][2]int{{0, 1}, {1, 2}}, edges)
}

func TestFindCurves_NoCycles(t *testing.T) {
	// Triangle of singletons: a chain uses two sides, never the third.
	pts := []orb.Point{{0, 0}, {1, 0}, {0.5, 0.9}}
	edges, err := FindCurves(pts, identityParts(3), 1, inf, 0)
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

func TestFindCurves_EndpointsOnly(t *testing.T) {
	// Fragment 0 runs 0..4 along x. Fragment 1 sits just above its middle
	// point, which is not an endpoint and must not be connected.
	pts := append(line(0, 1, 5), orb.Point{2, 0.1})
	parts := []int32{0, 0, 0, 0, 0, 1}
	edges, err := FindCurves(pts, parts, 1, inf, 0)
	require.NoError(t, err)

	for _, e := range edges {
		if e[0] == 5 || e[1] == 5 {
			other := e[0] + e[1] - 5
			assert.Contains(t, []int{0, 4}, other, "connection must use a fragment endpoint")
		}
	}
	assert.Len(t, edges, 5)
}

func TestFindCurves_DampingPrefersStraightContinuation(t *testing.T) {
	// Fragment 0 heads east and ends at (1,0). Point 2 continues straight on
	// at distance 1.0; point 3 is closer (0.9) but off to the side.
	pts := []orb.Point{{0, 0}, {1, 0}, {2, 0}, {1, 0.9}}
	parts := []int32{0, 0, 1, 2}

	edges, err := FindCurves(pts, parts, 1, 1.05, 0)
	require.NoError(t, err)
	assert.Contains(t, edges, [2]int{1, 3}, "without damping the nearest point wins")
	assert.NotContains(t, edges, [2]int{1, 2})

	edges, err = FindCurves(pts, parts, 1, 1.05, 1)
	require.NoError(t, err)
	assert.Contains(t, edges, [2]int{1, 2}, "damping favours the straight continuation")
	assert.NotContains(t, edges, [2]int{1, 3})
}

func TestFindCurves_Deterministic(t *testing.T) {
	pts := []orb.Point{{0, 0}, {1, 1}, {2, 0}, {3, 1}, {4, 0}, {5, 1}}
	parts := identityParts(len(pts))

	first, err := FindCurves(pts, parts, 1, inf, 0.3)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := FindCurves(pts, parts, 1, inf, 0.3)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestFindCurves_BucketMatchesBruteForce(t *testing.T) {
	pts := []orb.Point{
		{0, 0}, {0.7, 0.2}, {1.5, 0.1}, {2.2, 0.4}, {2.9, 0.3},
		{10, 10}, {10.5, 10.6}, {11.2, 11.1},
	}
	parts := identityParts(len(pts))

	bounded, err := FindCurves(pts, parts, 1, 1.0, 0)
	require.NoError(t, err)

	// Same search without the bucket index: brute force pairs, then
	// discard pairs above 1.0 by hand.
	ends := buildEndpoints(pts, buildFragments(parts))
	var brute int
	for _, c := range findCandidates(pts, ends, inf) {
		if c.distance <= 1.0 {
			brute++
		}
	}
	assert.Equal(t, brute, len(findCandidates(pts, ends, 1.0)))
	assert.NotEmpty(t, bounded)
}

func TestFinder_Neighbors(t *testing.T) {
	pts := line(0, 1, 6)
	parts := identityParts(6)

	ends := buildEndpoints(pts, buildFragments(parts))
	all := findCandidates(pts, ends, inf)
	limited := nearestOnly(append([]candidate(nil), all...), len(ends), 1)
	assert.Less(t, len(limited), len(all))

	edges, err := Finder{Neighbors: 2}.FindCurves(pts, parts, 1, inf, 0)
	require.NoError(t, err)
	assert.Len(t, edges, 5)
}

func TestBend(t *testing.T) {
	pts := []orb.Point{{0, 0}, {1, 0}, {2, 0}, {0, 1}}
	tail := endpoint{vertex: 1, tangent: orb.Point{1, 0}}
	ahead := endpoint{vertex: 2}
	behind := endpoint{vertex: 0}
	side := endpoint{vertex: 3}

	assert.InDelta(t, 0.0, bend(pts, tail, ahead), 1e-12)
	assert.InDelta(t, 1.0, bend(pts, tail, behind), 1e-12)
	assert.InDelta(t, 0.5+math.Sqrt2/4, bend(pts, tail, side), 1e-12)
	assert.Zero(t, bend(pts, ahead, side))
}

func TestDisjointSet(t *testing.T) {
	ds := newDisjointSet(4)
	assert.True(t, ds.union(0, 1))
	assert.True(t, ds.union(2, 3))
	assert.False(t, ds.union(1, 0))
	assert.True(t, ds.union(1, 3))
	assert.Equal(t, ds.find(0), ds.find(2))
}

package edges

import (
	"math"
	"math/rand/v2"
)

// numAngles is the angular resolution of the Hough accumulator, one bin per
// degree over [0, 180).
const numAngles = 180

var cosTable, sinTable = func() ([numAngles]float64, [numAngles]float64) {
	var c, s [numAngles]float64
	for t := range numAngles {
		angle := float64(t) * math.Pi / numAngles
		c[t] = math.Cos(angle)
		s[t] = math.Sin(angle)
	}
	return c, s
}()

type point struct{ x, y int }

// segment is a traced line segment in raster coordinates.
type segment struct {
	start, end point
}

// houghLines finds straight segments in an edge mask with the progressive
// probabilistic Hough transform.
//
// Edge points vote in a shuffled but fixed order. Once a point lifts an
// accumulator bin to threshold, the line through it is traced in both
// directions, bridging up to lineGap missing points. The traced points are
// consumed either way; when the segment spans at least lineLength along x or
// y it is kept and its votes are withdrawn.
//
// mask is indexed [row][column] and is not modified.
func houghLines(mask [][]bool, threshold, lineLength, lineGap int) []segment {
	height := len(mask)
	if height == 0 {
		return nil
	}
	width := len(mask[0])

	maxRho := int(math.Ceil(math.Hypot(float64(width), float64(height))))
	numRho := 2*maxRho + 1
	accumulator := make([]int, numAngles*numRho)
	bin := func(p point, t int) int {
		rho := int(math.Round(float64(p.x)*cosTable[t] + float64(p.y)*sinTable[t]))
		return t*numRho + rho + maxRho
	}

	live := make([][]bool, height)
	var points []point
	for y := range mask {
		live[y] = make([]bool, width)
		for x, on := range mask[y] {
			if on {
				live[y][x] = true
				points = append(points, point{x, y})
			}
		}
	}
	rng := rand.New(rand.NewPCG(0, 0))
	rng.Shuffle(len(points), func(i, j int) {
		points[i], points[j] = points[j], points[i]
	})

	var segments []segment
	for _, p := range points {
		if !live[p.y][p.x] {
			continue
		}

		best, bestT := math.MinInt, 0
		for t := 0; t < numAngles; t++ {
			b := bin(p, t)
			accumulator[b]++
			if accumulator[b] > best {
				best, bestT = accumulator[b], t
			}
		}
		if best < threshold {
			continue
		}

		// Direction along the line, normal to (cos, sin).
		dx, dy := -sinTable[bestT], cosTable[bestT]

		var ends [2]point
		for k, sign := range [2]float64{1, -1} {
			ends[k] = p
			gap := 0
			trace(p, sign*dx, sign*dy, width, height, func(q point) bool {
				if live[q.y][q.x] {
					gap = 0
					ends[k] = q
					return true
				}
				gap++
				return gap <= lineGap
			})
		}

		good := abs(ends[1].x-ends[0].x) >= lineLength || abs(ends[1].y-ends[0].y) >= lineLength

		for k, sign := range [2]float64{1, -1} {
			trace(p, sign*dx, sign*dy, width, height, func(q point) bool {
				if live[q.y][q.x] {
					if good {
						for t := 0; t < numAngles; t++ {
							accumulator[bin(q, t)]--
						}
					}
					live[q.y][q.x] = false
				}
				return q != ends[k]
			})
		}

		if good {
			segments = append(segments, segment{start: ends[1], end: ends[0]})
		}
	}
	return segments
}

// trace visits the raster cells on the line through p with direction
// (dx, dy), starting at p, until visit returns false or the line leaves the
// raster. The major axis advances one cell per step.
func trace(p point, dx, dy float64, width, height int, visit func(point) bool) {
	var sx, sy float64
	if math.Abs(dx) > math.Abs(dy) {
		sx, sy = math.Copysign(1, dx), dy/math.Abs(dx)
	} else {
		sx, sy = dx/math.Abs(dy), math.Copysign(1, dy)
	}

	fx, fy := float64(p.x), float64(p.y)
	for {
		q := point{int(math.Round(fx)), int(math.Round(fy))}
		if q.x < 0 || q.y < 0 || q.x >= width || q.y >= height {
			return
		}
		if !visit(q) {
			return
		}
		fx += sx
		fy += sy
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

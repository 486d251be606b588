package edges

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/imgio"

	"github.com/ironsheep/curve-apps/internal/connection"
	"github.com/ironsheep/curve-apps/internal/ctxlog"
	"github.com/ironsheep/curve-apps/internal/grid"
)

// ErrNoData indicates a grid without any finite value.
var ErrNoData = errors.New("edges: grid has no finite values")

// overlap widens the window count so that neighbouring windows overlap.
const overlap = 1.25

// Cell addresses a grid cell along u (I) and v (J).
type Cell struct {
	I int `json:"i"`
	J int `json:"j"`
}

// Segment is a detected straight line between two cell centres.
type Segment struct {
	Start Cell `json:"start"`
	End   Cell `json:"end"`
}

// Result holds the segments found in a grid.
type Result struct {
	// Segments in grid cell coordinates, in detection order.
	Segments []Segment `json:"segments"`

	// Vertices are the world coordinates of every distinct segment end.
	Vertices []connection.Vertex `json:"vertices"`

	// Cells holds one pair of indices into Vertices per segment.
	Cells []connection.Edge `json:"cells"`

	// EdgeCells is the number of cells in the Canny edge mask.
	EdgeCells int `json:"edge_cells"`
}

// Found reports whether any segment was detected.
func (r *Result) Found() bool {
	return r != nil && len(r.Segments) > 0
}

// Detect finds straight edges in g.
//
// No-data cells are filled with the smallest finite value. The Canny mask of
// the whole grid is split into overlapping square windows of
// opts.WindowSize cells (smaller when the grid is), and each window is
// searched with the probabilistic Hough transform. Segments found by more
// than one window are reported once.
//
// An empty result is not an error.
func Detect(ctx context.Context, g *grid.Grid, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	lo, _, ok := g.Range()
	if !ok {
		return nil, ErrNoData
	}

	width, height := g.UCount, g.VCount
	values := make([]float64, len(g.Values))
	for k, v := range g.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = lo
		}
		values[k] = v
	}

	mask := canny(values, width, height, opts.Sigma)
	res := &Result{}
	for _, row := range mask {
		for _, on := range row {
			if on {
				res.EdgeCells++
			}
		}
	}
	logger.Debug("edge mask computed", "cells", res.EdgeCells, "width", width, "height", height)

	if opts.MaskPath != "" {
		if err := SaveMask(opts.MaskPath, mask); err != nil {
			return nil, err
		}
	}

	size := min(opts.WindowSize, width, height)
	threshold := max(1, int(math.Round(opts.Threshold)))
	seen := make(map[Segment]bool)

	for _, us := range windowSpans(width, size) {
		for _, vs := range windowSpans(height, size) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			sub := make([][]bool, vs.hi-vs.lo)
			for y := range sub {
				sub[y] = mask[vs.lo+y][us.lo:us.hi]
			}

			found := houghLines(sub, threshold, opts.LineLength, opts.LineGap)
			for _, s := range found {
				seg := normalize(Segment{
					Start: Cell{I: us.lo + s.start.x, J: vs.lo + s.start.y},
					End:   Cell{I: us.lo + s.end.x, J: vs.lo + s.end.y},
				})
				if seen[seg] {
					continue
				}
				seen[seg] = true
				res.Segments = append(res.Segments, seg)
			}
			logger.Debug("window processed",
				"u", fmt.Sprintf("%d:%d", us.lo, us.hi),
				"v", fmt.Sprintf("%d:%d", vs.lo, vs.hi),
				"segments", len(found),
			)
		}
	}

	if opts.PreviewPath != "" {
		if err := SavePreview(opts.PreviewPath, mask, res.Segments, size, opts.PreviewColor); err != nil {
			return nil, err
		}
	}

	index := make(map[Cell]int)
	vertex := func(c Cell) int {
		if k, ok := index[c]; ok {
			return k
		}
		x, y, z := g.Centroid(c.I, c.J)
		index[c] = len(res.Vertices)
		res.Vertices = append(res.Vertices, connection.Vertex{X: x, Y: y, Z: z})
		return index[c]
	}
	for _, s := range res.Segments {
		res.Cells = append(res.Cells, connection.Edge{vertex(s.Start), vertex(s.End)})
	}
	return res, nil
}

// normalize orders the ends of s so that equal segments compare equal.
func normalize(s Segment) Segment {
	if s.End.J < s.Start.J || (s.End.J == s.Start.J && s.End.I < s.Start.I) {
		s.Start, s.End = s.End, s.Start
	}
	return s
}

// span is a half-open range of cells.
type span struct{ lo, hi int }

// windowSpans splits n cells into windows of size cells whose centres are
// spread evenly from size/2 to n-size/2. Without room for more than one
// window a single window covers all n cells.
func windowSpans(n, size int) []span {
	half := size / 2
	count := float64(n-2*half) * overlap / float64(size)
	if count <= 0 {
		return []span{{0, n}}
	}

	spans := make([]span, 2+int(math.RoundToEven(count)))
	step := float64(n-2*half) / float64(len(spans)-1)
	for k := range spans {
		c := half + int(float64(k)*step)
		spans[k] = span{c - half, min(c+half, n)}
	}
	return spans
}

// SaveMask writes an edge mask as a black and white PNG, with row 0 at the
// bottom of the image.
func SaveMask(path string, mask [][]bool) error {
	height := len(mask)
	width := 0
	if height > 0 {
		width = len(mask[0])
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y, row := range mask {
		for x, on := range row {
			if on {
				img.SetGray(x, height-1-y, color.Gray{Y: 255})
			}
		}
	}
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("edges: save mask: %w", err)
	}
	return nil
}

package grid

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyGrid indicates a grid with no cells.
	ErrEmptyGrid = errors.New("grid: grid must have at least one cell")

	// ErrValueCount indicates a value array that does not cover the grid.
	ErrValueCount = errors.New("grid: value count does not match cell count")
)

// Grid is a regular 2D grid of cell values placed in 3D space.
//
// Cells are addressed by (i, j) where i runs along u and j along v. Values are
// stored u-fastest: the value of cell (i, j) is Values[i+j*UCount].
//
// The grid is first tilted by Dip about the u axis, then rotated by Rotation
// counterclockwise about the vertical axis, and finally translated to Origin.
// Both angles are in degrees. Origin is the outer corner of cell (0, 0).
type Grid struct {
	Origin    [3]float64 `json:"origin"`
	UCellSize float64    `json:"u_cell_size"`
	VCellSize float64    `json:"v_cell_size"`
	UCount    int        `json:"u_count"`
	VCount    int        `json:"v_count"`
	Rotation  float64    `json:"rotation"`
	Dip       float64    `json:"dip"`

	// Values holds one value per cell; NaN marks a no-data cell.
	Values []float64 `json:"-"`
}

// Validate checks the grid dimensions against its values.
func (g *Grid) Validate() error {
	if g.UCount <= 0 || g.VCount <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrEmptyGrid, g.UCount, g.VCount)
	}
	if len(g.Values) != g.UCount*g.VCount {
		return fmt.Errorf("%w: %d values for %dx%d cells", ErrValueCount, len(g.Values), g.UCount, g.VCount)
	}
	return nil
}

// Index returns the position of cell (i, j) in Values.
func (g *Grid) Index(i, j int) int {
	return i + j*g.UCount
}

// At returns the value of cell (i, j).
func (g *Grid) At(i, j int) float64 {
	return g.Values[g.Index(i, j)]
}

// Centroid returns the world coordinates of the centre of cell (i, j).
func (g *Grid) Centroid(i, j int) (x, y, z float64) {
	u := (float64(i) + 0.5) * g.UCellSize
	v := (float64(j) + 0.5) * g.VCellSize

	dip := g.Dip * math.Pi / 180
	vh, vz := v*math.Cos(dip), v*math.Sin(dip)

	rot := g.Rotation * math.Pi / 180
	cos, sin := math.Cos(rot), math.Sin(rot)

	x = g.Origin[0] + u*cos - vh*sin
	y = g.Origin[1] + u*sin + vh*cos
	z = g.Origin[2] + vz
	return x, y, z
}

// Range returns the smallest and largest finite values. ok is false when the
// grid holds no finite value.
func (g *Grid) Range() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range g.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = min(lo, v)
		hi = max(hi, v)
		ok = true
	}
	return lo, hi, ok
}

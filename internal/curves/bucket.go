package curves

import (
	"math"

	"github.com/paulmach/orb"
)

// bucketIndex is a uniform grid of square cells. Every point within cell
// size of a query lies in the query's cell or one of its eight neighbours.
type bucketIndex struct {
	size  float64
	cells map[[2]int64][]int
}

func newBucketIndex(size float64) *bucketIndex {
	return &bucketIndex{size: size, cells: make(map[[2]int64][]int)}
}

func (b *bucketIndex) key(p orb.Point) [2]int64 {
	return [2]int64{int64(math.Floor(p[0] / b.size)), int64(math.Floor(p[1] / b.size))}
}

func (b *bucketIndex) insert(p orb.Point, id int) {
	k := b.key(p)
	b.cells[k] = append(b.cells[k], id)
}

// visit calls fn for every id stored in the 3x3 block of cells around p.
func (b *bucketIndex) visit(p orb.Point, fn func(id int)) {
	k := b.key(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, id := range b.cells[[2]int64{k[0] + dx, k[1] + dy}] {
				fn(id)
			}
		}
	}
}

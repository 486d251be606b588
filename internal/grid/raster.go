package grid

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/lucasb-eyer/go-colorful"
)

// FromImage builds a unit-cell grid from the perceptual lightness (CIE L*,
// 0 to 1) of each pixel. Image rows run top to bottom while v runs upward,
// so the bottom row becomes j = 0. Fully transparent pixels are no-data.
func FromImage(img image.Image) (*Grid, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	g := &Grid{
		UCellSize: 1,
		VCellSize: 1,
		UCount:    width,
		VCount:    height,
		Values:    make([]float64, width*height),
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	for y := 0; y < height; y++ {
		j := height - 1 - y
		for x := 0; x < width; x++ {
			c, ok := colorful.MakeColor(img.At(x+bounds.Min.X, y+bounds.Min.Y))
			if !ok {
				g.Values[g.Index(x, j)] = math.NaN()
				continue
			}
			l, _, _ := c.Lab()
			g.Values[g.Index(x, j)] = l
		}
	}
	return g, nil
}

// LoadImage reads a raster file and converts it with FromImage.
func LoadImage(path string) (*Grid, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("grid: open image: %w", err)
	}
	return FromImage(img)
}

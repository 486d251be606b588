package edges

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultPreviewColor is the segment colour of previews without one.
const DefaultPreviewColor = "#ff3030"

// previewSize is the smallest side, in pixels, a preview is scaled up to.
const previewSize = 512

var (
	maskColor  = color.NRGBA{R: 110, G: 110, B: 110, A: 255}
	gridColor  = color.NRGBA{R: 40, G: 120, B: 255, A: 255}
	labelColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	labelBg    = color.NRGBA{R: 0, G: 0, B: 0, A: 200}
)

// SavePreview renders mask with segments drawn over it and writes the result
// as a PNG. Cells are scaled up to at least previewSize pixels on the longer
// side, the window grid is drawn every spacing cells and each grid crossing
// is labeled with its cell index. Row 0 is at the bottom of the image.
func SavePreview(path string, mask [][]bool, segments []Segment, spacing int, hex string) error {
	if hex == "" {
		hex = DefaultPreviewColor
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return fmt.Errorf("%w: preview_color %q is not a hex colour", ErrOutOfRange, hex)
	}
	r, g, b := c.Clamped().RGB255()
	segColor := color.NRGBA{R: r, G: g, B: b, A: 255}

	height := len(mask)
	width := 0
	if height > 0 {
		width = len(mask[0])
	}
	if width == 0 {
		return fmt.Errorf("edges: save preview: empty mask")
	}
	flip := func(y int) int { return height - 1 - y }

	cells := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(cells, cells.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	for y, row := range mask {
		for x, on := range row {
			if on {
				cells.SetNRGBA(x, flip(y), maskColor)
			}
		}
	}
	for _, s := range segments {
		line(s.Start.I, s.Start.J, s.End.I, s.End.J, func(x, y int) {
			cells.SetNRGBA(x, flip(y), segColor)
		})
	}

	scale := max(1, previewSize/max(width, height))
	img := imaging.Resize(cells, width*scale, height*scale, imaging.NearestNeighbor)
	bounds := img.Bounds()

	if spacing > 0 {
		for i := spacing; i < width; i += spacing {
			for py := 0; py < bounds.Dy(); py++ {
				img.SetNRGBA(i*scale, py, gridColor)
			}
		}
		for j := spacing; j < height; j += spacing {
			py := (height - j) * scale
			for px := 0; px < bounds.Dx(); px++ {
				img.SetNRGBA(px, py, gridColor)
			}
		}
		for j := spacing; j < height; j += spacing {
			for i := spacing; i < width; i += spacing {
				drawLabel(img, i*scale+2, (height-j)*scale+2, fmt.Sprintf("%d,%d", i, j), labelColor, labelBg)
			}
		}
	}

	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("edges: save preview: %w", err)
	}
	return nil
}

// line calls plot for every cell of the Bresenham line from (x0, y0) to
// (x1, y1), ends included.
func line(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// glyphs is a 3x5 pixel font covering cell labels.
var glyphs = map[rune][5]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
}

// drawLabel draws text with its top-left corner at (x, y) on a filled box.
// Pixels outside img are skipped.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	const charWidth, labelHeight = 4, 7
	bounds := img.Bounds()
	set := func(px, py int, c color.NRGBA) {
		if (image.Point{X: px, Y: py}).In(bounds) {
			img.SetNRGBA(px, py, c)
		}
	}

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < len(text)*charWidth; dx++ {
			set(x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		for row, bits := range glyphs[ch] {
			for col, bit := range bits {
				if bit == '1' {
					set(cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}

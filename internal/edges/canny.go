package edges

import (
	"image"
	"math"
	"slices"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"
)

// Hysteresis thresholds, as quantiles of the non-zero gradient magnitudes.
const (
	lowQuantile  = 0.1
	highQuantile = 0.2
)

// canny returns the edge mask of a width x height raster of finite values
// stored row by row. The result is indexed [row][column].
//
// # Algorithm
//
//  1. Normalization: values are stretched to 8-bit gray between their minimum
//     and maximum.
//
//  2. Gaussian blur with the given sigma; sigma 0 skips the blur.
//
//  3. Gradient computation: Sobel operators for X and Y gradients
//     magnitude = sqrt(Gx² + Gy²)
//     direction = atan2(Gy, Gx)
//
//  4. Non-maximum suppression: only local maxima along the gradient direction
//     are kept.
//
//  5. Hysteresis thresholding: maxima above the high quantile are edges, and
//     maxima above the low quantile are edges when 8-connected to one.
func canny(values []float64, width, height int, sigma float64) [][]bool {
	edges := make([][]bool, height)
	for y := range edges {
		edges[y] = make([]bool, width)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if !(hi > lo) {
		return edges
	}

	gray := image.NewGray(image.Rect(0, 0, width, height))
	scale := 255 / (hi - lo)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gray.Pix[y*gray.Stride+x] = uint8(math.Round((values[y*width+x] - lo) * scale))
		}
	}

	blurred := imaging.Blur(gray, sigma)
	smooth := make([][]float64, height)
	for y := 0; y < height; y++ {
		smooth[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			smooth[y][x] = float64(blurred.Pix[y*blurred.Stride+x*4]) / 255.0
		}
	}

	magnitude, direction := sobel(smooth, width, height)
	suppressed := nonMaximum(magnitude, direction, width, height)

	var positive []float64
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if magnitude[y][x] > 0 {
				positive = append(positive, magnitude[y][x])
			}
		}
	}
	if len(positive) == 0 {
		return edges
	}
	slices.Sort(positive)
	lowThresh := stat.Quantile(lowQuantile, stat.Empirical, positive, nil)
	highThresh := stat.Quantile(highQuantile, stat.Empirical, positive, nil)

	hysteresis(suppressed, edges, lowThresh, highThresh, width, height)
	return edges
}

var (
	sobelX = [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// sobel returns the gradient magnitude and direction of img. Borders use
// replicated edge values.
func sobel(img [][]float64, width, height int) (magnitude, direction [][]float64) {
	magnitude = make([][]float64, height)
	direction = make([][]float64, height)
	for y := 0; y < height; y++ {
		magnitude[y] = make([]float64, width)
		direction[y] = make([]float64, width)

		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					gx += img[py][px] * sobelX[ky+1][kx+1]
					gy += img[py][px] * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y][x] = math.Sqrt(gx*gx + gy*gy)
			direction[y][x] = math.Atan2(gy, gx)
		}
	}
	return magnitude, direction
}

// nonMaximum zeroes every magnitude that is not a local maximum along its
// gradient direction. The outer ring is always zero.
func nonMaximum(magnitude, direction [][]float64, width, height int) [][]float64 {
	suppressed := make([][]float64, height)
	for y := 0; y < height; y++ {
		suppressed[y] = make([]float64, width)
		if y == 0 || y == height-1 {
			continue
		}
		for x := 1; x < width-1; x++ {
			mag := magnitude[y][x]
			if mag == 0 {
				continue
			}

			angle := direction[y][x]
			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1 = magnitude[y][x-1]
				n2 = magnitude[y][x+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1 = magnitude[y-1][x-1]
				n2 = magnitude[y+1][x+1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1 = magnitude[y-1][x]
				n2 = magnitude[y+1][x]
			default:
				n1 = magnitude[y-1][x+1]
				n2 = magnitude[y+1][x-1]
			}

			if mag >= n1 && mag >= n2 {
				suppressed[y][x] = mag
			}
		}
	}
	return suppressed
}

// hysteresis marks strong maxima and the weak maxima connected to them.
func hysteresis(suppressed [][]float64, edges [][]bool, low, high float64, width, height int) {
	type cell struct{ x, y int }
	var stack []cell
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if v := suppressed[y][x]; v > 0 && v >= high {
				edges[y][x] = true
				stack = append(stack, cell{x, y})
			}
		}
	}

	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for ky := -1; ky <= 1; ky++ {
			for kx := -1; kx <= 1; kx++ {
				px, py := c.x+kx, c.y+ky
				if px < 0 || py < 0 || px >= width || py >= height || edges[py][px] {
					continue
				}
				if v := suppressed[py][px]; v > 0 && v >= low {
					edges[py][px] = true
					stack = append(stack, cell{px, py})
				}
			}
		}
	}
}

// clamp constrains val to the range [lo, hi].
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

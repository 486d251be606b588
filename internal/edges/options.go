package edges

import (
	"errors"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrOutOfRange indicates an option outside its accepted range.
var ErrOutOfRange = errors.New("edges: option out of range")

// Options controls edge detection.
type Options struct {
	// Sigma is the standard deviation, in cells, of the Gaussian blur applied
	// before computing gradients. Range [0, 10].
	Sigma float64 `json:"sigma"`

	// Threshold is the number of accumulator votes a line needs before it is
	// traced. Range [1, 100].
	Threshold float64 `json:"threshold"`

	// LineLength is the minimum extent of a segment along u or v, in cells.
	// Range [1, 100].
	LineLength int `json:"line_length"`

	// LineGap is the largest run of non-edge cells a segment may bridge.
	// Range [1, 100].
	LineGap int `json:"line_gap"`

	// WindowSize is the side, in cells, of the square windows the Hough pass
	// runs in. Range [16, 512].
	WindowSize int `json:"window_size"`

	// MaskPath, when set, receives the Canny edge mask as a PNG image.
	MaskPath string `json:"mask_path,omitempty"`

	// PreviewPath, when set, receives the mask with the detected segments
	// and the window grid drawn over it.
	PreviewPath string `json:"preview_path,omitempty"`

	// PreviewColor is the hex colour of segments in the preview.
	PreviewColor string `json:"preview_color,omitempty"`
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Sigma:      1,
		Threshold:  1,
		LineLength: 1,
		LineGap:    1,
		WindowSize: 64,
	}
}

// Validate checks every option against its range.
func (o Options) Validate() error {
	if math.IsNaN(o.Sigma) || o.Sigma < 0 || o.Sigma > 10 {
		return fmt.Errorf("%w: sigma must be in [0, 10], got %g", ErrOutOfRange, o.Sigma)
	}
	if math.IsNaN(o.Threshold) || o.Threshold < 1 || o.Threshold > 100 {
		return fmt.Errorf("%w: threshold must be in [1, 100], got %g", ErrOutOfRange, o.Threshold)
	}
	if err := checkInt("line_length", o.LineLength, 1, 100); err != nil {
		return err
	}
	if err := checkInt("line_gap", o.LineGap, 1, 100); err != nil {
		return err
	}
	if err := checkInt("window_size", o.WindowSize, 16, 512); err != nil {
		return err
	}
	if o.PreviewColor != "" {
		if _, err := colorful.Hex(o.PreviewColor); err != nil {
			return fmt.Errorf("%w: preview_color %q is not a hex colour", ErrOutOfRange, o.PreviewColor)
		}
	}
	return nil
}

func checkInt(name string, v, lo, hi int) error {
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s must be in [%d, %d], got %d", ErrOutOfRange, name, lo, hi, v)
	}
	return nil
}

package workspace

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/ironsheep/curve-apps/internal/connection"
)

// Feature properties written by EncodeCurve. zProperty holds per-vertex
// elevations, which GeoJSON positions written by this package do not carry.
const (
	nameProperty  = "name"
	groupProperty = "group"
	zProperty     = "z"
)

var (
	// ErrUnsupportedGeometry indicates a feature that is not a line.
	ErrUnsupportedGeometry = errors.New("workspace: only LineString and MultiLineString features are supported")

	// ErrReservedProperty indicates a data channel named like a property
	// EncodeCurve writes itself.
	ErrReservedProperty = errors.New("workspace: channel name is a reserved feature property")
)

// ReservedProperty reports whether name is a feature property EncodeCurve
// sets on every feature.
func ReservedProperty(name string) bool {
	switch name {
	case nameProperty, groupProperty, zProperty:
		return true
	}
	return false
}

// Curve is a set of polylines with per-vertex data channels.
type Curve struct {
	Vertices []connection.Vertex

	// Cells link consecutive vertices of each line.
	Cells []connection.Edge

	// Parts holds one id per vertex, shared by the vertices of one line.
	Parts []int32

	// Data maps channel names to one value per vertex. Vertices of features
	// lacking a channel hold NaN.
	Data map[string][]float64
}

// Channel returns the named channel as integers, rounding each value. NaN
// becomes 0. ok is false when the channel does not exist.
func (c *Curve) Channel(name string) (values []int32, ok bool) {
	raw, ok := c.Data[name]
	if !ok {
		return nil, false
	}
	values = make([]int32, len(raw))
	for k, v := range raw {
		if math.IsNaN(v) {
			continue
		}
		values[k] = int32(math.Round(v))
	}
	return values, true
}

// ReadCurve reads a GeoJSON FeatureCollection of lines. Files ending in .zst
// or .lz4 are decompressed first.
func ReadCurve(path string) (*Curve, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workspace: read curve: %w", err)
	}
	if data, err = decompress(path, data); err != nil {
		return nil, err
	}
	return DecodeCurve(data)
}

// DecodeCurve parses a GeoJSON FeatureCollection of lines. Each line is a
// part. Numeric feature properties become data channels: a number applies to
// every vertex of the feature, an array gives one value per vertex, either
// flat or nested by line.
func DecodeCurve(data []byte) (*Curve, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("workspace: decode feature collection: %w", err)
	}

	c := &Curve{Data: make(map[string][]float64)}
	var part int32
	for fi, f := range fc.Features {
		var lines []orb.LineString
		switch g := f.Geometry.(type) {
		case orb.LineString:
			lines = []orb.LineString{g}
		case orb.MultiLineString:
			lines = g
		case nil:
			continue
		default:
			return nil, fmt.Errorf("%w: feature %d is a %s", ErrUnsupportedGeometry, fi, g.GeoJSONType())
		}

		start := len(c.Vertices)
		count := 0
		for _, line := range lines {
			count += len(line)
		}
		z, ok := vertexValues(f.Properties[zProperty], lines, count)
		if !ok {
			z = make([]float64, count)
		}

		for _, line := range lines {
			for k, p := range line {
				idx := len(c.Vertices)
				c.Vertices = append(c.Vertices, connection.Vertex{X: p[0], Y: p[1], Z: z[idx-start]})
				c.Parts = append(c.Parts, part)
				if k > 0 {
					c.Cells = append(c.Cells, connection.Edge{idx - 1, idx})
				}
			}
			part++
		}

		for key, raw := range f.Properties {
			if key == zProperty {
				continue
			}
			values, ok := vertexValues(raw, lines, count)
			if !ok {
				continue
			}
			ch, exists := c.Data[key]
			if !exists {
				ch = nans(start)
			}
			c.Data[key] = append(ch, values...)
		}
		for key, ch := range c.Data {
			if len(ch) < len(c.Vertices) {
				c.Data[key] = append(ch, nans(len(c.Vertices)-len(ch))...)
			}
		}
	}
	return c, nil
}

// Meta names and groups a written curve.
type Meta struct {
	Name  string
	Group string

	// Channel is the property holding Labels. Labels split the curve into one
	// feature per label; nil writes a single feature.
	Channel string
	Labels  []int32
}

// WriteCurve writes c as a GeoJSON FeatureCollection, creating the parent
// directory when needed. Paths ending in .zst or .lz4 are compressed.
func WriteCurve(path string, c *Curve, meta Meta) error {
	data, err := EncodeCurve(c, meta)
	if err != nil {
		return err
	}
	if data, err = compress(path, data); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("workspace: create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("workspace: write curve: %w", err)
	}
	return nil
}

// EncodeCurve renders c as a FeatureCollection with one MultiLineString
// feature per label, in ascending label order. Cells that continue the
// previous cell extend its line.
func EncodeCurve(c *Curve, meta Meta) ([]byte, error) {
	if meta.Labels != nil && len(meta.Labels) != len(c.Vertices) {
		return nil, &connection.ErrLengthMismatch{Field: "labels", Expected: len(c.Vertices), Actual: len(meta.Labels)}
	}
	if meta.Labels != nil && ReservedProperty(meta.Channel) {
		return nil, fmt.Errorf("%w: %q", ErrReservedProperty, meta.Channel)
	}

	groups := make(map[int32][]connection.Edge)
	for _, e := range c.Cells {
		var label int32
		if meta.Labels != nil {
			label = meta.Labels[e[0]]
		}
		groups[label] = append(groups[label], e)
	}

	fc := geojson.NewFeatureCollection()
	for _, label := range slices.Sorted(maps.Keys(groups)) {
		lines := chain(groups[label])

		mls := make(orb.MultiLineString, len(lines))
		z := make([][]float64, len(lines))
		for li, line := range lines {
			mls[li] = make(orb.LineString, len(line))
			z[li] = make([]float64, len(line))
			for k, idx := range line {
				v := c.Vertices[idx]
				mls[li][k] = v.XY()
				z[li][k] = v.Z
			}
		}

		f := geojson.NewFeature(mls)
		f.Properties[nameProperty] = meta.Name
		if meta.Group != "" {
			f.Properties[groupProperty] = meta.Group
		}
		if meta.Labels != nil && meta.Channel != "" {
			f.Properties[meta.Channel] = label
		}
		f.Properties[zProperty] = z
		fc.Append(f)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("workspace: encode feature collection: %w", err)
	}
	return data, nil
}

// chain joins cells into lines of vertex indices.
func chain(cells []connection.Edge) [][]int {
	var lines [][]int
	for _, e := range cells {
		if n := len(lines); n > 0 && lines[n-1][len(lines[n-1])-1] == e[0] {
			lines[n-1] = append(lines[n-1], e[1])
			continue
		}
		lines = append(lines, []int{e[0], e[1]})
	}
	return lines
}

// vertexValues expands a property value to one number per vertex.
func vertexValues(raw any, lines []orb.LineString, count int) ([]float64, bool) {
	if v, ok := number(raw); ok {
		out := make([]float64, count)
		for k := range out {
			out[k] = v
		}
		return out, true
	}

	arr, ok := raw.([]any)
	if !ok {
		return nil, false
	}
	if len(arr) == count {
		if out, ok := numbers(arr); ok {
			return out, true
		}
	}
	if len(arr) != len(lines) {
		return nil, false
	}
	out := make([]float64, 0, count)
	for li, item := range arr {
		inner, ok := item.([]any)
		if !ok || len(inner) != len(lines[li]) {
			return nil, false
		}
		values, ok := numbers(inner)
		if !ok {
			return nil, false
		}
		out = append(out, values...)
	}
	return out, true
}

func numbers(arr []any) ([]float64, bool) {
	out := make([]float64, len(arr))
	for k, item := range arr {
		v, ok := number(item)
		if !ok {
			return nil, false
		}
		out[k] = v
	}
	return out, true
}

func number(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	}
	return 0, false
}

func nans(n int) []float64 {
	out := make([]float64, n)
	for k := range out {
		out[k] = math.NaN()
	}
	return out
}

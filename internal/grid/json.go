package grid

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
)

// ErrUnknownChannel indicates a requested data channel the document lacks.
var ErrUnknownChannel = errors.New("grid: unknown data channel")

// document is the JSON form of a grid. Null values decode as no-data.
type document struct {
	Grid
	Data map[string][]*float64 `json:"data"`
}

// DecodeJSON reads a grid document and selects the named data channel. An
// empty channel name is accepted when the document carries exactly one.
func DecodeJSON(r io.Reader, channel string) (*Grid, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("grid: decode document: %w", err)
	}

	if channel == "" {
		if len(doc.Data) != 1 {
			return nil, fmt.Errorf("%w: document has %d channels, name one of %v",
				ErrUnknownChannel, len(doc.Data), slices.Sorted(maps.Keys(doc.Data)))
		}
		for name := range doc.Data {
			channel = name
		}
	}
	raw, ok := doc.Data[channel]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}

	g := doc.Grid
	g.Values = make([]float64, len(raw))
	for k, v := range raw {
		if v == nil {
			g.Values[k] = math.NaN()
			continue
		}
		g.Values[k] = *v
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// EncodeJSON writes g as a grid document with a single data channel. NaN
// values are written as null.
func EncodeJSON(w io.Writer, g *Grid, channel string) error {
	raw := make([]*float64, len(g.Values))
	for k := range g.Values {
		if math.IsNaN(g.Values[k]) {
			continue
		}
		raw[k] = &g.Values[k]
	}

	doc := document{Grid: *g, Data: map[string][]*float64{channel: raw}}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("grid: encode document: %w", err)
	}
	return nil
}

package params

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/ironsheep/curve-apps/internal/connection"
	"github.com/ironsheep/curve-apps/internal/edges"
	"github.com/ironsheep/curve-apps/internal/workspace"
)

// Default names given to the written curve when export_as is empty.
const (
	DefaultConnectionName = "Parts Connection"
	DefaultEdgesName      = "Edge Detection"
)

var (
	// ErrMissingSource indicates a source block without an input entity.
	ErrMissingSource = errors.New("params: source entity is required")

	// ErrInvalidWorkers indicates a negative worker count.
	ErrInvalidWorkers = errors.New("params: workers must be non-negative")

	// ErrReservedChannel indicates a data channel whose name collides with a
	// feature property the written curve already uses.
	ErrReservedChannel = errors.New("params: data channel name is reserved")
)

// Source selects the curve to connect and the data channels read from it.
type Source struct {
	Entity string `hcl:"entity" json:"entity"`

	// Parts names the per-vertex property holding part ids. Empty means the
	// curve's own line topology.
	Parts string `hcl:"parts,optional" json:"parts,omitempty"`

	// Data names the per-vertex property holding labels. Empty means every
	// vertex carries label 1.
	Data string `hcl:"data,optional" json:"data,omitempty"`
}

// GridSource selects the grid to scan and its value channel.
type GridSource struct {
	Objects string `hcl:"objects" json:"objects"`
	Data    string `hcl:"data,optional" json:"data,omitempty"`
}

// Output controls where and under which name the result is written. The
// block is optional; a nil *Output behaves like an empty one.
type Output struct {
	// Path of the written GeoJSON file. Empty means a file named after the
	// export name, next to the source.
	Path     string `hcl:"path,optional" json:"path,omitempty"`
	ExportAs string `hcl:"export_as,optional" json:"export_as,omitempty"`
	OutGroup string `hcl:"out_group,optional" json:"out_group,omitempty"`
}

// Name returns the export name, or fallback when none is set.
func (o *Output) Name(fallback string) string {
	if o == nil || strings.TrimSpace(o.ExportAs) == "" {
		return fallback
	}
	return o.ExportAs
}

// Group returns the group the output curve is placed in, empty for none.
func (o *Output) Group() string {
	if o == nil {
		return ""
	}
	return o.OutGroup
}

// ResolvePath returns the output file path. Without an explicit path the file
// is named after name and placed next to source.
func (o *Output) ResolvePath(source, name string) string {
	if o != nil && o.Path != "" {
		return o.Path
	}
	file := strings.ToLower(strings.Join(strings.Fields(name), "_")) + ".geojson"
	return filepath.Join(filepath.Dir(source), file)
}

// ConnectionDetection holds the tuning scalars of the parts connection pass.
type ConnectionDetection struct {
	// MaxDistance caps connection lengths. Absent means unbounded; zero joins
	// coincident endpoints only.
	MaxDistance *float64 `hcl:"max_distance,optional" json:"max_distance,omitempty"`
	MinEdges    *int     `hcl:"min_edges,optional" json:"min_edges,omitempty"`
	Damping     *float64 `hcl:"damping,optional" json:"damping,omitempty"`

	// Neighbors keeps only the nearest candidates of each fragment end.
	// Absent or zero keeps them all.
	Neighbors *int `hcl:"neighbors,optional" json:"neighbors,omitempty"`
}

// PartsConnection is the parameter bundle of the parts connection driver.
type PartsConnection struct {
	MonitoringDirectory string               `hcl:"monitoring_directory,optional" json:"monitoring_directory,omitempty"`
	Workers             int                  `hcl:"workers,optional" json:"workers,omitempty"`
	Source              Source               `hcl:"source,block" json:"source"`
	Detection           *ConnectionDetection `hcl:"detection,block" json:"detection,omitempty"`
	Output              *Output              `hcl:"output,block" json:"output,omitempty"`
}

// ConnectionParams returns the builder parameters with defaults applied:
// unbounded distance, one edge and no damping.
func (p *PartsConnection) ConnectionParams() connection.Params {
	out := connection.Params{MinEdges: 1}
	d := p.Detection
	if d == nil {
		return out
	}
	if d.MaxDistance != nil {
		v := *d.MaxDistance
		out.MaxDistance = &v
	}
	if d.MinEdges != nil {
		out.MinEdges = *d.MinEdges
	}
	if d.Damping != nil {
		out.Damping = *d.Damping
	}
	return out
}

// Neighbors returns the per-end candidate limit of the curve search, zero
// for none.
func (p *PartsConnection) Neighbors() int {
	if p.Detection == nil || p.Detection.Neighbors == nil {
		return 0
	}
	return *p.Detection.Neighbors
}

// reservedChannel reports whether name would overwrite a property the
// written curve sets itself.
func reservedChannel(name string) bool {
	return name != "" && workspace.ReservedProperty(name)
}

// Validate checks the bundle for values the driver cannot run with.
func (p *PartsConnection) Validate() error {
	if strings.TrimSpace(p.Source.Entity) == "" {
		return ErrMissingSource
	}
	if p.Workers < 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidWorkers, p.Workers)
	}
	if reservedChannel(p.Source.Data) {
		return fmt.Errorf("%w: %q", ErrReservedChannel, p.Source.Data)
	}
	cp := p.ConnectionParams()
	if d := cp.MaxDistance; d != nil && (*d < 0 || math.IsNaN(*d)) {
		return fmt.Errorf("%w: max_distance must be non-negative, got %g", connection.ErrInvalidParameter, *d)
	}
	if n := p.Neighbors(); n < 0 {
		return fmt.Errorf("%w: neighbors must be non-negative, got %d", connection.ErrInvalidParameter, n)
	}
	if cp.MinEdges < 0 {
		return fmt.Errorf("%w: min_edges must be non-negative, got %d", connection.ErrInvalidParameter, cp.MinEdges)
	}
	if cp.Damping < 0 {
		return fmt.Errorf("%w: damping must be non-negative, got %g", connection.ErrInvalidParameter, cp.Damping)
	}
	return nil
}

// EdgeDetection holds the Canny and Hough settings of the edge detection
// pass.
type EdgeDetection struct {
	Sigma      *float64 `hcl:"sigma,optional" json:"sigma,omitempty"`
	Threshold  *float64 `hcl:"threshold,optional" json:"threshold,omitempty"`
	LineLength *int     `hcl:"line_length,optional" json:"line_length,omitempty"`
	LineGap    *int     `hcl:"line_gap,optional" json:"line_gap,omitempty"`
	WindowSize *int     `hcl:"window_size,optional" json:"window_size,omitempty"`
	MaskPath   string   `hcl:"mask_path,optional" json:"mask_path,omitempty"`

	PreviewPath  string `hcl:"preview_path,optional" json:"preview_path,omitempty"`
	PreviewColor string `hcl:"preview_color,optional" json:"preview_color,omitempty"`
}

// EdgeDetectionParams is the parameter bundle of the edge detection driver.
type EdgeDetectionParams struct {
	MonitoringDirectory string         `hcl:"monitoring_directory,optional" json:"monitoring_directory,omitempty"`
	Source              GridSource     `hcl:"source,block" json:"source"`
	Detection           *EdgeDetection `hcl:"detection,block" json:"detection,omitempty"`
	Output              *Output        `hcl:"output,block" json:"output,omitempty"`
}

// Options returns the detector options with unset values defaulted.
func (p *EdgeDetectionParams) Options() edges.Options {
	out := edges.DefaultOptions()
	d := p.Detection
	if d == nil {
		return out
	}
	if d.Sigma != nil {
		out.Sigma = *d.Sigma
	}
	if d.Threshold != nil {
		out.Threshold = *d.Threshold
	}
	if d.LineLength != nil {
		out.LineLength = *d.LineLength
	}
	if d.LineGap != nil {
		out.LineGap = *d.LineGap
	}
	if d.WindowSize != nil {
		out.WindowSize = *d.WindowSize
	}
	out.MaskPath = d.MaskPath
	out.PreviewPath = d.PreviewPath
	out.PreviewColor = d.PreviewColor
	return out
}

// Validate checks the bundle for values the driver cannot run with.
func (p *EdgeDetectionParams) Validate() error {
	if strings.TrimSpace(p.Source.Objects) == "" {
		return ErrMissingSource
	}
	return p.Options().Validate()
}

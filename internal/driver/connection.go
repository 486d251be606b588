package driver

import (
	"context"
	"errors"
	"fmt"

	"github.com/ironsheep/curve-apps/internal/connection"
	"github.com/ironsheep/curve-apps/internal/ctxlog"
	"github.com/ironsheep/curve-apps/internal/curves"
	"github.com/ironsheep/curve-apps/internal/params"
	"github.com/ironsheep/curve-apps/internal/workspace"
)

// ErrMissingChannel indicates a named data channel absent from the source.
var ErrMissingChannel = errors.New("driver: data channel not found on source")

// Report summarizes a driver run.
type Report struct {
	// Name of the curve object.
	Name string `json:"name"`

	// Path of the written file; empty when nothing was found.
	Path string `json:"path,omitempty"`

	// Published is the copy in the monitoring directory, if any.
	Published string `json:"published,omitempty"`

	Vertices int `json:"vertices"`
	Cells    int `json:"cells"`

	// Skipped lists the labels that produced no connection.
	Skipped []connection.LabelSkip `json:"skipped,omitempty"`
}

// Found reports whether the run wrote a curve.
func (r *Report) Found() bool {
	return r.Path != ""
}

// PartsConnectionDriver links the parts of a labeled curve file and writes
// the connected curve.
type PartsConnectionDriver struct {
	params  *params.PartsConnection
	builder *connection.Builder
	monitor workspace.Monitor
}

// NewPartsConnection validates p and returns a driver for it.
//
// Parameters:
//   - p: The parameter bundle. Source.Entity must name a GeoJSON curve; the
//     detection and output blocks may be nil.
//
// Returns:
//   - *PartsConnectionDriver: A driver whose Run may be called repeatedly.
//   - error: Non-nil if p fails Validate, for example a negative
//     max_distance or a reserved data channel name.
//
// Workers above 1 enable concurrent label processing; the written curve is
// the same as with a single worker.
func NewPartsConnection(p *params.PartsConnection) (*PartsConnectionDriver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var opts []connection.Option
	if p.Workers > 1 {
		opts = append(opts, connection.WithWorkers(p.Workers))
	}
	return &PartsConnectionDriver{
		params:  p,
		builder: connection.New(curves.Finder{Neighbors: p.Neighbors()}, opts...),
		monitor: workspace.Monitor{Dir: p.MonitoringDirectory},
	}, nil
}

// Run reads the source curve, connects its labels and writes the result.
//
// Returns:
//   - *Report: The written path, its monitoring copy and the vertex and
//     cell counts. Skipped lists labels that produced no connection.
//   - error: Non-nil if the source cannot be read, a named channel is
//     missing, the curve has no vertices, or ctx is cancelled.
//
// Finding no connection is not an error: nothing is written and the report's
// Found is false.
func (d *PartsConnectionDriver) Run(ctx context.Context) (*Report, error) {
	logger := ctxlog.FromContext(ctx)
	p := d.params

	curve, err := workspace.ReadCurve(p.Source.Entity)
	if err != nil {
		return nil, err
	}
	in, err := d.input(curve)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Begin connecting labels ...", "vertices", len(in.Vertices))

	res, err := d.builder.FindConnections(ctx, in)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Process completed.")

	name := p.Output.Name(params.DefaultConnectionName)
	report := &Report{Name: name, Skipped: res.Skipped}
	if !res.Found() {
		logger.InfoContext(ctx, "No connections found.")
		return report, nil
	}

	meta := workspace.Meta{Name: name, Group: p.Output.Group()}
	if p.Source.Data != "" {
		meta.Channel = p.Source.Data
		meta.Labels = res.Labels
	}
	out := &workspace.Curve{Vertices: res.Vertices, Cells: res.Edges}

	path := p.Output.ResolvePath(p.Source.Entity, name)
	if err := workspace.WriteCurve(path, out, meta); err != nil {
		return nil, err
	}
	report.Path = path
	report.Vertices = len(res.Vertices)
	report.Cells = len(res.Edges)

	if report.Published, err = d.monitor.Publish(path); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, fmt.Sprintf("Curve object '%s' saved to '%s'.", name, path))
	return report, nil
}

// input assembles the builder input from the source curve: parts from the
// named channel or the curve's lines, labels from the data channel.
func (d *PartsConnectionDriver) input(curve *workspace.Curve) (connection.Input, error) {
	src := d.params.Source
	in := connection.Input{
		Vertices: curve.Vertices,
		Parts:    curve.Parts,
		Params:   d.params.ConnectionParams(),
	}

	if src.Parts != "" {
		parts, ok := curve.Channel(src.Parts)
		if !ok {
			return in, fmt.Errorf("%w: parts %q", ErrMissingChannel, src.Parts)
		}
		in.Parts = parts
	}
	if src.Data != "" {
		labels, ok := curve.Channel(src.Data)
		if !ok {
			return in, fmt.Errorf("%w: data %q", ErrMissingChannel, src.Data)
		}
		in.Labels = labels
	}

	if err := in.Validate(); err != nil {
		return in, err
	}
	return in, nil
}

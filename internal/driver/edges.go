package driver

import (
	"context"
	"fmt"

	"github.com/ironsheep/curve-apps/internal/ctxlog"
	"github.com/ironsheep/curve-apps/internal/edges"
	"github.com/ironsheep/curve-apps/internal/grid"
	"github.com/ironsheep/curve-apps/internal/params"
	"github.com/ironsheep/curve-apps/internal/workspace"
)

// EdgeDetectionDriver finds straight edges in a grid and writes them as a
// curve.
type EdgeDetectionDriver struct {
	params  *params.EdgeDetectionParams
	cache   *grid.Cache
	monitor workspace.Monitor
}

// NewEdgeDetection validates p and returns a driver for it.
//
// Parameters:
//   - p: The parameter bundle. Source.Objects must name a grid document or a
//     raster image.
//   - cache: Shared grid cache. A nil cache reads every grid from disk.
//
// Returns:
//   - *EdgeDetectionDriver: A driver whose Run may be called repeatedly.
//   - error: Non-nil if p fails Validate.
func NewEdgeDetection(p *params.EdgeDetectionParams, cache *grid.Cache) (*EdgeDetectionDriver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if cache == nil {
		cache = grid.NewCache()
	}
	return &EdgeDetectionDriver{
		params:  p,
		cache:   cache,
		monitor: workspace.Monitor{Dir: p.MonitoringDirectory},
	}, nil
}

// Run loads the grid, detects edges and writes the segments. Finding no edge
// is not an error.
func (d *EdgeDetectionDriver) Run(ctx context.Context) (*Report, error) {
	logger := ctxlog.FromContext(ctx)
	p := d.params

	g, err := d.cache.Load(p.Source.Objects, p.Source.Data)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Begin edge detection ...", "u_count", g.UCount, "v_count", g.VCount)

	res, err := edges.Detect(ctx, g, p.Options())
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Process completed.", "edge_cells", res.EdgeCells, "segments", len(res.Segments))

	name := p.Output.Name(params.DefaultEdgesName)
	report := &Report{Name: name}
	if !res.Found() {
		logger.InfoContext(ctx, "No edges found.")
		return report, nil
	}

	out := &workspace.Curve{Vertices: res.Vertices, Cells: res.Cells}
	path := p.Output.ResolvePath(p.Source.Objects, name)
	if err := workspace.WriteCurve(path, out, workspace.Meta{Name: name, Group: p.Output.Group()}); err != nil {
		return nil, err
	}
	report.Path = path
	report.Vertices = len(res.Vertices)
	report.Cells = len(res.Cells)

	if report.Published, err = d.monitor.Publish(path); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, fmt.Sprintf("Curve object '%s' saved to '%s'.", name, path))
	return report, nil
}

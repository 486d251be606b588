package params

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/curve-apps/internal/connection"
	"github.com/ironsheep/curve-apps/internal/ctxlog"
	"github.com/ironsheep/curve-apps/internal/edges"
)

func testContext() context.Context {
	return ctxlog.WithLogger(context.Background(), ctxlog.Discard())
}

func float(v float64) *float64 { return &v }

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPartsConnection_HCL(t *testing.T) {
	path := writeFile(t, "connect.hcl", `
monitoring_directory = "monitor"
workers              = 4

source {
  entity = "curves.geojson"
  parts  = "line_id"
  data   = "label"
}

detection {
  max_distance = 250
  min_edges    = 2
  damping      = 0.5
  neighbors    = 3
}

output {
  export_as = "Joined"
  out_group = "Connections"
}
`)
	dir := filepath.Dir(path)

	p, err := LoadPartsConnection(testContext(), path)
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	assert.Equal(t, filepath.Join(dir, "curves.geojson"), p.Source.Entity)
	assert.Equal(t, filepath.Join(dir, "monitor"), p.MonitoringDirectory)
	assert.Equal(t, "line_id", p.Source.Parts)
	assert.Equal(t, "label", p.Source.Data)
	assert.Equal(t, 4, p.Workers)
	assert.Equal(t, connection.Params{MaxDistance: float(250), MinEdges: 2, Damping: 0.5}, p.ConnectionParams())
	assert.Equal(t, 3, p.Neighbors())

	assert.Equal(t, "Joined", p.Output.Name(DefaultConnectionName))
	assert.Equal(t, filepath.Join(dir, "joined.geojson"), p.Output.ResolvePath(p.Source.Entity, "Joined"))
}

func TestLoadPartsConnection_JSON(t *testing.T) {
	path := writeFile(t, "connect.json", `{
  "source": {"entity": "/data/curves.geojson"},
  "detection": {"min_edges": 3},
  "output": {"path": "/data/out.geojson"}
}`)

	p, err := LoadPartsConnection(testContext(), path)
	require.NoError(t, err)

	assert.Equal(t, "/data/curves.geojson", p.Source.Entity)
	assert.Equal(t, "/data/out.geojson", p.Output.ResolvePath(p.Source.Entity, "x"))
	assert.Equal(t, connection.Params{MinEdges: 3}, p.ConnectionParams())
}

func TestLoadPartsConnection_Defaults(t *testing.T) {
	path := writeFile(t, "connect.hcl", `
source {
  entity = "/data/curves.geojson"
}
`)

	p, err := LoadPartsConnection(testContext(), path)
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	assert.Nil(t, p.Detection)
	assert.Nil(t, p.Output, "the output block is optional")
	got := p.ConnectionParams()
	assert.Equal(t, connection.Params{MinEdges: 1}, got)
	assert.Nil(t, got.MaxDistance, "absent max_distance stays unbounded")
	assert.Zero(t, p.Neighbors())
	assert.Empty(t, p.Output.Group())
	assert.Equal(t, DefaultConnectionName, p.Output.Name(DefaultConnectionName))
	assert.Equal(t, "/data/parts_connection.geojson", p.Output.ResolvePath(p.Source.Entity, DefaultConnectionName))
	assert.Empty(t, p.MonitoringDirectory)
}

func TestLoadPartsConnection_Env(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("CURVE_APPS_TEST_DATA", dataDir)

	path := writeFile(t, "connect.hcl", `
source {
  entity = "${env.CURVE_APPS_TEST_DATA}/curves.geojson"
}
`)

	p, err := LoadPartsConnection(testContext(), path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dataDir, "curves.geojson"), p.Source.Entity)
}

func TestLoadPartsConnection_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPartsConnection(testContext(), filepath.Join(t.TempDir(), "absent.hcl"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("syntax", func(t *testing.T) {
		path := writeFile(t, "bad.hcl", `source {`)
		_, err := LoadPartsConnection(testContext(), path)
		assert.ErrorContains(t, err, "params: parse")
	})

	t.Run("missing block", func(t *testing.T) {
		path := writeFile(t, "bad.hcl", `output {}`)
		_, err := LoadPartsConnection(testContext(), path)
		assert.ErrorContains(t, err, "params: decode")
	})

	t.Run("wrong type", func(t *testing.T) {
		path := writeFile(t, "bad.hcl", `
source {
  entity = "a.geojson"
}
detection {
  min_edges = "many"
}
output {}
`)
		_, err := LoadPartsConnection(testContext(), path)
		assert.ErrorContains(t, err, "params: decode")
	})
}

func TestLoadPartsConnection_ZeroMaxDistance(t *testing.T) {
	path := writeFile(t, "connect.hcl", `
source {
  entity = "/data/curves.geojson"
}
detection {
  max_distance = 0
}
`)

	p, err := LoadPartsConnection(testContext(), path)
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	got := p.ConnectionParams()
	require.NotNil(t, got.MaxDistance, "an explicit zero is a cap, not unbounded")
	assert.Zero(t, *got.MaxDistance)
}

func TestPartsConnection_Validate(t *testing.T) {
	neg := -1
	negF := -0.5
	nan := math.NaN()

	cases := []struct {
		name string
		p    PartsConnection
		want error
	}{
		{"ok", PartsConnection{Source: Source{Entity: "a"}}, nil},
		{"no entity", PartsConnection{}, ErrMissingSource},
		{"workers", PartsConnection{Source: Source{Entity: "a"}, Workers: -2}, ErrInvalidWorkers},
		{"min edges", PartsConnection{Source: Source{Entity: "a"}, Detection: &ConnectionDetection{MinEdges: &neg}}, connection.ErrInvalidParameter},
		{"damping", PartsConnection{Source: Source{Entity: "a"}, Detection: &ConnectionDetection{Damping: &negF}}, connection.ErrInvalidParameter},
		{"zero max distance", PartsConnection{Source: Source{Entity: "a"}, Detection: &ConnectionDetection{MaxDistance: float(0)}}, nil},
		{"negative max distance", PartsConnection{Source: Source{Entity: "a"}, Detection: &ConnectionDetection{MaxDistance: &negF}}, connection.ErrInvalidParameter},
		{"nan max distance", PartsConnection{Source: Source{Entity: "a"}, Detection: &ConnectionDetection{MaxDistance: &nan}}, connection.ErrInvalidParameter},
		{"neighbors", PartsConnection{Source: Source{Entity: "a"}, Detection: &ConnectionDetection{Neighbors: &neg}}, connection.ErrInvalidParameter},
		{"reserved data channel", PartsConnection{Source: Source{Entity: "a", Data: "z"}}, ErrReservedChannel},
		{"data channel", PartsConnection{Source: Source{Entity: "a", Data: "label"}}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.Validate()
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoadEdgeDetection(t *testing.T) {
	path := writeFile(t, "edges.hcl", `
source {
  objects = "grid.json"
  data    = "values"
}

detection {
  sigma       = 2.5
  line_length = 12
  window_size = 32
  mask_path   = "mask.png"

  preview_path  = "out/preview.png"
  preview_color = "#00ff00"
}

output {
  export_as = "square"
}
`)
	dir := filepath.Dir(path)

	p, err := LoadEdgeDetection(testContext(), path)
	require.NoError(t, err)
	require.NoError(t, p.Validate())

	assert.Equal(t, filepath.Join(dir, "grid.json"), p.Source.Objects)
	assert.Equal(t, "values", p.Source.Data)

	want := edges.DefaultOptions()
	want.Sigma = 2.5
	want.LineLength = 12
	want.WindowSize = 32
	want.MaskPath = filepath.Join(dir, "mask.png")
	want.PreviewPath = filepath.Join(dir, "out", "preview.png")
	want.PreviewColor = "#00ff00"
	assert.Equal(t, want, p.Options())
}

func TestEdgeDetectionParams_Defaults(t *testing.T) {
	p := EdgeDetectionParams{Source: GridSource{Objects: "grid.json"}}
	require.NoError(t, p.Validate())
	assert.Equal(t, edges.DefaultOptions(), p.Options())
	assert.Equal(t, DefaultEdgesName, p.Output.Name(DefaultEdgesName))
}

func TestEdgeDetectionParams_Validate(t *testing.T) {
	p := EdgeDetectionParams{}
	assert.ErrorIs(t, p.Validate(), ErrMissingSource)

	tooSmall := 8
	p = EdgeDetectionParams{
		Source:    GridSource{Objects: "grid.json"},
		Detection: &EdgeDetection{WindowSize: &tooSmall},
	}
	assert.ErrorIs(t, p.Validate(), edges.ErrOutOfRange)

	nan := math.NaN()
	p.Detection = &EdgeDetection{Sigma: &nan}
	assert.ErrorIs(t, p.Validate(), edges.ErrOutOfRange)
}

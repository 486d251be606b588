package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/curve-apps/internal/ctxlog"
	"github.com/ironsheep/curve-apps/internal/driver"
	"github.com/ironsheep/curve-apps/internal/grid"
)

func testContext() context.Context {
	return ctxlog.WithLogger(context.Background(), ctxlog.Discard())
}

const fragments = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 0]]}, "properties": {"label": 1}},
    {"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[2, 0]]}, "properties": {"label": 1}},
    {"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[5, 5]]}, "properties": {"label": 0}}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// callTool sends a tools/call request through handleRequest.
func callTool(t *testing.T, s *Server, name string, args interface{}) *MCPResponse {
	t.Helper()
	params, err := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	require.NoError(t, err)

	resp := s.handleRequest(testContext(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: params})
	require.NotNil(t, resp)
	return resp
}

// reportOf decodes the driver report carried in a successful tool response.
func reportOf(t *testing.T, resp *MCPResponse) driver.Report {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected error: %+v", resp.Error)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	content, ok := result["content"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, content, 1)
	assert.Equal(t, "text", content[0]["type"])

	var report driver.Report
	require.NoError(t, json.Unmarshal([]byte(content[0]["text"].(string)), &report))
	return report
}

func TestNew(t *testing.T) {
	s := New("")
	require.NotNil(t, s)
	assert.NotNil(t, s.cache)
	assert.Equal(t, "dev", s.version)
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{"string id", `{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`, "test-1", "tools/list"},
		{"number id", `{"jsonrpc":"2.0","id":42,"method":"ping"}`, float64(42), "ping"},
		{"null id", `{"jsonrpc":"2.0","id":null,"method":"initialize"}`, nil, "initialize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			require.NoError(t, json.Unmarshal([]byte(tt.json), &req))
			assert.Equal(t, tt.wantID, req.ID)
			assert.Equal(t, tt.wantMethod, req.Method)
			assert.Equal(t, "2.0", req.JSONRPC)
		})
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := New("1.2.3")
	resp := s.handleRequest(testContext(), &MCPRequest{JSONRPC: "2.0", ID: "init-1", Method: "initialize"})
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)
	assert.Equal(t, "init-1", resp.ID)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, protocolVersion, result["protocolVersion"])

	info, ok := result["serverInfo"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "curve-apps", info["name"])
	assert.Equal(t, "1.2.3", info["version"])
}

func TestHandleRequest_Ping(t *testing.T) {
	resp := New("").handleRequest(testContext(), &MCPRequest{JSONRPC: "2.0", ID: "ping-1", Method: "ping"})
	require.NotNil(t, resp)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "ping-1", resp.ID)
}

func TestHandleRequest_ToolsList(t *testing.T) {
	resp := New("").handleRequest(testContext(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/list"})
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	tools, ok := result["tools"].([]Tool)
	require.True(t, ok)

	var names []string
	for _, tool := range tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
		assert.Equal(t, "object", tool.InputSchema["type"])
	}
	assert.Equal(t, []string{"parts_connection", "edge_detection"}, names)
}

func TestHandleRequest_NotificationsInitialized(t *testing.T) {
	resp := New("").handleRequest(testContext(), &MCPRequest{JSONRPC: "2.0", Method: "notifications/initialized"})
	assert.Nil(t, resp, "notifications get no response")
}

func TestHandleRequest_MethodNotFound(t *testing.T) {
	resp := New("").handleRequest(testContext(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "nonexistent/method"})
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeMethodNotFound, resp.Error.Code)
	assert.Nil(t, resp.Error.Data)
}

func TestHandleToolsCall_PartsConnection(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "curves.geojson", fragments)

	resp := callTool(t, New(""), "parts_connection", map[string]interface{}{
		"source":    map[string]interface{}{"entity": src, "data": "label"},
		"detection": map[string]interface{}{"max_distance": 10},
		"output":    map[string]interface{}{"export_as": "Joined"},
	})

	report := reportOf(t, resp)
	assert.Equal(t, "Joined", report.Name)
	assert.Equal(t, filepath.Join(dir, "joined.geojson"), report.Path)
	assert.Equal(t, 3, report.Vertices)
	assert.Equal(t, 2, report.Cells)
	assert.FileExists(t, report.Path)
}

func TestHandleToolsCall_ParamsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "curves.geojson", fragments)
	paramsFile := writeFile(t, dir, "connect.hcl", `
source {
  entity = "curves.geojson"
  data   = "label"
}

detection {
  max_distance = 0.5
}

output {}
`)

	resp := callTool(t, New(""), "parts_connection", map[string]interface{}{"params_file": paramsFile})
	report := reportOf(t, resp)
	assert.False(t, report.Found(), "no fragment lies within max_distance")
	assert.Empty(t, report.Path)
}

func TestHandleToolsCall_EdgeDetection(t *testing.T) {
	dir := t.TempDir()
	g := &grid.Grid{UCellSize: 1, VCellSize: 1, UCount: 64, VCount: 64, Values: make([]float64, 64*64)}
	for j := 0; j < g.VCount; j++ {
		for i := 0; i < g.UCount; i++ {
			if i >= 16 && i < 48 && j >= 16 && j < 48 {
				g.Values[g.Index(i, j)] = 1
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, grid.EncodeJSON(&buf, g, "density"))
	src := writeFile(t, dir, "grid.json", buf.String())

	s := New("")
	args := map[string]interface{}{
		"source":    map[string]interface{}{"objects": src, "data": "density"},
		"detection": map[string]interface{}{"threshold": 10, "line_length": 4},
		"output":    map[string]interface{}{},
	}

	report := reportOf(t, callTool(t, s, "edge_detection", args))
	assert.True(t, report.Found())
	assert.Equal(t, filepath.Join(dir, "edge_detection.geojson"), report.Path)
	assert.Equal(t, 1, s.cache.Len())

	again := reportOf(t, callTool(t, s, "edge_detection", args))
	assert.Equal(t, report, again)
	assert.Equal(t, 1, s.cache.Len(), "grid is served from the cache")
}

func TestHandleToolsCall_Errors(t *testing.T) {
	s := New("")

	resp := callTool(t, s, "no_such_tool", map[string]interface{}{})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeToolFailed, resp.Error.Code)
	assert.Contains(t, resp.Error.Data, "unknown tool")

	resp = callTool(t, s, "parts_connection", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeToolFailed, resp.Error.Code)

	resp = callTool(t, s, "parts_connection", map[string]interface{}{"source": map[string]interface{}{}})
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Data, "source entity is required")

	resp = callTool(t, s, "edge_detection", map[string]interface{}{"source": "not an object"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeToolFailed, resp.Error.Code)

	resp = s.handleRequest(testContext(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/call", Params: json.RawMessage(`[1, 2]`)})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestRun(t *testing.T) {
	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		``,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`not json`,
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	}, "\n")

	var out bytes.Buffer
	require.NoError(t, New("").Run(testContext(), strings.NewReader(input), &out))

	var responses []MCPResponse
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp MCPResponse
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		responses = append(responses, resp)
	}

	require.Len(t, responses, 3)
	assert.Equal(t, float64(1), responses[0].ID)
	require.NotNil(t, responses[1].Error)
	assert.Equal(t, codeParseError, responses[1].Error.Code)
	assert.Nil(t, responses[1].ID)
	assert.Equal(t, float64(2), responses[2].ID)
	assert.Nil(t, responses[2].Error)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext())
	cancel()

	var out bytes.Buffer
	err := New("").Run(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`), &out)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String())
}

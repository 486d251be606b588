package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/curve-apps/internal/driver"
	"github.com/ironsheep/curve-apps/internal/params"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke ("parts_connection" or "edge_detection").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// errUnknownTool is returned for a tools/call naming no registered tool.
var errUnknownTool = errors.New("unknown tool")

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the driver report in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON report>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var p ToolCallParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	report, err := s.executeTool(ctx, p.Name, p.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(report),
				},
			},
		},
	}
}

// executeTool dispatches a tool call to its driver.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (*driver.Report, error) {
	switch name {
	case "parts_connection":
		return s.handlePartsConnection(ctx, args)
	case "edge_detection":
		return s.handleEdgeDetection(ctx, args)
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownTool, name)
	}
}

// paramsFileArgs selects a parameter file instead of inline arguments.
type paramsFileArgs struct {
	ParamsFile string `json:"params_file"`
}

func (s *Server) handlePartsConnection(ctx context.Context, args json.RawMessage) (*driver.Report, error) {
	p, err := decodeArgs(ctx, args, params.LoadPartsConnection)
	if err != nil {
		return nil, err
	}
	d, err := driver.NewPartsConnection(p)
	if err != nil {
		return nil, err
	}
	return d.Run(ctx)
}

func (s *Server) handleEdgeDetection(ctx context.Context, args json.RawMessage) (*driver.Report, error) {
	p, err := decodeArgs(ctx, args, params.LoadEdgeDetection)
	if err != nil {
		return nil, err
	}
	d, err := driver.NewEdgeDetection(p, s.cache)
	if err != nil {
		return nil, err
	}
	return d.Run(ctx)
}

// decodeArgs reads a parameter bundle from the call arguments: either a
// params_file loaded with load, or the bundle itself inline.
func decodeArgs[T any](ctx context.Context, args json.RawMessage, load func(context.Context, string) (*T, error)) (*T, error) {
	if len(args) == 0 {
		return nil, errors.New("missing arguments")
	}

	var f paramsFileArgs
	if err := json.Unmarshal(args, &f); err != nil {
		return nil, err
	}
	if f.ParamsFile != "" {
		return load(ctx, f.ParamsFile)
	}

	p := new(T)
	if err := json.Unmarshal(args, p); err != nil {
		return nil, err
	}
	return p, nil
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func numberProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "number", "description": description}
}

func integerProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

// outputSchema is shared by both tools.
func outputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path":      stringProp("Absolute path of the written GeoJSON file. Defaults to a file named after export_as next to the source"),
			"export_as": stringProp("Name of the output curve object"),
			"out_group": stringProp("Group the output curve is placed in"),
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "parts_connection",
			Description: "Connect the parts of a labeled curve. Vertices sharing a label are linked across parts into chains; the connected curve is written as GeoJSON. Pass either params_file or the parameter blocks inline.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"params_file":          stringProp("Absolute path to an HCL or JSON parameter file. Other arguments are ignored when set"),
					"monitoring_directory": stringProp("Directory receiving a copy of the result"),
					"workers":              integerProp("Number of labels processed concurrently. Default 1"),
					"source": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"entity": stringProp("Absolute path to the GeoJSON curve"),
							"parts":  stringProp("Property holding part ids. Default is the curve's line topology"),
							"data":   stringProp("Property holding labels. Default labels every vertex 1. name, group and z are reserved"),
						},
						"required": []string{"entity"},
					},
					"detection": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"max_distance": numberProp("Longest allowed connection, non-negative. Unbounded when absent; 0 joins coincident ends only"),
							"min_edges":    integerProp("Minimum number of connections per chain. Default 1"),
							"damping":      numberProp("Penalty on costly connections. Default 0"),
							"neighbors":    integerProp("Candidates kept per fragment end, nearest first. 0 keeps all"),
						},
					},
					"output": outputSchema(),
				},
			},
		},
		{
			Name:        "edge_detection",
			Description: "Detect straight edges in a grid with Canny and a windowed probabilistic Hough transform. Segments are written as a GeoJSON curve. Pass either params_file or the parameter blocks inline.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"params_file":          stringProp("Absolute path to an HCL or JSON parameter file. Other arguments are ignored when set"),
					"monitoring_directory": stringProp("Directory receiving a copy of the result"),
					"source": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"objects": stringProp("Absolute path to a JSON grid document or a raster image"),
							"data":    stringProp("Channel of the grid document to scan"),
						},
						"required": []string{"objects"},
					},
					"detection": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"sigma":         numberProp("Gaussian smoothing before Canny, 0 to 10. Default 1"),
							"threshold":     numberProp("Hough accumulator threshold, 1 to 100. Default 1"),
							"line_length":   integerProp("Minimum segment length in cells, 1 to 100. Default 1"),
							"line_gap":      integerProp("Largest gap bridged inside a segment, 1 to 100. Default 1"),
							"window_size":   integerProp("Hough window size in cells, 16 to 512. Default 64"),
							"mask_path":     stringProp("Optional PNG path receiving the Canny edge mask"),
							"preview_path":  stringProp("Optional PNG path receiving the mask with segments and window grid drawn over it"),
							"preview_color": stringProp("Hex colour of segments in the preview. Default #ff3030"),
						},
					},
					"output": outputSchema(),
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

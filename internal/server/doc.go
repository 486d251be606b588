// Package server implements an MCP (Model Context Protocol) server exposing
// the curve applications as tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - parts_connection: connect the parts of a labeled curve
//   - edge_detection: find straight edges in a grid
//
// Tool arguments mirror the blocks of the parameter files (source, detection,
// output), or name a parameter file through params_file. The result of a call
// is the driver report as JSON text.
//
// # Grid Caching
//
// Grids loaded by edge_detection are cached by path and channel for the
// lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
package server

// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// dispatches each command to its driver or to the MCP server.
package cli

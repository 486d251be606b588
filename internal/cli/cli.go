package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Commands understood by Parse.
const (
	CommandConnect = "connect"
	CommandEdges   = "edges"
	CommandServe   = "serve"
	CommandVersion = "version"
)

// Config is the parsed command line.
type Config struct {
	Command string

	// ParamsPath is the parameter file of connect and edges.
	ParamsPath string

	LogFormat string
	LogLevel  string

	// Workers overrides the parameter file's worker count when positive.
	Workers int
}

const usage = `
curve-apps - Curve connection and edge detection.

Usage:
  curve-apps connect [options] PARAMS_FILE
  curve-apps edges [options] PARAMS_FILE
  curve-apps serve [options]
  curve-apps version

Commands:
  connect   Connect the parts of a labeled curve.
  edges     Detect straight edges in a grid.
  serve     Run the MCP server on stdin/stdout.
  version   Print version information.

PARAMS_FILE is an HCL (.hcl) or JSON (.json) parameter file.
`

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Config, bool, error) {
	slog.Debug("CLI parser started.")

	if len(args) == 0 {
		fmt.Fprint(output, usage)
		return nil, true, nil
	}

	command := args[0]
	switch command {
	case "help", "-h", "-help", "--help":
		fmt.Fprint(output, usage)
		return nil, true, nil
	case CommandVersion, "-v", "--version":
		return &Config{Command: CommandVersion}, false, nil
	case CommandConnect, CommandEdges, CommandServe:
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", command)}
	}

	flagSet := flag.NewFlagSet("curve-apps "+command, flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, usage)
		fmt.Fprintf(output, "\nOptions for %s:\n", command)
		flagSet.PrintDefaults()
	}

	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	var workersFlag *int
	if command == CommandConnect {
		workersFlag = flagSet.Int("workers", 0, "Number of labels connected concurrently. 0 keeps the parameter file's value.")
	}

	if err := flagSet.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.", "command", command)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	cfg := &Config{Command: command, LogFormat: logFormat, LogLevel: logLevel}

	if workersFlag != nil {
		if *workersFlag < 0 {
			return nil, false, &ExitError{Code: 2, Message: "invalid workers: must be non-negative"}
		}
		cfg.Workers = *workersFlag
	}

	if command != CommandServe {
		if flagSet.NArg() != 1 {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("%s requires exactly one parameter file", command)}
		}
		cfg.ParamsPath = flagSet.Arg(0)
	} else if flagSet.NArg() > 0 {
		return nil, false, &ExitError{Code: 2, Message: "serve takes no arguments"}
	}

	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, false, nil
}

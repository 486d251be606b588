package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ironsheep/curve-apps/internal/ctxlog"
	"github.com/ironsheep/curve-apps/internal/driver"
	"github.com/ironsheep/curve-apps/internal/params"
	"github.com/ironsheep/curve-apps/internal/server"
)

// BuildInfo is the version information stamped into the binary.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// Streams are the process streams a command reads and writes. Logs go to
// Err so Out stays clean for reports and the MCP protocol.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Run executes the parsed command. Reports of connect and edges are written
// to the output stream as JSON.
func Run(ctx context.Context, cfg *Config, build BuildInfo, streams Streams) error {
	if cfg.Command == CommandVersion {
		fmt.Fprintf(streams.Out, "curve-apps %s\n", build.Version)
		fmt.Fprintf(streams.Out, "  Build time: %s\n", build.BuildTime)
		fmt.Fprintf(streams.Out, "  Git commit: %s\n", build.GitCommit)
		return nil
	}

	logger := ctxlog.New(cfg.LogLevel, cfg.LogFormat, streams.Err)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.", "command", cfg.Command)

	switch cfg.Command {
	case CommandConnect:
		return runConnect(ctx, cfg, streams.Out)
	case CommandEdges:
		return runEdges(ctx, cfg, streams.Out)
	case CommandServe:
		logger.InfoContext(ctx, "MCP server starting.", "version", build.Version, "commit", build.GitCommit)
		return server.New(build.Version).Run(ctx, streams.In, streams.Out)
	default:
		return &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", cfg.Command)}
	}
}

func runConnect(ctx context.Context, cfg *Config, out io.Writer) error {
	p, err := params.LoadPartsConnection(ctx, cfg.ParamsPath)
	if err != nil {
		return err
	}
	if cfg.Workers > 0 {
		p.Workers = cfg.Workers
	}

	d, err := driver.NewPartsConnection(p)
	if err != nil {
		return err
	}
	report, err := d.Run(ctx)
	if err != nil {
		return err
	}
	return writeReport(out, report)
}

func runEdges(ctx context.Context, cfg *Config, out io.Writer) error {
	p, err := params.LoadEdgeDetection(ctx, cfg.ParamsPath)
	if err != nil {
		return err
	}

	d, err := driver.NewEdgeDetection(p, nil)
	if err != nil {
		return err
	}
	report, err := d.Run(ctx)
	if err != nil {
		return err
	}
	return writeReport(out, report)
}

func writeReport(w io.Writer, report *driver.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("cli: write report: %w", err)
	}
	return nil
}

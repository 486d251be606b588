package params

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/ironsheep/curve-apps/internal/ctxlog"
)

// LoadPartsConnection reads a parts connection parameter file.
//
// Parameters:
//   - ctx: Carries the logger used for decode progress.
//   - path: An HCL file, or HCL-flavoured JSON when it ends in .json.
//
// Returns:
//   - *PartsConnection: The decoded bundle. It is not validated; call
//     Validate before use.
//   - error: Non-nil if the file cannot be read, parsed or decoded. HCL
//     diagnostics are wrapped in the error.
//
// Relative paths in the file are taken relative to the file's directory.
// Only the source block is required.
func LoadPartsConnection(ctx context.Context, path string) (*PartsConnection, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("params: read %s: %w", path, err)
	}

	var p PartsConnection
	if err := Decode(ctx, path, src, &p); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	rebase(dir, &p.Source.Entity)
	if p.Output != nil {
		rebase(dir, &p.Output.Path)
	}
	rebase(dir, &p.MonitoringDirectory)
	return &p, nil
}

// LoadEdgeDetection reads an edge detection parameter file. It follows the
// rules of LoadPartsConnection; mask_path and preview_path are rebased too.
func LoadEdgeDetection(ctx context.Context, path string) (*EdgeDetectionParams, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("params: read %s: %w", path, err)
	}

	var p EdgeDetectionParams
	if err := Decode(ctx, path, src, &p); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	rebase(dir, &p.Source.Objects)
	if p.Output != nil {
		rebase(dir, &p.Output.Path)
	}
	rebase(dir, &p.MonitoringDirectory)
	if p.Detection != nil {
		rebase(dir, &p.Detection.MaskPath)
		rebase(dir, &p.Detection.PreviewPath)
	}
	return &p, nil
}

// Decode parses src as native HCL, or as HCL-flavoured JSON when filename
// ends in .json, and decodes it into target. Expressions may refer to the
// process environment as env.NAME.
func Decode(ctx context.Context, filename string, src []byte, target any) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding parameter file.", "path", filename)

	parser := hclparse.NewParser()
	var (
		file  *hcl.File
		diags hcl.Diagnostics
	)
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		file, diags = parser.ParseJSON(src, filename)
	} else {
		file, diags = parser.ParseHCL(src, filename)
	}
	if diags.HasErrors() {
		return fmt.Errorf("params: parse %s: %w", filename, diags)
	}

	diags = gohcl.DecodeBody(file.Body, evalContext(), target)
	if diags.HasErrors() {
		return fmt.Errorf("params: decode %s: %w", filename, diags)
	}

	logger.Debug("Decoded parameter file.", "path", filename)
	return nil
}

// evalContext exposes the environment to parameter expressions.
func evalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(env),
		},
	}
}

// rebase makes a non-empty relative path relative to dir.
func rebase(dir string, path *string) {
	if *path == "" || filepath.IsAbs(*path) {
		return
	}
	*path = filepath.Join(dir, *path)
}

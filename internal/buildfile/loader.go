// Package buildfile discovers and parses BUILD.hcl declaration files into a
// target index. Each top-level block `kind "name" { field = ... }` becomes
// one target declaration validated against the kind's registered schema.
package buildfile

import (
	"context"
	"fmt"
	"path"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/zclconf/go-cty/cty"

	"github.com/williamscs/pants/internal/address"
	"github.com/williamscs/pants/internal/ctxlog"
	"github.com/williamscs/pants/internal/fsutil"
	"github.com/williamscs/pants/internal/registry"
	"github.com/williamscs/pants/internal/target"
)

// FileName is the declaration file looked for in every directory.
const FileName = "BUILD.hcl"

// Loader parses declaration files against the kinds in a registry.
type Loader struct {
	registry *registry.Registry
	ignore   *ignore.GitIgnore
}

// NewLoader creates a loader. ignorePatterns are gitignore-style patterns;
// declaration files under matching paths are skipped entirely.
func NewLoader(reg *registry.Registry, ignorePatterns []string) *Loader {
	return &Loader{
		registry: reg,
		ignore:   ignore.CompileIgnoreLines(ignorePatterns...),
	}
}

// Load parses every declaration file in the snapshot and returns the
// populated target index.
func (l *Loader) Load(ctx context.Context, snap fsutil.Snapshot) (*target.Index, error) {
	logger := ctxlog.FromContext(ctx)

	var files []string
	for _, f := range snap.Files() {
		if path.Base(f) != FileName {
			continue
		}
		if l.ignore.MatchesPath(f) {
			logger.Debug("Skipping ignored declaration file.", "path", f)
			continue
		}
		files = append(files, f)
	}
	logger.Debug("Discovered declaration files.", "count", len(files))

	index := target.NewIndex(snap)
	parser := hclparse.NewParser()
	for _, file := range files {
		if err := l.loadFile(parser, snap, file, index); err != nil {
			return nil, err
		}
	}
	logger.Debug("Declaration loading complete.", "targets", index.Len())
	return index, nil
}

func (l *Loader) loadFile(parser *hclparse.Parser, snap fsutil.Snapshot, file string, index *target.Index) error {
	src, err := snap.Read(file)
	if err != nil {
		return fmt.Errorf("reading %s: %w", file, err)
	}
	hclFile, diags := parser.ParseHCL(src, file)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse %s: %w", file, diags)
	}
	body, ok := hclFile.Body.(*hclsyntax.Body)
	if !ok {
		return fmt.Errorf("%s: unexpected body type", file)
	}

	dir := path.Dir(file)
	if dir == "." {
		dir = ""
	}
	for _, block := range body.Blocks {
		if err := l.loadBlock(block, dir, file, index); err != nil {
			return err
		}
	}
	for _, attr := range body.Attributes {
		return &DeclarationError{
			File:    file,
			Range:   attr.SrcRange,
			Message: fmt.Sprintf("top-level attribute %q is not allowed; declarations are blocks", attr.Name),
		}
	}
	return nil
}

func (l *Loader) loadBlock(block *hclsyntax.Block, dir, file string, index *target.Index) error {
	kind, ok := l.registry.Kind(block.Type)
	if !ok {
		return &DeclarationError{
			File:    file,
			Range:   block.TypeRange,
			Message: fmt.Sprintf("unknown target kind %q", block.Type),
		}
	}
	if len(block.Labels) != 1 {
		return &DeclarationError{
			File:    file,
			Range:   block.DefRange(),
			Message: fmt.Sprintf("%s block needs exactly one label, the target name", block.Type),
		}
	}

	addr, err := address.New(dir, address.WithTargetName(block.Labels[0]))
	if err != nil {
		return &DeclarationError{File: file, Range: block.LabelRanges[0], Message: err.Error()}
	}

	values := make(map[string]cty.Value, len(block.Body.Attributes))
	for name, attr := range block.Body.Attributes {
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return &DeclarationError{File: file, Range: attr.SrcRange, Message: diags.Error()}
		}
		values[name] = v
	}
	if len(block.Body.Blocks) > 0 {
		nested := block.Body.Blocks[0]
		return &DeclarationError{
			File:    file,
			Range:   nested.DefRange(),
			Message: fmt.Sprintf("nested %q block is not allowed inside a declaration", nested.Type),
		}
	}

	tgt, err := target.New(kind, addr, values)
	if err != nil {
		return &DeclarationError{File: file, Range: block.DefRange(), Message: err.Error()}
	}
	return index.Add(tgt, file)
}

// DeclarationError is a load failure pinned to a source range.
type DeclarationError struct {
	File    string
	Range   hcl.Range
	Message string
}

func (e *DeclarationError) Error() string {
	return fmt.Sprintf("%s:%d,%d: %s", e.File, e.Range.Start.Line, e.Range.Start.Column, e.Message)
}

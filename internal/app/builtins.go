package app

import (
	"bufio"
	"bytes"
	"context"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/williamscs/pants/internal/address"
	"github.com/williamscs/pants/internal/ctxlog"
	"github.com/williamscs/pants/internal/registry"
	"github.com/williamscs/pants/internal/target"
)

// Field-kind identifiers of the built-in kinds. Plugins hook injection and
// inference onto these.
const (
	BuiltinDepsKind    = "builtin-deps"
	BuiltinSourcesKind = "line-sources"
)

// importPrefix marks a dependency reference inside a source file for the
// built-in line-based inference.
const importPrefix = "import "

func builtinFields() []target.FieldDef {
	return []target.FieldDef{
		{Name: target.FieldDependencies, Type: cty.List(cty.String)},
		{Name: target.FieldSources, Type: cty.List(cty.String)},
		{Name: "tags", Type: cty.List(cty.String), Default: cty.ListValEmpty(cty.String)},
		{Name: "description", Type: cty.String},
	}
}

// registerBuiltins installs the built-in target kinds and the line-based
// dependency inference.
func registerBuiltins(reg *registry.Registry) {
	reg.RegisterKind(&target.Kind{
		Name:                       "target",
		Fields:                     builtinFields(),
		DepsFieldKind:              BuiltinDepsKind,
		SourcesFieldKind:           BuiltinSourcesKind,
		SupportsTransitiveExcludes: true,
	})
	reg.RegisterKind(&target.Kind{
		Name:                       "filegroup",
		Fields:                     builtinFields(),
		DepsFieldKind:              BuiltinDepsKind,
		SourcesFieldKind:           BuiltinSourcesKind,
		SupportsTransitiveExcludes: true,
		Generator:                  true,
		FineGrained:                true,
	})

	reg.RegisterInferrer(BuiltinSourcesKind, &registry.RegisteredInferrer{
		Name:               "import-lines",
		SiblingsInferrable: true,
		Fn:                 inferImportLines,
	})

	reg.RegisterImplementation(&registry.Implementation{
		Name:           "list-sources",
		Operation:      "sources",
		RequiredFields: []string{target.FieldSources},
	})
}

// inferImportLines scans each source file for lines of the form
// `import <spec>` and turns the specs into dependency addresses, resolved
// relative to the file's directory. Malformed specs are skipped with a
// debug log.
func inferImportLines(ctx context.Context, req registry.InferenceRequest) (registry.InferenceResult, error) {
	logger := ctxlog.FromContext(ctx)
	var result registry.InferenceResult
	for _, source := range req.Sources {
		content, err := req.Snapshot.Read(source)
		if err != nil {
			return registry.InferenceResult{}, err
		}
		dir := ""
		if i := strings.LastIndexByte(source, '/'); i >= 0 {
			dir = source[:i]
		}
		scanner := bufio.NewScanner(bytes.NewReader(content))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, importPrefix) {
				continue
			}
			spec := strings.TrimSpace(strings.TrimPrefix(line, importPrefix))
			addr, err := parseImport(spec, dir, req.Snapshot.Exists)
			if err != nil {
				logger.Debug("Skipping unparseable import line.",
					"file", source, "spec", spec, "error", err)
				continue
			}
			result.Include = append(result.Include, addr)
		}
		if err := scanner.Err(); err != nil {
			return registry.InferenceResult{}, err
		}
	}
	return result, nil
}

func parseImport(spec, relativeTo string, exists func(string) bool) (address.Address, error) {
	in, err := address.Parse(spec, relativeTo)
	if err != nil {
		return address.Address{}, err
	}
	if exists(in.PathComponent) {
		return in.FileToAddress()
	}
	return in.DirToAddress()
}

package app

import (
	"context"
	"fmt"
	"strings"

	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/williamscs/pants/internal/address"
	"github.com/williamscs/pants/internal/ctxlog"
	"github.com/williamscs/pants/internal/graph"
	"github.com/williamscs/pants/internal/owners"
	"github.com/williamscs/pants/internal/specs"
	"github.com/williamscs/pants/internal/target"
)

// Run dispatches one query command. args are spec strings for the graph
// commands and file paths for `owners`.
func (a *App) Run(ctx context.Context, command string, args []string) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", command, "args", len(args))

	switch command {
	case "targets":
		return a.runTargets()
	case "deps":
		return a.runDeps(ctx, args)
	case "closure":
		return a.runClosure(ctx, args)
	case "coarsen":
		return a.runCoarsen(ctx, args)
	case "owners":
		return a.runOwners(ctx, args)
	case "sources":
		return a.runSources(ctx, args)
	case "peek":
		return a.runPeek(ctx, args)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *App) unmatchedBehavior() owners.UnmatchedBehavior {
	switch a.config.UnownedFiles {
	case "ignore":
		return owners.IgnoreUnmatched
	case "warn":
		return owners.WarnUnmatched
	default:
		return owners.ErrorUnmatched
	}
}

// resolveSpecs turns raw CLI specs into resolved targets.
func (a *App) resolveSpecs(ctx context.Context, raw []string) (*specs.Resolution, []*target.Target, error) {
	res, err := a.matcher.Resolve(ctx, raw, specs.Options{UnmatchedLiteral: a.unmatchedBehavior()})
	if err != nil {
		return nil, nil, err
	}
	targets := make([]*target.Target, 0, len(res.Addresses))
	for _, addr := range res.Addresses {
		t, err := a.index.Resolve(addr)
		if err != nil {
			return nil, nil, err
		}
		targets = append(targets, t)
	}
	return res, targets, nil
}

func (a *App) runTargets() error {
	all, err := a.index.ExpandedAll()
	if err != nil {
		return err
	}
	for _, t := range all {
		fmt.Fprintln(a.outW, t.Address().Spec())
	}
	return nil
}

func (a *App) runDeps(ctx context.Context, raw []string) error {
	_, targets, err := a.resolveSpecs(ctx, raw)
	if err != nil {
		return err
	}
	printed := make(map[address.Address]struct{})
	for _, t := range targets {
		deps, err := a.resolver.DirectDependencies(ctx, graph.Request{Target: t})
		if err != nil {
			return err
		}
		for _, dep := range deps {
			if _, dup := printed[dep]; dup {
				continue
			}
			printed[dep] = struct{}{}
			fmt.Fprintln(a.outW, dep.Spec())
		}
	}
	return nil
}

func (a *App) runClosure(ctx context.Context, raw []string) error {
	res, _, err := a.resolveSpecs(ctx, raw)
	if err != nil {
		return err
	}
	tt, err := a.engine.TransitiveTargets(ctx, graph.TransitiveTargetsRequest{Roots: res.Addresses})
	if err != nil {
		return err
	}
	for _, t := range tt.Closure() {
		fmt.Fprintln(a.outW, t.Address().Spec())
	}
	return nil
}

func (a *App) runCoarsen(ctx context.Context, raw []string) error {
	res, _, err := a.resolveSpecs(ctx, raw)
	if err != nil {
		return err
	}
	cts, err := a.engine.CoarsenedTargets(ctx, graph.CoarsenedTargetsRequest{Roots: res.Addresses})
	if err != nil {
		return err
	}
	for _, ct := range cts.Components {
		specStrs := make([]string, len(ct.Members))
		for i, m := range ct.Members {
			specStrs[i] = m.Address().Spec()
		}
		fmt.Fprintln(a.outW, strings.Join(specStrs, " "))
	}
	return nil
}

func (a *App) runOwners(ctx context.Context, paths []string) error {
	found, err := a.finder.Owners(ctx, owners.Request{
		Sources:   paths,
		Unmatched: a.unmatchedBehavior(),
	})
	if err != nil {
		return err
	}
	for _, addr := range found {
		fmt.Fprintln(a.outW, addr.Spec())
	}
	return nil
}

// runSources prints the files matched by each resolved target's sources
// field. Targets without one make the request inapplicable.
func (a *App) runSources(ctx context.Context, raw []string) error {
	res, targets, err := a.resolveSpecs(ctx, raw)
	if err != nil {
		return err
	}
	applicable, err := specs.ApplicableTargets(a.registry, "sources", res, targets)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{})
	for _, t := range applicable {
		files, err := a.index.SourceFiles(t)
		if err != nil {
			return err
		}
		for _, f := range files {
			full := f
			if dir := t.Address().SpecPath(); dir != "" {
				full = dir + "/" + f
			}
			if _, dup := seen[full]; dup {
				continue
			}
			seen[full] = struct{}{}
			fmt.Fprintln(a.outW, full)
		}
	}
	return nil
}

func (a *App) runPeek(ctx context.Context, raw []string) error {
	_, targets, err := a.resolveSpecs(ctx, raw)
	if err != nil {
		return err
	}
	for _, t := range targets {
		fmt.Fprintf(a.outW, "%s %s\n", t.Kind().Name, t.Address().Spec())
		for _, def := range t.Kind().Fields {
			v, err := t.Field(def.Name)
			if err != nil {
				return err
			}
			if v.IsNull() {
				continue
			}
			encoded, err := ctyjson.Marshal(v, def.Type)
			if err != nil {
				return fmt.Errorf("rendering %s of %s: %w", def.Name, t.Address(), err)
			}
			fmt.Fprintf(a.outW, "  %s = %s\n", def.Name, encoded)
		}
	}
	return nil
}

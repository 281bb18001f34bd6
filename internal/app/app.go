package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/williamscs/pants/internal/buildfile"
	"github.com/williamscs/pants/internal/ctxlog"
	"github.com/williamscs/pants/internal/fsutil"
	"github.com/williamscs/pants/internal/graph"
	"github.com/williamscs/pants/internal/owners"
	"github.com/williamscs/pants/internal/registry"
	"github.com/williamscs/pants/internal/specs"
	"github.com/williamscs/pants/internal/target"
)

// App encapsulates one resolution session: an immutable snapshot of the
// repository, the loaded declarations, and the query engines over them.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	index    *target.Index
	resolver *graph.Resolver
	engine   *graph.Engine
	matcher  *specs.Matcher
	finder   *owners.Finder
}

// Option customizes App construction, mainly for tests.
type Option func(*options)

type options struct {
	snapshot  fsutil.Snapshot
	configure func(*registry.Registry)
}

// WithSnapshot substitutes a pre-captured snapshot for the filesystem scan.
func WithSnapshot(s fsutil.Snapshot) Option {
	return func(o *options) { o.snapshot = s }
}

// WithRegistryHooks runs extra registrations after the built-in kinds.
func WithRegistryHooks(fn func(*registry.Registry)) Option {
	return func(o *options) { o.configure = fn }
}

// NewApp constructs a fully initialized App: isolated logger, registry with
// the built-in kinds, scanned snapshot, and loaded declarations.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New()
	registerBuiltins(reg)
	if o.configure != nil {
		o.configure(reg)
	}
	logger.Debug("Capability registry populated.")

	snap := o.snapshot
	if snap == nil {
		scanned, err := fsutil.ScanDir(cfg.RootDir)
		if err != nil {
			return nil, fmt.Errorf("failed to scan repository: %w", err)
		}
		snap = scanned
	}
	logger.Debug("Snapshot captured.", "files", len(snap.Files()))

	index, err := buildfile.NewLoader(reg, cfg.BuildIgnore).Load(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("failed to load declarations: %w", err)
	}
	logger.Debug("Declarations loaded.", "targets", index.Len())

	resolver := graph.NewResolver(index, reg)
	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		index:    index,
		resolver: resolver,
		engine:   graph.NewEngine(resolver),
		matcher:  specs.NewMatcher(index),
		finder:   owners.NewFinder(index),
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry { return a.registry }

// Index returns the loaded target index. This is primarily for testing.
func (a *App) Index() *target.Index { return a.index }

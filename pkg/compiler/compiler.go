package compiler

import (
	"sort"

	"github.com/cuemby/terminator/pkg/log"
	"github.com/cuemby/terminator/pkg/metrics"
	"github.com/cuemby/terminator/pkg/pillar"
	"github.com/cuemby/terminator/pkg/sitespec"
	"github.com/cuemby/terminator/pkg/types"
	"github.com/rs/zerolog"
)

// Compiler turns pillars into resource graphs. It holds only immutable
// options and is safe for concurrent use.
type Compiler struct {
	opts   Options
	nested bool // Platform supports the nested proxy directives
	logger zerolog.Logger
}

// New creates a compiler
func New(opts Options) *Compiler {
	c := &Compiler{
		opts:   opts,
		nested: supportsNestedProxy(opts.PlatformVersion),
		logger: log.WithComponent("compiler"),
	}
	if opts.PlatformVersion != "" && !validVersion(opts.PlatformVersion) {
		c.logger.Warn().Str("version", opts.PlatformVersion).Msg("Unrecognized platform version, version gated features disabled")
	}
	return c
}

// WithCompileID returns a copy of c whose log events carry id
func (c *Compiler) WithCompileID(id string) *Compiler {
	cp := *c
	cp.logger = c.logger.With().Str("compile_id", id).Logger()
	return &cp
}

// Compile normalizes, validates and builds a pillar. An invalid pillar
// yields a *types.ValidationError and no graph.
func (c *Compiler) Compile(m *pillar.Map) (*types.ResourceGraph, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.CompileDuration)

	graph, err := c.compile(m)
	if err != nil {
		metrics.CompilationsTotal.WithLabelValues("error").Inc()
		c.logger.Debug().Err(err).Msg("Compilation rejected")
		return nil, err
	}

	metrics.CompilationsTotal.WithLabelValues("success").Inc()
	c.logger.Debug().
		Int("resources", graph.Len()).
		Dur("duration", timer.Duration()).
		Msg("Compilation finished")
	return graph, nil
}

func (c *Compiler) compile(m *pillar.Map) (*types.ResourceGraph, error) {
	spec, err := sitespec.Normalize(m)
	if err != nil {
		return nil, err
	}
	if err := sitespec.Validate(spec); err != nil {
		return nil, err
	}
	return c.Build(spec)
}

// Build emits the resource graph of an already normalized and validated
// pillar. Sites are processed in domain order whatever order they are
// given in, so the first site in that order names shared upstream pools.
func (c *Compiler) Build(spec *types.Pillar) (*types.ResourceGraph, error) {
	b, err := c.build(spec)
	if err != nil {
		return nil, err
	}

	stats := b.stats()
	stats.Publish()
	c.logger.Debug().
		Int("sites", stats.Sites).
		Int("upstream_pools", stats.Pools).
		Int("shared_pools", stats.SharedPools).
		Msg("Built resource graph")
	return b.graph, nil
}

func (c *Compiler) build(spec *types.Pillar) (*builder, error) {
	global := spec.Global
	if global == nil {
		global = &types.GlobalSpec{}
	}

	sites := make([]*types.SiteSpec, len(spec.Sites))
	copy(sites, spec.Sites)
	sort.SliceStable(sites, func(i, j int) bool {
		return sites[i].Domain < sites[j].Domain
	})

	b := newBuilder(c.opts, c.nested, c.logger)
	for _, site := range sites {
		if err := b.addSite(global, site); err != nil {
			return nil, err
		}
	}
	b.finish()
	return b, nil
}

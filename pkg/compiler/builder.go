package compiler

import (
	"path"
	"reflect"

	"github.com/cuemby/terminator/pkg/firewall"
	"github.com/cuemby/terminator/pkg/metrics"
	"github.com/cuemby/terminator/pkg/pillar"
	"github.com/cuemby/terminator/pkg/types"
	"github.com/cuemby/terminator/pkg/upstream"
	"github.com/rs/zerolog"
)

// builder accumulates the graph of one compilation
type builder struct {
	opts   Options
	nested bool
	logger zerolog.Logger

	graph    *types.ResourceGraph
	registry *upstream.Registry
	dests    *firewall.Set
	zones    *zoneLines

	sites              int
	acme               bool
	defaultTrustRooted bool
}

func newBuilder(opts Options, nested bool, logger zerolog.Logger) *builder {
	return &builder{
		opts:     opts,
		nested:   nested,
		logger:   logger,
		graph:    types.NewResourceGraph(),
		registry: upstream.NewRegistry(),
		dests:    firewall.NewSet(),
		zones:    newZoneLines(),
	}
}

func (b *builder) addSite(global *types.GlobalSpec, site *types.SiteSpec) error {
	ctx := &types.SiteContext{
		Site:      site.Domain,
		Locations: make([]*types.LocationContext, 0, len(site.Locations)),
		Upstreams: make(map[string]*types.UpstreamPool),
		Headers:   siteHeaders(global, site),
		ACME:      site.ACME,
		Nested:    site.Nested,
	}

	zones := pillar.Merge(global.RateLimitZones, site.RateLimitZones)
	for _, loc := range site.Locations {
		lc, err := b.location(site, loc, ctx, zones)
		if err != nil {
			return err
		}
		ctx.Locations = append(ctx.Locations, lc)
	}

	if err := b.certificates(site, ctx); err != nil {
		return err
	}
	b.errorPages(global, site, ctx)

	b.graph.Resources[site.Domain+"-nginx-site"] = &types.Resource{
		Kind: types.ResourceKindSite,
		File: &types.FileResource{
			Path:     path.Join(b.opts.SitesDir, site.Domain),
			Template: SiteTemplate,
			Context:  ctx,
		},
	}

	b.sites++
	if site.ACME {
		b.acme = true
	}

	b.logger.Debug().
		Str("site", site.Domain).
		Int("locations", len(ctx.Locations)).
		Int("upstream_blocks", len(ctx.Upstreams)).
		Msg("Site compiled")
	return nil
}

func (b *builder) location(site *types.SiteSpec, loc *types.LocationSpec, ctx *types.SiteContext, zones map[string]types.RateLimitZone) (*types.LocationContext, error) {
	lc := &types.LocationContext{
		Path:                loc.Path,
		Headers:             pillar.Merge(ctx.Headers, loc.Headers),
		ExtraLocationConfig: pillar.CloneValue(loc.ExtraConfig),
	}

	if loc.RateLimit != nil {
		zone, ok := zones[loc.RateLimit.Zone]
		if !ok {
			return nil, types.NewValidationError(types.KindUnknownRateLimitZone, site.Domain, loc.Path, "rate_limit").
				WithDetail("zone %q is not defined", loc.RateLimit.Zone)
		}
		b.zones.reference(zone)
		lc.RateLimit = rateLimitDirective(loc.RateLimit)
	}

	if loc.IsRedirect() {
		redirect := *loc.Redirect
		lc.Redirect = &redirect
		return lc, nil
	}

	pool, err := b.registry.Resolve(site.Domain, loc)
	if err != nil {
		return nil, err
	}

	lc.UpstreamIdentifier = pool.Identifier
	lc.ProxyTarget = upstream.ProxyTarget(pool)
	lc.Protocol = pool.Scheme

	if pool.UseUpstreamBlock {
		ctx.Upstreams[pool.Identifier] = pool
		b.upstreamBlock(pool)
	}
	b.dests.AddPool(pool)

	if err := b.trustRoot(site, loc, pool, lc); err != nil {
		return nil, err
	}
	if err := b.proxyClientCert(site, loc, pool, lc); err != nil {
		return nil, err
	}

	if site.Nested && b.nested {
		lc.ExtraLocationConfig = withRequestID(lc.ExtraLocationConfig)
	}
	return lc, nil
}

// upstreamBlock emits the named upstream block of a pool once, however
// many sites share it
func (b *builder) upstreamBlock(pool *types.UpstreamPool) {
	name := "upstream-" + pool.Identifier
	if b.graph.Has(name) {
		return
	}
	b.graph.Resources[name] = &types.Resource{
		Kind: types.ResourceKindFile,
		File: &types.FileResource{
			Path:     path.Join(b.opts.ConfDir, name+".conf"),
			Template: UpstreamTemplate,
			Context:  pool,
		},
	}
}

// addFile registers a file resource. Registering the same name twice is
// fine as long as the definitions agree.
func (b *builder) addFile(site, location, name string, file *types.FileResource) error {
	if existing := b.graph.Get(name); existing != nil {
		if reflect.DeepEqual(existing.File, file) {
			return nil
		}
		return types.NewValidationError(types.KindConflictingUpstreamOptions, site, location).
			WithDetail("resource %s is already defined with different contents", name)
	}
	b.graph.Resources[name] = &types.Resource{Kind: types.ResourceKindFile, File: file}
	return nil
}

// finish emits the resources that depend on every site
func (b *builder) finish() {
	for _, d := range b.dests.Destinations() {
		b.graph.Resources[d.Name()] = &types.Resource{
			Kind:     types.ResourceKindFirewall,
			Firewall: firewall.Rule(d),
		}
	}

	b.graph.Resources["rate-limit-zones"] = &types.Resource{
		Kind: types.ResourceKindFile,
		File: &types.FileResource{
			Path:     path.Join(b.opts.ConfDir, "rate-limit-zones.conf"),
			Template: RateLimitTemplate,
			Context:  &types.RateLimitContext{Zones: b.zones.Lines()},
		},
	}

	if b.defaultTrustRooted {
		b.graph.Resources["default-trust-root"] = &types.Resource{
			Kind: types.ResourceKindFile,
			File: &types.FileResource{
				Path:     b.opts.DefaultTrustRoot,
				Source:   b.opts.DefaultTrustRootSource,
				Mode:     publicMode,
				MakeDirs: true,
			},
		}
	}

	b.graph.Resources["include"] = &types.Resource{
		Kind:    types.ResourceKindInclude,
		Include: includes(b.acme),
	}
}

func (b *builder) stats() metrics.CompileStats {
	stats := metrics.CompileStats{
		Sites:     b.sites,
		Resources: b.graph.CountByKind(),
	}
	for _, pool := range b.registry.Pools() {
		stats.Pools++
		if len(b.registry.Sites(pool.Identifier)) > 1 {
			stats.SharedPools++
		}
	}
	return stats
}

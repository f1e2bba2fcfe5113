package upstream

import (
	"fmt"
	"sort"

	"github.com/cuemby/terminator/pkg/types"
)

// Registry deduplicates upstream pools across every site of one
// compilation. It is not safe for concurrent use; each compilation owns
// its own registry.
type Registry struct {
	byDescriptor map[string]*types.UpstreamPool
	pools        []*types.UpstreamPool // Creation order
	sites        map[string]map[string]struct{}
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byDescriptor: make(map[string]*types.UpstreamPool),
		sites:        make(map[string]map[string]struct{}),
	}
}

// Resolve returns the pool for a proxied location, creating it on first
// use. The first site to reference a descriptor names the pool; later
// sites with the same descriptor receive the same *UpstreamPool.
func (r *Registry) Resolve(domain string, loc *types.LocationSpec) (*types.UpstreamPool, error) {
	if len(loc.Upstreams) == 0 {
		return nil, types.NewValidationError(types.KindMissingLocationSource, domain, loc.Path, "upstream", "upstreams").
			WithDetail("location has no upstream address")
	}

	addrs := make([]Address, 0, len(loc.Upstreams))
	for _, raw := range loc.Upstreams {
		addr, err := Parse(raw)
		if err != nil {
			return nil, types.NewValidationError(types.KindInvalidBackend, domain, loc.Path, "upstreams").
				WithDetail("%v", err)
		}
		addrs = append(addrs, addr)
	}

	// One pool renders as one proxy_pass target, so scheme and path are shared
	for _, a := range addrs[1:] {
		if a.Scheme != addrs[0].Scheme || a.Path != addrs[0].Path {
			return nil, types.NewValidationError(types.KindInvalidBackend, domain, loc.Path, "upstreams").
				WithDetail("pool members must share scheme and path, got %s://%s%s and %s://%s%s",
					addrs[0].Scheme, addrs[0].HostPort(), addrs[0].Path, a.Scheme, a.HostPort(), a.Path)
		}
	}

	candidate := newPool(addrs, loc)
	desc := NewDescriptor(addrs)
	key := desc.String()

	if existing, ok := r.byDescriptor[key]; ok {
		if !sameOptions(existing, candidate) {
			return nil, types.NewValidationError(types.KindConflictingUpstreamOptions, domain, loc.Path,
				"upstream_keepalive", "upstream_least_conn").
				WithDetail("pool %s is already defined with different options", existing.Identifier)
		}
		r.markSite(existing.Identifier, domain)
		return existing, nil
	}

	candidate.Identifier = Identifier(domain, addrs[0].Host, desc.Digest())
	r.byDescriptor[key] = candidate
	r.pools = append(r.pools, candidate)
	r.markSite(candidate.Identifier, domain)
	return candidate, nil
}

// Pools returns every pool in creation order
func (r *Registry) Pools() []*types.UpstreamPool {
	out := make([]*types.UpstreamPool, len(r.pools))
	copy(out, r.pools)
	return out
}

// Sites returns the sorted domains referencing a pool
func (r *Registry) Sites(identifier string) []string {
	out := make([]string, 0, len(r.sites[identifier]))
	for site := range r.sites[identifier] {
		out = append(out, site)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) markSite(identifier, domain string) {
	if r.sites[identifier] == nil {
		r.sites[identifier] = make(map[string]struct{})
	}
	r.sites[identifier][domain] = struct{}{}
}

func newPool(addrs []Address, loc *types.LocationSpec) *types.UpstreamPool {
	pool := &types.UpstreamPool{
		Servers:   make([]types.UpstreamServer, 0, len(addrs)),
		Keepalive: loc.Keepalive,
		LeastConn: loc.LeastConn,
		Scheme:    addrs[0].Scheme,
		Path:      addrs[0].Path,
	}

	hasArguments := false
	for _, a := range addrs {
		pool.Servers = append(pool.Servers, types.UpstreamServer{
			Hostname:  a.Host,
			Port:      a.Port,
			Arguments: a.Arguments,
		})
		if a.Arguments != "" {
			hasArguments = true
		}
	}

	// A lone server without pooling options is inlined at proxy_pass
	pool.UseUpstreamBlock = len(addrs) > 1 || pool.Keepalive > 0 || pool.LeastConn || hasArguments
	return pool
}

func sameOptions(a, b *types.UpstreamPool) bool {
	if a.Keepalive != b.Keepalive || a.LeastConn != b.LeastConn || len(a.Servers) != len(b.Servers) {
		return false
	}
	for i := range a.Servers {
		if a.Servers[i].Arguments != b.Servers[i].Arguments {
			return false
		}
	}
	return true
}

// ProxyTarget is the proxy_pass argument for a pool: the upstream block
// name when one is rendered, otherwise the server address inline.
func ProxyTarget(pool *types.UpstreamPool) string {
	if pool.UseUpstreamBlock {
		return fmt.Sprintf("%s://%s%s", pool.Scheme, pool.Identifier, pool.Path)
	}
	s := pool.Servers[0]
	addr := Address{Host: s.Hostname, Port: s.Port}
	return fmt.Sprintf("%s://%s%s", pool.Scheme, addr.HostPort(), pool.Path)
}
